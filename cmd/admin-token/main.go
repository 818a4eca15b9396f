package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	config "github.com/rebloomsa/social-publisher/configs"
	"github.com/rebloomsa/social-publisher/pkg/utils"
)

func main() {
	subject := flag.String("subject", "ops", "token subject")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.SecretKey == "" {
		log.Fatal("SECRET_KEY is not set")
	}

	token, err := utils.GenerateToken(cfg.SecretKey, *subject, *ttl)
	if err != nil {
		log.Fatalf("Failed to sign token: %v", err)
	}
	fmt.Println(token)
}
