package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"os"

	_ "github.com/lib/pq"
	config "github.com/rebloomsa/social-publisher/configs"
	"github.com/rebloomsa/social-publisher/internal/repository"
	"github.com/rebloomsa/social-publisher/internal/service"
)

func main() {
	file := flag.String("file", "posts.yaml", "YAML file with the posts to seed")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	f, err := os.Open(*file)
	if err != nil {
		log.Fatalf("Failed to open seed file: %v", err)
	}
	defer f.Close()

	entries, err := service.ReadSeedFile(f)
	if err != nil {
		log.Fatalf("%v", err)
	}

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := repository.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("Failed to prepare schema: %v", err)
	}

	log.Printf("Seeding %d post(s) from %s", len(entries), *file)
	res, err := service.SeedPosts(ctx, repository.NewPostRepository(db), entries, cfg.ReportLocation())
	if err != nil {
		log.Fatalf("Seed aborted: %v", err)
	}
	log.Printf("Done! Inserted: %d, Skipped: %d, Failed: %d, Total: %d", res.Inserted, res.Skipped, res.Failed, len(entries))
}
