package transfer

import "github.com/golang-jwt/jwt/v5"

// PostCreation is accepted by the admin API and read from seed files.
type PostCreation struct {
	Content     string   `json:"content" yaml:"content"`
	ContentAlt  *string  `json:"contentAlt" yaml:"contentAlt"`
	Platforms   []string `json:"platforms" yaml:"platforms"`
	ScheduledAt string   `json:"scheduledAt" yaml:"scheduledAt"`
	HashtagSet  *string  `json:"hashtagSet" yaml:"hashtagSet"`
	ImageQuery  *string  `json:"imageQuery" yaml:"imageQuery"`
	ImageURL    *string  `json:"imageUrl" yaml:"imageUrl"`
}

type PostValidation struct {
	Content    string  `json:"content"`
	ContentAlt *string `json:"contentAlt"`
}

type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}
