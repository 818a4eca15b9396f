package service

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/rebloomsa/social-publisher/internal/repository"
	"github.com/rebloomsa/social-publisher/internal/transfer"
	"gopkg.in/yaml.v3"
)

type SeedResult struct {
	Inserted int
	Skipped  int
	Failed   int
}

// ReadSeedFile decodes a YAML list of posts.
func ReadSeedFile(r io.Reader) ([]transfer.PostCreation, error) {
	var entries []transfer.PostCreation
	if err := yaml.NewDecoder(r).Decode(&entries); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to decode seed file: %w", err)
	}
	return entries, nil
}

// SeedPosts inserts entries as pending posts, skipping any whose slot is
// already taken. Seeded posts are validated at publish time.
func SeedPosts(ctx context.Context, pr repository.PostRepository, entries []transfer.PostCreation, loc *time.Location) (SeedResult, error) {
	var res SeedResult
	for i := range entries {
		post, err := NewPostFromCreation(&entries[i], loc)
		if err != nil {
			log.Printf("  FAIL: entry %d: %v", i+1, err)
			res.Failed++
			continue
		}

		exists, err := pr.ExistsScheduledAt(ctx, post.ScheduledAt)
		if err != nil {
			return res, fmt.Errorf("failed to check slot %s: %w", post.ScheduledAt.Format(time.RFC3339), err)
		}
		if exists {
			log.Printf("  SKIP (exists): %s: %s", post.ScheduledAt.Format(time.RFC3339), preview(post.Content, 50))
			res.Skipped++
			continue
		}

		if _, err := pr.Create(ctx, post); err != nil {
			log.Printf("  FAIL: %s: %v", post.ScheduledAt.Format(time.RFC3339), err)
			res.Failed++
			continue
		}
		log.Printf("  OK: %s: %s", post.ScheduledAt.Format(time.RFC3339), preview(post.Content, 50))
		res.Inserted++
	}
	return res, nil
}
