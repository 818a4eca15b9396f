package repository

import (
	"context"
	"database/sql"
	"fmt"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS social_posts (
	id                 TEXT PRIMARY KEY,
	content            TEXT NOT NULL,
	content_x          TEXT,
	platforms          TEXT[] NOT NULL DEFAULT '{}',
	scheduled_at       TIMESTAMPTZ NOT NULL,
	image_query        TEXT,
	image_url          TEXT,
	hashtag_set        TEXT,
	status             TEXT NOT NULL DEFAULT 'pending',
	fb_post_id         TEXT,
	ig_post_id         TEXT,
	x_post_id          TEXT,
	error_log          TEXT,
	brand_check_passed BOOLEAN NOT NULL DEFAULT FALSE,
	retry_count        INTEGER NOT NULL DEFAULT 0,
	published_at       TIMESTAMPTZ,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS social_posts_status_scheduled_idx ON social_posts (status, scheduled_at);
`

// EnsureSchema creates the posts table and its index when missing.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}
