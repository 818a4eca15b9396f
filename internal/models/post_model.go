package models

import (
	"fmt"
	"time"
)

type PostStatus string

const (
	PostStatusPending    PostStatus = "pending"
	PostStatusPublishing PostStatus = "publishing"
	PostStatusPublished  PostStatus = "published"
	PostStatusBlocked    PostStatus = "blocked"
	PostStatusFailed     PostStatus = "failed"
	PostStatusCancelled  PostStatus = "cancelled"
)

// AllPostStatuses is the fixed order used for aggregate counts.
var AllPostStatuses = []PostStatus{
	PostStatusPending,
	PostStatusPublishing,
	PostStatusPublished,
	PostStatusFailed,
	PostStatusBlocked,
	PostStatusCancelled,
}

func ParsePostStatus(s string) (PostStatus, error) {
	for _, st := range AllPostStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown post status %q", s)
}

type Platform string

const (
	PlatformFacebook  Platform = "facebook"
	PlatformInstagram Platform = "instagram"
	PlatformTwitter   Platform = "twitter"
)

var AllPlatforms = []Platform{PlatformFacebook, PlatformInstagram, PlatformTwitter}

func ParsePlatform(s string) (Platform, error) {
	for _, p := range AllPlatforms {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown platform %q", s)
}

type Post struct {
	ID               string     `db:"id" json:"id"`
	Content          string     `db:"content" json:"content"`
	ContentAlt       *string    `db:"content_x" json:"content_alt,omitempty"`
	Platforms        []Platform `db:"platforms" json:"platforms"`
	ScheduledAt      time.Time  `db:"scheduled_at" json:"scheduled_at"`
	ImageQuery       *string    `db:"image_query" json:"image_query,omitempty"`
	ImageURL         *string    `db:"image_url" json:"image_url,omitempty"`
	HashtagSet       *string    `db:"hashtag_set" json:"hashtag_set,omitempty"`
	Status           PostStatus `db:"status" json:"status"`
	FacebookPostID   *string    `db:"fb_post_id" json:"fb_post_id,omitempty"`
	InstagramPostID  *string    `db:"ig_post_id" json:"ig_post_id,omitempty"`
	TwitterPostID    *string    `db:"x_post_id" json:"x_post_id,omitempty"`
	ErrorLog         *string    `db:"error_log" json:"error_log,omitempty"`
	BrandCheckPassed bool       `db:"brand_check_passed" json:"brand_check_passed"`
	RetryCount       int        `db:"retry_count" json:"retry_count"`
	PublishedAt      *time.Time `db:"published_at" json:"published_at,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

// AltOrContent returns the short-form variant when present.
func (p *Post) AltOrContent() string {
	if p.ContentAlt != nil && *p.ContentAlt != "" {
		return *p.ContentAlt
	}
	return p.Content
}

// ResultID returns the stored result identifier for a platform.
func (p *Post) ResultID(platform Platform) *string {
	switch platform {
	case PlatformFacebook:
		return p.FacebookPostID
	case PlatformInstagram:
		return p.InstagramPostID
	case PlatformTwitter:
		return p.TwitterPostID
	}
	return nil
}

// PublishOutcome is the final write of one publish cycle.
type PublishOutcome struct {
	Status          PostStatus
	FacebookPostID  *string
	InstagramPostID *string
	TwitterPostID   *string
	ErrorLog        *string
	ImageURL        *string
	PublishedAt     *time.Time
	RetryIncrement  int
}

func (o *PublishOutcome) SetResultID(platform Platform, id string) {
	switch platform {
	case PlatformFacebook:
		o.FacebookPostID = &id
	case PlatformInstagram:
		o.InstagramPostID = &id
	case PlatformTwitter:
		o.TwitterPostID = &id
	}
}

func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
