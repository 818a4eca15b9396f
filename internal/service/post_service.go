package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rebloomsa/social-publisher/internal/models"
	"github.com/rebloomsa/social-publisher/internal/repository"
	"github.com/rebloomsa/social-publisher/internal/transfer"
)

// PostService backs the admin surface. Publishing itself is owned by
// PublishService.
type PostService interface {
	Create(ctx context.Context, pc *transfer.PostCreation) (*models.Post, error)
	List(ctx context.Context, status string) ([]*models.Post, error)
	Validate(pv *transfer.PostValidation) ValidationResult
	Cancel(ctx context.Context, id string) error
}

type postService struct {
	pr        repository.PostRepository
	validator ContentValidator
	loc       *time.Location
}

func NewPostService(pr repository.PostRepository, validator ContentValidator, loc *time.Location) PostService {
	if loc == nil {
		loc = time.UTC
	}
	return &postService{
		pr:        pr,
		validator: validator,
		loc:       loc,
	}
}

func (s *postService) Create(ctx context.Context, pc *transfer.PostCreation) (*models.Post, error) {
	if pc == nil {
		return nil, invalidRequest("post creation data is nil")
	}
	post, err := NewPostFromCreation(pc, s.loc)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	check := s.validator.Validate(post)
	if !check.Valid {
		slog.Info("post rejected by brand guard", "reasons", check.Reasons)
		return nil, &ValidationError{Reasons: check.Reasons}
	}
	post.BrandCheckPassed = true
	post.Status = models.PostStatusPending

	id, err := s.pr.Create(ctx, post)
	if err != nil {
		return nil, fmt.Errorf("error creating post: %w", err)
	}
	post.ID = id

	slog.Info("post scheduled", "post_id", id, "scheduled_at", post.ScheduledAt, "platforms", post.Platforms)
	return post, nil
}

// NewPostFromCreation checks the required fields and builds an unsaved
// pending post. Shared by the admin API and the seed command.
func NewPostFromCreation(pc *transfer.PostCreation, loc *time.Location) (*models.Post, error) {
	content := strings.TrimSpace(pc.Content)
	if content == "" {
		return nil, invalidRequest("content cannot be empty")
	}
	if len(pc.Platforms) == 0 {
		return nil, invalidRequest("at least one platform is required")
	}
	platforms := make([]models.Platform, 0, len(pc.Platforms))
	for _, raw := range pc.Platforms {
		p, err := models.ParsePlatform(strings.ToLower(strings.TrimSpace(raw)))
		if err != nil {
			return nil, invalidRequest("%s", err.Error())
		}
		platforms = append(platforms, p)
	}
	if pc.ScheduledAt == "" {
		return nil, invalidRequest("scheduledAt is required")
	}
	scheduledAt, err := ParseScheduledAt(pc.ScheduledAt, loc)
	if err != nil {
		return nil, invalidRequest("invalid scheduledAt %q", pc.ScheduledAt)
	}

	var hashtagSet *string
	if pc.HashtagSet != nil {
		key := strings.ToUpper(strings.TrimSpace(*pc.HashtagSet))
		if key != "" {
			if _, ok := HashtagSets[key]; !ok {
				return nil, invalidRequest("unknown hashtag set %q", *pc.HashtagSet)
			}
			hashtagSet = &key
		}
	}

	return &models.Post{
		Content:     content,
		ContentAlt:  trimmed(pc.ContentAlt),
		Platforms:   platforms,
		ScheduledAt: scheduledAt,
		ImageQuery:  trimmed(pc.ImageQuery),
		ImageURL:    trimmed(pc.ImageURL),
		HashtagSet:  hashtagSet,
		Status:      models.PostStatusPending,
	}, nil
}

func (s *postService) List(ctx context.Context, status string) ([]*models.Post, error) {
	var filter *models.PostStatus
	if status != "" {
		st, err := models.ParsePostStatus(status)
		if err != nil {
			return nil, invalidRequest("%s", err.Error())
		}
		filter = &st
	}

	posts, err := s.pr.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("error listing posts: %w", err)
	}
	return posts, nil
}

func (s *postService) Validate(pv *transfer.PostValidation) ValidationResult {
	return s.validator.Validate(&models.Post{Content: pv.Content, ContentAlt: pv.ContentAlt})
}

func (s *postService) Cancel(ctx context.Context, id string) error {
	if id == "" {
		return invalidRequest("post id is not valid")
	}

	cancelled, err := s.pr.Cancel(ctx, id)
	if err != nil {
		return fmt.Errorf("error cancelling post: %w", err)
	}
	if cancelled {
		slog.Info("post cancelled", "post_id", id)
		return nil
	}

	post, err := s.pr.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("error getting post: %w", err)
	}
	if post == nil {
		return ErrNotFound
	}
	return fmt.Errorf("%w: status is %s", ErrNotPending, post.Status)
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	return models.StringPtr(strings.TrimSpace(*s))
}
