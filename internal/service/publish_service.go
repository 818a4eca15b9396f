package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/rebloomsa/social-publisher/internal/models"
	"github.com/rebloomsa/social-publisher/internal/observability"
	"github.com/rebloomsa/social-publisher/internal/repository"
)

const (
	tweetBodyLimit = 250
	previewLength  = 200
)

type PublishService interface {
	ProcessPost(ctx context.Context, post *models.Post) (models.PostStatus, error)
}

type PublishOptions struct {
	Retry    RetryPolicy
	Sleep    SleepFunc
	Now      func() time.Time
	Location *time.Location
}

type publishService struct {
	posts     repository.PostRepository
	validator ContentValidator
	media     MediaResolver
	adapters  PlatformRegistry
	notifier  Notifier
	retry     RetryPolicy
	sleep     SleepFunc
	now       func() time.Time
	loc       *time.Location
}

func NewPublishService(
	posts repository.PostRepository,
	validator ContentValidator,
	media MediaResolver,
	adapters PlatformRegistry,
	notifier Notifier,
	opts PublishOptions) PublishService {
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = DefaultRetryPolicy
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &publishService{
		posts:     posts,
		validator: validator,
		media:     media,
		adapters:  adapters,
		notifier:  notifier,
		retry:     opts.Retry,
		sleep:     opts.Sleep,
		now:       opts.Now,
		loc:       opts.Location,
	}
}

type platformAttempt struct {
	id  string
	err string
}

// ProcessPost runs one post through claim, brand check, media, fan-out and
// the final status write.
func (s *publishService) ProcessPost(ctx context.Context, post *models.Post) (models.PostStatus, error) {
	claimed, err := s.posts.Claim(ctx, post.ID)
	if err != nil {
		return "", fmt.Errorf("failed to claim post %s: %w", post.ID, err)
	}
	if !claimed {
		return "", ErrAlreadyClaimed
	}
	slog.Info("processing post", "post_id", post.ID, "scheduled_at", post.ScheduledAt)

	if !post.BrandCheckPassed {
		check := s.validator.Validate(post)
		if !check.Valid {
			return s.block(ctx, post, check.Reasons)
		}
	}

	imageURL := models.StringValue(post.ImageURL)
	resolved := false
	if imageURL == "" && models.StringValue(post.ImageQuery) != "" {
		imageURL = s.media.Resolve(ctx, *post.ImageQuery, orientationFor(post.Platforms))
		resolved = imageURL != ""
	}

	dayOfYear := s.now().In(s.loc).YearDay()
	override := models.StringValue(post.HashtagSet)

	platforms := uniquePlatforms(post.Platforms)
	attempts := make([]platformAttempt, len(platforms))

	var wg sync.WaitGroup
	for i, platform := range platforms {
		wg.Add(1)
		go func(i int, platform models.Platform) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					attempts[i] = platformAttempt{err: fmt.Sprintf("%s: panic: %v", platform, r)}
				}
			}()
			attempts[i] = s.publishTo(ctx, post, platform, imageURL, SelectHashtags(platform, dayOfYear, override))
		}(i, platform)
	}
	wg.Wait()

	outcome := &models.PublishOutcome{}
	var errs []string
	succeeded := 0
	for i, a := range attempts {
		if a.err != "" {
			errs = append(errs, a.err)
			continue
		}
		outcome.SetResultID(platforms[i], a.id)
		succeeded++
	}

	if succeeded > 0 || len(errs) == 0 {
		outcome.Status = models.PostStatusPublished
		publishedAt := s.now()
		outcome.PublishedAt = &publishedAt
	} else {
		outcome.Status = models.PostStatusFailed
	}
	if len(errs) > 0 {
		outcome.ErrorLog = models.StringPtr(strings.Join(errs, "\n"))
		outcome.RetryIncrement = 1
	}
	if resolved {
		outcome.ImageURL = &imageURL
	}

	if err := s.posts.Complete(ctx, post.ID, outcome); err != nil {
		return outcome.Status, fmt.Errorf("failed to persist outcome for post %s: %w", post.ID, err)
	}
	observability.PostsProcessedTotal.WithLabelValues(string(outcome.Status)).Inc()

	if outcome.Status == models.PostStatusFailed {
		sentry.CaptureException(fmt.Errorf("post %s failed on every platform: %s", post.ID, strings.Join(errs, "; ")))
		s.notify(ctx, Notification{
			Subject: "FAILED POST: all platforms failed",
			Body: fmt.Sprintf("Post ID: %s\nScheduled: %s\nErrors:\n%s\n\nContent:\n%s",
				post.ID, post.ScheduledAt.Format(time.RFC3339), strings.Join(errs, "\n"), post.Content),
		})
	}

	log.Printf("Post %s status: %s, published: %d/%d", post.ID, outcome.Status, succeeded, len(platforms))
	return outcome.Status, nil
}

func (s *publishService) block(ctx context.Context, post *models.Post, reasons []string) (models.PostStatus, error) {
	slog.Warn("post blocked by brand guard", "post_id", post.ID, "reasons", reasons)

	errorLog := "Brand guard: " + strings.Join(reasons, "; ")
	if err := s.posts.MarkBlocked(ctx, post.ID, errorLog); err != nil {
		return models.PostStatusBlocked, fmt.Errorf("failed to block post %s: %w", post.ID, err)
	}
	observability.PostsProcessedTotal.WithLabelValues(string(models.PostStatusBlocked)).Inc()

	s.notify(ctx, Notification{
		Subject: "BLOCKED POST: " + reasons[0],
		Body: fmt.Sprintf("Post ID: %s\nReasons:\n%s\n\nContent preview:\n%s",
			post.ID, strings.Join(reasons, "\n"), preview(post.Content, previewLength)),
	})
	return models.PostStatusBlocked, nil
}

func (s *publishService) publishTo(ctx context.Context, post *models.Post, platform models.Platform, imageURL, hashtags string) platformAttempt {
	adapter, ok := s.adapters[platform]
	if !ok {
		observability.PlatformPublishTotal.WithLabelValues(string(platform), "failure").Inc()
		return platformAttempt{err: fmt.Sprintf("%s: no adapter registered", platform)}
	}
	if adapter.RequiresImage() && imageURL == "" {
		slog.Warn("skipping platform, no image available", "post_id", post.ID, "platform", platform)
		observability.PlatformPublishTotal.WithLabelValues(string(platform), "skipped").Inc()
		return platformAttempt{err: fmt.Sprintf("%s: skipped (no image)", platform)}
	}

	req := PublishRequest{Text: buildText(post, platform, hashtags), ImageURL: imageURL}
	res := WithRetry(ctx, s.retry, s.sleep, func(ctx context.Context, attempt int) (*PublishResult, error) {
		return adapter.Publish(ctx, req)
	})

	if !res.Success {
		lastErr := res.LastError
		if lastErr == nil {
			lastErr = errors.New("unknown error")
		}
		slog.Error("platform publish failed", "post_id", post.ID, "platform", platform, "attempts", res.Attempts, "error", lastErr.Error())
		observability.PlatformPublishTotal.WithLabelValues(string(platform), "failure").Inc()
		return platformAttempt{err: fmt.Sprintf("%s: %s", platform, lastErr.Error())}
	}

	slog.Info("platform published", "post_id", post.ID, "platform", platform, "id", res.Result.ID, "attempts", res.Attempts)
	observability.PlatformPublishTotal.WithLabelValues(string(platform), "success").Inc()
	return platformAttempt{id: res.Result.ID}
}

func (s *publishService) notify(ctx context.Context, n Notification) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, n)
}

// buildText appends the platform's hashtags. The short-form platform uses
// the alt content, cut to leave room for the tags.
func buildText(post *models.Post, platform models.Platform, hashtags string) string {
	if platform == models.PlatformTwitter {
		body := []rune(post.AltOrContent())
		if len(body) > tweetBodyLimit {
			body = body[:tweetBodyLimit]
		}
		return TruncateTweet(string(body) + "\n\n" + hashtags)
	}
	return post.Content + "\n\n" + hashtags
}

func orientationFor(platforms []models.Platform) string {
	for _, p := range platforms {
		if p == models.PlatformInstagram {
			return OrientationSquare
		}
	}
	return OrientationLandscape
}

func uniquePlatforms(platforms []models.Platform) []models.Platform {
	seen := make(map[models.Platform]struct{}, len(platforms))
	out := make([]models.Platform, 0, len(platforms))
	for _, p := range platforms {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
