package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rebloomsa/social-publisher/internal/models"
	"github.com/rebloomsa/social-publisher/internal/repository"
	"github.com/rebloomsa/social-publisher/internal/service"
)

const recoveryPreviewRunes = 60

type RecoveryOptions struct {
	Enabled    bool
	Lookback   time.Duration
	Spacing    time.Duration
	StaleAfter time.Duration
	Sleep      service.SleepFunc
	Now        func() time.Time
}

// RecoveryJob runs once at startup and publishes pending posts whose slot
// passed within the look-back window. Older pending posts are left for an
// operator.
type RecoveryJob struct {
	posts      repository.PostRepository
	publisher  service.PublishService
	notifier   service.Notifier
	enabled    bool
	lookback   time.Duration
	spacing    time.Duration
	staleAfter time.Duration
	sleep      service.SleepFunc
	now        func() time.Time
}

func NewRecoveryJob(posts repository.PostRepository, publisher service.PublishService, notifier service.Notifier, opts RecoveryOptions) *RecoveryJob {
	if opts.Sleep == nil {
		opts.Sleep = service.SleepContext
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &RecoveryJob{
		posts:      posts,
		publisher:  publisher,
		notifier:   notifier,
		enabled:    opts.Enabled,
		lookback:   opts.Lookback,
		spacing:    opts.Spacing,
		staleAfter: opts.StaleAfter,
		sleep:      opts.Sleep,
		now:        opts.Now,
	}
}

// Run returns the number of missed posts handed to the orchestrator.
func (j *RecoveryJob) Run(ctx context.Context) (int, error) {
	if !j.enabled {
		return 0, nil
	}

	now := j.now()
	missed, err := j.posts.ListPendingBetween(ctx, now.Add(-j.lookback), now)
	if err != nil {
		return 0, fmt.Errorf("recovery query failed: %w", err)
	}

	var stale []*models.Post
	if j.staleAfter > 0 {
		stale, err = j.posts.ListStalePublishing(ctx, now.Add(-j.staleAfter))
		if err != nil {
			slog.Error("failed to list stale publishing posts", "error", err.Error())
		}
	}

	if len(missed) == 0 && len(stale) == 0 {
		slog.Info("recovery: no missed posts found")
		return 0, nil
	}

	slog.Info("recovery: found missed posts", "missed", len(missed), "stale_publishing", len(stale))
	j.notify(ctx, missed, stale)

	processed := 0
	for i, post := range missed {
		slog.Info("recovery: processing post", "index", i+1, "total", len(missed), "post_id", post.ID)
		processed++
		status, err := j.publisher.ProcessPost(ctx, post)
		switch {
		case errors.Is(err, service.ErrAlreadyClaimed):
			slog.Info("recovery: post already claimed", "post_id", post.ID)
		case err != nil:
			slog.Error("recovery: failed to process post", "post_id", post.ID, "error", err.Error())
		default:
			slog.Info("recovery: post processed", "post_id", post.ID, "status", status)
		}

		if i < len(missed)-1 {
			if err := j.sleep(ctx, j.spacing); err != nil {
				return processed, fmt.Errorf("recovery interrupted: %w", err)
			}
		}
	}

	slog.Info("recovery complete", "processed", processed)
	return processed, nil
}

func (j *RecoveryJob) notify(ctx context.Context, missed, stale []*models.Post) {
	if j.notifier == nil {
		return
	}

	var b strings.Builder
	if len(missed) > 0 {
		fmt.Fprintf(&b, "The server restarted and found %d post(s) that were scheduled in the past %s but not yet published.\n\n", len(missed), j.lookback)
		fmt.Fprintf(&b, "Recovering now with a %s stagger.\n\nPosts:\n", j.spacing)
		for _, p := range missed {
			fmt.Fprintf(&b, "  - %s: %s\n", p.ScheduledAt.Format(time.RFC3339), clip(p.Content, recoveryPreviewRunes))
		}
	}
	if len(stale) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%d post(s) have been stuck in publishing for more than %s and need a manual reset:\n", len(stale), j.staleAfter)
		for _, p := range stale {
			fmt.Fprintf(&b, "  - %s (%s): %s\n", p.ID, p.ScheduledAt.Format(time.RFC3339), clip(p.Content, recoveryPreviewRunes))
		}
	}

	j.notifier.Notify(ctx, service.Notification{
		Subject: fmt.Sprintf("Server restart — recovering %d missed post(s)", len(missed)),
		Body:    b.String(),
	})
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		r = r[:n]
	}
	return string(r) + "..."
}
