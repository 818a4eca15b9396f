package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/rebloomsa/social-publisher/internal/observability"
	"github.com/rebloomsa/social-publisher/internal/repository"
	"github.com/rebloomsa/social-publisher/internal/service"
)

type SchedulerOptions struct {
	Enabled bool
	Spacing time.Duration
	Sleep   service.SleepFunc
	Now     func() time.Time
}

// SchedulerJob publishes due posts. At most one tick runs at a time; a tick
// that finds another in flight is dropped.
type SchedulerJob struct {
	posts     repository.PostRepository
	publisher service.PublishService
	enabled   bool
	spacing   time.Duration
	sleep     service.SleepFunc
	now       func() time.Time
	running   atomic.Bool
}

func NewSchedulerJob(posts repository.PostRepository, publisher service.PublishService, opts SchedulerOptions) *SchedulerJob {
	if opts.Sleep == nil {
		opts.Sleep = service.SleepContext
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &SchedulerJob{
		posts:     posts,
		publisher: publisher,
		enabled:   opts.Enabled,
		spacing:   opts.Spacing,
		sleep:     opts.Sleep,
		now:       opts.Now,
	}
}

// Tick is the cron entry point.
func (j *SchedulerJob) Tick() {
	j.Run(context.Background())
}

// Run processes every due post in scheduled order and returns how many
// reached the orchestrator.
func (j *SchedulerJob) Run(ctx context.Context) int {
	if !j.enabled {
		return 0
	}
	if !j.running.CompareAndSwap(false, true) {
		observability.SchedulerTicksSkipped.Inc()
		slog.Info("scheduler tick skipped, previous tick still running")
		return 0
	}
	defer j.running.Store(false)

	processed := 0
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("scheduler tick panic: %v", r)
			sentry.CaptureException(err)
			slog.Error(err.Error())
		}
	}()

	due, err := j.posts.ListDue(ctx, j.now())
	if err != nil {
		slog.Error("failed to fetch due posts", "error", err.Error())
		return 0
	}
	if len(due) == 0 {
		return 0
	}
	slog.Info("found due posts", "count", len(due))

	for i, post := range due {
		if i > 0 {
			if err := j.sleep(ctx, j.spacing); err != nil {
				slog.Warn("scheduler tick interrupted", "error", err.Error())
				break
			}
		}
		processed++
		status, err := j.publisher.ProcessPost(ctx, post)
		switch {
		case errors.Is(err, service.ErrAlreadyClaimed):
			slog.Info("post already claimed, skipping", "post_id", post.ID)
		case err != nil:
			slog.Error("failed to process post", "post_id", post.ID, "error", err.Error())
		default:
			slog.Info("post processed", "post_id", post.ID, "status", status)
		}
	}
	return processed
}
