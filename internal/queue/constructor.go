package queue

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/rebloomsa/social-publisher/internal/observability"
	"github.com/rebloomsa/social-publisher/internal/service"
)

type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// EnqueueNotification schedules a single delivery attempt; notifications are
// best-effort and never retried.
func EnqueueNotification(ctx context.Context, client Enqueuer, payload NotifyEmailPayload) error {
	taskPayload, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypeNotifyEmail, taskPayload)

	if _, err := client.EnqueueContext(ctx, task, asynq.MaxRetry(0)); err != nil {
		return err
	}

	log.Printf("Notification queued: %s", payload.Subject)
	return nil
}

type queuedNotifier struct {
	client Enqueuer
	to     string
}

func NewQueuedNotifier(client Enqueuer, to string) service.Notifier {
	return &queuedNotifier{client: client, to: to}
}

func (q *queuedNotifier) Notify(ctx context.Context, n service.Notification) {
	if q.to == "" {
		slog.Warn("notification skipped, no recipient configured", "subject", n.Subject)
		return
	}
	err := EnqueueNotification(ctx, q.client, NotifyEmailPayload{To: q.to, Subject: n.Subject, Body: n.Body})
	if err != nil {
		observability.NotificationFailures.Inc()
		slog.Error("failed to queue notification", "subject", n.Subject, "error", err.Error())
	}
}
