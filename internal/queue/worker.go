package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/hibiken/asynq"
	"github.com/rebloomsa/social-publisher/internal/observability"
	"github.com/rebloomsa/social-publisher/internal/service"
)

func (q *Queue) HandleNotifyEmailTask(ctx context.Context, task *asynq.Task) error {
	var payload NotifyEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid notification payload: %v: %w", err, asynq.SkipRetry)
	}

	err := q.mailer.Send(ctx, payload.To, service.Notification{Subject: payload.Subject, Body: payload.Body})
	if err != nil {
		observability.NotificationFailures.Inc()
		log.Printf("Error sending notification %q: %v", payload.Subject, err)
		return err
	}

	return nil
}
