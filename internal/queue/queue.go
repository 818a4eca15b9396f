package queue

import (
	"github.com/rebloomsa/social-publisher/internal/service"
)

const TaskTypeNotifyEmail = "notify:email"

type NotifyEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Queue handles background tasks.
type Queue struct {
	mailer service.MailSender
}

func NewQueue(mailer service.MailSender) *Queue {
	return &Queue{mailer: mailer}
}
