package service

import (
	"context"
	"log/slog"

	config "github.com/rebloomsa/social-publisher/configs"
	"github.com/rebloomsa/social-publisher/internal/observability"
	"gopkg.in/gomail.v2"
)

const (
	subjectPrefix = "[Rebloom Social] "
	senderName    = "Rebloom Social Bot"
)

type Notification struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Notifier delivers operator notifications. Implementations swallow and
// log their own failures.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

type MailSender interface {
	Send(ctx context.Context, to string, n Notification) error
}

type smtpMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(c config.SMTP) MailSender {
	return &smtpMailer{
		dialer: gomail.NewDialer(c.Host, c.Port, c.User, c.Password),
		from:   c.From,
	}
}

func (m *smtpMailer) Send(ctx context.Context, to string, n Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.from, senderName)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subjectPrefix+n.Subject)
	msg.SetBody("text/plain", n.Body)

	return m.dialer.DialAndSend(msg)
}

type directNotifier struct {
	mailer MailSender
	to     string
}

// NewDirectNotifier sends mail inline. Used when no task queue is configured.
func NewDirectNotifier(mailer MailSender, to string) Notifier {
	return &directNotifier{mailer: mailer, to: to}
}

func (d *directNotifier) Notify(ctx context.Context, n Notification) {
	if d.to == "" {
		slog.Warn("notification skipped, no recipient configured", "subject", n.Subject)
		return
	}
	if err := d.mailer.Send(ctx, d.to, n); err != nil {
		observability.NotificationFailures.Inc()
		slog.Error("alert email failed", "subject", n.Subject, "error", err.Error())
	}
}
