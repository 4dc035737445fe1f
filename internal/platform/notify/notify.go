// Package notify delivers appointment confirmations to patients.
package notify

import (
	"context"
	"fmt"
	"html"

	"github.com/rs/zerolog"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Message is a plain-text email.
type Message struct {
	To      string
	ToName  string
	Subject string
	Body    string
}

// Notifier sends messages. Implementations can be swapped (SendGrid, log).
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// LogNotifier writes messages to the log instead of sending them.
type LogNotifier struct {
	logger zerolog.Logger
}

func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Send(_ context.Context, msg Message) error {
	n.logger.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Msg("notification")
	return nil
}

type SendGridConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
}

// SendGridNotifier sends email through the SendGrid v3 API.
type SendGridNotifier struct {
	send func(ctx context.Context, email *mail.SGMailV3) (int, string, error)
	from *mail.Email
}

func NewSendGridNotifier(cfg SendGridConfig) *SendGridNotifier {
	client := sendgrid.NewSendClient(cfg.APIKey)
	return &SendGridNotifier{
		send: func(ctx context.Context, email *mail.SGMailV3) (int, string, error) {
			resp, err := client.SendWithContext(ctx, email)
			if err != nil {
				return 0, "", err
			}
			return resp.StatusCode, resp.Body, nil
		},
		from: mail.NewEmail(cfg.FromName, cfg.FromEmail),
	}
}

func (n *SendGridNotifier) Send(ctx context.Context, msg Message) error {
	email := mail.NewSingleEmail(n.from, msg.Subject, mail.NewEmail(msg.ToName, msg.To), msg.Body, html.EscapeString(msg.Body))
	status, body, err := n.send(ctx, email)
	if err != nil {
		return fmt.Errorf("notify: sendgrid send failed: %w", err)
	}
	if status >= 300 {
		return fmt.Errorf("notify: sendgrid returned status %d: %s", status, body)
	}
	return nil
}
