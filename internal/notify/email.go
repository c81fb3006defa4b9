package notify

import (
	"context"
	"fmt"
	"log/slog"
)

// Mailer sends a single plain-text email.
type Mailer interface {
	Configured() bool
	Send(to, subject, body string) error
}

// Email delivers notifications over SMTP. Without a configured mailer it
// only logs.
type Email struct {
	mailer Mailer
}

// NewEmail creates the email channel.
func NewEmail(mailer Mailer) *Email {
	return &Email{mailer: mailer}
}

// Name implements Channel.
func (e *Email) Name() string { return "email" }

// Send implements Channel.
func (e *Email) Send(ctx context.Context, msg Message) error {
	if e.mailer == nil || !e.mailer.Configured() {
		slog.Info("email notification (smtp not configured)", "to", msg.Email, "title", msg.Title)
		return ErrNotConfigured
	}
	if msg.Email == "" {
		return fmt.Errorf("user %d has no email address", msg.UserID)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.mailer.Send(msg.Email, msg.Title, msg.Body)
}
