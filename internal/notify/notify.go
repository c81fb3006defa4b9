// Package notify fans alert notifications out to every delivery channel.
package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrNotConfigured is returned by a channel that has no backend and only
// logged the message.
var ErrNotConfigured = errors.New("channel not configured")

// Message is one alert notification.
type Message struct {
	UserID     int64  `json:"user_id"`
	AlertID    int64  `json:"alert_id"`
	Email      string `json:"email,omitempty"`
	Title      string `json:"title"`
	Body       string `json:"body"`
	MatchCount int    `json:"match_count"`
}

// Channel delivers a message through one medium.
type Channel interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

// Status is the result of one channel delivery.
type Status string

const (
	StatusDelivered Status = "delivered"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// Outcome reports how one channel handled a dispatch.
type Outcome struct {
	Channel string `json:"channel"`
	Status  Status `json:"status"`
	Error   string `json:"error,omitempty"`
}

// Dispatcher sends each message to all channels concurrently.
type Dispatcher struct {
	channels []Channel
}

// NewDispatcher creates a dispatcher over the given channels.
func NewDispatcher(channels ...Channel) *Dispatcher {
	return &Dispatcher{channels: channels}
}

// Channels returns the configured channel names.
func (d *Dispatcher) Channels() []string {
	names := make([]string, len(d.channels))
	for i, ch := range d.channels {
		names[i] = ch.Name()
	}
	return names
}

// Dispatch runs every channel in its own goroutine and waits for all of
// them. One channel failing never cancels another. Failures are logged and
// not retried. Outcomes are returned in channel order.
func (d *Dispatcher) Dispatch(ctx context.Context, msg Message) []Outcome {
	outcomes := make([]Outcome, len(d.channels))

	var wg sync.WaitGroup
	for i, ch := range d.channels {
		wg.Add(1)
		go func(i int, ch Channel) {
			defer wg.Done()
			outcomes[i] = deliver(ctx, ch, msg)
		}(i, ch)
	}
	wg.Wait()

	return outcomes
}

func deliver(ctx context.Context, ch Channel, msg Message) (out Outcome) {
	out.Channel = ch.Name()
	defer func() {
		if r := recover(); r != nil {
			slog.Error("notification channel panicked", "channel", out.Channel, "alert_id", msg.AlertID, "panic", r)
			out.Status = StatusFailed
			out.Error = "panic"
		}
	}()

	err := ch.Send(ctx, msg)
	switch {
	case err == nil:
		out.Status = StatusDelivered
	case errors.Is(err, ErrNotConfigured):
		out.Status = StatusSkipped
	default:
		slog.Warn("notification failed", "channel", out.Channel, "alert_id", msg.AlertID, "user_id", msg.UserID, "error", err)
		out.Status = StatusFailed
		out.Error = err.Error()
	}
	return out
}
