package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// RoutingKey is the routing key of alert-match push events.
const RoutingKey = "alert.matched"

// Event is the JSON body published for push delivery.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	UserID     int64     `json:"user_id"`
	AlertID    int64     `json:"alert_id"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	MatchCount int       `json:"match_count"`
	OccurredAt time.Time `json:"occurred_at"`
}

// publisher is the subset of *amqp.Channel used by Push.
type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Push publishes notifications to a RabbitMQ exchange for push gateways to
// consume. With no broker configured it only logs.
type Push struct {
	exchange string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   publisher
}

// NewPush dials the broker and declares a durable topic exchange. An empty
// url yields a log-only channel.
func NewPush(url, exchange string) (*Push, error) {
	p := &Push{exchange: exchange}
	if url == "" {
		return p, nil
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dialing broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("opening channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declaring exchange %q: %w", exchange, err)
	}

	p.conn = conn
	p.ch = ch
	return p, nil
}

// Name implements Channel.
func (p *Push) Name() string { return "push" }

// Send implements Channel.
func (p *Push) Send(ctx context.Context, msg Message) error {
	p.mu.Lock()
	ch := p.ch
	p.mu.Unlock()

	if ch == nil {
		slog.Info("push notification (broker not configured)", "user_id", msg.UserID, "title", msg.Title)
		return ErrNotConfigured
	}

	ev := Event{
		ID:         uuid.NewString(),
		Type:       RoutingKey,
		UserID:     msg.UserID,
		AlertID:    msg.AlertID,
		Title:      msg.Title,
		Body:       msg.Body,
		MatchCount: msg.MatchCount,
		OccurredAt: time.Now().UTC(),
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	err = ch.PublishWithContext(publishCtx, p.exchange, RoutingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.ID,
		Timestamp:    ev.OccurredAt,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publishing event: %w", err)
	}
	return nil
}

// Close closes the broker channel and connection.
func (p *Push) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	if p.ch != nil {
		firstErr = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		p.conn = nil
	}
	return firstErr
}
