package notify

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/evcraddock/house-market/internal/db"
)

func testDB(t *testing.T) (*sql.DB, int64) {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("close db: %v", err)
		}
	})
	res, err := d.Exec("INSERT INTO users (email) VALUES ('u@example.com')")
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}
	uid, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("last insert id: %v", err)
	}
	return d, uid
}

func TestInbox(t *testing.T) {
	d, uid := testDB(t)
	inbox := NewInbox(d)
	ctx := context.Background()

	for _, title := range []string{"first", "second"} {
		if err := inbox.Send(ctx, Message{UserID: uid, Title: title, Body: "b"}); err != nil {
			t.Fatalf("send: %v", err)
		}
	}

	list, err := inbox.List(uid, false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].Title != "second" {
		t.Fatalf("list = %+v", list)
	}
	if list[0].AlertID != nil {
		t.Error("expected nil alert id")
	}

	if err := inbox.MarkRead(uid, list[0].ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if err := inbox.MarkRead(uid+1, list[1].ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("marking another user's notification: err = %v", err)
	}

	n, err := inbox.UnreadCount(uid)
	if err != nil {
		t.Fatalf("unread count: %v", err)
	}
	if n != 1 {
		t.Errorf("unread = %d, want 1", n)
	}
	unread, err := inbox.List(uid, true)
	if err != nil {
		t.Fatalf("list unread: %v", err)
	}
	if len(unread) != 1 || unread[0].Title != "first" {
		t.Errorf("unread = %+v", unread)
	}
}

type fakeMailer struct {
	configured bool
	to         string
	err        error
}

func (m *fakeMailer) Configured() bool { return m.configured }

func (m *fakeMailer) Send(to, subject, body string) error {
	m.to = to
	return m.err
}

func TestEmailChannel(t *testing.T) {
	ctx := context.Background()
	msg := Message{UserID: 1, Email: "u@example.com", Title: "t"}

	if err := NewEmail(nil).Send(ctx, msg); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("nil mailer: err = %v", err)
	}
	if err := NewEmail(&fakeMailer{}).Send(ctx, msg); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("unconfigured mailer: err = %v", err)
	}

	m := &fakeMailer{configured: true}
	if err := NewEmail(m).Send(ctx, msg); err != nil {
		t.Fatalf("send: %v", err)
	}
	if m.to != "u@example.com" {
		t.Errorf("to = %q", m.to)
	}

	if err := NewEmail(m).Send(ctx, Message{UserID: 1}); err == nil {
		t.Error("expected error without recipient")
	}
}

type fakePublisher struct {
	exchange, key string
	msg           amqp.Publishing
	closed        bool
}

func (p *fakePublisher) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	p.exchange, p.key, p.msg = exchange, key, msg
	return nil
}

func (p *fakePublisher) Close() error {
	p.closed = true
	return nil
}

func TestPushChannel(t *testing.T) {
	ctx := context.Background()

	logOnly, err := NewPush("", "hm.alerts")
	if err != nil {
		t.Fatalf("new push: %v", err)
	}
	if err := logOnly.Send(ctx, Message{}); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("log-only push: err = %v", err)
	}

	pub := &fakePublisher{}
	p := &Push{exchange: "hm.alerts", ch: pub}
	if err := p.Send(ctx, Message{UserID: 4, AlertID: 9, Title: "New matches", MatchCount: 3}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if pub.exchange != "hm.alerts" || pub.key != RoutingKey {
		t.Errorf("published to %s/%s", pub.exchange, pub.key)
	}
	if pub.msg.ContentType != "application/json" || pub.msg.DeliveryMode != amqp.Persistent {
		t.Errorf("publishing = %+v", pub.msg)
	}

	var ev Event
	if err := json.Unmarshal(pub.msg.Body, &ev); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if ev.AlertID != 9 || ev.MatchCount != 3 || ev.ID == "" || ev.ID != pub.msg.MessageId {
		t.Errorf("event = %+v", ev)
	}

	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !pub.closed {
		t.Error("expected channel closed")
	}
}
