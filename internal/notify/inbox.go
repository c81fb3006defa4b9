package notify

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrNotFound is returned when a notification does not exist for a user.
var ErrNotFound = errors.New("notification not found")

// Notification is an in-app inbox entry.
type Notification struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	AlertID   *int64    `json:"alert_id,omitempty"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// Inbox stores notifications in SQLite and is the in-app channel.
type Inbox struct {
	db *sql.DB
}

// NewInbox creates an inbox over db.
func NewInbox(db *sql.DB) *Inbox {
	return &Inbox{db: db}
}

// Name implements Channel.
func (i *Inbox) Name() string { return "inbox" }

// Send implements Channel by inserting an unread row.
func (i *Inbox) Send(ctx context.Context, msg Message) error {
	var alertID interface{}
	if msg.AlertID != 0 {
		alertID = msg.AlertID
	}
	_, err := i.db.ExecContext(ctx,
		"INSERT INTO notifications (user_id, alert_id, title, body) VALUES (?, ?, ?, ?)",
		msg.UserID, alertID, msg.Title, msg.Body,
	)
	if err != nil {
		return fmt.Errorf("inserting notification: %w", err)
	}
	return nil
}

// List returns a user's notifications, newest first.
func (i *Inbox) List(userID int64, unreadOnly bool) ([]*Notification, error) {
	query := "SELECT id, user_id, alert_id, title, body, read, created_at FROM notifications WHERE user_id = ?"
	if unreadOnly {
		query += " AND read = 0"
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := i.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("closing rows", "error", closeErr)
		}
	}()

	var out []*Notification
	for rows.Next() {
		var n Notification
		var alertID sql.NullInt64
		if err := rows.Scan(&n.ID, &n.UserID, &alertID, &n.Title, &n.Body, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning notification: %w", err)
		}
		if alertID.Valid {
			n.AlertID = &alertID.Int64
		}
		out = append(out, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating notifications: %w", err)
	}
	return out, nil
}

// MarkRead marks one of the user's notifications as read.
func (i *Inbox) MarkRead(userID, id int64) error {
	result, err := i.db.Exec("UPDATE notifications SET read = 1 WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("marking notification read: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// UnreadCount returns how many unread notifications a user has.
func (i *Inbox) UnreadCount(userID int64) (int, error) {
	var n int
	err := i.db.QueryRow("SELECT COUNT(*) FROM notifications WHERE user_id = ? AND read = 0", userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting notifications: %w", err)
	}
	return n, nil
}
