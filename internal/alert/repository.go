package alert

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Repository provides persistence for alerts.
type Repository struct {
	db *sql.DB
}

// NewRepository creates an alert repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const selectColumns = `id, user_id, name, criteria_json, frequency, active, match_count, last_checked_at, last_notified_at, created_at`

// Insert stores a new active alert.
func (r *Repository) Insert(a *Alert) (*Alert, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	criteria, err := json.Marshal(a.Criteria)
	if err != nil {
		return nil, fmt.Errorf("encoding criteria: %w", err)
	}

	result, err := r.db.Exec(
		"INSERT INTO alerts (user_id, name, criteria_json, frequency, active) VALUES (?, ?, ?, ?, 1)",
		a.UserID, a.Name, string(criteria), string(a.Frequency),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting alert: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting insert id: %w", err)
	}
	return r.GetByID(id)
}

// GetByID returns any alert by ID.
func (r *Repository) GetByID(id int64) (*Alert, error) {
	row := r.db.QueryRow(fmt.Sprintf("SELECT %s FROM alerts WHERE id = ?", selectColumns), id)
	a, err := scanAlert(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("alert %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying alert %d: %w", id, err)
	}
	return a, nil
}

// GetForUser returns an alert only if userID owns it.
func (r *Repository) GetForUser(userID, id int64) (*Alert, error) {
	a, err := r.GetByID(id)
	if err != nil {
		return nil, err
	}
	if a.UserID != userID {
		return nil, fmt.Errorf("alert %d: %w", id, ErrNotFound)
	}
	return a, nil
}

// ListByUser returns a user's alerts, newest first.
func (r *Repository) ListByUser(userID int64) ([]*Alert, error) {
	return r.query(fmt.Sprintf("SELECT %s FROM alerts WHERE user_id = ? ORDER BY created_at DESC, id DESC", selectColumns), userID)
}

// ListActive returns every active alert.
func (r *Repository) ListActive() ([]*Alert, error) {
	return r.query(fmt.Sprintf("SELECT %s FROM alerts WHERE active = 1 ORDER BY id", selectColumns))
}

// SetActive pauses or resumes an alert without touching its criteria or count.
func (r *Repository) SetActive(id int64, active bool) error {
	result, err := r.db.Exec("UPDATE alerts SET active = ? WHERE id = ?", active, id)
	if err != nil {
		return fmt.Errorf("updating alert: %w", err)
	}
	return requireRow(result, id)
}

// RecordCheck stores the latest match count and check time, and the
// notification time when notified. The update applies only while the stored
// count still equals previous; it reports false when another check got there
// first.
func (r *Repository) RecordCheck(id int64, previous, count int, checkedAt time.Time, notified bool) (bool, error) {
	query := "UPDATE alerts SET match_count = ?, last_checked_at = ? WHERE id = ? AND match_count = ?"
	args := []interface{}{count, checkedAt.UTC(), id, previous}
	if notified {
		query = "UPDATE alerts SET match_count = ?, last_checked_at = ?, last_notified_at = ? WHERE id = ? AND match_count = ?"
		args = []interface{}{count, checkedAt.UTC(), checkedAt.UTC(), id, previous}
	}

	result, err := r.db.Exec(query, args...)
	if err != nil {
		return false, fmt.Errorf("recording check: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking rows affected: %w", err)
	}
	if n > 0 {
		return true, nil
	}
	if _, err := r.GetByID(id); err != nil {
		return false, err
	}
	return false, nil
}

// Delete removes an alert.
func (r *Repository) Delete(id int64) error {
	result, err := r.db.Exec("DELETE FROM alerts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting alert: %w", err)
	}
	return requireRow(result, id)
}

func (r *Repository) query(query string, args ...interface{}) ([]*Alert, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing alerts: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("closing rows", "error", closeErr)
		}
	}()

	var alerts []*Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning alert: %w", err)
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating alerts: %w", err)
	}
	return alerts, nil
}

func scanAlert(row interface{ Scan(...interface{}) error }) (*Alert, error) {
	var a Alert
	var criteria, frequency string
	var checked, notified sql.NullTime

	err := row.Scan(&a.ID, &a.UserID, &a.Name, &criteria, &frequency, &a.Active,
		&a.MatchCount, &checked, &notified, &a.CreatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(criteria), &a.Criteria); err != nil {
		return nil, fmt.Errorf("decoding criteria: %w", err)
	}
	a.Frequency = Frequency(frequency)
	if checked.Valid {
		a.LastCheckedAt = &checked.Time
	}
	if notified.Valid {
		a.LastNotifiedAt = &notified.Time
	}
	return &a, nil
}

func requireRow(result sql.Result, id int64) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("alert %d: %w", id, ErrNotFound)
	}
	return nil
}
