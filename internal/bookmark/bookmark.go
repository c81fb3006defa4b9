// Package bookmark stores the properties a user has saved.
package bookmark

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/evcraddock/house-market/internal/property"
)

var (
	// ErrAlreadyBookmarked is returned when the user already saved the property.
	ErrAlreadyBookmarked = errors.New("property already bookmarked")
	// ErrNotFound is returned when removing a bookmark that does not exist.
	ErrNotFound = errors.New("bookmark not found")
)

// Bookmark is a saved property.
type Bookmark struct {
	ID         int64              `json:"id"`
	UserID     int64              `json:"user_id"`
	PropertyID int64              `json:"property_id"`
	SavedAt    time.Time          `json:"saved_at"`
	Property   *property.Property `json:"property,omitempty"`
}

// Repository provides persistence for bookmarks.
type Repository struct {
	db         *sql.DB
	properties *property.Repository
}

// NewRepository creates a bookmark repository.
func NewRepository(db *sql.DB, properties *property.Repository) *Repository {
	return &Repository{db: db, properties: properties}
}

// Add bookmarks a property for a user. The pair is looked up before
// inserting; an existing pair returns ErrAlreadyBookmarked.
func (r *Repository) Add(userID, propertyID int64) (*Bookmark, error) {
	if _, err := r.properties.GetByID(propertyID); err != nil {
		return nil, err
	}

	saved, err := r.IsBookmarked(userID, propertyID)
	if err != nil {
		return nil, err
	}
	if saved {
		return nil, fmt.Errorf("property %d: %w", propertyID, ErrAlreadyBookmarked)
	}

	result, err := r.db.Exec(
		"INSERT INTO bookmarks (user_id, property_id) VALUES (?, ?)",
		userID, propertyID,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting bookmark: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting insert id: %w", err)
	}

	var b Bookmark
	err = r.db.QueryRow(
		"SELECT id, user_id, property_id, saved_at FROM bookmarks WHERE id = ?", id,
	).Scan(&b.ID, &b.UserID, &b.PropertyID, &b.SavedAt)
	if err != nil {
		return nil, fmt.Errorf("reading back bookmark: %w", err)
	}
	return &b, nil
}

// Remove deletes a user's bookmark on a property.
func (r *Repository) Remove(userID, propertyID int64) error {
	result, err := r.db.Exec(
		"DELETE FROM bookmarks WHERE user_id = ? AND property_id = ?",
		userID, propertyID,
	)
	if err != nil {
		return fmt.Errorf("deleting bookmark: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("property %d: %w", propertyID, ErrNotFound)
	}
	return nil
}

// IsBookmarked reports whether the user saved the property.
func (r *Repository) IsBookmarked(userID, propertyID int64) (bool, error) {
	var count int
	err := r.db.QueryRow(
		"SELECT COUNT(*) FROM bookmarks WHERE user_id = ? AND property_id = ?",
		userID, propertyID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("querying bookmark: %w", err)
	}
	return count > 0, nil
}

// List returns a user's bookmarks with their properties, most recently
// saved first.
func (r *Repository) List(userID int64) ([]*Bookmark, error) {
	rows, err := r.db.Query(
		"SELECT id, user_id, property_id, saved_at FROM bookmarks WHERE user_id = ? ORDER BY saved_at DESC, id DESC",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing bookmarks: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("closing rows", "error", closeErr)
		}
	}()

	var bookmarks []*Bookmark
	for rows.Next() {
		var b Bookmark
		if err := rows.Scan(&b.ID, &b.UserID, &b.PropertyID, &b.SavedAt); err != nil {
			return nil, fmt.Errorf("scanning bookmark: %w", err)
		}
		bookmarks = append(bookmarks, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating bookmarks: %w", err)
	}

	for _, b := range bookmarks {
		p, err := r.properties.GetByID(b.PropertyID)
		if err != nil {
			return nil, err
		}
		b.Property = p
	}
	return bookmarks, nil
}

// PropertyIDs returns the ids of every property the user saved.
func (r *Repository) PropertyIDs(userID int64) (map[int64]bool, error) {
	list, err := r.List(userID)
	if err != nil {
		return nil, err
	}
	ids := make(map[int64]bool, len(list))
	for _, b := range list {
		ids[b.PropertyID] = true
	}
	return ids, nil
}
