// Package alert stores saved searches and re-checks them on a schedule,
// notifying users when new listings match.
package alert

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/evcraddock/house-market/internal/search"
)

var (
	// ErrNotFound is returned when an alert does not exist for the user.
	ErrNotFound = errors.New("alert not found")
	// ErrInvalid wraps input validation failures.
	ErrInvalid = errors.New("invalid alert")
)

// Frequency controls how often an alert is re-checked.
type Frequency string

const (
	FrequencyImmediate Frequency = "immediate"
	FrequencyDaily     Frequency = "daily"
	FrequencyWeekly    Frequency = "weekly"
)

// ValidFrequency returns true if s is a known frequency.
func ValidFrequency(s string) bool {
	switch Frequency(s) {
	case FrequencyImmediate, FrequencyDaily, FrequencyWeekly:
		return true
	}
	return false
}

// Alert is a user's saved search.
type Alert struct {
	ID             int64           `json:"id"`
	UserID         int64           `json:"user_id"`
	Name           string          `json:"name"`
	Criteria       search.Criteria `json:"criteria"`
	Frequency      Frequency       `json:"frequency"`
	Active         bool            `json:"active"`
	MatchCount     int             `json:"match_count"`
	LastCheckedAt  *time.Time      `json:"last_checked_at,omitempty"`
	LastNotifiedAt *time.Time      `json:"last_notified_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Validate checks the user-supplied fields and fills defaults.
func (a *Alert) Validate() error {
	a.Name = strings.TrimSpace(a.Name)
	if a.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if a.Frequency == "" {
		a.Frequency = FrequencyImmediate
	}
	if !ValidFrequency(string(a.Frequency)) {
		return fmt.Errorf("%w: frequency %q", ErrInvalid, a.Frequency)
	}
	if a.Criteria.MinPrice < 0 || a.Criteria.MaxPrice < 0 {
		return fmt.Errorf("%w: price bounds must not be negative", ErrInvalid)
	}
	return nil
}
