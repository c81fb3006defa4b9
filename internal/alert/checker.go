package alert

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/evcraddock/house-market/internal/clock"
	"github.com/evcraddock/house-market/internal/email"
	"github.com/evcraddock/house-market/internal/notify"
	"github.com/evcraddock/house-market/internal/property"
	"github.com/evcraddock/house-market/internal/search"
)

// maxEmailListings caps how many matches an alert email lists.
const maxEmailListings = 10

// PropertyLister returns every stored property.
type PropertyLister interface {
	List() ([]*property.Property, error)
}

// Dispatcher fans a notification out to all channels.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg notify.Message) []notify.Outcome
}

// UserDirectory resolves a user's email address.
type UserDirectory interface {
	EmailByID(id int64) (string, error)
}

// CheckResult describes one alert evaluation.
type CheckResult struct {
	AlertID  int64            `json:"alert_id"`
	Previous int              `json:"previous"`
	Matches  int              `json:"matches"`
	Notified bool             `json:"notified"`
	Outcomes []notify.Outcome `json:"outcomes,omitempty"`
}

// Checker evaluates alerts against the current listings.
type Checker struct {
	alerts     *Repository
	properties PropertyLister
	users      UserDirectory
	dispatcher Dispatcher
	clock      clock.Clock
	baseURL    string
}

// NewChecker creates a checker.
func NewChecker(alerts *Repository, properties PropertyLister, users UserDirectory, dispatcher Dispatcher, clk clock.Clock, baseURL string) *Checker {
	return &Checker{
		alerts:     alerts,
		properties: properties,
		users:      users,
		dispatcher: dispatcher,
		clock:      clk,
		baseURL:    baseURL,
	}
}

// Matching returns the properties that currently match an alert.
func (c *Checker) Matching(a *Alert) ([]*property.Property, error) {
	all, err := c.properties.List()
	if err != nil {
		return nil, fmt.Errorf("loading properties: %w", err)
	}
	return search.Filter(all, a.Criteria, search.HardPlusThreshold), nil
}

// Check re-evaluates one alert and stores its match count. When the count
// grew and the alert is immediate, the user is notified on every channel.
// Only the count is persisted, never the matched records. Concurrent checks
// of the same alert notify at most once per count change.
func (c *Checker) Check(ctx context.Context, alertID int64) (*CheckResult, error) {
	a, err := c.alerts.GetByID(alertID)
	if err != nil {
		return nil, err
	}

	matches, err := c.Matching(a)
	if err != nil {
		return nil, err
	}

	res := &CheckResult{AlertID: a.ID, Previous: a.MatchCount, Matches: len(matches)}

	shouldNotify := res.Matches > res.Previous && a.Frequency == FrequencyImmediate && a.Active

	recorded, err := c.alerts.RecordCheck(a.ID, res.Previous, res.Matches, c.clock.Now(), shouldNotify)
	if err != nil {
		return nil, err
	}
	if !recorded {
		slog.Debug("alert check superseded", "alert_id", a.ID, "previous", res.Previous, "matches", res.Matches)
		return res, nil
	}

	if shouldNotify {
		res.Outcomes = c.dispatcher.Dispatch(ctx, c.message(a, matches))
		res.Notified = true
	}

	slog.Debug("alert checked", "alert_id", a.ID, "previous", res.Previous, "matches", res.Matches, "notified", res.Notified)
	return res, nil
}

func (c *Checker) message(a *Alert, matches []*property.Property) notify.Message {
	addr, err := c.users.EmailByID(a.UserID)
	if err != nil {
		slog.Warn("looking up alert owner email", "alert_id", a.ID, "user_id", a.UserID, "error", err)
	}

	listed := matches
	if len(listed) > maxEmailListings {
		listed = listed[:maxEmailListings]
	}

	return notify.Message{
		UserID:     a.UserID,
		AlertID:    a.ID,
		Email:      addr,
		Title:      fmt.Sprintf("New matches for %q", a.Name),
		Body:       email.FormatAlertEmail(a.Name, len(matches), listed, c.baseURL),
		MatchCount: len(matches),
	}
}

// Run is a CheckFunc for the scheduler.
func (c *Checker) Run(ctx context.Context, alertID int64) error {
	_, err := c.Check(ctx, alertID)
	return err
}
