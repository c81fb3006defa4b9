package alert

import (
	"context"
	"log/slog"

	"github.com/evcraddock/house-market/internal/property"
	"github.com/evcraddock/house-market/internal/search"
)

// Service is the user-facing alert API. It keeps the scheduler in step
// with the stored active flag.
type Service struct {
	repo      *Repository
	checker   *Checker
	scheduler *Scheduler
}

// NewService creates an alert service.
func NewService(repo *Repository, checker *Checker, scheduler *Scheduler) *Service {
	return &Service{repo: repo, checker: checker, scheduler: scheduler}
}

// Create stores a new alert, checks it once immediately and schedules it.
// A failed first check is logged; the alert is still created.
func (s *Service) Create(ctx context.Context, userID int64, name string, criteria search.Criteria, freq Frequency) (*Alert, error) {
	a, err := s.repo.Insert(&Alert{UserID: userID, Name: name, Criteria: criteria, Frequency: freq})
	if err != nil {
		return nil, err
	}

	if _, err := s.checker.Check(ctx, a.ID); err != nil {
		slog.Warn("initial alert check failed", "alert_id", a.ID, "error", err)
	}
	s.scheduler.Schedule(a)

	slog.Info("alert created", "alert_id", a.ID, "user_id", userID, "frequency", string(a.Frequency))
	return s.repo.GetByID(a.ID)
}

// List returns a user's alerts.
func (s *Service) List(userID int64) ([]*Alert, error) {
	return s.repo.ListByUser(userID)
}

// Get returns one of the user's alerts.
func (s *Service) Get(userID, id int64) (*Alert, error) {
	return s.repo.GetForUser(userID, id)
}

// Toggle flips an alert between active and paused. Pausing halts re-checks
// and keeps criteria and match count; resuming reschedules.
func (s *Service) Toggle(userID, id int64) (*Alert, error) {
	a, err := s.repo.GetForUser(userID, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetActive(id, !a.Active); err != nil {
		return nil, err
	}
	a.Active = !a.Active

	if a.Active {
		s.scheduler.Schedule(a)
	} else {
		s.scheduler.Unschedule(id)
	}
	slog.Info("alert toggled", "alert_id", id, "active", a.Active)
	return a, nil
}

// Delete unschedules and removes an alert.
func (s *Service) Delete(userID, id int64) error {
	if _, err := s.repo.GetForUser(userID, id); err != nil {
		return err
	}
	s.scheduler.Unschedule(id)
	return s.repo.Delete(id)
}

// CheckNow re-evaluates one of the user's alerts on demand.
func (s *Service) CheckNow(ctx context.Context, userID, id int64) (*CheckResult, error) {
	if _, err := s.repo.GetForUser(userID, id); err != nil {
		return nil, err
	}
	return s.checker.Check(ctx, id)
}

// Matches returns the listings currently matching one of the user's alerts.
func (s *Service) Matches(userID, id int64) ([]*property.Property, error) {
	a, err := s.repo.GetForUser(userID, id)
	if err != nil {
		return nil, err
	}
	return s.checker.Matching(a)
}
