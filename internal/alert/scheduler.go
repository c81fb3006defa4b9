package alert

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/evcraddock/house-market/internal/clock"
)

const (
	// DefaultImmediateInterval is the re-check period for immediate alerts.
	DefaultImmediateInterval = 5 * time.Minute
	dailyInterval            = 24 * time.Hour
	weeklyInterval           = 7 * 24 * time.Hour
)

// CheckFunc evaluates one alert.
type CheckFunc func(ctx context.Context, alertID int64) error

// Scheduler runs one ticker-driven goroutine per active alert.
type Scheduler struct {
	alerts    *Repository
	check     CheckFunc
	clock     clock.Clock
	immediate time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	jobs    map[int64]*job
	stopped bool
	wg      sync.WaitGroup
}

type job struct {
	frequency Frequency
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewScheduler creates a scheduler. A non-positive immediate interval uses
// DefaultImmediateInterval.
func NewScheduler(alerts *Repository, check CheckFunc, clk clock.Clock, immediate time.Duration) *Scheduler {
	if immediate <= 0 {
		immediate = DefaultImmediateInterval
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		alerts:    alerts,
		check:     check,
		clock:     clk,
		immediate: immediate,
		ctx:       ctx,
		cancel:    cancel,
		jobs:      make(map[int64]*job),
	}
}

// Interval returns the re-check period for a frequency.
func (s *Scheduler) Interval(f Frequency) time.Duration {
	switch f {
	case FrequencyDaily:
		return dailyInterval
	case FrequencyWeekly:
		return weeklyInterval
	default:
		return s.immediate
	}
}

// Start schedules every active alert.
func (s *Scheduler) Start() error {
	active, err := s.alerts.ListActive()
	if err != nil {
		return err
	}
	for _, a := range active {
		s.Schedule(a)
	}
	slog.Info("alert scheduler started", "alerts", len(active), "immediate_interval", s.immediate.String())
	return nil
}

// Schedule starts re-checking a, replacing any existing job for it.
// Inactive alerts are unscheduled instead.
func (s *Scheduler) Schedule(a *Alert) {
	if !a.Active {
		s.Unschedule(a.ID)
		return
	}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	old := s.jobs[a.ID]
	delete(s.jobs, a.ID)
	s.mu.Unlock()
	old.stop()

	ctx, cancel := context.WithCancel(s.ctx)
	j := &job{frequency: a.Frequency, cancel: cancel, done: make(chan struct{})}
	ticker := s.clock.NewTicker(s.Interval(a.Frequency))

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		ticker.Stop()
		cancel()
		return
	}
	if other := s.jobs[a.ID]; other != nil {
		// A concurrent Schedule won the race; keep the newest call.
		delete(s.jobs, a.ID)
		defer other.stop()
	}
	s.jobs[a.ID] = j
	s.wg.Add(1)
	s.mu.Unlock()

	go s.run(ctx, a.ID, j, ticker)
}

// Unschedule stops re-checking an alert and waits for its job to exit.
func (s *Scheduler) Unschedule(alertID int64) {
	s.mu.Lock()
	j := s.jobs[alertID]
	delete(s.jobs, alertID)
	s.mu.Unlock()
	j.stop()
}

// Scheduled reports whether an alert has a running job.
func (s *Scheduler) Scheduled(alertID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.jobs[alertID]
	return ok
}

// Len returns the number of running jobs.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Stop cancels every job and waits for them to exit. Later calls to
// Schedule are ignored.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.jobs = make(map[int64]*job)
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
	slog.Info("alert scheduler stopped")
}

func (s *Scheduler) run(ctx context.Context, alertID int64, j *job, ticker clock.Ticker) {
	defer s.wg.Done()
	defer close(j.done)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			err := s.check(ctx, alertID)
			switch {
			case err == nil:
			case errors.Is(err, ErrNotFound):
				slog.Info("alert no longer exists, stopping re-checks", "alert_id", alertID)
				s.forget(alertID, j)
				return
			case ctx.Err() != nil:
				return
			default:
				slog.Error("alert check failed", "alert_id", alertID, "frequency", string(j.frequency), "error", err)
			}
		}
	}
}

// forget removes j from the job table if it is still the current job.
func (s *Scheduler) forget(alertID int64, j *job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.jobs[alertID] == j {
		delete(s.jobs, alertID)
	}
	j.cancel()
}

func (j *job) stop() {
	if j == nil {
		return
	}
	j.cancel()
	<-j.done
}
