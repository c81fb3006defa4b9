package auth

import (
	"sync"
	"time"
)

const (
	rateLimitWindow  = 15 * time.Minute
	rateLimitMaxFail = 5
)

// Limiter counts failed sign-ins per client IP over a sliding window.
type Limiter struct {
	mu       sync.Mutex
	attempts map[string][]time.Time
	window   time.Duration
	max      int
	now      func() time.Time
}

// NewLimiter creates a limiter that blocks an IP after max failures within
// window. Non-positive values use the defaults.
func NewLimiter(max int, window time.Duration) *Limiter {
	if max <= 0 {
		max = rateLimitMaxFail
	}
	if window <= 0 {
		window = rateLimitWindow
	}
	return &Limiter{
		attempts: make(map[string][]time.Time),
		window:   window,
		max:      max,
		now:      time.Now,
	}
}

// Blocked reports whether ip has used up its failures.
func (l *Limiter) Blocked(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.prune(ip)) >= l.max
}

// Fail records a failed attempt.
func (l *Limiter) Fail(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.attempts[ip] = append(l.prune(ip), l.now())
}

// Reset forgets ip's failures after a successful sign-in.
func (l *Limiter) Reset(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.attempts, ip)
}

// prune drops attempts older than the window. Callers hold mu.
func (l *Limiter) prune(ip string) []time.Time {
	cutoff := l.now().Add(-l.window)
	valid := l.attempts[ip][:0]
	for _, t := range l.attempts[ip] {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	if len(valid) == 0 {
		delete(l.attempts, ip)
		return nil
	}
	l.attempts[ip] = valid
	return valid
}
