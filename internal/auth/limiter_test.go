package auth

import (
	"testing"
	"time"
)

func TestLimiterBlocksAfterMaxFailures(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l := NewLimiter(3, time.Minute)
	l.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if l.Blocked("10.0.0.1") {
			t.Fatalf("blocked after %d failures", i)
		}
		l.Fail("10.0.0.1")
	}
	if !l.Blocked("10.0.0.1") {
		t.Fatal("expected block after 3 failures")
	}
	if l.Blocked("10.0.0.2") {
		t.Error("other IP should not be blocked")
	}

	now = now.Add(61 * time.Second)
	if l.Blocked("10.0.0.1") {
		t.Error("block should lift after the window")
	}
}

func TestLimiterReset(t *testing.T) {
	l := NewLimiter(1, time.Minute)
	l.Fail("10.0.0.1")
	if !l.Blocked("10.0.0.1") {
		t.Fatal("expected block")
	}
	l.Reset("10.0.0.1")
	if l.Blocked("10.0.0.1") {
		t.Error("expected reset to clear failures")
	}
}
