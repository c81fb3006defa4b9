package clock

import (
	"testing"
	"time"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFakeNowAdvance(t *testing.T) {
	c := Fake(epoch)
	c.Advance(90 * time.Second)
	if got := c.Now(); !got.Equal(epoch.Add(90 * time.Second)) {
		t.Errorf("now = %v", got)
	}
}

func TestFakeTicker(t *testing.T) {
	c := Fake(epoch)
	tk := c.NewTicker(time.Minute)

	c.Advance(30 * time.Second)
	select {
	case <-tk.C():
		t.Fatal("ticked early")
	default:
	}

	c.Advance(30 * time.Second)
	select {
	case got := <-tk.C():
		if !got.Equal(epoch.Add(time.Minute)) {
			t.Errorf("tick time = %v", got)
		}
	default:
		t.Fatal("expected a tick")
	}

	// Several intervals at once collapse into one buffered tick.
	c.Advance(5 * time.Minute)
	<-tk.C()
	select {
	case <-tk.C():
		t.Fatal("expected dropped ticks")
	default:
	}
}

func TestFakeTickerStop(t *testing.T) {
	c := Fake(epoch)
	a := c.NewTicker(time.Second)
	b := c.NewTicker(time.Second)
	if c.Tickers() != 2 {
		t.Fatalf("tickers = %d, want 2", c.Tickers())
	}

	a.Stop()
	a.Stop()
	c.WaitForTickers(1)

	c.Advance(time.Second)
	select {
	case <-a.C():
		t.Error("stopped ticker fired")
	default:
	}
	select {
	case <-b.C():
	default:
		t.Error("running ticker did not fire")
	}
}

func TestFakeTickerPanicsOnZero(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	Fake(epoch).NewTicker(0)
}

func TestWaitForTickers(t *testing.T) {
	c := Fake(epoch)
	done := make(chan struct{})
	go func() {
		c.WaitForTickers(1)
		close(done)
	}()
	c.NewTicker(time.Second)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("WaitForTickers did not return")
	}
}

func TestReal(t *testing.T) {
	c := Real()
	tk := c.NewTicker(time.Millisecond)
	defer tk.Stop()
	select {
	case <-tk.C():
	case <-time.After(time.Second):
		t.Fatal("real ticker did not fire")
	}
	if c.Now().IsZero() {
		t.Error("zero now")
	}
}
