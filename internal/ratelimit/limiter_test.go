package ratelimit

import (
	"testing"
	"time"
)

func newTestLimiter(start time.Time) (*Limiter, *time.Time) {
	clock := start
	l := NewLimiter()
	l.now = func() time.Time { return clock }
	return l, &clock
}

func TestAllow_WithinQuota(t *testing.T) {
	l, _ := newTestLimiter(time.Now())
	l.SetQuota("alphavantage", 5, time.Minute)

	for i := 0; i < 5; i++ {
		if !l.Allow("alphavantage") {
			t.Fatalf("call %d should be allowed", i+1)
		}
	}
	if l.Allow("alphavantage") {
		t.Error("6th call within the minute should be denied")
	}
}

func TestAllow_DenialHasNoSideEffects(t *testing.T) {
	l, _ := newTestLimiter(time.Now())
	l.SetQuota("alphavantage", 2, time.Minute)

	l.Allow("alphavantage")
	l.Allow("alphavantage")
	l.Allow("alphavantage") // denied
	l.Allow("alphavantage") // denied

	states := l.State("alphavantage")
	if len(states) != 1 {
		t.Fatalf("expected 1 window, got %d", len(states))
	}
	if states[0].CallsMade != 2 {
		t.Errorf("denied calls must not increment counter, got %d", states[0].CallsMade)
	}
}

func TestAllow_WindowReset(t *testing.T) {
	l, clock := newTestLimiter(time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC))
	l.SetQuota("alphavantage", 5, time.Minute)

	for i := 0; i < 5; i++ {
		l.Allow("alphavantage")
	}
	if l.Allow("alphavantage") {
		t.Fatal("quota exhausted, should deny")
	}

	*clock = clock.Add(61 * time.Second)
	if !l.Allow("alphavantage") {
		t.Error("window elapsed, counter should reset")
	}
	states := l.State("alphavantage")
	if states[0].CallsMade != 1 {
		t.Errorf("expected fresh window with 1 call, got %d", states[0].CallsMade)
	}
}

func TestAllow_MultipleWindows(t *testing.T) {
	l, clock := newTestLimiter(time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC))
	l.SetQuota("alphavantage", 5, time.Minute)
	l.SetQuota("alphavantage", 7, 24*time.Hour)

	// Burn through a minute window, advance, repeat: the day window
	// keeps counting across minute resets.
	for i := 0; i < 5; i++ {
		l.Allow("alphavantage")
	}
	*clock = clock.Add(2 * time.Minute)
	if !l.Allow("alphavantage") {
		t.Fatal("new minute window should allow")
	}
	if !l.Allow("alphavantage") {
		t.Fatal("7th call of the day should allow")
	}
	if l.Allow("alphavantage") {
		t.Error("day quota of 7 exhausted, should deny even with minute headroom")
	}
}

func TestAllow_UnregisteredSource(t *testing.T) {
	l, _ := newTestLimiter(time.Now())
	if !l.Allow("yahoo") {
		t.Error("sources without quotas are always allowed")
	}
}
