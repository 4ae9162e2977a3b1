package ratelimit

import (
	"sync"
	"time"
)

// State is a snapshot of one quota window for one source.
type State struct {
	MaxCalls    int
	CallsMade   int
	WindowStart time.Time
	Window      time.Duration
}

// window tracks calls made against a fixed quota window.
type window struct {
	max     int
	length  time.Duration
	calls   int
	started time.Time
}

// Limiter gates outbound fetch calls per data source. A source may carry
// several windows (e.g. 5/minute and 500/day); Allow succeeds only when
// every window has headroom, and increments all of them together. Denial
// has no side effects. The limiter never sleeps: callers decide whether
// to wait, skip, or fall back.
type Limiter struct {
	mu      sync.Mutex
	now     func() time.Time
	sources map[string][]*window
}

// NewLimiter creates an empty limiter. Sources without a registered quota
// are always allowed.
func NewLimiter() *Limiter {
	return &Limiter{
		now:     time.Now,
		sources: make(map[string][]*window),
	}
}

// SetQuota registers a quota window for a source. Calling it more than
// once for the same source adds an additional window.
func (l *Limiter) SetQuota(source string, maxCalls int, length time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sources[source] = append(l.sources[source], &window{
		max:     maxCalls,
		length:  length,
		started: l.now(),
	})
}

// Allow reports whether one call to the source is permitted right now,
// and records the call when it is.
func (l *Limiter) Allow(source string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	windows := l.sources[source]
	now := l.now()

	for _, w := range windows {
		if now.Sub(w.started) >= w.length {
			w.calls = 0
			w.started = now
		}
		if w.calls >= w.max {
			return false
		}
	}
	for _, w := range windows {
		w.calls++
	}
	return true
}

// State returns a snapshot of every window registered for the source.
func (l *Limiter) State(source string) []State {
	l.mu.Lock()
	defer l.mu.Unlock()

	states := make([]State, 0, len(l.sources[source]))
	for _, w := range l.sources[source] {
		states = append(states, State{
			MaxCalls:    w.max,
			CallsMade:   w.calls,
			WindowStart: w.started,
			Window:      w.length,
		})
	}
	return states
}
