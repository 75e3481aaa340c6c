// Package ratelimit provides per-key sliding-window rate limiting for tool
// invocations.
package ratelimit

import (
	"sync"
	"time"
)

// Window is the span over which calls are counted.
const Window = time.Minute

// Limiter counts calls per key over a sliding window. A call is allowed when
// fewer than Max calls were recorded for its key within the window.
type Limiter struct {
	mu    sync.Mutex
	max   int
	calls map[string][]time.Time
	now   func() time.Time
}

// NewLimiter creates a limiter allowing max calls per key per window.
func NewLimiter(max int) *Limiter {
	return &Limiter{
		max:   max,
		calls: make(map[string][]time.Time),
		now:   time.Now,
	}
}

// SetClock replaces the limiter's time source. Intended for tests.
func (l *Limiter) SetClock(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}

// Allow records a call for key if the key is under its limit. It returns
// whether the call was admitted and the number of calls counted in the
// window before this one.
func (l *Limiter) Allow(key string) (bool, int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-Window)

	recent := l.calls[key][:0]
	for _, ts := range l.calls[key] {
		if ts.After(cutoff) {
			recent = append(recent, ts)
		}
	}

	n := len(recent)
	if n >= l.max {
		l.calls[key] = recent
		return false, n
	}

	l.calls[key] = append(recent, now)
	return true, n
}

// Max returns the per-key call ceiling.
func (l *Limiter) Max() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.max
}

// SetMax changes the per-key call ceiling.
func (l *Limiter) SetMax(max int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.max = max
}

// Reset clears all recorded calls.
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = make(map[string][]time.Time)
}
