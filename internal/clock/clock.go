package clock

import (
	"sync"
	"time"
)

// Clock supplies the current time to the engine. Callers never pass their own timestamps.
type Clock interface {
	Now() time.Time
}

// Real reads the system clock. The result keeps its monotonic reading, so
// comparisons and durations between two readings ignore wall clock jumps;
// convert with UTC before storing or serializing.
type Real struct{}

func (Real) Now() time.Time { return time.Now() }

// Manual is a settable clock for tests and simulations. Thread-safe.
type Manual struct {
	mu  sync.RWMutex
	now time.Time
}

// NewManual creates a manual clock starting at t
func NewManual(t time.Time) *Manual {
	return &Manual{now: t.UTC()}
}

func (m *Manual) Now() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.now
}

// Set moves the clock to t
func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t.UTC()
}

// Advance moves the clock forward by d and returns the new time
func (m *Manual) Advance(d time.Duration) time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
	return m.now
}
