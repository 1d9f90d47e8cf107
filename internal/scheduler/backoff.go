package scheduler

import (
	"time"
)

// Backoff returns base * 2^attempt, capped at ceiling.
// A negative attempt returns base.
func Backoff(attempt int, base, ceiling time.Duration) time.Duration {
	if attempt < 0 {
		return base
	}
	// 2^30 seconds is far beyond any sensible cap
	if attempt > 30 {
		return ceiling
	}

	delay := base * time.Duration(1<<attempt)
	if delay > ceiling || delay <= 0 {
		return ceiling
	}
	return delay
}
