package guard

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Result reports the outcome of a guard check.
type Result struct {
	Allowed bool
	Reason  string
}

// RateLimiter implements a sliding window rate limiter keyed by an
// arbitrary string, here the player's connection identity.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string][]time.Time
	limit   int
	window  time.Duration
}

// NewRateLimiter creates a rate limiter with the given limit per window.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		windows: make(map[string][]time.Time),
		limit:   limit,
		window:  window,
	}
}

// Check reports whether the key is within its rate limit and records the
// attempt when it is.
func (rl *RateLimiter) Check(_ context.Context, key string) Result {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-rl.window)

	// Remove expired entries
	entries := rl.windows[key]
	valid := entries[:0]
	for _, t := range entries {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}

	if len(valid) >= rl.limit {
		rl.windows[key] = valid
		return Result{
			Allowed: false,
			Reason:  fmt.Sprintf("rate limit exceeded: %d/%s", rl.limit, rl.window),
		}
	}

	rl.windows[key] = append(valid, now)
	return Result{Allowed: true}
}
