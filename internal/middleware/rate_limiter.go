package middleware

import (
	"strconv"
	"sync"
	"time"
)

// RateLimiter is a fixed-window limiter for expensive commands, keyed by
// command and user so /img and /gen budgets are separate.
type RateLimiter struct {
	limits map[string]*userWindow
	mu     sync.Mutex

	maxRequests int
	window      time.Duration
	now         func() time.Time
}

type userWindow struct {
	requests  int
	resetTime time.Time
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(maxRequests int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limits:      make(map[string]*userWindow),
		maxRequests: maxRequests,
		window:      window,
		now:         time.Now,
	}
}

func limitKey(command string, userID int64) string {
	return command + ":" + strconv.FormatInt(userID, 10)
}

// Allow records one request and reports whether it fits the user's budget.
func (rl *RateLimiter) Allow(command string, userID int64) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	key := limitKey(command, userID)

	limit, exists := rl.limits[key]
	if !exists || now.After(limit.resetTime) {
		rl.limits[key] = &userWindow{
			requests:  1,
			resetTime: now.Add(rl.window),
		}
		return true
	}

	if limit.requests >= rl.maxRequests {
		return false
	}

	limit.requests++
	return true
}

// RetryAfter returns how long until the user's window resets.
func (rl *RateLimiter) RetryAfter(command string, userID int64) time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limit, exists := rl.limits[limitKey(command, userID)]
	if !exists {
		return 0
	}
	if wait := limit.resetTime.Sub(rl.now()); wait > 0 {
		return wait
	}
	return 0
}

// Cleanup removes expired windows and returns how many were dropped. The
// sweeper calls it periodically.
func (rl *RateLimiter) Cleanup() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	removed := 0
	for key, limit := range rl.limits {
		if now.After(limit.resetTime) {
			delete(rl.limits, key)
			removed++
		}
	}
	return removed
}

// Reset clears all rate limits (useful for testing)
func (rl *RateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.limits = make(map[string]*userWindow)
}
