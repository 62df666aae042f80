// Package ingest implements the server-side capture and activity ingest API:
// bearer auth, per-user rate limiting, object storage writes, and capture
// row creation with local-before-remote compensation.
package ingest

import (
	"sync"

	"golang.org/x/time/rate"
)

const (
	rateLimitBurst = 60
	rateLimitRPS   = 2
)

// UserRateLimiter is an in-memory token bucket per user id, guarded by a
// single mutex, matching the per-user rate limiter global-state policy:
// max_tokens=60, refill_rate=2/s.
type UserRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewUserRateLimiter creates an empty per-user limiter registry.
func NewUserRateLimiter() *UserRateLimiter {
	return &UserRateLimiter{limiters: make(map[string]*rate.Limiter)}
}

// Allow reports whether userID may make one more request right now,
// creating and lazily refilling that user's bucket as needed.
func (l *UserRateLimiter) Allow(userID string) bool {
	l.mu.Lock()
	lim, ok := l.limiters[userID]
	if !ok {
		lim = rate.NewLimiter(rateLimitRPS, rateLimitBurst)
		l.limiters[userID] = lim
	}
	l.mu.Unlock()
	return lim.Allow()
}

// Remaining reports the whole tokens currently available for userID,
// for the X-RateLimit-Remaining response header.
func (l *UserRateLimiter) Remaining(userID string) int {
	l.mu.Lock()
	lim, ok := l.limiters[userID]
	l.mu.Unlock()
	if !ok {
		return rateLimitBurst
	}
	tokens := int(lim.Tokens())
	if tokens < 0 {
		return 0
	}
	if tokens > rateLimitBurst {
		return rateLimitBurst
	}
	return tokens
}
