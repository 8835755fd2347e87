package ports

import (
	"context"
	"time"
)

// RateLimitRepository provides low-level atomic operations for rate limiting counters.
// Implementations should be concurrency-safe.
type RateLimitRepository interface {
	// IncrementWindow increments the request counter for subject in the current window
	// and ensures the counter expires after ttl. Returns the updated count and the window start time.
	IncrementWindow(ctx context.Context, subject string, window time.Duration, keyPrefix string, ttl time.Duration) (count int, windowStart time.Time, err error)
}

// RateLimiterService limits requests per subject, usually a client address.
type RateLimiterService interface {
	// Allow consumes one request unit for subject and reports whether it is permitted.
	// remaining: additional requests allowed in the current window (>=0)
	// limit: configured max requests per window
	// reset: time when the current window resets
	Allow(ctx context.Context, subject string) (allowed bool, remaining int, limit int, reset time.Time, err error)
}
