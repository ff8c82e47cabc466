package ratelimit

import (
	"context"
	"time"
)

// Result describes the outcome of a rate limit check.
type Result struct {
	// Allowed reports whether the request may proceed.
	Allowed bool

	// Limit is the bucket capacity (maximum burst).
	Limit int

	// Remaining is the number of tokens left after this check.
	Remaining int

	// ResetAt is when the next refill credits tokens to the bucket.
	ResetAt time.Time
}

// RetryAfter returns how long the caller should wait before retrying.
// Returns 0 when the request was allowed.
func (r *Result) RetryAfter() time.Duration {
	if r.Allowed {
		return 0
	}
	return time.Until(r.ResetAt)
}

// Limiter is implemented by rate limiting algorithms.
type Limiter interface {
	// Allow consumes one token for key if available.
	Allow(ctx context.Context, key string) (*Result, error)

	// AllowN consumes n tokens for key if all are available.
	AllowN(ctx context.Context, key string, n int) (*Result, error)

	// Status reports the current state for key without consuming tokens.
	Status(ctx context.Context, key string) (*Result, error)

	// Reset clears all limiter state for key.
	Reset(ctx context.Context, key string) error
}

// Store is a counter backend for limiters. Implementations must keep
// an entry alive for its window after every write, so that buckets under
// active traffic never vanish mid-flight.
type Store interface {
	// IncrementAndGet atomically adds incr (which may be negative) to the
	// counter for key and returns the new value with the remaining TTL.
	// Missing or expired entries restart at incr with a fresh window.
	IncrementAndGet(ctx context.Context, key string, incr int, window time.Duration) (current int64, ttl time.Duration, err error)

	// Get returns the counter value and remaining TTL for key.
	// Missing or expired entries report (0, 0, nil).
	Get(ctx context.Context, key string) (current int64, ttl time.Duration, err error)

	// Delete removes key from the store.
	Delete(ctx context.Context, key string) error
}
