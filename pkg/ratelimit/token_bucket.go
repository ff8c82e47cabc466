package ratelimit

import (
	"context"
	"sync"
	"time"
)

// TokenBucket is a token bucket limiter over a pluggable Store.
// New keys start with a full bucket, refills credit rate tokens per
// interval, and capacity is capped at the burst size. All checks for a
// limiter are serialized, so concurrent callers cannot over-refill.
type TokenBucket struct {
	store    Store
	rate     int
	interval time.Duration
	burst    int
	window   time.Duration // how long an idle bucket takes to refill completely

	mu       sync.Mutex
	refillAt map[string]time.Time
}

// TokenBucketOption configures a TokenBucket.
type TokenBucketOption func(*TokenBucket)

// WithBurst sets the bucket capacity. Values below the refill rate are
// raised to it.
func WithBurst(burst int) TokenBucketOption {
	return func(tb *TokenBucket) {
		if burst > 0 {
			tb.burst = burst
		}
	}
}

// NewTokenBucket creates a token bucket limiter that credits rate tokens
// every interval. Burst defaults to rate.
func NewTokenBucket(store Store, rate int, interval time.Duration, opts ...TokenBucketOption) (*TokenBucket, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if rate <= 0 {
		return nil, ErrInvalidRate
	}
	if interval <= 0 {
		return nil, ErrInvalidInterval
	}

	tb := &TokenBucket{
		store:    store,
		rate:     rate,
		interval: interval,
		burst:    rate,
		refillAt: make(map[string]time.Time),
	}

	for _, opt := range opts {
		opt(tb)
	}

	if tb.burst < tb.rate {
		tb.burst = tb.rate
	}

	// An entry untouched for this long would have refilled to capacity
	// anyway, so letting the store expire it and reseeding at full burst
	// preserves the bucket semantics.
	intervals := (tb.burst + tb.rate - 1) / tb.rate
	tb.window = time.Duration(intervals) * tb.interval

	return tb, nil
}

// Allow consumes one token for key if available.
func (tb *TokenBucket) Allow(ctx context.Context, key string) (*Result, error) {
	return tb.AllowN(ctx, key, 1)
}

// AllowN consumes n tokens for key if all are available.
func (tb *TokenBucket) AllowN(ctx context.Context, key string, n int) (*Result, error) {
	if n <= 0 {
		n = 1
	}
	return tb.take(ctx, key, n, true)
}

// Status reports the state for key without consuming tokens or creating
// bucket state for unseen keys.
func (tb *TokenBucket) Status(ctx context.Context, key string) (*Result, error) {
	return tb.take(ctx, key, 1, false)
}

// Reset clears all limiter state for key.
func (tb *TokenBucket) Reset(ctx context.Context, key string) error {
	if key == "" {
		return ErrKeyRequired
	}

	tb.mu.Lock()
	delete(tb.refillAt, key)
	tb.mu.Unlock()

	return tb.store.Delete(ctx, key)
}

func (tb *TokenBucket) take(ctx context.Context, key string, n int, consume bool) (*Result, error) {
	if key == "" {
		return nil, ErrKeyRequired
	}

	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()

	available, ttl, err := tb.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	last, tracked := tb.refillAt[key]
	fresh := !tracked || (available == 0 && ttl == 0)

	switch {
	case fresh && !consume:
		// Report a full bucket without materializing it.
		return &Result{
			Allowed:   n <= tb.burst,
			Limit:     tb.burst,
			Remaining: tb.burst,
			ResetAt:   now.Add(tb.interval),
		}, nil

	case fresh:
		available, _, err = tb.store.IncrementAndGet(ctx, key, tb.burst, tb.window)
		if err != nil {
			return nil, err
		}
		last = now
		tb.refillAt[key] = now

	default:
		// Credit whole elapsed intervals, carrying the fractional
		// remainder forward in the refill clock.
		elapsed := int(now.Sub(last) / tb.interval)
		if elapsed > 0 {
			last = last.Add(time.Duration(elapsed) * tb.interval)
			tb.refillAt[key] = last

			credit := int64(elapsed * tb.rate)
			if room := int64(tb.burst) - available; credit > room {
				credit = room
			}
			if credit > 0 {
				available, _, err = tb.store.IncrementAndGet(ctx, key, int(credit), tb.window)
				if err != nil {
					return nil, err
				}
			}
		}
	}

	allowed := available >= int64(n)
	remaining := available
	if allowed && consume {
		remaining, _, err = tb.store.IncrementAndGet(ctx, key, -n, tb.window)
		if err != nil {
			return nil, err
		}
	}
	if remaining < 0 {
		remaining = 0
	}

	return &Result{
		Allowed:   allowed,
		Limit:     tb.burst,
		Remaining: int(remaining),
		ResetAt:   last.Add(tb.interval),
	}, nil
}
