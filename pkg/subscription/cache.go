package subscription

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SnapshotCache caches raw billing records to keep status reads off the
// database. Only the stored fields are cached, never the derived Status:
// DaysRemaining and the countdown states must be recomputed on every
// evaluation or they drift while sitting in the cache.
type SnapshotCache interface {
	// Get returns the cached record, ok=false on miss.
	Get(ctx context.Context, tenantID uuid.UUID) (*Billing, bool)

	// Set stores a record until the cache TTL elapses.
	Set(ctx context.Context, b *Billing)

	// Invalidate drops a tenant's cached record. Called after webhooks and
	// upgrades so the next read sees provider-confirmed state.
	Invalidate(ctx context.Context, tenantID uuid.UUID) error
}

// NopSnapshotCache disables caching; every read hits the store.
type NopSnapshotCache struct{}

func (NopSnapshotCache) Get(context.Context, uuid.UUID) (*Billing, bool) { return nil, false }
func (NopSnapshotCache) Set(context.Context, *Billing)                  {}
func (NopSnapshotCache) Invalidate(context.Context, uuid.UUID) error    { return nil }

// DefaultSnapshotTTL bounds how stale a billing read may be when webhooks
// are delayed or dropped. Invalidation handles the common case; the TTL is
// the backstop.
const DefaultSnapshotTTL = 60 * time.Second

// RedisSnapshotCache is a go-redis backed SnapshotCache shared by all
// instances behind one Redis, so an invalidation from a webhook on one
// instance is seen by the rest.
type RedisSnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
}

// RedisSnapshotCacheOption configures a RedisSnapshotCache.
type RedisSnapshotCacheOption func(*RedisSnapshotCache)

// WithSnapshotTTL overrides DefaultSnapshotTTL.
func WithSnapshotTTL(ttl time.Duration) RedisSnapshotCacheOption {
	return func(c *RedisSnapshotCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// NewRedisSnapshotCache creates a Redis-backed SnapshotCache.
// Panics if client is nil to fail fast during initialization.
func NewRedisSnapshotCache(client *redis.Client, opts ...RedisSnapshotCacheOption) *RedisSnapshotCache {
	if client == nil {
		panic("subscription: redis client is required")
	}
	c := &RedisSnapshotCache{
		client: client,
		ttl:    DefaultSnapshotTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func snapshotKey(tenantID uuid.UUID) string {
	return "billing:snapshot:" + tenantID.String()
}

// Get implements SnapshotCache. Any Redis or decode error counts as a miss;
// the caller falls through to the store.
func (c *RedisSnapshotCache) Get(ctx context.Context, tenantID uuid.UUID) (*Billing, bool) {
	data, err := c.client.Get(ctx, snapshotKey(tenantID)).Bytes()
	if err != nil {
		return nil, false
	}

	var b Billing
	if err := json.Unmarshal(data, &b); err != nil {
		// Poisoned entry, drop it so the next read repopulates.
		_ = c.client.Del(ctx, snapshotKey(tenantID)).Err()
		return nil, false
	}
	return &b, true
}

// Set implements SnapshotCache. Failures are deliberately swallowed: a cache
// write must never fail a billing read.
func (c *RedisSnapshotCache) Set(ctx context.Context, b *Billing) {
	if b == nil {
		return
	}
	data, err := json.Marshal(b)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, snapshotKey(b.TenantID), data, c.ttl).Err()
}

// Invalidate implements SnapshotCache.
func (c *RedisSnapshotCache) Invalidate(ctx context.Context, tenantID uuid.UUID) error {
	if err := c.client.Del(ctx, snapshotKey(tenantID)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("invalidate billing snapshot: %w", err)
	}
	return nil
}
