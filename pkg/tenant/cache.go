package tenant

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Cache holds resolved tenants between requests so hot clinics do not
// hit the database on every call.
type Cache interface {
	Get(key string) (*Tenant, bool)
	Set(key string, t *Tenant)
	Delete(key string)
	Purge()
}

const (
	// DefaultCacheSize bounds the number of cached clinics.
	DefaultCacheSize = 1024
	// DefaultCacheTTL bounds how stale a cached clinic may get. Renames
	// and deactivations take at most this long to propagate.
	DefaultCacheTTL = 5 * time.Minute
)

type cacheEntry struct {
	tenant   *Tenant
	storedAt time.Time
}

// LRUCache is an in-process Cache with TTL on top of an LRU, sized so a
// burst of distinct slugs cannot grow it without bound.
type LRUCache struct {
	entries *lru.Cache[string, cacheEntry]
	ttl     time.Duration
}

// NewLRUCache creates a cache holding up to size tenants for at most
// ttl each. Non-positive arguments fall back to the defaults.
func NewLRUCache(size int, ttl time.Duration) *LRUCache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	// lru.New only fails on a non-positive size, which is guarded above.
	entries, err := lru.New[string, cacheEntry](size)
	if err != nil {
		panic("tenant: " + err.Error())
	}

	return &LRUCache{entries: entries, ttl: ttl}
}

func (c *LRUCache) Get(key string) (*Tenant, bool) {
	entry, ok := c.entries.Get(key)
	if !ok {
		return nil, false
	}
	if time.Since(entry.storedAt) >= c.ttl {
		c.entries.Remove(key)
		return nil, false
	}
	return entry.tenant, true
}

func (c *LRUCache) Set(key string, t *Tenant) {
	c.entries.Add(key, cacheEntry{tenant: t, storedAt: time.Now()})
}

func (c *LRUCache) Delete(key string) {
	c.entries.Remove(key)
}

func (c *LRUCache) Purge() {
	c.entries.Purge()
}

// NopCache disables caching; every request goes to the provider.
type NopCache struct{}

func (NopCache) Get(string) (*Tenant, bool) { return nil, false }
func (NopCache) Set(string, *Tenant)        {}
func (NopCache) Delete(string)              {}
func (NopCache) Purge()                     {}
