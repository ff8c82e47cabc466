package gate

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Ealanisln/vetify-sub011/pkg/subscription"
)

const (
	// DefaultCacheSize bounds the number of tenants with a cached status.
	DefaultCacheSize = 1024
	// DefaultTTL bounds how stale a cached status may get.
	DefaultTTL = time.Minute
	// DefaultErrorTTL is the shorter lifetime of fail-closed entries
	// cached after a fetch error, so recovery is retried quickly.
	DefaultErrorTTL = 10 * time.Second
)

type statusEntry struct {
	status   subscription.Status
	failed   bool
	storedAt time.Time
}

// Client is a per-process cached consumer of subscription status. It is
// the Go rendition of the dashboard's status hook: snapshots are served
// from a bounded LRU, refreshes for the same tenant coalesce into one
// upstream fetch, and fetch failures are cached as fail-closed inactive
// entries rather than surfaced to callers.
//
// Safe for concurrent use.
type Client struct {
	fetcher  Fetcher
	logger   *slog.Logger
	observer Observer
	size     int
	ttl      time.Duration
	errTTL   time.Duration

	entries *lru.Cache[uuid.UUID, statusEntry]

	mu       sync.Mutex
	inflight map[uuid.UUID]chan struct{}
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithCacheSize bounds the number of cached tenants. Evicted tenants
// briefly read as loading again, so size this above the hot tenant count.
func WithCacheSize(size int) ClientOption {
	return func(c *Client) {
		if size > 0 {
			c.size = size
		}
	}
}

// WithTTL sets how long a fetched status is served without a refresh.
func WithTTL(ttl time.Duration) ClientOption {
	return func(c *Client) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithErrorTTL sets how long a failed fetch stays cached before a retry.
func WithErrorTTL(ttl time.Duration) ClientOption {
	return func(c *Client) {
		if ttl > 0 {
			c.errTTL = ttl
		}
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithObserver wires cache and guard instrumentation.
func WithObserver(observer Observer) ClientOption {
	return func(c *Client) {
		if observer != nil {
			c.observer = observer
		}
	}
}

// NewClient creates a status client over the given fetcher.
// Panics on a nil fetcher to fail fast during initialization.
func NewClient(fetcher Fetcher, opts ...ClientOption) *Client {
	if fetcher == nil {
		panic("gate: fetcher is required")
	}

	c := &Client{
		fetcher:  fetcher,
		logger:   slog.Default(),
		observer: NopObserver{},
		size:     DefaultCacheSize,
		ttl:      DefaultTTL,
		errTTL:   DefaultErrorTTL,
		inflight: make(map[uuid.UUID]chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	// lru.New only fails on a non-positive size, which is guarded above.
	entries, err := lru.New[uuid.UUID, statusEntry](c.size)
	if err != nil {
		panic("gate: " + err.Error())
	}
	c.entries = entries

	return c
}

// Snapshot returns the cached view for a tenant without blocking on the
// network. A missing entry starts a background fetch and reads as
// loading; a stale entry is served as-is while a background refresh
// replaces it.
func (c *Client) Snapshot(ctx context.Context, tenantID uuid.UUID) Snapshot {
	entry, ok := c.entries.Get(tenantID)
	if !ok {
		c.observer.CacheLookup(false)
		c.refreshAsync(ctx, tenantID)
		return Snapshot{Status: failClosed(), Loading: true}
	}

	if c.fresh(entry) {
		c.observer.CacheLookup(true)
		return Snapshot{Status: entry.status, Loading: false}
	}

	c.observer.CacheLookup(false)
	c.refreshAsync(ctx, tenantID)
	return Snapshot{Status: entry.status, Loading: false}
}

// Refresh fetches the tenant's status now and returns the settled
// snapshot. Concurrent calls for the same tenant share one upstream
// request; whoever writes last wins, nobody observes a torn update.
func (c *Client) Refresh(ctx context.Context, tenantID uuid.UUID) Snapshot {
	done, leader := c.join(tenantID)
	if leader {
		c.fetch(ctx, tenantID)
		c.leave(tenantID)
	} else {
		select {
		case <-done:
		case <-ctx.Done():
			return Snapshot{Status: failClosed(), Loading: true}
		}
	}

	entry, ok := c.entries.Get(tenantID)
	if !ok {
		return Snapshot{Status: failClosed(), Loading: false}
	}
	return Snapshot{Status: entry.status, Loading: false}
}

// Invalidate drops the tenant's cached status. The next Snapshot call
// reads as loading and fetches fresh.
func (c *Client) Invalidate(tenantID uuid.UUID) {
	c.entries.Remove(tenantID)
}

// CheckFeature asks the server whether the tenant can use a feature
// right now. Deliberately uncached: entitlement depends on live billing
// state and a gate would rather pay a round-trip than show a paid
// feature to a lapsed clinic. Fails closed on any error.
func (c *Client) CheckFeature(ctx context.Context, tenantID uuid.UUID, feature subscription.Feature) bool {
	allowed, err := c.fetcher.CheckFeature(ctx, tenantID, feature)
	if err != nil {
		c.logger.WarnContext(ctx, "feature check failed",
			slog.String("tenant_id", tenantID.String()),
			slog.String("feature", string(feature)),
			slog.Any("error", err))
		return false
	}
	return allowed
}

// refreshAsync starts a background refresh unless one is already in
// flight for the tenant.
func (c *Client) refreshAsync(ctx context.Context, tenantID uuid.UUID) {
	_, leader := c.join(tenantID)
	if !leader {
		return
	}

	// The refresh must survive the request that happened to trigger it.
	ctx = context.WithoutCancel(ctx)
	go func() {
		defer c.leave(tenantID)
		c.fetch(ctx, tenantID)
	}()
}

// fetch performs one upstream fetch and stores the outcome. Errors are
// logged and cached fail-closed; they never propagate.
func (c *Client) fetch(ctx context.Context, tenantID uuid.UUID) {
	status, err := c.fetcher.FetchStatus(ctx, tenantID)
	if err != nil {
		c.observer.StatusFetched(false)
		c.logger.WarnContext(ctx, "status fetch failed, caching fail-closed entry",
			slog.String("tenant_id", tenantID.String()),
			slog.Any("error", err))
		c.entries.Add(tenantID, statusEntry{status: failClosed(), failed: true, storedAt: time.Now()})
		return
	}

	c.observer.StatusFetched(true)
	c.entries.Add(tenantID, statusEntry{status: status, storedAt: time.Now()})
}

func (c *Client) fresh(entry statusEntry) bool {
	ttl := c.ttl
	if entry.failed {
		ttl = c.errTTL
	}
	return time.Since(entry.storedAt) < ttl
}

// join registers interest in a refresh for the tenant. The first caller
// becomes the leader and must call leave when the fetch has settled;
// everyone else gets a channel that closes at that point.
func (c *Client) join(tenantID uuid.UUID) (<-chan struct{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if done, ok := c.inflight[tenantID]; ok {
		return done, false
	}
	done := make(chan struct{})
	c.inflight[tenantID] = done
	return done, true
}

func (c *Client) leave(tenantID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if done, ok := c.inflight[tenantID]; ok {
		delete(c.inflight, tenantID)
		close(done)
	}
}

// failClosed is the status served when nothing trustworthy is cached.
func failClosed() subscription.Status {
	return subscription.Status{
		State:     subscription.StateInactive,
		RawStatus: subscription.StatusInactive,
	}
}
