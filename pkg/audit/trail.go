package audit

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/Ealanisln/vetify-sub011/pkg/logger"
	"github.com/Ealanisln/vetify-sub011/pkg/subscription"
)

// Entry is one recorded lifecycle event.
type Entry struct {
	ID         int64          `json:"id"`
	TenantID   uuid.UUID      `json:"tenant_id"`
	Name       string         `json:"name"`
	OccurredAt time.Time      `json:"occurred_at"`
	Data       map[string]any `json:"data,omitempty"`
}

// Store persists entries in bulk. Implementations must treat a batch as
// atomic; partial writes would make the trail lie about event order.
type Store interface {
	InsertBatch(ctx context.Context, entries []Entry) error
}

const (
	defaultBuffer    = 1024
	defaultBatchSize = 64
	defaultFlush     = 250 * time.Millisecond

	// storeTimeout bounds each batch write so a stalled database never
	// wedges the worker.
	storeTimeout = 5 * time.Second
)

// TrailOption configures a Trail.
type TrailOption func(*Trail)

// WithTrailLogger sets the logger. Defaults to slog.Default().
func WithTrailLogger(log *slog.Logger) TrailOption {
	return func(t *Trail) {
		if log != nil {
			t.log = log
		}
	}
}

// WithTrailBuffer sets how many events may queue before drops begin.
func WithTrailBuffer(n int) TrailOption {
	return func(t *Trail) {
		if n > 0 {
			t.buffer = n
		}
	}
}

// WithBatchSize caps how many entries go into one store write.
func WithBatchSize(n int) TrailOption {
	return func(t *Trail) {
		if n > 0 {
			t.batchSize = n
		}
	}
}

// WithFlushInterval bounds how long a partial batch may wait.
func WithFlushInterval(d time.Duration) TrailOption {
	return func(t *Trail) {
		if d > 0 {
			t.flushEvery = d
		}
	}
}

// Trail buffers lifecycle events and writes them to a Store in batches.
// It implements subscription.EventSink.
type Trail struct {
	store Store
	log   *slog.Logger

	buffer     int
	batchSize  int
	flushEvery time.Duration

	entries chan Entry
	done    chan struct{}
	wg      sync.WaitGroup

	closed  atomic.Bool
	dropped atomic.Int64
}

// NewTrail creates a Trail and starts its writer worker.
// Panics on a nil store to fail fast during initialization.
func NewTrail(store Store, opts ...TrailOption) *Trail {
	if store == nil {
		panic("audit: store is required")
	}

	t := &Trail{
		store:      store,
		log:        slog.Default(),
		buffer:     defaultBuffer,
		batchSize:  defaultBatchSize,
		flushEvery: defaultFlush,
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.entries = make(chan Entry, t.buffer)

	t.wg.Add(1)
	go t.worker()

	return t
}

// Publish implements subscription.EventSink. It never blocks: when the
// buffer is full or the trail is closed the event is dropped and counted.
func (t *Trail) Publish(ctx context.Context, event subscription.Event) {
	if t.closed.Load() {
		t.dropped.Add(1)
		return
	}

	entry := Entry{
		TenantID:   event.TenantID,
		Name:       event.Name,
		OccurredAt: event.OccurredAt,
		Data:       event.Data,
	}
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = time.Now().UTC()
	}

	select {
	case t.entries <- entry:
	default:
		if t.dropped.Add(1) == 1 {
			t.log.WarnContext(ctx, "event trail buffer full, dropping events",
				logger.Component("audit"),
				logger.Event(event.Name),
			)
		}
	}
}

// Dropped reports how many events were discarded since construction.
func (t *Trail) Dropped() int64 {
	return t.dropped.Load()
}

// Close stops accepting events and drains what is already buffered. The
// context bounds the drain; when it expires first, Close returns the
// context error and whatever is still queued is lost.
func (t *Trail) Close(ctx context.Context) error {
	if t.closed.Swap(true) {
		return nil
	}
	close(t.done)

	finished := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Trail) worker() {
	defer t.wg.Done()

	ticker := time.NewTicker(t.flushEvery)
	defer ticker.Stop()

	batch := make([]Entry, 0, t.batchSize)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		if err := t.store.InsertBatch(ctx, batch); err != nil {
			t.log.Error("event trail write failed",
				logger.Component("audit"),
				logger.Error(err),
				slog.Int("entries", len(batch)),
			)
		}
		cancel()
		batch = batch[:0]
	}

	for {
		select {
		case entry := <-t.entries:
			batch = append(batch, entry)
			if len(batch) >= t.batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-t.done:
			// Drain whatever made it into the channel before shutdown.
			for {
				select {
				case entry := <-t.entries:
					batch = append(batch, entry)
					if len(batch) >= t.batchSize {
						flush()
					}
				default:
					flush()
					return
				}
			}
		}
	}
}
