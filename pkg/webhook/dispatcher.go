package webhook

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Message is the envelope delivered to endpoints.
type Message struct {
	ID         string    `json:"id"`
	Event      string    `json:"event"`
	TenantID   uuid.UUID `json:"tenant_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data,omitempty"`
}

// Dispatcher fans an event out to every endpoint the tenant registered
// for it. Deliveries run asynchronously and outlive the request that
// triggered them; each endpoint gets its own circuit breaker.
type Dispatcher struct {
	sender  *Sender
	store   EndpointStore
	log     *slog.Logger
	timeout time.Duration
	retries int

	mu       sync.Mutex
	breakers map[uuid.UUID]*CircuitBreaker

	wg sync.WaitGroup
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithDispatcherLogger logs delivery outcomes. Without it they are
// silent.
func WithDispatcherLogger(log *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.log = log
	}
}

// WithDeliveryTimeout bounds each delivery attempt. Default 10s.
func WithDeliveryTimeout(timeout time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

// WithDeliveryRetries sets retries per delivery. Default 3.
func WithDeliveryRetries(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n >= 0 {
			d.retries = n
		}
	}
}

// NewDispatcher creates a dispatcher delivering through sender to the
// endpoints in store.
// Panics if sender or store is nil to fail fast during initialization.
func NewDispatcher(sender *Sender, store EndpointStore, opts ...DispatcherOption) *Dispatcher {
	if sender == nil {
		panic("webhook: sender is required")
	}
	if store == nil {
		panic("webhook: endpoint store is required")
	}

	d := &Dispatcher{
		sender:   sender,
		store:    store,
		timeout:  10 * time.Second,
		retries:  3,
		breakers: make(map[uuid.UUID]*CircuitBreaker),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch delivers the event to every subscribed endpoint of the
// tenant. It returns as soon as deliveries are scheduled.
func (d *Dispatcher) Dispatch(ctx context.Context, tenantID uuid.UUID, event string, data any) {
	endpoints, err := d.store.ListForEvent(ctx, tenantID, event)
	if err != nil {
		if d.log != nil {
			d.log.ErrorContext(ctx, "failed to load webhook endpoints",
				slog.String("tenant_id", tenantID.String()),
				slog.String("event", event),
				slog.String("error", err.Error()))
		}
		return
	}
	if len(endpoints) == 0 {
		return
	}

	msg := Message{
		ID:         uuid.NewString(),
		Event:      event,
		TenantID:   tenantID,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}

	// Deliveries must survive the originating request's cancellation.
	ctx = context.WithoutCancel(ctx)
	for _, ep := range endpoints {
		ep := ep
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.deliver(ctx, ep, msg)
		}()
	}
}

func (d *Dispatcher) deliver(ctx context.Context, ep Endpoint, msg Message) {
	err := d.sender.Send(ctx, ep.URL, msg,
		WithSignature(ep.Secret),
		WithTimeout(d.timeout),
		WithMaxRetries(d.retries),
		WithCircuitBreaker(d.breaker(ep.ID)),
		WithHeader("X-Vetify-Event", msg.Event),
	)
	if d.log == nil {
		return
	}
	if err != nil {
		d.log.WarnContext(ctx, "webhook delivery failed",
			slog.String("endpoint_id", ep.ID.String()),
			slog.String("tenant_id", ep.TenantID.String()),
			slog.String("event", msg.Event),
			slog.String("error", err.Error()))
		return
	}
	d.log.DebugContext(ctx, "webhook delivered",
		slog.String("endpoint_id", ep.ID.String()),
		slog.String("tenant_id", ep.TenantID.String()),
		slog.String("event", msg.Event))
}

func (d *Dispatcher) breaker(endpointID uuid.UUID) *CircuitBreaker {
	d.mu.Lock()
	defer d.mu.Unlock()

	cb, ok := d.breakers[endpointID]
	if !ok {
		cb = NewCircuitBreaker(0, 0, 0)
		d.breakers[endpointID] = cb
	}
	return cb
}

// Close waits for in-flight deliveries to finish or ctx to expire.
func (d *Dispatcher) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
