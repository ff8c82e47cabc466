package webhook

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Endpoint is a delivery target a clinic registered for subscription
// events. An empty Events list subscribes the endpoint to everything.
type Endpoint struct {
	ID        uuid.UUID `json:"id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	URL       string    `json:"url"`
	Secret    string    `json:"-"`
	Events    []string  `json:"events"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// subscribed reports whether the endpoint wants the event.
func (e Endpoint) subscribed(event string) bool {
	return len(e.Events) == 0 || slices.Contains(e.Events, event)
}

// EndpointStore loads the endpoints an event should fan out to.
type EndpointStore interface {
	// ListForEvent returns the tenant's active endpoints subscribed to
	// the event.
	ListForEvent(ctx context.Context, tenantID uuid.UUID, event string) ([]Endpoint, error)
}

// PGEndpointStore reads endpoints from the webhook_endpoints table.
type PGEndpointStore struct {
	pool *pgxpool.Pool
}

// NewPGEndpointStore creates a PostgreSQL-backed EndpointStore.
// Panics if pool is nil to fail fast during initialization.
func NewPGEndpointStore(pool *pgxpool.Pool) *PGEndpointStore {
	if pool == nil {
		panic("webhook: pgxpool is required")
	}
	return &PGEndpointStore{pool: pool}
}

// ListForEvent implements EndpointStore.
func (s *PGEndpointStore) ListForEvent(ctx context.Context, tenantID uuid.UUID, event string) ([]Endpoint, error) {
	query := `
		SELECT id, tenant_id, url, secret, events, active, created_at
		FROM webhook_endpoints
		WHERE tenant_id = $1
		  AND active
		  AND (events = '{}' OR $2 = ANY(events))
		ORDER BY created_at`

	rows, err := s.pool.Query(ctx, query, tenantID, event)
	if err != nil {
		return nil, fmt.Errorf("query webhook endpoints: %w", err)
	}
	defer rows.Close()

	var out []Endpoint
	for rows.Next() {
		var ep Endpoint
		if err := rows.Scan(&ep.ID, &ep.TenantID, &ep.URL, &ep.Secret, &ep.Events, &ep.Active, &ep.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan webhook endpoint: %w", err)
		}
		out = append(out, ep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate webhook endpoints: %w", err)
	}
	return out, nil
}

// MemoryEndpointStore is an in-memory EndpointStore for tests and
// development.
type MemoryEndpointStore struct {
	mu        sync.RWMutex
	endpoints []Endpoint
}

// NewMemoryEndpointStore creates an empty in-memory store.
func NewMemoryEndpointStore() *MemoryEndpointStore {
	return &MemoryEndpointStore{}
}

// Add registers an endpoint.
func (s *MemoryEndpointStore) Add(ep Endpoint) error {
	if ep.URL == "" {
		return errors.New("webhook: endpoint URL is required")
	}
	if ep.ID == uuid.Nil {
		ep.ID = uuid.New()
	}
	if ep.CreatedAt.IsZero() {
		ep.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.endpoints = append(s.endpoints, ep)
	return nil
}

// ListForEvent implements EndpointStore.
func (s *MemoryEndpointStore) ListForEvent(ctx context.Context, tenantID uuid.UUID, event string) ([]Endpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Endpoint
	for _, ep := range s.endpoints {
		if ep.TenantID == tenantID && ep.Active && ep.subscribed(event) {
			out = append(out, ep)
		}
	}
	return out, nil
}
