package subscription

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store persists tenant billing records. Each tenant has exactly one record,
// so TenantID serves as the primary key.
type Store interface {
	// Get retrieves the billing record for a tenant.
	// Returns ErrBillingNotFound if no record exists.
	Get(ctx context.Context, tenantID uuid.UUID) (*Billing, error)

	// GetByProviderCustomerID retrieves the billing record owning a provider
	// customer. Webhook events that carry no tenant metadata (Stripe invoice
	// events) resolve through this.
	GetByProviderCustomerID(ctx context.Context, customerID string) (*Billing, error)

	// Save persists the billing fields for a tenant, keyed by TenantID.
	// Implementations may reject tenants that do not exist yet; tenant
	// provisioning is not this package's job.
	Save(ctx context.Context, b *Billing) error

	// ListTrialsEndingBetween returns records in a live trial whose trial
	// end falls inside [from, to). The notification sweeper scans with this.
	ListTrialsEndingBetween(ctx context.Context, from, to time.Time) ([]*Billing, error)
}

// MemoryStore is an in-memory Store for tests and development. Safe for
// concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]Billing
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[uuid.UUID]Billing)}
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, tenantID uuid.UUID) (*Billing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[tenantID]
	if !ok {
		return nil, ErrBillingNotFound
	}
	// Return a copy so callers cannot mutate stored state in place.
	return &record, nil
}

// GetByProviderCustomerID implements Store.
func (s *MemoryStore) GetByProviderCustomerID(_ context.Context, customerID string) (*Billing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if customerID == "" {
		return nil, ErrBillingNotFound
	}
	for _, record := range s.records {
		if record.ProviderCustomerID == customerID {
			rec := record
			return &rec, nil
		}
	}
	return nil, ErrBillingNotFound
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, b *Billing) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[b.TenantID] = *b
	return nil
}

// ListTrialsEndingBetween implements Store.
func (s *MemoryStore) ListTrialsEndingBetween(_ context.Context, from, to time.Time) ([]*Billing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Billing
	for _, record := range s.records {
		if !record.InTrial() || record.TrialEndsAt == nil {
			continue
		}
		end := *record.TrialEndsAt
		if (end.Equal(from) || end.After(from)) && end.Before(to) {
			rec := record
			out = append(out, &rec)
		}
	}
	return out, nil
}
