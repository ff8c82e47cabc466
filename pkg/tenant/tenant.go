package tenant

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Tenant is the request-scoped view of a clinic: just enough to key
// billing lookups, address notifications, and gate inactive accounts.
type Tenant struct {
	ID        uuid.UUID `json:"id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// Provider loads clinic records from a data source.
type Provider interface {
	// Lookup retrieves a tenant by any unique identifier: a UUID or a
	// subdomain slug. Returns ErrTenantNotFound when nothing matches.
	Lookup(ctx context.Context, identifier string) (*Tenant, error)
}
