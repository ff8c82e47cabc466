package tenant

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// maxSlugLength mirrors the DNS label limit; slugs double as subdomains.
const maxSlugLength = 63

// PGProvider loads clinics from the tenants table.
type PGProvider struct {
	pool *pgxpool.Pool
}

// NewPGProvider creates a PostgreSQL-backed Provider.
// Panics if pool is nil to fail fast during initialization.
func NewPGProvider(pool *pgxpool.Pool) *PGProvider {
	if pool == nil {
		panic("tenant: pgxpool is required")
	}
	return &PGProvider{pool: pool}
}

const tenantColumns = `id, slug, name, email, active, created_at`

// Lookup implements Provider. UUID identifiers match the primary key,
// anything else is treated as a subdomain slug.
func (p *PGProvider) Lookup(ctx context.Context, identifier string) (*Tenant, error) {
	var (
		query = `SELECT ` + tenantColumns + ` FROM tenants WHERE slug = $1`
		arg   any = identifier
	)
	if id, err := uuid.Parse(identifier); err == nil {
		query = `SELECT ` + tenantColumns + ` FROM tenants WHERE id = $1`
		arg = id
	} else if !validSlug(identifier) {
		return nil, ErrInvalidIdentifier
	}

	var t Tenant
	err := p.pool.QueryRow(ctx, query, arg).Scan(
		&t.ID,
		&t.Slug,
		&t.Name,
		&t.Email,
		&t.Active,
		&t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTenantNotFound
		}
		return nil, errors.Join(ErrFailedToLoadTenant, err)
	}
	return &t, nil
}

// validSlug accepts DNS-label-shaped slugs: lowercase alphanumerics and
// inner hyphens, at most 63 chars.
func validSlug(s string) bool {
	if s == "" || len(s) > maxSlugLength {
		return false
	}
	if s[0] == '-' || s[len(s)-1] == '-' {
		return false
	}
	for _, c := range s {
		switch {
		case c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9':
		case c == '-':
		default:
			return false
		}
	}
	return true
}
