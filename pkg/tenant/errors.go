package tenant

import "errors"

var (
	// ErrTenantNotFound is returned when no clinic matches an identifier.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrInvalidIdentifier is returned for identifiers that cannot be a
	// UUID or a subdomain slug.
	ErrInvalidIdentifier = errors.New("invalid tenant identifier")

	// ErrNoTenantInContext is returned by RequireTenant when resolution
	// did not put a tenant on the request.
	ErrNoTenantInContext = errors.New("no tenant in context")

	// ErrInactiveTenant is returned for deactivated clinics.
	ErrInactiveTenant = errors.New("tenant is inactive")

	// ErrFailedToLoadTenant wraps provider failures.
	ErrFailedToLoadTenant = errors.New("failed to load tenant")
)
