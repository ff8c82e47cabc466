package gate

import (
	"context"

	"github.com/google/uuid"

	"github.com/Ealanisln/vetify-sub011/pkg/subscription"
)

// Fetcher is the server collaborator the client pulls status from. The
// direct adapter serves monolith deployments; HTTPFetcher serves anything
// running in a separate process from the billing API.
type Fetcher interface {
	// FetchStatus returns the authoritative derived status for a tenant.
	FetchStatus(ctx context.Context, tenantID uuid.UUID) (subscription.Status, error)

	// CheckFeature reports whether the tenant can use a feature right now.
	CheckFeature(ctx context.Context, tenantID uuid.UUID, feature subscription.Feature) (bool, error)
}

// ServiceFetcher adapts subscription.Service for in-process consumers,
// skipping the HTTP hop entirely.
type ServiceFetcher struct {
	svc subscription.Service
}

// NewServiceFetcher wraps a subscription service as a Fetcher.
// Panics on a nil service to fail fast during initialization.
func NewServiceFetcher(svc subscription.Service) *ServiceFetcher {
	if svc == nil {
		panic("gate: subscription service is required")
	}
	return &ServiceFetcher{svc: svc}
}

// FetchStatus implements Fetcher.
func (f *ServiceFetcher) FetchStatus(ctx context.Context, tenantID uuid.UUID) (subscription.Status, error) {
	return f.svc.Status(ctx, tenantID)
}

// CheckFeature implements Fetcher. The service already fails closed on
// internal errors, so this never returns one.
func (f *ServiceFetcher) CheckFeature(ctx context.Context, tenantID uuid.UUID, feature subscription.Feature) (bool, error) {
	return f.svc.CheckFeature(ctx, tenantID, feature), nil
}
