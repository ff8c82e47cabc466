package billing

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type Mountable interface {
	Handle() http.Handler
}

// RouterOptions configures which services to mount in the billing module.
// Each service is optional and will only be mounted if provided.
type RouterOptions struct {
	// Billing serves the subscription API: status, entitlements,
	// upgrades, the public plan catalog, and provider webhooks.
	Billing Mountable
}

// Router creates a new billing module router with configurable services.
//
// Example:
//
//	billingSvc := billing.NewService(subs,
//	    billing.WithLogger(log),
//	    billing.WithTenantMiddleware(tenant.Middleware(resolver, provider)),
//	)
//
//	r := chi.NewRouter()
//	r.Mount("/billing", billing.Router(billing.RouterOptions{
//	    Billing: billingSvc,
//	}))
func Router(opts RouterOptions) chi.Router {
	r := chi.NewRouter()

	if opts.Billing != nil {
		r.Mount("/", opts.Billing.Handle())
	}

	return r
}
