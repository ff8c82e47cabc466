// Package billing exposes the subscription engine over HTTP.
//
// The module mounts under /billing and serves three route groups:
//
//   - Tenant-scoped API: subscription status, feature checks, upgrades,
//     a checkout QR for front-desk devices, the customer portal redirect,
//     and the subscription event history (registered when an EventTrail
//     is configured). These routes expect the tenant resolution
//     middleware in front of them and fail closed without a tenant.
//   - Public catalog: the plan listing consumed by pricing pages, no
//     tenant required.
//   - Provider webhooks: signature-verified billing events. These
//     authenticate by signature, never by tenant, so they bypass the
//     tenant group entirely.
//
// Middleware (tenant resolution, rate limiting, metrics) is injected by
// the caller, keeping the module free of wiring decisions:
//
//	svc := billing.NewService(subs,
//		billing.WithLogger(log),
//		billing.WithErrorHandler(handler.NewErrorHandler(log)),
//		billing.WithTenantMiddleware(
//			tenant.Middleware(resolver, provider),
//			tenant.RequireTenant(nil),
//		),
//	)
//
//	r.Mount("/billing", billing.Router(billing.RouterOptions{Billing: svc}))
package billing
