// Package tenant identifies the clinic behind each HTTP request and
// makes it available to downstream handlers.
//
// Three pieces cooperate:
//
//   - Resolver extracts a tenant identifier from the request, by
//     subdomain (clinica-norte.vetify.pro), header, or both.
//   - Provider loads the clinic record for that identifier, typically
//     from PostgreSQL via PGProvider.
//   - Middleware ties them together with an LRU cache and stores the
//     resolved *Tenant in the request context.
//
// Handlers behind RequireTenant can rely on MustFromContext; everything
// else should use FromContext and handle the missing case.
//
//	resolver := tenant.NewCompositeResolver(
//		tenant.NewSubdomainResolver("vetify.pro"),
//		tenant.NewHeaderResolver("X-Vetify-Tenant"),
//	)
//	r.Use(tenant.Middleware(resolver, tenant.NewPGProvider(pool)))
package tenant
