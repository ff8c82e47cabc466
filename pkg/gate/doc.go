// Package gate is the consumer side of the subscription engine: a cached
// status client plus the HTTP guards built on top of it.
//
// The Client keeps a small TTL-bounded LRU of derived statuses so that
// rendering a dashboard does not hit the billing service on every request.
// Concurrent refreshes for the same clinic coalesce into one upstream
// fetch, and fetch failures are cached fail-closed with a shorter TTL so
// an outage degrades to "inactive", never to an open gate.
//
//	client := gate.NewClient(gate.NewServiceFetcher(svc))
//
//	// page-level guard
//	if !client.RequireActivePlan(w, r) {
//		return // already redirected to the subscription settings
//	}
//
//	// route-level feature gate
//	r.With(gate.RequireFeature(client, subscription.FeaturePOS)).
//		Get("/pos", posHandler)
//
// Everything in this package is advisory. A redirect or a 402 keeps the
// UI honest; it is not authorization. Every mutation must be validated
// server-side against subscription.Service regardless of what any cached
// snapshot said.
package gate
