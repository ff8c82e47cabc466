// Package metrics wraps the engine's Prometheus collectors in a small
// typed API so callers never touch collector vectors directly.
//
// One Metrics value is created at startup around a shared registry and
// threaded into everything that reports: the gate client uses it as
// its Observer, the billing router mounts Middleware for per-route
// request counters, upgrade and webhook handlers record outcomes, and
// a subscription.EventSinkFunc adapter feeds lifecycle events into
// SubscriptionEvent. Handler serves the registry in the Prometheus
// text exposition format.
package metrics
