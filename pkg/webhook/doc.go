// Package webhook delivers subscription lifecycle events to endpoints
// registered by clinics.
//
// Sender handles a single delivery: JSON POST, HMAC-SHA256 signing,
// retries with backoff, and optional circuit breaking per endpoint.
// Dispatcher fans one event out to every endpoint a tenant registered
// for it, asynchronously, loading endpoints from an EndpointStore.
//
// Outbound requests carry three signature headers:
//
//	X-Vetify-Signature  hex HMAC-SHA256 of "<timestamp>.<payload>"
//	X-Vetify-Timestamp  unix seconds, bound into the signature
//	X-Vetify-Event-ID   unique delivery ID for idempotency
//
// Receivers verify with VerifySignature, which checks the HMAC in
// constant time and rejects stale or future timestamps.
package webhook
