// Package subscription implements the Vetify subscription and trial
// lifecycle engine: raw billing state, derived subscription status, plan
// catalog and entitlements, upgrade orchestration, and billing provider
// integrations (Paddle and Stripe).
//
// # Overview
//
// Every Vetify clinic (tenant) carries a small set of raw billing fields:
// plan tier, a provider-driven subscription status, a trial flag, and the
// trial/renewal dates. Nothing else about access control is persisted.
// Everything the product needs to know: can this clinic use the app, is it
// in a trial, how many days remain, should we nag about payment, is derived
// from those fields at read time by the Calculator.
//
// The split is deliberate. Webhooks own the raw fields and arrive late, out
// of order, or with vocabulary this code has never seen. Derivation owns the
// interpretation and is pure, clock-injectable, and fail-closed, so a weird
// webhook can corrupt at most one tenant's raw fields, never the logic that
// decides access for everyone else.
//
// # Derived status
//
// Calculator.Compute maps a Billing record to a Status:
//
//   - ACTIVE subscriptions and live trials are active; both enter
//     ending_soon in the last 3 days before their end date and expire when
//     it passes.
//   - PAST_DUE and CANCELED are never active, regardless of the trial flag
//     or any date on the record.
//   - A canceled record with the trial flag still set reads as an expired
//     trial rather than a canceled subscription.
//   - Unrecognized raw statuses are mirrored verbatim into Status.State
//     with every access boolean false.
//   - DaysRemaining counts whole days to the effective end date (trial end
//     while the trial flag is set, renewal date otherwise), rounds up, goes
//     negative after expiry, and is recomputed on every call. It is never
//     persisted or cached.
//
// A nil record derives the inactive default, so callers can feed a missing
// tenant straight through without special-casing.
//
// # Plans and entitlements
//
// The catalog carries the four public tiers (BASICO, PROFESIONAL, CLINICA,
// EMPRESA) with per-interval provider price IDs, MXN prices, resource
// limits, and trial length. Deployments load it from YAML (YAMLSource) so
// price rotations do not need a release; DefaultPlans backs development.
//
// Feature entitlement is a static tier lookup, separate from status:
// HasFeature(tier, feature) answers what a plan includes, Service.CheckFeature
// additionally requires the subscription to be active. Unknown tiers and
// unknown feature keys resolve to false.
//
// Resource limits use registered counters:
//
//	svc, err := subscription.NewService(ctx, source, provider, store,
//		subscription.WithCounter(subscription.ResourceAppointments, countAppointments),
//	)
//	if err := svc.CanCreate(ctx, clinicID, subscription.ResourceAppointments); err != nil {
//		// limit reached, upsell
//	}
//
// # Billing providers
//
// BillingProvider abstracts Paddle (production) and Stripe (regions Paddle
// does not cover). Providers do all payment work through hosted checkout
// and customer portals; this package never touches card data. Webhooks are
// signature-verified, normalized to WebhookEvent, and applied to the tenant
// record through a transition guard that keeps replayed or out-of-order
// events from resurrecting canceled subscriptions.
//
// # Upgrades
//
// Service.Upgrade handles the two legitimate flows:
//
//   - trial conversion: live trial or no provider subscription yet; the
//     tenant goes through hosted checkout, and the confirming webhook is
//     what mutates billing state.
//   - plan change: paid tenant moving to a strictly higher tier; the
//     provider applies immediate proration, and only after it confirms is
//     the local record updated.
//
// Downgrades are rejected with ErrNotAnUpgrade and routed through support.
//
// Service.CheckoutLink issues a hosted checkout link without touching the
// tenant record, for surfaces that hand the URL out of band (the QR
// endpoint). Tenants already paying through the provider are refused with
// ErrCheckoutNotAvailable.
//
// # Caching
//
// Status reads go through a SnapshotCache holding the raw billing fields
// with a short TTL, shared across instances via Redis. The derived Status
// is intentionally not cacheable here; recompute it wherever it is needed.
//
// # Usage
//
//	store := subscription.NewPGStore(pool)
//	provider, err := subscription.NewPaddleProvider(paddleCfg)
//	if err != nil { ... }
//
//	svc, err := subscription.NewService(ctx,
//		subscription.YAMLSource{Path: "plans.yaml"},
//		provider,
//		store,
//		subscription.WithSnapshotCache(subscription.NewRedisSnapshotCache(rdb)),
//	)
//	if err != nil { ... }
//
//	status, err := svc.Status(ctx, clinicID)
//	if status.IsActive { ... }
package subscription
