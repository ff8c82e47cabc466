package subscription

import "time"

// lifecycle.go guards raw-status transitions driven by webhook processing.
// Providers occasionally deliver events out of order; the table keeps a
// replayed "payment failed" from resurrecting a canceled subscription.

// validTransitions maps each canonical status to the statuses it may move to.
// Self-transitions are always allowed (idempotent webhook replays).
var validTransitions = map[SubscriptionStatus][]SubscriptionStatus{
	StatusInactive: {StatusTrialing, StatusActive},
	StatusTrialing: {StatusActive, StatusPastDue, StatusCanceled},
	StatusActive:   {StatusPastDue, StatusCanceled},
	StatusPastDue:  {StatusActive, StatusCanceled},
	// Canceled is terminal except for a provider-side resume.
	StatusCanceled: {StatusActive},
}

// CanTransition reports whether a raw-status change is legitimate. Unknown
// source or target statuses are always allowed through: the provider is the
// system of record, and refusing to persist a vocabulary we do not recognize
// would silently fork state. The derivation layer fails closed on them
// anyway.
func CanTransition(from, to SubscriptionStatus) bool {
	f, fromKnown := Canonical(string(from))
	t, toKnown := Canonical(string(to))
	if !fromKnown || !toKnown {
		return true
	}
	if f == t {
		return true
	}
	for _, allowed := range validTransitions[f] {
		if allowed == t {
			return true
		}
	}
	return false
}

// ApplyTransition mutates a billing record to the target status, handling
// the bookkeeping each arrival implies:
//
//   - entering ACTIVE clears the trial flag (trial-to-paid conversion) and
//     the cancellation timestamp (provider resume)
//   - entering CANCELED stamps CanceledAt
//
// Returns false without mutating when the transition is not legitimate.
func ApplyTransition(b *Billing, to SubscriptionStatus, now time.Time) bool {
	if b == nil {
		return false
	}
	if !CanTransition(b.Status, to) {
		return false
	}

	canonical, known := Canonical(string(to))
	if !known {
		// Persist the provider's vocabulary verbatim; derivation mirrors it.
		b.Status = to
		b.UpdatedAt = now
		return true
	}

	b.Status = canonical
	b.UpdatedAt = now

	switch canonical {
	case StatusActive:
		b.IsTrialPeriod = false
		b.CanceledAt = nil
	case StatusCanceled:
		if b.CanceledAt == nil {
			b.CanceledAt = &now
		}
	}

	return true
}
