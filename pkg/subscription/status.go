package subscription

import (
	"math"
	"time"
)

// State is the derived subscription state consumed by dashboards and gates.
// For unrecognized raw statuses the state mirrors the raw value verbatim so
// operators can see exactly what the provider sent.
type State string

const (
	StateActive     State = "active"
	StateEndingSoon State = "ending_soon"
	StateExpired    State = "expired"
	StatePastDue    State = "past_due"
	StateCanceled   State = "canceled"
	StateInactive   State = "inactive"
	StateTrialing   State = "trialing"
)

// DefaultEndingSoonDays is the countdown window in which an otherwise active
// subscription is reported as ending_soon.
const DefaultEndingSoonDays = 3

// Status is the derived view of a tenant's subscription. It is computed
// fresh on every evaluation and never persisted: DaysRemaining drifts by the
// hour, caching it would freeze the countdown.
type Status struct {
	State     State              `json:"state"`
	RawStatus SubscriptionStatus `json:"raw_status"`

	IsActive bool `json:"is_active"`

	// IsTrialPeriod is the effective trial flag: the stored flag, suppressed
	// once the provider reports ACTIVE (a converted trial is not a trial).
	IsTrialPeriod bool `json:"is_trial_period"`

	PlanType PlanTier `json:"plan_type,omitempty"`
	PlanName string   `json:"plan_name"`

	// DaysRemaining counts whole days until the effective end date, rounded
	// up, and goes negative after expiry. Nil when no end date applies.
	DaysRemaining *int `json:"days_remaining"`

	TrialEndsAt *time.Time `json:"trial_ends_at,omitempty"`
	RenewalDate *time.Time `json:"renewal_date,omitempty"`

	HasActiveSubscription bool `json:"has_active_subscription"`
	NeedsPayment          bool `json:"needs_payment"`
}

// CalculatorOption configures a Calculator.
type CalculatorOption func(*Calculator)

// WithClock overrides the time source. Tests pin the clock to exercise
// countdown boundaries deterministically.
func WithClock(now func() time.Time) CalculatorOption {
	return func(c *Calculator) {
		if now != nil {
			c.now = now
		}
	}
}

// WithEndingSoonDays overrides the ending_soon window.
func WithEndingSoonDays(days int) CalculatorOption {
	return func(c *Calculator) {
		if days >= 0 {
			c.endingSoonDays = days
		}
	}
}

// Calculator derives Status values from raw billing records. It is pure and
// side-effect free: same record and clock in, same status out. A zero-cost
// struct, safe for concurrent use.
type Calculator struct {
	now            func() time.Time
	endingSoonDays int
}

// NewCalculator creates a Calculator with a real-time clock and the default
// ending_soon window.
func NewCalculator(opts ...CalculatorOption) *Calculator {
	c := &Calculator{
		now:            time.Now,
		endingSoonDays: DefaultEndingSoonDays,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compute derives the subscription status for a billing record.
//
// The derivation is fail-closed at every decision point: a nil record, an
// unrecognized raw status, or malformed dates all yield a non-active result
// rather than an error. Access control must never crash or fail open because
// a webhook wrote something unexpected.
func (c *Calculator) Compute(b *Billing) Status {
	if b == nil {
		return Status{
			State:     StateInactive,
			RawStatus: StatusInactive,
		}
	}

	now := c.now()
	raw, known := Canonical(string(b.Status))

	s := Status{
		RawStatus:     raw,
		PlanType:      b.PlanType,
		PlanName:      b.PlanName,
		TrialEndsAt:   b.TrialEndsAt,
		RenewalDate:   b.SubscriptionEndsAt,
		IsTrialPeriod: b.IsTrialPeriod && raw != StatusActive,
	}

	// The countdown tracks the trial end only while the trial is effective.
	// A stale trial flag on an ACTIVE subscription must not let an old trial
	// date expire a paying clinic, so the renewal date wins there.
	end := b.SubscriptionEndsAt
	if s.IsTrialPeriod && b.TrialEndsAt != nil {
		end = b.TrialEndsAt
	}
	if end != nil {
		days := daysUntil(now, *end)
		s.DaysRemaining = &days
	}

	if !known {
		// Unrecognized provider status: mirror it verbatim and grant nothing.
		s.State = State(raw)
		return s
	}

	s.HasActiveSubscription = raw == StatusActive

	// Terminal and delinquent states win over everything, including a trial
	// flag that was never cleared.
	switch raw {
	case StatusCanceled:
		if b.IsTrialPeriod {
			s.State = StateExpired
		} else {
			s.State = StateCanceled
		}
		s.NeedsPayment = s.State == StateExpired
		return s
	case StatusPastDue:
		s.State = StatePastDue
		s.NeedsPayment = true
		return s
	case StatusInactive:
		s.State = StateInactive
		return s
	}

	if b.IsTrialPeriod && raw == StatusTrialing {
		s.applyCountdown(c.endingSoonDays)
		return s
	}

	if raw == StatusActive {
		s.applyCountdown(c.endingSoonDays)
		return s
	}

	// TRIALING without the trial flag: contradictory state, mirror the raw
	// status without granting access until a webhook reconciles it.
	s.State = StateTrialing
	return s
}

// applyCountdown resolves active/ending_soon/expired from DaysRemaining.
// A missing end date means the provider vouches for the subscription with no
// known horizon, which counts as active.
func (s *Status) applyCountdown(endingSoonDays int) {
	switch {
	case s.DaysRemaining == nil:
		s.State = StateActive
		s.IsActive = true
	case *s.DaysRemaining < 0:
		s.State = StateExpired
		s.NeedsPayment = true
	case *s.DaysRemaining <= endingSoonDays:
		s.State = StateEndingSoon
		s.IsActive = true
	default:
		s.State = StateActive
		s.IsActive = true
	}
}

// daysUntil returns the whole days from now until end, rounded up. The
// rounding keeps a subscription usable through its final partial day and
// only goes negative once a full day has passed since expiry.
func daysUntil(now, end time.Time) int {
	return int(math.Ceil(end.Sub(now).Hours() / 24))
}
