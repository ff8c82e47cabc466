package subscription

import "strings"

// PlanTier identifies one of the public Vetify plan tiers.
// Tiers form a strict ladder used to validate upgrades.
type PlanTier string

const (
	TierBasico      PlanTier = "BASICO"
	TierProfesional PlanTier = "PROFESIONAL"
	TierClinica     PlanTier = "CLINICA"
	TierEmpresa     PlanTier = "EMPRESA"
)

// tierRanks orders tiers from cheapest to most expensive.
// An upgrade is only legitimate when the target rank is strictly higher.
var tierRanks = map[PlanTier]int{
	TierBasico:      1,
	TierProfesional: 2,
	TierClinica:     3,
	TierEmpresa:     4,
}

// Rank returns the tier's position in the plan ladder, or 0 for unknown tiers.
func (t PlanTier) Rank() int {
	return tierRanks[t]
}

// Known reports whether t is one of the public Vetify tiers.
func (t PlanTier) Known() bool {
	_, ok := tierRanks[t]
	return ok
}

// ParseTier normalizes a free-form tier string (case-insensitive) to a PlanTier.
// Returns false for anything outside the plan ladder.
func ParseTier(raw string) (PlanTier, bool) {
	t := PlanTier(strings.ToUpper(strings.TrimSpace(raw)))
	return t, t.Known()
}

// SubscriptionStatus is the raw billing state persisted on a tenant record.
// The set is open: billing providers evolve their vocabularies independently
// of this codebase, so persisted values outside the declared constants must
// be expected and handled fail-closed. Use Canonical before comparing.
type SubscriptionStatus string

const (
	StatusActive   SubscriptionStatus = "ACTIVE"
	StatusTrialing SubscriptionStatus = "TRIALING"
	StatusPastDue  SubscriptionStatus = "PAST_DUE"
	StatusCanceled SubscriptionStatus = "CANCELED"

	// StatusInactive is the pseudo-status used when no tenant record exists.
	// It is never written by webhook processing.
	StatusInactive SubscriptionStatus = "INACTIVE"
)

// Canonical normalizes a raw status string and reports whether it is one of
// the recognized lifecycle states. Matching is case-insensitive and maps the
// British spelling CANCELLED to CANCELED. Unrecognized input is returned
// verbatim (trimmed) with ok=false so callers can surface the original value.
func Canonical(raw string) (SubscriptionStatus, bool) {
	trimmed := strings.TrimSpace(raw)
	switch strings.ToUpper(trimmed) {
	case "ACTIVE":
		return StatusActive, true
	case "TRIALING":
		return StatusTrialing, true
	case "PAST_DUE", "PASTDUE":
		return StatusPastDue, true
	case "CANCELED", "CANCELLED":
		return StatusCanceled, true
	case "INACTIVE":
		return StatusInactive, true
	default:
		return SubscriptionStatus(trimmed), false
	}
}

// Resource identifies a countable resource constrained by plan limits.
type Resource string

const (
	ResourceUsers          Resource = "users"
	ResourcePatients       Resource = "patients"
	ResourceAppointments   Resource = "appointments"
	ResourceInventoryItems Resource = "inventory_items"
	ResourceAPIKeys        Resource = "api_keys"
	ResourceWebhooks       Resource = "webhooks"
	ResourceLocations      Resource = "locations"
)

// Unlimited indicates no limit for a resource.
const Unlimited int64 = -1

// BillingInterval defines the billing cycle for a plan price.
type BillingInterval string

const (
	BillingIntervalMonthly BillingInterval = "monthly"
	BillingIntervalAnnual  BillingInterval = "annual"
)

// ParseInterval normalizes a billing interval string. An empty string
// defaults to monthly, which is the interval every tenant starts on.
func ParseInterval(raw string) (BillingInterval, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "monthly", "month":
		return BillingIntervalMonthly, true
	case "annual", "yearly", "year":
		return BillingIntervalAnnual, true
	default:
		return BillingInterval(raw), false
	}
}

// Money represents a price amount in the smallest currency unit (centavos).
type Money struct {
	Amount   int64  `json:"amount" yaml:"amount"`
	Currency string `json:"currency" yaml:"currency"`
}
