package subscription

import (
	"time"

	"github.com/google/uuid"
)

// Billing is the billing-relevant subset of a tenant record. It is the input
// to every status derivation and the only state this package persists.
// Tenant records are never hard-deleted: cancellation mutates Status and
// CanceledAt, nothing else.
type Billing struct {
	TenantID uuid.UUID `json:"tenant_id"`

	PlanType PlanTier `json:"plan_type"`
	PlanName string   `json:"plan_name"`

	// Status is the raw provider-driven state. Treat as an open set and go
	// through Canonical before branching on it.
	Status SubscriptionStatus `json:"status"`

	// IsTrialPeriod is set at signup and cleared explicitly when the trial
	// converts to a paid subscription. It can be stale relative to Status,
	// which is why derivation re-checks both.
	IsTrialPeriod bool `json:"is_trial_period"`

	TrialEndsAt        *time.Time `json:"trial_ends_at,omitempty"`
	SubscriptionEndsAt *time.Time `json:"subscription_ends_at,omitempty"`

	Interval BillingInterval `json:"interval,omitempty"`

	// Provider identifiers. Empty for tenants that never completed checkout.
	ProviderCustomerID string `json:"provider_customer_id,omitempty"`
	ProviderSubID      string `json:"provider_sub_id,omitempty"`

	CanceledAt *time.Time `json:"canceled_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// InTrial reports whether the record is in a live trial: the trial flag is
// set and the provider still reports TRIALING. A stale flag on an ACTIVE
// subscription does not count.
func (b *Billing) InTrial() bool {
	if b == nil || !b.IsTrialPeriod {
		return false
	}
	raw, _ := Canonical(string(b.Status))
	return raw == StatusTrialing
}

// HasProviderSubscription reports whether the tenant has a live subscription
// object on the billing provider side.
func (b *Billing) HasProviderSubscription() bool {
	return b != nil && b.ProviderSubID != ""
}
