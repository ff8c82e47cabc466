package subscription

import (
	"context"
	"time"
)

// BillingProvider is the payment provider abstraction. Vetify runs on Paddle
// in production with Stripe supported for regions Paddle does not cover;
// both implementations live in this package. Providers handle all payment
// complexity through hosted checkouts and customer portals, which keeps
// card data entirely off Vetify servers.
type BillingProvider interface {
	// Name identifies the provider ("paddle", "stripe") for webhook routing
	// and logging.
	Name() string

	// PriceID resolves the provider-side price identifier for a plan and
	// billing interval. Returns ErrPriceNotConfigured when the catalog has
	// no price for this provider.
	PriceID(plan Plan, interval BillingInterval) (string, error)

	// CreateCheckoutLink creates a hosted checkout session. Used for trial
	// conversions and for tenants that never completed checkout.
	CreateCheckoutLink(ctx context.Context, req CheckoutRequest) (*CheckoutLink, error)

	// ChangePlan swaps the subscription to a new price with immediate
	// proration. Used for paid-to-paid upgrades, never for trial
	// conversions.
	ChangePlan(ctx context.Context, providerSubID, priceID string) error

	// GetCustomerPortalLink returns a temporary link to the provider's
	// customer portal where owners update payment methods or cancel.
	GetCustomerPortalLink(ctx context.Context, b *Billing) (*PortalLink, error)

	// ParseWebhook validates the signature and normalizes the payload.
	// Must reject unverifiable payloads: webhooks mutate billing state.
	ParseWebhook(ctx context.Context, payload []byte, signature string) (*WebhookEvent, error)
}

// CheckoutRequest contains data needed to create a checkout session.
type CheckoutRequest struct {
	PriceID    string // provider's price identifier
	TenantID   string // internal tenant ID, round-trips via provider metadata
	CustomerID string // provider customer ID when already known
	Email      string // optional billing email
	SuccessURL string // redirect after successful payment
	CancelURL  string // redirect if the customer abandons checkout
}

// CheckoutLink represents a hosted checkout session.
type CheckoutLink struct {
	URL       string    `json:"url"`
	SessionID string    `json:"session_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// PortalLink represents a customer portal session.
type PortalLink struct {
	URL              string    `json:"url"`
	CancelURL        string    `json:"cancel_url,omitempty"`
	UpdatePaymentURL string    `json:"update_payment_url,omitempty"`
	ExpiresAt        time.Time `json:"expires_at"`
}

// WebhookEvent is a provider webhook normalized to the engine's vocabulary.
type WebhookEvent struct {
	Type           EventType      // normalized event type
	ProviderEvent  string         // original provider event name
	SubscriptionID string         // provider's subscription ID
	CustomerID     string         // provider's customer ID
	TenantID       string         // internal tenant ID recovered from metadata
	Status         string         // provider's subscription status, raw
	PriceID        string         // provider price the tenant is on
	PeriodEnd      *time.Time     // current period end when the payload carries one
	TrialEnd       *time.Time     // trial end when the payload carries one
	Raw            map[string]any // full webhook data for audit logging
}

// EventType is the normalized billing event type. Each provider
// implementation maps its specific events to these.
type EventType string

const (
	EventSubscriptionCreated   EventType = "subscription_created"
	EventSubscriptionUpdated   EventType = "subscription_updated"
	EventSubscriptionCancelled EventType = "subscription_cancelled"
	EventSubscriptionResumed   EventType = "subscription_resumed"

	EventPaymentSucceeded EventType = "payment_succeeded"
	EventPaymentFailed    EventType = "payment_failed"
)
