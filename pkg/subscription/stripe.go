package subscription

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	stripe "github.com/stripe/stripe-go/v82"
	bpsession "github.com/stripe/stripe-go/v82/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"
	stripesub "github.com/stripe/stripe-go/v82/subscription"
	"github.com/stripe/stripe-go/v82/webhook"
)

// StripeConfig holds configuration for the Stripe billing provider.
type StripeConfig struct {
	APIKey          string `env:"STRIPE_SECRET_KEY,required"`
	WebhookSecret   string `env:"STRIPE_WEBHOOK_SECRET,required"`
	PortalReturnURL string `env:"STRIPE_PORTAL_RETURN_URL" envDefault:"/dashboard/settings?tab=subscription"`
}

// StripeProvider implements BillingProvider for Stripe. Vetify offers it for
// clinics in regions Paddle does not serve; the engine treats the two
// identically.
type StripeProvider struct {
	config StripeConfig
}

// NewStripeProvider creates a new Stripe billing provider.
func NewStripeProvider(config StripeConfig) (*StripeProvider, error) {
	if config.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if config.WebhookSecret == "" {
		return nil, ErrMissingWebhookSecret
	}

	stripe.Key = config.APIKey
	return &StripeProvider{config: config}, nil
}

// Name implements BillingProvider.
func (p *StripeProvider) Name() string { return "stripe" }

// PriceID implements BillingProvider.
func (p *StripeProvider) PriceID(plan Plan, interval BillingInterval) (string, error) {
	price, ok := plan.Price(interval)
	if !ok {
		return "", ErrIntervalNotAvailable
	}
	if price.StripePriceID == "" {
		return "", fmt.Errorf("%w: stripe, plan %s %s", ErrPriceNotConfigured, plan.Tier, interval)
	}
	return price.StripePriceID, nil
}

// CreateCheckoutLink creates a hosted Stripe Checkout session in
// subscription mode.
func (p *StripeProvider) CreateCheckoutLink(ctx context.Context, req CheckoutRequest) (*CheckoutLink, error) {
	if req.PriceID == "" {
		return nil, ErrMissingPriceID
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(req.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		// tenant_id lands in subscription metadata so every later webhook
		// can be traced back to the clinic.
		ClientReferenceID: stripe.String(req.TenantID),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{"tenant_id": req.TenantID},
		},
	}
	params.Context = ctx

	if req.SuccessURL != "" {
		params.SuccessURL = stripe.String(req.SuccessURL)
	}
	if req.CancelURL != "" {
		params.CancelURL = stripe.String(req.CancelURL)
	}
	if req.CustomerID != "" {
		params.Customer = stripe.String(req.CustomerID)
	} else if req.Email != "" {
		params.CustomerEmail = stripe.String(req.Email)
	}

	sess, err := checkoutsession.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create stripe checkout session: %w", err)
	}
	if sess.URL == "" {
		return nil, ErrNoCheckoutURL
	}

	return &CheckoutLink{
		URL:       sess.URL,
		SessionID: sess.ID,
		ExpiresAt: time.Unix(sess.ExpiresAt, 0),
	}, nil
}

// ChangePlan swaps the subscription item onto a new price with immediate
// proration.
func (p *StripeProvider) ChangePlan(ctx context.Context, providerSubID, priceID string) error {
	if providerSubID == "" {
		return ErrNoProviderSub
	}
	if priceID == "" {
		return ErrMissingPriceID
	}

	getParams := &stripe.SubscriptionParams{}
	getParams.Context = ctx
	current, err := stripesub.Get(providerSubID, getParams)
	if err != nil {
		return fmt.Errorf("failed to load stripe subscription: %w", err)
	}
	if current.Items == nil || len(current.Items.Data) == 0 {
		return fmt.Errorf("stripe subscription %s has no items", providerSubID)
	}

	params := &stripe.SubscriptionParams{
		Items: []*stripe.SubscriptionItemsParams{
			{
				ID:    stripe.String(current.Items.Data[0].ID),
				Price: stripe.String(priceID),
			},
		},
		ProrationBehavior: stripe.String("create_prorations"),
	}
	params.Context = ctx

	if _, err := stripesub.Update(providerSubID, params); err != nil {
		return fmt.Errorf("failed to update stripe subscription: %w", err)
	}
	return nil
}

// GetCustomerPortalLink returns a Stripe billing portal session link.
func (p *StripeProvider) GetCustomerPortalLink(ctx context.Context, b *Billing) (*PortalLink, error) {
	if b == nil {
		return nil, ErrBillingNotFound
	}
	if b.ProviderCustomerID == "" {
		return nil, ErrNoProviderSub
	}

	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(b.ProviderCustomerID),
		ReturnURL: stripe.String(p.config.PortalReturnURL),
	}
	params.Context = ctx

	sess, err := bpsession.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create stripe portal session: %w", err)
	}
	if sess.URL == "" {
		return nil, ErrNoPortalURL
	}

	return &PortalLink{
		URL:       sess.URL,
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}, nil
}

// ParseWebhook validates the Stripe signature and normalizes the event.
func (p *StripeProvider) ParseWebhook(_ context.Context, payload []byte, signature string) (*WebhookEvent, error) {
	stripeEvent, err := webhook.ConstructEvent(payload, signature, p.config.WebhookSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWebhookVerificationFailed, err)
	}

	event := &WebhookEvent{
		Type:          mapStripeEventType(string(stripeEvent.Type)),
		ProviderEvent: string(stripeEvent.Type),
	}
	if len(stripeEvent.Data.Raw) > 0 {
		var raw map[string]any
		if err := json.Unmarshal(stripeEvent.Data.Raw, &raw); err == nil {
			event.Raw = raw
		}
	}

	switch {
	case strings.HasPrefix(string(stripeEvent.Type), "customer.subscription."):
		var sub stripe.Subscription
		if err := json.Unmarshal(stripeEvent.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("failed to parse stripe subscription event: %w", err)
		}
		event.SubscriptionID = sub.ID
		event.Status = normalizeStripeStatus(string(sub.Status))
		event.TenantID = sub.Metadata["tenant_id"]
		if sub.Customer != nil {
			event.CustomerID = sub.Customer.ID
		}
		if sub.TrialEnd > 0 {
			t := time.Unix(sub.TrialEnd, 0).UTC()
			event.TrialEnd = &t
		}
		if sub.Items != nil && len(sub.Items.Data) > 0 {
			item := sub.Items.Data[0]
			if item.Price != nil {
				event.PriceID = item.Price.ID
			}
			if item.CurrentPeriodEnd > 0 {
				t := time.Unix(item.CurrentPeriodEnd, 0).UTC()
				event.PeriodEnd = &t
			}
		}

	case stripeEvent.Type == "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(stripeEvent.Data.Raw, &sess); err != nil {
			return nil, fmt.Errorf("failed to parse stripe checkout event: %w", err)
		}
		event.TenantID = sess.ClientReferenceID
		if sess.Customer != nil {
			event.CustomerID = sess.Customer.ID
		}
		if sess.Subscription != nil {
			event.SubscriptionID = sess.Subscription.ID
		}

	case strings.HasPrefix(string(stripeEvent.Type), "invoice."):
		var inv stripe.Invoice
		if err := json.Unmarshal(stripeEvent.Data.Raw, &inv); err != nil {
			return nil, fmt.Errorf("failed to parse stripe invoice event: %w", err)
		}
		// Invoices carry no tenant metadata; the service resolves the
		// tenant through the customer ID instead.
		if inv.Customer != nil {
			event.CustomerID = inv.Customer.ID
		}
	}

	return event, nil
}

// mapStripeEventType maps Stripe event types to normalized EventTypes.
func mapStripeEventType(stripeEvent string) EventType {
	switch stripeEvent {
	case "checkout.session.completed", "customer.subscription.created":
		return EventSubscriptionCreated
	case "customer.subscription.updated":
		return EventSubscriptionUpdated
	case "customer.subscription.deleted":
		return EventSubscriptionCancelled
	case "customer.subscription.resumed":
		return EventSubscriptionResumed
	case "invoice.paid", "invoice.payment_succeeded":
		return EventPaymentSucceeded
	case "invoice.payment_failed":
		return EventPaymentFailed
	default:
		return EventType(stripeEvent)
	}
}

// normalizeStripeStatus maps Stripe subscription statuses to the raw
// vocabulary persisted on tenants. Stripe's unpaid means dunning is
// exhausted but the subscription is not canceled, which is PAST_DUE for
// access purposes. Incomplete checkout states pass through verbatim and
// fail closed downstream.
func normalizeStripeStatus(stripeStatus string) string {
	switch strings.ToLower(stripeStatus) {
	case "trialing":
		return string(StatusTrialing)
	case "active":
		return string(StatusActive)
	case "past_due", "unpaid":
		return string(StatusPastDue)
	case "canceled", "cancelled":
		return string(StatusCanceled)
	default:
		return stripeStatus
	}
}
