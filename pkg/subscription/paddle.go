package subscription

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	paddle "github.com/PaddleHQ/paddle-go-sdk/v3"
)

// PaddleConfig holds configuration for the Paddle billing provider.
type PaddleConfig struct {
	APIKey        string `env:"PADDLE_API_KEY,required"`
	WebhookSecret string `env:"PADDLE_WEBHOOK_SECRET,required"`
	Environment   string `env:"PADDLE_ENVIRONMENT" envDefault:"production"`
}

// PaddleProvider implements BillingProvider for Paddle.
type PaddleProvider struct {
	client   *paddle.SDK
	verifier *paddle.WebhookVerifier
	config   PaddleConfig
}

// NewPaddleProvider creates a new Paddle billing provider. SDK options
// pass through to the client; tests use paddle.WithBaseURL to point it
// at a stub server.
func NewPaddleProvider(config PaddleConfig, opts ...paddle.Option) (*PaddleProvider, error) {
	if config.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if config.WebhookSecret == "" {
		return nil, ErrMissingWebhookSecret
	}

	var client *paddle.SDK
	var err error

	switch strings.ToLower(config.Environment) {
	case "sandbox":
		client, err = paddle.NewSandbox(config.APIKey, opts...)
	case "production", "":
		client, err = paddle.New(config.APIKey, opts...)
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidProviderEnvironment, config.Environment)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create paddle client: %w", err)
	}

	return &PaddleProvider{
		client:   client,
		verifier: paddle.NewWebhookVerifier(config.WebhookSecret),
		config:   config,
	}, nil
}

// Name implements BillingProvider.
func (p *PaddleProvider) Name() string { return "paddle" }

// PriceID implements BillingProvider.
func (p *PaddleProvider) PriceID(plan Plan, interval BillingInterval) (string, error) {
	price, ok := plan.Price(interval)
	if !ok {
		return "", ErrIntervalNotAvailable
	}
	if price.PaddlePriceID == "" {
		return "", fmt.Errorf("%w: paddle, plan %s %s", ErrPriceNotConfigured, plan.Tier, interval)
	}
	return price.PaddlePriceID, nil
}

// CreateCheckoutLink creates a hosted checkout session in Paddle.
func (p *PaddleProvider) CreateCheckoutLink(ctx context.Context, req CheckoutRequest) (*CheckoutLink, error) {
	if req.PriceID == "" {
		return nil, ErrMissingPriceID
	}
	if req.TenantID == "" {
		return nil, errors.New("tenant ID is required")
	}

	item := paddle.NewCreateTransactionItemsTransactionItemFromCatalog(&paddle.TransactionItemFromCatalog{
		PriceID:  req.PriceID,
		Quantity: 1,
	})

	// tenant_id in custom data is how webhook processing finds its way back
	// to the clinic record.
	transactionReq := &paddle.CreateTransactionRequest{
		Items: []paddle.CreateTransactionItems{*item},
		CustomData: paddle.CustomData{
			"tenant_id": req.TenantID,
		},
	}

	if req.Email != "" {
		transactionReq.CustomData["email"] = req.Email
	}

	if req.SuccessURL != "" {
		transactionReq.Checkout = &paddle.TransactionCheckout{
			URL: paddle.PtrTo(req.SuccessURL),
		}
	}

	transaction, err := p.client.TransactionsClient.CreateTransaction(ctx, transactionReq)
	if err != nil {
		return nil, fmt.Errorf("failed to create paddle transaction: %w", err)
	}

	if transaction.Checkout == nil || transaction.Checkout.URL == nil {
		return nil, ErrNoCheckoutURL
	}

	return &CheckoutLink{
		URL:       *transaction.Checkout.URL,
		SessionID: transaction.ID,
		ExpiresAt: time.Now().Add(24 * time.Hour), // Paddle checkout links expire in 24 hours
	}, nil
}

// ChangePlan swaps the subscription onto a new price with immediate
// proration, per Paddle's prorated_immediately billing mode.
func (p *PaddleProvider) ChangePlan(ctx context.Context, providerSubID, priceID string) error {
	if providerSubID == "" {
		return ErrNoProviderSub
	}
	if priceID == "" {
		return ErrMissingPriceID
	}

	item := paddle.NewUpdateSubscriptionItemsSubscriptionUpdateItemFromCatalog(&paddle.SubscriptionUpdateItemFromCatalog{
		PriceID:  priceID,
		Quantity: 1,
	})

	_, err := p.client.SubscriptionsClient.UpdateSubscription(ctx, &paddle.UpdateSubscriptionRequest{
		SubscriptionID:       providerSubID,
		Items:                paddle.NewPatchField([]paddle.UpdateSubscriptionItems{*item}),
		ProrationBillingMode: paddle.NewPatchField(paddle.ProrationBillingModeProratedImmediately),
	})
	if err != nil {
		return fmt.Errorf("failed to update paddle subscription: %w", err)
	}
	return nil
}

// GetCustomerPortalLink returns a link to Paddle's customer portal.
func (p *PaddleProvider) GetCustomerPortalLink(ctx context.Context, b *Billing) (*PortalLink, error) {
	if b == nil {
		return nil, ErrBillingNotFound
	}
	if b.ProviderSubID == "" {
		return nil, ErrNoProviderSub
	}

	customerID := b.ProviderCustomerID
	if customerID == "" {
		return nil, errors.New("paddle customer ID is not set for tenant")
	}

	portalSession, err := p.client.CustomerPortalSessionsClient.CreateCustomerPortalSession(ctx, &paddle.CreateCustomerPortalSessionRequest{
		CustomerID:      customerID,
		SubscriptionIDs: []string{b.ProviderSubID},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create paddle customer portal session: %w", err)
	}

	link := &PortalLink{
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}
	if portalSession.URLs.General.Overview != "" {
		link.URL = portalSession.URLs.General.Overview
	}

	for _, subURL := range portalSession.URLs.Subscriptions {
		if subURL.ID != b.ProviderSubID {
			continue
		}
		if subURL.CancelSubscription != "" {
			link.CancelURL = subURL.CancelSubscription
		}
		if subURL.UpdateSubscriptionPaymentMethod != "" {
			link.UpdatePaymentURL = subURL.UpdateSubscriptionPaymentMethod
		}
		break
	}

	if link.URL == "" {
		return nil, ErrNoPortalURL
	}
	return link, nil
}

// ParseWebhook validates and parses incoming webhook data from Paddle.
func (p *PaddleProvider) ParseWebhook(ctx context.Context, payload []byte, signature string) (*WebhookEvent, error) {
	// The verifier works on *http.Request, so reconstruct one around the
	// payload the handler already consumed.
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "/webhook", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request for verification: %w", err)
	}
	req.Header.Set("Paddle-Signature", signature)

	valid, err := p.verifier.Verify(req)
	if err != nil {
		return nil, fmt.Errorf("webhook verification error: %w", err)
	}
	if !valid {
		return nil, ErrWebhookVerificationFailed
	}

	var paddleEvent struct {
		EventID    string         `json:"event_id"`
		EventType  string         `json:"event_type"`
		OccurredAt string         `json:"occurred_at"`
		Data       map[string]any `json:"data"`
	}
	if err := json.Unmarshal(payload, &paddleEvent); err != nil {
		return nil, fmt.Errorf("failed to parse webhook payload: %w", err)
	}

	event := &WebhookEvent{
		Type:          mapPaddleEventType(paddleEvent.EventType),
		ProviderEvent: paddleEvent.EventType,
		Raw:           paddleEvent.Data,
	}

	data := paddleEvent.Data

	if strings.HasPrefix(paddleEvent.EventType, "subscription.") {
		if subID, ok := data["id"].(string); ok {
			event.SubscriptionID = subID
		}
	}
	if strings.HasPrefix(paddleEvent.EventType, "transaction.") {
		if subID, ok := data["subscription_id"].(string); ok {
			event.SubscriptionID = subID
		}
	}

	if status, ok := data["status"].(string); ok {
		event.Status = normalizePaddleStatus(status)
	}
	if customerID, ok := data["customer_id"].(string); ok {
		event.CustomerID = customerID
	}
	if customData, ok := data["custom_data"].(map[string]any); ok {
		if tenantID, ok := customData["tenant_id"].(string); ok {
			event.TenantID = tenantID
		}
	}

	if items, ok := data["items"].([]any); ok && len(items) > 0 {
		if item, ok := items[0].(map[string]any); ok {
			// Subscription items nest the price object; transaction items
			// carry price_id directly.
			if price, ok := item["price"].(map[string]any); ok {
				if priceID, ok := price["id"].(string); ok {
					event.PriceID = priceID
				}
			}
			if priceID, ok := item["price_id"].(string); ok {
				event.PriceID = priceID
			}
			if trial, ok := item["trial_dates"].(map[string]any); ok {
				event.TrialEnd = parsePaddleTime(trial["ends_at"])
			}
		}
	}

	if period, ok := data["current_billing_period"].(map[string]any); ok {
		event.PeriodEnd = parsePaddleTime(period["ends_at"])
	}
	if event.PeriodEnd == nil {
		event.PeriodEnd = parsePaddleTime(data["next_billed_at"])
	}

	return event, nil
}

// parsePaddleTime parses Paddle's RFC3339 timestamps, tolerating absent or
// malformed values by returning nil. Billing math treats nil as "no date";
// it must never blow up webhook processing.
func parsePaddleTime(v any) *time.Time {
	s, ok := v.(string)
	if !ok || s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	return &t
}

// mapPaddleEventType maps Paddle event types to normalized EventTypes.
func mapPaddleEventType(paddleEvent string) EventType {
	switch paddleEvent {
	case "transaction.completed":
		return EventPaymentSucceeded
	case "subscription.created":
		return EventSubscriptionCreated
	case "subscription.activated", "subscription.updated":
		return EventSubscriptionUpdated
	case "subscription.canceled":
		return EventSubscriptionCancelled
	case "subscription.resumed":
		return EventSubscriptionResumed
	case "transaction.payment_failed":
		return EventPaymentFailed
	default:
		// Pass unmapped events through; the service ignores what it does
		// not handle.
		return EventType(paddleEvent)
	}
}

// normalizePaddleStatus maps Paddle subscription statuses to the raw
// vocabulary persisted on tenants. Unknown statuses pass through verbatim
// and fail closed downstream.
func normalizePaddleStatus(paddleStatus string) string {
	switch strings.ToLower(paddleStatus) {
	case "trialing":
		return string(StatusTrialing)
	case "active":
		return string(StatusActive)
	case "past_due":
		return string(StatusPastDue)
	case "canceled", "cancelled":
		return string(StatusCanceled)
	default:
		return paddleStatus
	}
}
