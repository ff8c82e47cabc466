package subscription

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// UpgradeType distinguishes the two upgrade flows.
type UpgradeType string

const (
	// UpgradeTrialConversion sends the tenant through hosted checkout to
	// enter payment details. No proration: there is nothing to prorate.
	UpgradeTrialConversion UpgradeType = "trial_conversion"

	// UpgradePlanChange swaps the price on the existing provider
	// subscription with immediate proration. No redirect.
	UpgradePlanChange UpgradeType = "plan_change"
)

// UpgradeRequest describes a requested plan change.
type UpgradeRequest struct {
	TargetTier PlanTier        `json:"target_plan"`
	Interval   BillingInterval `json:"billing_interval"`

	// FromTrial marks the request as a trial conversion, which bypasses the
	// strictly-higher-tier rule (converting to the same tier you trialed is
	// legitimate). The server re-derives the real trial state and treats
	// the flag as a hint, never as authorization.
	FromTrial bool `json:"from_trial"`

	// Checkout redirect targets, used only for conversions.
	SuccessURL string `json:"success_url,omitempty"`
	CancelURL  string `json:"cancel_url,omitempty"`
	Email      string `json:"email,omitempty"`
}

// UpgradeResult reports how the upgrade was executed.
type UpgradeResult struct {
	Type UpgradeType `json:"type"`
	Tier PlanTier    `json:"plan"`

	// CheckoutURL is set for trial conversions; the caller must redirect
	// the user there to complete payment.
	CheckoutURL string `json:"checkout_url,omitempty"`
}

// Upgrade moves a tenant to a higher plan tier.
//
// Trial conversions (live trial, or no provider subscription yet) produce a
// hosted checkout link and mutate nothing; the webhook confirming payment is
// what lands the change. Paid-to-paid upgrades call the provider first and
// persist only after it confirms, so a provider failure leaves the tenant
// record untouched. Downgrades are rejected outright; they run through
// support so usage can be reviewed against the smaller plan's limits first.
//
// Concurrent upgrades for the same tenant are rejected with
// ErrUpgradeInProgress. The guard is per-instance: the provider's own
// idempotency on subscription updates covers the multi-instance window.
func (s *service) Upgrade(ctx context.Context, tenantID uuid.UUID, req UpgradeRequest) (*UpgradeResult, error) {
	plan, ok := s.catalog.ByTier(req.TargetTier)
	if !ok || !plan.Public {
		return nil, ErrPlanNotFound
	}

	interval := req.Interval
	if interval == "" {
		interval = BillingIntervalMonthly
	}
	if _, ok := plan.Price(interval); !ok {
		return nil, ErrIntervalNotAvailable
	}

	if !s.beginUpgrade(tenantID) {
		return nil, ErrUpgradeInProgress
	}
	defer s.endUpgrade(tenantID)

	b, err := s.billing(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	priceID, err := s.provider.PriceID(plan, interval)
	if err != nil {
		return nil, err
	}

	// Without a provider subscription there is nothing to prorate against,
	// so expired trials and never-checked-out tenants go through checkout
	// exactly like live trial conversions.
	conversion := b.InTrial() || !b.HasProviderSubscription()

	if !conversion && req.TargetTier.Rank() <= b.PlanType.Rank() {
		return nil, fmt.Errorf("%w: %s -> %s", ErrNotAnUpgrade, b.PlanType, req.TargetTier)
	}

	if conversion {
		link, err := s.provider.CreateCheckoutLink(ctx, CheckoutRequest{
			PriceID:    priceID,
			TenantID:   tenantID.String(),
			CustomerID: b.ProviderCustomerID,
			Email:      req.Email,
			SuccessURL: req.SuccessURL,
			CancelURL:  req.CancelURL,
		})
		if err != nil {
			return nil, err
		}

		s.logger.InfoContext(ctx, "created trial conversion checkout",
			slog.String("tenant_id", tenantID.String()),
			slog.String("target_plan", string(req.TargetTier)))

		return &UpgradeResult{
			Type:        UpgradeTrialConversion,
			Tier:        req.TargetTier,
			CheckoutURL: link.URL,
		}, nil
	}

	// Provider first. Only its confirmation justifies touching our record.
	if err := s.provider.ChangePlan(ctx, b.ProviderSubID, priceID); err != nil {
		return nil, fmt.Errorf("provider plan change: %w", err)
	}

	previous := b.PlanType
	b.PlanType = plan.Tier
	b.PlanName = plan.Name
	b.Interval = interval
	b.UpdatedAt = s.now().UTC()

	if err := s.store.Save(ctx, b); err != nil {
		// Provider-side change already landed; the webhook for the
		// subscription update will reconcile the local record.
		s.logger.ErrorContext(ctx, "plan change persisted on provider but not locally",
			slog.String("tenant_id", tenantID.String()),
			slog.Any("error", err))
		return nil, fmt.Errorf("persist plan change: %w", err)
	}

	if err := s.cache.Invalidate(ctx, tenantID); err != nil {
		s.logger.ErrorContext(ctx, "failed to invalidate billing snapshot after upgrade",
			slog.String("tenant_id", tenantID.String()),
			slog.Any("error", err))
	}

	s.logger.InfoContext(ctx, "upgraded plan",
		slog.String("tenant_id", tenantID.String()),
		slog.String("from", string(previous)),
		slog.String("to", string(plan.Tier)))

	s.publish(ctx, EventNamePlanChanged, tenantID, map[string]any{
		"from":     string(previous),
		"to":       string(plan.Tier),
		"interval": string(interval),
	})

	return &UpgradeResult{
		Type: UpgradePlanChange,
		Tier: plan.Tier,
	}, nil
}

// CheckoutLink returns a hosted checkout link for the target plan without
// touching the tenant record. It serves surfaces that hand the payment URL
// out of band, such as the front-desk QR endpoint. Tenants that already pay
// through the provider get ErrCheckoutNotAvailable: they change plans with
// proration via Upgrade, never through a second checkout.
func (s *service) CheckoutLink(ctx context.Context, tenantID uuid.UUID, req UpgradeRequest) (*CheckoutLink, error) {
	plan, ok := s.catalog.ByTier(req.TargetTier)
	if !ok || !plan.Public {
		return nil, ErrPlanNotFound
	}

	interval := req.Interval
	if interval == "" {
		interval = BillingIntervalMonthly
	}
	if _, ok := plan.Price(interval); !ok {
		return nil, ErrIntervalNotAvailable
	}

	b, err := s.billing(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if !b.InTrial() && b.HasProviderSubscription() {
		return nil, ErrCheckoutNotAvailable
	}

	priceID, err := s.provider.PriceID(plan, interval)
	if err != nil {
		return nil, err
	}

	link, err := s.provider.CreateCheckoutLink(ctx, CheckoutRequest{
		PriceID:    priceID,
		TenantID:   tenantID.String(),
		CustomerID: b.ProviderCustomerID,
		Email:      req.Email,
		SuccessURL: req.SuccessURL,
		CancelURL:  req.CancelURL,
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "created checkout link",
		slog.String("tenant_id", tenantID.String()),
		slog.String("target_plan", string(req.TargetTier)))

	return link, nil
}

// beginUpgrade marks a tenant upgrade as in flight. Returns false when one
// is already running.
func (s *service) beginUpgrade(tenantID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, inFlight := s.upgrades[tenantID]; inFlight {
		return false
	}
	s.upgrades[tenantID] = struct{}{}
	return true
}

func (s *service) endUpgrade(tenantID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.upgrades, tenantID)
}
