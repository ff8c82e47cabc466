package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Service is the authoritative server-side surface of the subscription
// engine. Everything a request handler or gate needs goes through here;
// client-side caches (pkg/gate) are convenience layers on top and are never
// the authorization boundary.
type Service interface {
	// Status and entitlements
	Status(ctx context.Context, tenantID uuid.UUID) (Status, error)
	CheckFeature(ctx context.Context, tenantID uuid.UUID, feature Feature) bool
	CanCreate(ctx context.Context, tenantID uuid.UUID, res Resource) error
	Usage(ctx context.Context, tenantID uuid.UUID, res Resource) (used, limit int64, err error)
	Plans() []Plan

	// Billing flows
	Upgrade(ctx context.Context, tenantID uuid.UUID, req UpgradeRequest) (*UpgradeResult, error)
	CheckoutLink(ctx context.Context, tenantID uuid.UUID, req UpgradeRequest) (*CheckoutLink, error)
	PortalLink(ctx context.Context, tenantID uuid.UUID) (*PortalLink, error)

	// Provider webhooks and cache control
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
	Invalidate(ctx context.Context, tenantID uuid.UUID) error
}

// ResourceCounterFunc returns the current usage for a tenant resource.
// Must be fast and ideally cached as it's called on every resource creation
// attempt. Consider implementing counters with database aggregates or cached
// values.
type ResourceCounterFunc func(ctx context.Context, tenantID uuid.UUID) (int64, error)

type service struct {
	catalog  *Catalog
	store    Store
	provider BillingProvider
	cache    SnapshotCache
	calc     *Calculator
	counters map[Resource]ResourceCounterFunc
	sinks    []EventSink
	logger   *slog.Logger
	now      func() time.Time

	mu       sync.Mutex
	upgrades map[uuid.UUID]struct{}
}

// NewService creates a Service with the given dependencies.
// Panics if required parameters (src, provider, store) are nil to fail fast
// during initialization. Use ServiceOption functions for optional settings
// like the snapshot cache, usage counters, and event sinks.
func NewService(ctx context.Context, src Source, provider BillingProvider, store Store, opts ...ServiceOption) (Service, error) {
	if src == nil {
		panic("subscription: plan Source is required")
	}
	if provider == nil {
		panic("subscription: BillingProvider is required")
	}
	if store == nil {
		panic("subscription: Store is required")
	}

	plans, err := src.Load(ctx)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}

	catalog, err := NewCatalog(plans)
	if err != nil {
		return nil, err
	}

	s := &service{
		catalog:  catalog,
		store:    store,
		provider: provider,
		cache:    NopSnapshotCache{},
		calc:     NewCalculator(),
		counters: make(map[Resource]ResourceCounterFunc),
		logger:   slog.Default(),
		now:      time.Now,
		upgrades: make(map[uuid.UUID]struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// billing loads a tenant's record through the snapshot cache.
func (s *service) billing(ctx context.Context, tenantID uuid.UUID) (*Billing, error) {
	if b, ok := s.cache.Get(ctx, tenantID); ok {
		return b, nil
	}

	b, err := s.store.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	s.cache.Set(ctx, b)
	return b, nil
}

// Status derives the current subscription status for a tenant. A missing
// record is not an error: it derives the fail-closed inactive default, which
// is exactly what gates should see for half-provisioned tenants. Real
// failures return the inactive default alongside the error so callers can
// still render something safe.
func (s *service) Status(ctx context.Context, tenantID uuid.UUID) (Status, error) {
	b, err := s.billing(ctx, tenantID)
	if err != nil {
		if errors.Is(err, ErrBillingNotFound) {
			return s.calc.Compute(nil), nil
		}
		return s.calc.Compute(nil), fmt.Errorf("load billing for status: %w", err)
	}
	return s.calc.Compute(b), nil
}

// CheckFeature reports whether a tenant's plan includes a feature AND the
// subscription is currently active. Returns false on any error to fail
// closed: this is the check gates round-trip to.
func (s *service) CheckFeature(ctx context.Context, tenantID uuid.UUID, feature Feature) bool {
	status, err := s.Status(ctx, tenantID)
	if err != nil {
		return false
	}
	return status.IsActive && HasFeature(status.PlanType, feature)
}

// CanCreate checks if a tenant can create a new resource instance under its
// plan limits.
func (s *service) CanCreate(ctx context.Context, tenantID uuid.UUID, res Resource) error {
	used, limit, err := s.Usage(ctx, tenantID, res)
	if err != nil {
		return err
	}

	if limit == Unlimited {
		return nil
	}
	if used >= limit {
		return ErrLimitExceeded
	}
	return nil
}

// Usage returns the current usage and plan limit for a resource.
func (s *service) Usage(ctx context.Context, tenantID uuid.UUID, res Resource) (used, limit int64, err error) {
	b, err := s.billing(ctx, tenantID)
	if err != nil {
		return 0, 0, err
	}

	plan, ok := s.catalog.ByTier(b.PlanType)
	if !ok {
		return 0, 0, ErrPlanNotFound
	}

	resourceLimit, ok := plan.Limits[res]
	if !ok {
		return 0, 0, ErrInvalidResource
	}

	counter, ok := s.counters[res]
	if !ok {
		return 0, 0, ErrNoCounterRegistered
	}

	current, err := counter(ctx, tenantID)
	if err != nil {
		return 0, 0, errors.Join(ErrFailedToCountResourceUsage, err)
	}

	return current, resourceLimit, nil
}

// Plans returns the public catalog ordered from cheapest tier up.
func (s *service) Plans() []Plan {
	return s.catalog.Public()
}

// PortalLink returns a customer portal link for the tenant.
func (s *service) PortalLink(ctx context.Context, tenantID uuid.UUID) (*PortalLink, error) {
	b, err := s.billing(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if !b.HasProviderSubscription() {
		return nil, ErrNoProviderSub
	}
	return s.provider.GetCustomerPortalLink(ctx, b)
}

// Invalidate drops the tenant's cached billing snapshot.
func (s *service) Invalidate(ctx context.Context, tenantID uuid.UUID) error {
	return s.cache.Invalidate(ctx, tenantID)
}

// HandleWebhook processes an incoming billing provider event. The provider
// is the system of record: verified events always win, subject only to the
// lifecycle transition guard that keeps out-of-order deliveries from
// resurrecting terminal states. Events that fail the guard return
// ErrInvalidTransition; callers should log and acknowledge them so the
// provider does not retry forever.
func (s *service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.provider.ParseWebhook(ctx, payload, signature)
	if err != nil {
		return err
	}

	log := s.logger.With(
		slog.String("provider", s.provider.Name()),
		slog.String("provider_event", event.ProviderEvent),
		slog.String("event_type", string(event.Type)),
	)

	b, err := s.resolveWebhookTenant(ctx, event)
	if err != nil {
		return err
	}
	tenantID := b.TenantID
	log = log.With(slog.String("tenant_id", tenantID.String()))

	var target SubscriptionStatus
	var eventName string

	switch event.Type {
	case EventSubscriptionCreated, EventSubscriptionUpdated:
		target, _ = Canonical(event.Status)
		if target == "" {
			// Payload carried no status: keep the current one, the event
			// may still update plan or period details.
			target = b.Status
		}
		eventName = EventNameSubscriptionUpdated
		if event.Type == EventSubscriptionCreated {
			eventName = EventNameSubscriptionCreated
		}
	case EventSubscriptionCancelled:
		target = StatusCanceled
		eventName = EventNameSubscriptionCanceled
	case EventSubscriptionResumed:
		target = StatusActive
		eventName = EventNameSubscriptionUpdated
	case EventPaymentSucceeded:
		target = StatusActive
		eventName = EventNamePaymentSucceeded
	case EventPaymentFailed:
		target = StatusPastDue
		eventName = EventNamePaymentFailed
	default:
		log.InfoContext(ctx, "ignoring unhandled webhook event")
		return nil
	}

	wasTrial := b.InTrial()

	if !ApplyTransition(b, target, s.now().UTC()) {
		log.WarnContext(ctx, "rejected webhook status transition",
			slog.String("from", string(b.Status)),
			slog.String("to", string(target)))
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, b.Status, target)
	}

	s.applyEventDetails(b, event)

	if err := s.store.Save(ctx, b); err != nil {
		return fmt.Errorf("persist webhook update: %w", err)
	}

	if err := s.cache.Invalidate(ctx, tenantID); err != nil {
		log.ErrorContext(ctx, "failed to invalidate billing snapshot", slog.Any("error", err))
	}

	log.InfoContext(ctx, "processed billing webhook",
		slog.String("status", string(b.Status)),
		slog.String("plan", string(b.PlanType)))

	data := map[string]any{
		"status": string(b.Status),
		"plan":   string(b.PlanType),
	}
	s.publish(ctx, eventName, tenantID, data)

	// A trial that just reached ACTIVE is a conversion worth announcing
	// separately; downstream automations key on it.
	if wasTrial && !b.IsTrialPeriod {
		canonical, _ := Canonical(string(b.Status))
		if canonical == StatusActive {
			s.publish(ctx, EventNameTrialConverted, tenantID, data)
		}
	}

	return nil
}

// resolveWebhookTenant locates the billing record a webhook refers to.
// Checkout metadata carrying our tenant ID is the primary path; events that
// lack it (Stripe invoice events) fall back to the provider customer ID.
func (s *service) resolveWebhookTenant(ctx context.Context, event *WebhookEvent) (*Billing, error) {
	if event.TenantID != "" {
		tenantID, err := uuid.Parse(event.TenantID)
		if err != nil {
			return nil, fmt.Errorf("invalid tenant ID in webhook metadata: %w", err)
		}
		b, err := s.store.Get(ctx, tenantID)
		if err != nil {
			return nil, fmt.Errorf("webhook for unknown tenant %s: %w", tenantID, err)
		}
		return b, nil
	}

	if event.CustomerID != "" {
		b, err := s.store.GetByProviderCustomerID(ctx, event.CustomerID)
		if err != nil {
			return nil, fmt.Errorf("webhook for unknown provider customer %s: %w", event.CustomerID, err)
		}
		return b, nil
	}

	return nil, fmt.Errorf("webhook event %s carries no tenant or customer reference", event.ProviderEvent)
}

// applyEventDetails copies subscription identifiers, plan, and period dates
// from a verified webhook payload onto the billing record.
func (s *service) applyEventDetails(b *Billing, event *WebhookEvent) {
	if event.SubscriptionID != "" {
		b.ProviderSubID = event.SubscriptionID
	}
	if event.CustomerID != "" {
		b.ProviderCustomerID = event.CustomerID
	}
	if event.PeriodEnd != nil {
		b.SubscriptionEndsAt = event.PeriodEnd
	}
	if event.TrialEnd != nil {
		b.TrialEndsAt = event.TrialEnd
	}

	if event.PriceID != "" {
		if plan, interval, ok := s.catalog.ByProviderPriceID(event.PriceID); ok {
			b.PlanType = plan.Tier
			b.PlanName = plan.Name
			b.Interval = interval
		} else {
			s.logger.Warn("webhook price ID not in catalog",
				slog.String("price_id", event.PriceID))
		}
	}

	// The provider reporting a live trial is authoritative in the other
	// direction too: TRIALING (re)arms the flag.
	if canonical, _ := Canonical(event.Status); canonical == StatusTrialing {
		b.IsTrialPeriod = true
	}
}

// publish fans an event out to every registered sink.
func (s *service) publish(ctx context.Context, name string, tenantID uuid.UUID, data map[string]any) {
	if len(s.sinks) == 0 {
		return
	}
	event := Event{
		Name:       name,
		TenantID:   tenantID,
		OccurredAt: s.now().UTC(),
		Data:       data,
	}
	for _, sink := range s.sinks {
		sink.Publish(ctx, event)
	}
}
