package notify

import (
	"context"
	"log/slog"
	"sync"

	"github.com/Ealanisln/vetify-sub011/pkg/subscription"
	"github.com/Ealanisln/vetify-sub011/pkg/tenant"
)

// EventMailer turns subscription lifecycle events into transactional
// email: failed payments, plan changes, and trial conversions. It
// implements subscription.EventSink; sends run on their own goroutines
// so publishing never blocks the request that triggered the event.
type EventMailer struct {
	tenants tenant.Provider
	sender  EmailSender

	catalog    *subscription.Catalog
	logger     *slog.Logger
	billingURL string

	wg sync.WaitGroup
}

// EventMailerOption configures an EventMailer.
type EventMailerOption func(*EventMailer)

// WithMailerCatalog resolves plan tiers to display names ("Profesional"
// instead of "PROFESIONAL") in email copy.
func WithMailerCatalog(catalog *subscription.Catalog) EventMailerOption {
	return func(m *EventMailer) {
		m.catalog = catalog
	}
}

// WithMailerLogger sets the logger. Defaults to slog.Default().
func WithMailerLogger(logger *slog.Logger) EventMailerOption {
	return func(m *EventMailer) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithMailerBillingURL overrides where email buttons link to.
func WithMailerBillingURL(url string) EventMailerOption {
	return func(m *EventMailer) {
		if url != "" {
			m.billingURL = url
		}
	}
}

// NewEventMailer creates a mailer resolving recipients through tenants
// and delivering through sender.
// Panics on nil collaborators to fail fast during initialization.
func NewEventMailer(tenants tenant.Provider, sender EmailSender, opts ...EventMailerOption) *EventMailer {
	if tenants == nil {
		panic("notify: tenant provider is required")
	}
	if sender == nil {
		panic("notify: email sender is required")
	}

	m := &EventMailer{
		tenants:    tenants,
		sender:     sender,
		logger:     slog.Default(),
		billingURL: DefaultBillingURL,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Publish implements subscription.EventSink. Events without an email
// reaction are ignored.
func (m *EventMailer) Publish(ctx context.Context, event subscription.Event) {
	var build func(clinicName string) (SendEmailParams, error)

	switch event.Name {
	case subscription.EventNamePaymentFailed:
		plan := m.planName(stringField(event.Data, "plan"))
		build = func(clinicName string) (SendEmailParams, error) {
			return BuildPaymentFailed(clinicName, plan, m.billingURL)
		}
	case subscription.EventNamePlanChanged:
		from := m.planName(stringField(event.Data, "from"))
		to := m.planName(stringField(event.Data, "to"))
		build = func(clinicName string) (SendEmailParams, error) {
			return BuildPlanChanged(clinicName, from, to, m.billingURL)
		}
	case subscription.EventNameTrialConverted:
		plan := m.planName(stringField(event.Data, "plan"))
		build = func(clinicName string) (SendEmailParams, error) {
			return BuildTrialConverted(clinicName, plan, m.billingURL)
		}
	default:
		return
	}

	// The email must survive the originating request's cancellation.
	ctx = context.WithoutCancel(ctx)
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.send(ctx, event, build)
	}()
}

func (m *EventMailer) send(ctx context.Context, event subscription.Event, build func(string) (SendEmailParams, error)) {
	t, err := m.tenants.Lookup(ctx, event.TenantID.String())
	if err != nil {
		m.logger.WarnContext(ctx, "failed to load clinic for event email",
			slog.String("tenant_id", event.TenantID.String()),
			slog.String("event", event.Name),
			slog.Any("error", err))
		return
	}
	if !t.Active || t.Email == "" {
		return
	}

	params, err := build(t.Name)
	if err != nil {
		m.logger.ErrorContext(ctx, "failed to render event email",
			slog.String("tenant_id", event.TenantID.String()),
			slog.String("event", event.Name),
			slog.Any("error", err))
		return
	}
	params.SendTo = t.Email

	if err := m.sender.SendEmail(ctx, params); err != nil {
		m.logger.ErrorContext(ctx, "failed to send event email",
			slog.String("tenant_id", event.TenantID.String()),
			slog.String("event", event.Name),
			slog.Any("error", err))
		return
	}

	m.logger.InfoContext(ctx, "sent event email",
		slog.String("tenant_id", event.TenantID.String()),
		slog.String("event", event.Name),
		slog.String("kind", params.Tag))
}

// Close waits for in-flight sends to finish or ctx to expire.
func (m *EventMailer) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// planName resolves a raw tier value to its catalog display name,
// falling back to the raw value for unknown tiers.
func (m *EventMailer) planName(raw string) string {
	if m.catalog == nil || raw == "" {
		return raw
	}
	plan, ok := m.catalog.ByTier(subscription.PlanTier(raw))
	if !ok {
		return raw
	}
	return plan.Name
}

func stringField(data map[string]any, key string) string {
	if data == nil {
		return ""
	}
	s, _ := data[key].(string)
	return s
}
