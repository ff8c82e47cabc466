package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/Ealanisln/vetify-sub011/pkg/subscription"
	"github.com/Ealanisln/vetify-sub011/pkg/tenant"
)

// DefaultBillingURL is where the emails' call-to-action buttons point.
const DefaultBillingURL = "https://app.vetify.pro/dashboard/settings?tab=subscription"

// TrialSweeper periodically scans billing records for trials about to
// end or already ended and mails the clinic owner once per state.
//
// Trials expire passively: no provider webhook fires when a trial runs
// out, the status derivation just starts reporting it. The sweeper is
// what turns that silent transition into an email and a lifecycle
// event. Run one sweeper per deployment; the notification log dedupes
// across restarts but concurrent sweepers can race between Seen and
// Mark.
type TrialSweeper struct {
	store   subscription.Store
	tenants tenant.Provider
	sender  EmailSender
	log     NotificationLog

	logger     *slog.Logger
	events     subscription.EventSink
	interval   time.Duration
	window     time.Duration
	lookback   time.Duration
	billingURL string
	now        func() time.Time
}

// SweeperOption configures a TrialSweeper.
type SweeperOption func(*TrialSweeper)

// WithSweepInterval sets how often the sweeper scans. Default 1h.
func WithSweepInterval(interval time.Duration) SweeperOption {
	return func(s *TrialSweeper) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

// WithEndingWindow sets how far ahead a trial end triggers the reminder.
// Default 3 days, matching the ending_soon status window.
func WithEndingWindow(window time.Duration) SweeperOption {
	return func(s *TrialSweeper) {
		if window > 0 {
			s.window = window
		}
	}
}

// WithExpiredLookback sets how far back the sweeper looks for trials
// that lapsed while it was not running. Default 7 days.
func WithExpiredLookback(lookback time.Duration) SweeperOption {
	return func(s *TrialSweeper) {
		if lookback > 0 {
			s.lookback = lookback
		}
	}
}

// WithBillingURL overrides where email buttons link to.
func WithBillingURL(url string) SweeperOption {
	return func(s *TrialSweeper) {
		if url != "" {
			s.billingURL = url
		}
	}
}

// WithSweeperLogger sets the sweeper logger. Defaults to slog.Default().
func WithSweeperLogger(logger *slog.Logger) SweeperOption {
	return func(s *TrialSweeper) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSweeperEventSink publishes trial_ending / trial_expired lifecycle
// events alongside the emails, so webhooks and metrics observe passive
// trial transitions too.
func WithSweeperEventSink(sink subscription.EventSink) SweeperOption {
	return func(s *TrialSweeper) {
		s.events = sink
	}
}

// WithSweeperClock pins the sweeper's clock, for tests.
func WithSweeperClock(now func() time.Time) SweeperOption {
	return func(s *TrialSweeper) {
		if now != nil {
			s.now = now
		}
	}
}

// NewTrialSweeper creates a sweeper over the given billing store, tenant
// directory, email sender, and notification log.
// Panics on nil collaborators to fail fast during initialization.
func NewTrialSweeper(store subscription.Store, tenants tenant.Provider, sender EmailSender, log NotificationLog, opts ...SweeperOption) *TrialSweeper {
	if store == nil {
		panic("notify: billing store is required")
	}
	if tenants == nil {
		panic("notify: tenant provider is required")
	}
	if sender == nil {
		panic("notify: email sender is required")
	}
	if log == nil {
		panic("notify: notification log is required")
	}

	s := &TrialSweeper{
		store:      store,
		tenants:    tenants,
		sender:     sender,
		log:        log,
		logger:     slog.Default(),
		interval:   time.Hour,
		window:     3 * 24 * time.Hour,
		lookback:   7 * 24 * time.Hour,
		billingURL: DefaultBillingURL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run sweeps immediately, then on every interval tick until ctx is
// canceled. It always returns ctx.Err().
func (s *TrialSweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	if err := s.Sweep(ctx); err != nil {
		s.logger.ErrorContext(ctx, "trial sweep failed", slog.Any("error", err))
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "trial sweeper shutting down")
			return ctx.Err()
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				s.logger.ErrorContext(ctx, "trial sweep failed", slog.Any("error", err))
			}
		}
	}
}

// Sweep runs one scan pass. Per-tenant failures are logged and retried
// on the next pass; only store scan failures are returned.
func (s *TrialSweeper) Sweep(ctx context.Context) error {
	now := s.now().UTC()

	var errs []error

	ending, err := s.store.ListTrialsEndingBetween(ctx, now, now.Add(s.window))
	if err != nil {
		errs = append(errs, fmt.Errorf("scan ending trials: %w", err))
	}
	for _, b := range ending {
		s.notifyEnding(ctx, b, now)
	}

	expired, err := s.store.ListTrialsEndingBetween(ctx, now.Add(-s.lookback), now)
	if err != nil {
		errs = append(errs, fmt.Errorf("scan expired trials: %w", err))
	}
	for _, b := range expired {
		s.notifyExpired(ctx, b)
	}

	return errors.Join(errs...)
}

func (s *TrialSweeper) notifyEnding(ctx context.Context, b *subscription.Billing, now time.Time) {
	t, ok := s.recipient(ctx, b, TagTrialEnding)
	if !ok {
		return
	}

	days := int(math.Ceil(b.TrialEndsAt.Sub(now).Hours() / 24))
	params, err := BuildTrialEnding(t.Name, b.PlanName, *b.TrialEndsAt, days, s.billingURL)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to render trial ending email",
			slog.String("tenant_id", b.TenantID.String()), slog.Any("error", err))
		return
	}
	params.SendTo = t.Email

	s.deliver(ctx, b, params, map[string]any{
		"plan":           string(b.PlanType),
		"trial_ends_at":  b.TrialEndsAt.Format(time.RFC3339),
		"days_remaining": days,
	}, subscription.EventNameTrialEnding)
}

func (s *TrialSweeper) notifyExpired(ctx context.Context, b *subscription.Billing) {
	t, ok := s.recipient(ctx, b, TagTrialExpired)
	if !ok {
		return
	}

	params, err := BuildTrialExpired(t.Name, b.PlanName, s.billingURL)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to render trial expired email",
			slog.String("tenant_id", b.TenantID.String()), slog.Any("error", err))
		return
	}
	params.SendTo = t.Email

	s.deliver(ctx, b, params, map[string]any{
		"plan":          string(b.PlanType),
		"trial_ends_at": b.TrialEndsAt.Format(time.RFC3339),
	}, subscription.EventNameTrialExpired)
}

// recipient resolves the clinic behind a billing record, skipping
// records that were already notified for kind or whose clinic cannot
// receive email.
func (s *TrialSweeper) recipient(ctx context.Context, b *subscription.Billing, kind string) (*tenant.Tenant, bool) {
	seen, err := s.log.Seen(ctx, b.TenantID, kind)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to check notification log",
			slog.String("tenant_id", b.TenantID.String()),
			slog.String("kind", kind),
			slog.Any("error", err))
		return nil, false
	}
	if seen {
		return nil, false
	}

	t, err := s.tenants.Lookup(ctx, b.TenantID.String())
	if err != nil {
		s.logger.WarnContext(ctx, "failed to load clinic for notification",
			slog.String("tenant_id", b.TenantID.String()),
			slog.String("kind", kind),
			slog.Any("error", err))
		return nil, false
	}
	if !t.Active || t.Email == "" {
		s.logger.DebugContext(ctx, "skipping notification for unreachable clinic",
			slog.String("tenant_id", b.TenantID.String()),
			slog.String("kind", kind))
		return nil, false
	}
	return t, true
}

// deliver sends the email, records it, and publishes the lifecycle
// event. A failed send is retried on the next sweep because the log is
// only written after a successful delivery.
func (s *TrialSweeper) deliver(ctx context.Context, b *subscription.Billing, params SendEmailParams, data map[string]any, eventName string) {
	if err := s.sender.SendEmail(ctx, params); err != nil {
		s.logger.ErrorContext(ctx, "failed to send notification email",
			slog.String("tenant_id", b.TenantID.String()),
			slog.String("kind", params.Tag),
			slog.Any("error", err))
		return
	}

	if err := s.log.Mark(ctx, b.TenantID, params.Tag); err != nil {
		// The email went out; the worst case is a duplicate next sweep.
		s.logger.ErrorContext(ctx, "failed to record notification",
			slog.String("tenant_id", b.TenantID.String()),
			slog.String("kind", params.Tag),
			slog.Any("error", err))
	}

	s.logger.InfoContext(ctx, "sent lifecycle email",
		slog.String("tenant_id", b.TenantID.String()),
		slog.String("kind", params.Tag))

	if s.events != nil {
		s.events.Publish(ctx, subscription.Event{
			Name:       eventName,
			TenantID:   b.TenantID,
			OccurredAt: s.now().UTC(),
			Data:       data,
		})
	}
}
