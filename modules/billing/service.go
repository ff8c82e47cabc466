package billing

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Ealanisln/vetify-sub011/handler"
	"github.com/Ealanisln/vetify-sub011/pkg/audit"
	"github.com/Ealanisln/vetify-sub011/pkg/binder"
	"github.com/Ealanisln/vetify-sub011/pkg/subscription"
	"github.com/Ealanisln/vetify-sub011/pkg/tenant"
)

// Instrumentation receives countable API outcomes. *metrics.Metrics
// satisfies it; the default is a no-op.
type Instrumentation interface {
	UpgradeProcessed(kind string, ok bool)
	WebhookReceived(provider string, ok bool)
}

// EventTrail reads a clinic's recorded lifecycle events. *audit.PGEventStore
// satisfies it.
type EventTrail interface {
	List(ctx context.Context, tenantID uuid.UUID, limit int) ([]audit.Entry, error)
}

type nopInstrumentation struct{}

func (nopInstrumentation) UpgradeProcessed(string, bool) {}
func (nopInstrumentation) WebhookReceived(string, bool)  {}

// Service serves the billing HTTP API on top of the subscription engine.
type Service struct {
	subs         subscription.Service
	log          *slog.Logger
	errorHandler handler.ErrorHandler[handler.Context]
	instr        Instrumentation
	trail        EventTrail

	tenantMW []func(http.Handler) http.Handler
	publicMW []func(http.Handler) http.Handler

	webhookProvider string
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) ServiceOption {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithErrorHandler sets the error handler used by every wrapped route.
func WithErrorHandler(h handler.ErrorHandler[handler.Context]) ServiceOption {
	return func(s *Service) {
		if h != nil {
			s.errorHandler = h
		}
	}
}

// WithInstrumentation sets the metrics sink for upgrades and webhooks.
func WithInstrumentation(instr Instrumentation) ServiceOption {
	return func(s *Service) {
		if instr != nil {
			s.instr = instr
		}
	}
}

// WithEventTrail enables GET /events, the clinic's subscription history.
// Without it the route is not registered.
func WithEventTrail(trail EventTrail) ServiceOption {
	return func(s *Service) {
		s.trail = trail
	}
}

// WithTenantMiddleware sets the middleware chain for the tenant-scoped
// routes, usually tenant resolution plus a per-tenant rate limiter.
func WithTenantMiddleware(mw ...func(http.Handler) http.Handler) ServiceOption {
	return func(s *Service) {
		s.tenantMW = append(s.tenantMW, mw...)
	}
}

// WithPublicMiddleware sets the middleware chain for the public catalog
// routes.
func WithPublicMiddleware(mw ...func(http.Handler) http.Handler) ServiceOption {
	return func(s *Service) {
		s.publicMW = append(s.publicMW, mw...)
	}
}

// WithWebhookProvider names the billing provider whose webhooks this
// deployment accepts; the other provider's webhook path answers 404.
// Defaults to "paddle", the production provider.
func WithWebhookProvider(name string) ServiceOption {
	return func(s *Service) {
		if name != "" {
			s.webhookProvider = name
		}
	}
}

// NewService creates the billing API service. The subscription engine is
// the only required dependency.
func NewService(subs subscription.Service, opts ...ServiceOption) *Service {
	if subs == nil {
		panic("billing: subscription service is required")
	}

	s := &Service{
		subs:            subs,
		log:             slog.Default(),
		instr:           nopInstrumentation{},
		webhookProvider: "paddle",
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.errorHandler == nil {
		s.errorHandler = handler.NewErrorHandler(s.log)
	}
	return s
}

// Handle builds the module router.
func (s *Service) Handle() http.Handler {
	r := chi.NewRouter()

	// Public catalog.
	r.Group(func(pub chi.Router) {
		pub.Use(s.publicMW...)
		pub.Get("/plans", handler.Wrap(s.plans,
			handler.WithErrorHandler[handler.Context, struct{}](s.errorHandler),
		))
	})

	// Tenant-scoped API.
	r.Group(func(api chi.Router) {
		api.Use(s.tenantMW...)

		api.Get("/status", handler.Wrap(s.status,
			handler.WithErrorHandler[handler.Context, struct{}](s.errorHandler),
		))
		api.Get("/features/{feature}", handler.Wrap(s.feature,
			handler.WithBinders[handler.Context, featureRequest](binder.Path()),
			handler.WithErrorHandler[handler.Context, featureRequest](s.errorHandler),
		))
		api.Post("/upgrade", handler.Wrap(s.upgrade,
			handler.WithBinders[handler.Context, subscription.UpgradeRequest](binder.JSON()),
			handler.WithErrorHandler[handler.Context, subscription.UpgradeRequest](s.errorHandler),
		))
		api.Get("/upgrade/qr", handler.Wrap(s.upgradeQR,
			handler.WithBinders[handler.Context, qrRequest](binder.Query()),
			handler.WithErrorHandler[handler.Context, qrRequest](s.errorHandler),
		))
		api.Get("/portal", handler.Wrap(s.portal,
			handler.WithErrorHandler[handler.Context, struct{}](s.errorHandler),
		))

		if s.trail != nil {
			api.Get("/events", handler.Wrap(s.events,
				handler.WithBinders[handler.Context, eventsRequest](binder.Query()),
				handler.WithErrorHandler[handler.Context, eventsRequest](s.errorHandler),
			))
		}
	})

	// Provider webhooks authenticate by signature, not by tenant.
	r.Post("/webhooks/{provider}", s.handleWebhook)

	return r
}

// tenantID pulls the resolved tenant out of the request context. The
// tenant middleware guards these routes already; this is the fail-closed
// backstop for misconfigured deployments.
func tenantID(ctx handler.Context) (uuid.UUID, error) {
	id, ok := tenant.IDFromContext(ctx)
	if !ok {
		return uuid.Nil, handler.NewHTTPError(http.StatusBadRequest, "tenant_not_resolved")
	}
	return id, nil
}

// domainError maps subscription engine sentinels onto API error codes.
// Anything unmapped stays a 500.
func domainError(err error) error {
	switch {
	case errors.Is(err, subscription.ErrPlanNotFound):
		return handler.NewHTTPError(http.StatusUnprocessableEntity, "plan_not_found")
	case errors.Is(err, subscription.ErrNotAnUpgrade):
		return handler.NewHTTPError(http.StatusUnprocessableEntity, "not_an_upgrade")
	case errors.Is(err, subscription.ErrIntervalNotAvailable):
		return handler.NewHTTPError(http.StatusUnprocessableEntity, "interval_not_available")
	case errors.Is(err, subscription.ErrPriceNotConfigured):
		return handler.NewHTTPError(http.StatusUnprocessableEntity, "price_not_configured")
	case errors.Is(err, subscription.ErrUpgradeInProgress):
		return handler.NewHTTPError(http.StatusConflict, "upgrade_in_progress")
	case errors.Is(err, subscription.ErrNoProviderSub):
		return handler.NewHTTPError(http.StatusConflict, "no_provider_subscription")
	case errors.Is(err, subscription.ErrCheckoutNotAvailable):
		return handler.NewHTTPError(http.StatusConflict, "checkout_not_available")
	case errors.Is(err, subscription.ErrLimitExceeded):
		return handler.NewHTTPError(http.StatusPaymentRequired, "limit_exceeded")
	case errors.Is(err, subscription.ErrBillingNotFound):
		return handler.ErrNotFound
	default:
		return err
	}
}
