package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Ealanisln/vetify-sub011/modules/billing"
	"github.com/Ealanisln/vetify-sub011/pkg/audit"
	"github.com/Ealanisln/vetify-sub011/pkg/clientip"
	"github.com/Ealanisln/vetify-sub011/pkg/config"
	"github.com/Ealanisln/vetify-sub011/pkg/httpserver"
	"github.com/Ealanisln/vetify-sub011/pkg/logger"
	"github.com/Ealanisln/vetify-sub011/pkg/metrics"
	"github.com/Ealanisln/vetify-sub011/pkg/notify"
	"github.com/Ealanisln/vetify-sub011/pkg/pg"
	"github.com/Ealanisln/vetify-sub011/pkg/ratelimit"
	"github.com/Ealanisln/vetify-sub011/pkg/redis"
	"github.com/Ealanisln/vetify-sub011/pkg/requestid"
	"github.com/Ealanisln/vetify-sub011/pkg/subscription"
	"github.com/Ealanisln/vetify-sub011/pkg/tenant"
	"github.com/Ealanisln/vetify-sub011/pkg/webhook"
)

// appConfig holds wiring-level settings that belong to no single package.
type appConfig struct {
	Env         string `env:"VETIFY_ENV" envDefault:"development"`
	ServiceName string `env:"VETIFY_SERVICE" envDefault:"vetify-billing"`

	// Clinic tenancy: subdomains under the apex, header override for
	// internal service calls.
	ApexDomain   string `env:"VETIFY_APEX_DOMAIN" envDefault:"vetify.pro"`
	TenantHeader string `env:"VETIFY_TENANT_HEADER" envDefault:"X-Vetify-Tenant"`

	// PlansFile points at a YAML catalog; empty uses the built-in plans.
	PlansFile string `env:"VETIFY_PLANS_FILE"`

	BillingProvider string `env:"BILLING_PROVIDER" envDefault:"paddle"`

	// BillingURL is where notification emails send clinic owners.
	BillingURL string `env:"VETIFY_BILLING_URL" envDefault:"https://app.vetify.pro/dashboard/settings?tab=subscription"`

	RateLimit    int           `env:"BILLING_RATE_LIMIT" envDefault:"120"`
	RateInterval time.Duration `env:"BILLING_RATE_INTERVAL" envDefault:"1m"`

	TrialSweepEnabled bool `env:"TRIAL_SWEEP_ENABLED" envDefault:"true"`
}

func main() {
	_ = godotenv.Load()

	var app appConfig
	config.MustLoad(&app)

	log := logger.New(
		logger.WithEnvironment(app.Env, app.ServiceName),
		logger.WithContextExtractors(
			requestid.LoggerExtractor(),
			tenant.LoggerExtractor(),
		),
	)
	logger.SetAsDefault(log)

	if err := run(context.Background(), app, log); err != nil {
		log.Error("service stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, app appConfig, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Postgres, with migrations applied before anything reads.
	var pgCfg pg.Config
	if err := config.Load(&pgCfg); err != nil {
		return fmt.Errorf("postgres config: %w", err)
	}
	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, pgCfg, log); err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}

	// Redis backs the billing snapshot cache.
	var redisCfg redis.Config
	if err := config.Load(&redisCfg); err != nil {
		return fmt.Errorf("redis config: %w", err)
	}
	redisClient, err := redis.Connect(ctx, redisCfg)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer func() { _ = redisClient.Close() }()

	m := metrics.New(prometheus.NewRegistry())

	// Plan catalog. The engine loads from the source itself; the catalog
	// value here feeds email templates with display names.
	var src subscription.Source = subscription.StaticSource(subscription.DefaultPlans())
	if app.PlansFile != "" {
		src = subscription.YAMLSource{Path: app.PlansFile}
	}
	plans, err := src.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading plan catalog: %w", err)
	}
	catalog, err := subscription.NewCatalog(plans)
	if err != nil {
		return fmt.Errorf("building plan catalog: %w", err)
	}

	provider, err := buildProvider(app.BillingProvider)
	if err != nil {
		return fmt.Errorf("building billing provider: %w", err)
	}

	store := subscription.NewPGStore(pool)
	tenants := tenant.NewPGProvider(pool)

	// Email: Postmark in production, file sink in development.
	var notifyCfg notify.Config
	if err := config.Load(&notifyCfg); err != nil {
		return fmt.Errorf("notify config: %w", err)
	}
	sender, err := buildSender(notifyCfg)
	if err != nil {
		return fmt.Errorf("building email sender: %w", err)
	}

	mailer := notify.NewEventMailer(tenants, sender,
		notify.WithMailerCatalog(catalog),
		notify.WithMailerLogger(log),
		notify.WithMailerBillingURL(app.BillingURL),
	)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = mailer.Close(closeCtx)
	}()

	// Outbound webhooks to clinic integrations.
	dispatcher := webhook.NewDispatcher(webhook.NewSender(), webhook.NewPGEndpointStore(pool),
		webhook.WithDispatcherLogger(log),
	)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = dispatcher.Close(closeCtx)
	}()

	// Durable event history for dashboards and support.
	eventStore := audit.NewPGEventStore(pool)
	trail := audit.NewTrail(eventStore, audit.WithTrailLogger(log))
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = trail.Close(closeCtx)
	}()

	metricsSink := subscription.EventSinkFunc(func(_ context.Context, ev subscription.Event) {
		m.SubscriptionEvent(ev.Name)
	})
	dispatchSink := subscription.EventSinkFunc(func(ctx context.Context, ev subscription.Event) {
		dispatcher.Dispatch(ctx, ev.TenantID, ev.Name, ev.Data)
	})

	engine, err := subscription.NewService(ctx, subscription.StaticSource(plans), provider, store,
		subscription.WithLogger(log),
		subscription.WithSnapshotCache(subscription.NewRedisSnapshotCache(redisClient)),
		subscription.WithEventSink(metricsSink),
		subscription.WithEventSink(mailer),
		subscription.WithEventSink(dispatchSink),
		subscription.WithEventSink(trail),
	)
	if err != nil {
		return fmt.Errorf("building subscription engine: %w", err)
	}

	// Passive trial expiry: emails plus the same event fan-out the
	// webhook-driven transitions get.
	if app.TrialSweepEnabled {
		sweeper := notify.NewTrialSweeper(store, tenants, sender, notify.NewPGNotificationLog(pool),
			notify.WithSweeperLogger(log),
			notify.WithBillingURL(app.BillingURL),
			notify.WithSweeperEventSink(subscription.EventSinkFunc(func(ctx context.Context, ev subscription.Event) {
				metricsSink.Publish(ctx, ev)
				dispatchSink.Publish(ctx, ev)
				trail.Publish(ctx, ev)
			})),
		)
		go func() {
			if err := sweeper.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.ErrorContext(ctx, "trial sweeper stopped", logger.Error(err))
			}
		}()
	}

	// Tenant resolution: subdomain for browser traffic, header for
	// service-to-service calls.
	resolver := tenant.NewCompositeResolver(
		tenant.NewHeaderResolver(app.TenantHeader),
		tenant.NewSubdomainResolver(app.ApexDomain),
	)
	tenantMW := tenant.Middleware(resolver, tenants,
		tenant.WithCache(tenant.NewLRUCache(512, time.Minute)),
		tenant.WithLogger(log),
	)

	rlStore := ratelimit.NewMemoryStore()
	defer func() { _ = rlStore.Close() }()
	limiter, err := ratelimit.NewTokenBucket(rlStore, app.RateLimit, app.RateInterval)
	if err != nil {
		return fmt.Errorf("building rate limiter: %w", err)
	}

	byIP := func(r *http.Request) string {
		return clientip.FromContext(r.Context())
	}
	byClinic := func(r *http.Request) string {
		if id, ok := tenant.IDFromContext(r.Context()); ok {
			return "clinic:" + id.String()
		}
		return ""
	}

	svc := billing.NewService(engine,
		billing.WithLogger(log),
		billing.WithInstrumentation(m),
		billing.WithEventTrail(eventStore),
		billing.WithWebhookProvider(provider.Name()),
		billing.WithTenantMiddleware(
			tenantMW,
			ratelimit.Middleware(limiter, ratelimit.Composite(byClinic, byIP), ratelimit.WithLogger(log)),
		),
		billing.WithPublicMiddleware(
			ratelimit.Middleware(limiter, byIP, ratelimit.WithLogger(log)),
		),
	)

	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(clientip.Middleware)
	r.Use(m.Middleware)

	r.Get("/healthz", httpserver.HealthCheckHandler(ctx, log))
	r.Get("/readyz", httpserver.HealthCheckHandler(ctx, log,
		pg.Healthcheck(pool),
		redis.Healthcheck(redisClient),
	))
	r.Method(http.MethodGet, "/metrics", m.Handler())

	r.Mount("/billing", billing.Router(billing.RouterOptions{Billing: svc}))

	var httpCfg httpserver.Config
	if err := config.Load(&httpCfg); err != nil {
		return fmt.Errorf("http server config: %w", err)
	}
	srv := httpserver.NewFromConfig(httpCfg, httpserver.WithLogger(log))

	log.InfoContext(ctx, "vetify billing service starting",
		slog.String("env", app.Env),
		logger.Provider(provider.Name()),
		slog.Int("plans", len(plans)),
	)
	return srv.Run(ctx, r)
}

func buildProvider(name string) (subscription.BillingProvider, error) {
	switch name {
	case "paddle":
		var cfg subscription.PaddleConfig
		if err := config.Load(&cfg); err != nil {
			return nil, err
		}
		return subscription.NewPaddleProvider(cfg)
	case "stripe":
		var cfg subscription.StripeConfig
		if err := config.Load(&cfg); err != nil {
			return nil, err
		}
		return subscription.NewStripeProvider(cfg)
	default:
		return nil, fmt.Errorf("unknown billing provider %q", name)
	}
}

func buildSender(cfg notify.Config) (notify.EmailSender, error) {
	if cfg.DevEmailDir != "" {
		return notify.NewDevSender(cfg.DevEmailDir), nil
	}
	return notify.NewPostmarkClient(cfg)
}
