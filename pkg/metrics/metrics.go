package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns the engine's domain collectors. All methods are safe
// for concurrent use.
type Metrics struct {
	registry *prometheus.Registry

	statusFetches *prometheus.CounterVec
	cacheLookups  *prometheus.CounterVec
	gateDenials   *prometheus.CounterVec
	upgrades      *prometheus.CounterVec
	webhooks      *prometheus.CounterVec
	events        *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
}

// New registers the engine's collectors on the given registry and
// returns the Metrics facade. Panics if registry is nil.
func New(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		panic("metrics: registry is required")
	}

	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		statusFetches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vetify_status_fetches_total",
			Help: "Total number of subscription status fetches, by outcome.",
		}, []string{"outcome"}),
		cacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vetify_status_cache_lookups_total",
			Help: "Total number of status snapshot cache lookups, by result.",
		}, []string{"result"}),
		gateDenials: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vetify_gate_denials_total",
			Help: "Total number of requests rejected by an access gate.",
		}, []string{"gate"}),
		upgrades: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vetify_upgrades_total",
			Help: "Total number of processed upgrade requests, by type and outcome.",
		}, []string{"type", "outcome"}),
		webhooks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vetify_provider_webhooks_total",
			Help: "Total number of received billing provider webhooks, by provider and outcome.",
		}, []string{"provider", "outcome"}),
		events: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vetify_subscription_events_total",
			Help: "Total number of published subscription lifecycle events, by event name.",
		}, []string{"event"}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vetify_http_requests_total",
			Help: "Total number of HTTP requests handled, by method, route and status code.",
		}, []string{"method", "path", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vetify_http_request_duration_seconds",
			Help:    "Duration of handled HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
}

// Registry returns the underlying registry so callers can register
// additional collectors on it.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// CacheLookup records a status snapshot cache hit or miss.
func (m *Metrics) CacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// StatusFetched records an upstream status fetch outcome.
func (m *Metrics) StatusFetched(ok bool) {
	m.statusFetches.WithLabelValues(outcome(ok)).Inc()
}

// GateDenied records a guard rejecting a request.
func (m *Metrics) GateDenied(gate string) {
	m.gateDenials.WithLabelValues(gate).Inc()
}

// UpgradeProcessed records an upgrade request by type
// ("trial_conversion" or "plan_change") and outcome.
func (m *Metrics) UpgradeProcessed(kind string, ok bool) {
	m.upgrades.WithLabelValues(kind, outcome(ok)).Inc()
}

// WebhookReceived records a billing provider webhook by provider
// ("paddle" or "stripe") and processing outcome.
func (m *Metrics) WebhookReceived(provider string, ok bool) {
	m.webhooks.WithLabelValues(provider, outcome(ok)).Inc()
}

// SubscriptionEvent records a published lifecycle event by name.
func (m *Metrics) SubscriptionEvent(name string) {
	m.events.WithLabelValues(name).Inc()
}

// Middleware instruments handled requests with request counts and
// duration histograms. The path label uses the chi route pattern when
// one is available, keeping label cardinality bounded.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.httpRequests.WithLabelValues(r.Method, path, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func outcome(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}
