package tenant

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

// ErrorHandler renders tenant resolution failures.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

type config struct {
	cache         Cache
	errorHandler  ErrorHandler
	skipPaths     []string
	requireActive bool
	log           *slog.Logger
}

// Option configures Middleware.
type Option func(*config)

// WithCache replaces the default LRU cache.
func WithCache(cache Cache) Option {
	return func(c *config) {
		if cache != nil {
			c.cache = cache
		}
	}
}

// WithErrorHandler replaces the default error responses.
func WithErrorHandler(handler ErrorHandler) Option {
	return func(c *config) {
		if handler != nil {
			c.errorHandler = handler
		}
	}
}

// WithSkipPaths exempts path prefixes from tenant resolution.
func WithSkipPaths(paths ...string) Option {
	return func(c *config) {
		c.skipPaths = append(c.skipPaths, paths...)
	}
}

// WithRequireActive controls whether deactivated clinics are rejected.
// Enabled by default.
func WithRequireActive(require bool) Option {
	return func(c *config) {
		c.requireActive = require
	}
}

// WithLogger logs provider failures. Without it they are silent.
func WithLogger(log *slog.Logger) Option {
	return func(c *config) {
		c.log = log
	}
}

func defaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrTenantNotFound):
		http.Error(w, "Tenant not found", http.StatusNotFound)
	case errors.Is(err, ErrInactiveTenant):
		http.Error(w, "Tenant is inactive", http.StatusForbidden)
	case errors.Is(err, ErrInvalidIdentifier):
		http.Error(w, "Invalid tenant identifier", http.StatusBadRequest)
	case errors.Is(err, ErrNoTenantInContext):
		http.Error(w, "Tenant required", http.StatusBadRequest)
	default:
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// Middleware resolves the clinic behind each request and stores it in
// the request context. Requests that carry no tenant identifier pass
// through untouched; use RequireTenant on routes that need one.
func Middleware(resolver Resolver, provider Provider, opts ...Option) func(http.Handler) http.Handler {
	if resolver == nil {
		panic("tenant: resolver is required")
	}
	if provider == nil {
		panic("tenant: provider is required")
	}

	cfg := &config{
		cache:         NewLRUCache(DefaultCacheSize, DefaultCacheTTL),
		errorHandler:  defaultErrorHandler,
		requireActive: true,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, skip := range cfg.skipPaths {
				if strings.HasPrefix(r.URL.Path, skip) {
					next.ServeHTTP(w, r)
					return
				}
			}

			identifier, err := resolver.Resolve(r)
			if err != nil {
				cfg.errorHandler(w, r, err)
				return
			}
			if identifier == "" {
				next.ServeHTTP(w, r)
				return
			}

			t, ok := cfg.cache.Get(identifier)
			if !ok {
				t, err = provider.Lookup(r.Context(), identifier)
				if err != nil {
					if cfg.log != nil && !errors.Is(err, ErrTenantNotFound) && !errors.Is(err, ErrInvalidIdentifier) {
						cfg.log.ErrorContext(r.Context(), "tenant lookup failed",
							slog.String("identifier", identifier),
							slog.String("error", err.Error()))
					}
					cfg.errorHandler(w, r, err)
					return
				}
				cfg.cache.Set(identifier, t)
			}

			if cfg.requireActive && !t.Active {
				cfg.errorHandler(w, r, ErrInactiveTenant)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), t)))
		})
	}
}

// RequireTenant rejects requests that reached the handler without a
// resolved tenant.
func RequireTenant(errorHandler ErrorHandler) func(http.Handler) http.Handler {
	if errorHandler == nil {
		errorHandler = defaultErrorHandler
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := FromContext(r.Context()); !ok {
				errorHandler(w, r, ErrNoTenantInContext)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
