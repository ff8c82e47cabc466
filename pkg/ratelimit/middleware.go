package ratelimit

import (
	"log/slog"
	"net/http"
	"strconv"
)

// MiddlewareOption configures the rate limiting middleware.
type MiddlewareOption func(*middlewareConfig)

type middlewareConfig struct {
	onLimit func(w http.ResponseWriter, r *http.Request, result *Result)
	skip    func(r *http.Request) bool
	log     *slog.Logger
}

// WithLimitHandler replaces the default 429 response.
func WithLimitHandler(fn func(w http.ResponseWriter, r *http.Request, result *Result)) MiddlewareOption {
	return func(c *middlewareConfig) {
		if fn != nil {
			c.onLimit = fn
		}
	}
}

// WithSkip bypasses rate limiting for requests the predicate matches.
func WithSkip(fn func(r *http.Request) bool) MiddlewareOption {
	return func(c *middlewareConfig) {
		c.skip = fn
	}
}

// WithLogger logs limiter failures. Without it they are silent.
func WithLogger(log *slog.Logger) MiddlewareOption {
	return func(c *middlewareConfig) {
		c.log = log
	}
}

// Middleware enforces a rate limit per key extracted from the request.
// Requests with an empty key pass through, and limiter failures fail open
// so a broken store never takes the API down with it.
func Middleware(limiter Limiter, keyFunc KeyFunc, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	if limiter == nil {
		panic("ratelimit: limiter is required")
	}
	if keyFunc == nil {
		panic("ratelimit: keyFunc is required")
	}

	cfg := &middlewareConfig{
		onLimit: func(w http.ResponseWriter, r *http.Request, result *Result) {
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
		},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.skip != nil && cfg.skip(r) {
				next.ServeHTTP(w, r)
				return
			}

			key := keyFunc(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			result, err := limiter.Allow(r.Context(), key)
			if err != nil {
				if cfg.log != nil {
					cfg.log.WarnContext(r.Context(), "rate limiter failed open",
						slog.String("key", key),
						slog.String("error", err.Error()))
				}
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

			if !result.Allowed {
				retryAfter := int(result.RetryAfter().Seconds())
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				cfg.onLimit(w, r, result)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
