package gate

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/Ealanisln/vetify-sub011/pkg/subscription"
	"github.com/Ealanisln/vetify-sub011/pkg/tenant"
)

// DefaultRedirectURL is where inactive clinics are sent to sort their
// subscription out.
const DefaultRedirectURL = "/dashboard/settings?tab=subscription"

// PortalReturnParam marks a request as a return from the provider
// billing portal.
const PortalReturnParam = "from_portal"

type guardConfig struct {
	redirectURL string
}

// GuardOption configures the active-plan guard.
type GuardOption func(*guardConfig)

// WithRedirectURL overrides where inactive clinics are redirected.
func WithRedirectURL(redirectURL string) GuardOption {
	return func(cfg *guardConfig) {
		if redirectURL != "" {
			cfg.redirectURL = redirectURL
		}
	}
}

// RequireActivePlan checks the cached status and reports whether the
// request may proceed. When it returns false it has already written a
// 303 redirect to the subscription settings page, tagged with reason
// and from query parameters for funnel analytics.
//
// The guard is permissive while the tenant's first fetch is still in
// flight, so a page load racing the cache never locks a paying clinic
// out. It is also advisory: a crafted client can ignore the redirect,
// which is fine because every server-side operation authorizes against
// subscription.Service on its own.
func (c *Client) RequireActivePlan(w http.ResponseWriter, r *http.Request, opts ...GuardOption) bool {
	cfg := &guardConfig{redirectURL: DefaultRedirectURL}
	for _, opt := range opts {
		opt(cfg)
	}

	tenantID, ok := tenant.IDFromContext(r.Context())
	if !ok {
		c.deny(w, r, cfg.redirectURL, "no_tenant")
		return false
	}

	snap := c.Snapshot(r.Context(), tenantID)
	if snap.Loading || snap.IsActive() {
		return true
	}

	reason := string(snap.Status.State)
	if reason == "" {
		reason = string(subscription.StateInactive)
	}
	c.deny(w, r, cfg.redirectURL, reason)
	return false
}

func (c *Client) deny(w http.ResponseWriter, r *http.Request, redirectURL, reason string) {
	c.observer.GateDenied("active_plan")

	target, err := url.Parse(redirectURL)
	if err != nil {
		target, _ = url.Parse(DefaultRedirectURL)
	}
	q := target.Query()
	q.Set("reason", reason)
	q.Set("from", r.URL.Path)
	target.RawQuery = q.Encode()

	http.Redirect(w, r, target.String(), http.StatusSeeOther)
}

// RequireActivePlan wraps a handler subtree with the active-plan guard,
// for routes that have no reason to run for lapsed clinics.
func RequireActivePlan(client *Client, opts ...GuardOption) func(http.Handler) http.Handler {
	if client == nil {
		panic("gate: client is required")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !client.RequireActivePlan(w, r, opts...) {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type featureConfig struct {
	fallback http.Handler
}

// FeatureOption configures RequireFeature.
type FeatureOption func(*featureConfig)

// WithFeatureFallback replaces the default 402 upgrade prompt rendered
// when the feature is not available.
func WithFeatureFallback(fallback http.Handler) FeatureOption {
	return func(cfg *featureConfig) {
		if fallback != nil {
			cfg.fallback = fallback
		}
	}
}

// RequireFeature gates a route behind a feature entitlement. Every
// request re-checks against the server: entitlement follows live billing
// state, and a billing gate prefers one extra round-trip over showing a
// paid feature to a lapsed clinic. Requests without a resolved tenant
// and failed checks both land on the fallback.
func RequireFeature(client *Client, feature subscription.Feature, opts ...FeatureOption) func(http.Handler) http.Handler {
	if client == nil {
		panic("gate: client is required")
	}

	cfg := &featureConfig{fallback: upgradeRequired(feature)}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tenantID, ok := tenant.IDFromContext(r.Context())
			if !ok || !client.CheckFeature(r.Context(), tenantID, feature) {
				client.observer.GateDenied("feature")
				cfg.fallback.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// upgradeRequired is the default feature fallback: a 402 naming the
// cheapest tier that unlocks the feature, for upgrade prompts.
func upgradeRequired(feature subscription.Feature) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		body := map[string]any{
			"error":   "feature_not_available",
			"feature": string(feature),
		}
		if tier, ok := subscription.MinimumTier(feature); ok {
			body["minimum_tier"] = string(tier)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		_ = json.NewEncoder(w).Encode(body)
	})
}

// PortalReturn detects returns from the provider billing portal
// (from_portal=true), forces a fresh status fetch so the page does not
// render the pre-portal plan, and redirects to the same URL with the
// marker stripped.
func PortalReturn(client *Client) func(http.Handler) http.Handler {
	if client == nil {
		panic("gate: client is required")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get(PortalReturnParam) != "true" {
				next.ServeHTTP(w, r)
				return
			}

			if tenantID, ok := tenant.IDFromContext(r.Context()); ok {
				client.Invalidate(tenantID)
				client.Refresh(r.Context(), tenantID)
			}

			q := r.URL.Query()
			q.Del(PortalReturnParam)
			clean := *r.URL
			clean.RawQuery = q.Encode()
			http.Redirect(w, r, clean.String(), http.StatusSeeOther)
		})
	}
}
