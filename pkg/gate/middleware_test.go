package gate_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ealanisln/vetify-sub011/pkg/gate"
	"github.com/Ealanisln/vetify-sub011/pkg/subscription"
	"github.com/Ealanisln/vetify-sub011/pkg/tenant"
)

// tenantRequest builds a request with a resolved clinic in its context,
// the shape requests have after the tenant middleware ran.
func tenantRequest(target string, tenantID uuid.UUID) *http.Request {
	r := httptest.NewRequest(http.MethodGet, target, nil)
	ctx := tenant.WithContext(r.Context(), &tenant.Tenant{
		ID:     tenantID,
		Slug:   "clinica-norte",
		Name:   "Clínica Norte",
		Email:  "dueno@clinicanorte.mx",
		Active: true,
	})
	return r.WithContext(ctx)
}

func redirectTarget(t *testing.T, rec *httptest.ResponseRecorder) *url.URL {
	t.Helper()

	require.Equal(t, http.StatusSeeOther, rec.Code)
	target, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	return target
}

func TestRequireActivePlan(t *testing.T) {
	t.Parallel()

	t.Run("active clinic passes", func(t *testing.T) {
		t.Parallel()

		client := gate.NewClient(&scriptedFetcher{status: activeStatus("Profesional")})
		tenantID := uuid.New()
		client.Refresh(context.Background(), tenantID)

		rec := httptest.NewRecorder()
		ok := client.RequireActivePlan(rec, tenantRequest("/reports", tenantID))
		assert.True(t, ok)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("Location"))
	})

	t.Run("permissive while the first fetch is in flight", func(t *testing.T) {
		t.Parallel()

		f := &scriptedFetcher{
			status:  expiredStatus(),
			release: make(chan struct{}),
		}
		t.Cleanup(func() { close(f.release) })

		client := gate.NewClient(f)

		rec := httptest.NewRecorder()
		ok := client.RequireActivePlan(rec, tenantRequest("/reports", uuid.New()))
		assert.True(t, ok)
		assert.Empty(t, rec.Header().Get("Location"))
	})

	t.Run("expired clinic is redirected with analytics params", func(t *testing.T) {
		t.Parallel()

		client := gate.NewClient(&scriptedFetcher{status: expiredStatus()})
		tenantID := uuid.New()
		client.Refresh(context.Background(), tenantID)

		rec := httptest.NewRecorder()
		ok := client.RequireActivePlan(rec, tenantRequest("/reports", tenantID))
		assert.False(t, ok)

		target := redirectTarget(t, rec)
		assert.Equal(t, "/dashboard/settings", target.Path)
		assert.Equal(t, "subscription", target.Query().Get("tab"))
		assert.Equal(t, "expired", target.Query().Get("reason"))
		assert.Equal(t, "/reports", target.Query().Get("from"))
	})

	t.Run("missing tenant fails closed", func(t *testing.T) {
		t.Parallel()

		client := gate.NewClient(&scriptedFetcher{status: activeStatus("Profesional")})

		rec := httptest.NewRecorder()
		ok := client.RequireActivePlan(rec, httptest.NewRequest(http.MethodGet, "/reports", nil))
		assert.False(t, ok)

		target := redirectTarget(t, rec)
		assert.Equal(t, "no_tenant", target.Query().Get("reason"))
	})

	t.Run("custom redirect URL", func(t *testing.T) {
		t.Parallel()

		client := gate.NewClient(&scriptedFetcher{status: expiredStatus()})
		tenantID := uuid.New()
		client.Refresh(context.Background(), tenantID)

		rec := httptest.NewRecorder()
		ok := client.RequireActivePlan(rec, tenantRequest("/pos", tenantID),
			gate.WithRedirectURL("/planes"))
		assert.False(t, ok)

		target := redirectTarget(t, rec)
		assert.Equal(t, "/planes", target.Path)
		assert.Equal(t, "expired", target.Query().Get("reason"))
		assert.Equal(t, "/pos", target.Query().Get("from"))
	})
}

func TestRequireActivePlanMiddleware(t *testing.T) {
	t.Parallel()

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("reporte"))
	})

	t.Run("active clinic reaches the handler", func(t *testing.T) {
		t.Parallel()

		client := gate.NewClient(&scriptedFetcher{status: activeStatus("Profesional")})
		tenantID := uuid.New()
		client.Refresh(context.Background(), tenantID)

		rec := httptest.NewRecorder()
		gate.RequireActivePlan(client)(next).ServeHTTP(rec, tenantRequest("/reports", tenantID))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "reporte", rec.Body.String())
	})

	t.Run("expired clinic is stopped before the handler", func(t *testing.T) {
		t.Parallel()

		client := gate.NewClient(&scriptedFetcher{status: expiredStatus()})
		tenantID := uuid.New()
		client.Refresh(context.Background(), tenantID)

		rec := httptest.NewRecorder()
		gate.RequireActivePlan(client)(next).ServeHTTP(rec, tenantRequest("/reports", tenantID))

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.NotContains(t, rec.Body.String(), "reporte")
	})

	t.Run("panics without a client", func(t *testing.T) {
		t.Parallel()

		assert.Panics(t, func() { gate.RequireActivePlan(nil) })
	})
}

func TestRequireFeature(t *testing.T) {
	t.Parallel()

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("punto de venta"))
	})

	t.Run("entitled clinic reaches the handler", func(t *testing.T) {
		t.Parallel()

		client := gate.NewClient(&scriptedFetcher{allowed: true})

		rec := httptest.NewRecorder()
		gate.RequireFeature(client, subscription.FeaturePOS)(next).
			ServeHTTP(rec, tenantRequest("/pos", uuid.New()))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "punto de venta", rec.Body.String())
	})

	t.Run("default fallback names the minimum tier", func(t *testing.T) {
		t.Parallel()

		client := gate.NewClient(&scriptedFetcher{allowed: false})

		rec := httptest.NewRecorder()
		gate.RequireFeature(client, subscription.FeaturePOS)(next).
			ServeHTTP(rec, tenantRequest("/pos", uuid.New()))

		require.Equal(t, http.StatusPaymentRequired, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "feature_not_available", body["error"])
		assert.Equal(t, "pos", body["feature"])
		assert.Equal(t, "PROFESIONAL", body["minimum_tier"])
	})

	t.Run("re-checks on every request", func(t *testing.T) {
		t.Parallel()

		f := &scriptedFetcher{allowed: true}
		client := gate.NewClient(f)
		handler := gate.RequireFeature(client, subscription.FeaturePOS)(next)
		tenantID := uuid.New()

		handler.ServeHTTP(httptest.NewRecorder(), tenantRequest("/pos", tenantID))
		handler.ServeHTTP(httptest.NewRecorder(), tenantRequest("/pos", tenantID))

		f.mu.Lock()
		defer f.mu.Unlock()
		assert.Equal(t, 2, f.featureCalls)
	})

	t.Run("fetch error fails closed", func(t *testing.T) {
		t.Parallel()

		client := gate.NewClient(&scriptedFetcher{allowed: true, featureErr: errors.New("billing api down")})

		rec := httptest.NewRecorder()
		gate.RequireFeature(client, subscription.FeaturePOS)(next).
			ServeHTTP(rec, tenantRequest("/pos", uuid.New()))

		assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	})

	t.Run("missing tenant lands on the fallback", func(t *testing.T) {
		t.Parallel()

		client := gate.NewClient(&scriptedFetcher{allowed: true})

		rec := httptest.NewRecorder()
		gate.RequireFeature(client, subscription.FeaturePOS)(next).
			ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pos", nil))

		assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	})

	t.Run("custom fallback", func(t *testing.T) {
		t.Parallel()

		client := gate.NewClient(&scriptedFetcher{allowed: false})
		fallback := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		})

		rec := httptest.NewRecorder()
		gate.RequireFeature(client, subscription.FeaturePOS, gate.WithFeatureFallback(fallback))(next).
			ServeHTTP(rec, tenantRequest("/pos", uuid.New()))

		assert.Equal(t, http.StatusTeapot, rec.Code)
	})

	t.Run("panics without a client", func(t *testing.T) {
		t.Parallel()

		assert.Panics(t, func() { gate.RequireFeature(nil, subscription.FeaturePOS) })
	})
}

func TestPortalReturn(t *testing.T) {
	t.Parallel()

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("forces a refresh and strips the marker", func(t *testing.T) {
		t.Parallel()

		f := &scriptedFetcher{status: activeStatus("Clínica")}
		client := gate.NewClient(f)
		tenantID := uuid.New()

		rec := httptest.NewRecorder()
		gate.PortalReturn(client)(next).
			ServeHTTP(rec, tenantRequest("/dashboard/settings?tab=subscription&from_portal=true", tenantID))

		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/dashboard/settings?tab=subscription", rec.Header().Get("Location"))
		assert.Equal(t, 1, f.calls())

		// The refreshed status is already settled for the page we
		// redirect to.
		snap := client.Snapshot(context.Background(), tenantID)
		assert.False(t, snap.Loading)
		assert.Equal(t, "Clínica", snap.PlanName())
		assert.Equal(t, 1, f.calls())
	})

	t.Run("passes through without the marker", func(t *testing.T) {
		t.Parallel()

		f := &scriptedFetcher{status: activeStatus("Clínica")}
		client := gate.NewClient(f)

		rec := httptest.NewRecorder()
		gate.PortalReturn(client)(next).
			ServeHTTP(rec, tenantRequest("/dashboard/settings?tab=subscription", uuid.New()))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 0, f.calls())
	})

	t.Run("marker must be exactly true", func(t *testing.T) {
		t.Parallel()

		f := &scriptedFetcher{status: activeStatus("Clínica")}
		client := gate.NewClient(f)

		rec := httptest.NewRecorder()
		gate.PortalReturn(client)(next).
			ServeHTTP(rec, tenantRequest("/dashboard/settings?from_portal=1", uuid.New()))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 0, f.calls())
	})

	t.Run("missing tenant still strips the marker", func(t *testing.T) {
		t.Parallel()

		f := &scriptedFetcher{status: activeStatus("Clínica")}
		client := gate.NewClient(f)

		rec := httptest.NewRecorder()
		gate.PortalReturn(client)(next).
			ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard/settings?from_portal=true", nil))

		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/dashboard/settings", rec.Header().Get("Location"))
		assert.Equal(t, 0, f.calls())
	})

	t.Run("panics without a client", func(t *testing.T) {
		t.Parallel()

		assert.Panics(t, func() { gate.PortalReturn(nil) })
	})
}

func TestGateDenialsObserved(t *testing.T) {
	t.Parallel()

	obs := &recordingObserver{}
	client := gate.NewClient(&scriptedFetcher{status: expiredStatus()}, gate.WithObserver(obs))
	tenantID := uuid.New()
	client.Refresh(context.Background(), tenantID)

	rec := httptest.NewRecorder()
	ok := client.RequireActivePlan(rec, tenantRequest("/reports", tenantID))
	require.False(t, ok)

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	gate.RequireFeature(client, subscription.FeaturePOS)(next).
		ServeHTTP(httptest.NewRecorder(), tenantRequest("/pos", tenantID))

	_, _, _, _, denials := obs.snapshot()
	assert.Equal(t, []string{"active_plan", "feature"}, denials)
}
