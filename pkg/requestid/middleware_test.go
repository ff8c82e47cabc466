package requestid_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ealanisln/vetify-sub011/pkg/requestid"
)

func TestMiddleware(t *testing.T) {
	t.Parallel()

	serve := func(t *testing.T, req *http.Request) (string, *httptest.ResponseRecorder) {
		t.Helper()

		var fromCtx string
		handler := requestid.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fromCtx = requestid.FromContext(r.Context())
			w.WriteHeader(http.StatusOK)
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		return fromCtx, rec
	}

	t.Run("generates uuid when header is absent", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/billing/status", nil)
		id, rec := serve(t, req)

		require.NotEmpty(t, id)
		_, err := uuid.Parse(id)
		assert.NoError(t, err)
		assert.Equal(t, id, rec.Header().Get(requestid.Header))
	})

	t.Run("reuses valid client id", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/billing/status", nil)
		req.Header.Set(requestid.Header, "req_abc-123")
		id, rec := serve(t, req)

		assert.Equal(t, "req_abc-123", id)
		assert.Equal(t, "req_abc-123", rec.Header().Get(requestid.Header))
	})

	t.Run("replaces id with invalid characters", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/billing/status", nil)
		req.Header.Set(requestid.Header, "bad id\nwith newline")
		id, _ := serve(t, req)

		assert.NotEqual(t, "bad id\nwith newline", id)
		_, err := uuid.Parse(id)
		assert.NoError(t, err)
	})

	t.Run("replaces oversized id", func(t *testing.T) {
		t.Parallel()

		oversized := strings.Repeat("a", 200)
		req := httptest.NewRequest(http.MethodGet, "/billing/status", nil)
		req.Header.Set(requestid.Header, oversized)
		id, _ := serve(t, req)

		assert.NotEqual(t, oversized, id)
	})
}

func TestFromContext_Empty(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, requestid.FromContext(req.Context()))
	assert.Empty(t, requestid.FromContext(nil)) //nolint:staticcheck // exercising the nil guard
}

func TestLoggerExtractor(t *testing.T) {
	t.Parallel()

	extract := requestid.LoggerExtractor()

	t.Run("emits attribute when id present", func(t *testing.T) {
		t.Parallel()

		ctx := requestid.WithContext(context.Background(), "req_42")
		attr, ok := extract(ctx)
		require.True(t, ok)
		assert.Equal(t, "request_id", attr.Key)
		assert.Equal(t, "req_42", attr.Value.String())
	})

	t.Run("silent without id", func(t *testing.T) {
		t.Parallel()

		_, ok := extract(context.Background())
		assert.False(t, ok)
	})
}
