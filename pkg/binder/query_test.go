package binder_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ealanisln/vetify-sub011/pkg/binder"
)

func TestQuery(t *testing.T) {
	t.Parallel()

	type qrRequest struct {
		TargetPlan string   `query:"plan"`
		Interval   string   `query:"interval"`
		Size       int      `query:"size"`
		FromTrial  bool     `query:"from_trial"`
		Features   []string `query:"features"`
		MaxStaff   *int     `query:"max_staff"`
		Ignored    string   `query:"-"`
		Untagged   string
	}

	t.Run("binds tagged fields", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet,
			"/upgrade/qr?plan=PROFESIONAL&interval=yearly&size=512&from_trial=yes", nil)

		var result qrRequest
		require.NoError(t, binder.Query()(req, &result))

		assert.Equal(t, "PROFESIONAL", result.TargetPlan)
		assert.Equal(t, "yearly", result.Interval)
		assert.Equal(t, 512, result.Size)
		assert.True(t, result.FromTrial)
	})

	t.Run("binds untagged field by lowercase name", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/test?untagged=hola", nil)

		var result qrRequest
		require.NoError(t, binder.Query()(req, &result))
		assert.Equal(t, "hola", result.Untagged)
	})

	t.Run("skips dash-tagged field", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/test?-=x&ignored=x", nil)

		var result qrRequest
		require.NoError(t, binder.Query()(req, &result))
		assert.Empty(t, result.Ignored)
	})

	t.Run("repeated and comma-separated slices", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/test?features=pos&features=inventario,reportes", nil)

		var result qrRequest
		require.NoError(t, binder.Query()(req, &result))
		assert.Equal(t, []string{"pos", "inventario", "reportes"}, result.Features)
	})

	t.Run("pointer fields", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/test?max_staff=15", nil)

		var result qrRequest
		require.NoError(t, binder.Query()(req, &result))
		require.NotNil(t, result.MaxStaff)
		assert.Equal(t, 15, *result.MaxStaff)
	})

	t.Run("missing parameters leave zero values", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/test", nil)

		var result qrRequest
		require.NoError(t, binder.Query()(req, &result))
		assert.Empty(t, result.TargetPlan)
		assert.Zero(t, result.Size)
		assert.Nil(t, result.MaxStaff)
	})

	t.Run("invalid int", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/test?size=grande", nil)

		var result qrRequest
		err := binder.Query()(req, &result)
		require.ErrorIs(t, err, binder.ErrFailedToParseQuery)
		assert.Contains(t, err.Error(), "Size")
	})

	t.Run("invalid bool", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/test?from_trial=quizas", nil)

		var result qrRequest
		err := binder.Query()(req, &result)
		require.ErrorIs(t, err, binder.ErrFailedToParseQuery)
	})

	t.Run("target must be struct pointer", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/test?plan=BASICO", nil)

		var s string
		err := binder.Query()(req, &s)
		require.ErrorIs(t, err, binder.ErrFailedToParseQuery)
	})
}
