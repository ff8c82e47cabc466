package binder_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ealanisln/vetify-sub011/pkg/binder"
)

func TestJSON(t *testing.T) {
	t.Parallel()
	type upgradeRequest struct {
		TargetPlan string `json:"target_plan"`
		Interval   string `json:"billing_interval"`
		FromTrial  bool   `json:"from_trial"`
	}

	t.Run("valid JSON binding", func(t *testing.T) {
		t.Parallel()
		body := `{"target_plan":"PROFESIONAL","billing_interval":"monthly","from_trial":true}`
		req := httptest.NewRequest(http.MethodPost, "/upgrade", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")

		var result upgradeRequest
		err := binder.JSON()(req, &result)

		require.NoError(t, err)
		assert.Equal(t, "PROFESIONAL", result.TargetPlan)
		assert.Equal(t, "monthly", result.Interval)
		assert.True(t, result.FromTrial)
	})

	t.Run("content type with charset", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodPost, "/upgrade", bytes.NewBufferString(`{"target_plan":"CLINICA"}`))
		req.Header.Set("Content-Type", "application/json; charset=utf-8")

		var result upgradeRequest
		err := binder.JSON()(req, &result)

		require.NoError(t, err)
		assert.Equal(t, "CLINICA", result.TargetPlan)
	})

	t.Run("not applicable for GET", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/status", nil)

		var result upgradeRequest
		err := binder.JSON()(req, &result)

		require.ErrorIs(t, err, binder.ErrBinderNotApplicable)
	})

	t.Run("missing content type", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodPost, "/upgrade", bytes.NewBufferString(`{"target_plan":"BASICO"}`))

		var result upgradeRequest
		err := binder.JSON()(req, &result)

		require.ErrorIs(t, err, binder.ErrMissingContentType)
	})

	t.Run("wrong content type", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodPost, "/upgrade", bytes.NewBufferString(`{"target_plan":"BASICO"}`))
		req.Header.Set("Content-Type", "text/plain")

		var result upgradeRequest
		err := binder.JSON()(req, &result)

		require.ErrorIs(t, err, binder.ErrUnsupportedMediaType)
		assert.Contains(t, err.Error(), "text/plain")
	})

	t.Run("empty body", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodPost, "/upgrade", bytes.NewBufferString(""))
		req.Header.Set("Content-Type", "application/json")

		var result upgradeRequest
		err := binder.JSON()(req, &result)

		require.ErrorIs(t, err, binder.ErrFailedToParseJSON)
		assert.Contains(t, err.Error(), "empty body")
	})

	t.Run("malformed JSON", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodPost, "/upgrade", bytes.NewBufferString(`{"target_plan":`))
		req.Header.Set("Content-Type", "application/json")

		var result upgradeRequest
		err := binder.JSON()(req, &result)

		require.ErrorIs(t, err, binder.ErrFailedToParseJSON)
	})

	t.Run("unknown fields rejected", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodPost, "/upgrade", bytes.NewBufferString(`{"target_plan":"BASICO","hacker":true}`))
		req.Header.Set("Content-Type", "application/json")

		var result upgradeRequest
		err := binder.JSON()(req, &result)

		require.ErrorIs(t, err, binder.ErrFailedToParseJSON)
	})

	t.Run("trailing data rejected", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodPost, "/upgrade", bytes.NewBufferString(`{"target_plan":"BASICO"}{"x":1}`))
		req.Header.Set("Content-Type", "application/json")

		var result upgradeRequest
		err := binder.JSON()(req, &result)

		require.ErrorIs(t, err, binder.ErrFailedToParseJSON)
		assert.Contains(t, err.Error(), "unexpected data")
	})

	t.Run("oversized body rejected", func(t *testing.T) {
		t.Parallel()
		huge := `{"target_plan":"` + strings.Repeat("A", binder.DefaultMaxJSONSize) + `"}`
		req := httptest.NewRequest(http.MethodPost, "/upgrade", bytes.NewBufferString(huge))
		req.Header.Set("Content-Type", "application/json")

		var result upgradeRequest
		err := binder.JSON()(req, &result)

		require.ErrorIs(t, err, binder.ErrFailedToParseJSON)
		assert.Contains(t, err.Error(), "too large")
	})
}

func TestJSONSanitizesStrings(t *testing.T) {
	t.Parallel()

	type nested struct {
		Notes string `json:"notes"`
	}
	type payload struct {
		Name   string            `json:"name"`
		Tags   []string          `json:"tags"`
		Nested nested            `json:"nested"`
		Labels map[string]string `json:"labels"`
	}

	body := `{
		"name": "  Clínica\u0000 Norte  ",
		"tags": [" pos ", "inventario"],
		"nested": {"notes": "\u0000ok"},
		"labels": {"ciudad": " CDMX "}
	}`
	req := httptest.NewRequest(http.MethodPost, "/test", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	var result payload
	require.NoError(t, binder.JSON()(req, &result))

	assert.Equal(t, "Clínica Norte", result.Name)
	assert.Equal(t, []string{"pos", "inventario"}, result.Tags)
	assert.Equal(t, "ok", result.Nested.Notes)
	assert.Equal(t, "CDMX", result.Labels["ciudad"])
}
