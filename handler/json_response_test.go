package handler_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ealanisln/vetify-sub011/handler"
	"github.com/Ealanisln/vetify-sub011/pkg/binder"
)

// renderJSON renders a response and decodes the envelope it produced.
func renderJSON(t *testing.T, resp handler.Response) (*httptest.ResponseRecorder, handler.JSONResponse) {
	t.Helper()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	require.NoError(t, resp.Render(w, r))
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))

	var got handler.JSONResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	return w, got
}

func TestJSON(t *testing.T) {
	t.Parallel()

	t.Run("data value", func(t *testing.T) {
		t.Parallel()
		w, got := renderJSON(t, handler.JSON(map[string]string{"plan": "PROFESIONAL", "state": "ACTIVE"}))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, handler.JSONResponse{
			Data: map[string]any{"plan": "PROFESIONAL", "state": "ACTIVE"},
		}, got)
	})

	t.Run("with meta and status", func(t *testing.T) {
		t.Parallel()
		w, got := renderJSON(t, handler.JSON(
			map[string]string{"plan": "CLINICA"},
			handler.WithJSONStatus(http.StatusCreated),
			handler.WithJSONMeta(map[string]any{"currency": "MXN"}),
		))

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, handler.JSONResponse{
			Data: map[string]any{"plan": "CLINICA"},
			Meta: map[string]any{"currency": "MXN"},
		}, got)
	})

	t.Run("nil data omits every field", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		require.NoError(t, handler.JSON(nil).Render(w, r))

		var raw map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
		assert.Empty(t, raw)
	})

	t.Run("prebuilt envelope passes through", func(t *testing.T) {
		t.Parallel()
		_, got := renderJSON(t, handler.JSON(handler.JSONResponse{
			Data: map[string]any{"feature": "whatsapp", "enabled": true},
		}))

		assert.Equal(t, handler.JSONResponse{
			Data: map[string]any{"feature": "whatsapp", "enabled": true},
		}, got)
	})

	t.Run("error value is classified", func(t *testing.T) {
		t.Parallel()
		w, got := renderJSON(t, handler.JSON(handler.ErrPaymentRequired))

		assert.Equal(t, http.StatusPaymentRequired, w.Code)
		assert.Equal(t, &handler.ErrorDetail{
			Code:    "payment_required",
			Message: "Payment Required",
		}, got.Error)
	})
}

func TestJSONError(t *testing.T) {
	t.Parallel()

	t.Run("plain error", func(t *testing.T) {
		t.Parallel()
		w, got := renderJSON(t, handler.JSONError(errors.New("provider unreachable")))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, handler.JSONResponse{
			Error: &handler.ErrorDetail{
				Code:    "internal_error",
				Message: "provider unreachable",
			},
		}, got)
	})

	t.Run("http error keeps code and key", func(t *testing.T) {
		t.Parallel()
		w, got := renderJSON(t, handler.JSONError(handler.NewHTTPError(http.StatusConflict, "upgrade_in_progress")))

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, handler.JSONResponse{
			Error: &handler.ErrorDetail{
				Code:    "upgrade_in_progress",
				Message: "Conflict",
			},
		}, got)
	})

	t.Run("wrapped http error", func(t *testing.T) {
		t.Parallel()
		wrapped := errors.Join(handler.ErrNotFound, errors.New("plan EMPRESARIAL"))
		w, got := renderJSON(t, handler.JSONError(wrapped))

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "not_found", got.Error.Code)
	})

	t.Run("validation error with details", func(t *testing.T) {
		t.Parallel()
		valErr := handler.NewValidationError()
		valErr.Add("target_plan", "unknown plan")
		valErr.Add("billing_interval", "must be monthly or yearly")

		w, got := renderJSON(t, handler.JSONError(valErr))

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "validation_error", got.Error.Code)
		assert.Equal(t,
			"validation error: billing_interval: must be monthly or yearly, target_plan: unknown plan",
			got.Error.Message)
		assert.Equal(t, map[string][]string{
			"target_plan":      {"unknown plan"},
			"billing_interval": {"must be monthly or yearly"},
		}, got.Error.Details)
	})

	t.Run("empty validation error", func(t *testing.T) {
		t.Parallel()
		w, got := renderJSON(t, handler.JSONError(handler.NewValidationError()))

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, handler.JSONResponse{
			Error: &handler.ErrorDetail{
				Code:    "validation_error",
				Message: "validation failed",
			},
		}, got)
	})

	t.Run("binder media type errors map to 415", func(t *testing.T) {
		t.Parallel()
		w, got := renderJSON(t, handler.JSONError(binder.ErrUnsupportedMediaType))
		assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
		assert.Equal(t, "unsupported_media_type", got.Error.Code)

		w, got = renderJSON(t, handler.JSONError(binder.ErrMissingContentType))
		assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
		assert.Equal(t, "missing_content_type", got.Error.Code)
	})

	t.Run("binder parse errors map to 400", func(t *testing.T) {
		t.Parallel()
		for _, parseErr := range []error{
			binder.ErrFailedToParseJSON,
			binder.ErrFailedToParseQuery,
			binder.ErrFailedToParsePath,
		} {
			w, got := renderJSON(t, handler.JSONError(parseErr))
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "bad_request", got.Error.Code)
		}
	})

	t.Run("direct error detail", func(t *testing.T) {
		t.Parallel()
		detail := &handler.ErrorDetail{
			Code:    "rate_limited",
			Message: "too many upgrade attempts",
		}
		w, got := renderJSON(t, handler.JSONError(detail, handler.WithJSONStatus(http.StatusTooManyRequests)))

		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, handler.JSONResponse{Error: detail}, got)
	})

	t.Run("with meta", func(t *testing.T) {
		t.Parallel()
		_, got := renderJSON(t, handler.JSONError(
			handler.ErrForbidden,
			handler.WithJSONMeta(map[string]any{"request_id": "req_9f3"}),
		))

		assert.Equal(t, "forbidden", got.Error.Code)
		assert.Equal(t, map[string]any{"request_id": "req_9f3"}, got.Meta)
	})
}
