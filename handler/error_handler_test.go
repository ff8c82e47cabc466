package handler_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ealanisln/vetify-sub011/handler"
	"github.com/Ealanisln/vetify-sub011/pkg/binder"
)

func TestNewErrorHandler(t *testing.T) {
	t.Parallel()

	// handle runs the error handler against a fresh request and returns
	// the recorder plus everything that was logged.
	handle := func(t *testing.T, err error) (*httptest.ResponseRecorder, string) {
		t.Helper()

		var logBuf bytes.Buffer
		log := slog.New(slog.NewTextHandler(&logBuf, nil))
		errorHandler := handler.NewErrorHandler(log)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/billing/upgrade", nil)
		errorHandler(handler.NewContext(w, r), err)

		return w, logBuf.String()
	}

	t.Run("generic error renders 500 and logs at error level", func(t *testing.T) {
		t.Parallel()
		w, logged := handle(t, errors.New("paddle: connection refused"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)

		var got handler.JSONResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, "internal_error", got.Error.Code)

		assert.Contains(t, logged, "level=ERROR")
		assert.Contains(t, logged, "status_code=500")
		assert.Contains(t, logged, "method=POST")
		assert.Contains(t, logged, "path=/billing/upgrade")
		assert.Contains(t, logged, "component=error_handler")
	})

	t.Run("http error keeps its status and logs at warn level", func(t *testing.T) {
		t.Parallel()
		w, logged := handle(t, handler.ErrPaymentRequired)

		assert.Equal(t, http.StatusPaymentRequired, w.Code)

		var got handler.JSONResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, "payment_required", got.Error.Code)

		assert.Contains(t, logged, "level=WARN")
		assert.Contains(t, logged, "status_code=402")
	})

	t.Run("validation error renders 422 with details", func(t *testing.T) {
		t.Parallel()
		valErr := handler.NewValidationError()
		valErr.Add("target_plan", "unknown plan")

		w, logged := handle(t, valErr)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

		var got handler.JSONResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, "validation_error", got.Error.Code)
		assert.Equal(t, map[string][]string{"target_plan": {"unknown plan"}}, got.Error.Details)

		assert.Contains(t, logged, "level=WARN")
	})

	t.Run("validation wins over wrapped http error", func(t *testing.T) {
		t.Parallel()
		valErr := handler.NewValidationError()
		valErr.Add("billing_interval", "must be monthly or yearly")

		w, _ := handle(t, errors.Join(handler.ErrBadRequest, valErr))

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("binder errors are client errors", func(t *testing.T) {
		t.Parallel()
		w, logged := handle(t, binder.ErrUnsupportedMediaType)

		assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
		assert.Contains(t, logged, "level=WARN")
		assert.Contains(t, logged, "status_code=415")
	})

	t.Run("nil logger falls back to default", func(t *testing.T) {
		t.Parallel()
		errorHandler := handler.NewErrorHandler(nil)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/billing/status", nil)

		require.NotPanics(t, func() {
			errorHandler(handler.NewContext(w, r), handler.ErrNotFound)
		})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestErrorHandlerClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantLevel  string
	}{
		{
			name:       "generic error",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantLevel:  "level=ERROR",
		},
		{
			name:       "client http error",
			err:        handler.ErrTooManyRequests,
			wantStatus: http.StatusTooManyRequests,
			wantLevel:  "level=WARN",
		},
		{
			name:       "server http error",
			err:        handler.ErrBadGateway,
			wantStatus: http.StatusBadGateway,
			wantLevel:  "level=ERROR",
		},
		{
			name:       "validation error",
			err:        handler.ValidationError{"email": {"is required"}},
			wantStatus: http.StatusUnprocessableEntity,
			wantLevel:  "level=WARN",
		},
		{
			name:       "binder parse error",
			err:        binder.ErrFailedToParseJSON,
			wantStatus: http.StatusBadRequest,
			wantLevel:  "level=WARN",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var logBuf bytes.Buffer
			errorHandler := handler.NewErrorHandler(slog.New(slog.NewTextHandler(&logBuf, nil)))

			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/billing/status", nil)
			errorHandler(handler.NewContext(w, r), tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, logBuf.String(), tt.wantLevel)
		})
	}
}
