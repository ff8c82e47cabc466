package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ealanisln/vetify-sub011/handler"
)

func TestNewContext(t *testing.T) {
	t.Parallel()

	t.Run("exposes request and writer", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/billing/status", nil)

		ctx := handler.NewContext(w, r)
		assert.Same(t, r, ctx.Request())
		assert.Equal(t, w, ctx.ResponseWriter())
	})

	t.Run("delegates to the request context", func(t *testing.T) {
		t.Parallel()
		type ctxKey struct{}

		deadline := time.Now().Add(time.Minute)
		reqCtx, cancel := context.WithDeadline(context.Background(), deadline)
		defer cancel()
		reqCtx = context.WithValue(reqCtx, ctxKey{}, "tn_4d8")

		r := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(reqCtx)
		ctx := handler.NewContext(httptest.NewRecorder(), r)

		gotDeadline, ok := ctx.Deadline()
		require.True(t, ok)
		assert.Equal(t, deadline, gotDeadline)
		assert.Equal(t, "tn_4d8", ctx.Value(ctxKey{}))
		assert.NoError(t, ctx.Err())

		cancel()
		assert.ErrorIs(t, ctx.Err(), context.Canceled)
		select {
		case <-ctx.Done():
		default:
			t.Fatal("Done channel must be closed after cancel")
		}
	})
}

func TestContextKey(t *testing.T) {
	t.Parallel()

	key := handler.NewContextKey("clinic")
	assert.Equal(t, "clinic", key.String())

	// Two keys with the same name are still distinct values.
	other := handler.NewContextKey("clinic")
	ctx := context.WithValue(context.Background(), key, "cl_123")
	assert.Nil(t, ctx.Value(other))
}

func TestContextValue(t *testing.T) {
	t.Parallel()

	type clinic struct {
		ID   string
		Plan string
	}
	key := handler.NewContextKey("clinic")

	t.Run("typed hit", func(t *testing.T) {
		t.Parallel()
		ctx := context.WithValue(context.Background(), key, clinic{ID: "cl_123", Plan: "PROFESIONAL"})

		got := handler.ContextValue[clinic](ctx, key)
		assert.Equal(t, clinic{ID: "cl_123", Plan: "PROFESIONAL"}, got)
	})

	t.Run("missing key yields zero value", func(t *testing.T) {
		t.Parallel()
		got := handler.ContextValue[clinic](context.Background(), key)
		assert.Zero(t, got)
	})

	t.Run("type mismatch yields zero value", func(t *testing.T) {
		t.Parallel()
		ctx := context.WithValue(context.Background(), key, "not-a-clinic")

		got := handler.ContextValue[clinic](ctx, key)
		assert.Zero(t, got)
	})
}

func TestContextValueOK(t *testing.T) {
	t.Parallel()

	key := handler.NewContextKey("trial_days")

	t.Run("present zero value is distinguishable", func(t *testing.T) {
		t.Parallel()
		ctx := context.WithValue(context.Background(), key, 0)

		got, ok := handler.ContextValueOK[int](ctx, key)
		assert.True(t, ok)
		assert.Zero(t, got)
	})

	t.Run("missing key", func(t *testing.T) {
		t.Parallel()
		got, ok := handler.ContextValueOK[int](context.Background(), key)
		assert.False(t, ok)
		assert.Zero(t, got)
	})

	t.Run("type mismatch", func(t *testing.T) {
		t.Parallel()
		ctx := context.WithValue(context.Background(), key, "catorce")

		_, ok := handler.ContextValueOK[int](ctx, key)
		assert.False(t, ok)
	})
}
