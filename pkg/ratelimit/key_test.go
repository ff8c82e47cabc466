package ratelimit_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Ealanisln/vetify-sub011/pkg/ratelimit"
)

func TestByHeader(t *testing.T) {
	t.Parallel()

	keyFunc := ratelimit.ByHeader("X-Tenant")

	t.Run("returns trimmed value", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Tenant", "  clinic-norte  ")
		assert.Equal(t, "clinic-norte", keyFunc(req))
	})

	t.Run("missing header yields empty key", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		assert.Empty(t, keyFunc(req))
	})
}

func TestComposite(t *testing.T) {
	t.Parallel()

	static := func(v string) ratelimit.KeyFunc {
		return func(*http.Request) string { return v }
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	t.Run("joins parts with colon", func(t *testing.T) {
		t.Parallel()

		keyFunc := ratelimit.Composite(static("clinic-1"), static("upgrade"))
		assert.Equal(t, "clinic-1:upgrade", keyFunc(req))
	})

	t.Run("skips empty parts", func(t *testing.T) {
		t.Parallel()

		keyFunc := ratelimit.Composite(static(""), static("clinic-1"), static(""))
		assert.Equal(t, "clinic-1", keyFunc(req))
	})

	t.Run("all empty yields empty key", func(t *testing.T) {
		t.Parallel()

		keyFunc := ratelimit.Composite(static(""), static(""))
		assert.Empty(t, keyFunc(req))
	})

	t.Run("long keys collapse to a stable hash", func(t *testing.T) {
		t.Parallel()

		long := strings.Repeat("a", 80)
		keyFunc := ratelimit.Composite(static(long), static("upgrade"))

		first := keyFunc(req)
		assert.Len(t, first, 32)
		assert.Equal(t, first, keyFunc(req))
		assert.NotContains(t, first, ":")
	})

	t.Run("short keys stay readable", func(t *testing.T) {
		t.Parallel()

		keyFunc := ratelimit.Composite(static("clinic-1"))
		assert.Equal(t, "clinic-1", keyFunc(req))
	})
}
