package tenant_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ealanisln/vetify-sub011/pkg/tenant"
)

func newHostRequest(host string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/billing/status", nil)
	req.Host = host
	return req
}

func TestSubdomainResolver(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		apex     string
		host     string
		expected string
	}{
		{
			name:     "clinic subdomain",
			apex:     "vetify.pro",
			host:     "clinica-norte.vetify.pro",
			expected: "clinica-norte",
		},
		{
			name:     "strips port",
			apex:     "vetify.pro",
			host:     "clinica-norte.vetify.pro:8080",
			expected: "clinica-norte",
		},
		{
			name:     "www before clinic is ignored",
			apex:     "vetify.pro",
			host:     "www.clinica-norte.vetify.pro",
			expected: "clinica-norte",
		},
		{
			name:     "apex host has no tenant",
			apex:     "vetify.pro",
			host:     "vetify.pro",
			expected: "",
		},
		{
			name:     "www apex has no tenant",
			apex:     "vetify.pro",
			host:     "www.vetify.pro",
			expected: "",
		},
		{
			name:     "foreign host has no tenant",
			apex:     "vetify.pro",
			host:     "clinica.example.com",
			expected: "",
		},
		{
			name:     "uppercase host is normalized",
			apex:     "vetify.pro",
			host:     "Clinica-Norte.Vetify.Pro",
			expected: "clinica-norte",
		},
		{
			name:     "trailing dot fqdn",
			apex:     "vetify.pro",
			host:     "clinica-norte.vetify.pro.",
			expected: "clinica-norte",
		},
		{
			name:     "apex with leading dot",
			apex:     ".vetify.pro",
			host:     "clinica-norte.vetify.pro",
			expected: "clinica-norte",
		},
		{
			name:     "empty apex never resolves",
			apex:     "",
			host:     "clinica-norte.vetify.pro",
			expected: "",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			resolver := tenant.NewSubdomainResolver(tt.apex)
			id, err := resolver.Resolve(newHostRequest(tt.host))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, id)
		})
	}
}

func TestHeaderResolver(t *testing.T) {
	t.Parallel()

	t.Run("reads configured header", func(t *testing.T) {
		t.Parallel()

		resolver := tenant.NewHeaderResolver("X-Clinic")
		req := newHostRequest("api.vetify.pro")
		req.Header.Set("X-Clinic", "  clinica-sur ")

		id, err := resolver.Resolve(req)
		require.NoError(t, err)
		assert.Equal(t, "clinica-sur", id)
	})

	t.Run("empty name falls back to default header", func(t *testing.T) {
		t.Parallel()

		resolver := tenant.NewHeaderResolver("")
		req := newHostRequest("api.vetify.pro")
		req.Header.Set(tenant.DefaultHeader, "clinica-sur")

		id, err := resolver.Resolve(req)
		require.NoError(t, err)
		assert.Equal(t, "clinica-sur", id)
	})

	t.Run("missing header resolves to nothing", func(t *testing.T) {
		t.Parallel()

		resolver := tenant.NewHeaderResolver("X-Clinic")
		id, err := resolver.Resolve(newHostRequest("api.vetify.pro"))
		require.NoError(t, err)
		assert.Empty(t, id)
	})
}

func TestCompositeResolver(t *testing.T) {
	t.Parallel()

	subdomain := tenant.NewSubdomainResolver("vetify.pro")
	header := tenant.NewHeaderResolver(tenant.DefaultHeader)

	t.Run("earlier resolver wins", func(t *testing.T) {
		t.Parallel()

		resolver := tenant.NewCompositeResolver(subdomain, header)
		req := newHostRequest("clinica-norte.vetify.pro")
		req.Header.Set(tenant.DefaultHeader, "clinica-sur")

		id, err := resolver.Resolve(req)
		require.NoError(t, err)
		assert.Equal(t, "clinica-norte", id)
	})

	t.Run("falls through empty resolvers", func(t *testing.T) {
		t.Parallel()

		resolver := tenant.NewCompositeResolver(subdomain, header)
		req := newHostRequest("api.vetify.pro")
		req.Header.Set(tenant.DefaultHeader, "clinica-sur")

		id, err := resolver.Resolve(req)
		require.NoError(t, err)
		assert.Equal(t, "clinica-sur", id)
	})

	t.Run("resolver errors do not mask later matches", func(t *testing.T) {
		t.Parallel()

		failing := tenant.ResolverFunc(func(*http.Request) (string, error) {
			return "", errors.New("session store down")
		})
		resolver := tenant.NewCompositeResolver(failing, header)
		req := newHostRequest("api.vetify.pro")
		req.Header.Set(tenant.DefaultHeader, "clinica-sur")

		id, err := resolver.Resolve(req)
		require.NoError(t, err)
		assert.Equal(t, "clinica-sur", id)
	})

	t.Run("surfaces errors when nothing matches", func(t *testing.T) {
		t.Parallel()

		failing := tenant.ResolverFunc(func(*http.Request) (string, error) {
			return "", errors.New("session store down")
		})
		resolver := tenant.NewCompositeResolver(failing, subdomain)

		id, err := resolver.Resolve(newHostRequest("api.example.com"))
		require.Error(t, err)
		assert.Empty(t, id)
	})

	t.Run("no resolvers resolve to nothing", func(t *testing.T) {
		t.Parallel()

		resolver := tenant.NewCompositeResolver()
		id, err := resolver.Resolve(newHostRequest("clinica.vetify.pro"))
		require.NoError(t, err)
		assert.Empty(t, id)
	})
}
