package tenant

import (
	"errors"
	"net"
	"net/http"
	"strings"
)

// DefaultHeader is the header API clients use to address a clinic.
const DefaultHeader = "X-Vetify-Tenant"

// Resolver extracts a tenant identifier from an HTTP request. An empty
// identifier with a nil error means the request is not tenant-addressed.
type Resolver interface {
	Resolve(r *http.Request) (string, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(r *http.Request) (string, error)

func (f ResolverFunc) Resolve(r *http.Request) (string, error) {
	return f(r)
}

// SubdomainResolver reads the clinic slug from the request host:
// clinica-norte.vetify.pro resolves to "clinica-norte". The apex domain
// itself and a www prefix resolve to nothing.
type SubdomainResolver struct {
	apex string
}

// NewSubdomainResolver creates a resolver for hosts under the given
// apex domain (e.g. "vetify.pro").
func NewSubdomainResolver(apex string) *SubdomainResolver {
	return &SubdomainResolver{
		apex: strings.ToLower(strings.Trim(apex, ".")),
	}
}

func (sr *SubdomainResolver) Resolve(r *http.Request) (string, error) {
	if sr.apex == "" {
		return "", nil
	}

	host := r.Host
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.ToLower(strings.TrimSuffix(host, "."))

	suffix := "." + sr.apex
	if !strings.HasSuffix(host, suffix) {
		return "", nil
	}

	// The label adjacent to the apex is the slug, so extra prefixes
	// like www.clinica.vetify.pro still resolve to "clinica".
	labels := strings.Split(strings.TrimSuffix(host, suffix), ".")
	slug := labels[len(labels)-1]
	if slug == "" || slug == "www" {
		return "", nil
	}
	return slug, nil
}

// HeaderResolver reads the tenant identifier from a request header.
type HeaderResolver struct {
	header string
}

// NewHeaderResolver creates a resolver for the given header, defaulting
// to DefaultHeader when empty.
func NewHeaderResolver(header string) *HeaderResolver {
	if header == "" {
		header = DefaultHeader
	}
	return &HeaderResolver{header: header}
}

func (hr *HeaderResolver) Resolve(r *http.Request) (string, error) {
	return strings.TrimSpace(r.Header.Get(hr.header)), nil
}

// CompositeResolver tries resolvers in order and returns the first
// non-empty identifier.
type CompositeResolver struct {
	resolvers []Resolver
}

// NewCompositeResolver combines resolvers; earlier ones win.
func NewCompositeResolver(resolvers ...Resolver) *CompositeResolver {
	return &CompositeResolver{resolvers: resolvers}
}

func (cr *CompositeResolver) Resolve(r *http.Request) (string, error) {
	var errs []error
	for _, resolver := range cr.resolvers {
		id, err := resolver.Resolve(r)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if id != "" {
			return id, nil
		}
	}
	if len(errs) > 0 {
		return "", errors.Join(errs...)
	}
	return "", nil
}
