package gate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Ealanisln/vetify-sub011/pkg/subscription"
	"github.com/Ealanisln/vetify-sub011/pkg/tenant"
)

// DefaultRequestTimeout bounds each status and feature round-trip.
const DefaultRequestTimeout = 10 * time.Second

// HTTPFetcher fetches status from the billing API over HTTP. The tenant
// travels in a request header, mirroring what the tenant resolution
// middleware on the server side expects.
type HTTPFetcher struct {
	baseURL      string
	client       *http.Client
	tenantHeader string
}

// HTTPFetcherOption configures an HTTPFetcher.
type HTTPFetcherOption func(*HTTPFetcher)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) HTTPFetcherOption {
	return func(f *HTTPFetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// WithTenantHeader overrides the header carrying the tenant ID. Defaults
// to tenant.DefaultHeader.
func WithTenantHeader(header string) HTTPFetcherOption {
	return func(f *HTTPFetcher) {
		if header != "" {
			f.tenantHeader = header
		}
	}
}

// NewHTTPFetcher creates a fetcher against the billing API mounted at
// baseURL (e.g. "https://api.vetify.pro/billing").
func NewHTTPFetcher(baseURL string, opts ...HTTPFetcherOption) (*HTTPFetcher, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, errors.New("base URL must use http or https")
	}
	if parsed.Host == "" {
		return nil, errors.New("base URL host is required")
	}

	f := &HTTPFetcher{
		baseURL:      strings.TrimRight(baseURL, "/"),
		client:       &http.Client{Timeout: DefaultRequestTimeout},
		tenantHeader: tenant.DefaultHeader,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// FetchStatus implements Fetcher via GET {base}/status.
func (f *HTTPFetcher) FetchStatus(ctx context.Context, tenantID uuid.UUID) (subscription.Status, error) {
	var status subscription.Status
	if err := f.getJSON(ctx, tenantID, "/status", &status); err != nil {
		return subscription.Status{}, errors.Join(ErrStatusFetch, err)
	}
	return status, nil
}

// CheckFeature implements Fetcher via GET {base}/features/{feature}.
func (f *HTTPFetcher) CheckFeature(ctx context.Context, tenantID uuid.UUID, feature subscription.Feature) (bool, error) {
	var out struct {
		Feature string `json:"feature"`
		Enabled bool   `json:"enabled"`
	}
	if err := f.getJSON(ctx, tenantID, "/features/"+url.PathEscape(string(feature)), &out); err != nil {
		return false, errors.Join(ErrFeatureCheck, err)
	}
	return out.Enabled, nil
}

func (f *HTTPFetcher) getJSON(ctx context.Context, tenantID uuid.UUID, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set(f.tenantHeader, tenantID.String())
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	// The billing API wraps every payload in a {data, error} envelope.
	var envelope struct {
		Data  json.RawMessage `json:"data"`
		Error *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}

	if resp.StatusCode != http.StatusOK {
		if decodeErr := json.NewDecoder(resp.Body).Decode(&envelope); decodeErr == nil && envelope.Error != nil {
			return fmt.Errorf("status %d (%s) from %s", resp.StatusCode, envelope.Error.Code, path)
		}
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decoding response from %s: %w", path, err)
	}
	if len(envelope.Data) == 0 {
		return fmt.Errorf("missing data field from %s", path)
	}
	return json.Unmarshal(envelope.Data, out)
}
