package handler

import (
	"net/http"
	"net/url"
)

// redirectResponse performs a standard HTTP redirect.
type redirectResponse struct {
	url  string
	code int
}

func (r redirectResponse) Render(w http.ResponseWriter, req *http.Request) error {
	http.Redirect(w, req, r.url, r.code)
	return nil
}

// Redirect creates a redirect response with status 303 (See Other).
//
// Example:
//
//	func portal(ctx handler.Context, _ struct{}) handler.Response {
//		link, err := billing.PortalLink(ctx)
//		if err != nil {
//			return handler.JSONError(err)
//		}
//		return handler.Redirect(link.URL)
//	}
func Redirect(url string) Response {
	return redirectResponse{
		url:  url,
		code: http.StatusSeeOther,
	}
}

// RedirectWithCode creates a redirect response with a specific status code.
// Valid codes are 301 (Moved Permanently), 302 (Found), 303 (See Other),
// 307 (Temporary Redirect), and 308 (Permanent Redirect).
func RedirectWithCode(url string, code int) Response {
	return redirectResponse{
		url:  url,
		code: code,
	}
}

// redirectBackResponse redirects to the referrer with a fallback.
type redirectBackResponse struct {
	fallback string
	code     int
}

func (r redirectBackResponse) Render(w http.ResponseWriter, req *http.Request) error {
	target := r.fallback
	if referer := req.Header.Get("Referer"); referer != "" && isSameHostURL(referer, req) {
		target = referer
	}

	http.Redirect(w, req, target, r.code)
	return nil
}

// RedirectBack creates a redirect back to the referrer or fallback URL.
// Only same-host referrers are honored, so the response can never be
// turned into an open redirect. Uses status 303 (See Other).
func RedirectBack(fallback string) Response {
	return redirectBackResponse{
		fallback: fallback,
		code:     http.StatusSeeOther,
	}
}

// RedirectBackWithCode creates a redirect back response with a specific
// status code.
func RedirectBackWithCode(fallback string, code int) Response {
	return redirectBackResponse{
		fallback: fallback,
		code:     code,
	}
}

// isSameHostURL reports whether a URL is relative or targets the
// request's own host.
func isSameHostURL(urlStr string, r *http.Request) bool {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return false
	}
	return parsed.Host == "" || parsed.Host == r.Host
}
