package clientip

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// FromRequest resolves the client address from proxy headers, falling
// back to the TCP peer address. It returns an empty string when nothing
// parses as a valid IP.
func FromRequest(r *http.Request) string {
	if ip := normalize(r.Header.Get("CF-Connecting-IP")); ip != "" {
		return ip
	}

	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		for _, entry := range strings.Split(forwarded, ",") {
			if ip := normalize(entry); ip != "" {
				return ip
			}
		}
	}

	if ip := normalize(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr without a port, likely already a bare IP.
		return normalize(r.RemoteAddr)
	}
	return normalize(host)
}

// normalize parses and canonicalizes an address, returning "" when it
// is not a valid IP.
func normalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	addr, err := netip.ParseAddr(s)
	if err != nil {
		return ""
	}
	return addr.String()
}
