// Package clientip resolves the originating client address of an
// *http.Request behind one or more reverse proxies.
//
// Headers are examined in descending priority until a valid address is
// found:
//
//  1. CF-Connecting-IP – set by Cloudflare
//  2. X-Forwarded-For  – comma-separated list, first valid entry wins
//  3. X-Real-IP        – set by reverse proxies such as Nginx
//  4. RemoteAddr       – TCP peer address as a fallback
//
// FromRequest never fails; it returns an empty string when no valid
// address can be determined. Middleware stores the resolved address in
// the request context for downstream handlers:
//
//	r.Use(clientip.Middleware)
//	...
//	ip := clientip.FromContext(r.Context())
package clientip
