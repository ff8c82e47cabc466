package binder

import "net/http"

// Query creates a binder for URL query parameters.
//
// Supported struct tags:
//   - `query:"name"` - binds the "name" parameter
//   - `query:"-"`    - skips the field
//
// Untagged exported fields bind by their lowercased name. Supported field
// types are strings, integers, floats, bools, pointers to those, and
// slices (multi-value parameters and comma-separated lists both work).
//
// Example:
//
//	type QRRequest struct {
//		TargetPlan string `query:"plan"`
//		Interval   string `query:"interval"`
//		Size       int    `query:"size"`
//	}
func Query() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		query := r.URL.Query()
		if len(query) == 0 {
			return nil
		}
		return bindToStruct(v, "query", query, ErrFailedToParseQuery)
	}
}
