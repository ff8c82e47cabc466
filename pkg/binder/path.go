package binder

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Path creates a binder for chi route parameters.
//
// Supported struct tags:
//   - `path:"name"` - binds the {name} route parameter
//   - `path:"-"`    - skips the field
//
// Requests routed outside a chi router carry no route context and are
// reported as not applicable.
//
// Example:
//
//	// route: /features/{feature}
//	type FeatureRequest struct {
//		Feature string `path:"feature"`
//	}
func Path() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		rctx := chi.RouteContext(r.Context())
		if rctx == nil {
			return ErrBinderNotApplicable
		}

		params := make(map[string][]string, len(rctx.URLParams.Keys))
		for i, key := range rctx.URLParams.Keys {
			if key == "*" {
				continue
			}
			params[key] = []string{rctx.URLParams.Values[i]}
		}
		if len(params) == 0 {
			return nil
		}

		return bindToStruct(v, "path", params, ErrFailedToParsePath)
	}
}
