package binder

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/Ealanisln/vetify-sub011/pkg/sanitizer"
)

// DefaultMaxJSONSize is the maximum accepted JSON request body (1MB).
const DefaultMaxJSONSize = 1 << 20

// sanitizeString is applied to every decoded string field. Control
// characters go first so whitespace they hid behind is trimmed too.
var sanitizeString = sanitizer.Compose(
	sanitizer.RemoveControlChars,
	sanitizer.Trim,
)

// JSON creates a strict JSON body binder. Requests without a body
// (GET, HEAD) are reported as not applicable so the binder can be
// stacked with query and path binders on mixed-method routes.
//
// Example:
//
//	http.HandleFunc("/upgrade", handler.Wrap(upgrade,
//		handler.WithBinders[handler.Context, UpgradeRequest](binder.JSON()),
//	))
func JSON() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			return ErrBinderNotApplicable
		}

		if err := r.Context().Err(); err != nil {
			return fmt.Errorf("%w: request canceled", ErrFailedToParseJSON)
		}

		contentType := r.Header.Get("Content-Type")
		if contentType == "" {
			return fmt.Errorf("%w: expected application/json", ErrMissingContentType)
		}
		if mediaType(contentType) != "application/json" {
			return fmt.Errorf("%w: got %s, expected application/json", ErrUnsupportedMediaType, contentType)
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, DefaultMaxJSONSize+1))
		if err != nil {
			return fmt.Errorf("%w: reading request body: %v", ErrFailedToParseJSON, err)
		}
		if len(body) > DefaultMaxJSONSize {
			return fmt.Errorf("%w: request body too large (max %d bytes)", ErrFailedToParseJSON, DefaultMaxJSONSize)
		}

		decoder := json.NewDecoder(bytes.NewReader(body))
		decoder.DisallowUnknownFields()

		if err := decoder.Decode(v); err != nil {
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("%w: empty body", ErrFailedToParseJSON)
			}
			return fmt.Errorf("%w: %v", ErrFailedToParseJSON, err)
		}

		// Reject trailing garbage after the JSON value.
		if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: unexpected data after JSON value", ErrFailedToParseJSON)
		}

		sanitizeStrings(reflect.ValueOf(v))
		return nil
	}
}

// mediaType strips parameters like "; charset=utf-8" from a content type.
func mediaType(contentType string) string {
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = contentType[:idx]
	}
	return strings.TrimSpace(contentType)
}

// sanitizeStrings walks the decoded value and runs every settable string
// through the sanitizer pipeline.
func sanitizeStrings(rv reflect.Value) {
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		if !rv.IsNil() {
			sanitizeStrings(rv.Elem())
		}

	case reflect.String:
		if rv.CanSet() {
			rv.SetString(sanitizeString(rv.String()))
		}

	case reflect.Struct:
		for i := 0; i < rv.NumField(); i++ {
			if field := rv.Field(i); field.CanSet() {
				sanitizeStrings(field)
			}
		}

	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			sanitizeStrings(rv.Index(i))
		}

	case reflect.Map:
		// Map values are not addressable; rebuild string values in place.
		if elemType := rv.Type().Elem(); elemType.Kind() == reflect.String {
			for _, key := range rv.MapKeys() {
				clean := sanitizeString(rv.MapIndex(key).String())
				rv.SetMapIndex(key, reflect.ValueOf(clean).Convert(elemType))
			}
		}
	}
}
