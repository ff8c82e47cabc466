// Package handler provides type-safe HTTP request handling for the
// Vetify billing API.
//
// The package centers around generic handler functions that bind HTTP
// requests to Go structs and return typed responses, eliminating manual
// request parsing and response encoding:
//
//	type UpgradeRequest struct {
//		TargetPlan string `json:"target_plan"`
//		FromTrial  bool   `json:"from_trial"`
//	}
//
//	func upgrade(ctx handler.Context, req UpgradeRequest) handler.Response {
//		result, err := billing.Upgrade(ctx, req)
//		if err != nil {
//			return handler.JSONError(err)
//		}
//		return handler.JSON(result)
//	}
//
//	http.HandleFunc("/upgrade", handler.Wrap(upgrade,
//		handler.WithBinders[handler.Context, UpgradeRequest](binder.JSON()),
//	))
//
// # Architecture
//
// 1. HandlerFunc - generic function type accepting typed requests
// 2. Response - common interface for JSON, redirect, and empty responses
// 3. Context - request-scoped context with access to request and writer
// 4. Decorators - middleware-like wrappers for cross-cutting concerns
// 5. Error handlers - customizable error classification and rendering
//
// # Response Types
//
// JSON responses wrap payloads in a stable {data, meta, error} envelope:
//
//	handler.JSON(data)                      // 200 OK with data
//	handler.JSON(data, WithJSONStatus(201)) // custom status
//	handler.JSONError(err)                  // classified error response
//
// Redirects and empty responses:
//
//	handler.Redirect("/dashboard")  // 303 See Other
//	handler.RedirectBack("/")       // back to same-host referrer
//	handler.Empty()                 // 204 No Content
//
// # Error Classification
//
// Errors returned by handlers are classified before rendering: HTTPError
// values carry their own status code and stable error key, ValidationError
// maps to 422 with per-field details, and everything else becomes an
// opaque 500. NewErrorHandler builds the logging error handler used
// across the API.
package handler
