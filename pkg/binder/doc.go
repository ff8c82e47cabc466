// Package binder parses HTTP requests into typed structs for the handler
// framework.
//
// Each binder processes one source of request data, selected by struct
// tag, and multiple binders can run in sequence over the same target:
//
//	type UpgradeQRRequest struct {
//		TargetPlan string `query:"plan"`
//		Interval   string `query:"interval"`
//	}
//
//	type FeatureRequest struct {
//		Feature string `path:"feature"`
//	}
//
// Binders report binder.ErrBinderNotApplicable for requests they cannot
// serve (a JSON binder on a GET request, for example) so handlers can
// stack them safely; any other error is a client input failure.
//
// JSON binding is strict: the content type must be application/json,
// unknown fields are rejected, bodies are size-limited, and every decoded
// string field is run through the sanitizer pipeline (trim + control
// character removal).
package binder
