package binder

import "errors"

// Common binding errors
var (
	// ErrBinderNotApplicable signals that a binder does not apply to the
	// request (wrong method or content type) and should be skipped rather
	// than treated as a failure.
	ErrBinderNotApplicable = errors.New("binder not applicable to request")

	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrFailedToParseJSON    = errors.New("failed to parse JSON request body")
	ErrFailedToParseQuery   = errors.New("failed to parse query parameters")
	ErrFailedToParsePath    = errors.New("failed to parse path parameters")
	ErrMissingContentType   = errors.New("missing content type")
)
