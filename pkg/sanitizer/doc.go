// Package sanitizer provides small, stateless helpers for cleaning and
// normalising inbound data before it is stored or rendered.
//
// The helpers are focused functions that can be freely combined; the
// higher-order Apply and Compose helpers build sanitisation pipelines:
//
//	clean := sanitizer.Compose(
//	    sanitizer.Trim,
//	    sanitizer.RemoveControlChars,
//	)
//
//	safe := clean("  clínica\x00 norte ") // "clínica norte"
//
// The request binder runs every decoded string field through such a
// pipeline, and contact emails are normalised with NormalizeEmail before
// transactional sends.
package sanitizer
