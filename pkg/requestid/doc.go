// Package requestid attaches a correlation identifier to every HTTP
// request so log records produced while serving it can be tied back
// together.
//
// Middleware reuses a client-supplied X-Request-ID header when it looks
// sane, otherwise it generates a UUID. The chosen ID is stored in the
// request context, echoed in the response header, and exposed to
// structured logs through LoggerExtractor:
//
//	log := logger.New(logger.WithContextExtractors(requestid.LoggerExtractor()))
//	r.Use(requestid.Middleware)
package requestid
