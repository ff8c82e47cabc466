// Package logger builds slog loggers with the conventions this codebase
// relies on: JSON output in deployed environments, text locally, and
// context-driven attribute injection so request and tenant identifiers show
// up on every record without being threaded through call sites.
//
// Construction:
//
//	log := logger.New(
//	    logger.WithEnvironment(cfg.Environment, "vetify"),
//	    logger.WithContextExtractors(
//	        requestid.LoggerExtractor(),
//	        tenant.LoggerExtractor(),
//	    ),
//	)
//	logger.SetAsDefault(log)
//
// The attr helpers (logger.TenantID, logger.Plan, logger.Error) pin the
// attribute keys other packages and dashboards depend on.
package logger
