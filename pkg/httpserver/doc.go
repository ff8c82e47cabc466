// Package httpserver runs the application's HTTP listener with graceful
// shutdown wired to SIGINT/SIGTERM and context cancellation, plus the
// health endpoint handler used for liveness and readiness probes.
package httpserver
