package httpserver

import "errors"

var (
	// ErrStart indicates that the server failed to start or crashed.
	ErrStart = errors.New("failed to start HTTP server")
	// ErrShutdown indicates the graceful drain did not complete in time.
	ErrShutdown = errors.New("failed to shutdown HTTP server gracefully")
)
