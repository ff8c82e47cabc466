// Package pg wires PostgreSQL for the application: pgx pool construction
// with startup retries, goose migrations bridged through database/sql, a
// healthcheck for the HTTP server, and helpers for the SQLSTATE checks the
// storage layers branch on.
package pg
