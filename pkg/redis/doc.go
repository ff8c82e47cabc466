// Package redis connects go-redis clients with startup retries and exposes
// a healthcheck. The billing snapshot cache and the per-tenant rate limiter
// both sit on the client this package hands out.
package redis
