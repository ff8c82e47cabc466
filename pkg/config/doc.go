// Package config loads typed configuration structs from environment
// variables, with optional .env support for local development.
//
// It is a thin layer over github.com/caarlos0/env and
// github.com/joho/godotenv that adds per-type caching: each configuration
// struct is parsed once per process and every later Load of the same type
// returns the identical copy. Components declare their own config types
// (pg.Config, redis.Config, httpserver.Config) and load them independently
// without coordinating.
//
// Usage:
//
//	var cfg billing.Config
//	config.MustLoad(&cfg)
package config
