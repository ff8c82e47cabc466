package ratelimit

import "errors"

var (
	ErrStoreRequired   = errors.New("store is required")
	ErrInvalidRate     = errors.New("invalid refill rate")
	ErrInvalidInterval = errors.New("invalid refill interval")
	ErrKeyRequired     = errors.New("key is required")
)
