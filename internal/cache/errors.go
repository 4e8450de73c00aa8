package cache

import "errors"

// Domain-specific errors for cache operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNotFound is returned when a cache key does not exist.
	// Callers treat this as "no cached data", not a failure.
	ErrNotFound = errors.New("cache: entry not found")
)
