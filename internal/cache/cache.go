// Package cache provides a small key-value cache abstraction used to
// memoize detection results by content hash. Supports in-memory, local
// file, and Redis backends for multi-instance deployments.
package cache

import "context"

// Cache defines the interface for detection-result storage.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get retrieves the value stored under key.
	// Returns nil, nil on a miss.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value under key.
	Set(ctx context.Context, key string, value []byte) error

	// Close releases any resources held by the cache.
	Close() error
}
