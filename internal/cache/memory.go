package cache

import (
	"context"
	"sync"
)

// DefaultMaxEntries bounds the in-memory cache. When full, an
// arbitrary entry is evicted; detection results are cheap to recompute
// so precise LRU bookkeeping is not worth the overhead.
const DefaultMaxEntries = 4096

// MemoryCache is a process-local cache. Suitable for single-instance
// deployments and tests.
type MemoryCache struct {
	mu         sync.RWMutex
	entries    map[string][]byte
	maxEntries int
}

// NewMemoryCache creates an in-memory cache. maxEntries <= 0 selects
// the default bound.
func NewMemoryCache(maxEntries int) *MemoryCache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &MemoryCache{
		entries:    make(map[string][]byte),
		maxEntries: maxEntries,
	}
}

// Get retrieves a value.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	value, ok := c.entries[key]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

// Set stores a value, evicting one arbitrary entry when full.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte) error {
	stored := make([]byte, len(value))
	copy(stored, value)

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		for k := range c.entries {
			delete(c.entries, k)
			break
		}
	}
	c.entries[key] = stored
	return nil
}

// Close is a no-op for the in-memory cache.
func (c *MemoryCache) Close() error {
	return nil
}
