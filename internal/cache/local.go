package cache

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// LocalCache implements Cache using one file per key under a
// directory. Suitable for single-instance deployments that want the
// cache to survive restarts.
type LocalCache struct {
	mu  sync.RWMutex
	dir string
}

// NewLocalCache creates a file-backed cache rooted at dir.
func NewLocalCache(dir string) *LocalCache {
	return &LocalCache{dir: dir}
}

// Get retrieves a value from its file.
func (c *LocalCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.dir == "" {
		return nil, nil
	}

	data, err := os.ReadFile(c.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // no entry yet, not an error
		}
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}
	return data, nil
}

// Set stores a value, writing atomically via temp file + rename.
func (c *LocalCache) Set(_ context.Context, key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.dir == "" {
		return nil
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	path := c.path(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, value, 0o644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to rename cache file: %w", err)
	}
	return nil
}

// Close is a no-op for the local cache.
func (c *LocalCache) Close() error {
	return nil
}

// path maps a key to a filename. Keys are hex-encoded so arbitrary
// key bytes cannot escape the cache directory.
func (c *LocalCache) path(key string) string {
	return filepath.Join(c.dir, hex.EncodeToString([]byte(key))+".cache")
}
