package detect

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/cespare/xxhash/v2"

	"piigate/internal/cache"
	"piigate/internal/core"
)

// CachingDetector memoizes detection results by content hash. The
// same text always yields the same entities from a deterministic
// backend, and even model-backed detectors are close enough to
// deterministic that replaying the first answer is the desired
// behavior.
//
// Cache failures are logged and bypassed: a broken cache degrades to
// direct detection, never to a failed call.
type CachingDetector struct {
	base  core.Detector
	cache cache.Cache
}

// NewCachingDetector wraps a detector with a cache.
func NewCachingDetector(base core.Detector, c cache.Cache) *CachingDetector {
	return &CachingDetector{base: base, cache: c}
}

// Detect returns cached entities when the text has been seen before.
func (d *CachingDetector) Detect(ctx context.Context, text string) ([]core.Entity, error) {
	key := contentKey(text)

	if data, err := d.cache.Get(ctx, key); err != nil {
		slog.Warn("detection cache read failed", "error", err)
	} else if data != nil {
		var entities []core.Entity
		if err := json.Unmarshal(data, &entities); err == nil {
			return entities, nil
		}
		slog.Warn("detection cache entry corrupt, re-detecting", "key", key)
	}

	entities, err := d.base.Detect(ctx, text)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(entities); err == nil {
		if err := d.cache.Set(ctx, key, data); err != nil {
			slog.Warn("detection cache write failed", "error", err)
		}
	}
	return entities, nil
}

// contentKey hashes the text into a fixed-size cache key.
func contentKey(text string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(text))
}
