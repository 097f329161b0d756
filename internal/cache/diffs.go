package cache

import (
	"encoding/json"
	"time"

	"github.com/ppiankov/codelens/internal/model"
)

// DiffCache stores DifferenceResults keyed by the two compared texts.
// Fallback results are never stored.
type DiffCache struct {
	backend Cache
	ttl     time.Duration
}

// NewDiffCache wraps a byte cache
func NewDiffCache(backend Cache, ttl time.Duration) *DiffCache {
	return &DiffCache{backend: backend, ttl: ttl}
}

// DiffKey is the cache key for comparing textA with textB (order matters)
func DiffKey(textA, textB string) string {
	return Key("diff", textA, textB)
}

// Get returns the cached result for the pair, if any
func (c *DiffCache) Get(textA, textB string) (model.DifferenceResult, bool) {
	var result model.DifferenceResult
	raw, ok := c.backend.Get(DiffKey(textA, textB))
	if !ok {
		return result, false
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return model.DifferenceResult{}, false
	}
	return result, true
}

// Put stores a result for the pair
func (c *DiffCache) Put(textA, textB string, result model.DifferenceResult) error {
	if result.Diagnostics.Fallback {
		return nil
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return c.backend.Set(DiffKey(textA, textB), raw, c.ttl)
}

// Stats returns the backend's hit and miss counts when it keeps them
func (c *DiffCache) Stats() (hits, misses int64, ok bool) {
	counter, ok := c.backend.(interface{ Stats() (int64, int64) })
	if !ok {
		return 0, 0, false
	}
	hits, misses = counter.Stats()
	return hits, misses, true
}
