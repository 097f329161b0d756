// Package cache memoizes comparison results in memory and on disk.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// keyVersion changes whenever the cached payload format or the analysis
// producing it changes, invalidating older entries
const keyVersion = "codelens:v1:"

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives a cache key from an ordered list of inputs. Each part is
// length-prefixed so ("ab", "c") and ("a", "bc") never collide.
func Key(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		var size [8]byte
		n := uint64(len(p))
		for i := range size {
			size[i] = byte(n >> (8 * i))
		}
		h.Write(size[:])
		h.Write([]byte(p))
	}
	return keyVersion + hex.EncodeToString(h.Sum(nil))
}
