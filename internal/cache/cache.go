package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key generates a namespaced cache key from raw content bytes, so
// identical page uploads hit the same entry regardless of filename.
func Key(namespace string, content []byte) string {
	hash := sha256.Sum256(content)
	return "veridoc:v1:" + namespace + ":" + hex.EncodeToString(hash[:])
}
