package httpapi

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/patrickmn/go-cache"
)

// resultCache holds computed results keyed by endpoint and request body.
// Calculations are pure, so an identical body always yields the same result.
// A nil *resultCache is a cache that never hits.
type resultCache struct {
	c   *cache.Cache
	ttl time.Duration
}

func newResultCache(ttl, cleanup time.Duration) *resultCache {
	return &resultCache{c: cache.New(ttl, cleanup), ttl: ttl}
}

func cacheKey(kind string, body []byte) string {
	sum := sha256.Sum256(body)
	return kind + ":" + hex.EncodeToString(sum[:])
}

func (rc *resultCache) get(kind, key string) (any, bool) {
	if rc == nil {
		return nil, false
	}
	v, found := rc.c.Get(key)
	observeCacheLookup(kind, found)
	return v, found
}

func (rc *resultCache) set(key string, v any) {
	if rc == nil {
		return
	}
	rc.c.Set(key, v, rc.ttl)
}
