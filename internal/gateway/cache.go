// Package gateway is the request-interception layer: it applies a
// differentiated caching policy per resource class (map tiles, bulk JSON
// data, navigations, generic assets) and guarantees that every request
// path terminates in a response, even a synthetic one, never in a
// propagated fetch failure.
package gateway

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is the named-cache abstraction the policies run over, modelled
// on a cache-storage API: entries live in named caches and version-based
// eviction drops whole caches by name.  Implementations must be safe for
// concurrent use.
type Cache interface {
	// Get returns the payload stored under key in the named cache.
	Get(ctx context.Context, name, key string) ([]byte, bool)
	// Set stores a payload.  ttl <= 0 means no expiry (the aggressive
	// data-cache policy relies on this).
	Set(ctx context.Context, name, key string, payload []byte, ttl time.Duration)
	// DropExcept deletes every entry belonging to a cache name not in
	// keep.  Used on activation to evict stale cache generations.
	DropExcept(ctx context.Context, keep ...string) error
}

// keyPrefix namespaces gateway entries in a shared redis instance.
const keyPrefix = "gw:"

// RedisCache backs the gateway cache with redis.
type RedisCache struct {
	rdb *redis.Client
}

// NewRedisCache wraps an existing client.  Callers pass a nil-checked
// client; a nil redis connection is handled by falling back to the
// in-memory cache at wiring time, not here.
func NewRedisCache(rdb *redis.Client) *RedisCache { return &RedisCache{rdb: rdb} }

func redisKey(name, key string) string { return keyPrefix + name + ":" + key }

// Get implements Cache.
func (c *RedisCache) Get(ctx context.Context, name, key string) ([]byte, bool) {
	bs, err := c.rdb.Get(ctx, redisKey(name, key)).Bytes()
	if err != nil {
		return nil, false
	}
	return bs, true
}

// Set implements Cache.
func (c *RedisCache) Set(ctx context.Context, name, key string, payload []byte, ttl time.Duration) {
	if ttl <= 0 {
		_ = c.rdb.Set(ctx, redisKey(name, key), payload, 0).Err()
		return
	}
	_ = c.rdb.SetEx(ctx, redisKey(name, key), payload, ttl).Err()
}

// DropExcept implements Cache by scanning the gateway namespace and
// deleting keys whose cache-name segment is not kept.
func (c *RedisCache) DropExcept(ctx context.Context, keep ...string) error {
	kept := make(map[string]bool, len(keep))
	for _, k := range keep {
		kept[k] = true
	}
	iter := c.rdb.Scan(ctx, 0, keyPrefix+"*", 200).Iterator()
	for iter.Next(ctx) {
		full := iter.Val()
		rest := strings.TrimPrefix(full, keyPrefix)
		name, _, ok := strings.Cut(rest, ":")
		if !ok || kept[name] {
			continue
		}
		if err := c.rdb.Del(ctx, full).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// MemoryCache is the in-process fallback used when redis is unreachable,
// and the implementation tests run against.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]map[string]memEntry
}

type memEntry struct {
	payload []byte
	expires time.Time // zero means no expiry
}

// NewMemoryCache returns an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]map[string]memEntry)}
}

// Get implements Cache.
func (c *MemoryCache) Get(_ context.Context, name, key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[name][key]
	if !ok {
		return nil, false
	}
	if !e.expires.IsZero() && time.Now().After(e.expires) {
		return nil, false
	}
	return e.payload, true
}

// Set implements Cache.
func (c *MemoryCache) Set(_ context.Context, name, key string, payload []byte, ttl time.Duration) {
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries[name] == nil {
		c.entries[name] = make(map[string]memEntry)
	}
	c.entries[name][key] = memEntry{payload: payload, expires: exp}
}

// DropExcept implements Cache.
func (c *MemoryCache) DropExcept(_ context.Context, keep ...string) error {
	kept := make(map[string]bool, len(keep))
	for _, k := range keep {
		kept[k] = true
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for name := range c.entries {
		if !kept[name] {
			delete(c.entries, name)
		}
	}
	return nil
}
