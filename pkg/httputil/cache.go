package httputil

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/hoshipkg/hoshi/pkg/cache"
	"github.com/hoshipkg/hoshi/pkg/observability"
)

// Cache stores JSON-marshalable values in a [cache.Cache] backend.
//
// The backend decides where bytes live (files, Redis, nowhere); Cache adds
// JSON encoding, a fixed TTL and key namespacing. Expired entries are
// reported as misses by the backend.
//
// Use [Cache.Namespace] to create scoped views that automatically prefix
// keys. The catalog client gives each constellation its own view, so cache
// hooks report hits and misses per constellation:
//
//	core := c.Namespace("hoshi-core:")
//	core.Set(ctx, "metadata", doc)  // key becomes "hoshi-core:metadata"
type Cache struct {
	backend cache.Cache
	ttl     time.Duration
	prefix  string
}

// NewCache creates a Cache over backend with the given TTL.
// A nil backend never stores anything. A TTL of 0 means entries never expire.
func NewCache(backend cache.Cache, ttl time.Duration) *Cache {
	if backend == nil {
		backend = cache.NewNullCache()
	}
	return &Cache{backend: backend, ttl: ttl}
}

// Get retrieves a cached value by key and unmarshals it into v.
//
// Return values indicate three distinct outcomes:
//   - (true, nil): Cache hit. The value was found and unmarshaled into v.
//   - (false, nil): Cache miss. v is unchanged.
//   - (false, error): Backend or JSON error. v may be partially modified.
func (c *Cache) Get(ctx context.Context, key string, v any) (bool, error) {
	data, ok, err := c.backend.Get(ctx, c.prefix+key)
	if err != nil {
		return false, err
	}
	if !ok {
		observability.Cache().OnCacheMiss(ctx, c.keyType())
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, err
	}
	observability.Cache().OnCacheHit(ctx, c.keyType())
	return true, nil
}

// Set stores a value in the cache under the given key, resetting its TTL.
func (c *Cache) Set(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := c.backend.Set(ctx, c.prefix+key, data, c.ttl); err != nil {
		return err
	}
	observability.Cache().OnCacheSet(ctx, c.keyType(), len(data))
	return nil
}

// Namespace returns a new Cache that automatically prefixes all keys with prefix.
//
// The returned Cache shares the same backend and TTL as the parent.
// Namespace calls can be chained to create hierarchical key spaces:
//
//	c.Namespace("catalog:").Namespace("core:")  // prefix: "catalog:core:"
func (c *Cache) Namespace(prefix string) *Cache {
	return &Cache{
		backend: c.backend,
		ttl:     c.ttl,
		prefix:  c.prefix + prefix,
	}
}

// keyType names the namespace in cache hook events.
func (c *Cache) keyType() string {
	if c.prefix == "" {
		return "default"
	}
	return strings.TrimSuffix(c.prefix, ":")
}
