// Package cache provides byte-level storage backends for catalog responses.
//
// Three backends implement [Cache]:
//
//   - [FileCache]: one JSON file per entry under a directory (CLI default)
//   - [RedisCache]: a shared Redis instance, for teams running hoshi against
//     the same constellations from several machines
//   - [NullCache]: stores nothing, used with --no-cache
//
// Keys are built by a [Keyer] so that backends never see raw URLs.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte values with an optional time-to-live.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of 0 means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Clearer is implemented by backends that can drop every entry they own.
type Clearer interface {
	// Clear removes all entries and returns how many were removed.
	Clear(ctx context.Context) (int, error)
}

// Keyer builds cache keys.
type Keyer interface {
	// CatalogKey returns the key for a parsed constellation document.
	CatalogKey(metadataURL string) string
}

// DefaultKeyer hashes key material so keys have a fixed shape.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// CatalogKey returns "catalog:<sha256 of url>".
func (DefaultKeyer) CatalogKey(metadataURL string) string {
	return hashKey("catalog", metadataURL)
}
