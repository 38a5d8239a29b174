package cache

// ScopedKeyer wraps a Keyer with a prefix. The CLI scopes catalog keys by
// document layout version so entries written by an older layout are never
// decoded into the current one.
//
// Example usage:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "v1:")
//	keyer.CatalogKey(url) // "v1:catalog:<hash>"
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// CatalogKey generates a prefixed key for constellation caching.
func (k *ScopedKeyer) CatalogKey(metadataURL string) string {
	return k.prefix + k.inner.CatalogKey(metadataURL)
}
