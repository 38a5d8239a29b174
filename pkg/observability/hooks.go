// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about downloads, extraction, registry writes, cache
// operations, and catalog requests.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This approach:
//   - Avoids import cycles (hooks are registered by main, not by libraries)
//   - Keeps the core library dependency-free from observability frameworks
//   - Allows different backends (OpenTelemetry, Prometheus, DataDog, etc.)
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetAcquisitionHooks(&myAcquisitionHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Acquisition().OnTransferStart(ctx, name, url)
//	// ... download ...
//	observability.Acquisition().OnTransferComplete(ctx, name, bytes, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Acquisition Hooks
// =============================================================================

// AcquisitionHooks receives events from the download/extract/register pipeline.
type AcquisitionHooks interface {
	// Transfer events
	OnTransferStart(ctx context.Context, artifact, url string)
	OnTransferComplete(ctx context.Context, artifact string, bytes int64, duration time.Duration, err error)

	// Extraction events
	OnExtractStart(ctx context.Context, artifact, kind string)
	OnExtractComplete(ctx context.Context, artifact, kind string, duration time.Duration, err error)

	// OnRegistrySave records the single registry write at the end of a run.
	OnRegistrySave(ctx context.Context, records int, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from HTTP client operations.
type HTTPHooks interface {
	// OnRequest records an outgoing HTTP request.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records an HTTP error (network failure, timeout).
	OnError(ctx context.Context, method, host, path string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopAcquisitionHooks is a no-op implementation of AcquisitionHooks.
type NoopAcquisitionHooks struct{}

func (NoopAcquisitionHooks) OnTransferStart(context.Context, string, string) {}
func (NoopAcquisitionHooks) OnTransferComplete(context.Context, string, int64, time.Duration, error) {
}
func (NoopAcquisitionHooks) OnExtractStart(context.Context, string, string) {}
func (NoopAcquisitionHooks) OnExtractComplete(context.Context, string, string, time.Duration, error) {
}
func (NoopAcquisitionHooks) OnRegistrySave(context.Context, int, error) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	acquisitionHooks AcquisitionHooks = NoopAcquisitionHooks{}
	cacheHooks       CacheHooks       = NoopCacheHooks{}
	httpHooks        HTTPHooks        = NoopHTTPHooks{}
	hooksMu          sync.RWMutex
)

// SetAcquisitionHooks registers custom acquisition hooks.
// This should be called once at application startup before any merge runs.
func SetAcquisitionHooks(h AcquisitionHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		acquisitionHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
// This should be called once at application startup before any HTTP operations.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Acquisition returns the registered acquisition hooks.
func Acquisition() AcquisitionHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return acquisitionHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	acquisitionHooks = NoopAcquisitionHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
