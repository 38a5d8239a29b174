// Package httputil provides HTTP utilities for constellation clients.
//
// # Overview
//
// This package provides infrastructure used by the catalog client:
//
//   - [Cache]: JSON response caching over a [cache.Cache] backend
//   - [Retry]: Automatic retry with exponential backoff
//
// # Caching
//
// [Cache] stores decoded constellation documents with a configurable TTL,
// so repeated searches and merges do not refetch metadata:
//
//	c := httputil.NewCache(backend, 24*time.Hour)
//	var doc catalog.Metadata
//	if ok, _ := c.Get(ctx, key, &doc); !ok {
//	    doc = fetch()
//	    _ = c.Set(ctx, key, doc)
//	}
//
// # Retry
//
// [Retry] re-runs an operation for transient failures only. Callers mark
// such failures (network errors, 5xx responses) with [RetryableError]:
//
//	err := httputil.RetryWithBackoff(ctx, func() error {
//	    resp, err := client.Do(req)
//	    if err != nil {
//	        return httputil.Retryable(err)
//	    }
//	    ...
//	})
//
// Artifact downloads are deliberately not retried here; see package transfer.
//
// # Configuration
//
// Default settings are suitable for most use cases:
//
//   - Default TTL: 24 hours
//   - Max retries: 3
//   - Base backoff: 1 second
//
// The cache can be cleared via `hoshi cache clear`.
package httputil
