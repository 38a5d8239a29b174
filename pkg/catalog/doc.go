// Package catalog fetches and queries constellation metadata.
//
// # Overview
//
// A constellation is a JSON document listing downloadable artifacts:
//
//	{
//	  "name": "Hoshi Core",
//	  "description": "Core packages",
//	  "packages": [
//	    {
//	      "name": "cometlib",
//	      "version": "1.0.0",
//	      "description": "Comet orbit helpers",
//	      "download_url": "http://localhost:8000/cometlib-1.0.0.tar.gz",
//	      "size_mb": 2,
//	      "archive_type": "tar.gz",
//	      "dependencies": ["stardust"]
//	    }
//	  ]
//	}
//
// [Client] retrieves these documents with caching and retry. [Find] and
// [Search] query the flattened artifact list the orchestrator works from.
//
// # Client Pattern
//
//	c := catalog.NewClient(httputil.NewCache(backend, 24*time.Hour))
//	meta, err := c.Fetch(ctx, constellation, false) // false = use cache
//
// Clients handle:
//   - HTTP requests with retry for transient failures
//   - Response caching through any [cache.Cache] backend
//   - Mapping of HTTP failures onto hoshi error codes
package catalog
