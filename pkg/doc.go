// Package pkg provides the core libraries for hoshi package acquisition.
//
// # Overview
//
// Hoshi resolves a package against one or more constellation metadata
// documents, downloads it together with its direct dependencies, unpacks
// each archive into an install tree and records what was installed in a
// local registry. The pkg directory is organized into three areas:
//
//  1. Acquisition - [merge], [transfer], [progress], [archive]
//  2. State - [registry], [catalog], [cache], [config]
//  3. Plumbing - [httputil], [observability], [errors], [server], [buildinfo]
//
// # Architecture
//
// The data flow of a merge:
//
//	Constellation documents (HTTP, cached)
//	         ↓
//	    [catalog] package (fetch + flatten artifacts)
//	         ↓
//	    [merge] package (resolve, confirm, orchestrate)
//	         ↓
//	    [transfer] + [progress] (parallel downloads with live progress)
//	         ↓
//	    [archive] package (extract zip / tar / tar.gz / tar.bz2 / tar.xz)
//	         ↓
//	    [registry] package (record installed packages)
//
// # Quick Start
//
//	results := catalog.NewClient(nil).FetchAll(ctx, catalog.DefaultConstellations(), false)
//	runner := merge.NewRunner(registry.NewStore("registry.json"), nil, logger)
//	res, err := runner.Run(ctx, catalog.Artifacts(results), "cometlib")
//
// # Main Packages
//
// [merge] - The merge state machine. Resolves the target and its direct
// dependencies, asks a [merge.Confirmer], downloads everything concurrently
// behind a single barrier, extracts sequentially and saves the registry once.
//
// [transfer] - Streaming HTTP downloads that report byte-level progress
// events on a channel and fail with a typed error on non-2xx responses.
//
// [progress] - Progress events and the aggregator that turns them into
// snapshots with throughput estimates for a display.
//
// [archive] - Codecs for every supported archive kind. Extraction rejects
// entries that would escape the output directory.
//
// [registry] - The installed-package registry and its file store. Saves are
// atomic and guarded by a cross-process file lock.
//
// [catalog] - Constellation documents: fetching, flattening, searching.
//
// [cache] - File, Redis and null cache backends with hashed keys.
//
// [config] - TOML configuration with environment overrides.
//
// [server] - A static file server for constellation documents and archives.
//
// [merge]: https://pkg.go.dev/github.com/hoshipkg/hoshi/pkg/merge
// [transfer]: https://pkg.go.dev/github.com/hoshipkg/hoshi/pkg/transfer
// [progress]: https://pkg.go.dev/github.com/hoshipkg/hoshi/pkg/progress
// [archive]: https://pkg.go.dev/github.com/hoshipkg/hoshi/pkg/archive
// [registry]: https://pkg.go.dev/github.com/hoshipkg/hoshi/pkg/registry
// [catalog]: https://pkg.go.dev/github.com/hoshipkg/hoshi/pkg/catalog
// [cache]: https://pkg.go.dev/github.com/hoshipkg/hoshi/pkg/cache
// [config]: https://pkg.go.dev/github.com/hoshipkg/hoshi/pkg/config
// [httputil]: https://pkg.go.dev/github.com/hoshipkg/hoshi/pkg/httputil
// [observability]: https://pkg.go.dev/github.com/hoshipkg/hoshi/pkg/observability
// [errors]: https://pkg.go.dev/github.com/hoshipkg/hoshi/pkg/errors
// [server]: https://pkg.go.dev/github.com/hoshipkg/hoshi/pkg/server
// [buildinfo]: https://pkg.go.dev/github.com/hoshipkg/hoshi/pkg/buildinfo
// [merge.Confirmer]: https://pkg.go.dev/github.com/hoshipkg/hoshi/pkg/merge#Confirmer
package pkg
