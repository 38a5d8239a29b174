// Package merge acquires an artifact and its direct dependencies.
//
// A merge run moves through a fixed sequence of states:
//
//	Resolving → Confirmed → Downloading → Extracting → Registering → Done
//
// with Aborted reachable when the target is missing, the user declines, or
// (under [AllOrNothing]) any download or extraction fails.
//
// # Resolving
//
// [Resolve] finds the exact-name match in the flattened catalog and adds
// each direct dependency once. Missing dependencies are warnings, not
// failures. Dependencies of dependencies are not followed.
//
// # Downloading
//
// Every artifact is downloaded concurrently, each paired with a
// [progress.Aggregator] feeding the [Display]. A failed download does not
// cancel its siblings: the runner waits for all of them at one barrier
// before looking at any result.
//
// # Extracting and Registering
//
// Archives are extracted one at a time into <install>/<name>/<version>,
// using the codec for the artifact's declared kind. The registry is loaded
// once (under a file lock) after confirmation and saved once at the end.
// Under AllOrNothing a single failure leaves the registry file untouched;
// under [PerArtifact] the successful artifacts are registered and the
// failures reported in [Result.Failures].
package merge
