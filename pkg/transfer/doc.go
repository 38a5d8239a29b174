// Package transfer downloads a single artifact over HTTP while streaming
// progress events.
//
// A [Downloader] performs exactly one GET per call. It never retries: retry
// policy, if any, belongs to the caller. The response body is copied to disk
// chunk by chunk, each chunk written before the next one is read, and a
// cumulative [progress.Event] is sent after every chunk. The final event has
// Done set.
//
// # Progress receivers
//
// The progress channel may be nil when the caller does not care about
// progress. When the receiver closes the channel mid-download, the default
// behavior is to stop emitting and finish the download. [WithStrictProgress]
// turns a closed receiver into a PROGRESS_CHANNEL_CLOSED failure instead.
package transfer
