// Package progress carries download progress from a transfer to a display.
//
// A [Channel] is a bounded queue between exactly one sender (the transfer)
// and one receiver (an [Aggregator]). Unlike a bare Go channel it has an
// explicit open/closed state on both ends:
//
//   - The receiver calls [Channel.Close] when it stops listening. Subsequent
//     sends fail with [ErrClosed] instead of blocking forever.
//   - The sender calls [Channel.Finish] when it will send nothing more. A
//     receiver that never saw a Done event drains what is buffered and stops.
//
// The [Aggregator] turns the raw event stream into [Snapshot] values carrying
// current bytes, the best known total and a throughput estimate, and pushes
// them to an [Observer].
//
// # Usage
//
//	ch := progress.NewChannel(progress.DefaultBuffer)
//	go progress.NewAggregator().Run(ch, display)
//	path, err := downloader.Download(ctx, url, dir, name, ch)
package progress
