package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/hoshipkg/hoshi/pkg/observability"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// timer logs completion of an operation with its elapsed duration.
type timer struct {
	logger *log.Logger
	start  time.Time
}

func newTimer(l *log.Logger) *timer {
	return &timer{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time, e.g. "Synced 42 packages (1.234s)".
func (t *timer) done(msg string) {
	t.logger.Infof("%s (%s)", msg, time.Since(t.start).Round(time.Millisecond))
}

// =============================================================================
// Observability hooks
// =============================================================================

// logHooks reports pipeline, cache and HTTP events at debug level.
type logHooks struct {
	logger *log.Logger
}

var (
	_ observability.AcquisitionHooks = logHooks{}
	_ observability.CacheHooks       = logHooks{}
	_ observability.HTTPHooks        = logHooks{}
)

func newLogHooks(l *log.Logger) logHooks {
	return logHooks{logger: l}
}

func (h logHooks) OnTransferStart(_ context.Context, artifact, url string) {
	h.logger.Debug("transfer started", "file", artifact, "url", url)
}

func (h logHooks) OnTransferComplete(_ context.Context, artifact string, bytes int64, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("transfer failed", "file", artifact, "error", err, "duration", d.Round(time.Millisecond))
		return
	}
	h.logger.Debug("transfer complete", "file", artifact, "bytes", bytes, "duration", d.Round(time.Millisecond))
}

func (h logHooks) OnExtractStart(_ context.Context, artifact, kind string) {
	h.logger.Debug("extract started", "artifact", artifact, "kind", kind)
}

func (h logHooks) OnExtractComplete(_ context.Context, artifact, kind string, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("extract failed", "artifact", artifact, "kind", kind, "error", err)
		return
	}
	h.logger.Debug("extract complete", "artifact", artifact, "kind", kind, "duration", d.Round(time.Millisecond))
}

func (h logHooks) OnRegistrySave(_ context.Context, records int, err error) {
	if err != nil {
		h.logger.Debug("registry save failed", "records", records, "error", err)
		return
	}
	h.logger.Debug("registry saved", "records", records)
}

func (h logHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "constellation", keyType)
}

func (h logHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "constellation", keyType)
}

func (h logHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache stored", "constellation", keyType, "bytes", size)
}

func (h logHooks) OnRequest(_ context.Context, method, host, path string) {
	h.logger.Debug("http request", "method", method, "host", host, "path", path)
}

func (h logHooks) OnResponse(_ context.Context, method, host, path string, status int, d time.Duration) {
	h.logger.Debug("http response", "method", method, "host", host, "path", path, "status", status, "duration", d.Round(time.Millisecond))
}

func (h logHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.logger.Debug("http error", "method", method, "host", host, "path", path, "error", err)
}
