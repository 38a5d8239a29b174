package transfer

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/hoshipkg/hoshi/pkg/buildinfo"
	"github.com/hoshipkg/hoshi/pkg/errors"
	"github.com/hoshipkg/hoshi/pkg/observability"
	"github.com/hoshipkg/hoshi/pkg/progress"
)

const (
	defaultTimeout = 30 * time.Minute
	bufferSize     = 32 * 1024
)

// Downloader fetches URLs to files. It is safe for concurrent use.
type Downloader struct {
	client *http.Client
	logger *log.Logger
	strict bool
}

// Option configures a Downloader.
type Option func(*Downloader)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(c *http.Client) Option {
	return func(d *Downloader) {
		if c != nil {
			d.client = c
		}
	}
}

// WithLogger sets the logger for debug output.
func WithLogger(l *log.Logger) Option {
	return func(d *Downloader) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithStrictProgress makes a closed progress receiver fail the download
// with PROGRESS_CHANNEL_CLOSED.
func WithStrictProgress() Option {
	return func(d *Downloader) { d.strict = true }
}

// NewDownloader creates a Downloader. Without options it uses an HTTP
// client with a generous overall timeout and the default logger.
func NewDownloader(opts ...Option) *Downloader {
	d := &Downloader{
		client: &http.Client{Timeout: defaultTimeout},
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Download GETs url into targetDir/fileName and returns the file path.
//
// targetDir is created if missing and an existing file is truncated. Every
// failure is a TRANSFER_FAILED error; a non-2xx response carries an
// HTTP_STATUS cause. ch may be nil. Download calls ch.Finish before
// returning, whether or not it succeeded.
func (d *Downloader) Download(ctx context.Context, url, targetDir, fileName string, ch *progress.Channel) (path string, err error) {
	if ch != nil {
		defer ch.Finish()
	}
	if err := errors.ValidateFileName(fileName); err != nil {
		return "", errors.Wrap(errors.ErrCodeTransferFailed, err, "download %s", url)
	}

	hooks := observability.Acquisition()
	hooks.OnTransferStart(ctx, fileName, url)
	start := time.Now()
	var written int64
	defer func() {
		hooks.OnTransferComplete(ctx, fileName, written, time.Since(start), err)
	}()

	resp, err := d.get(ctx, url)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeTransferFailed, err, "download %s", fileName)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		cause := errors.New(errors.ErrCodeHTTPStatus, "GET %s: status %d", url, resp.StatusCode)
		return "", errors.Wrap(errors.ErrCodeTransferFailed, cause, "download %s", fileName)
	}

	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return "", errors.Wrap(errors.ErrCodeTransferFailed, err, "create download directory")
	}
	path = filepath.Join(targetDir, fileName)

	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeTransferFailed, err, "open %s", path)
	}

	em := &emitter{ch: ch, strict: d.strict, logger: d.logger, name: fileName}
	written, err = d.copy(ctx, f, resp.Body, resp.ContentLength, em)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = cerr
	}
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeTransferFailed, err, "download %s", fileName)
	}

	if err := em.send(ctx, progress.Event{Current: written, Total: resp.ContentLength, Done: true}); err != nil {
		return "", errors.Wrap(errors.ErrCodeTransferFailed, err, "download %s", fileName)
	}

	d.logger.Debug("download complete", "file", fileName, "bytes", written, "elapsed", time.Since(start).Round(time.Millisecond))
	return path, nil
}

func (d *Downloader) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", buildinfo.UserAgent())

	hooks := observability.HTTP()
	host, reqPath := req.URL.Host, req.URL.Path
	hooks.OnRequest(ctx, http.MethodGet, host, reqPath)
	start := time.Now()

	resp, err := d.client.Do(req)
	if err != nil {
		hooks.OnError(ctx, http.MethodGet, host, reqPath, err)
		return nil, err
	}
	hooks.OnResponse(ctx, http.MethodGet, host, reqPath, resp.StatusCode, time.Since(start))
	return resp, nil
}

// copy writes body to w one read at a time, emitting cumulative progress
// after each chunk reaches w.
func (d *Downloader) copy(ctx context.Context, w io.Writer, body io.Reader, total int64, em *emitter) (int64, error) {
	buf := make([]byte, bufferSize)
	var written int64
	for {
		n, rerr := body.Read(buf)
		if n > 0 {
			if _, err := w.Write(buf[:n]); err != nil {
				return written, err
			}
			written += int64(n)
			if err := em.send(ctx, progress.Event{Current: written, Total: total}); err != nil {
				return written, err
			}
		}
		if rerr == io.EOF {
			return written, nil
		}
		if rerr != nil {
			return written, rerr
		}
	}
}

// emitter forwards events to a progress channel and tracks whether the
// receiver is still listening.
type emitter struct {
	ch       *progress.Channel
	strict   bool
	detached bool
	logger   *log.Logger
	name     string
}

func (e *emitter) send(ctx context.Context, ev progress.Event) error {
	if e.ch == nil || e.detached {
		return nil
	}
	err := e.ch.Send(ctx, ev)
	if err == nil {
		return nil
	}
	if !stderrors.Is(err, progress.ErrClosed) {
		return err
	}
	if e.strict {
		return errors.Wrap(errors.ErrCodeProgressChannelClosed, err, "progress receiver for %s went away", e.name)
	}
	e.logger.Debug("progress receiver closed, continuing without progress", "file", e.name)
	e.detached = true
	return nil
}
