package catalog

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/hoshipkg/hoshi/pkg/buildinfo"
	"github.com/hoshipkg/hoshi/pkg/cache"
	"github.com/hoshipkg/hoshi/pkg/errors"
	"github.com/hoshipkg/hoshi/pkg/httputil"
	"github.com/hoshipkg/hoshi/pkg/observability"
)

const httpTimeout = 10 * time.Second

// Client fetches constellation documents.
// It handles caching, retry logic, and error classification.
type Client struct {
	http   *http.Client
	cache  *httputil.Cache
	keyer  cache.Keyer
	logger *log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithKeyer sets the cache key builder.
func WithKeyer(k cache.Keyer) Option {
	return func(c *Client) {
		if k != nil {
			c.keyer = k
		}
	}
}

// WithLogger sets the logger for debug output.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a Client backed by the given response cache.
// A nil cache disables caching.
func NewClient(c *httputil.Cache, opts ...Option) *Client {
	if c == nil {
		c = httputil.NewCache(nil, 0)
	}
	client := &Client{
		http:   &http.Client{Timeout: httpTimeout},
		cache:  c,
		keyer:  cache.NewDefaultKeyer(),
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Fetch returns the metadata document for con. If refresh is true the cache
// is bypassed and the fresh document replaces any cached copy.
func (c *Client) Fetch(ctx context.Context, con Constellation, refresh bool) (*Metadata, error) {
	if err := errors.ValidateURL(con.MetadataURL); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "constellation %s", con.Name)
	}

	var meta Metadata
	store := c.cache.Namespace(strings.ToLower(con.Name) + ":")
	key := c.keyer.CatalogKey(con.MetadataURL)
	err := c.cached(ctx, store, key, refresh, &meta, func() error {
		// A cache entry that failed to decode may have filled meta partway.
		var fresh Metadata
		if err := c.get(ctx, con.MetadataURL, &fresh); err != nil {
			return err
		}
		meta = fresh
		return nil
	})
	if err != nil {
		code := errors.GetCode(err)
		if code == "" {
			code = errors.ErrCodeNetwork
		}
		return nil, errors.Wrap(code, err, "fetch constellation %s", con.Name)
	}
	c.logger.Debug("constellation loaded", "constellation", con.Name, "packages", len(meta.Packages))
	return &meta, nil
}

// Result is the outcome of fetching one constellation.
type Result struct {
	Constellation Constellation
	Metadata      *Metadata
	Err           error
}

// FetchAll fetches every constellation concurrently. A failure of one
// constellation is reported in its Result and does not affect the others.
// Results are in input order.
func (c *Client) FetchAll(ctx context.Context, cons []Constellation, refresh bool) []Result {
	results := make([]Result, len(cons))
	var g errgroup.Group
	for i, con := range cons {
		g.Go(func() error {
			meta, err := c.Fetch(ctx, con, refresh)
			results[i] = Result{Constellation: con, Metadata: meta, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Artifacts flattens successful results into one list, in result order.
func Artifacts(results []Result) []Artifact {
	var out []Artifact
	for _, r := range results {
		if r.Err == nil && r.Metadata != nil {
			out = append(out, r.Metadata.Packages...)
		}
	}
	return out
}

// cached retrieves a value from store or executes fetch and caches the result.
func (c *Client) cached(ctx context.Context, store *httputil.Cache, key string, refresh bool, v any, fetch func() error) error {
	if !refresh {
		if ok, _ := store.Get(ctx, key, v); ok {
			return nil
		}
	}
	if err := httputil.RetryWithBackoff(ctx, fetch); err != nil {
		return err
	}
	if err := store.Set(ctx, key, v); err != nil {
		c.logger.Debug("cache write failed", "key", key, "error", err)
	}
	return nil
}

// get performs an HTTP GET request and JSON-decodes the response into v.
func (c *Client) get(ctx context.Context, url string, v any) error {
	body, err := c.doRequest(ctx, url)
	if err != nil {
		return err
	}
	defer body.Close()
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "parse %s", url)
	}
	return nil
}

func (c *Client) doRequest(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", buildinfo.UserAgent())

	hooks := observability.HTTP()
	host, path := req.URL.Host, req.URL.Path
	hooks.OnRequest(ctx, http.MethodGet, host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, http.MethodGet, host, path, err)
		return nil, httputil.Retryable(errors.Wrap(errors.ErrCodeNetwork, err, "GET %s", url))
	}
	hooks.OnResponse(ctx, http.MethodGet, host, path, resp.StatusCode, time.Since(start))

	if err := checkStatus(url, resp.StatusCode); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

func checkStatus(url string, code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return errors.New(errors.ErrCodeNotFound, "GET %s: status 404", url)
	case code >= 500:
		return httputil.Retryable(errors.New(errors.ErrCodeNetwork, "GET %s: status %d", url, code))
	default:
		return errors.New(errors.ErrCodeNetwork, "GET %s: status %d", url, code)
	}
}
