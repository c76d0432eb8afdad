package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/leapstack-labs/eslintcraft/internal/cache"
	"github.com/leapstack-labs/eslintcraft/internal/metrics"
)

// Source kinds used as the metrics label of a request.
const (
	SourceCore   = "core"
	SourcePlugin = "plugin"
	SourceIndex  = "index"
	SourceMeta   = "meta"
	SourceTags   = "tags"
)

// Getter retrieves the body of a remote source.
type Getter interface {
	Get(ctx context.Context, source, url string) ([]byte, error)
}

// ClientConfig configures a Client.
type ClientConfig struct {
	Timeout      time.Duration
	UserAgent    string
	MaxBodyBytes int64
	RateLimit    float64 // requests per second, <= 0 disables limiting
	Burst        int
	CacheTTL     time.Duration

	// Cache is optional. Entries younger than CacheTTL are served without a
	// request; older ones are revalidated with If-None-Match.
	Cache   *cache.Store
	Metrics *metrics.Metrics
	Logger  *slog.Logger

	// Transport overrides the HTTP transport, mainly for tests.
	Transport http.RoundTripper
}

// Client is a rate-limited, cached HTTP GET client for rule sources.
type Client struct {
	http      *http.Client
	userAgent string
	maxBody   int64
	limiter   *rate.Limiter
	cache     *cache.Store
	ttl       time.Duration
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time
}

// NewClient creates a client from cfg.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 4 << 20
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "eslintcraft"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &Client{
		http:      &http.Client{Timeout: cfg.Timeout, Transport: cfg.Transport},
		userAgent: cfg.UserAgent,
		maxBody:   cfg.MaxBodyBytes,
		limiter:   limiter,
		cache:     cfg.Cache,
		ttl:       cfg.CacheTTL,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger,
		now:       time.Now,
	}
}

// Get returns the body at url. Non-success statuses are reported as
// *StatusError; transport failures wrap ErrNetwork. When a cached copy
// exists and the server cannot be reached, the stale copy is returned.
func (c *Client) Get(ctx context.Context, source, url string) ([]byte, error) {
	entry, cached := c.lookup(ctx, url)
	if cached && c.ttl > 0 && entry.Age(c.now()) < c.ttl {
		c.metrics.ObserveCache(metrics.CacheHit)
		return entry.Body, nil
	}

	etag := ""
	if cached {
		etag = entry.ETag
	}

	res, err := c.do(ctx, source, url, etag)
	if err != nil {
		var se *StatusError
		if cached && !errors.As(err, &se) && ctx.Err() == nil {
			c.logger.Warn("serving stale cache entry", "url", url, "error", err)
			c.metrics.ObserveCache(metrics.CacheHit)
			return entry.Body, nil
		}
		return nil, err
	}

	if res.notModified {
		if !cached {
			return nil, fmt.Errorf("GET %s: unexpected 304 without cached copy: %w", url, ErrNetwork)
		}
		c.metrics.ObserveCache(metrics.CacheRevalidated)
		if c.cache != nil {
			if err := c.cache.Touch(ctx, url, c.now()); err != nil {
				c.logger.Warn("failed to touch cache entry", "url", url, "error", err)
			}
		}
		return entry.Body, nil
	}

	if c.cache != nil {
		c.metrics.ObserveCache(metrics.CacheMiss)
		err := c.cache.Put(ctx, cache.Entry{URL: url, Body: res.body, ETag: res.etag, FetchedAt: c.now()})
		if err != nil {
			c.logger.Warn("failed to store cache entry", "url", url, "error", err)
		}
	}
	return res.body, nil
}

func (c *Client) lookup(ctx context.Context, url string) (cache.Entry, bool) {
	if c.cache == nil {
		return cache.Entry{}, false
	}
	entry, err := c.cache.Get(ctx, url)
	if err != nil {
		if !errors.Is(err, cache.ErrNotFound) {
			c.logger.Warn("cache lookup failed", "url", url, "error", err)
		}
		return cache.Entry{}, false
	}
	return entry, true
}

type response struct {
	body        []byte
	etag        string
	notModified bool
}

func (c *Client) do(ctx context.Context, source, url, etag string) (*response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("GET %s: %w: %w", url, ErrNetwork, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}

	start := c.now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.ObserveFetch(source, metrics.OutcomeNetwork, time.Since(start))
		return nil, fmt.Errorf("GET %s: %w: %w", url, ErrNetwork, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("fetched", "source", source, "url", url, "status", resp.StatusCode)

	switch {
	case resp.StatusCode == http.StatusNotModified:
		c.metrics.ObserveFetch(source, metrics.OutcomeNotModified, time.Since(start))
		return &response{notModified: true}, nil
	case resp.StatusCode != http.StatusOK:
		c.metrics.ObserveFetch(source, metrics.OutcomeStatus, time.Since(start))
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{URL: url, Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		c.metrics.ObserveFetch(source, metrics.OutcomeNetwork, time.Since(start))
		return nil, fmt.Errorf("GET %s: read body: %w: %w", url, ErrNetwork, err)
	}
	if int64(len(body)) > c.maxBody {
		c.metrics.ObserveFetch(source, metrics.OutcomeNetwork, time.Since(start))
		return nil, fmt.Errorf("GET %s: body exceeds %d bytes: %w", url, c.maxBody, ErrNetwork)
	}

	c.metrics.ObserveFetch(source, metrics.OutcomeOK, time.Since(start))
	return &response{body: body, etag: resp.Header.Get("ETag")}, nil
}
