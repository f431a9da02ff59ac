// Package openf1 fetches car telemetry from the openf1.org REST API and
// turns it into per-lap telemetry series. Responses are cached verbatim in
// the local database so repeated runs against the same session do not hit
// the network.
package openf1

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/banshee-data/lapdelta.report/internal/timeutil"
)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.openf1.org/v1"
	DefaultTimeout = 30 * time.Second
)

// ResponseCache stores raw response bodies keyed by request URL. *db.DB
// implements it; a zero TTL means entries never expire.
type ResponseCache interface {
	GetResponse(url string, ttl time.Duration, now time.Time) ([]byte, bool, error)
	PutResponse(url string, body []byte, fetchedAt time.Time) error
}

// Client is an HTTP client for the openf1 API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      ResponseCache
	cacheTTL   time.Duration
	clock      timeutil.Clock
	log        *zap.Logger
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithCache enables response caching with the given TTL. A TTL of zero
// keeps entries forever.
func WithCache(cache ResponseCache, ttl time.Duration) ClientOption {
	return func(c *Client) {
		c.cache = cache
		c.cacheTTL = ttl
	}
}

// WithClock sets the clock used for cache freshness decisions.
func WithClock(clock timeutil.Clock) ClientOption {
	return func(c *Client) {
		c.clock = clock
	}
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

// NewClient creates a new openf1 API client. An empty baseURL selects the
// public API endpoint.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		clock:      timeutil.RealClock{},
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// get performs a GET, consulting the response cache first. Failures are
// surfaced once, never retried. url.Values.Encode sorts keys, so the same
// request always produces the same cache key.
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	if c.cache != nil {
		body, found, err := c.cache.GetResponse(reqURL, c.cacheTTL, c.clock.Now())
		if err != nil {
			c.log.Warn("cache read failed", zap.String("url", reqURL), zap.Error(err))
		} else if found {
			c.log.Debug("cache hit", zap.String("url", reqURL))
			return body, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	if c.cache != nil {
		if err := c.cache.PutResponse(reqURL, body, c.clock.Now()); err != nil {
			c.log.Warn("cache write failed", zap.String("url", reqURL), zap.Error(err))
		}
	}

	c.log.Debug("fetched", zap.String("url", reqURL), zap.Int("bytes", len(body)))
	return body, nil
}
