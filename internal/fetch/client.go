// Package fetch provides the rate-limited, retrying HTTP client shared by
// every component that talks to the proceedings site.
package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"
)

// DefaultRateLimit bounds total request throughput against the origin
// server. The scraper is sequential, so this is a politeness floor rather
// than a concurrency control.
const DefaultRateLimit = 2.0

// Client wraps http.Client with a shared rate limiter, a browser-like
// User-Agent and retry-with-backoff for page fetches. One Client (and
// therefore one connection pool) serves a whole run.
type Client struct {
	httpClient  *http.Client
	limiter     *rate.Limiter
	userAgent   string
	retries     int
	retryBase   time.Duration
	pageTimeout time.Duration
	logger      *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithUserAgent sets the User-Agent header sent on every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRetries sets the number of attempts per page fetch.
func WithRetries(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.retries = n
		}
	}
}

// WithRetryBaseDelay sets the first backoff delay; it doubles per attempt.
func WithRetryBaseDelay(d time.Duration) Option {
	return func(c *Client) {
		c.retryBase = d
	}
}

// WithPageTimeout bounds a single page fetch attempt. Streaming
// downloads are bounded by the HTTP client's own timeout instead.
func WithPageTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.pageTimeout = d
		}
	}
}

// WithRateLimit sets the request rate cap in requests per second.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithLogger sets the logger used for retry diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient creates a client with default timeout, rate limit and retry
// policy.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient:  &http.Client{Timeout: 60 * time.Second},
		limiter:     rate.NewLimiter(rate.Limit(DefaultRateLimit), 1),
		retries:     3,
		retryBase:   time.Second,
		pageTimeout: 30 * time.Second,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchDocument retrieves a page and parses it into a document tree.
// Transient failures (transport errors and non-2xx statuses alike) are
// retried with exponential backoff; the error returned after the final
// attempt wraps the last failure.
func (c *Client) FetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	var lastErr error
	for attempt := 0; attempt < c.retries; attempt++ {
		if attempt > 0 {
			// 1s, 2s, 4s... doubling per attempt.
			delay := c.retryBase << (attempt - 1)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		doc, err := c.fetchOnce(ctx, pageURL)
		if err == nil {
			return doc, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Warn("page fetch failed",
			"url", pageURL, "attempt", attempt+1, "retries", c.retries, "error", err)
	}
	return nil, fmt.Errorf("fetching %s after %d attempts: %w", pageURL, c.retries, lastErr)
}

func (c *Client) fetchOnce(ctx context.Context, pageURL string) (*goquery.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, c.pageTimeout)
	defer cancel()

	resp, err := c.do(ctx, http.MethodGet, pageURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	return doc, nil
}

// Head issues a single HEAD request. The caller must close the response
// body.
func (c *Client) Head(ctx context.Context, rawURL string) (*http.Response, error) {
	return c.do(ctx, http.MethodHead, rawURL)
}

// Get issues a single GET request without retries, for streaming
// downloads. The caller must close the response body.
func (c *Client) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	return c.do(ctx, http.MethodGet, rawURL)
}

func (c *Client) do(ctx context.Context, method, rawURL string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

// ResolveURL resolves ref against base, returning "" when either part
// does not parse.
func ResolveURL(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ""
	}
	r, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return ""
	}
	return b.ResolveReference(r).String()
}
