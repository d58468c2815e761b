package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/user/product-image-scraper/pkg/metrics"
	"github.com/user/product-image-scraper/pkg/proxy"
	"github.com/user/product-image-scraper/pkg/utils"
	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"
)

// ErrRequestFailed is returned when every attempt ended in a transport error.
var ErrRequestFailed = errors.New("http: request failed")

const (
	defaultAccept         = "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8"
	defaultAcceptLanguage = "es-ES,es;q=0.9,en;q=0.8"
	acceptEncoding        = "gzip, deflate, br"
)

// Options configures the HTTP client. The values are fixed for the lifetime of
// the client and applied to every request it sends.
type Options struct {
	UserAgent      string
	Accept         string
	AcceptLanguage string

	// Timeout for individual requests.
	// Default: 20s
	Timeout time.Duration

	// Attempts is the maximum number of attempts per request, retries included.
	// Default: 3
	Attempts int

	// BaseSleep is the backoff unit. The wait before attempt n+1 is BaseSleep*n.
	// Default: 800ms
	BaseSleep time.Duration

	// Proxies, when set, are used in rotation.
	Proxies []string
}

// DefaultOptions returns options with the defaults of the batch tool.
func DefaultOptions() Options {
	return Options{
		Accept:         defaultAccept,
		AcceptLanguage: defaultAcceptLanguage,
		Timeout:        20 * time.Second,
		Attempts:       3,
		BaseSleep:      800 * time.Millisecond,
	}
}

// Client is an HTTP session with a linear-backoff retry policy.
type Client struct {
	client  *http.Client
	opts    Options
	header  http.Header
	metrics *metrics.Metrics
	logger  *zap.Logger
	sleep   func(ctx context.Context, d time.Duration) error
}

// New creates a client. m and logger may be nil.
func New(opts Options, m *metrics.Metrics, logger *zap.Logger) (*Client, error) {
	if opts.Attempts < 1 {
		opts.Attempts = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Accept == "" {
		opts.Accept = defaultAccept
	}
	if opts.AcceptLanguage == "" {
		opts.AcceptLanguage = defaultAcceptLanguage
	}

	pm, err := proxy.NewManager(opts.Proxies)
	if err != nil {
		return nil, err
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if pm.Len() > 0 {
		transport.Proxy = pm.ProxyFunc()
	}

	header := http.Header{}
	if opts.UserAgent != "" {
		header.Set("User-Agent", opts.UserAgent)
	}
	header.Set("Accept", opts.Accept)
	header.Set("Accept-Language", opts.AcceptLanguage)
	header.Set("Accept-Encoding", acceptEncoding)

	return &Client{
		client: &http.Client{
			Transport: transport,
			Timeout:   opts.Timeout,
			Jar:       jar,
		},
		opts:    opts,
		header:  header,
		metrics: m,
		logger:  logger,
		sleep:   utils.Sleep,
	}, nil
}

// Get performs a GET request with retries.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	return c.Do(ctx, http.MethodGet, url)
}

// Do sends the request, retrying on transport errors, 429 and 5xx.
//
// Any other status is returned as is, the caller decides whether it is an error.
// When the attempts run out, the last transport error is returned if there was
// one; otherwise the caller receives the last (retryable-status) response.
// The response body is always identity-encoded.
func (c *Client) Do(ctx context.Context, method, url string) (*http.Response, error) {
	var lastErr error
	var lastResp *http.Response

	for attempt := 0; attempt < c.opts.Attempts; attempt++ {
		if attempt > 0 {
			if err := c.sleep(ctx, c.opts.BaseSleep*time.Duration(attempt)); err != nil {
				discard(lastResp)
				return nil, err
			}
		}
		discard(lastResp)
		lastResp = nil

		start := time.Now()
		resp, err := c.attempt(ctx, method, url)
		elapsed := time.Since(start).Seconds()

		if err != nil {
			c.metrics.ObserveHTTPAttempt(method, "transport_error", elapsed)
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			c.logger.Warn("request attempt failed",
				zap.String("url", url), zap.Int("attempt", attempt+1), zap.Int("max_attempts", c.opts.Attempts), zap.Error(err))
			continue
		}

		if retryable(resp.StatusCode) {
			c.metrics.ObserveHTTPAttempt(method, "retry_status", elapsed)
			c.logger.Warn("retryable status",
				zap.String("url", url), zap.Int("status", resp.StatusCode), zap.Int("attempt", attempt+1), zap.Int("max_attempts", c.opts.Attempts))
			lastResp = resp
			continue
		}

		c.metrics.ObserveHTTPAttempt(method, "ok", elapsed)
		return resp, nil
	}

	if lastErr != nil {
		discard(lastResp)
		return nil, fmt.Errorf("%w after %d attempts: %w", ErrRequestFailed, c.opts.Attempts, lastErr)
	}
	return lastResp, nil
}

func (c *Client) attempt(ctx context.Context, method, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, v := range c.header {
		req.Header[k] = v
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	if err := decodeBody(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp, nil
}

func retryable(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

func discard(resp *http.Response) {
	if resp == nil {
		return
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
