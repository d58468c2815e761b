package chromedp_crawler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/user/product-image-scraper/internal/entity"
	"github.com/user/product-image-scraper/pkg/metrics"
	"github.com/user/product-image-scraper/pkg/utils"
	"go.uber.org/zap"
)

// ErrNoDocumentResponse is returned when navigation finished without a main
// document response, so the page status is unknown.
var ErrNoDocumentResponse = errors.New("chromedp: no document response")

// Options configures the browser page fetcher.
type Options struct {
	UserAgent string

	// Timeout bounds one page load, navigation and DOM read included.
	Timeout time.Duration

	// Attempts and BaseSleep follow the HTTP client's retry policy.
	Attempts  int
	BaseSleep time.Duration

	// Proxy is passed to the browser as --proxy-server when set.
	Proxy string
}

// PageFetcher renders product pages in headless Chrome so images injected by
// JavaScript are part of the returned HTML.
type PageFetcher struct {
	opts        Options
	allocCtx    context.Context
	cancelAlloc context.CancelFunc
	metrics     *metrics.Metrics
	logger      *zap.Logger
	sleep       func(context.Context, time.Duration) error
}

// NewPageFetcher starts a browser allocator. Close must be called to stop Chrome.
func NewPageFetcher(opts Options, m *metrics.Metrics, logger *zap.Logger) *PageFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Attempts < 1 {
		opts.Attempts = 1
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
	)
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}
	if opts.Proxy != "" {
		allocOpts = append(allocOpts, chromedp.ProxyServer(opts.Proxy))
	}
	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)

	return &PageFetcher{
		opts:        opts,
		allocCtx:    allocCtx,
		cancelAlloc: cancel,
		metrics:     m,
		logger:      logger,
		sleep:       utils.Sleep,
	}
}

// Close shuts the browser down.
func (f *PageFetcher) Close() {
	f.cancelAlloc()
}

// Fetch loads the page in a fresh tab. Like the HTTP fetcher it retries on
// navigation errors and on 429/5xx, and returns non-200 pages without HTML.
func (f *PageFetcher) Fetch(ctx context.Context, url string) (*entity.Page, error) {
	var lastErr error
	var lastPage *entity.Page

	for attempt := 0; attempt < f.opts.Attempts; attempt++ {
		if attempt > 0 {
			if err := f.sleep(ctx, f.opts.BaseSleep*time.Duration(attempt)); err != nil {
				return nil, err
			}
		}

		start := time.Now()
		page, err := f.render(ctx, url)
		elapsed := time.Since(start).Seconds()

		if err != nil {
			f.metrics.ObserveHTTPAttempt("BROWSER", "transport_error", elapsed)
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr, lastPage = err, nil
			f.logger.Warn("page render failed",
				zap.String("url", url), zap.Int("attempt", attempt+1), zap.Int("max_attempts", f.opts.Attempts), zap.Error(err))
			continue
		}
		if page.StatusCode == http.StatusTooManyRequests || page.StatusCode >= 500 {
			f.metrics.ObserveHTTPAttempt("BROWSER", "retry_status", elapsed)
			lastErr, lastPage = nil, page
			f.logger.Warn("page returned retryable status",
				zap.String("url", url), zap.Int("status", page.StatusCode), zap.Int("attempt", attempt+1))
			continue
		}

		f.metrics.ObserveHTTPAttempt("BROWSER", "ok", elapsed)
		return page, nil
	}

	if lastPage != nil {
		lastPage.HTML = ""
		return lastPage, nil
	}
	return nil, fmt.Errorf("render %s: %w", url, lastErr)
}

func (f *PageFetcher) render(ctx context.Context, url string) (*entity.Page, error) {
	tabCtx, cancelTab := chromedp.NewContext(f.allocCtx)
	defer cancelTab()

	if f.opts.Timeout > 0 {
		var cancel context.CancelFunc
		tabCtx, cancel = context.WithTimeout(tabCtx, f.opts.Timeout)
		defer cancel()
	}

	// Tie the tab to the caller's context as well as the browser's.
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	var (
		mu     sync.Mutex
		status int64
	)
	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		resp, ok := ev.(*network.EventResponseReceived)
		if !ok || resp.Type != network.ResourceTypeDocument {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		// The first document is the main frame; later ones are iframes.
		if status == 0 {
			status = resp.Response.Status
		}
	})

	var html string
	err := chromedp.Run(tabCtx,
		network.Enable(),
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return nil, err
	}

	mu.Lock()
	code := int(status)
	mu.Unlock()
	if code == 0 {
		return nil, ErrNoDocumentResponse
	}

	page := &entity.Page{URL: url, StatusCode: code}
	if code == http.StatusOK {
		page.HTML = html
	}
	f.logger.Debug("page rendered", zap.String("url", url), zap.Int("status", code), zap.Int("bytes", len(html)))
	return page, nil
}
