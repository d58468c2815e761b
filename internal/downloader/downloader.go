package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/user/product-image-scraper/pkg/metrics"
	"go.uber.org/zap"
)

const chunkSize = 8192

// Getter issues GET requests. *httpclient.Client satisfies it.
type Getter interface {
	Get(ctx context.Context, url string) (*http.Response, error)
}

// Downloader streams remote images to local files.
type Downloader struct {
	client  Getter
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func New(client Getter, m *metrics.Metrics, logger *zap.Logger) *Downloader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Downloader{client: client, metrics: m, logger: logger}
}

// Download saves url to destPath. It never returns an error value: failures
// are reported as ok=false with a readable detail. A failed download may leave
// a partial file behind.
func (d *Downloader) Download(ctx context.Context, url, destPath string) (ok bool, detail string) {
	n, err := d.download(ctx, url, destPath)
	if err != nil {
		d.metrics.IncImage("failure", n)
		d.logger.Warn("image download failed", zap.String("url", url), zap.String("path", destPath), zap.Error(err))
		return false, err.Error()
	}
	d.metrics.IncImage("success", n)
	d.logger.Debug("image saved", zap.String("url", url), zap.String("path", destPath), zap.Int64("bytes", n))
	return true, ""
}

func (d *Downloader) download(ctx context.Context, url, destPath string) (written int64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("download panicked: %v", r)
		}
	}()

	resp, err := d.client.Get(ctx, url)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, fmt.Errorf("HTTP %d %s for url: %s", resp.StatusCode, http.StatusText(resp.StatusCode), url)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return 0, fmt.Errorf("create directory: %w", err)
	}

	f, err := os.Create(destPath)
	if err != nil {
		return 0, fmt.Errorf("create file: %w", err)
	}

	written, err = io.CopyBuffer(f, resp.Body, make([]byte, chunkSize))
	if cerr := f.Close(); err == nil && cerr != nil {
		err = cerr
	}
	if err != nil {
		return written, fmt.Errorf("write %s: %w", destPath, err)
	}
	return written, nil
}
