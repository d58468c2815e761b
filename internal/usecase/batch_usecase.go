package usecase

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/user/product-image-scraper/internal/entity"
	"github.com/user/product-image-scraper/internal/extractor"
	"github.com/user/product-image-scraper/internal/naming"
	"github.com/user/product-image-scraper/internal/repository"
	"github.com/user/product-image-scraper/pkg/metrics"
	"github.com/user/product-image-scraper/pkg/utils"
	"go.uber.org/zap"
)

const msgNoImages = "No images found"

// ImageDownloader saves one image. *downloader.Downloader satisfies it.
type ImageDownloader interface {
	Download(ctx context.Context, url, destPath string) (ok bool, detail string)
}

// BatchOptions controls a single batch.
type BatchOptions struct {
	OutDir        string
	MaxPerProduct int

	// Pacing is slept after every row, whatever its outcome.
	Pacing time.Duration
}

// BatchRunner processes product rows one by one and always returns a report.
type BatchRunner interface {
	Run(ctx context.Context, rows []entity.ProductRow, opts BatchOptions) *entity.RunReport
}

type batchUseCase struct {
	fetcher    repository.PageFetcher
	downloader ImageDownloader
	extract    func(html, baseURL string) ([]string, error)
	metrics    *metrics.Metrics
	logger     *zap.Logger
	sleep      func(ctx context.Context, d time.Duration) error
	now        func() time.Time
}

// NewBatchRunner wires the page fetcher, the extractor and the downloader.
func NewBatchRunner(fetcher repository.PageFetcher, downloader ImageDownloader, m *metrics.Metrics, logger *zap.Logger) BatchRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &batchUseCase{
		fetcher:    fetcher,
		downloader: downloader,
		extract:    extractor.ExtractImageURLs,
		metrics:    m,
		logger:     logger,
		sleep:      utils.Sleep,
		now:        time.Now,
	}
}

// Run processes rows in input order. A failing row never stops the batch.
func (uc *batchUseCase) Run(ctx context.Context, rows []entity.ProductRow, opts BatchOptions) *entity.RunReport {
	report := &entity.RunReport{
		StartedAt: uc.now(),
		Errors:    []entity.ErrorEntry{},
		Rows:      make([]entity.RowResult, 0, len(rows)),
	}

	for _, row := range rows {
		res := uc.processRow(ctx, row, opts)

		report.Rows = append(report.Rows, res)
		report.TotalDownloaded += res.Downloaded()
		report.Errors = append(report.Errors, errorEntries(res)...)

		uc.metrics.IncRow(string(res.Status))
		uc.logger.Info("row processed",
			zap.String("reference", row.Reference),
			zap.String("url", row.SourceURL),
			zap.String("status", string(res.Status)),
			zap.Int("candidates", res.Candidates),
			zap.Int("downloaded", res.Downloaded()),
			zap.String("message", res.Message),
		)

		if err := uc.sleep(ctx, opts.Pacing); err != nil {
			uc.logger.Debug("pacing interrupted", zap.Error(err))
		}
	}

	report.FinishedAt = uc.now()
	return report
}

// processRow fetches the page, extracts candidates and downloads them for one
// row. Every failure, panics included, ends up in the returned result.
func (uc *batchUseCase) processRow(ctx context.Context, row entity.ProductRow, opts BatchOptions) (res entity.RowResult) {
	res.Row = row
	defer func() {
		if r := recover(); r != nil {
			res.Status = entity.RowSkippedRowException
			res.Message = fmt.Sprintf("panic: %v", r)
		}
	}()

	if err := ctx.Err(); err != nil {
		return rowException(res, err)
	}

	page, err := uc.fetcher.Fetch(ctx, row.SourceURL)
	if err != nil {
		return rowException(res, err)
	}
	if page.StatusCode != http.StatusOK {
		res.Status = entity.RowSkippedHTTPError
		res.Message = fmt.Sprintf("HTTP %d", page.StatusCode)
		return res
	}

	candidates, err := uc.extract(page.HTML, row.SourceURL)
	if err != nil {
		return rowException(res, err)
	}
	res.Candidates = len(candidates)
	if len(candidates) == 0 {
		res.Status = entity.RowSkippedNoImages
		res.Message = msgNoImages
		return res
	}

	limit := min(max(opts.MaxPerProduct, 0), len(candidates))
	for idx, imageURL := range candidates[:limit] {
		dest := naming.OutputPath(opts.OutDir, row.Reference, imageURL, idx)
		ok, detail := uc.downloader.Download(ctx, imageURL, dest)
		res.Downloads = append(res.Downloads, entity.DownloadOutcome{
			Reference:   row.Reference,
			TargetURL:   imageURL,
			Path:        dest,
			Success:     ok,
			ErrorDetail: detail,
		})
	}

	res.Status = entity.RowCompleted
	return res
}

func rowException(res entity.RowResult, err error) entity.RowResult {
	res.Status = entity.RowSkippedRowException
	res.Message = err.Error()
	return res
}

// errorEntries lists image failures first, then the row-level error if any.
func errorEntries(res entity.RowResult) []entity.ErrorEntry {
	var out []entity.ErrorEntry
	for _, d := range res.Downloads {
		if !d.Success {
			out = append(out, entity.ErrorEntry{
				Reference: res.Row.Reference,
				Message:   fmt.Sprintf("%s -> %s", d.TargetURL, d.ErrorDetail),
			})
		}
	}
	if res.Status != entity.RowCompleted {
		out = append(out, entity.ErrorEntry{Reference: res.Row.Reference, Message: res.Message})
	}
	return out
}
