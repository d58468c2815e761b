package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/user/product-image-scraper/internal/entity"
	"github.com/user/product-image-scraper/internal/repository"
	"github.com/user/product-image-scraper/pkg/metrics"
	"github.com/user/product-image-scraper/pkg/utils"
	"go.uber.org/zap"
)

// RunWorker executes queued runs one at a time.
type RunWorker interface {
	// ProcessRunFromQueue runs the next queued batch. It reports false when
	// the queue was empty.
	ProcessRunFromQueue(ctx context.Context) (bool, error)
	// Loop processes runs until ctx is done, polling when the queue is empty.
	Loop(ctx context.Context, pollInterval time.Duration)
}

type runWorkerUseCase struct {
	queueRepo  repository.RunQueueRepository
	statusRepo repository.RunStatusRepository
	reportRepo repository.RunReportRepository
	batch      BatchRunner
	outDir     string
	pacing     time.Duration
	statusTTL  time.Duration
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

// NewRunWorker creates the worker that drains the run queue.
func NewRunWorker(
	queueRepo repository.RunQueueRepository,
	statusRepo repository.RunStatusRepository,
	reportRepo repository.RunReportRepository,
	batch BatchRunner,
	outDir string,
	pacing time.Duration,
	statusTTL time.Duration,
	m *metrics.Metrics,
	logger *zap.Logger,
) RunWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &runWorkerUseCase{
		queueRepo:  queueRepo,
		statusRepo: statusRepo,
		reportRepo: reportRepo,
		batch:      batch,
		outDir:     outDir,
		pacing:     pacing,
		statusTTL:  statusTTL,
		metrics:    m,
		logger:     logger,
	}
}

func (uc *runWorkerUseCase) ProcessRunFromQueue(ctx context.Context) (bool, error) {
	run, err := uc.queueRepo.Pop(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrQueueEmpty) {
			return false, nil
		}
		return false, fmt.Errorf("failed to pop run from queue: %w", err)
	}
	uc.updateQueueGauge(ctx)

	uc.logger.Info("processing run", zap.String("run_id", run.ID), zap.Int("rows", len(run.Rows)))
	if err := uc.statusRepo.SetStatus(ctx, run.ID, entity.RunRunning, "", uc.statusTTL); err != nil {
		uc.logger.Warn("failed to mark run as running", zap.String("run_id", run.ID), zap.Error(err))
	}

	report := uc.batch.Run(ctx, run.Rows, BatchOptions{
		OutDir:        uc.outDir,
		MaxPerProduct: run.MaxPerProduct,
		Pacing:        uc.pacing,
	})
	report.RunID = run.ID

	if err := uc.reportRepo.Save(ctx, report); err != nil {
		reason := fmt.Sprintf("failed to save report: %v", err)
		if serr := uc.statusRepo.SetStatus(ctx, run.ID, entity.RunFailed, reason, uc.statusTTL); serr != nil {
			uc.logger.Error("failed to mark run as failed", zap.String("run_id", run.ID), zap.Error(serr))
		}
		return true, fmt.Errorf("failed to save report for run %s: %w", run.ID, err)
	}

	if err := uc.statusRepo.SetStatus(ctx, run.ID, entity.RunCompleted, "", uc.statusTTL); err != nil {
		uc.logger.Warn("failed to mark run as completed", zap.String("run_id", run.ID), zap.Error(err))
	}
	uc.logger.Info("run completed",
		zap.String("run_id", run.ID),
		zap.Int("downloaded", report.TotalDownloaded),
		zap.Int("errors", len(report.Errors)),
	)
	return true, nil
}

func (uc *runWorkerUseCase) Loop(ctx context.Context, pollInterval time.Duration) {
	for ctx.Err() == nil {
		processed, err := uc.ProcessRunFromQueue(ctx)
		if err != nil {
			uc.logger.Error("run processing failed", zap.Error(err))
		}
		if processed && err == nil {
			continue
		}
		if err := utils.Sleep(ctx, pollInterval); err != nil {
			return
		}
	}
}

func (uc *runWorkerUseCase) updateQueueGauge(ctx context.Context) {
	n, err := uc.queueRepo.Size(ctx)
	if err != nil {
		uc.logger.Debug("failed to read queue size", zap.Error(err))
		return
	}
	uc.metrics.SetRunsInQueue(n)
}
