package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/user/product-image-scraper/internal/entity"
	"github.com/user/product-image-scraper/internal/repository"
	"go.uber.org/zap"
)

var (
	ErrRunNotFound = errors.New("run not found")
	ErrInvalidRun  = errors.New("invalid run")
)

// RunManager accepts batch runs and reports on their progress.
type RunManager interface {
	Submit(ctx context.Context, rows []entity.ProductRow, maxPerProduct int) (string, error)
	GetStatus(ctx context.Context, runID string) (*entity.RunState, error)
}

type runManagerUseCase struct {
	queueRepo     repository.RunQueueRepository
	statusRepo    repository.RunStatusRepository
	reportRepo    repository.RunReportRepository
	statusTTL     time.Duration
	maxPerProduct int
	logger        *zap.Logger
	newID         func() string
	now           func() time.Time
}

// NewRunManager creates a new RunManager use case. defaultMaxPerProduct is used
// when a submission does not set its own cap.
func NewRunManager(
	queueRepo repository.RunQueueRepository,
	statusRepo repository.RunStatusRepository,
	reportRepo repository.RunReportRepository,
	statusTTL time.Duration,
	defaultMaxPerProduct int,
	logger *zap.Logger,
) RunManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &runManagerUseCase{
		queueRepo:     queueRepo,
		statusRepo:    statusRepo,
		reportRepo:    reportRepo,
		statusTTL:     statusTTL,
		maxPerProduct: defaultMaxPerProduct,
		logger:        logger,
		newID:         uuid.NewString,
		now:           time.Now,
	}
}

func (uc *runManagerUseCase) Submit(ctx context.Context, rows []entity.ProductRow, maxPerProduct int) (string, error) {
	clean, err := validateRows(rows)
	if err != nil {
		return "", err
	}
	if maxPerProduct <= 0 {
		maxPerProduct = uc.maxPerProduct
	}

	run := &entity.Run{
		ID:            uc.newID(),
		Rows:          clean,
		MaxPerProduct: maxPerProduct,
		SubmittedAt:   uc.now(),
	}

	// Pending goes in first so the worker's "running" is never overwritten.
	if err := uc.statusRepo.SetStatus(ctx, run.ID, entity.RunPending, "", uc.statusTTL); err != nil {
		return "", fmt.Errorf("failed to record status for run %s: %w", run.ID, err)
	}
	if err := uc.queueRepo.Push(ctx, run); err != nil {
		return "", fmt.Errorf("failed to queue run %s: %w", run.ID, err)
	}

	uc.logger.Info("run submitted", zap.String("run_id", run.ID), zap.Int("rows", len(clean)))
	return run.ID, nil
}

func (uc *runManagerUseCase) GetStatus(ctx context.Context, runID string) (*entity.RunState, error) {
	status, reason, err := uc.statusRepo.GetStatus(ctx, runID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	state := &entity.RunState{RunID: runID, CurrentStatus: status, FailureReason: reason}
	if errors.Is(err, repository.ErrNotFound) {
		// The status may have expired while the report is still stored.
		state.CurrentStatus = entity.RunCompleted
	}
	if state.CurrentStatus != entity.RunCompleted {
		return state, nil
	}

	report, err := uc.reportRepo.FindByRunID(ctx, runID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		if status == "" {
			return nil, ErrRunNotFound
		}
	case err != nil:
		return nil, err
	default:
		state.Report = report
	}
	return state, nil
}

// validateRows trims every row and rejects empty references and non-http URLs.
func validateRows(rows []entity.ProductRow) ([]entity.ProductRow, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: rows list cannot be empty", ErrInvalidRun)
	}
	clean := make([]entity.ProductRow, 0, len(rows))
	for i, r := range rows {
		ref := strings.TrimSpace(r.Reference)
		raw := strings.TrimSpace(r.SourceURL)
		if ref == "" {
			return nil, fmt.Errorf("%w: row %d has an empty reference", ErrInvalidRun, i)
		}
		u, err := url.ParseRequestURI(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, fmt.Errorf("%w: row %d has an invalid url %q", ErrInvalidRun, i, raw)
		}
		clean = append(clean, entity.ProductRow{Reference: ref, SourceURL: raw})
	}
	return clean, nil
}
