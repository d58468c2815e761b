package repository

import (
	"context"

	"github.com/user/product-image-scraper/internal/entity"
)

// RunReportRepository stores finished run reports.
type RunReportRepository interface {
	// Save stores the report. Saving the same run twice replaces it.
	Save(ctx context.Context, report *entity.RunReport) error
	// FindByRunID retrieves a report, or ErrNotFound.
	FindByRunID(ctx context.Context, runID string) (*entity.RunReport, error)
}
