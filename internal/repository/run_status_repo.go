package repository

import (
	"context"
	"time"

	"github.com/user/product-image-scraper/internal/entity"
)

// RunStatusRepository keeps the short-lived lifecycle state of runs.
type RunStatusRepository interface {
	// SetStatus records the run's status, expiring after ttl.
	SetStatus(ctx context.Context, runID string, status entity.RunStatus, reason string, ttl time.Duration) error
	// GetStatus returns the status and failure reason, or ErrNotFound.
	GetStatus(ctx context.Context, runID string) (entity.RunStatus, string, error)
}
