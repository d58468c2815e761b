package repository

import (
	"context"

	"github.com/user/product-image-scraper/internal/entity"
)

// RunQueueRepository is a FIFO queue of submitted batch runs.
type RunQueueRepository interface {
	// Push adds a run to the end of the queue.
	Push(ctx context.Context, run *entity.Run) error
	// Pop removes and returns the run at the front of the queue, or ErrQueueEmpty.
	Pop(ctx context.Context) (*entity.Run, error)
	// Size returns the current number of runs in the queue.
	Size(ctx context.Context) (int64, error)
}
