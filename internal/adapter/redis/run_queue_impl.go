package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/user/product-image-scraper/internal/entity"
	"github.com/user/product-image-scraper/internal/repository"
)

const runQueueKey = "scraper:runs"

// RunQueueRepoImpl implements repository.RunQueueRepository on a Redis list.
type RunQueueRepoImpl struct {
	client *redis.Client
}

// NewRunQueueRepo creates a new instance of RunQueueRepoImpl.
func NewRunQueueRepo(client *redis.Client) *RunQueueRepoImpl {
	return &RunQueueRepoImpl{client: client}
}

// Push encodes the run as JSON and adds it to the left side of the list.
func (r *RunQueueRepoImpl) Push(ctx context.Context, run *entity.Run) error {
	payload, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to encode run %s: %w", run.ID, err)
	}
	return r.client.LPush(ctx, runQueueKey, payload).Err()
}

// Pop removes the oldest run from the right side of the list.
func (r *RunQueueRepoImpl) Pop(ctx context.Context) (*entity.Run, error) {
	payload, err := r.client.RPop(ctx, runQueueKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, repository.ErrQueueEmpty
	}
	if err != nil {
		return nil, err
	}
	return decodeRun(payload)
}

// Size returns the current number of runs in the queue.
func (r *RunQueueRepoImpl) Size(ctx context.Context) (int64, error) {
	return r.client.LLen(ctx, runQueueKey).Result()
}

func decodeRun(payload []byte) (*entity.Run, error) {
	var run entity.Run
	if err := json.Unmarshal(payload, &run); err != nil {
		return nil, fmt.Errorf("failed to decode queued run: %w", err)
	}
	return &run, nil
}
