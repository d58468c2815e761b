package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/user/product-image-scraper/internal/entity"
	"github.com/user/product-image-scraper/internal/repository"
)

const runStatusPrefix = "scraper:run-status:"

type statusRecord struct {
	Status entity.RunStatus `json:"status"`
	Reason string           `json:"reason,omitempty"`
}

// RunStatusRepoImpl implements repository.RunStatusRepository with expiring Redis keys.
type RunStatusRepoImpl struct {
	client *redis.Client
}

// NewRunStatusRepo creates a new instance of RunStatusRepoImpl.
func NewRunStatusRepo(client *redis.Client) *RunStatusRepoImpl {
	return &RunStatusRepoImpl{client: client}
}

func statusKey(runID string) string {
	return runStatusPrefix + runID
}

// SetStatus overwrites the run's status. SET with a TTL is atomic.
func (r *RunStatusRepoImpl) SetStatus(ctx context.Context, runID string, status entity.RunStatus, reason string, ttl time.Duration) error {
	payload, err := json.Marshal(statusRecord{Status: status, Reason: reason})
	if err != nil {
		return err
	}
	return r.client.Set(ctx, statusKey(runID), payload, ttl).Err()
}

// GetStatus returns the stored status, or repository.ErrNotFound once the key expired.
func (r *RunStatusRepoImpl) GetStatus(ctx context.Context, runID string) (entity.RunStatus, string, error) {
	payload, err := r.client.Get(ctx, statusKey(runID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return "", "", repository.ErrNotFound
	}
	if err != nil {
		return "", "", err
	}
	var rec statusRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return "", "", err
	}
	return rec.Status, rec.Reason, nil
}
