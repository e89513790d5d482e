package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vietddude/swapwatch/internal/core/domain"
	"github.com/vietddude/swapwatch/internal/infra/storage"
)

const defaultHistorySize = 200

var _ storage.SwapRepository = (*SwapRepo)(nil)

// SwapRepo keeps a capped, newest-first swap history per pool in a Redis list.
type SwapRepo struct {
	client *Client
	size   int64
}

// NewSwapRepo creates a swap repository holding at most size swaps per pool.
func NewSwapRepo(client *Client, size int) *SwapRepo {
	if size <= 0 {
		size = defaultHistorySize
	}
	return &SwapRepo{client: client, size: int64(size)}
}

// Save pushes a swap unless its id was already recorded for the pool.
func (r *SwapRepo) Save(ctx context.Context, s *domain.ClassifiedSwap) error {
	added, err := r.client.rdb.SAdd(ctx, r.client.swapIDsKey(s.PoolID), s.ID().String()).Result()
	if err != nil {
		return fmt.Errorf("sadd failed: %w", err)
	}
	if added == 0 {
		return nil
	}

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal swap: %w", err)
	}

	key := r.client.swapsKey(s.PoolID)
	pipe := r.client.rdb.TxPipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, r.size-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("push swap failed: %w", err)
	}
	return nil
}

// ListRecent returns up to limit swaps, newest first.
func (r *SwapRepo) ListRecent(ctx context.Context, poolID string, limit int) ([]*domain.ClassifiedSwap, error) {
	stop := int64(limit) - 1
	if limit <= 0 {
		stop = -1
	}
	items, err := r.client.rdb.LRange(ctx, r.client.swapsKey(poolID), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("lrange failed: %w", err)
	}

	out := make([]*domain.ClassifiedSwap, 0, len(items))
	for _, item := range items {
		var s domain.ClassifiedSwap
		if err := json.Unmarshal([]byte(item), &s); err != nil {
			return nil, fmt.Errorf("failed to unmarshal swap: %w", err)
		}
		out = append(out, &s)
	}
	return out, nil
}
