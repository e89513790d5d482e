package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/vietddude/swapwatch/internal/infra/storage"
)

var _ storage.CheckpointRepository = (*CheckpointRepo)(nil)

// CheckpointRepo implements storage.CheckpointRepository using Redis.
type CheckpointRepo struct {
	client *Client
}

func NewCheckpointRepo(client *Client) *CheckpointRepo {
	return &CheckpointRepo{client: client}
}

func (r *CheckpointRepo) Get(ctx context.Context, chatID, poolID string) (uint64, bool, error) {
	val, err := r.client.rdb.Get(ctx, r.client.checkpointKey(chatID, poolID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get failed: %w", err)
	}
	block, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("invalid checkpoint %q: %w", val, err)
	}
	return block, true, nil
}

func (r *CheckpointRepo) Save(ctx context.Context, chatID, poolID string, block uint64) error {
	key := r.client.checkpointKey(chatID, poolID)
	if err := r.client.rdb.Set(ctx, key, strconv.FormatUint(block, 10), 0).Err(); err != nil {
		return fmt.Errorf("set failed: %w", err)
	}
	return nil
}
