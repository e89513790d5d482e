package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// CheckpointRepo implements storage.CheckpointRepository using PostgreSQL.
type CheckpointRepo struct {
	db *DB
}

// NewCheckpointRepo creates a new PostgreSQL checkpoint repository.
func NewCheckpointRepo(db *DB) *CheckpointRepo {
	return &CheckpointRepo{db: db}
}

// Get retrieves the checkpoint of a monitor.
func (r *CheckpointRepo) Get(ctx context.Context, chatID, poolID string) (uint64, bool, error) {
	var block int64
	err := r.db.GetContext(ctx, &block,
		`SELECT block_number FROM monitor_checkpoints WHERE chat_id = $1 AND pool_id = $2`,
		chatID, poolID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get checkpoint: %w", err)
	}
	return uint64(block), true, nil
}

// Save upserts the checkpoint of a monitor.
func (r *CheckpointRepo) Save(ctx context.Context, chatID, poolID string, block uint64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO monitor_checkpoints (chat_id, pool_id, block_number, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (chat_id, pool_id)
		DO UPDATE SET block_number = EXCLUDED.block_number, updated_at = EXCLUDED.updated_at`,
		chatID, poolID, int64(block),
	)
	if err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}
