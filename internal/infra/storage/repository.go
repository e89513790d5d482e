package storage

import (
	"context"

	"github.com/vietddude/swapwatch/internal/core/domain"
)

// CheckpointRepository persists the last processed block of each monitor.
type CheckpointRepository interface {
	// Get returns the stored checkpoint; ok is false when none exists
	Get(ctx context.Context, chatID, poolID string) (block uint64, ok bool, err error)

	// Save upserts the checkpoint
	Save(ctx context.Context, chatID, poolID string, block uint64) error
}

// SwapRepository keeps a history of classified swaps per pool.
type SwapRepository interface {
	// Save stores a swap; saving the same (pool, tx, log index) twice is a no-op
	Save(ctx context.Context, swap *domain.ClassifiedSwap) error

	// ListRecent returns up to limit swaps for a pool, newest first
	ListRecent(ctx context.Context, poolID string, limit int) ([]*domain.ClassifiedSwap, error)
}
