// Package checkpoint tracks the last fully processed block of a pool monitor.
//
// A Tracker is owned by exactly one monitor. It only moves forward: Advance
// with a lower block returns ErrRewind and leaves the checkpoint unchanged.
// When a CheckpointRepository is attached every advance is persisted, so a
// restarted monitor can resume where the previous one stopped.
//
// # Resume policy
//
//	start = latest - lookback
//	if a stored checkpoint lies in [start, latest], resume from it instead
//
// The stored value is never allowed to push the monitor back further than the
// lookback window, and never ahead of the chain head.
package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vietddude/swapwatch/internal/infra/storage"
)

var (
	// ErrRewind is returned when Advance is called with a lower block.
	ErrRewind = errors.New("checkpoint cannot move backwards")

	// ErrNotInitialized is returned when Advance is called before Resume.
	ErrNotInitialized = errors.New("checkpoint not initialized")
)

// Tracker holds the checkpoint for one (chat, pool) monitor.
type Tracker struct {
	chatID string
	poolID string
	repo   storage.CheckpointRepository

	mu          sync.RWMutex
	block       uint64
	initialized bool
	updatedAt   time.Time
}

// New creates a tracker. repo may be nil for a purely in-memory checkpoint.
func New(chatID, poolID string, repo storage.CheckpointRepository) *Tracker {
	return &Tracker{
		chatID: chatID,
		poolID: poolID,
		repo:   repo,
	}
}

// StartBlock applies the resume policy.
func StartBlock(latest, lookback, stored uint64, hasStored bool) uint64 {
	start := uint64(0)
	if latest > lookback {
		start = latest - lookback
	}
	if hasStored && stored >= start && stored <= latest {
		return stored
	}
	return start
}

// Resume initializes the checkpoint relative to the current chain head.
// A repository read failure falls back to latest - lookback.
func (t *Tracker) Resume(ctx context.Context, latest, lookback uint64) (uint64, error) {
	var (
		stored    uint64
		hasStored bool
		readErr   error
	)
	if t.repo != nil {
		stored, hasStored, readErr = t.repo.Get(ctx, t.chatID, t.poolID)
		if readErr != nil {
			hasStored = false
			readErr = fmt.Errorf("load checkpoint: %w", readErr)
		}
	}

	block := StartBlock(latest, lookback, stored, hasStored)

	t.mu.Lock()
	t.block = block
	t.initialized = true
	t.updatedAt = time.Now()
	t.mu.Unlock()

	return block, readErr
}

// Current returns the checkpoint.
func (t *Tracker) Current() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.block
}

// UpdatedAt returns when the checkpoint last moved.
func (t *Tracker) UpdatedAt() time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.updatedAt
}

// Advance moves the checkpoint forward to block and persists it.
// The in-memory checkpoint advances even when persisting fails.
func (t *Tracker) Advance(ctx context.Context, block uint64) error {
	t.mu.Lock()
	if !t.initialized {
		t.mu.Unlock()
		return ErrNotInitialized
	}
	if block < t.block {
		current := t.block
		t.mu.Unlock()
		return fmt.Errorf("%w: %d -> %d", ErrRewind, current, block)
	}
	if block == t.block {
		t.mu.Unlock()
		return nil
	}
	t.block = block
	t.updatedAt = time.Now()
	t.mu.Unlock()

	if t.repo == nil {
		return nil
	}
	if err := t.repo.Save(ctx, t.chatID, t.poolID, block); err != nil {
		return fmt.Errorf("persist checkpoint %d: %w", block, err)
	}
	return nil
}
