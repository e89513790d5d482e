package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/vietddude/swapwatch/internal/core/domain"
	"github.com/vietddude/swapwatch/internal/infra/storage"
)

type MemoryStorage struct {
	checkpoints map[string]uint64
	swaps       map[string][]*domain.ClassifiedSwap // by pool
	swapIDs     map[string]struct{}
	mu          sync.RWMutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		checkpoints: make(map[string]uint64),
		swaps:       make(map[string][]*domain.ClassifiedSwap),
		swapIDs:     make(map[string]struct{}),
	}
}

// -----------------------------------------------------------------------------
// Checkpoint Repository
// -----------------------------------------------------------------------------

type CheckpointRepo struct {
	store *MemoryStorage
}

func NewCheckpointRepo(store *MemoryStorage) *CheckpointRepo {
	return &CheckpointRepo{store: store}
}

func (r *CheckpointRepo) Get(ctx context.Context, chatID, poolID string) (uint64, bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	block, ok := r.store.checkpoints[chatID+"/"+poolID]
	return block, ok, nil
}

func (r *CheckpointRepo) Save(ctx context.Context, chatID, poolID string, block uint64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.checkpoints[chatID+"/"+poolID] = block
	return nil
}

// -----------------------------------------------------------------------------
// Swap Repository
// -----------------------------------------------------------------------------

type SwapRepo struct {
	store *MemoryStorage
}

func NewSwapRepo(store *MemoryStorage) *SwapRepo {
	return &SwapRepo{store: store}
}

func (r *SwapRepo) Save(ctx context.Context, swap *domain.ClassifiedSwap) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	id := swap.PoolID + "/" + swap.ID().String()
	if _, ok := r.store.swapIDs[id]; ok {
		return nil
	}
	r.store.swapIDs[id] = struct{}{}
	r.store.swaps[swap.PoolID] = append(r.store.swaps[swap.PoolID], swap)
	return nil
}

func (r *SwapRepo) ListRecent(ctx context.Context, poolID string, limit int) ([]*domain.ClassifiedSwap, error) {
	r.store.mu.RLock()
	all := append([]*domain.ClassifiedSwap(nil), r.store.swaps[poolID]...)
	r.store.mu.RUnlock()

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].BlockNumber != all[j].BlockNumber {
			return all[i].BlockNumber > all[j].BlockNumber
		}
		return all[i].LogIndex > all[j].LogIndex
	})
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

var (
	_ storage.CheckpointRepository = (*CheckpointRepo)(nil)
	_ storage.SwapRepository       = (*SwapRepo)(nil)
)
