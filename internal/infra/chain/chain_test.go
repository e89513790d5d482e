package chain

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/core/types"

	"github.com/vietddude/swapwatch/internal/core/domain"
)

// mockAdapter implements Adapter for testing
type mockAdapter struct {
	latestBlock uint64
	err         error
	callCount   int
}

func (m *mockAdapter) GetLatestBlock(ctx context.Context) (uint64, error) {
	m.callCount++
	if m.err != nil {
		return 0, m.err
	}
	return m.latestBlock, nil
}

func (m *mockAdapter) GetLogs(ctx context.Context, q LogQuery) ([]types.Log, error) {
	return nil, nil
}

func (m *mockAdapter) GetBlockTimestamps(ctx context.Context, blocks []uint64) (map[uint64]time.Time, error) {
	return nil, nil
}

func (m *mockAdapter) GetChainID() domain.ChainID { return domain.ChainEthereum }
func (m *mockAdapter) MaxBlockRange() uint64      { return 2000 }

func TestChunkRanges(t *testing.T) {
	tests := []struct {
		name    string
		from    uint64
		to      uint64
		maxSize uint64
		want    []BlockRange
	}{
		{"empty", 10, 9, 5, nil},
		{"single block", 7, 7, 5, []BlockRange{{7, 7}}},
		{"exact fit", 1, 10, 5, []BlockRange{{1, 5}, {6, 10}}},
		{"remainder", 96, 100, 2, []BlockRange{{96, 97}, {98, 99}, {100, 100}}},
		{"unbounded", 1, 4000, 0, []BlockRange{{1, 4000}}},
		{"lagging 4500 blocks", 1, 4500, 2000, []BlockRange{{1, 2000}, {2001, 4000}, {4001, 4500}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ChunkRanges(tt.from, tt.to, tt.maxSize)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ChunkRanges(%d, %d, %d) = %v, want %v", tt.from, tt.to, tt.maxSize, got, tt.want)
			}
			for _, r := range got {
				if tt.maxSize > 0 && r.Size() > tt.maxSize {
					t.Errorf("range %v exceeds max size %d", r, tt.maxSize)
				}
			}
		})
	}
}

func TestHeadCache_CachesResult(t *testing.T) {
	adapter := &mockAdapter{latestBlock: 1000}
	cache := NewHeadCache(adapter, 3*time.Second)

	ctx := context.Background()

	result1, err := cache.GetLatestBlock(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result1 != 1000 {
		t.Errorf("expected 1000, got %d", result1)
	}

	adapter.latestBlock = 1001
	result2, _ := cache.GetLatestBlock(ctx)
	if result2 != 1000 {
		t.Errorf("expected cached 1000, got %d", result2)
	}
	if adapter.callCount != 1 {
		t.Errorf("expected 1 adapter call, got %d", adapter.callCount)
	}

	cache.Invalidate()
	result3, _ := cache.GetLatestBlock(ctx)
	if result3 != 1001 {
		t.Errorf("expected fresh 1001 after invalidate, got %d", result3)
	}
	if adapter.callCount != 2 {
		t.Errorf("expected 2 adapter calls, got %d", adapter.callCount)
	}
}

func TestHeadCache_ErrorNotCached(t *testing.T) {
	adapter := &mockAdapter{err: errors.New("boom")}
	cache := NewHeadCache(adapter, time.Minute)

	if _, err := cache.GetLatestBlock(context.Background()); err == nil {
		t.Fatal("expected error")
	}

	adapter.err = nil
	adapter.latestBlock = 50
	head, err := cache.GetLatestBlock(context.Background())
	if err != nil || head != 50 {
		t.Errorf("expected 50 after recovery, got %d (%v)", head, err)
	}
}

func TestHeadCache_DelegatesOtherMethods(t *testing.T) {
	cache := NewHeadCache(&mockAdapter{}, time.Second)
	if cache.GetChainID() != domain.ChainEthereum {
		t.Errorf("unexpected chain id %s", cache.GetChainID())
	}
	if cache.MaxBlockRange() != 2000 {
		t.Errorf("unexpected max block range %d", cache.MaxBlockRange())
	}
}
