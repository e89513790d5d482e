package checkpoint

import (
	"context"
	"errors"
	"sync"
	"testing"
)

// =============================================================================
// Mock Repository
// =============================================================================

type mockRepo struct {
	mu      sync.Mutex
	blocks  map[string]uint64
	getErr  error
	saveErr error
	saves   int
}

func newMockRepo() *mockRepo {
	return &mockRepo{blocks: make(map[string]uint64)}
}

func (r *mockRepo) Get(ctx context.Context, chatID, poolID string) (uint64, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return 0, false, r.getErr
	}
	b, ok := r.blocks[chatID+"/"+poolID]
	return b, ok, nil
}

func (r *mockRepo) Save(ctx context.Context, chatID, poolID string, block uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves++
	if r.saveErr != nil {
		return r.saveErr
	}
	r.blocks[chatID+"/"+poolID] = block
	return nil
}

// =============================================================================
// Tests
// =============================================================================

func TestStartBlock(t *testing.T) {
	tests := []struct {
		name      string
		latest    uint64
		lookback  uint64
		stored    uint64
		hasStored bool
		want      uint64
	}{
		{"fresh start", 100, 5, 0, false, 95},
		{"stored inside window", 100, 5, 98, true, 98},
		{"stored older than window", 100, 5, 40, true, 95},
		{"stored ahead of head", 100, 5, 120, true, 95},
		{"stored equals head", 100, 5, 100, true, 100},
		{"young chain", 3, 5, 0, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StartBlock(tt.latest, tt.lookback, tt.stored, tt.hasStored)
			if got != tt.want {
				t.Errorf("StartBlock() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestTracker_ResumeAndAdvance(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepo()
	tr := New("chat", "emp", repo)

	start, err := tr.Resume(ctx, 100, 5)
	if err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	if start != 95 {
		t.Fatalf("expected start 95, got %d", start)
	}

	if err := tr.Advance(ctx, 100); err != nil {
		t.Fatalf("Advance failed: %v", err)
	}
	if tr.Current() != 100 {
		t.Errorf("expected checkpoint 100, got %d", tr.Current())
	}
	if repo.blocks["chat/emp"] != 100 {
		t.Errorf("expected persisted 100, got %d", repo.blocks["chat/emp"])
	}

	// same block is a no-op and does not hit the repository
	saves := repo.saves
	if err := tr.Advance(ctx, 100); err != nil {
		t.Fatalf("Advance to same block failed: %v", err)
	}
	if repo.saves != saves {
		t.Errorf("expected no extra save, got %d", repo.saves-saves)
	}

	err = tr.Advance(ctx, 99)
	if !errors.Is(err, ErrRewind) {
		t.Fatalf("expected ErrRewind, got %v", err)
	}
	if tr.Current() != 100 {
		t.Errorf("rewind must not change checkpoint, got %d", tr.Current())
	}
}

func TestTracker_ResumeFromStored(t *testing.T) {
	repo := newMockRepo()
	repo.blocks["chat/emp"] = 98

	tr := New("chat", "emp", repo)
	start, err := tr.Resume(context.Background(), 100, 5)
	if err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	if start != 98 {
		t.Errorf("expected resume from stored 98, got %d", start)
	}
}

func TestTracker_RepositoryFailures(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepo()
	repo.getErr = errors.New("connection refused")

	tr := New("chat", "emp", repo)
	start, err := tr.Resume(ctx, 100, 5)
	if err == nil {
		t.Fatal("expected read error to be reported")
	}
	if start != 95 {
		t.Errorf("expected fallback start 95, got %d", start)
	}

	repo.saveErr = errors.New("read only")
	if err := tr.Advance(ctx, 97); err == nil {
		t.Fatal("expected persist error")
	}
	if tr.Current() != 97 {
		t.Errorf("in-memory checkpoint must advance despite persist failure, got %d", tr.Current())
	}
}

func TestTracker_AdvanceBeforeResume(t *testing.T) {
	tr := New("chat", "emp", nil)
	if err := tr.Advance(context.Background(), 10); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
}
