package monitor

import (
	"sync"

	"github.com/vietddude/swapwatch/internal/core/domain"
)

// SeenSet remembers the last N swap ids reported by a monitor.
// Eviction is FIFO on insertion order; lookups do not refresh an entry.
type SeenSet struct {
	mu       sync.RWMutex
	capacity int
	ids      map[domain.TxID]struct{}
	order    []domain.TxID // ring of insertion order
	head     int
}

// NewSeenSet creates a set holding at most capacity ids.
func NewSeenSet(capacity int) *SeenSet {
	if capacity <= 0 {
		capacity = 1
	}
	return &SeenSet{
		capacity: capacity,
		ids:      make(map[domain.TxID]struct{}, capacity),
		order:    make([]domain.TxID, 0, capacity),
	}
}

// HasSeen reports whether id was marked and not yet evicted.
func (s *SeenSet) HasSeen(id domain.TxID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ids[id]
	return ok
}

// MarkSeen inserts id, evicting the oldest id when full. Marking a present id is a no-op.
func (s *SeenSet) MarkSeen(id domain.TxID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ids[id]; ok {
		return
	}

	if len(s.order) < s.capacity {
		s.order = append(s.order, id)
	} else {
		delete(s.ids, s.order[s.head])
		s.order[s.head] = id
		s.head = (s.head + 1) % s.capacity
	}
	s.ids[id] = struct{}{}
}

// Size returns the number of ids currently held.
func (s *SeenSet) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}
