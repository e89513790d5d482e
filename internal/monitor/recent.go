package monitor

import (
	"sync"

	"github.com/vietddude/swapwatch/internal/core/domain"
)

// RecentBuffer is a fixed-size ring of the latest classified swaps.
type RecentBuffer struct {
	mu    sync.RWMutex
	items []*domain.ClassifiedSwap
	next  int
	count int
}

func NewRecentBuffer(capacity int) *RecentBuffer {
	if capacity <= 0 {
		capacity = 1
	}
	return &RecentBuffer{items: make([]*domain.ClassifiedSwap, capacity)}
}

// Add appends s, overwriting the oldest entry when full.
func (b *RecentBuffer) Add(s *domain.ClassifiedSwap) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.items[b.next] = s
	b.next = (b.next + 1) % len(b.items)
	if b.count < len(b.items) {
		b.count++
	}
}

// Last returns up to n swaps, most recent first.
func (b *RecentBuffer) Last(n int) []*domain.ClassifiedSwap {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if n <= 0 || n > b.count {
		n = b.count
	}
	out := make([]*domain.ClassifiedSwap, 0, n)
	for i := 1; i <= n; i++ {
		idx := (b.next - i + len(b.items)) % len(b.items)
		out = append(out, b.items[idx])
	}
	return out
}

func (b *RecentBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.count
}
