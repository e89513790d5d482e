package chain

import (
	"context"
	"sync"
	"time"
)

// HeadCache caches the result of GetLatestBlock so monitors sharing a network
// do not each poll the chain head on every tick.
type HeadCache struct {
	Adapter
	ttl time.Duration

	mu       sync.RWMutex
	cached   uint64
	cachedAt time.Time
}

// NewHeadCache wraps adapter with a head cache of the given TTL.
func NewHeadCache(adapter Adapter, ttl time.Duration) *HeadCache {
	return &HeadCache{
		Adapter: adapter,
		ttl:     ttl,
	}
}

// GetLatestBlock returns the cached chain head if within TTL, otherwise fetches fresh.
func (c *HeadCache) GetLatestBlock(ctx context.Context) (uint64, error) {
	c.mu.RLock()
	if time.Since(c.cachedAt) < c.ttl && c.cached > 0 {
		cached := c.cached
		c.mu.RUnlock()
		return cached, nil
	}
	c.mu.RUnlock()

	head, err := c.Adapter.GetLatestBlock(ctx)
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	c.cached = head
	c.cachedAt = time.Now()
	c.mu.Unlock()

	return head, nil
}

// Invalidate clears the cache, forcing the next call to fetch fresh data.
func (c *HeadCache) Invalidate() {
	c.mu.Lock()
	c.cachedAt = time.Time{}
	c.mu.Unlock()
}
