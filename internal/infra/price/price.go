// Package price provides the ETH/USD rate used to value swaps.
package price

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

const defaultCacheTTL = time.Minute

// Source returns the current ETH price in USD.
type Source interface {
	ETHUSD(ctx context.Context) (decimal.Decimal, error)
}

// Config enables USD valuation when APIKey is set.
type Config struct {
	APIKey   string        `yaml:"etherscan_api_key"`
	URL      string        `yaml:"url"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
	Timeout  time.Duration `yaml:"timeout"`
}

// Cache serves a Source's last answer for ttl. When a refresh fails the
// previous price, however old, is returned.
type Cache struct {
	src Source
	ttl time.Duration
	now func() time.Time
	log *slog.Logger

	mu        sync.Mutex
	price     decimal.Decimal
	fetchedAt time.Time
	ok        bool
}

// NewCache wraps src with a ttl cache.
func NewCache(src Source, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Cache{
		src: src,
		ttl: ttl,
		now: time.Now,
		log: slog.Default().With("component", "price"),
	}
}

func (c *Cache) ETHUSD(ctx context.Context) (decimal.Decimal, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ok && c.now().Sub(c.fetchedAt) < c.ttl {
		return c.price, nil
	}

	p, err := c.src.ETHUSD(ctx)
	if err != nil {
		if c.ok {
			c.log.Warn("ETH price refresh failed, using last price", "age", c.now().Sub(c.fetchedAt), "error", err)
			return c.price, nil
		}
		return decimal.Zero, err
	}

	c.price, c.fetchedAt, c.ok = p, c.now(), true
	return p, nil
}
