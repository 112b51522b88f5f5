package cache

import (
	"cbrrates/internal/domain"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"
)

// RistrettoDateCache remembers dates already confirmed present in the store.
// Only positive answers are cached: a missing date may be written later in the run.
type RistrettoDateCache struct {
	cache *ristretto.Cache
}

func NewDateCache(maxItems int64) (*RistrettoDateCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10 * maxItems,
		MaxCost:     maxItems,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create date cache failed: %w", err)
	}
	return &RistrettoDateCache{cache: c}, nil
}

func (c *RistrettoDateCache) Known(date time.Time) bool {
	_, ok := c.cache.Get(toKey(date))
	return ok
}

func (c *RistrettoDateCache) Remember(date time.Time) {
	c.cache.Set(toKey(date), struct{}{}, 1)
}

func (c *RistrettoDateCache) Close() { c.cache.Close() }

func toKey(date time.Time) string { return domain.FormatDay(domain.Day(date)) }
