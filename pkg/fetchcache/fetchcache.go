// Package fetchcache provides the in-memory byte cache backing the fetcher.
// It keeps recently downloaded images so that staging the same image to a
// batch of identical routers does not hit the upstream mirror once per
// device.
package fetchcache

import (
	"time"

	"github.com/dgraph-io/ristretto"

	"github.com/freifunk-luebeck/fwds/pkg/fetcher"
)

const itemSizeLimit = 64 * (1 << 20) // 64MiB

// Cache is a memory-bounded URL-keyed byte cache.
type Cache struct {
	cache *ristretto.Cache
	ttl   time.Duration
}

var _ fetcher.Cache = (*Cache)(nil)

// New returns a Cache bounded to memoryLimit bytes. Entries expire after ttl;
// a ttl of 0 keeps them until evicted by size pressure.
func New(memoryLimit uint64, ttl time.Duration) (*Cache, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1000,
		MaxCost:     int64(memoryLimit),
		BufferItems: 64,
		Metrics:     false,
	})
	if err != nil {
		return nil, err
	}
	return &Cache{
		cache: cache,
		ttl:   ttl,
	}, nil
}

// Get implements fetcher.Cache.
func (c *Cache) Get(key string) ([]byte, bool) {
	v, ok := c.cache.Get(key)
	if !ok {
		return nil, false
	}
	b, ok := v.([]byte)
	return b, ok
}

// Set implements fetcher.Cache. Admission is best-effort: oversized values
// are not stored at all, everything else competes for the memory budget.
func (c *Cache) Set(key string, value []byte) {
	if len(value) > itemSizeLimit {
		return
	}
	c.cache.SetWithTTL(key, value, int64(len(value)), c.ttl)
}

// Del implements fetcher.Cache.
func (c *Cache) Del(key string) {
	c.cache.Del(key)
}

// Wait blocks until buffered Set operations have been applied. Needed only
// when a read must observe a just-written value, e.g. in tests.
func (c *Cache) Wait() {
	c.cache.Wait()
}
