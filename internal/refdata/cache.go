package refdata

import (
	"context"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Loader produces a fresh set of tables.
type Loader func(ctx context.Context) (*Tables, error)

// Cache memoizes one Tables value for the life of a session. Concurrent cold
// reads share a single load.
type Cache struct {
	load Loader

	mu     sync.RWMutex
	tables *Tables
	gen    uint64 // bumped by Invalidate
	group  singleflight.Group
}

func NewCache(load Loader) *Cache {
	return &Cache{load: load}
}

// Get returns the cached tables, loading them once if needed. The shared
// load does not inherit the caller's cancellation; a cancelled caller stops
// waiting but the other waiters still get the result.
func (c *Cache) Get(ctx context.Context) (*Tables, error) {
	c.mu.RLock()
	t, gen := c.tables, c.gen
	c.mu.RUnlock()
	if t != nil {
		return t, nil
	}

	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(flightKey(gen), func() (any, error) {
		c.mu.RLock()
		cached := c.tables
		c.mu.RUnlock()
		if cached != nil {
			return cached, nil
		}
		t, err := c.load(loadCtx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		// An Invalidate during the load makes this result stale for the cache.
		if c.gen == gen {
			c.tables = t
		}
		c.mu.Unlock()
		return t, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Tables), nil
	}
}

func flightKey(gen uint64) string {
	return "tables/" + strconv.FormatUint(gen, 10)
}

// Invalidate drops the cached tables; the next Get reloads from disk, even if
// a load is already in flight.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.tables = nil
	c.gen++
	c.mu.Unlock()
}

// Loaded reports whether tables are currently cached.
func (c *Cache) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tables != nil
}
