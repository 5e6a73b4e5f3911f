package client

import "sync"

// epochCache is a bounded memoization keyed by epoch, evicting the oldest
// epoch first once it grows past its capacity. It re-architects the
// original's per-method `@lru_cache(maxsize=N)` annotations as an explicit,
// inspectable map.
type epochCache[V any] struct {
	mu       sync.Mutex
	capacity int
	order    []uint64
	values   map[uint64]V
}

func newEpochCache[V any](capacity int) *epochCache[V] {
	return &epochCache[V]{
		capacity: capacity,
		values:   make(map[uint64]V, capacity),
	}
}

// Get returns the cached value for epoch, if any.
func (c *epochCache[V]) Get(epoch uint64) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[epoch]
	return v, ok
}

// Set stores value for epoch, evicting the oldest cached epoch if this
// insert would exceed capacity.
func (c *epochCache[V]) Set(epoch uint64, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.values[epoch]; !exists {
		c.order = append(c.order, epoch)
		for len(c.order) > c.capacity {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.values, oldest)
		}
	}
	c.values[epoch] = value
}
