// Package memo provides a keyed compute-once cache. Concurrent first callers
// for the same key share a single computation; later callers get the stored
// value until the cache is invalidated.
package memo

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// Cache memoizes values of type V by string key. The zero value is ready to use.
type Cache[V any] struct {
	// OnEvict, when set, receives every value the cache lets go of: values
	// dropped by Invalidate, and values computed while an Invalidate raced
	// them and so never stored. It runs without the cache lock held.
	OnEvict func(V)

	mu     sync.Mutex
	group  singleflight.Group
	values map[string]V
	gen    uint64
}

// Get returns the cached value for key, calling fn to compute it on a miss.
// Errors are returned to every waiter of that computation and are not cached.
func (c *Cache[V]) Get(key string, fn func() (V, error)) (V, error) {
	if v, ok := c.lookup(key); ok {
		return v, nil
	}

	res, err, _ := c.group.Do(key, func() (any, error) {
		// Re-check: a computation for key may have finished between lookup and Do.
		if v, ok := c.lookup(key); ok {
			return v, nil
		}
		c.mu.Lock()
		gen := c.gen
		c.mu.Unlock()

		v, err := fn()
		if err != nil {
			return v, err
		}

		c.mu.Lock()
		stored := c.gen == gen
		if stored {
			if c.values == nil {
				c.values = make(map[string]V)
			}
			c.values[key] = v
		}
		c.mu.Unlock()
		if !stored {
			c.evict(v)
		}
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return res.(V), nil
}

// Invalidate drops every cached value. Computations already in flight finish
// but their results are not stored.
func (c *Cache[V]) Invalidate() {
	c.mu.Lock()
	old := c.values
	c.values = nil
	c.gen++
	c.mu.Unlock()
	for _, v := range old {
		c.evict(v)
	}
}

func (c *Cache[V]) evict(v V) {
	if c.OnEvict != nil {
		c.OnEvict(v)
	}
}

// Peek returns the cached value for key without computing it.
func (c *Cache[V]) Peek(key string) (V, bool) {
	return c.lookup(key)
}

// Len reports how many keys are cached.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.values)
}

func (c *Cache[V]) lookup(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	return v, ok
}
