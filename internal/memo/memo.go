// Package memo provides memoized queries: each key is computed at most once
// per generation, and concurrent requests for the same key share a single
// computation.
package memo

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// Cache memoizes a pure function of K.
type Cache[K comparable, V any] struct {
	name    string
	compute func(K) V
	logger  *slog.Logger

	mu         sync.RWMutex
	values     map[K]V
	generation uint64

	group        singleflight.Group
	computations atomic.Int64
}

// New creates a cache named name for compute. A nil logger discards output.
func New[K comparable, V any](name string, logger *slog.Logger, compute func(K) V) *Cache[K, V] {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Cache[K, V]{
		name:    name,
		compute: compute,
		logger:  logger,
		values:  make(map[K]V),
	}
}

// Get returns the memoized value for key, computing it if needed.
//
// compute may call Get on other keys of this or other caches, as long as
// the dependency graph between keys is acyclic.
func (c *Cache[K, V]) Get(key K) V {
	c.mu.RLock()
	v, ok := c.values[key]
	gen := c.generation
	c.mu.RUnlock()
	if ok {
		return v
	}

	res, _, _ := c.group.Do(fmt.Sprintf("%d/%#v", gen, key), func() (any, error) {
		c.mu.RLock()
		v, ok := c.values[key]
		c.mu.RUnlock()
		if ok {
			return v, nil
		}

		c.logger.Debug("computing query", "query", c.name, "key", key)
		v = c.compute(key)
		c.computations.Add(1)

		c.mu.Lock()
		// Drop results computed against inputs that changed meanwhile.
		if c.generation == gen {
			c.values[key] = v
		}
		c.mu.Unlock()
		return v, nil
	})
	out, _ := res.(V)
	return out
}

// Invalidate drops every memoized value.
func (c *Cache[K, V]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.values) > 0 {
		c.logger.Debug("invalidating query", "query", c.name, "entries", len(c.values))
	}
	c.values = make(map[K]V)
	c.generation++
}

// Len returns the number of memoized values.
func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.values)
}

// Computations returns how many times compute has run.
func (c *Cache[K, V]) Computations() int64 {
	return c.computations.Load()
}
