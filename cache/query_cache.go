package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// PlanCache is a size-bounded LRU of parsed query plans keyed by fingerprint.
// A cache created with size <= 0 stores nothing.
type PlanCache[V any] struct {
	cache *lru.Cache[uint64, V]
}

func NewPlanCache[V any](size int) *PlanCache[V] {
	if size <= 0 {
		return &PlanCache[V]{}
	}
	cache, err := lru.New[uint64, V](size)
	if err != nil {
		return &PlanCache[V]{}
	}
	return &PlanCache[V]{cache: cache}
}

func (c *PlanCache[V]) Get(key uint64) (V, bool) {
	if c == nil || c.cache == nil {
		var zero V
		return zero, false
	}
	return c.cache.Get(key)
}

func (c *PlanCache[V]) Set(key uint64, v V) {
	if c == nil || c.cache == nil {
		return
	}
	c.cache.Add(key, v)
}

// GetOrCompute returns the cached plan for key, building and storing it on a miss.
// Concurrent misses may both build; plans are pure so either result is kept.
func (c *PlanCache[V]) GetOrCompute(key uint64, build func() V) V {
	if v, ok := c.Get(key); ok {
		return v
	}
	v := build()
	c.Set(key, v)
	return v
}

func (c *PlanCache[V]) Len() int {
	if c == nil || c.cache == nil {
		return 0
	}
	return c.cache.Len()
}

func (c *PlanCache[V]) Enabled() bool {
	return c != nil && c.cache != nil
}
