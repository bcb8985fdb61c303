// Package cache memoizes pure type queries. Types and constraint sets are
// immutable once constructed, so results keyed by their canonical rendering
// can be shared by concurrent checks of independent files.
package cache

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// QueryCache is a read-mostly concurrent memo table. Concurrent misses for
// the same key are collapsed into a single computation.
type QueryCache struct {
	m     sync.Map
	group singleflight.Group
}

func New() *QueryCache {
	return &QueryCache{}
}

// Bool returns the cached result for key, computing it once via fn.
func (c *QueryCache) Bool(key string, fn func() bool) bool {
	if v, ok := c.m.Load(key); ok {
		return v.(bool)
	}
	v, _, _ := c.group.Do(key, func() (interface{}, error) {
		r := fn()
		c.m.Store(key, r)
		return r, nil
	})
	return v.(bool)
}

// Len reports the number of memoized entries, for tests.
func (c *QueryCache) Len() int {
	n := 0
	c.m.Range(func(_, _ interface{}) bool {
		n++
		return true
	})
	return n
}
