package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// QueryCache memoizes read-only query results between writes. Entries expire
// after ttl; Invalidate drops everything at once.
type QueryCache struct {
	store *gocache.Cache
}

func New(ttl time.Duration) *QueryCache {
	return &QueryCache{store: gocache.New(ttl, 2*ttl)}
}

// Load returns the cached value for key, calling loader on a miss. Loader
// errors are returned as is and nothing is cached.
func Load[T any](c *QueryCache, key string, loader func() (T, error)) (T, error) {
	if v, ok := c.store.Get(key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}
	v, err := loader()
	if err != nil {
		var zero T
		return zero, err
	}
	c.store.SetDefault(key, v)
	return v, nil
}

// Invalidate drops every cached entry
func (c *QueryCache) Invalidate() {
	c.store.Flush()
}

func (c *QueryCache) Len() int {
	return c.store.ItemCount()
}
