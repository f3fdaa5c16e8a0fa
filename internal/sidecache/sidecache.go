// Package sidecache memoizes per-track side data lookups and
// deduplicates concurrent fetches for the same key.
package sidecache

import (
	"context"
	"sync"
)

// Cache memoizes fetch results by key. The first caller for a key runs
// the fetch; callers arriving while it is still in flight wait for that
// result instead of issuing their own. Resolved values, absence
// included, stay cached for the lifetime of the cache. Entries are
// never evicted.
type Cache[V any] struct {
	mu      sync.Mutex
	entries map[string]*entry[V]
}

type entry[V any] struct {
	done chan struct{}
	val  V
}

// New creates an empty cache.
func New[V any]() *Cache[V] {
	return &Cache[V]{entries: make(map[string]*entry[V])}
}

// GetOrFetch returns the value for key, running fetch on the first
// request. A caller whose ctx ends while another caller's fetch is
// still in flight gets the zero value back; the entry itself stays and
// resolves for everyone else.
func (c *Cache[V]) GetOrFetch(ctx context.Context, key string, fetch func(context.Context) V) V {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		e = &entry[V]{done: make(chan struct{})}
		c.entries[key] = e
		c.mu.Unlock()
		e.val = fetch(ctx)
		close(e.done)
		return e.val
	}
	c.mu.Unlock()

	select {
	case <-e.done:
		return e.val
	case <-ctx.Done():
		var zero V
		return zero
	}
}

// Len reports the number of entries, in-flight ones included.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
