// Package instancecache memoizes auxiliary objects per (owner, namespace).
//
// Entries are never evicted; the cache lives as long as the unit of work that
// owns it. Create one per request or job, not per process, when owner ids are
// unbounded.
package instancecache

import "sync"

// Identity is the composite key of an entry.
type Identity struct {
	OwnerID   int64
	Namespace string
}

// Constructor builds the object for an identity from the shared handle.
type Constructor[H, A any] func(handle H, ownerID int64, namespace string) A

type Cache[H, A any] struct {
	handle  H
	build   Constructor[H, A]
	mu      sync.Mutex
	entries map[Identity]A
}

// New binds the cache to handle. The cache never opens or closes it.
func New[H, A any](handle H, build Constructor[H, A]) *Cache[H, A] {
	if build == nil {
		panic("instancecache: nil constructor")
	}
	return &Cache[H, A]{
		handle:  handle,
		build:   build,
		entries: make(map[Identity]A),
	}
}

// Get returns the object for (ownerID, namespace), constructing it on the
// first request. Concurrent first requests construct exactly once.
func (c *Cache[H, A]) Get(ownerID int64, namespace string) A {
	id := Identity{OwnerID: ownerID, Namespace: namespace}

	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.entries[id]; ok {
		return v
	}
	v := c.build(c.handle, ownerID, namespace)
	c.entries[id] = v
	return v
}

func (c *Cache[H, A]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache[H, A]) Handle() H {
	return c.handle
}
