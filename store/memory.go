package store

import (
	"context"
	"strings"
	"sync"
	"time"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryConn keeps values in process memory. Expired values are removed
// lazily on access.
type MemoryConn struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

func NewMemoryConn() *MemoryConn {
	return &MemoryConn{entries: make(map[string]entry), now: time.Now}
}

func (c *MemoryConn) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.live(key)
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), e.value...), true, nil
}

func (c *MemoryConn) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := entry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}

	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
	return nil
}

func (c *MemoryConn) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	for _, k := range keys {
		delete(c.entries, k)
	}
	c.mu.Unlock()
	return nil
}

func (c *MemoryConn) Keys(_ context.Context, prefix string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var keys []string
	for k := range c.entries {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		if _, ok := c.live(k); ok {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (c *MemoryConn) Close() error { return nil }

// live returns the entry for key, dropping it when expired. Caller holds mu.
func (c *MemoryConn) live(key string) (entry, bool) {
	e, ok := c.entries[key]
	if !ok {
		return entry{}, false
	}
	if !e.expiresAt.IsZero() && c.now().After(e.expiresAt) {
		delete(c.entries, key)
		return entry{}, false
	}
	return e, true
}
