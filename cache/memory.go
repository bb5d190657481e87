package cache

import (
	"context"
	"sync"
	"time"
)

// DefaultJanitorInterval is how often Memory sweeps expired entries.
const DefaultJanitorInterval = 5 * time.Minute

type item struct {
	value     any
	expiresAt time.Time
}

func (i *item) expired(now time.Time) bool {
	return !i.expiresAt.IsZero() && now.After(i.expiresAt)
}

// Memory is an in-process cache. Expired entries are hidden on read and
// removed by a background janitor until Close is called.
type Memory struct {
	items map[string]*item
	mu    sync.RWMutex
	now   func() time.Time

	stop      chan struct{}
	closeOnce sync.Once
}

// NewMemory starts a cache whose janitor runs every interval. A non-positive
// interval disables the janitor.
func NewMemory(interval time.Duration) *Memory {
	m := &Memory{
		items: make(map[string]*item),
		now:   time.Now,
		stop:  make(chan struct{}),
	}
	if interval > 0 {
		go m.janitor(interval)
	}
	return m
}

func (m *Memory) Exists(ctx context.Context, path string) bool {
	_, ok := m.Get(ctx, path)
	return ok
}

func (m *Memory) Get(_ context.Context, path string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	it, ok := m.items[path]
	if !ok || it.expired(m.now()) {
		return nil, false
	}
	return it.value, true
}

func (m *Memory) Set(_ context.Context, path string, value any, ttl time.Duration) error {
	it := &item{value: value}
	if ttl > 0 {
		it.expiresAt = m.now().Add(ttl)
	}

	m.mu.Lock()
	m.items[path] = it
	m.mu.Unlock()
	return nil
}

func (m *Memory) Invalidate(_ context.Context, path string) error {
	m.mu.Lock()
	delete(m.items, path)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Flush(context.Context) error {
	m.mu.Lock()
	m.items = make(map[string]*item)
	m.mu.Unlock()
	return nil
}

// Len counts stored entries, including expired ones not yet swept.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// Close stops the janitor. The cache stays usable.
func (m *Memory) Close() error {
	m.closeOnce.Do(func() { close(m.stop) })
	return nil
}

func (m *Memory) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

func (m *Memory) sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for path, it := range m.items {
		if it.expired(now) {
			delete(m.items, path)
		}
	}
}
