// Package cache is the cache capability. Entries are addressed by a path
// string and may carry a time-to-live.
package cache

import (
	"context"
	"time"
)

// Cache is implemented by every cache backend. A zero ttl means the entry
// does not expire.
type Cache interface {
	Exists(ctx context.Context, path string) bool
	Get(ctx context.Context, path string) (any, bool)
	Set(ctx context.Context, path string, value any, ttl time.Duration) error
	Invalidate(ctx context.Context, path string) error
	Flush(ctx context.Context) error
}

type null struct{}

// NewNull returns the cache that stores nothing: every lookup misses and
// every write succeeds.
func NewNull() Cache { return null{} }

func (null) Exists(context.Context, string) bool                   { return false }
func (null) Get(context.Context, string) (any, bool)               { return nil, false }
func (null) Set(context.Context, string, any, time.Duration) error { return nil }
func (null) Invalidate(context.Context, string) error              { return nil }
func (null) Flush(context.Context) error                           { return nil }

// Remember returns the cached value at path, or computes it with fn and
// stores it for ttl. Errors from fn are returned and nothing is stored.
func Remember(ctx context.Context, c Cache, path string, ttl time.Duration, fn func(context.Context) (any, error)) (any, error) {
	if v, ok := c.Get(ctx, path); ok {
		return v, nil
	}
	v, err := fn(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.Set(ctx, path, v, ttl); err != nil {
		return v, err
	}
	return v, nil
}
