package cache

import (
	"context"
	"time"

	"github.com/leeforge/support/metrics"
)

// Instrumented decorates a Cache with hit, miss and write counters.
type Instrumented struct {
	next     Cache
	recorder metrics.Recorder
	labels   metrics.Labels
}

// NewInstrumented labels every sample with cache=name.
func NewInstrumented(next Cache, recorder metrics.Recorder, name string) *Instrumented {
	return &Instrumented{
		next:     next,
		recorder: recorder,
		labels:   metrics.Labels{"cache": name},
	}
}

func (c *Instrumented) Exists(ctx context.Context, path string) bool {
	ok := c.next.Exists(ctx, path)
	c.record(ok)
	return ok
}

func (c *Instrumented) Get(ctx context.Context, path string) (any, bool) {
	v, ok := c.next.Get(ctx, path)
	c.record(ok)
	return v, ok
}

func (c *Instrumented) Set(ctx context.Context, path string, value any, ttl time.Duration) error {
	start := time.Now()
	err := c.next.Set(ctx, path, value, ttl)
	c.recorder.ObserveDuration("cache_set_duration_seconds", time.Since(start), c.labels)
	if err != nil {
		c.recorder.IncCounter("cache_errors_total", c.labels)
	}
	return err
}

func (c *Instrumented) Invalidate(ctx context.Context, path string) error {
	c.recorder.IncCounter("cache_invalidations_total", c.labels)
	return c.next.Invalidate(ctx, path)
}

func (c *Instrumented) Flush(ctx context.Context) error {
	c.recorder.IncCounter("cache_flushes_total", c.labels)
	return c.next.Flush(ctx)
}

// Unwrap returns the decorated cache.
func (c *Instrumented) Unwrap() Cache {
	return c.next
}

func (c *Instrumented) record(hit bool) {
	if hit {
		c.recorder.IncCounter("cache_hits_total", c.labels)
		return
	}
	c.recorder.IncCounter("cache_misses_total", c.labels)
}
