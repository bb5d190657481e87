package capability

import (
	"sync"
	"sync/atomic"
)

// Name identifies a capability kind.
type Name string

const (
	Cache       Name = "cache"
	Mail        Name = "mail"
	Metrics     Name = "metrics"
	Diagnostics Name = "diagnostics"
	Connection  Name = "connection"
	Logger      Name = "logger"
)

// Holder owns at most one installed implementation of a capability T.
//
// Until Install is called, Resolve serves the null object produced by the
// fallback constructor. The null object is built once and reused. Install may
// be called again to replace the active instance; there is no way back to the
// unset state.
//
// Holder is safe for concurrent use. Install publishes the instance with an
// atomic store, so a Resolve that runs after Install returns observes it and
// a concurrent Resolve sees either the previous value or the new one, never a
// partial one.
type Holder[T any] struct {
	name     Name
	active   atomic.Pointer[T]
	fallback func() T
	nullOnce sync.Once
	null     T
}

// NewHolder creates a holder for the named capability. fallback builds the
// null object and must not return a value with observable side effects.
func NewHolder[T any](name Name, fallback func() T) *Holder[T] {
	if fallback == nil {
		panic("capability: nil fallback for " + string(name))
	}
	return &Holder[T]{name: name, fallback: fallback}
}

// Install makes instance the active implementation.
func (h *Holder[T]) Install(instance T) {
	h.active.Store(&instance)
}

// Resolve returns the installed implementation or the memoized null object.
func (h *Holder[T]) Resolve() T {
	if p := h.active.Load(); p != nil {
		return *p
	}
	h.nullOnce.Do(func() {
		h.null = h.fallback()
	})
	return h.null
}

// Installed reports whether an explicit implementation has been installed.
func (h *Holder[T]) Installed() bool {
	return h.active.Load() != nil
}

// Name returns the capability name.
func (h *Holder[T]) Name() Name {
	return h.name
}
