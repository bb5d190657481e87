// Package registry maps a (category, variant) pair to a factory that builds
// a fresh object of a shared base type on every call.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	apperrors "github.com/leeforge/support/errors"
	"github.com/leeforge/support/logging"
)

// Key identifies a factory. Both parts match exactly and case-sensitively.
type Key struct {
	Category string
	Variant  string
}

func (k Key) String() string {
	return k.Category + "/" + k.Variant
}

// Factory builds a new instance. It is called once per Create.
type Factory[T any] func() T

// Policy selects how Create reports an unknown key.
type Policy int

const (
	// PolicyAbort panics with the UnknownRegistryKey error.
	PolicyAbort Policy = iota
	// PolicyPropagate returns the UnknownRegistryKey error to the caller.
	PolicyPropagate
)

func (p Policy) String() string {
	switch p {
	case PolicyPropagate:
		return "propagate"
	default:
		return "abort"
	}
}

type Option func(*options)

type options struct {
	policy Policy
	logger logging.Logger
}

func WithPolicy(p Policy) Option {
	return func(o *options) { o.policy = p }
}

func WithLogger(l logging.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Registry is safe for concurrent use. Factories run outside the lock.
type Registry[T any] struct {
	mu        sync.RWMutex
	factories map[Key]Factory[T]
	policy    Policy
	logger    logging.Logger
}

func New[T any](opts ...Option) *Registry[T] {
	o := options{policy: PolicyAbort, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Registry[T]{
		factories: make(map[Key]Factory[T]),
		policy:    o.policy,
		logger:    o.logger,
	}
}

// Register records factory under (category, variant). A later registration
// for the same key replaces the earlier one. A nil factory panics.
func (r *Registry[T]) Register(category, variant string, factory Factory[T]) {
	key := Key{Category: category, Variant: variant}
	if factory == nil {
		panic(apperrors.NewInternal("registry: nil factory for " + key.String()))
	}

	r.mu.Lock()
	_, replaced := r.factories[key]
	r.factories[key] = factory
	r.mu.Unlock()

	if replaced {
		r.logger.Debug("factory replaced", zap.String("key", key.String()))
	}
}

// Create invokes the factory for (category, variant). Unknown keys panic
// under PolicyAbort and are returned under PolicyPropagate.
func (r *Registry[T]) Create(category, variant string) (T, error) {
	v, err := r.create(category, variant)
	if err != nil && r.policy == PolicyAbort {
		panic(err)
	}
	return v, err
}

// MustCreate is Create that always panics on an unknown key.
func (r *Registry[T]) MustCreate(category, variant string) T {
	v, err := r.create(category, variant)
	if err != nil {
		panic(err)
	}
	return v
}

func (r *Registry[T]) create(category, variant string) (T, error) {
	r.mu.RLock()
	factory, ok := r.factories[Key{Category: category, Variant: variant}]
	r.mu.RUnlock()

	if !ok {
		var zero T
		return zero, apperrors.NewUnknownRegistryKey(category, variant)
	}
	return factory(), nil
}

func (r *Registry[T]) Has(category, variant string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[Key{Category: category, Variant: variant}]
	return ok
}

// Keys returns all registered keys ordered by category, then variant.
func (r *Registry[T]) Keys() []Key {
	r.mu.RLock()
	keys := make([]Key, 0, len(r.factories))
	for k := range r.factories {
		keys = append(keys, k)
	}
	r.mu.RUnlock()

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Category != keys[j].Category {
			return keys[i].Category < keys[j].Category
		}
		return keys[i].Variant < keys[j].Variant
	})
	return keys
}

func (r *Registry[T]) Policy() Policy {
	return r.policy
}

// CreateAs creates from an untyped registry and asserts the result to T.
func CreateAs[T any](r *Registry[any], category, variant string) (T, error) {
	var zero T
	v, err := r.Create(category, variant)
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, apperrors.NewInternal(fmt.Sprintf("%s/%s built %T, want %T", category, variant, v, zero)).
			WithDetail("category", category).
			WithDetail("variant", variant)
	}
	return typed, nil
}
