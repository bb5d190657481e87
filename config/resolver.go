package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cast"

	apperrors "github.com/leeforge/support/errors"
)

// Tree is a nested configuration mapping. Nested levels are Tree values.
type Tree = map[string]any

// Resolver answers dotted-path lookups against an immutable Tree.
//
// Lookups are strict: a path whose segments do not all resolve fails with an
// error of type ErrorTypeConfigurationMissing carrying the full path. No
// default is ever substituted. A Resolver is safe for concurrent use.
type Resolver struct {
	tree Tree
}

var validate = validator.New()

// NewResolver takes a deep copy of tree; later changes to the argument do not
// affect the resolver. map[any]any levels are normalized to Tree.
func NewResolver(tree map[string]any) *Resolver {
	if tree == nil {
		return &Resolver{tree: Tree{}}
	}
	return &Resolver{tree: cloneTree(tree)}
}

// Get returns the value at path. The empty path returns the whole tree.
// Mapping and sequence values are returned as copies.
func (r *Resolver) Get(path string) (any, error) {
	if path == "" {
		return cloneTree(r.tree), nil
	}

	v, ok := r.lookup(path)
	if !ok {
		return nil, apperrors.NewConfigurationMissing(path)
	}
	return cloneValue(v), nil
}

// Has reports whether path resolves.
func (r *Resolver) Has(path string) bool {
	if path == "" {
		return true
	}
	_, ok := r.lookup(path)
	return ok
}

func (r *Resolver) lookup(path string) (any, bool) {
	var current any = r.tree
	for _, segment := range strings.Split(path, ".") {
		level, ok := current.(Tree)
		if !ok {
			return nil, false
		}
		current, ok = level[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// Sub returns a resolver rooted at path, which must address a mapping.
func (r *Resolver) Sub(path string) (*Resolver, error) {
	v, err := r.Get(path)
	if err != nil {
		return nil, err
	}
	m, ok := v.(Tree)
	if !ok {
		return nil, apperrors.NewInvalid(path, v, "not a mapping")
	}
	return &Resolver{tree: m}, nil
}

// GetString resolves path and converts the value to a string.
func (r *Resolver) GetString(path string) (string, error) {
	return convert(r, path, cast.ToStringE)
}

// GetInt resolves path and converts the value to an int.
func (r *Resolver) GetInt(path string) (int, error) {
	return convert(r, path, cast.ToIntE)
}

// GetBool resolves path and converts the value to a bool.
func (r *Resolver) GetBool(path string) (bool, error) {
	return convert(r, path, cast.ToBoolE)
}

// GetDuration resolves path and converts the value to a time.Duration.
// Strings use time.ParseDuration syntax; bare numbers are nanoseconds.
func (r *Resolver) GetDuration(path string) (time.Duration, error) {
	return convert(r, path, cast.ToDurationE)
}

// GetStringSlice resolves path and converts the value to a []string.
func (r *Resolver) GetStringSlice(path string) ([]string, error) {
	return convert(r, path, cast.ToStringSliceE)
}

func convert[T any](r *Resolver, path string, fn func(any) (T, error)) (T, error) {
	var zero T
	v, err := r.Get(path)
	if err != nil {
		return zero, err
	}
	out, err := fn(v)
	if err != nil {
		return zero, apperrors.NewInvalid(path, v, err.Error()).WithInnerError(err)
	}
	return out, nil
}

// Bind decodes the mapping at path into target and runs struct validation
// (`validate` tags). The empty path binds the whole tree.
func (r *Resolver) Bind(path string, target any) error {
	v, err := r.Get(path)
	if err != nil {
		return err
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return apperrors.WrapWithType(err, apperrors.ErrorTypeInternal, "config: build decoder")
	}
	if err := decoder.Decode(v); err != nil {
		return apperrors.WrapWithType(err, apperrors.ErrorTypeInvalid, fmt.Sprintf("config: decode %q", path)).
			WithDetail("path", path)
	}

	if err := validate.Struct(target); err != nil {
		if _, ok := err.(*validator.InvalidValidationError); ok {
			return nil
		}
		return apperrors.WrapWithType(err, apperrors.ErrorTypeValidation, fmt.Sprintf("config: validate %q", path)).
			WithDetail("path", path)
	}
	return nil
}

func cloneTree(in map[string]any) Tree {
	out := make(Tree, len(in))
	for k, v := range in {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneTree(t)
	case map[any]any:
		m := make(Tree, len(t))
		for k, val := range t {
			m[fmt.Sprint(k)] = cloneValue(val)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, item := range t {
			s[i] = cloneValue(item)
		}
		return s
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}
