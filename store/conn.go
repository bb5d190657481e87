// Package store holds the shared connection capability and the per-owner
// buckets built on top of it.
package store

import (
	"context"
	"time"
)

// Conn is a shared key-value connection. A zero ttl keeps the value until
// it is deleted.
type Conn interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// Keys lists keys starting with prefix, in no particular order.
	Keys(ctx context.Context, prefix string) ([]string, error)
	Close() error
}

type nullConn struct{}

// NewNullConn returns the connection that stores nothing.
func NewNullConn() Conn { return nullConn{} }

func (nullConn) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (nullConn) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (nullConn) Delete(context.Context, ...string) error                  { return nil }
func (nullConn) Keys(context.Context, string) ([]string, error)           { return nil, nil }
func (nullConn) Close() error                                             { return nil }
