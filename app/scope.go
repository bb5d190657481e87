package app

import (
	"github.com/leeforge/support/store"
)

// Scope is one unit of work, typically a request or a job. Buckets handed
// out by a scope are memoized for its lifetime and never evicted, so a scope
// should not outlive the work it serves.
type Scope struct {
	app     *Context
	buckets *store.Buckets
}

// NewScope binds a scope to the connection active right now.
func (c *Context) NewScope() *Scope {
	return &Scope{app: c, buckets: store.NewBuckets(c.Connection())}
}

// Bucket returns the bucket of ownerID in namespace, the same one on every
// call within this scope.
func (s *Scope) Bucket(ownerID int64, namespace string) *store.Bucket {
	return s.buckets.Get(ownerID, namespace)
}

func (s *Scope) App() *Context { return s.app }
