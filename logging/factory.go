package logging

import (
	"sync"
)

// Factory hands out named children of one root logger. Children are created
// once per name.
type Factory struct {
	root    Logger
	loggers sync.Map // map[string]Logger
}

// NewFactory creates a Factory rooted at logger.
func NewFactory(root Logger) *Factory {
	if root == nil {
		root = NewNop()
	}
	return &Factory{root: root}
}

// GetLogger returns the logger named name, creating it if necessary.
func (f *Factory) GetLogger(name string) Logger {
	if v, ok := f.loggers.Load(name); ok {
		return v.(Logger)
	}
	actual, _ := f.loggers.LoadOrStore(name, f.root.Named(name))
	return actual.(Logger)
}

// Root returns the logger the factory was created with.
func (f *Factory) Root() Logger {
	return f.root
}
