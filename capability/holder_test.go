package capability

import (
	"sync"
	"sync/atomic"
	"testing"
)

type greeter interface {
	Greet() string
}

type nullGreeter struct{}

func (nullGreeter) Greet() string { return "" }

type realGreeter struct{ word string }

func (g *realGreeter) Greet() string { return g.word }

func newGreeterHolder(builds *atomic.Int32) *Holder[greeter] {
	return NewHolder[greeter]("greeter", func() greeter {
		if builds != nil {
			builds.Add(1)
		}
		return &nullGreeter{}
	})
}

func TestHolder_ResolveBeforeInstallServesNullObject(t *testing.T) {
	h := newGreeterHolder(nil)

	if h.Installed() {
		t.Fatal("new holder should not report an installed instance")
	}
	if _, ok := h.Resolve().(*nullGreeter); !ok {
		t.Fatalf("Resolve() = %T, want *nullGreeter", h.Resolve())
	}
	if got := h.Resolve().Greet(); got != "" {
		t.Errorf("null Greet() = %q, want empty", got)
	}
}

func TestHolder_NullObjectIsMemoized(t *testing.T) {
	var builds atomic.Int32
	h := newGreeterHolder(&builds)

	first := h.Resolve()
	second := h.Resolve()

	if first != second {
		t.Error("Resolve() should return the same null object on every call")
	}
	if builds.Load() != 1 {
		t.Errorf("fallback called %d times, want 1", builds.Load())
	}
}

func TestHolder_InstallReturnsSameInstance(t *testing.T) {
	h := newGreeterHolder(nil)
	g := &realGreeter{word: "hello"}

	h.Install(g)

	for i := 0; i < 3; i++ {
		if got := h.Resolve(); got != g {
			t.Fatalf("Resolve() = %v, want installed instance", got)
		}
	}
	if !h.Installed() {
		t.Error("Installed() should be true after Install")
	}
}

func TestHolder_ReinstallOverwrites(t *testing.T) {
	h := newGreeterHolder(nil)
	first := &realGreeter{word: "a"}
	second := &realGreeter{word: "b"}

	h.Install(first)
	h.Install(second)

	if got := h.Resolve(); got != second {
		t.Errorf("Resolve() = %v, want second instance", got)
	}
}

func TestHolder_Name(t *testing.T) {
	h := NewHolder[greeter](Cache, func() greeter { return nullGreeter{} })
	if h.Name() != Cache {
		t.Errorf("Name() = %q, want %q", h.Name(), Cache)
	}
}

func TestHolder_NilFallbackPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("NewHolder with nil fallback should panic")
		}
	}()
	NewHolder[greeter]("x", nil)
}

func TestHolder_ConcurrentInstallAndResolve(t *testing.T) {
	h := newGreeterHolder(nil)
	installed := &realGreeter{word: "live"}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			g := h.Resolve()
			switch g.(type) {
			case *nullGreeter, *realGreeter:
			default:
				t.Errorf("unexpected instance %T", g)
			}
		}()
		go func() {
			defer wg.Done()
			h.Install(installed)
		}()
	}
	wg.Wait()

	if h.Resolve() != installed {
		t.Error("after all installs Resolve() should return the installed instance")
	}
}
