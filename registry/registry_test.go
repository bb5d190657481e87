package registry

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/leeforge/support/errors"
)

type store interface{ Kind() string }

type fileStore struct{ dir string }

func (f *fileStore) Kind() string { return "file" }

type memStore struct{}

func (memStore) Kind() string { return "memory" }

func TestCreateKnownAndUnknown(t *testing.T) {
	r := New[store](WithPolicy(PolicyPropagate))
	r.Register("cache", "file", func() store { return &fileStore{dir: "/tmp"} })

	got, err := r.Create("cache", "file")
	require.NoError(t, err)
	require.Equal(t, "file", got.Kind())

	_, err = r.Create("cache", "redis")
	require.Error(t, err)
	require.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnknownRegistryKey))

	appErr := apperrors.FromError(err)
	require.Equal(t, "cache", appErr.Detail("category"))
	require.Equal(t, "redis", appErr.Detail("variant"))
}

func TestCreateBuildsFreshInstances(t *testing.T) {
	r := New[store]()
	r.Register("cache", "file", func() store { return &fileStore{} })

	a, err := r.Create("cache", "file")
	require.NoError(t, err)
	b, err := r.Create("cache", "file")
	require.NoError(t, err)
	require.NotSame(t, a, b)
}

func TestKeysAreCaseSensitive(t *testing.T) {
	r := New[store](WithPolicy(PolicyPropagate))
	r.Register("cache", "file", func() store { return &fileStore{} })

	require.True(t, r.Has("cache", "file"))
	require.False(t, r.Has("Cache", "file"))
	_, err := r.Create("cache", "File")
	require.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnknownRegistryKey))
}

func TestRegisterOverwrites(t *testing.T) {
	r := New[store]()
	r.Register("cache", "x", func() store { return &fileStore{} })
	r.Register("cache", "x", func() store { return memStore{} })

	got, err := r.Create("cache", "x")
	require.NoError(t, err)
	require.Equal(t, "memory", got.Kind())
	require.Len(t, r.Keys(), 1)
}

func TestRegisterRejectsNilFactory(t *testing.T) {
	r := New[store](WithPolicy(PolicyPropagate))
	require.Panics(t, func() { r.Register("cache", "nil", nil) })
	require.False(t, r.Has("cache", "nil"))
	_, err := r.Create("cache", "nil")
	require.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnknownRegistryKey))
}

func TestAbortPolicyPanics(t *testing.T) {
	r := New[store]()
	require.Equal(t, PolicyAbort, r.Policy())

	defer func() {
		rec := recover()
		require.NotNil(t, rec)
		err, ok := rec.(error)
		require.True(t, ok)
		require.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnknownRegistryKey))
	}()
	_, _ = r.Create("cache", "redis")
	t.Fatal("Create did not panic")
}

func TestMustCreatePanicsUnderPropagate(t *testing.T) {
	r := New[store](WithPolicy(PolicyPropagate))
	require.Panics(t, func() { r.MustCreate("mail", "smtp") })
}

func TestKeysSorted(t *testing.T) {
	r := New[store]()
	noop := func() store { return memStore{} }
	r.Register("mail", "smtp", noop)
	r.Register("cache", "redis", noop)
	r.Register("cache", "memory", noop)

	require.Equal(t, []Key{
		{"cache", "memory"},
		{"cache", "redis"},
		{"mail", "smtp"},
	}, r.Keys())
}

func TestCreateAs(t *testing.T) {
	r := New[any](WithPolicy(PolicyPropagate))
	r.Register("cache", "file", func() any { return &fileStore{} })
	r.Register("cache", "bad", func() any { return 42 })

	fs, err := CreateAs[*fileStore](r, "cache", "file")
	require.NoError(t, err)
	require.NotNil(t, fs)

	_, err = CreateAs[*fileStore](r, "cache", "bad")
	require.True(t, apperrors.IsType(err, apperrors.ErrorTypeInternal))

	_, err = CreateAs[*fileStore](r, "cache", "none")
	require.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnknownRegistryKey))
}

func TestConcurrentCreate(t *testing.T) {
	r := New[store](WithPolicy(PolicyPropagate))
	var built atomic.Int64
	r.Register("cache", "file", func() store {
		built.Add(1)
		return &fileStore{}
	})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if _, err := r.Create("cache", "file"); err != nil {
					t.Error(err)
					return
				}
				if i%4 == 0 {
					r.Register("cache", "other", func() store { return memStore{} })
				}
			}
		}(i)
	}
	wg.Wait()
	require.EqualValues(t, 16*50, built.Load())
}
