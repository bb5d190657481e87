package store

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	redis "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
)

func TestNullConn(t *testing.T) {
	ctx := context.Background()
	c := NewNullConn()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	v, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, v)
	keys, err := c.Keys(ctx, "")
	require.NoError(t, err)
	require.Empty(t, keys)
	require.NoError(t, c.Delete(ctx, "k"))
	require.NoError(t, c.Close())
}

func TestMemoryConn(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryConn()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "a:1", []byte("one"), 0))
	require.NoError(t, c.Set(ctx, "a:2", []byte("two"), time.Second))
	require.NoError(t, c.Set(ctx, "b:1", []byte("x"), 0))

	v, ok, err := c.Get(ctx, "a:1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("one"), v)
	v[0] = 'X'
	v, _, _ = c.Get(ctx, "a:1")
	require.Equal(t, []byte("one"), v)

	keys, err := c.Keys(ctx, "a:")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"a:1", "a:2"}, keys)

	now = now.Add(2 * time.Second)
	_, ok, _ = c.Get(ctx, "a:2")
	require.False(t, ok)
	keys, _ = c.Keys(ctx, "a:")
	require.Equal(t, []string{"a:1"}, keys)

	require.NoError(t, c.Delete(ctx, "a:1", "b:1"))
	keys, _ = c.Keys(ctx, "")
	require.Empty(t, keys)
}

func TestBucketKeyLayout(t *testing.T) {
	tests := []struct {
		owner int64
		ns    string
		key   string
		want  string
	}{
		{42, "prefs", "theme", "42:prefs:theme"},
		{-1, "", "k", "-1::k"},
		{7, "a:b", "c", "7:a%3Ab:c"},
		{7, "100%", "c", "7:100%25:c"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, NewBucket(NewNullConn(), tt.owner, tt.ns).Key(tt.key))
	}
}

func TestBucketOperations(t *testing.T) {
	ctx := context.Background()
	conn := NewMemoryConn()
	b := NewBucket(conn, 42, "prefs")
	other := NewBucket(conn, 42, "settings")

	require.NoError(t, b.Set(ctx, "theme", []byte("dark"), 0))
	require.NoError(t, b.Set(ctx, "lang", []byte("en"), 0))
	require.NoError(t, other.Set(ctx, "theme", []byte("light"), 0))

	v, ok, err := b.Get(ctx, "theme")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "dark", string(v))

	keys, err := b.Keys(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"lang", "theme"}, keys)

	require.NoError(t, b.Delete(ctx, "lang"))
	keys, _ = b.Keys(ctx)
	require.Equal(t, []string{"theme"}, keys)

	require.NoError(t, b.Clear(ctx))
	keys, _ = b.Keys(ctx)
	require.Empty(t, keys)

	v, ok, _ = other.Get(ctx, "theme")
	require.True(t, ok)
	require.Equal(t, "light", string(v))
}

type prefs struct {
	Theme    string `json:"theme" default:"light"`
	PageSize int    `json:"page_size" default:"20"`
}

func TestBucketJSON(t *testing.T) {
	ctx := context.Background()
	b := NewBucket(NewMemoryConn(), 1, "prefs")

	var p prefs
	ok, err := b.GetJSON(ctx, "ui", &p)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, prefs{}, p)

	require.NoError(t, b.SetJSON(ctx, "ui", &prefs{Theme: "dark"}, 0))
	ok, err = b.GetJSON(ctx, "ui", &p)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, prefs{Theme: "dark", PageSize: 20}, p)

	require.NoError(t, b.Set(ctx, "raw", []byte("{"), 0))
	_, err = b.GetJSON(ctx, "raw", &p)
	require.Error(t, err)
}

func TestBucketsMemoizePerIdentity(t *testing.T) {
	conn := NewMemoryConn()
	buckets := NewBuckets(conn)

	a := buckets.Get(42, "prefs")
	require.Same(t, a, buckets.Get(42, "prefs"))
	require.NotSame(t, a, buckets.Get(42, "settings"))
	require.NotSame(t, a, buckets.Get(43, "prefs"))
	require.Equal(t, int64(42), a.OwnerID())
	require.Equal(t, "prefs", a.Namespace())
	require.Same(t, conn, buckets.Handle())
	require.Equal(t, 3, buckets.Len())
}

func TestRedisConn(t *testing.T) {
	addr := strings.TrimSpace(os.Getenv("REDIS_TEST_ADDR"))
	if addr == "" {
		t.Skip("set REDIS_TEST_ADDR to run redis integration tests")
	}
	conn := NewRedisConn(redis.NewClient(&redis.Options{Addr: addr, Password: os.Getenv("REDIS_TEST_PASSWORD")}))
	defer conn.Close()

	ctx := context.Background()
	b := NewBucket(conn, 9001, "store_test*")
	require.NoError(t, b.Clear(ctx))

	require.NoError(t, b.SetJSON(ctx, "ui", &prefs{Theme: "dark"}, time.Minute))
	var p prefs
	ok, err := b.GetJSON(ctx, "ui", &p)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "dark", p.Theme)

	keys, err := b.Keys(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"ui"}, keys)

	require.NoError(t, b.Clear(ctx))
	_, ok, err = b.Get(ctx, "ui")
	require.NoError(t, err)
	require.False(t, ok)
}
