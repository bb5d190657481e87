package store

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/leeforge/support/instancecache"
	"github.com/leeforge/support/json"
)

var namespaceEscaper = strings.NewReplacer("%", "%25", ":", "%3A")

// Bucket is the key space of one owner within one namespace. Keys are stored
// on the connection as "<owner>:<namespace>:<key>"; ':' and '%' in the
// namespace are percent-escaped so namespaces never overlap.
type Bucket struct {
	conn      Conn
	ownerID   int64
	namespace string
	prefix    string
}

// NewBucket matches instancecache.Constructor so it can back a Buckets cache.
func NewBucket(conn Conn, ownerID int64, namespace string) *Bucket {
	return &Bucket{
		conn:      conn,
		ownerID:   ownerID,
		namespace: namespace,
		prefix:    strconv.FormatInt(ownerID, 10) + ":" + namespaceEscaper.Replace(namespace) + ":",
	}
}

// Buckets memoizes one Bucket per (owner, namespace) over a shared Conn.
type Buckets = instancecache.Cache[Conn, *Bucket]

func NewBuckets(conn Conn) *Buckets {
	return instancecache.New[Conn, *Bucket](conn, NewBucket)
}

func (b *Bucket) OwnerID() int64    { return b.ownerID }
func (b *Bucket) Namespace() string { return b.namespace }

// Key returns the connection key for key.
func (b *Bucket) Key(key string) string {
	return b.prefix + key
}

func (b *Bucket) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return b.conn.Get(ctx, b.Key(key))
}

func (b *Bucket) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return b.conn.Set(ctx, b.Key(key), value, ttl)
}

func (b *Bucket) Delete(ctx context.Context, key string) error {
	return b.conn.Delete(ctx, b.Key(key))
}

// Keys returns the bucket's keys without the prefix, sorted.
func (b *Bucket) Keys(ctx context.Context) ([]string, error) {
	full, err := b.conn.Keys(ctx, b.prefix)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(full))
	for _, k := range full {
		keys = append(keys, strings.TrimPrefix(k, b.prefix))
	}
	sort.Strings(keys)
	return keys, nil
}

// Clear deletes every key of the bucket.
func (b *Bucket) Clear(ctx context.Context) error {
	full, err := b.conn.Keys(ctx, b.prefix)
	if err != nil {
		return err
	}
	return b.conn.Delete(ctx, full...)
}

// GetJSON decodes the value at key into v. It reports false when the key is
// absent, leaving v untouched.
func (b *Bucket) GetJSON(ctx context.Context, key string, v any) (bool, error) {
	raw, ok, err := b.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, err
	}
	return true, nil
}

func (b *Bucket) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return b.Set(ctx, key, raw, ttl)
}
