package cache

import (
	"context"
	"errors"
	"time"

	redis "github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/leeforge/support/json"
	"github.com/leeforge/support/logging"
	"github.com/leeforge/support/redis_client"
)

// Redis stores JSON-encoded values under prefix+path. Values read back are
// the generic JSON decoding (map[string]any, []any, float64, string, bool).
type Redis struct {
	client *redis.Client
	prefix string
	codec  json.Codec
	logger logging.Logger
}

func NewRedis(client *redis.Client, prefix string, logger logging.Logger) *Redis {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Redis{
		client: client,
		prefix: prefix,
		codec:  json.Default,
		logger: logger,
	}
}

func (r *Redis) key(path string) string {
	return r.prefix + path
}

func (r *Redis) flushPattern() string {
	return redis_client.PrefixPattern(r.prefix)
}

func (r *Redis) Exists(ctx context.Context, path string) bool {
	n, err := r.client.Exists(ctx, r.key(path)).Result()
	if err != nil {
		r.logger.Warn("cache exists failed", zap.String("path", path), zap.Error(err))
		return false
	}
	return n > 0
}

// Get treats transport and decode failures as misses.
func (r *Redis) Get(ctx context.Context, path string) (any, bool) {
	raw, err := r.client.Get(ctx, r.key(path)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("cache get failed", zap.String("path", path), zap.Error(err))
		}
		return nil, false
	}

	var v any
	if err := r.codec.Unmarshal(raw, &v); err != nil {
		r.logger.Warn("cache decode failed", zap.String("path", path), zap.Error(err))
		return nil, false
	}
	return v, true
}

func (r *Redis) Set(ctx context.Context, path string, value any, ttl time.Duration) error {
	raw, err := r.codec.Marshal(value)
	if err != nil {
		return err
	}
	if ttl < 0 {
		ttl = 0
	}
	return r.client.Set(ctx, r.key(path), raw, ttl).Err()
}

func (r *Redis) Invalidate(ctx context.Context, path string) error {
	return r.client.Del(ctx, r.key(path)).Err()
}

// Flush deletes every key under the prefix. Without a prefix it flushes the
// selected database.
func (r *Redis) Flush(ctx context.Context) error {
	if r.prefix == "" {
		return r.client.FlushDB(ctx).Err()
	}

	iter := r.client.Scan(ctx, 0, r.flushPattern(), 200).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 200 {
			if err := r.client.Del(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return r.client.Del(ctx, batch...).Err()
	}
	return nil
}
