package store

import (
	"context"
	"errors"
	"time"

	redis "github.com/go-redis/redis/v8"

	"github.com/leeforge/support/redis_client"
)

// RedisConn adapts a go-redis client. Close closes the client.
type RedisConn struct {
	client *redis.Client
}

func NewRedisConn(client *redis.Client) *RedisConn {
	return &RedisConn{client: client}
}

func (c *RedisConn) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (c *RedisConn) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisConn) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *RedisConn) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := c.client.Scan(ctx, 0, redis_client.PrefixPattern(prefix), 200).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	return keys, iter.Err()
}

func (c *RedisConn) Close() error {
	return c.client.Close()
}

// Client exposes the underlying client.
func (c *RedisConn) Client() *redis.Client {
	return c.client
}
