package redis_client

import (
	"context"
	"fmt"

	"github.com/creasty/defaults"
	redis "github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/leeforge/support/config"
	"github.com/leeforge/support/logging"
)

// NewRedis opens a client and pings it. The client is closed again when the
// ping fails.
func NewRedis(ctx context.Context, cnf Config, logger logging.Logger) (*redis.Client, error) {
	if err := defaults.Set(&cnf); err != nil {
		return nil, fmt.Errorf("redis config defaults: %w", err)
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	client := redis.NewClient(&redis.Options{
		Addr:        cnf.Addr(),
		Password:    cnf.Password,
		DB:          cnf.DB,
		DialTimeout: cnf.DialTimeout,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cnf.Addr(), err)
	}

	logger.Info("redis connected", redisConfigLogFields(cnf)...)
	return client, nil
}

// FromResolver binds the "redis" subtree and opens a client.
func FromResolver(ctx context.Context, r *config.Resolver, logger logging.Logger) (*redis.Client, error) {
	var cnf Config
	if err := r.Bind("redis", &cnf); err != nil {
		return nil, err
	}
	return NewRedis(ctx, cnf, logger)
}

func redisConfigLogFields(cnf Config) []zap.Field {
	return []zap.Field{
		zap.String("addr", cnf.Addr()),
		zap.Int("db", cnf.DB),
		zap.String("password", redactedPassword(cnf.Password)),
	}
}

func redactedPassword(password string) string {
	if password == "" {
		return "<empty>"
	}
	return "[REDACTED]"
}
