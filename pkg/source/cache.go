package source

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisOptions configures the shared document cache.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
	// Prefix namespaces cache keys, e.g. "latamgrid:doc:".
	Prefix string
}

// RedisCache serves documents from Redis and falls back to the wrapped source on
// a miss. Redis failures are logged and never fail a fetch; the cache is an
// accelerator only.
type RedisCache struct {
	inner  Source
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
	logger *zap.Logger
}

// NewRedisCache wraps inner with a Redis cache.
func NewRedisCache(inner Source, opts RedisOptions, logger *zap.Logger) *RedisCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "latamgrid:doc:"
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: 2 * time.Second,
		ReadTimeout: time.Second,
	})
	return &RedisCache{inner: inner, rdb: rdb, ttl: opts.TTL, prefix: prefix, logger: logger}
}

func (c *RedisCache) Fetch(ctx context.Context, name string) ([]byte, error) {
	key := c.prefix + name
	data, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		return data, nil
	case errors.Is(err, redis.Nil):
	case ctx.Err() != nil:
		return nil, ctx.Err()
	default:
		c.logger.Warn("document cache read failed", zap.String("name", name), zap.Error(err))
	}

	data, err = c.inner.Fetch(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("document cache write failed", zap.String("name", name), zap.Error(err))
	}
	return data, nil
}

// Forget drops cached copies of the named documents.
func (c *RedisCache) Forget(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		return nil
	}
	keys := make([]string, len(names))
	for i, n := range names {
		keys[i] = c.prefix + n
	}
	return c.rdb.Del(ctx, keys...).Err()
}

// Close releases the Redis connection pool.
func (c *RedisCache) Close() error {
	return c.rdb.Close()
}
