package cache

import (
	"context"
	"errors"
	"fmt"
	"stickerbot/internal/core/domain"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const DefaultNamespace = "stickerbot"

// RedisCache keeps conversion results as plain keys under a namespace, without expiry.
type RedisCache struct {
	client    redis.UniversalClient
	namespace string
	logger    zerolog.Logger
}

func NewRedisCache(client redis.UniversalClient, namespace string) *RedisCache {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	return &RedisCache{
		client:    client,
		namespace: namespace,
		logger:    log.With().Str("component", "cache").Str("backend", BackendRedis).Logger(),
	}
}

// OpenRedis connects to the redis server at url and verifies the connection.
func OpenRedis(ctx context.Context, url string, namespace string) (*RedisCache, error) {
	if url == "" {
		return nil, errors.New("redis cache requires a URL")
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return NewRedisCache(client, namespace), nil
}

func (c *RedisCache) key(id domain.ConversionID) string {
	return c.namespace + ":" + string(id)
}

func (c *RedisCache) Lookup(ctx context.Context, id domain.ConversionID) (domain.OutputReference, bool) {
	ref, err := c.client.Get(ctx, c.key(id)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn().Err(err).Str("conversionId", string(id)).Msg("cache lookup failed, treating as miss")
		}
		return "", false
	}

	return domain.OutputReference(ref), true
}

func (c *RedisCache) Store(ctx context.Context, id domain.ConversionID, ref domain.OutputReference) error {
	stored, err := c.client.SetNX(ctx, c.key(id), string(ref), 0).Result()
	if err != nil {
		return fmt.Errorf("%w: setnx %s: %w", domain.ErrCache, id.Short(), err)
	}

	c.logger.Debug().Str("conversionId", string(id)).Bool("stored", stored).Msg("stored conversion")

	return nil
}

func (c *RedisCache) Count(ctx context.Context) int64 {
	var n int64
	iter := c.client.Scan(ctx, 0, c.namespace+":*", 100).Iterator()
	for iter.Next(ctx) {
		n++
	}
	if err := iter.Err(); err != nil {
		c.logger.Warn().Err(err).Msg("could not count cache entries")
		return -1
	}
	return n
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
