package database

import (
	"context"
	"fmt"

	"agency-dashboard/internal/common/config"

	"github.com/redis/go-redis/v9"
)

// RedisClient is the connection shared by the collection cache and the
// analytics overview cache.
type RedisClient struct {
	Client *redis.Client
}

func NewRedis(cfg config.RedisConfig) *RedisClient {
	return &RedisClient{Client: redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  config.GetDuration(cfg.DialTimeout),
		ReadTimeout:  config.GetDuration(cfg.IOTimeout),
		WriteTimeout: config.GetDuration(cfg.IOTimeout),
	})}
}

func (c *RedisClient) Ping(ctx context.Context) error {
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping %s failed: %w", c.Client.Options().Addr, err)
	}
	return nil
}

func (c *RedisClient) Close() error {
	if c == nil || c.Client == nil {
		return nil
	}
	return c.Client.Close()
}
