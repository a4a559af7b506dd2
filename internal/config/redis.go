package config

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewRedisClient returns nil when redis.address is empty; callers treat a nil
// client as "no cache". A failed ping is logged, not fatal, since the cache is
// an optimisation.
func NewRedisClient(lc fx.Lifecycle, cfg *Config, log *zap.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		log.Info("redis not configured, region cache disabled")
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Address,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := rdb.Ping(ctx).Err(); err != nil {
				log.Warn("redis ping failed, continuing without warm cache", zap.Error(err))
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return rdb.Close()
		},
	})
	return rdb
}
