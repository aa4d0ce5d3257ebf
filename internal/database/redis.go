package database

import (
	"context"
	"fmt"
	"time"

	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// blockingWorkers is the number of workers that hold a connection in BLPOP.
const blockingWorkers = 2

// NewRedisClient creates a client and waits until Redis answers a ping.
func NewRedisClient(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*redis.Client, error) {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	if cfg.RedisPoolSize > 0 {
		// Every live session checkpoints and autosaves through this pool;
		// keep room on top of the connections parked in BLPOP.
		opt.PoolSize = cfg.RedisPoolSize + blockingWorkers
	}

	rdb := redis.NewClient(opt)

	err = connectRetry(ctx, log, "redis", cfg.ConnectAttempts, 500*time.Millisecond, func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	if err != nil {
		_ = rdb.Close()
		return nil, err
	}

	log.Info().
		Str("addr", opt.Addr).
		Int("db", opt.DB).
		Int("pool_size", opt.PoolSize).
		Msg("Redis connected")

	return rdb, nil
}
