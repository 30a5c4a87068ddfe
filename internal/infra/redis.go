package infra

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/congo-pay/wallet_orders/internal/config"
)

// NewRedisClient connects to the cache backing idempotency keys and rate
// limits, then pings it.
func NewRedisClient(ctx context.Context, url string, opts config.Redis) (*redis.Client, error) {
	opt, err := redisOptions(url, opts)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func redisOptions(url string, opts config.Redis) (*redis.Options, error) {
	if url == "" {
		return nil, fmt.Errorf("redis url is required")
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if opts.PoolSize > 0 {
		opt.PoolSize = opts.PoolSize
	}
	if opts.DialTimeout > 0 {
		opt.DialTimeout = opts.DialTimeout
	}
	if opts.ReadTimeout > 0 {
		opt.ReadTimeout = opts.ReadTimeout
	}
	if opts.WriteTimeout > 0 {
		opt.WriteTimeout = opts.WriteTimeout
	}
	return opt, nil
}
