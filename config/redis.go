package config

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var RedisClient *redis.Client

// InitRedis connects using REDIS_URL (redis:// / rediss:// form) or a bare
// REDIS_ADDR host:port. Redis carries the analysis stream, the session
// status pub/sub channels, and the session read cache.
func InitRedis() error {
	opts, err := redisOptions()
	if err != nil {
		return err
	}
	RedisClient = redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return RedisClient.Ping(ctx).Err()
}

func redisOptions() (*redis.Options, error) {
	if raw := os.Getenv("REDIS_URL"); raw != "" {
		return redis.ParseURL(raw)
	}

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		return nil, errors.New("REDIS_URL or REDIS_ADDR environment variable is not set")
	}
	if strings.Contains(addr, "://") {
		return redis.ParseURL(addr)
	}
	return &redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
	}, nil
}
