// Package cache provides Redis caching utilities for the application.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"arche/internal/middleware"
	"arche/internal/observability"

	"github.com/redis/go-redis/v9"
)

var client *redis.Client

// instrumentHook traces every command and counts failures. A cache miss
// (redis.Nil) is not a failure.
type instrumentHook struct{}

func commandErr(err error) error {
	if err == nil || errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}

func (instrumentHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (instrumentHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		ctx, span := observability.StartRedisSpan(ctx, cmd.Name())
		err := next(ctx, cmd)
		failed := commandErr(err)
		if failed != nil {
			observability.RedisErrorRate.WithLabelValues(cmd.Name()).Inc()
		}
		observability.EndSpan(span, failed)
		return err
	}
}

func (instrumentHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		ctx, span := observability.StartRedisSpan(ctx, "pipeline")
		err := next(ctx, cmds)
		failed := commandErr(err)
		if failed != nil {
			observability.RedisErrorRate.WithLabelValues("pipeline").Inc()
		}
		observability.EndSpan(span, failed)
		return err
	}
}

// InitRedis initializes the Redis client with the given address. A failed
// connection leaves the package without a client; every helper then degrades
// to a pass-through.
func InitRedis(addr string) *redis.Client {
	var opts *redis.Options
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			middleware.Logger.Warn("invalid REDIS_URL, continuing without cache", slog.String("error", err.Error()))
			client = nil
			return nil
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: addr}
	}

	rdb := redis.NewClient(opts)
	rdb.AddHook(instrumentHook{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		middleware.Logger.Warn("Redis unavailable, continuing without cache", slog.String("error", err.Error()))
		_ = rdb.Close()
		client = nil
		return nil
	}

	middleware.Logger.Info("Redis connected successfully")
	client = rdb
	return client
}

// SetClient installs an already connected client (tests, custom wiring).
func SetClient(rdb *redis.Client) {
	if rdb != nil {
		rdb.AddHook(instrumentHook{})
	}
	client = rdb
}

// GetClient returns the current Redis client instance.
func GetClient() *redis.Client {
	return client
}
