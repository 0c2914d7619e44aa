// internal/ratelimit/redis.go
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/AI-Template-SDK/senso-query-engine/internal/config"
	"github.com/AI-Template-SDK/senso-query-engine/internal/logger"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "ratelimit:"

// RedisLimiter shares the one-minute window between service replicas.
// The counter carries a 60s TTL set atomically with the increment, so the
// window resets once the key expires.
type RedisLimiter struct {
	client redis.Cmdable
	log    logger.Logger
}

func NewRedisLimiter(client redis.Cmdable, log logger.Logger) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		log:    logger.Component(log, "RedisLimiter"),
	}
}

// NewRedisClient opens a go-redis client and checks connectivity.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}

// WindowScript increments the counter and gives it a TTL whenever it has none,
// so a key never outlives its window even if an earlier expiry was lost.
const WindowScript = `
local count = redis.call('INCR', KEYS[1])
if redis.call('TTL', KEYS[1]) < 0 then
  redis.call('EXPIRE', KEYS[1], ARGV[1])
end
return count
`

// TryAcquire fails open when Redis is unavailable.
func (l *RedisLimiter) TryAcquire(ctx context.Context, platform string, budget int) bool {
	key := redisKeyPrefix + platform

	count, err := l.client.Eval(ctx, WindowScript, []string{key}, int(Window/time.Second)).Int64()
	if err != nil {
		l.log.WithError(err).Warn("rate limit counter unavailable, allowing request", logger.Fields{"platform": platform})
		return true
	}

	return count <= int64(budget)
}
