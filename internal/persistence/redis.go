package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-sla/internal/config"
)

// ErrRedisDisabled is returned by operations that need a Redis client
// when none is configured.
var ErrRedisDisabled = errors.New("redis client not configured")

// Redis wraps the go-redis client. A nil Client means Redis is disabled.
type Redis struct {
	Client *redis.Client
}

// releaseScript deletes the lock only when it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0`)

// NewRedis connects to Redis using the provided configuration.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	if cfg.Addr == "" {
		logger.Warn("REDIS_ADDR not provided; distributed locking and event fan-out disabled")
		return &Redis{}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("unable to reach redis", zap.Error(err))
	} else {
		logger.Info("connected to redis")
	}

	return &Redis{Client: client}
}

// Enabled reports whether a client is configured.
func (r *Redis) Enabled() bool {
	return r != nil && r.Client != nil
}

// Close closes the client.
func (r *Redis) Close() {
	if r.Enabled() {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if !r.Enabled() {
		return ErrRedisDisabled
	}
	return r.Client.Ping(ctx).Err()
}

// TryLock attempts to take key for ttl. It returns acquired=false when
// another holder owns it. The returned release func is safe to call once
// and never deletes a lock taken over by someone else after expiry.
func (r *Redis) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, func(context.Context) error, error) {
	if !r.Enabled() {
		return false, nil, ErrRedisDisabled
	}
	token := uuid.NewString()
	ok, err := r.Client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return false, nil, err
	}
	if !ok {
		return false, nil, nil
	}
	release := func(ctx context.Context) error {
		return releaseScript.Run(ctx, r.Client, []string{key}, token).Err()
	}
	return true, release, nil
}

// Publish sends payload on channel.
func (r *Redis) Publish(ctx context.Context, channel string, payload []byte) error {
	if !r.Enabled() {
		return ErrRedisDisabled
	}
	return r.Client.Publish(ctx, channel, payload).Err()
}
