package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	chatdomain "github.com/boddenberg/bepit-bfa-go/internal/chat/domain"
	"github.com/boddenberg/bepit-bfa-go/internal/port"
)

const redisKeyPrefix = "bepit:conversation:"

// RedisConversationCache is a fallback shared between replicas.
// Redis errors are logged and treated as misses.
type RedisConversationCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisConversationCache connects to url (redis://...) and pings it.
func NewRedisConversationCache(ctx context.Context, url string, ttl time.Duration, logger *zap.Logger) (*RedisConversationCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisConversationCache{client: client, ttl: ttl, logger: logger}, nil
}

// Get loads the state stored under id.
func (c *RedisConversationCache) Get(ctx context.Context, id string) (*chatdomain.ConversationState, bool) {
	raw, err := c.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("redis get failed", zap.String("conversation_id", id), zap.Error(err))
		}
		return nil, false
	}
	var cs chatdomain.ConversationState
	if err := json.Unmarshal(raw, &cs); err != nil {
		c.logger.Warn("redis payload invalid", zap.String("conversation_id", id), zap.Error(err))
		return nil, false
	}
	return &cs, true
}

// Set stores state under id. ttl == 0 means no expiration.
func (c *RedisConversationCache) Set(ctx context.Context, id string, state *chatdomain.ConversationState) {
	if state == nil {
		return
	}
	raw, err := json.Marshal(state)
	if err != nil {
		c.logger.Warn("redis marshal failed", zap.String("conversation_id", id), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, redisKeyPrefix+id, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("redis set failed", zap.String("conversation_id", id), zap.Error(err))
	}
}

// Ping checks connectivity for /healthz.
func (c *RedisConversationCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the connection pool.
func (c *RedisConversationCache) Close() error {
	return c.client.Close()
}

// NewFallback picks the conversation fallback: Redis when redisURL is set
// and answers a ping, otherwise the in-process map. An unreachable Redis
// is logged and never fatal. The second return is the Redis cache when
// in use (for health checks and Close), nil otherwise.
func NewFallback(ctx context.Context, redisURL string, ttl time.Duration, logger *zap.Logger) (port.ConversationCache, *RedisConversationCache) {
	if redisURL == "" {
		return NewConversationCache(ttl), nil
	}
	rc, err := NewRedisConversationCache(ctx, redisURL, ttl, logger)
	if err != nil {
		logger.Warn("redis unavailable, using in-process conversation cache", zap.Error(err))
		return NewConversationCache(ttl), nil
	}
	return rc, rc
}
