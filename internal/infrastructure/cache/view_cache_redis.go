package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	appfulfillment "github.com/lexsgd/ah-ho-fruits-sub000/internal/application/fulfillment"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const viewKeyPrefix = "fulfillment:view:"

// RedisViewCache implements the fulfillment ViewCache on Redis. Suitable
// for distributed deployments where multiple instances serve the same
// orders; a miss or a Redis failure just falls through to recomputation.
type RedisViewCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisViewCache creates a Redis-backed view cache
func NewRedisViewCache(cfg RedisConfig, ttl time.Duration, logger *zap.Logger) (*RedisViewCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisViewCacheWithClient(client, ttl, logger), nil
}

// NewRedisViewCacheWithClient creates a cache with an existing Redis client.
// Useful for testing or when sharing a client across components.
func NewRedisViewCacheWithClient(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisViewCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisViewCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// Get returns the cached view for an order, if present
func (c *RedisViewCache) Get(ctx context.Context, orderID uuid.UUID) (*appfulfillment.FulfillmentView, bool) {
	data, err := c.client.Get(ctx, viewKeyPrefix+orderID.String()).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("view cache read failed",
				zap.String("order_id", orderID.String()),
				zap.Error(err))
		}
		return nil, false
	}

	var view appfulfillment.FulfillmentView
	if err := json.Unmarshal(data, &view); err != nil {
		c.logger.Warn("view cache entry corrupt, dropping",
			zap.String("order_id", orderID.String()),
			zap.Error(err))
		c.client.Del(ctx, viewKeyPrefix+orderID.String())
		return nil, false
	}
	return &view, true
}

// Set stores the view for an order with the configured TTL
func (c *RedisViewCache) Set(ctx context.Context, orderID uuid.UUID, view *appfulfillment.FulfillmentView) {
	data, err := json.Marshal(view)
	if err != nil {
		c.logger.Warn("view cache marshal failed", zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, viewKeyPrefix+orderID.String(), data, c.ttl).Err(); err != nil {
		c.logger.Warn("view cache write failed",
			zap.String("order_id", orderID.String()),
			zap.Error(err))
	}
}

// Invalidate drops the cached view for an order
func (c *RedisViewCache) Invalidate(ctx context.Context, orderID uuid.UUID) {
	if err := c.client.Del(ctx, viewKeyPrefix+orderID.String()).Err(); err != nil {
		c.logger.Warn("view cache invalidation failed",
			zap.String("order_id", orderID.String()),
			zap.Error(err))
	}
}

// Close closes the underlying Redis client
func (c *RedisViewCache) Close() error {
	return c.client.Close()
}
