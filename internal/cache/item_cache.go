package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/satohidetada/my-flea-app/internal/metrics"
	"github.com/satohidetada/my-flea-app/internal/models"
	"github.com/satohidetada/my-flea-app/internal/utils"
)

// ItemCache caches normalized items by id. It only ever serves reads: every
// write path deletes the entry after its transaction commits.
type ItemCache interface {
	Get(ctx context.Context, id utils.SixID) (*models.Item, bool, error)
	Set(ctx context.Context, item *models.Item) error
	Invalidate(ctx context.Context, ids ...utils.SixID) error
}

// RedisItemCache stores items as JSON strings with a TTL.
type RedisItemCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisItemCache creates a RedisItemCache. A zero ttl disables caching
// while keeping invalidation working.
func NewRedisItemCache(client redis.UniversalClient, ttl time.Duration) *RedisItemCache {
	return &RedisItemCache{client: client, ttl: ttl}
}

func itemKey(id utils.SixID) string {
	return "item:" + id.String()
}

// Get returns the cached item and whether it was found.
func (c *RedisItemCache) Get(ctx context.Context, id utils.SixID) (*models.Item, bool, error) {
	data, err := c.client.Get(ctx, itemKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.ItemCacheLookups.WithLabelValues("miss").Inc()
		return nil, false, nil
	}
	if err != nil {
		metrics.ItemCacheLookups.WithLabelValues("error").Inc()
		return nil, false, fmt.Errorf("failed to read item %s from cache: %w", id.String(), err)
	}
	var item models.Item
	if err := json.Unmarshal(data, &item); err != nil {
		metrics.ItemCacheLookups.WithLabelValues("error").Inc()
		return nil, false, fmt.Errorf("failed to decode cached item %s: %w", id.String(), err)
	}
	metrics.ItemCacheLookups.WithLabelValues("hit").Inc()
	return &item, true, nil
}

// Set stores item.
func (c *RedisItemCache) Set(ctx context.Context, item *models.Item) error {
	if c.ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to encode item %s for cache: %w", item.ID.String(), err)
	}
	if err := c.client.Set(ctx, itemKey(item.ID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache item %s: %w", item.ID.String(), err)
	}
	return nil
}

// Invalidate drops the given items.
func (c *RedisItemCache) Invalidate(ctx context.Context, ids ...utils.SixID) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = itemKey(id)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached items: %w", err)
	}
	return nil
}

// NoopItemCache never caches anything.
type NoopItemCache struct{}

func (NoopItemCache) Get(context.Context, utils.SixID) (*models.Item, bool, error) {
	return nil, false, nil
}

func (NoopItemCache) Set(context.Context, *models.Item) error { return nil }

func (NoopItemCache) Invalidate(context.Context, ...utils.SixID) error { return nil }
