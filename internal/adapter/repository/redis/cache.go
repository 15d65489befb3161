package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iho/gowallet/internal/domain"
)

// Cache is a prefixed string cache on Redis.
type Cache struct {
	client *redis.Client
	prefix string
}

// NewCache creates a new Cache.
func NewCache(client *redis.Client, prefix string) *Cache {
	return &Cache{
		client: client,
		prefix: prefix,
	}
}

// Get retrieves a value by key. A missing key is not an error.
func (c *Cache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.client.Get(ctx, c.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// Set stores a value with TTL.
func (c *Cache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.client.Set(ctx, c.prefix+key, value, ttl).Err()
}

// Delete removes a key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.prefix+key).Err()
}

// BalanceCache implements usecase.BalanceCache. Balances are stored as their
// fixed-point string under balance:<userID>.
type BalanceCache struct {
	cache *Cache
}

// NewBalanceCache creates a new BalanceCache.
func NewBalanceCache(client *redis.Client) *BalanceCache {
	return &BalanceCache{cache: NewCache(client, "balance:")}
}

func (c *BalanceCache) Get(ctx context.Context, userID string) (domain.Money, bool, error) {
	val, ok, err := c.cache.Get(ctx, userID)
	if err != nil || !ok {
		return domain.ZeroMoney, false, err
	}

	balance, err := domain.ParseMoney(val)
	if err != nil {
		// unreadable value, treat as a miss and drop it
		_ = c.cache.Delete(ctx, userID)
		return domain.ZeroMoney, false, fmt.Errorf("cached balance for %s: %w", userID, err)
	}

	return balance, true, nil
}

func (c *BalanceCache) Set(ctx context.Context, userID string, balance domain.Money, ttl time.Duration) error {
	return c.cache.Set(ctx, userID, balance.String(), ttl)
}

func (c *BalanceCache) Invalidate(ctx context.Context, userID string) error {
	return c.cache.Delete(ctx, userID)
}
