package cache

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Keys and TTLs for the read-through cache. Cached values are always a
// view over the database; every mutation path deletes its keys, and a
// miss simply falls back to the store.
const (
	KeyGoldPrices     = "gold_prices"
	KeyMarkupSettings = "markup_settings"

	TTLGoldPrices     = time.Minute
	TTLUserBalance    = 5 * time.Minute
	TTLUserAssets     = 5 * time.Minute
	TTLMarkupSettings = time.Hour
)

func UserBalanceKey(userID string) string {
	return "user_balance:" + userID
}

func UserAssetsKey(userID string) string {
	return "gold_assets:" + userID
}

// Cache wraps a Redis client. A nil Cache (or one built by Disabled)
// is valid and turns every operation into a no-op, so callers never
// branch on whether caching is configured.
type Cache struct {
	rdb *redis.Client
}

func New(addr, password string) *Cache {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	})
	return &Cache{rdb: rdb}
}

func Disabled() *Cache {
	return &Cache{}
}

func (c *Cache) enabled() bool {
	return c != nil && c.rdb != nil
}

func (c *Cache) Get(ctx context.Context, key string) (string, bool) {
	if !c.enabled() {
		return "", false
	}
	val, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

func (c *Cache) Set(ctx context.Context, key, val string, ttl time.Duration) {
	if !c.enabled() {
		return
	}
	if err := c.rdb.Set(ctx, key, val, ttl).Err(); err != nil {
		log.Printf("cache set %s: %v", key, err)
	}
}

func (c *Cache) Delete(ctx context.Context, keys ...string) {
	if !c.enabled() || len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		log.Printf("cache delete: %v", err)
	}
}

func (c *Cache) Close() {
	if c.enabled() {
		_ = c.rdb.Close()
	}
}
