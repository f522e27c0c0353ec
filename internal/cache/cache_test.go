package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserKeys(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "user_balance:u-42", UserBalanceKey("u-42"))
	assert.Equal(t, "gold_assets:u-42", UserAssetsKey("u-42"))
}

func TestDisabledCacheIsNoOp(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c := Disabled()

	_, ok := c.Get(ctx, KeyGoldPrices)
	assert.False(t, ok)
	c.Set(ctx, KeyGoldPrices, "[]", TTLGoldPrices)
	c.Delete(ctx, KeyGoldPrices, KeyMarkupSettings)
	c.Close()
}

func TestNilCacheIsNoOp(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	var c *Cache

	_, ok := c.Get(ctx, KeyGoldPrices)
	assert.False(t, ok)
	c.Set(ctx, KeyGoldPrices, "[]", TTLGoldPrices)
	c.Delete(ctx, KeyGoldPrices)
	c.Close()
}
