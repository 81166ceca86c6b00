package cache

import (
	"context"
	"testing"

	"github.com/selfmadecero/onevdr/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithoutAddr(t *testing.T) {
	c := New(&config.RedisConfig{Addr: "", TTLSeconds: 60})
	assert.Nil(t, c)
}

func TestDisabledCacheIsNoOp(t *testing.T) {
	var c *Cache
	ctx := context.Background()

	var out map[string]string
	ok, err := c.Get(ctx, "k", &out)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "k", map[string]string{"a": "b"}))
	require.NoError(t, c.Delete(ctx, "k"))
}
