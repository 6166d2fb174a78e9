package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-kasir/internal/store/memory"
)

func newTestCache(t *testing.T) (*SettingsCache, *memory.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	mem := memory.New()
	return &SettingsCache{
		Inner:  mem,
		Client: client,
		TTL:    30 * time.Second,
		Logger: zerolog.Nop(),
	}, mem, mr
}

func TestGetOrInitFillsCache(t *testing.T) {
	c, _, mr := newTestCache(t)
	ctx := context.Background()

	settings, err := c.GetOrInit(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Toko Baru", settings.StoreName)
	assert.True(t, mr.Exists("settings:doc"))
}

func TestCachedReadSkipsInner(t *testing.T) {
	c, mem, _ := newTestCache(t)
	ctx := context.Background()

	first, err := c.GetOrInit(ctx)
	require.NoError(t, err)

	// Mutate the source behind the cache's back; the cached copy wins
	// until the TTL expires or a save refreshes it.
	stale := first
	stale.StoreName = "changed underneath"
	_, err = mem.Save(ctx, stale)
	require.NoError(t, err)

	second, err := c.GetOrInit(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.StoreName, second.StoreName)
}

func TestSaveRefreshesCache(t *testing.T) {
	c, _, _ := newTestCache(t)
	ctx := context.Background()

	settings, err := c.GetOrInit(ctx)
	require.NoError(t, err)
	settings.StoreName = "Toko Maju"
	_, err = c.Save(ctx, settings)
	require.NoError(t, err)

	got, err := c.GetOrInit(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Toko Maju", got.StoreName)
}

func TestRedisDownFallsThrough(t *testing.T) {
	c, _, mr := newTestCache(t)
	mr.Close()

	settings, err := c.GetOrInit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Toko Baru", settings.StoreName)
}
