package cache

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *Versioned {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewVersioned(client, time.Minute)
}

func TestVersionInitialises(t *testing.T) {
	c := newTestCache(t)
	ver, err := c.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), ver)
}

func TestFetchJSONCachesLoaderResult(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	key, err := c.BuildKey(ctx, "report", "pl", "acme", "2024-03-31")
	require.NoError(t, err)

	calls := 0
	loader := func(context.Context) (interface{}, error) {
		calls++
		return map[string]string{"title": "P&L"}, nil
	}

	var first map[string]string
	hit, err := c.FetchJSON(ctx, key, &first, loader)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "P&L", first["title"])

	var second map[string]string
	hit, err = c.FetchJSON(ctx, key, &second, loader)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, calls, "second fetch must come from the cache")
}

func TestBumpInvalidatesKeys(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	before, err := c.BuildKey(ctx, "report", "pl", "acme", "2024-03-31")
	require.NoError(t, err)

	require.NoError(t, c.Bump(ctx))

	after, err := c.BuildKey(ctx, "report", "pl", "acme", "2024-03-31")
	require.NoError(t, err)
	assert.NotEqual(t, before, after)
}

func TestNilClientPassesThrough(t *testing.T) {
	c := NewVersioned(nil, time.Minute)
	ctx := context.Background()

	key, err := c.BuildKey(ctx, "report", "pl", "acme", "2024-03-31")
	require.NoError(t, err)

	calls := 0
	loader := func(context.Context) (interface{}, error) {
		calls++
		return map[string]int{"n": calls}, nil
	}

	var out map[string]int
	for i := 0; i < 2; i++ {
		hit, err := c.FetchJSON(ctx, key, &out, loader)
		require.NoError(t, err)
		assert.False(t, hit)
	}
	assert.Equal(t, 2, calls, "nil client never caches")

	require.NoError(t, c.Bump(ctx))
}
