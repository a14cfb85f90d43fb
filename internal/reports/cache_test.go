package reports

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute, slog.Default())
}

func TestCacheFetchAndBump(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	loads := 0
	loader := func(context.Context) (any, error) {
		loads++
		return map[string]string{"hello": "world"}, nil
	}

	key, err := cache.BuildKey(ctx, "statements", "tb", "2026-03-31")
	require.NoError(t, err)

	var first map[string]string
	require.NoError(t, cache.FetchJSON(ctx, key, &first, loader))
	require.Equal(t, 1, loads)
	require.Equal(t, "world", first["hello"])

	// Second fetch with the same key hits the cache.
	var second map[string]string
	require.NoError(t, cache.FetchJSON(ctx, key, &second, loader))
	require.Equal(t, 1, loads)

	// A bump changes the key, forcing a rebuild.
	require.NoError(t, cache.Bump(ctx))
	bumped, err := cache.BuildKey(ctx, "statements", "tb", "2026-03-31")
	require.NoError(t, err)
	require.NotEqual(t, key, bumped)

	var third map[string]string
	require.NoError(t, cache.FetchJSON(ctx, bumped, &third, loader))
	require.Equal(t, 2, loads)
}

func TestNilCacheFallsThrough(t *testing.T) {
	var cache *Cache
	ctx := context.Background()

	key, err := cache.BuildKey(ctx, "statements", "bs", "2026-03-31")
	require.NoError(t, err)

	loads := 0
	var out map[string]string
	require.NoError(t, cache.FetchJSON(ctx, key, &out, func(context.Context) (any, error) {
		loads++
		return map[string]string{"a": "b"}, nil
	}))
	require.Equal(t, 1, loads)
	require.Equal(t, "b", out["a"])
	require.NoError(t, cache.Bump(ctx))
}

func TestJournalPostedBumpsVersion(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	before, err := cache.Version(ctx)
	require.NoError(t, err)
	cache.JournalPosted(ctx)
	after, err := cache.Version(ctx)
	require.NoError(t, err)
	require.Greater(t, after, before)
}
