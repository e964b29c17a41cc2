package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func TestRedisOptionsFromURL(t *testing.T) {
	opts, err := redisOptions(RedisConfig{URL: "redis://:secret@cache.internal:6380/2", Timeout: time.Second})
	require.NoError(t, err)
	require.Equal(t, "cache.internal:6380", opts.Addr)
	require.Equal(t, "secret", opts.Password)
	require.Equal(t, 2, opts.DB)
	require.Equal(t, time.Second, opts.ReadTimeout)
}

func TestRedisOptionsFromAddress(t *testing.T) {
	opts, err := redisOptions(RedisConfig{Address: "localhost:6379", TLS: true})
	require.NoError(t, err)
	require.Equal(t, "localhost:6379", opts.Addr)
	require.NotNil(t, opts.TLSConfig)
	require.Equal(t, defaultRedisTimeout, opts.DialTimeout)

	_, err = redisOptions(RedisConfig{})
	require.Error(t, err)

	_, err = redisOptions(RedisConfig{URL: "http://localhost"})
	require.Error(t, err)
}

func TestNewRedisClientUnreachable(t *testing.T) {
	_, err := NewRedisClient(context.Background(), RedisConfig{Address: "127.0.0.1:1", Timeout: 200 * time.Millisecond})
	require.Error(t, err)
}

func TestRedisClientAgainstContainer(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping redis container test in short mode")
	}

	ctx := context.Background()
	container, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		t.Skipf("redis container unavailable: %v", err)
	}
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	url, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	store, err := NewRedisClient(ctx, RedisConfig{URL: url})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	client := NewClient(store, WithTTL(time.Minute))

	require.True(t, client.Set(ctx, BooksListKey(0, 10), []cachedBook{{ID: 1, Title: "Clean Code"}}, 0))
	require.True(t, client.Set(ctx, BooksListKey(10, 10), []cachedBook{}, 0))
	require.True(t, client.Set(ctx, BookKey(1), cachedBook{ID: 1}, 0))

	var page []cachedBook
	require.True(t, client.GetJSON(ctx, BooksListKey(0, 10), &page).Hit())
	require.Len(t, page, 1)

	removed, err := store.DeletePattern(ctx, BooksListPattern())
	require.NoError(t, err)
	require.Equal(t, int64(2), removed)
	require.Equal(t, StatusMiss, client.Get(ctx, BooksListKey(0, 10)).Status)
	require.True(t, client.Get(ctx, BookKey(1)).Hit())

	count, ttl, err := store.IncrementWithTTL(ctx, "ratelimit:test", time.Minute)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
	require.Equal(t, time.Minute, ttl)

	count, ttl, err = store.IncrementWithTTL(ctx, "ratelimit:test", time.Minute)
	require.NoError(t, err)
	require.Equal(t, int64(2), count)
	require.LessOrEqual(t, ttl, time.Minute)
	require.Greater(t, ttl, time.Duration(0))

	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	shared := NewRedisClientFrom(redis.NewClient(opts))
	t.Cleanup(func() { _ = shared.Close() })

	require.NoError(t, shared.Ping(ctx))
	raw, ok, err := shared.Get(ctx, BookKey(1))
	require.NoError(t, err)
	require.True(t, ok)
	require.JSONEq(t, `{"id":1,"title":""}`, string(raw))
}
