package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedis(client, "profile:", time.Minute), mr
}

func TestRedisRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, mr := newRedis(t)

	require.NoError(t, SetJSON(ctx, c, "u1", map[string]string{"role": "talent"}))
	assert.True(t, mr.Exists("profile:u1"))

	var out map[string]string
	require.NoError(t, GetJSON(ctx, c, "u1", &out))
	assert.Equal(t, "talent", out["role"])
}

func TestRedisMissAndExpiry(t *testing.T) {
	ctx := context.Background()
	c, mr := newRedis(t)

	_, err := c.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrCacheNotFound)

	require.NoError(t, c.Set(ctx, "u1", []byte("x")))
	mr.FastForward(2 * time.Minute)
	_, err = c.Get(ctx, "u1")
	assert.ErrorIs(t, err, ErrCacheNotFound)
}

func TestRedisDelete(t *testing.T) {
	ctx := context.Background()
	c, _ := newRedis(t)
	require.NoError(t, c.Set(ctx, "a", []byte("1")))
	require.NoError(t, c.Set(ctx, "b", []byte("2")))

	require.NoError(t, c.Delete(ctx, "a", "b"))
	_, err := c.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrCacheNotFound)
}

func TestNewRedisFromURL(t *testing.T) {
	mr := miniredis.RunT(t)
	c, err := NewRedisFromURL(context.Background(), "redis://"+mr.Addr(), "p:", time.Minute)
	require.NoError(t, err)
	defer c.Close()

	_, err = NewRedisFromURL(context.Background(), "not a url", "p:", time.Minute)
	assert.Error(t, err)
}

func TestLRU(t *testing.T) {
	ctx := context.Background()
	c := NewLRU(2, time.Minute)

	require.NoError(t, c.Set(ctx, "a", []byte("1")))
	require.NoError(t, c.Set(ctx, "b", []byte("2")))
	require.NoError(t, c.Set(ctx, "c", []byte("3")))

	_, err := c.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrCacheNotFound, "oldest entry evicted")

	v, err := c.Get(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, []byte("3"), v)

	require.NoError(t, c.Delete(ctx, "c"))
	_, err = c.Get(ctx, "c")
	assert.ErrorIs(t, err, ErrCacheNotFound)
}
