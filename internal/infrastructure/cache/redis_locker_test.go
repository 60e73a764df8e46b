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

func newTestRedisLocker(t *testing.T, ttl time.Duration) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisLockerWithClient(client, "catalogsync:test:", ttl), mr
}

func TestRedisLocker_TryLock(t *testing.T) {
	ctx := context.Background()
	l, mr := newTestRedisLocker(t, time.Minute)

	release, ok, err := l.TryLock(ctx, "tenant")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, mr.Exists("catalogsync:test:tenant"))

	_, ok, err = l.TryLock(ctx, "tenant")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, release(ctx))
	assert.False(t, mr.Exists("catalogsync:test:tenant"))

	release, ok, err = l.TryLock(ctx, "tenant")
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, release(ctx))
	require.NoError(t, release(ctx), "a second release is harmless")
}

func TestRedisLocker_HeldLockOutlivesTTL(t *testing.T) {
	ctx := context.Background()
	ttl := 300 * time.Millisecond
	l, mr := newTestRedisLocker(t, ttl)
	key := "catalogsync:test:tenant"

	release, ok, err := l.TryLock(ctx, "tenant")
	require.NoError(t, err)
	require.True(t, ok)

	// run for three TTLs; every refresh resets the clock
	for i := 0; i < 3; i++ {
		mr.FastForward(ttl - 50*time.Millisecond)
		require.True(t, mr.Exists(key), "lock expired during pass %d", i)
		require.Eventually(t, func() bool {
			return mr.TTL(key) > ttl-50*time.Millisecond
		}, 2*time.Second, 10*time.Millisecond, "lock was not extended")
	}

	other := NewRedisLockerWithClient(l.client, l.keyPrefix, time.Minute)
	_, ok, err = other.TryLock(ctx, "tenant")
	require.NoError(t, err)
	assert.False(t, ok, "a second instance must not get a held lock")

	require.NoError(t, release(ctx))
	assert.False(t, mr.Exists(key))
}

func TestRedisLocker_ExpiredLockIsTakenOver(t *testing.T) {
	ctx := context.Background()
	l, mr := newTestRedisLocker(t, 50*time.Millisecond)
	key := "catalogsync:test:tenant"

	staleRelease, ok, err := l.TryLock(ctx, "tenant")
	require.NoError(t, err)
	require.True(t, ok)

	// the first holder stalls past its TTL and a second instance takes over
	mr.Del(key)
	other := NewRedisLockerWithClient(l.client, l.keyPrefix, time.Minute)
	otherRelease, ok, err := other.TryLock(ctx, "tenant")
	require.NoError(t, err)
	require.True(t, ok)
	token, err := mr.Get(key)
	require.NoError(t, err)

	// the stale holder neither extends nor drops the new lock
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, staleRelease(ctx))
	got, err := mr.Get(key)
	require.NoError(t, err)
	assert.Equal(t, token, got)
	assert.Greater(t, mr.TTL(key), 30*time.Second)

	_, ok, err = other.TryLock(ctx, "tenant")
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, otherRelease(ctx))
}
