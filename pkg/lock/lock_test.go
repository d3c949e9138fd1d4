package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalOnlyLock(t *testing.T) {
	l := New("sweep", time.Minute, nil)
	ctx := context.Background()

	ok, err := l.TryAcquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = l.TryAcquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	l.Release(ctx)
	ok, err = l.TryAcquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLockAcrossInstances(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	a := New("sweep", time.Minute, rdb)
	b := New("sweep", time.Minute, rdb)
	ctx := context.Background()

	ok, err := a.TryAcquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	// Second instance sees the redis key and backs off.
	ok, err = b.TryAcquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	a.Release(ctx)
	ok, err = b.TryAcquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLockExpires(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	crashed := New("sweep", time.Minute, rdb)
	ctx := context.Background()

	ok, err := crashed.TryAcquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	// The holder dies without releasing; the TTL frees the key.
	mr.FastForward(2 * time.Minute)

	b := New("sweep", time.Minute, rdb)
	ok, err = b.TryAcquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}
