package cron

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taomall/marketplace-backend/pkg/redis/redistest"
)

func TestRedisLockOwnership(t *testing.T) {
	ctx := context.Background()
	store := redistest.New()
	a, err := NewRedisLock(store, "tm:lock:cron", time.Minute)
	require.NoError(t, err)
	b, err := NewRedisLock(store, "tm:lock:cron", time.Minute)
	require.NoError(t, err)

	ok, err := a.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, time.Minute, store.TTL("tm:lock:cron"))

	ok, err = b.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	// b never owned it, so its release leaves a's lease alone
	require.NoError(t, b.Release(ctx))
	ok, err = b.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, a.Release(ctx))
	ok, err = b.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLockReleaseAfterExpiry(t *testing.T) {
	ctx := context.Background()
	store := redistest.New()
	lock, err := NewRedisLock(store, "tm:lock:cron", 0)
	require.NoError(t, err)
	ok, err := lock.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, store.Del(ctx, "tm:lock:cron"))
	require.NoError(t, lock.Release(ctx))
}

func TestNewRedisLockValidates(t *testing.T) {
	_, err := NewRedisLock(nil, "k", 0)
	require.Error(t, err)
	_, err = NewRedisLock(redistest.New(), "", 0)
	require.Error(t, err)
}
