package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendrilhq/tendril/pkg/adapters/redis"
)

func TestLocker_AcquireAndRelease(t *testing.T) {
	locker := redis.NewLocker(newClient(t), "tendril:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "user-1/contact-1", time.Minute)
	require.NoError(t, err)

	// A second acquisition on the same key must block until released.
	blockedCtx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(blockedCtx, "user-1/contact-1", time.Minute)
	assert.ErrorIs(t, err, redis.ErrLockAcquire)

	require.NoError(t, unlock(ctx))

	// Released lock can be re-acquired immediately.
	unlock2, err := locker.Lock(ctx, "user-1/contact-1", time.Minute)
	require.NoError(t, err)
	require.NoError(t, unlock2(ctx))
}

func TestLocker_IndependentKeys(t *testing.T) {
	locker := redis.NewLocker(newClient(t), "tendril:")
	ctx := context.Background()

	unlockA, err := locker.Lock(ctx, "user-1/contact-a", time.Minute)
	require.NoError(t, err)
	defer unlockA(ctx)

	unlockB, err := locker.Lock(ctx, "user-1/contact-b", time.Minute)
	require.NoError(t, err)
	defer unlockB(ctx)
}
