//go:build integration_test || all_tests

package syncer

import (
	"context"
	"testing"
	"time"

	testingpkg "github.com/2beens/healthdash/pkg/testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLease_Redis(t *testing.T) {
	ctx, rdb := testingpkg.GetRedisClientAndCtx(t)

	account := "lease-test-" + time.Now().Format("150405.000000")
	first := NewLease(rdb, account, 5*time.Second)
	second := NewLease(rdb, account, 5*time.Second)

	release, err := first.Acquire(ctx)
	require.NoError(t, err)

	_, err = second.Acquire(ctx)
	assert.ErrorIs(t, err, ErrSyncInProgress)

	ttl, err := rdb.TTL(ctx, leaseKeyPrefix+account).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	release(context.Background())

	releaseSecond, err := second.Acquire(ctx)
	require.NoError(t, err)

	// a stale release must not drop the new holder's lease
	release(context.Background())
	exists, err := rdb.Exists(ctx, leaseKeyPrefix+account).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), exists)

	releaseSecond(context.Background())
	exists, err = rdb.Exists(ctx, leaseKeyPrefix+account).Result()
	require.NoError(t, err)
	assert.Zero(t, exists)
}

func TestLease_RedisExpiry(t *testing.T) {
	ctx, rdb := testingpkg.GetRedisClientAndCtx(t)

	account := "lease-expiry-" + time.Now().Format("150405.000000")
	lease := NewLease(rdb, account, 200*time.Millisecond)

	_, err := lease.Acquire(ctx)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		release, err := lease.Acquire(ctx)
		if err != nil {
			return false
		}
		release(context.Background())
		return true
	}, 3*time.Second, 50*time.Millisecond)
}
