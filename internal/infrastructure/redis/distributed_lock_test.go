package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	client, err := NewClient(&Config{Host: "localhost", Port: "6379"})
	if err != nil {
		t.Skip("Redis not available")
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestLockManager_AcquireLock(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()
	manager := NewLockManager(client)

	t.Run("ロックを取得できる", func(t *testing.T) {
		lock, err := manager.AcquireLock(ctx, "test-key-1", 5*time.Second)
		require.NoError(t, err)
		require.NotNil(t, lock)
		defer lock.Release(ctx)

		assert.True(t, client.Exists(ctx, "lock:test-key-1").Val() == 1)
	})

	t.Run("同じキーのロックは取得できない", func(t *testing.T) {
		lock1, err := manager.AcquireLock(ctx, "test-key-2", 5*time.Second)
		require.NoError(t, err)
		defer lock1.Release(ctx)

		lock2, err := manager.AcquireLock(ctx, "test-key-2", 5*time.Second)
		assert.ErrorIs(t, err, ErrLockNotAcquired)
		assert.Nil(t, lock2)
	})

	t.Run("解放後は再取得できる", func(t *testing.T) {
		lock1, err := manager.AcquireLock(ctx, "test-key-3", 5*time.Second)
		require.NoError(t, err)
		require.NoError(t, lock1.Release(ctx))

		lock2, err := manager.AcquireLock(ctx, "test-key-3", 5*time.Second)
		require.NoError(t, err)
		defer lock2.Release(ctx)
	})

	t.Run("二重解放は ErrLockNotOwned", func(t *testing.T) {
		lock, err := manager.AcquireLock(ctx, "test-key-double-release", 5*time.Second)
		require.NoError(t, err)
		require.NoError(t, lock.Release(ctx))
		assert.ErrorIs(t, lock.Release(ctx), ErrLockNotOwned)
	})

	t.Run("期限切れ後に他の所有者が取得したロックは延長できない", func(t *testing.T) {
		lock1, err := manager.AcquireLock(ctx, "test-key-expired", 100*time.Millisecond)
		require.NoError(t, err)

		require.Eventually(t, func() bool {
			return client.Exists(ctx, "lock:test-key-expired").Val() == 0
		}, 2*time.Second, 20*time.Millisecond)

		lock2, err := manager.AcquireLock(ctx, "test-key-expired", 5*time.Second)
		require.NoError(t, err)
		defer lock2.Release(ctx)

		assert.ErrorIs(t, lock1.Extend(ctx, 5*time.Second), ErrLockNotOwned)
		assert.NoError(t, lock2.Extend(ctx, 5*time.Second))
	})

	t.Run("ロックを延長できる", func(t *testing.T) {
		lock, err := manager.AcquireLock(ctx, "test-key-extend", 1*time.Second)
		require.NoError(t, err)
		defer lock.Release(ctx)

		require.NoError(t, lock.Extend(ctx, 5*time.Second))

		lock2, err := manager.AcquireLock(ctx, "test-key-extend", 1*time.Second)
		assert.ErrorIs(t, err, ErrLockNotAcquired)
		assert.Nil(t, lock2)
	})

	t.Run("解放後は延長できない", func(t *testing.T) {
		lock, err := manager.AcquireLock(ctx, "test-key-extend-after-release", 1*time.Second)
		require.NoError(t, err)
		require.NoError(t, lock.Release(ctx))

		assert.ErrorIs(t, lock.Extend(ctx, 5*time.Second), ErrLockNotOwned)
	})
}

func TestHealthChecker(t *testing.T) {
	client := setupTestRedis(t)

	status := NewHealthChecker(client).Check(context.Background())
	assert.True(t, status.Healthy)
	assert.Equal(t, "redis", status.Component)
}
