package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisLocker(t *testing.T) (*RedisLocker, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	l, err := NewRedisLocker(RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l, mr
}

func TestRedisLocker_Exclusive(t *testing.T) {
	l, mr := setupRedisLocker(t)
	ctx := context.Background()

	release, ok, err := l.Acquire(ctx, "sync:platforms", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	// 默认前缀 + ttl
	assert.True(t, mr.Exists("igdb-mirror:lock:sync:platforms"))
	assert.Equal(t, time.Minute, mr.TTL("igdb-mirror:lock:sync:platforms"))

	_, ok, err = l.Acquire(ctx, "sync:platforms", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "同一类型不允许并发")

	releaseOther, ok, err := l.Acquire(ctx, "sync:genres", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	releaseOther()

	held, err := l.Held(ctx, "sync:platforms")
	require.NoError(t, err)
	assert.True(t, held)

	release()
	release()

	held, err = l.Held(ctx, "sync:platforms")
	require.NoError(t, err)
	assert.False(t, held)
}

func TestRedisLocker_ReleaseKeepsNewOwner(t *testing.T) {
	l, mr := setupRedisLocker(t)
	ctx := context.Background()

	staleRelease, ok, err := l.Acquire(ctx, "sync:covers", time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	// 锁过期后被另一个执行者取得
	mr.FastForward(2 * time.Second)
	release, ok, err := l.Acquire(ctx, "sync:covers", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	// 旧持有者释放不能删除新持有者的锁
	staleRelease()
	held, err := l.Held(ctx, "sync:covers")
	require.NoError(t, err)
	assert.True(t, held)

	release()
	held, err = l.Held(ctx, "sync:covers")
	require.NoError(t, err)
	assert.False(t, held)
}

func TestRedisLocker_KeyPrefix(t *testing.T) {
	mr := miniredis.RunT(t)
	l, err := NewRedisLocker(RedisConfig{Addr: mr.Addr(), KeyPrefix: "staging:lock"})
	require.NoError(t, err)
	defer l.Close()

	release, ok, err := l.Acquire(context.Background(), "sync:genres", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	defer release()

	assert.True(t, mr.Exists("staging:lock:sync:genres"))
	assert.False(t, mr.Exists("igdb-mirror:lock:sync:genres"))
}

func TestRedisLocker_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisLocker(RedisConfig{Addr: addr})
	assert.Error(t, err)
}

func TestRedisLocker_HeldAfterServerDown(t *testing.T) {
	l, mr := setupRedisLocker(t)
	mr.Close()

	_, err := l.Held(context.Background(), "sync:platforms")
	assert.Error(t, err)

	_, ok, err := l.Acquire(context.Background(), "sync:platforms", time.Minute)
	assert.Error(t, err)
	assert.False(t, ok)
}
