package lock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLocker_Exclusive(t *testing.T) {
	l := NewMemoryLocker()
	ctx := context.Background()

	release, ok, err := l.Acquire(ctx, "sync:platforms", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = l.Acquire(ctx, "sync:platforms", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "同一类型不允许并发")

	// 不同类型互不影响
	releaseOther, ok, err := l.Acquire(ctx, "sync:genres", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	releaseOther()

	held, err := l.Held(ctx, "sync:platforms")
	require.NoError(t, err)
	assert.True(t, held)

	release()
	release() // 重复释放无副作用

	held, err = l.Held(ctx, "sync:platforms")
	require.NoError(t, err)
	assert.False(t, held)
}

func TestMemoryLocker_Expiry(t *testing.T) {
	l := NewMemoryLocker()
	now := time.Now()
	l.now = func() time.Time { return now }
	ctx := context.Background()

	staleRelease, ok, _ := l.Acquire(ctx, "k", time.Minute)
	require.True(t, ok)

	// 超过 ttl 后可被重新获取
	now = now.Add(2 * time.Minute)
	_, ok, _ = l.Acquire(ctx, "k", time.Minute)
	require.True(t, ok)

	// 旧持有者释放不影响新持有者
	staleRelease()
	held, _ := l.Held(ctx, "k")
	assert.True(t, held)
}
