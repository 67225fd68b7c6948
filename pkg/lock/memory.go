package lock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// lockItem 内部结构，包含持有者和过期时间
type lockItem struct {
	owner      string
	expiration time.Time
}

// MemoryLocker 进程内锁 (单实例部署)
type MemoryLocker struct {
	mu    sync.Mutex
	items map[string]lockItem
	now   func() time.Time
}

var _ Locker = (*MemoryLocker)(nil)

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{
		items: make(map[string]lockItem),
		now:   time.Now,
	}
}

func (l *MemoryLocker) Acquire(_ context.Context, key string, ttl time.Duration) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if item, ok := l.items[key]; ok && now.Before(item.expiration) {
		return func() {}, false, nil
	}

	owner := uuid.NewString()
	l.items[key] = lockItem{owner: owner, expiration: now.Add(ttl)}

	release := func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		// 过期后可能已被他人重新获取，只删除自己的
		if item, ok := l.items[key]; ok && item.owner == owner {
			delete(l.items, key)
		}
	}
	return release, true, nil
}

func (l *MemoryLocker) Held(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	item, ok := l.items[key]
	if !ok {
		return false, nil
	}
	if !l.now().Before(item.expiration) {
		delete(l.items, key) // 懒删除
		return false, nil
	}
	return true, nil
}
