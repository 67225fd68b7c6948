package lock

import (
	"context"
	"time"
)

// Locker 任务互斥锁
// 同一 key 同一时刻只允许一个持有者；ttl 到期自动释放，防止进程崩溃后死锁
type Locker interface {
	// Acquire 尝试获取锁，不阻塞
	// ok=false 表示锁已被他人持有；release 只释放自己持有的锁，可重复调用
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error)

	// Held 锁当前是否被持有
	Held(ctx context.Context, key string) (bool, error)
}
