package middleware

import (
	"fmt"
	"sync"
	"time"
)

// ==================== SyncRateLimiter 同步限流器 ====================

// SyncRateLimiter 手动同步冷却
// 防止频繁触发同步耗尽上游配额
type SyncRateLimiter struct {
	locks sync.Map // key -> *lockEntry
	now   func() time.Time
}

// lockEntry 锁条目
type lockEntry struct {
	lastTime time.Time
	mu       sync.Mutex
}

// NewSyncRateLimiter 创建限流器
func NewSyncRateLimiter() *SyncRateLimiter {
	return &SyncRateLimiter{now: time.Now}
}

// 全局限流器实例
var globalLimiter = NewSyncRateLimiter()

// GetLimiter 获取全局限流器
func GetLimiter() *SyncRateLimiter {
	return globalLimiter
}

// ==================== 限流检查 ====================

// CheckResult 检查结果
type CheckResult struct {
	Allowed    bool          // 是否允许
	RetryAfter time.Duration // 剩余冷却时间
}

// Check 检查是否允许执行，允许时记录执行时间
// key: 限流键，如 "kind:platforms:platform:3"
func (r *SyncRateLimiter) Check(key string, interval time.Duration) CheckResult {
	actual, _ := r.locks.LoadOrStore(key, &lockEntry{})
	entry := actual.(*lockEntry)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	now := r.now()
	elapsed := now.Sub(entry.lastTime)

	if elapsed < interval {
		return CheckResult{
			Allowed:    false,
			RetryAfter: interval - elapsed,
		}
	}

	entry.lastTime = now
	return CheckResult{Allowed: true}
}

// Reset 重置指定 key 的限流
func (r *SyncRateLimiter) Reset(key string) {
	r.locks.Delete(key)
}

// ==================== Key 生成工具 ====================

// KindSyncKey 生成类型级同步 Key，带平台作用域时按平台区分
func KindSyncKey(kind string, platformID string) string {
	if platformID == "" {
		return fmt.Sprintf("kind:%s", kind)
	}
	return fmt.Sprintf("kind:%s:platform:%s", kind, platformID)
}

// GlobalSyncKey 全部类型同步 Key
func GlobalSyncKey() string {
	return "global:all"
}

// DefaultCooldown 默认冷却间隔
const DefaultCooldown = time.Minute
