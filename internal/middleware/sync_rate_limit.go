package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// ==================== 同步限流中间件 ====================

// SyncRateLimit 同步限流中间件
// 按类型 + 平台作用域维度进行冷却
//
// 使用示例:
//
//	sync.POST("/:kind",
//	    middleware.SyncRateLimit(limiter, cfg.Sync.Cooldown),
//	    syncCtl.SyncKind,
//	)
//
// interval 为 0 时使用 DefaultCooldown
func SyncRateLimit(limiter *SyncRateLimiter, interval time.Duration) gin.HandlerFunc {
	if interval == 0 {
		interval = DefaultCooldown
	}

	return func(c *gin.Context) {
		platformID := c.Query("platform_id")
		if platformID != "" {
			if _, err := strconv.ParseInt(platformID, 10, 64); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{
					"code":    400,
					"message": "无效的平台 ID",
				})
				c.Abort()
				return
			}
		}

		key := KindSyncKey(c.Param("kind"), platformID)
		if !allow(c, limiter, key, interval) {
			return
		}

		c.Next()
	}
}

// GlobalSyncRateLimit 全局同步限流中间件
// 用于"同步全部类型"
func GlobalSyncRateLimit(limiter *SyncRateLimiter, interval time.Duration) gin.HandlerFunc {
	if interval == 0 {
		interval = DefaultCooldown
	}

	return func(c *gin.Context) {
		if !allow(c, limiter, GlobalSyncKey(), interval) {
			return
		}
		c.Next()
	}
}

// ==================== 辅助函数 ====================

func allow(c *gin.Context, limiter *SyncRateLimiter, key string, interval time.Duration) bool {
	if limiter == nil {
		limiter = GetLimiter()
	}

	result := limiter.Check(key, interval)
	if result.Allowed {
		return true
	}

	retryAfter := int(result.RetryAfter.Seconds())
	c.Header("Retry-After", strconv.Itoa(retryAfter))
	c.JSON(http.StatusTooManyRequests, gin.H{
		"code":    429,
		"message": formatRetryMessage(result.RetryAfter),
		"data": gin.H{
			"retry_after": retryAfter,
			"key":         key,
		},
	})
	c.Abort()
	return false
}

// formatRetryMessage 格式化重试提示信息
func formatRetryMessage(d time.Duration) string {
	seconds := int(d.Seconds())

	if seconds < 60 {
		return fmt.Sprintf("同步冷却中，请 %d 秒后重试", seconds)
	}

	minutes := seconds / 60
	remainingSeconds := seconds % 60

	if remainingSeconds == 0 {
		return fmt.Sprintf("同步冷却中，请 %d 分钟后重试", minutes)
	}

	return fmt.Sprintf("同步冷却中，请 %d 分 %d 秒后重试", minutes, remainingSeconds)
}
