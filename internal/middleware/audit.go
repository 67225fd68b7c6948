package middleware

import (
	"context"
	"reflect"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ==================== 审计上下文 ====================

type auditContextKey struct{}

// WithActor 注入触发者到 context (管理员 subject 或 "cli")
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, auditContextKey{}, actor)
}

// ActorFrom 从 context 获取触发者
func ActorFrom(ctx context.Context) string {
	if actor, ok := ctx.Value(auditContextKey{}).(string); ok {
		return actor
	}
	return ""
}

// ==================== Gin 中间件 ====================

// AuditContext 将 JWT 中的 subject 注入 request context，供 GORM 回调使用
// 需挂在 AdminAuth 之后
func AuditContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		if subject := GetSubject(c); subject != "" {
			c.Request = c.Request.WithContext(WithActor(c.Request.Context(), subject))
		}
		c.Next()
	}
}

// ==================== GORM 回调 ====================

// RegisterAuditCallbacks 注册 GORM 审计回调
// Create 时为带 TriggeredBy 字段的模型 (同步记录) 填充触发者
func RegisterAuditCallbacks(db *gorm.DB) error {
	return db.Callback().Create().Before("gorm:create").Register("audit:create", func(tx *gorm.DB) {
		if tx.Statement.Context == nil {
			return
		}

		actor := ActorFrom(tx.Statement.Context)
		if actor == "" {
			return
		}
		setAuditField(tx, "TriggeredBy", actor)
	})
}

// setAuditField 字段为空时填充
func setAuditField(tx *gorm.DB, fieldName string, value string) {
	if tx.Statement.Schema == nil {
		return
	}

	field := tx.Statement.Schema.LookUpField(fieldName)
	if field == nil {
		return
	}

	switch tx.Statement.ReflectValue.Kind() {
	case reflect.Struct:
		if _, isZero := field.ValueOf(tx.Statement.Context, tx.Statement.ReflectValue); isZero {
			_ = field.Set(tx.Statement.Context, tx.Statement.ReflectValue, value)
		}
	case reflect.Slice:
		for i := 0; i < tx.Statement.ReflectValue.Len(); i++ {
			rv := tx.Statement.ReflectValue.Index(i)
			if _, isZero := field.ValueOf(tx.Statement.Context, rv); isZero {
				_ = field.Set(tx.Statement.Context, rv, value)
			}
		}
	}
}
