package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// ==================== JWT 配置 ====================

// JWTConfig JWT 配置
type JWTConfig struct {
	SecretKey      string        // 签名密钥，为空时管理接口全部拒绝
	AccessTokenTTL time.Duration // 管理员 Token 默认有效期
	Issuer         string        // 签发者
}

// DefaultJWTConfig 默认配置
func DefaultJWTConfig() *JWTConfig {
	return &JWTConfig{
		AccessTokenTTL: 12 * time.Hour,
		Issuer:         "igdb-mirror",
	}
}

// 全局配置
var jwtConfig = DefaultJWTConfig()

// SetJWTConfig 设置 JWT 配置
func SetJWTConfig(cfg *JWTConfig) {
	jwtConfig = cfg
}

// GetJWTConfig 获取 JWT 配置
func GetJWTConfig() *JWTConfig {
	return jwtConfig
}

// ==================== Claims 定义 ====================

const RoleAdmin = "admin"

// AdminClaims 管理员声明
type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

var errSecretMissing = errors.New("jwt secret not configured")

// ==================== Token 生成 ====================

// GenerateAdminToken 签发管理员 Token，ttl<=0 时使用默认有效期
func GenerateAdminToken(subject string, ttl time.Duration) (string, error) {
	if jwtConfig.SecretKey == "" {
		return "", errSecretMissing
	}
	if ttl <= 0 {
		ttl = jwtConfig.AccessTokenTTL
	}

	now := time.Now()
	claims := &AdminClaims{
		Role: RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    jwtConfig.Issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtConfig.SecretKey))
}

// ==================== Token 解析 ====================

// ParseToken 解析 Token
func ParseToken(tokenString string) (*AdminClaims, error) {
	if jwtConfig.SecretKey == "" {
		return nil, errSecretMissing
	}

	token, err := jwt.ParseWithClaims(tokenString, &AdminClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(jwtConfig.SecretKey), nil
	}, jwt.WithIssuer(jwtConfig.Issuer))

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*AdminClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}

// ==================== Gin 中间件 ====================

// Context Keys
const (
	ContextKeySubject = "subject"
	ContextKeyRole    = "role"
)

// AdminAuth 管理员认证中间件 (同步触发、凭证管理)
func AdminAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if jwtConfig.SecretKey == "" {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"code":    503,
				"message": "未配置管理密钥，管理接口不可用",
			})
			c.Abort()
			return
		}

		// 获取 Authorization Header
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": "未提供认证信息",
			})
			c.Abort()
			return
		}

		// 解析 Bearer Token
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": "认证格式错误，应为 Bearer {token}",
			})
			c.Abort()
			return
		}

		claims, err := ParseToken(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": "Token 无效或已过期",
			})
			c.Abort()
			return
		}

		if claims.Role != RoleAdmin {
			c.JSON(http.StatusForbidden, gin.H{
				"code":    403,
				"message": "无权限访问",
			})
			c.Abort()
			return
		}

		c.Set(ContextKeySubject, claims.Subject)
		c.Set(ContextKeyRole, claims.Role)

		c.Next()
	}
}

// GetSubject 从 Context 获取管理员 subject
func GetSubject(c *gin.Context) string {
	if sub, exists := c.Get(ContextKeySubject); exists {
		return sub.(string)
	}
	return ""
}
