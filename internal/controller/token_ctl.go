package controller

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"igdb_mirror_v1_202610/internal/api/dto"
	"igdb_mirror_v1_202610/internal/middleware"
	"igdb_mirror_v1_202610/internal/service"
	"igdb_mirror_v1_202610/internal/task"
)

// TokenRefresher 立即刷新 (TaskManager)
type TokenRefresher interface {
	TriggerTokenRefresh(ctx context.Context) error
}

// TokenController 上游凭证管理
// tokens 为空表示未配置 client_id / client_secret
type TokenController struct {
	tokens  service.TokenProvider
	refresh TokenRefresher
}

func NewTokenController(tokens service.TokenProvider, refresh TokenRefresher) *TokenController {
	return &TokenController{tokens: tokens, refresh: refresh}
}

// Inspect 查看凭证缓存
// @Summary 查看上游凭证状态
// @Tags Token
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.TokenStatusResp
// @Router /api/v1/token [get]
func (c *TokenController) Inspect(ctx *gin.Context) {
	resp := dto.TokenStatusResp{}
	if c.tokens != nil {
		status := c.tokens.Inspect()
		resp = dto.TokenStatusResp{
			Configured:       true,
			HasToken:         status.HasToken,
			ExpiresAt:        status.ExpiresAt,
			SecondsRemaining: status.SecondsRemaining,
		}
	}
	ctx.JSON(http.StatusOK, gin.H{"code": 200, "data": resp})
}

// Clear 清除凭证缓存
// @Summary 清除上游凭证缓存，下次调用时重新换取
// @Tags Token
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/token [delete]
func (c *TokenController) Clear(ctx *gin.Context) {
	if c.tokens == nil {
		ctx.JSON(http.StatusFailedDependency, gin.H{"code": 424, "message": service.ErrCredentialsMissing.Error()})
		return
	}

	c.tokens.Clear()
	zap.S().Infof("[TokenController] 凭证缓存已清除 (by %s)", middleware.GetSubject(ctx))
	ctx.JSON(http.StatusOK, gin.H{"code": 200, "message": "凭证缓存已清除"})
}

// Refresh 立即刷新凭证
// @Summary 强制换取新凭证
// @Tags Token
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 424 {object} map[string]interface{} "未配置上游凭证"
// @Failure 502 {object} map[string]interface{} "凭证端点拒绝"
// @Router /api/v1/token/refresh [post]
func (c *TokenController) Refresh(ctx *gin.Context) {
	err := c.refresh.TriggerTokenRefresh(ctx.Request.Context())
	var authErr *service.UpstreamAuthError

	switch {
	case err == nil:
		c.Inspect(ctx)
	case errors.Is(err, task.ErrTaskDisabled), errors.Is(err, service.ErrCredentialsMissing):
		ctx.JSON(http.StatusFailedDependency, gin.H{"code": 424, "message": service.ErrCredentialsMissing.Error()})
	case errors.As(err, &authErr):
		ctx.JSON(http.StatusBadGateway, gin.H{"code": 502, "message": err.Error()})
	default:
		ctx.JSON(http.StatusInternalServerError, gin.H{"code": 500, "message": err.Error()})
	}
}
