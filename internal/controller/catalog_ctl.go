package controller

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"igdb_mirror_v1_202610/internal/api/dto"
	"igdb_mirror_v1_202610/internal/model"
	"igdb_mirror_v1_202610/internal/service"
)

// CatalogReader 目录读路径 (CatalogService)
type CatalogReader interface {
	GetRecord(ctx context.Context, kind model.Kind, igdbID int64) (*service.CatalogRecord, error)
	GetPlatform(ctx context.Context, igdbID int64) (*service.CatalogRecord, error)
	ListGames(ctx context.Context, platformID *int64) ([]service.GameView, error)
	ListUserPlatforms(ctx context.Context) ([]service.UserPlatformView, error)
}

type CatalogController struct {
	catalog CatalogReader
}

func NewCatalogController(catalog CatalogReader) *CatalogController {
	return &CatalogController{catalog: catalog}
}

// GetPlatform 平台详情
// @Summary 获取镜像平台
// @Description 家族、类型、Logo、版本解析为 {id,name,url}；悬空引用为 null 或被过滤
// @Tags Catalog
// @Produce json
// @Param igdb_id path int true "上游平台 ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{} "尚未同步"
// @Router /api/v1/catalog/platforms/{igdb_id} [get]
func (c *CatalogController) GetPlatform(ctx *gin.Context) {
	igdbID, ok := parseIGDBID(ctx)
	if !ok {
		return
	}

	record, err := c.catalog.GetPlatform(ctx.Request.Context(), igdbID)
	if err != nil {
		writeCatalogError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"code": 200, "data": record})
}

// GetRecord 任意类型的镜像记录
// @Summary 获取镜像记录
// @Tags Catalog
// @Produce json
// @Param kind path string true "类型"
// @Param igdb_id path int true "上游 ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{} "未知类型"
// @Failure 404 {object} map[string]interface{} "尚未同步"
// @Router /api/v1/catalog/{kind}/{igdb_id} [get]
func (c *CatalogController) GetRecord(ctx *gin.Context) {
	igdbID, ok := parseIGDBID(ctx)
	if !ok {
		return
	}

	record, err := c.catalog.GetRecord(ctx.Request.Context(), model.Kind(ctx.Param("kind")), igdbID)
	if err != nil {
		writeCatalogError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"code": 200, "data": record})
}

// ListGames 本地游戏
// @Summary 本地游戏列表 (含解析后的引用)
// @Tags Catalog
// @Produce json
// @Param platform_id query int false "本地平台 ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/catalog/games [get]
func (c *CatalogController) ListGames(ctx *gin.Context) {
	var req dto.GameListReq
	if err := ctx.ShouldBindQuery(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}

	games, err := c.catalog.ListGames(ctx.Request.Context(), req.PlatformID)
	if err != nil {
		writeCatalogError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"code": 200, "data": games})
}

// ListUserPlatforms 本地平台
// @Summary 本地平台列表 (含上游平台/版本引用)
// @Tags Catalog
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/catalog/user_platforms [get]
func (c *CatalogController) ListUserPlatforms(ctx *gin.Context) {
	platforms, err := c.catalog.ListUserPlatforms(ctx.Request.Context())
	if err != nil {
		writeCatalogError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"code": 200, "data": platforms})
}

// ==================== 工具函数 ====================

func parseIGDBID(ctx *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("igdb_id"), 10, 64)
	if err != nil || id <= 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "无效的 ID"})
		return 0, false
	}
	return id, true
}

func writeCatalogError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUnknownKind):
		ctx.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": err.Error()})
	case errors.Is(err, service.ErrRecordNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"code": 404, "message": err.Error()})
	default:
		ctx.JSON(http.StatusInternalServerError, gin.H{"code": 500, "message": err.Error()})
	}
}
