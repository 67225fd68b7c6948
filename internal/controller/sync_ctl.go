package controller

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"

	"igdb_mirror_v1_202610/internal/api/dto"
	"igdb_mirror_v1_202610/internal/model"
	"igdb_mirror_v1_202610/internal/service"
	"igdb_mirror_v1_202610/internal/task"
)

// SyncTrigger 同步触发 (TaskManager)
type SyncTrigger interface {
	TriggerKindSync(ctx context.Context, kind model.Kind, opts service.SyncOptions) (*service.SyncResult, error)
	TriggerAllSync(opts service.SyncOptions) (bool, error)
	Status() task.TaskStatus
}

// SyncQuery 同步状态查询 (SyncService)
type SyncQuery interface {
	Kinds(ctx context.Context) ([]service.KindInfo, error)
	Runs(ctx context.Context, kind model.Kind, limit int) ([]model.SyncRun, error)
}

// SyncController 同步控制器
type SyncController struct {
	tasks SyncTrigger
	query SyncQuery
}

// NewSyncController 创建同步控制器
func NewSyncController(tasks SyncTrigger, query SyncQuery) *SyncController {
	return &SyncController{tasks: tasks, query: query}
}

// ==================== Handler 实现 ====================

// SyncKind 同步单个类型
// @Summary 手动同步单个类型
// @Description 同步执行，返回本次的计数；上游失败时 data 中仍包含已提交部分的计数
// @Tags Sync
// @Produce json
// @Security BearerAuth
// @Param kind path string true "类型，如 platforms / covers"
// @Param platform_id query int false "本地平台 ID"
// @Param full query bool false "是否全量同步"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{} "未知类型"
// @Failure 404 {object} map[string]interface{} "本地平台不存在"
// @Failure 409 {object} map[string]interface{} "同类型同步进行中"
// @Failure 424 {object} map[string]interface{} "未配置上游凭证"
// @Failure 429 {object} map[string]interface{} "限流中"
// @Failure 502 {object} map[string]interface{} "上游失败"
// @Router /api/v1/sync/{kind} [post]
func (c *SyncController) SyncKind(ctx *gin.Context) {
	var req dto.SyncKindReq
	if err := ctx.ShouldBindQuery(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}

	kind := model.Kind(ctx.Param("kind"))
	result, err := c.tasks.TriggerKindSync(ctx.Request.Context(), kind, service.SyncOptions{
		PlatformID: req.PlatformID,
		Full:       req.Full,
	})
	if err != nil {
		writeSyncError(ctx, err, result)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"code":    200,
		"message": result.Message,
		"data":    result,
	})
}

// SyncAll 同步全部类型
// @Summary 按依赖顺序同步全部类型
// @Description 异步执行，进度通过 /sync/status 与 /sync/runs 查询
// @Tags Sync
// @Produce json
// @Security BearerAuth
// @Param full query bool false "是否全量同步"
// @Success 202 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{} "已有一轮在执行"
// @Failure 429 {object} map[string]interface{} "限流中"
// @Router /api/v1/sync/all [post]
func (c *SyncController) SyncAll(ctx *gin.Context) {
	var req dto.SyncAllReq
	if err := ctx.ShouldBindQuery(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}

	if _, err := c.tasks.TriggerAllSync(service.SyncOptions{Full: req.Full}); err != nil {
		writeSyncError(ctx, err, nil)
		return
	}

	syncType := "增量"
	if req.Full {
		syncType = "全量"
	}
	ctx.JSON(http.StatusAccepted, gin.H{
		"code":    202,
		"message": "全部类型" + syncType + "同步任务已启动",
		"data":    gin.H{"full": req.Full},
	})
}

// Status 任务状态
// @Summary 同步任务状态
// @Tags Sync
// @Produce json
// @Success 200 {object} task.TaskStatus
// @Router /api/v1/sync/status [get]
func (c *SyncController) Status(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"code": 200, "data": c.tasks.Status()})
}

// ListKinds 类型概况
// @Summary 全部类型及本地记录数
// @Tags Sync
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/sync/kinds [get]
func (c *SyncController) ListKinds(ctx *gin.Context) {
	kinds, err := c.query.Kinds(ctx.Request.Context())
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"code": 500, "message": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"code": 200, "data": kinds})
}

// ListRuns 同步记录
// @Summary 最近的同步记录
// @Tags Sync
// @Produce json
// @Param kind query string false "按类型过滤"
// @Param limit query int false "条数" default(50)
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/sync/runs [get]
func (c *SyncController) ListRuns(ctx *gin.Context) {
	var req dto.SyncRunListReq
	if err := ctx.ShouldBindQuery(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}
	if req.Limit <= 0 {
		req.Limit = 50
	}

	runs, err := c.query.Runs(ctx.Request.Context(), model.Kind(req.Kind), req.Limit)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"code": 500, "message": err.Error()})
		return
	}

	list := make([]dto.SyncRunResp, 0, len(runs))
	for _, run := range runs {
		list = append(list, toSyncRunResp(run))
	}
	ctx.JSON(http.StatusOK, gin.H{"code": 200, "data": list})
}

// ==================== 工具函数 ====================

// writeSyncError 同步错误到 HTTP 状态码的映射
func writeSyncError(ctx *gin.Context, err error, result *service.SyncResult) {
	status := http.StatusInternalServerError
	var authErr *service.UpstreamAuthError
	var fetchErr *service.UpstreamFetchError

	switch {
	case errors.Is(err, service.ErrUnknownKind):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrPlatformNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrSyncInProgress), errors.Is(err, task.ErrTaskRunning):
		status = http.StatusConflict
	case errors.Is(err, service.ErrCredentialsMissing):
		status = http.StatusFailedDependency
	case errors.As(err, &authErr), errors.As(err, &fetchErr):
		status = http.StatusBadGateway
	case errors.Is(err, task.ErrTaskDisabled):
		status = http.StatusServiceUnavailable
	}

	body := gin.H{"code": status, "message": err.Error()}
	if result != nil {
		body["data"] = result
	}
	ctx.JSON(status, body)
}

func toSyncRunResp(run model.SyncRun) dto.SyncRunResp {
	resp := dto.SyncRunResp{
		RunID:       run.RunID,
		Kind:        string(run.Kind),
		PlatformID:  run.PlatformID,
		Full:        run.Full,
		Status:      string(run.Status),
		TotalSynced: run.Total,
		New:         run.Created,
		Updated:     run.Updated,
		Unchanged:   run.Unchanged,
		Failed:      run.Failed,
		Message:     run.Message,
		Warnings:    []string{},
		TriggeredBy: run.TriggeredBy,
		StartedAt:   run.StartedAt,
		FinishedAt:  run.FinishedAt,
	}
	if len(run.Warnings) > 0 {
		_ = json.Unmarshal(run.Warnings, &resp.Warnings)
	}
	if resp.Warnings == nil {
		resp.Warnings = []string{}
	}
	return resp
}
