package task

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"igdb_mirror_v1_202610/internal/model"
	"igdb_mirror_v1_202610/internal/service"
)

// ==================== TaskManager 同步任务管理器 ====================

// TaskManager 统一管理目录同步与凭证保活
// 手动触发不受定时开关影响；依赖缺失时返回 ErrTaskDisabled
type TaskManager struct {
	catalogTask *CatalogSyncTask
	tokenTask   *TokenTask

	catalogScheduled bool
	tokenScheduled   bool
}

// TaskManagerDeps 任务管理器依赖
type TaskManagerDeps struct {
	SyncService CatalogSyncer
	Tokens      service.TokenProvider // 未配置凭证时为 nil
}

// TaskManagerConfig 任务管理器配置
type TaskManagerConfig struct {
	CatalogEnabled  bool
	CatalogSchedule string
	CatalogTimeout  time.Duration

	TokenEnabled   bool
	TokenSchedule  string
	TokenThreshold time.Duration
}

// DefaultConfig 默认配置
func DefaultConfig() *TaskManagerConfig {
	return &TaskManagerConfig{
		CatalogEnabled:  true,
		CatalogSchedule: "0 0 3 * * *",
		CatalogTimeout:  4 * time.Hour,

		TokenEnabled:   true,
		TokenSchedule:  "0 */30 * * * *",
		TokenThreshold: 15 * time.Minute,
	}
}

// NewTaskManager 创建任务管理器
func NewTaskManager(deps *TaskManagerDeps, cfg *TaskManagerConfig) *TaskManager {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	tm := &TaskManager{}

	if deps.SyncService != nil {
		tm.catalogTask = NewCatalogSyncTask(deps.SyncService, cfg.CatalogSchedule, cfg.CatalogTimeout)
		tm.catalogScheduled = cfg.CatalogEnabled
	}

	if deps.Tokens != nil {
		tm.tokenTask = NewTokenTask(deps.Tokens, cfg.TokenSchedule, cfg.TokenThreshold)
		tm.tokenScheduled = cfg.TokenEnabled
	}

	return tm
}

// ==================== 生命周期管理 ====================

// Start 启动已开启的定时任务
func (tm *TaskManager) Start() error {
	zap.S().Info("[TaskManager] 正在启动定时任务...")

	if tm.tokenScheduled {
		if err := tm.tokenTask.Start(); err != nil {
			return err
		}
	}
	if tm.catalogScheduled {
		if err := tm.catalogTask.Start(); err != nil {
			return err
		}
	}

	zap.S().Infof("[TaskManager] 定时任务已启动 (catalog=%v token=%v)", tm.catalogScheduled, tm.tokenScheduled)
	return nil
}

// Stop 停止所有任务，等待进行中的同步结束
func (tm *TaskManager) Stop() {
	zap.S().Info("[TaskManager] 正在停止定时任务...")

	if tm.catalogTask != nil {
		tm.catalogTask.Stop()
	}
	if tm.tokenTask != nil {
		tm.tokenTask.Stop()
	}

	zap.S().Info("[TaskManager] 定时任务已全部停止")
}

// ==================== 手动触发接口 ====================

// TriggerKindSync 同步单个类型
func (tm *TaskManager) TriggerKindSync(ctx context.Context, kind model.Kind, opts service.SyncOptions) (*service.SyncResult, error) {
	if tm.catalogTask == nil {
		return nil, ErrTaskDisabled
	}
	return tm.catalogTask.SyncKindNow(ctx, kind, opts)
}

// TriggerAllSync 异步同步全部类型
func (tm *TaskManager) TriggerAllSync(opts service.SyncOptions) (bool, error) {
	if tm.catalogTask == nil {
		return false, ErrTaskDisabled
	}
	if !tm.catalogTask.SyncAllNow(opts) {
		return false, ErrTaskRunning
	}
	return true, nil
}

// TriggerTokenRefresh 立即刷新凭证
func (tm *TaskManager) TriggerTokenRefresh(ctx context.Context) error {
	if tm.tokenTask == nil {
		return ErrTaskDisabled
	}
	return tm.tokenTask.RefreshNow(ctx)
}

// ==================== 状态查询 ====================

// TaskStatus 任务状态
type TaskStatus struct {
	CatalogAvailable bool               `json:"catalog_available"`
	CatalogScheduled bool               `json:"catalog_scheduled"`
	CatalogRunning   bool               `json:"catalog_running"`
	LastCatalogRun   *CatalogRunSummary `json:"last_catalog_run,omitempty"`
	TokenAvailable   bool               `json:"token_available"`
	TokenScheduled   bool               `json:"token_scheduled"`
}

// Status 获取任务状态
func (tm *TaskManager) Status() TaskStatus {
	status := TaskStatus{
		CatalogAvailable: tm.catalogTask != nil,
		CatalogScheduled: tm.catalogScheduled,
		TokenAvailable:   tm.tokenTask != nil,
		TokenScheduled:   tm.tokenScheduled,
	}
	if tm.catalogTask != nil {
		status.CatalogRunning = tm.catalogTask.Running()
		status.LastCatalogRun = tm.catalogTask.LastRun()
	}
	return status
}

// ==================== 辅助函数 ====================

// newCron 秒级 cron，任务 panic 时恢复
func newCron() *cron.Cron {
	logger := cronLogger{}
	return cron.New(
		cron.WithSeconds(),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger)),
	)
}

// cronLogger 将 cron 内部日志转到 zap
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	zap.S().Debugw("[Cron] "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	zap.S().Errorw("[Cron] "+msg, append(keysAndValues, "error", err)...)
}

// ==================== 错误定义 ====================

type TaskError string

func (e TaskError) Error() string { return string(e) }

const (
	ErrTaskDisabled TaskError = "task is disabled"
	ErrTaskRunning  TaskError = "task is already running"
)
