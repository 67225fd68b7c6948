package task

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"igdb_mirror_v1_202610/internal/model"
	"igdb_mirror_v1_202610/internal/service"
)

// CatalogSyncer 同步服务
type CatalogSyncer interface {
	Sync(ctx context.Context, kind model.Kind, opts service.SyncOptions) (*service.SyncResult, error)
	SyncAll(ctx context.Context, opts service.SyncOptions) ([]*service.SyncResult, error)
}

// ==================== CatalogSyncTask 目录同步任务 ====================

// CatalogRunSummary 一轮全量类型同步的汇总
type CatalogRunSummary struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Full       bool      `json:"full"`
	Kinds      int       `json:"kinds"`
	Succeeded  int       `json:"succeeded"`
	New        int       `json:"new"`
	Updated    int       `json:"updated"`
	Failed     int       `json:"failed"`
	Error      string    `json:"error,omitempty"`
}

// CatalogSyncTask 按依赖顺序同步全部类型
// 同步策略：
//   - 定时：默认每日凌晨 3 点，增量
//   - 手动：单类型同步同步执行；全部类型异步执行，同一时刻只允许一轮
type CatalogSyncTask struct {
	syncer   CatalogSyncer
	cron     *cron.Cron
	schedule string
	timeout  time.Duration

	running atomic.Bool
	wg      sync.WaitGroup
	mu      sync.Mutex
	last    *CatalogRunSummary
}

// NewCatalogSyncTask 创建目录同步任务
func NewCatalogSyncTask(syncer CatalogSyncer, schedule string, timeout time.Duration) *CatalogSyncTask {
	if timeout <= 0 {
		timeout = 4 * time.Hour
	}
	return &CatalogSyncTask{
		syncer:   syncer,
		cron:     newCron(),
		schedule: schedule,
		timeout:  timeout,
	}
}

// Start 注册定时同步
func (t *CatalogSyncTask) Start() error {
	if _, err := t.cron.AddFunc(t.schedule, func() {
		t.runAll(service.SyncOptions{})
	}); err != nil {
		return fmt.Errorf("无法启动目录同步任务: %w", err)
	}
	t.cron.Start()
	zap.S().Infof("[CatalogSyncTask] 已启动 (%s)", t.schedule)
	return nil
}

// Stop 停止定时并等待进行中的同步
func (t *CatalogSyncTask) Stop() {
	ctx := t.cron.Stop()
	<-ctx.Done()
	t.wg.Wait()
	zap.S().Info("[CatalogSyncTask] 已停止")
}

// runAll 同步全部类型，已有一轮在执行时跳过
func (t *CatalogSyncTask) runAll(opts service.SyncOptions) {
	if !t.running.CompareAndSwap(false, true) {
		zap.S().Warn("[CatalogSyncTask] 上一轮同步尚未结束，跳过")
		return
	}
	defer t.running.Store(false)
	t.syncAll(opts)
}

func (t *CatalogSyncTask) syncAll(opts service.SyncOptions) {
	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()

	syncType := "增量"
	if opts.Full {
		syncType = "全量"
	}
	zap.S().Infof("[CatalogSyncTask] 开始%s目录同步...", syncType)

	summary := &CatalogRunSummary{StartedAt: time.Now(), Full: opts.Full}
	results, err := t.syncer.SyncAll(ctx, opts)
	for _, r := range results {
		summary.Kinds++
		if r.Success {
			summary.Succeeded++
		}
		summary.New += r.New
		summary.Updated += r.Updated
		summary.Failed += r.Failed
	}
	summary.FinishedAt = time.Now()
	if err != nil {
		summary.Error = err.Error()
		zap.S().Errorf("[CatalogSyncTask] 同步结束 (有失败): %v", err)
	}

	zap.S().Infof("[CatalogSyncTask] %s同步完成: 类型 %d/%d 成功, 新增 %d, 更新 %d, 失败记录 %d, 耗时 %s",
		syncType, summary.Succeeded, summary.Kinds, summary.New, summary.Updated, summary.Failed,
		summary.FinishedAt.Sub(summary.StartedAt).Round(time.Second))

	t.mu.Lock()
	t.last = summary
	t.mu.Unlock()
}

// ==================== 手动触发 ====================

// SyncKindNow 立即同步单个类型 (同步执行)
func (t *CatalogSyncTask) SyncKindNow(ctx context.Context, kind model.Kind, opts service.SyncOptions) (*service.SyncResult, error) {
	return t.syncer.Sync(ctx, kind, opts)
}

// SyncAllNow 异步同步全部类型，已有一轮在执行时返回 false
func (t *CatalogSyncTask) SyncAllNow(opts service.SyncOptions) bool {
	if !t.running.CompareAndSwap(false, true) {
		return false
	}
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		defer t.running.Store(false)
		t.syncAll(opts)
	}()
	return true
}

// Running 是否有一轮同步在执行
func (t *CatalogSyncTask) Running() bool {
	return t.running.Load()
}

// LastRun 最近一轮汇总
func (t *CatalogSyncTask) LastRun() *CatalogRunSummary {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last
}
