package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"igdb_mirror_v1_202610/internal/metrics"
	"igdb_mirror_v1_202610/internal/model"
	"igdb_mirror_v1_202610/internal/repository"
	"igdb_mirror_v1_202610/pkg/lock"
)

// SyncConfig 同步参数
type SyncConfig struct {
	SubBatchSize      int
	UpdateConcurrency int
	LockTTL           time.Duration
	MaxWarnings       int
}

// SyncOptions 单次同步选项
type SyncOptions struct {
	PlatformID *int64 // 本地平台 ID，为空表示全部
	Full       bool   // 忽略增量条件与已同步 ID
}

// SyncResult 同步结果
// 中途失败时 Success=false，计数为失败前已提交的部分
type SyncResult struct {
	RunID       string     `json:"run_id"`
	Kind        model.Kind `json:"kind"`
	PlatformID  *int64     `json:"platform_id,omitempty"`
	Full        bool       `json:"full"`
	Success     bool       `json:"success"`
	TotalSynced int        `json:"total_synced"`
	New         int        `json:"new"`
	Updated     int        `json:"updated"`
	Unchanged   int        `json:"unchanged"`
	Failed      int        `json:"failed"`
	Warnings    []string   `json:"warnings"`
	Message     string     `json:"message"`
	StartedAt   time.Time  `json:"started_at"`
	FinishedAt  time.Time  `json:"finished_at"`
}

// KindInfo 实体类型概况
type KindInfo struct {
	Kind        model.Kind `json:"kind"`
	Mode        string     `json:"mode"`
	Incremental bool       `json:"incremental"`
	ScopeAware  bool       `json:"scope_aware"`
	Count       int64      `json:"count"`
	LastSuccess *time.Time `json:"last_success,omitempty"`
}

// SyncService 同步编排
// 同一类型的同步由任务锁串行化，不同类型可以并行
type SyncService struct {
	fetcher  *Fetcher
	registry *KindRegistry
	runs     repository.SyncRunRepository
	scopes   *ScopeService
	locker   lock.Locker
	cfg      SyncConfig
	now      func() time.Time
}

// NewSyncService 创建同步服务
func NewSyncService(
	fetcher *Fetcher,
	registry *KindRegistry,
	runs repository.SyncRunRepository,
	scopes *ScopeService,
	locker lock.Locker,
	cfg SyncConfig,
) *SyncService {
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = time.Hour
	}
	if cfg.MaxWarnings <= 0 {
		cfg.MaxWarnings = 50
	}
	return &SyncService{
		fetcher:  fetcher,
		registry: registry,
		runs:     runs,
		scopes:   scopes,
		locker:   locker,
		cfg:      cfg,
		now:      time.Now,
	}
}

func (s *SyncService) reconcileOptions() ReconcileOptions {
	return ReconcileOptions{
		SubBatchSize: s.cfg.SubBatchSize,
		Concurrency:  s.cfg.UpdateConcurrency,
		Now:          s.now,
	}
}

// LockKey 同步任务锁的 key
func LockKey(kind model.Kind) string {
	return "sync:" + kind.String()
}

// ==================== 同步 ====================

// Sync 同步单个实体类型
// 1. 获取该类型的任务锁
// 2. 解析平台作用域，确定增量起点
// 3. 拉取 -> 逐页对账
// 4. 写入执行记录
// 返回的 result 在拉取失败时同样非 nil
func (s *SyncService) Sync(ctx context.Context, kind model.Kind, opts SyncOptions) (*SyncResult, error) {
	syncer, err := s.registry.get(kind)
	if err != nil {
		return nil, err
	}

	release, ok, err := s.locker.Acquire(ctx, LockKey(kind), s.cfg.LockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire sync lock: %w", err)
	}
	if !ok {
		return nil, ErrSyncInProgress
	}
	defer release()

	if !syncer.scopeAware() && opts.PlatformID != nil {
		zap.S().Infof("[Sync] %s 不区分平台，忽略 platform_id=%d", kind, *opts.PlatformID)
		opts.PlatformID = nil
	}
	scope, err := s.scopes.Resolve(ctx, opts.PlatformID)
	if err != nil {
		return nil, err
	}

	run := &kindRun{scope: scope, full: opts.Full}
	if syncer.incremental() && scope.IsAll() && !opts.Full {
		last, err := s.runs.LastSuccess(ctx, kind)
		if err != nil {
			zap.S().Warnf("[Sync] %s 读取上次成功记录失败，执行全量: %v", kind, err)
		} else if last != nil {
			since := last.StartedAt
			run.since = &since
		}
	}

	started := s.now()
	record := &model.SyncRun{
		RunID:      uuid.NewString(),
		Kind:       kind,
		PlatformID: scope.PlatformID,
		Full:       opts.Full,
		Status:     model.SyncRunRunning,
		StartedAt:  started,
	}
	if err := s.runs.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("create sync run: %w", err)
	}

	if run.since != nil {
		zap.S().Infof("[Sync] %s 开始增量同步 (updated_at > %s) run=%s", kind, run.since.Format(time.RFC3339), record.RunID)
	} else {
		zap.S().Infof("[Sync] %s 开始同步 full=%v platform=%v run=%s", kind, opts.Full, scope.PlatformID != nil, record.RunID)
	}

	syncErr := syncer.sync(ctx, s, run)
	result := s.finish(ctx, record, run, syncErr)
	return result, syncErr
}

// finish 汇总计数、写回执行记录、上报指标
func (s *SyncService) finish(ctx context.Context, record *model.SyncRun, run *kindRun, syncErr error) *SyncResult {
	finished := s.now()
	kind := record.Kind

	result := &SyncResult{
		RunID:       record.RunID,
		Kind:        kind,
		PlatformID:  record.PlatformID,
		Full:        record.Full,
		Success:     syncErr == nil,
		TotalSynced: run.fetched,
		New:         run.result.Created,
		Updated:     run.result.Updated,
		Unchanged:   run.result.Unchanged,
		Failed:      run.result.Failed,
		Warnings:    s.collectWarnings(run),
		StartedAt:   record.StartedAt,
		FinishedAt:  finished,
	}

	if syncErr == nil {
		result.Message = fmt.Sprintf("%s 同步完成: 拉取 %d 条，新增 %d，更新 %d，未变 %d，失败 %d",
			kind, result.TotalSynced, result.New, result.Updated, result.Unchanged, result.Failed)
		record.Status = model.SyncRunSuccess
		if result.Failed > 0 {
			// 写入失败的记录下次增量仍需重新拉取
			record.Status = model.SyncRunPartial
			zap.S().Warnf("[Sync] %s", result.Message)
		} else {
			zap.S().Infof("[Sync] %s", result.Message)
		}
	} else {
		result.Message = fmt.Sprintf("%s 同步中止 (已新增 %d，更新 %d): %v", kind, result.New, result.Updated, syncErr)
		record.Status = model.SyncRunFailed
		zap.S().Errorf("[Sync] %s", result.Message)
	}

	record.Total = result.TotalSynced
	record.Created = result.New
	record.Updated = result.Updated
	record.Unchanged = result.Unchanged
	record.Failed = result.Failed
	record.Message = truncate(result.Message, 1000)
	record.Warnings = encodeWarnings(result.Warnings)
	record.FinishedAt = &finished

	// 调用方取消后仍需落库
	if err := s.runs.Finish(context.WithoutCancel(ctx), record); err != nil {
		zap.S().Errorf("[Sync] 写回执行记录 %s 失败: %v", record.RunID, err)
	}

	metrics.RecordReconcile(kind.String(), result.New, result.Updated, result.Unchanged, result.Failed)
	metrics.RecordSyncRun(kind.String(), string(record.Status), finished.Sub(record.StartedAt))
	if n := len(run.malformed); n > 0 {
		metrics.MalformedReferences.WithLabelValues(kind.String()).Add(float64(n))
	}
	return result
}

// collectWarnings 格式错误的引用与写入失败，超出上限的部分只计数
func (s *SyncService) collectWarnings(run *kindRun) []string {
	all := make([]string, 0, len(run.malformed)+len(run.result.Errors))
	for _, e := range run.malformed {
		all = append(all, e.Error())
	}
	for _, e := range run.result.Errors {
		all = append(all, e.Error())
	}
	if len(all) <= s.cfg.MaxWarnings {
		return all
	}
	capped := append([]string{}, all[:s.cfg.MaxWarnings]...)
	return append(capped, fmt.Sprintf("... 另有 %d 条警告未列出", len(all)-s.cfg.MaxWarnings))
}

func encodeWarnings(warnings []string) datatypes.JSON {
	if len(warnings) == 0 {
		return datatypes.JSON("[]")
	}
	b, err := json.Marshal(warnings)
	if err != nil {
		return datatypes.JSON("[]")
	}
	return datatypes.JSON(b)
}

// SyncAll 按依赖顺序同步全部类型
// 凭证类错误立即停止；其余错误记录后继续下一个类型
func (s *SyncService) SyncAll(ctx context.Context, opts SyncOptions) ([]*SyncResult, error) {
	var results []*SyncResult
	var failed []model.Kind

	for _, kind := range model.SyncOrder() {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		result, err := s.Sync(ctx, kind, opts)
		if result != nil {
			results = append(results, result)
		}
		if err == nil {
			continue
		}
		if isAuthFailure(err) || errors.Is(err, context.Canceled) || errors.Is(err, ErrPlatformNotFound) {
			return results, err
		}
		zap.S().Warnf("[Sync] %s 失败，继续下一个类型: %v", kind, err)
		failed = append(failed, kind)
	}

	if len(failed) > 0 {
		return results, fmt.Errorf("sync failed for %d kind(s): %v", len(failed), failed)
	}
	return results, nil
}

// isAuthFailure 凭证缺失或被拒，后续类型同样会失败
func isAuthFailure(err error) bool {
	var authErr *UpstreamAuthError
	return errors.Is(err, ErrCredentialsMissing) || errors.As(err, &authErr)
}

// ==================== 查询 ====================

// Kinds 全部类型及镜像表行数
func (s *SyncService) Kinds(ctx context.Context) ([]KindInfo, error) {
	kinds := model.SyncOrder()
	infos := make([]KindInfo, 0, len(kinds))
	for _, kind := range kinds {
		syncer, err := s.registry.get(kind)
		if err != nil {
			return nil, err
		}
		count, err := syncer.count(ctx)
		if err != nil {
			return nil, err
		}
		info := KindInfo{
			Kind:        kind,
			Mode:        syncer.mode(),
			Incremental: syncer.incremental(),
			ScopeAware:  syncer.scopeAware(),
			Count:       count,
		}
		last, err := s.runs.LastSuccess(ctx, kind)
		if err != nil {
			return nil, err
		}
		if last != nil {
			info.LastSuccess = &last.StartedAt
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// Runs 最近的执行记录
func (s *SyncService) Runs(ctx context.Context, kind model.Kind, limit int) ([]model.SyncRun, error) {
	return s.runs.List(ctx, kind, limit)
}

// Running 类型当前是否有同步在执行
func (s *SyncService) Running(ctx context.Context, kind model.Kind) (bool, error) {
	return s.locker.Held(ctx, LockKey(kind))
}
