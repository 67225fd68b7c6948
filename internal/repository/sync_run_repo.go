package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"igdb_mirror_v1_202610/internal/model"
)

// SyncRunRepository 同步记录仓储
type SyncRunRepository interface {
	Create(ctx context.Context, run *model.SyncRun) error
	// Finish 写回计数与结束状态
	Finish(ctx context.Context, run *model.SyncRun) error
	// LastSuccess 返回某类型最近一次无失败记录的全量作用域执行，不存在时返回 (nil, nil)
	// partial 状态的执行不计入
	LastSuccess(ctx context.Context, kind model.Kind) (*model.SyncRun, error)
	List(ctx context.Context, kind model.Kind, limit int) ([]model.SyncRun, error)
}

type syncRunRepo struct {
	db *gorm.DB
}

// NewSyncRunRepository 创建同步记录仓储
func NewSyncRunRepository(db *gorm.DB) SyncRunRepository {
	return &syncRunRepo{db: db}
}

func (r *syncRunRepo) Create(ctx context.Context, run *model.SyncRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *syncRunRepo) Finish(ctx context.Context, run *model.SyncRun) error {
	return r.db.WithContext(ctx).
		Model(&model.SyncRun{}).
		Where("run_id = ?", run.RunID).
		Updates(map[string]interface{}{
			"status":      run.Status,
			"total":       run.Total,
			"created":     run.Created,
			"updated":     run.Updated,
			"unchanged":   run.Unchanged,
			"failed":      run.Failed,
			"message":     run.Message,
			"warnings":    run.Warnings,
			"finished_at": run.FinishedAt,
		}).Error
}

func (r *syncRunRepo) LastSuccess(ctx context.Context, kind model.Kind) (*model.SyncRun, error) {
	var run model.SyncRun
	err := r.db.WithContext(ctx).
		Where("kind = ? AND status = ? AND platform_id IS NULL", kind, model.SyncRunSuccess).
		Order("started_at DESC").
		First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *syncRunRepo) List(ctx context.Context, kind model.Kind, limit int) ([]model.SyncRun, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var runs []model.SyncRun
	query := r.db.WithContext(ctx).Model(&model.SyncRun{})
	if kind != "" {
		query = query.Where("kind = ?", kind)
	}
	err := query.Order("started_at DESC").Limit(limit).Find(&runs).Error
	return runs, err
}
