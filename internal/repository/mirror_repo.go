package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"igdb_mirror_v1_202610/internal/model"
)

// keyChunkSize 单条 IN 查询的最大 key 数 (与上游 ID 过滤上限一致，且低于 SQLite 变量上限)
const keyChunkSize = 500

// ==================== 接口定义 ====================

// MirrorRepository 镜像表仓储 (按上游 ID 操作)
type MirrorRepository[T model.Mirror] interface {
	// FindByKey 按上游 ID 查询，不存在时返回 (nil, nil)
	FindByKey(ctx context.Context, key int64) (*T, error)
	// FindByKeys 按上游 ID 集合批量查询
	FindByKeys(ctx context.Context, keys []int64) ([]T, error)
	// BulkCreateSkipDuplicates 批量插入，上游 ID 冲突的行跳过，返回实际插入行数
	BulkCreateSkipDuplicates(ctx context.Context, rows []T) (int64, error)
	// UpdateByKey 按上游 ID 更新指定列
	UpdateByKey(ctx context.Context, key int64, fields map[string]interface{}) error
	// ExistingKeys 返回 keys 中已存在于镜像表的部分
	ExistingKeys(ctx context.Context, keys []int64) ([]int64, error)
	// DisplayRefs 批量查询展示值
	DisplayRefs(ctx context.Context, keys []int64) (map[int64]model.DisplayRef, error)

	All(ctx context.Context) ([]T, error)
	Count(ctx context.Context) (int64, error)
}

// ==================== 仓储实现 ====================

type mirrorRepo[T model.Mirror] struct {
	db *gorm.DB
}

// NewMirrorRepository 创建镜像仓储
func NewMirrorRepository[T model.Mirror](db *gorm.DB) MirrorRepository[T] {
	return &mirrorRepo[T]{db: db}
}

func (r *mirrorRepo[T]) FindByKey(ctx context.Context, key int64) (*T, error) {
	var row T
	err := r.db.WithContext(ctx).Where("igdb_id = ?", key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *mirrorRepo[T]) FindByKeys(ctx context.Context, keys []int64) ([]T, error) {
	rows := make([]T, 0, len(keys))
	for _, chunk := range chunkKeys(keys, keyChunkSize) {
		var part []T
		if err := r.db.WithContext(ctx).Where("igdb_id IN ?", chunk).Find(&part).Error; err != nil {
			return nil, err
		}
		rows = append(rows, part...)
	}
	return rows, nil
}

func (r *mirrorRepo[T]) BulkCreateSkipDuplicates(ctx context.Context, rows []T) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "igdb_id"}},
			DoNothing: true,
		}).
		Create(&rows)
	return result.RowsAffected, result.Error
}

func (r *mirrorRepo[T]) UpdateByKey(ctx context.Context, key int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(new(T)).
		Where("igdb_id = ?", key).
		Updates(fields).Error
}

func (r *mirrorRepo[T]) ExistingKeys(ctx context.Context, keys []int64) ([]int64, error) {
	existing := make([]int64, 0, len(keys))
	for _, chunk := range chunkKeys(keys, keyChunkSize) {
		var part []int64
		err := r.db.WithContext(ctx).
			Model(new(T)).
			Where("igdb_id IN ?", chunk).
			Pluck("igdb_id", &part).Error
		if err != nil {
			return nil, err
		}
		existing = append(existing, part...)
	}
	return existing, nil
}

func (r *mirrorRepo[T]) DisplayRefs(ctx context.Context, keys []int64) (map[int64]model.DisplayRef, error) {
	rows, err := r.FindByKeys(ctx, keys)
	if err != nil {
		return nil, err
	}
	refs := make(map[int64]model.DisplayRef, len(rows))
	for _, row := range rows {
		refs[row.UpstreamKey()] = row.Display()
	}
	return refs, nil
}

func (r *mirrorRepo[T]) All(ctx context.Context) ([]T, error) {
	var rows []T
	err := r.db.WithContext(ctx).Order("igdb_id ASC").Find(&rows).Error
	return rows, err
}

func (r *mirrorRepo[T]) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(new(T)).Count(&total).Error
	return total, err
}

// ==================== 辅助函数 ====================

// chunkKeys 按 size 切分 key 列表
func chunkKeys(keys []int64, size int) [][]int64 {
	if len(keys) == 0 {
		return nil
	}
	chunks := make([][]int64, 0, (len(keys)+size-1)/size)
	for start := 0; start < len(keys); start += size {
		end := start + size
		if end > len(keys) {
			end = len(keys)
		}
		chunks = append(chunks, keys[start:end])
	}
	return chunks
}
