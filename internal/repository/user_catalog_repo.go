package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"igdb_mirror_v1_202610/internal/model"
)

// ==================== 本地平台 ====================

// UserPlatformRepository 本地平台仓储
type UserPlatformRepository interface {
	Create(ctx context.Context, platform *model.UserPlatform) error
	// GetByID 不存在时返回 (nil, nil)
	GetByID(ctx context.Context, id int64) (*model.UserPlatform, error)
	List(ctx context.Context) ([]model.UserPlatform, error)
}

type userPlatformRepo struct {
	db *gorm.DB
}

// NewUserPlatformRepository 创建本地平台仓储
func NewUserPlatformRepository(db *gorm.DB) UserPlatformRepository {
	return &userPlatformRepo{db: db}
}

func (r *userPlatformRepo) Create(ctx context.Context, platform *model.UserPlatform) error {
	return r.db.WithContext(ctx).Create(platform).Error
}

func (r *userPlatformRepo) GetByID(ctx context.Context, id int64) (*model.UserPlatform, error) {
	var platform model.UserPlatform
	err := r.db.WithContext(ctx).First(&platform, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &platform, nil
}

func (r *userPlatformRepo) List(ctx context.Context) ([]model.UserPlatform, error) {
	var platforms []model.UserPlatform
	err := r.db.WithContext(ctx).Order("id ASC").Find(&platforms).Error
	return platforms, err
}

// ==================== 本地游戏 ====================

// GameRepository 本地游戏仓储
type GameRepository interface {
	Create(ctx context.Context, game *model.Game) error
	// ListByPlatform platformID 为 nil 时返回全部游戏
	ListByPlatform(ctx context.Context, platformID *int64) ([]model.Game, error)
}

type gameRepo struct {
	db *gorm.DB
}

// NewGameRepository 创建游戏仓储
func NewGameRepository(db *gorm.DB) GameRepository {
	return &gameRepo{db: db}
}

func (r *gameRepo) Create(ctx context.Context, game *model.Game) error {
	return r.db.WithContext(ctx).Create(game).Error
}

func (r *gameRepo) ListByPlatform(ctx context.Context, platformID *int64) ([]model.Game, error) {
	var games []model.Game
	query := r.db.WithContext(ctx).Model(&model.Game{})
	if platformID != nil {
		query = query.Where("platform_id = ?", *platformID)
	}
	err := query.Order("id ASC").Find(&games).Error
	return games, err
}
