package service

import (
	"context"

	"igdb_mirror_v1_202610/internal/model"
	"igdb_mirror_v1_202610/internal/repository"
)

// Scope 同步作用域
// PlatformID 为空表示全部本地游戏
type Scope struct {
	PlatformID                *int64 `json:"platform_id"`
	UpstreamPlatformID        *int64 `json:"igdb_platform_id"`
	UpstreamPlatformVersionID *int64 `json:"igdb_platform_version_id"`
}

// IsAll 是否未限定平台
func (s Scope) IsAll() bool {
	return s.PlatformID == nil
}

// ScopeService 作用域解析
type ScopeService struct {
	platforms repository.UserPlatformRepository
	games     repository.GameRepository
}

// NewScopeService 创建作用域服务
func NewScopeService(platforms repository.UserPlatformRepository, games repository.GameRepository) *ScopeService {
	return &ScopeService{platforms: platforms, games: games}
}

// PlatformScope 由本地平台推导上游平台/版本 ID
func (s *ScopeService) PlatformScope(ctx context.Context, localID int64) (Scope, error) {
	platform, err := s.platforms.GetByID(ctx, localID)
	if err != nil {
		return Scope{}, err
	}
	if platform == nil {
		return Scope{}, ErrPlatformNotFound
	}
	return Scope{
		PlatformID:                &platform.ID,
		UpstreamPlatformID:        platform.IGDBPlatformID,
		UpstreamPlatformVersionID: platform.IGDBPlatformVersionID,
	}, nil
}

// Resolve platformID 为 nil 时返回全量作用域
func (s *ScopeService) Resolve(ctx context.Context, platformID *int64) (Scope, error) {
	if platformID == nil {
		return Scope{}, nil
	}
	return s.PlatformScope(ctx, *platformID)
}

// GamesInScope 作用域内的本地游戏 (引用提取的父记录集合)
func (s *ScopeService) GamesInScope(ctx context.Context, scope Scope) ([]model.Game, error) {
	return s.games.ListByPlatform(ctx, scope.PlatformID)
}
