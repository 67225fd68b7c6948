package service

import (
	"context"
	"fmt"

	"igdb_mirror_v1_202610/internal/model"
	"igdb_mirror_v1_202610/internal/repository"
)

// CatalogRecord 镜像记录及其解析后的引用
type CatalogRecord struct {
	Kind   model.Kind   `json:"kind"`
	Record model.Mirror `json:"record"`
	Refs   ResolvedRefs `json:"refs"`
}

// GameView 本地游戏 + 引用
type GameView struct {
	model.Game
	Refs ResolvedRefs `json:"refs"`
}

// UserPlatformView 本地平台 + 引用
type UserPlatformView struct {
	model.UserPlatform
	Refs ResolvedRefs `json:"refs"`
}

// CatalogService 读路径
// 引用统一走 Resolver 批量解析，列表接口每个目标类型只查一次
type CatalogService struct {
	registry *KindRegistry
	resolver *Resolver
	users    repository.UserPlatformRepository
	games    repository.GameRepository
}

// NewCatalogService 创建目录查询服务
func NewCatalogService(
	registry *KindRegistry,
	resolver *Resolver,
	users repository.UserPlatformRepository,
	games repository.GameRepository,
) *CatalogService {
	return &CatalogService{
		registry: registry,
		resolver: resolver,
		users:    users,
		games:    games,
	}
}

// GetRecord 按上游 ID 查询任意类型的镜像记录
func (s *CatalogService) GetRecord(ctx context.Context, kind model.Kind, igdbID int64) (*CatalogRecord, error) {
	syncer, err := s.registry.get(kind)
	if err != nil {
		return nil, err
	}

	record, err := syncer.find(ctx, igdbID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, fmt.Errorf("%w: %s/%d", ErrRecordNotFound, kind, igdbID)
	}

	out := &CatalogRecord{Kind: kind, Record: record, Refs: ResolvedRefs{}}
	specs := syncer.refSpecs()
	if referencer, ok := record.(model.Referencer); ok && len(specs) > 0 {
		refs, err := s.resolver.Resolve(ctx, referencer, specs)
		if err != nil {
			return nil, err
		}
		out.Refs = refs
	}
	return out, nil
}

// GetPlatform 平台详情 (家族/类型/Logo/版本)
func (s *CatalogService) GetPlatform(ctx context.Context, igdbID int64) (*CatalogRecord, error) {
	return s.GetRecord(ctx, model.KindPlatform, igdbID)
}

// ListGames 本地游戏列表，platformID 为空返回全部
func (s *CatalogService) ListGames(ctx context.Context, platformID *int64) ([]GameView, error) {
	games, err := s.games.ListByPlatform(ctx, platformID)
	if err != nil {
		return nil, err
	}

	records := make([]model.Referencer, len(games))
	for i := range games {
		records[i] = games[i]
	}
	refs, err := s.resolver.ResolveMany(ctx, records, GameReferenceSpecs)
	if err != nil {
		return nil, err
	}

	views := make([]GameView, len(games))
	for i := range games {
		views[i] = GameView{Game: games[i], Refs: refs[i]}
	}
	return views, nil
}

// ListUserPlatforms 本地平台列表
func (s *CatalogService) ListUserPlatforms(ctx context.Context) ([]UserPlatformView, error) {
	platforms, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]model.Referencer, len(platforms))
	for i := range platforms {
		records[i] = platforms[i]
	}
	refs, err := s.resolver.ResolveMany(ctx, records, UserPlatformReferenceSpecs)
	if err != nil {
		return nil, err
	}

	views := make([]UserPlatformView, len(platforms))
	for i := range platforms {
		views[i] = UserPlatformView{UserPlatform: platforms[i], Refs: refs[i]}
	}
	return views, nil
}
