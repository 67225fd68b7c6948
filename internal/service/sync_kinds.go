package service

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"igdb_mirror_v1_202610/internal/model"
	"igdb_mirror_v1_202610/internal/repository"
	"igdb_mirror_v1_202610/pkg/igdb"
)

const (
	ModeBulk = "bulk" // offset 分页拉取整个集合
	ModeIDs  = "ids"  // 由父记录引用推导 ID 集合后按 ID 拉取
)

// kindRun 单次同步的运行态
type kindRun struct {
	scope     Scope
	full      bool
	since     *time.Time
	fetched   int
	result    ReconcileResult
	malformed []*MalformedReferenceError
}

// kindSyncer 单个实体类型的同步与读取
type kindSyncer interface {
	kind() model.Kind
	mode() string
	incremental() bool
	scopeAware() bool
	refSpecs() []ReferenceSpec
	sync(ctx context.Context, s *SyncService, run *kindRun) error
	find(ctx context.Context, key int64) (model.Mirror, error)
	count(ctx context.Context) (int64, error)
}

// entitySyncer D 为上游 DTO，M 为镜像模型
type entitySyncer[D any, M model.Mirror] struct {
	k         model.Kind
	fields    []string
	store     repository.MirrorRepository[M]
	convert   func(D, time.Time) M
	updatedAt bool // 上游带 updated_at，可增量
	specs     []ReferenceSpec

	// sources 非 nil 时为依赖类型：ID 由父记录引用推导
	sources func(ctx context.Context, scope Scope) ([]RefSource, error)
	// scoped 全量类型在平台作用域下的 ID 约束
	scoped func(ctx context.Context, scope Scope) ([]int64, error)
}

func (e *entitySyncer[D, M]) kind() model.Kind { return e.k }

func (e *entitySyncer[D, M]) mode() string {
	if e.sources != nil {
		return ModeIDs
	}
	return ModeBulk
}

func (e *entitySyncer[D, M]) incremental() bool { return e.updatedAt && e.sources == nil }

func (e *entitySyncer[D, M]) scopeAware() bool { return e.sources != nil || e.scoped != nil }

func (e *entitySyncer[D, M]) refSpecs() []ReferenceSpec { return e.specs }

func (e *entitySyncer[D, M]) count(ctx context.Context) (int64, error) { return e.store.Count(ctx) }

func (e *entitySyncer[D, M]) find(ctx context.Context, key int64) (model.Mirror, error) {
	row, err := e.store.FindByKey(ctx, key)
	if err != nil || row == nil {
		return nil, err
	}
	return *row, nil
}

func (e *entitySyncer[D, M]) sync(ctx context.Context, s *SyncService, run *kindRun) error {
	handle := func(items []json.RawMessage) error {
		dtos, err := decodeItems[D](e.k, items)
		if err != nil {
			return err
		}
		now := s.now()
		batch := make([]M, len(dtos))
		for i, d := range dtos {
			batch[i] = e.convert(d, now)
		}
		run.fetched += len(batch)
		run.result.Add(Reconcile(ctx, e.k, e.store, batch, s.reconcileOptions()))
		return nil
	}

	// 依赖类型: 引用提取 -> 减去已同步 -> 按 ID 拉取
	if e.sources != nil {
		sources, err := e.sources(ctx, run.scope)
		if err != nil {
			return err
		}
		set, malformed := ExtractIDs(e.k, sources)
		run.malformed = append(run.malformed, malformed...)

		ids := sortedIDs(set)
		if !run.full {
			if ids, err = MissingIDs(ctx, e.store, set); err != nil {
				return err
			}
		}
		zap.S().Infof("[Sync] %s 父记录 %d 条，引用 %d 个 ID，待拉取 %d 个", e.k, len(sources), len(set), len(ids))
		if len(ids) == 0 {
			return nil
		}
		_, err = s.fetcher.FetchByIDs(ctx, e.k, e.fields, ids, handle)
		return err
	}

	// 全量类型在平台作用域下只拉取相关 ID
	if e.scoped != nil && !run.scope.IsAll() {
		ids, err := e.scoped(ctx, run.scope)
		if err != nil {
			return err
		}
		zap.S().Infof("[Sync] %s 平台作用域内 %d 个 ID", e.k, len(ids))
		if len(ids) == 0 {
			return nil
		}
		_, err = s.fetcher.FetchByIDs(ctx, e.k, e.fields, ids, handle)
		return err
	}

	filter := ""
	if e.incremental() && run.since != nil {
		filter = fmt.Sprintf("updated_at > %d", run.since.Unix())
	}
	_, err := s.fetcher.FetchAll(ctx, e.k, e.fields, filter, handle)
	return err
}

// ==================== 类型注册 ====================

// KindRegistry 全部实体类型的同步器
type KindRegistry struct {
	syncers map[model.Kind]kindSyncer
}

// NewKindRegistry 注册全部实体类型
func NewKindRegistry(repos *repository.CatalogRepositories, scopes *ScopeService) *KindRegistry {
	gameSources := func(field string) func(context.Context, Scope) ([]RefSource, error) {
		return func(ctx context.Context, scope Scope) ([]RefSource, error) {
			games, err := scopes.GamesInScope(ctx, scope)
			if err != nil {
				return nil, err
			}
			return gameRefSources(games, field), nil
		}
	}

	syncers := []kindSyncer{
		&entitySyncer[igdb.NamedDTO, model.PlatformType]{
			k: model.KindPlatformType, fields: igdb.PlatformTypeFields, store: repos.PlatformTypes,
			convert: ToPlatformTypeModel, updatedAt: true,
		},
		&entitySyncer[igdb.NamedDTO, model.PlatformFamily]{
			k: model.KindPlatformFamily, fields: igdb.PlatformFamilyFields, store: repos.PlatformFamilies,
			convert: ToPlatformFamilyModel,
		},
		&entitySyncer[igdb.CompanyDTO, model.Company]{
			k: model.KindCompany, fields: igdb.CompanyFields, store: repos.Companies,
			convert: ToCompanyModel, updatedAt: true,
		},
		&entitySyncer[igdb.NamedDTO, model.Genre]{
			k: model.KindGenre, fields: igdb.GenreFields, store: repos.Genres,
			convert: ToGenreModel, updatedAt: true,
		},
		&entitySyncer[igdb.NamedDTO, model.Franchise]{
			k: model.KindFranchise, fields: igdb.FranchiseFields, store: repos.Franchises,
			convert: ToFranchiseModel, updatedAt: true,
		},
		&entitySyncer[igdb.EngineDTO, model.Engine]{
			k: model.KindEngine, fields: igdb.EngineFields, store: repos.Engines,
			convert: ToEngineModel, updatedAt: true, specs: EngineReferenceSpecs,
		},
		&entitySyncer[igdb.GameTypeDTO, model.GameType]{
			k: model.KindGameType, fields: igdb.GameTypeFields, store: repos.GameTypes,
			convert: ToGameTypeModel, updatedAt: true,
		},
		&entitySyncer[igdb.AgeRatingCategoryDTO, model.AgeRatingCategory]{
			k: model.KindAgeRatingCategory, fields: igdb.AgeRatingCategoryFields, store: repos.AgeRatingCategories,
			convert: ToAgeRatingCategoryModel, updatedAt: true,
		},
		&entitySyncer[igdb.PlatformDTO, model.Platform]{
			k: model.KindPlatform, fields: igdb.PlatformFields, store: repos.Platforms,
			convert: ToPlatformModel, updatedAt: true, specs: PlatformReferenceSpecs,
			scoped: func(_ context.Context, scope Scope) ([]int64, error) {
				if scope.UpstreamPlatformID == nil {
					return nil, nil
				}
				return []int64{*scope.UpstreamPlatformID}, nil
			},
		},
		&entitySyncer[igdb.PlatformVersionDTO, model.PlatformVersion]{
			k: model.KindPlatformVersion, fields: igdb.PlatformVersionFields, store: repos.PlatformVersions,
			convert: ToPlatformVersionModel, specs: PlatformVersionReferenceSpecs,
			scoped: func(ctx context.Context, scope Scope) ([]int64, error) {
				return scopedVersionIDs(ctx, repos, scope)
			},
		},
		&entitySyncer[igdb.ImageDTO, model.PlatformLogo]{
			k: model.KindPlatformLogo, fields: igdb.ImageFields, store: repos.PlatformLogos,
			convert: ToPlatformLogoModel,
			sources: func(ctx context.Context, scope Scope) ([]RefSource, error) {
				return platformLogoSources(ctx, repos, scope)
			},
		},
		&entitySyncer[igdb.AgeRatingDTO, model.AgeRating]{
			k: model.KindAgeRating, fields: igdb.AgeRatingFields, store: repos.AgeRatings,
			convert: ToAgeRatingModel, specs: AgeRatingReferenceSpecs, sources: gameSources("age_ratings"),
		},
		&entitySyncer[igdb.ImageDTO, model.Cover]{
			k: model.KindCover, fields: igdb.GameImageFields, store: repos.Covers,
			convert: ToCoverModel, sources: gameSources("cover"),
		},
		&entitySyncer[igdb.ImageDTO, model.Screenshot]{
			k: model.KindScreenshot, fields: igdb.GameImageFields, store: repos.Screenshots,
			convert: ToScreenshotModel, sources: gameSources("screenshots"),
		},
		&entitySyncer[igdb.ImageDTO, model.Artwork]{
			k: model.KindArtwork, fields: igdb.ArtworkFields, store: repos.Artworks,
			convert: ToArtworkModel, sources: gameSources("artworks"),
		},
		&entitySyncer[igdb.AlternativeNameDTO, model.AlternativeName]{
			k: model.KindAlternativeName, fields: igdb.AlternativeNameFields, store: repos.AlternativeNames,
			convert: ToAlternativeNameModel, sources: gameSources("alternative_names"),
		},
		&entitySyncer[igdb.MultiplayerModeDTO, model.MultiplayerMode]{
			k: model.KindMultiplayerMode, fields: igdb.MultiplayerModeFields, store: repos.MultiplayerModes,
			convert: ToMultiplayerModeModel, specs: MultiplayerModeReferenceSpecs, sources: gameSources("multiplayer_modes"),
		},
	}

	registry := &KindRegistry{syncers: make(map[model.Kind]kindSyncer, len(syncers))}
	for _, s := range syncers {
		registry.syncers[s.kind()] = s
	}
	return registry
}

func (r *KindRegistry) get(kind model.Kind) (kindSyncer, error) {
	s, ok := r.syncers[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	return s, nil
}

// scopedVersionIDs 作用域平台的 versions 加上作用域版本本身
func scopedVersionIDs(ctx context.Context, repos *repository.CatalogRepositories, scope Scope) ([]int64, error) {
	set := make(map[int64]struct{})
	if scope.UpstreamPlatformID != nil {
		platform, err := repos.Platforms.FindByKey(ctx, *scope.UpstreamPlatformID)
		if err != nil {
			return nil, err
		}
		if platform != nil {
			ids, err := ParseIDs(platform.Versions)
			if err != nil {
				zap.S().Warnf("[Sync] 平台 %d 的 versions 无法解析: %v", platform.IGDBID, err)
			}
			for _, id := range ids {
				set[id] = struct{}{}
			}
		}
	}
	if scope.UpstreamPlatformVersionID != nil {
		set[*scope.UpstreamPlatformVersionID] = struct{}{}
	}
	return sortedIDs(set), nil
}

// platformLogoSources 平台与平台版本上的 Logo 引用
func platformLogoSources(ctx context.Context, repos *repository.CatalogRepositories, scope Scope) ([]RefSource, error) {
	var platforms []model.Platform
	var versions []model.PlatformVersion

	if scope.IsAll() {
		var err error
		if platforms, err = repos.Platforms.All(ctx); err != nil {
			return nil, err
		}
		if versions, err = repos.PlatformVersions.All(ctx); err != nil {
			return nil, err
		}
	} else {
		if scope.UpstreamPlatformID != nil {
			p, err := repos.Platforms.FindByKey(ctx, *scope.UpstreamPlatformID)
			if err != nil {
				return nil, err
			}
			if p != nil {
				platforms = append(platforms, *p)
			}
		}
		if scope.UpstreamPlatformVersionID != nil {
			v, err := repos.PlatformVersions.FindByKey(ctx, *scope.UpstreamPlatformVersionID)
			if err != nil {
				return nil, err
			}
			if v != nil {
				versions = append(versions, *v)
			}
		}
	}

	sources := make([]RefSource, 0, len(platforms)+len(versions))
	for _, p := range platforms {
		sources = append(sources, RefSource{OwnerID: p.IGDBID, Field: "platforms.platform_logo", Raw: p.RefValue("platform_logo")})
	}
	for _, v := range versions {
		sources = append(sources, RefSource{OwnerID: v.IGDBID, Field: "platform_versions.platform_logo", Raw: v.RefValue("platform_logo")})
	}
	return sources, nil
}
