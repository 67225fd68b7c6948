package service

import (
	"context"

	"go.uber.org/zap"

	"igdb_mirror_v1_202610/internal/model"
	"igdb_mirror_v1_202610/internal/repository"
)

// ReferenceSpec 一个引用字段的解析规则
type ReferenceSpec struct {
	Field   string
	Target  model.Kind
	IsArray bool
}

// ResolvedRefs 字段名 -> 解析结果
// 单值字段为 *model.DisplayRef (悬空引用为 nil)，数组字段为 []model.DisplayRef (悬空项被过滤)
type ResolvedRefs map[string]interface{}

// ==================== 引用规则 ====================

var (
	GameReferenceSpecs = []ReferenceSpec{
		{Field: "cover", Target: model.KindCover},
		{Field: "game_type", Target: model.KindGameType},
		{Field: "age_ratings", Target: model.KindAgeRating, IsArray: true},
		{Field: "artworks", Target: model.KindArtwork, IsArray: true},
		{Field: "screenshots", Target: model.KindScreenshot, IsArray: true},
		{Field: "alternative_names", Target: model.KindAlternativeName, IsArray: true},
		{Field: "multiplayer_modes", Target: model.KindMultiplayerMode, IsArray: true},
		{Field: "genres", Target: model.KindGenre, IsArray: true},
		{Field: "franchises", Target: model.KindFranchise, IsArray: true},
		{Field: "game_engines", Target: model.KindEngine, IsArray: true},
		{Field: "companies", Target: model.KindCompany, IsArray: true},
	}

	PlatformReferenceSpecs = []ReferenceSpec{
		{Field: "platform_family", Target: model.KindPlatformFamily},
		{Field: "platform_type", Target: model.KindPlatformType},
		{Field: "platform_logo", Target: model.KindPlatformLogo},
		{Field: "versions", Target: model.KindPlatformVersion, IsArray: true},
	}

	PlatformVersionReferenceSpecs = []ReferenceSpec{
		{Field: "platform_logo", Target: model.KindPlatformLogo},
		{Field: "companies", Target: model.KindCompany, IsArray: true},
	}

	EngineReferenceSpecs = []ReferenceSpec{
		{Field: "companies", Target: model.KindCompany, IsArray: true},
		{Field: "platforms", Target: model.KindPlatform, IsArray: true},
	}

	AgeRatingReferenceSpecs = []ReferenceSpec{
		{Field: "rating_category", Target: model.KindAgeRatingCategory},
	}

	MultiplayerModeReferenceSpecs = []ReferenceSpec{
		{Field: "platform", Target: model.KindPlatform},
	}

	UserPlatformReferenceSpecs = []ReferenceSpec{
		{Field: "igdb_platform_id", Target: model.KindPlatform},
		{Field: "igdb_platform_version_id", Target: model.KindPlatformVersion},
	}
)

// ==================== Resolver ====================

// FinderSource 按类型获取展示值查询器
type FinderSource interface {
	Finder(kind model.Kind) (repository.DisplayFinder, bool)
}

// Resolver 读路径引用解析，无写副作用
type Resolver struct {
	finders FinderSource
}

// NewResolver 创建引用解析器
func NewResolver(finders FinderSource) *Resolver {
	return &Resolver{finders: finders}
}

// Resolve 解析单条记录
func (r *Resolver) Resolve(ctx context.Context, record model.Referencer, specs []ReferenceSpec) (ResolvedRefs, error) {
	out, err := r.ResolveMany(ctx, []model.Referencer{record}, specs)
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// ResolveMany 批量解析
// 1. 收集所有记录各字段的 ID，按目标类型合并
// 2. 每个目标类型一次批量查询，得到 ID -> 展示值
// 3. 按字段回填
func (r *Resolver) ResolveMany(ctx context.Context, records []model.Referencer, specs []ReferenceSpec) ([]ResolvedRefs, error) {
	// parsed[i][field] 第 i 条记录该字段的 ID
	parsed := make([]map[string][]int64, len(records))
	wanted := make(map[model.Kind]map[int64]struct{})

	for i, rec := range records {
		parsed[i] = make(map[string][]int64, len(specs))
		for _, spec := range specs {
			ids, err := ParseIDs(rec.RefValue(spec.Field))
			if err != nil {
				zap.S().Debugf("[Resolver] 字段 %s 无法解析，按空处理: %v", spec.Field, err)
				continue
			}
			parsed[i][spec.Field] = ids

			set, ok := wanted[spec.Target]
			if !ok {
				set = make(map[int64]struct{})
				wanted[spec.Target] = set
			}
			for _, id := range ids {
				set[id] = struct{}{}
			}
		}
	}

	lookup := make(map[model.Kind]map[int64]model.DisplayRef, len(wanted))
	for kind, set := range wanted {
		if len(set) == 0 {
			continue
		}
		finder, ok := r.finders.Finder(kind)
		if !ok {
			continue
		}
		refs, err := finder.DisplayRefs(ctx, sortedIDs(set))
		if err != nil {
			return nil, err
		}
		lookup[kind] = refs
	}

	out := make([]ResolvedRefs, len(records))
	for i := range records {
		resolved := make(ResolvedRefs, len(specs))
		for _, spec := range specs {
			ids := parsed[i][spec.Field]
			refs := lookup[spec.Target]

			if !spec.IsArray {
				var single *model.DisplayRef
				if len(ids) > 0 {
					if ref, ok := refs[ids[0]]; ok {
						single = &ref
					}
				}
				resolved[spec.Field] = single
				continue
			}

			list := make([]model.DisplayRef, 0, len(ids))
			for _, id := range ids {
				if ref, ok := refs[id]; ok {
					list = append(list, ref)
				}
			}
			resolved[spec.Field] = list
		}
		out[i] = resolved
	}
	return out, nil
}
