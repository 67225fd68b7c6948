package repository

import (
	"context"

	"gorm.io/gorm"

	"igdb_mirror_v1_202610/internal/model"
)

// DisplayFinder 按上游 ID 批量查询展示值 (读路径引用解析使用)
type DisplayFinder interface {
	DisplayRefs(ctx context.Context, keys []int64) (map[int64]model.DisplayRef, error)
}

// CatalogRepositories 全部镜像类型的仓储集合
type CatalogRepositories struct {
	Platforms           MirrorRepository[model.Platform]
	PlatformVersions    MirrorRepository[model.PlatformVersion]
	PlatformLogos       MirrorRepository[model.PlatformLogo]
	PlatformFamilies    MirrorRepository[model.PlatformFamily]
	PlatformTypes       MirrorRepository[model.PlatformType]
	Companies           MirrorRepository[model.Company]
	Genres              MirrorRepository[model.Genre]
	Franchises          MirrorRepository[model.Franchise]
	Engines             MirrorRepository[model.Engine]
	GameTypes           MirrorRepository[model.GameType]
	AgeRatingCategories MirrorRepository[model.AgeRatingCategory]
	AgeRatings          MirrorRepository[model.AgeRating]
	Covers              MirrorRepository[model.Cover]
	Screenshots         MirrorRepository[model.Screenshot]
	Artworks            MirrorRepository[model.Artwork]
	AlternativeNames    MirrorRepository[model.AlternativeName]
	MultiplayerModes    MirrorRepository[model.MultiplayerMode]
}

// NewCatalogRepositories 创建镜像仓储集合
func NewCatalogRepositories(db *gorm.DB) *CatalogRepositories {
	return &CatalogRepositories{
		Platforms:           NewMirrorRepository[model.Platform](db),
		PlatformVersions:    NewMirrorRepository[model.PlatformVersion](db),
		PlatformLogos:       NewMirrorRepository[model.PlatformLogo](db),
		PlatformFamilies:    NewMirrorRepository[model.PlatformFamily](db),
		PlatformTypes:       NewMirrorRepository[model.PlatformType](db),
		Companies:           NewMirrorRepository[model.Company](db),
		Genres:              NewMirrorRepository[model.Genre](db),
		Franchises:          NewMirrorRepository[model.Franchise](db),
		Engines:             NewMirrorRepository[model.Engine](db),
		GameTypes:           NewMirrorRepository[model.GameType](db),
		AgeRatingCategories: NewMirrorRepository[model.AgeRatingCategory](db),
		AgeRatings:          NewMirrorRepository[model.AgeRating](db),
		Covers:              NewMirrorRepository[model.Cover](db),
		Screenshots:         NewMirrorRepository[model.Screenshot](db),
		Artworks:            NewMirrorRepository[model.Artwork](db),
		AlternativeNames:    NewMirrorRepository[model.AlternativeName](db),
		MultiplayerModes:    NewMirrorRepository[model.MultiplayerMode](db),
	}
}

// Finder 返回指定类型的展示值查询器
func (c *CatalogRepositories) Finder(kind model.Kind) (DisplayFinder, bool) {
	var f DisplayFinder
	switch kind {
	case model.KindPlatform:
		f = c.Platforms
	case model.KindPlatformVersion:
		f = c.PlatformVersions
	case model.KindPlatformLogo:
		f = c.PlatformLogos
	case model.KindPlatformFamily:
		f = c.PlatformFamilies
	case model.KindPlatformType:
		f = c.PlatformTypes
	case model.KindCompany:
		f = c.Companies
	case model.KindGenre:
		f = c.Genres
	case model.KindFranchise:
		f = c.Franchises
	case model.KindEngine:
		f = c.Engines
	case model.KindGameType:
		f = c.GameTypes
	case model.KindAgeRatingCategory:
		f = c.AgeRatingCategories
	case model.KindAgeRating:
		f = c.AgeRatings
	case model.KindCover:
		f = c.Covers
	case model.KindScreenshot:
		f = c.Screenshots
	case model.KindArtwork:
		f = c.Artworks
	case model.KindAlternativeName:
		f = c.AlternativeNames
	case model.KindMultiplayerMode:
		f = c.MultiplayerModes
	default:
		return nil, false
	}
	return f, true
}
