package service

import (
	"time"

	"igdb_mirror_v1_202610/internal/model"
	"igdb_mirror_v1_202610/pkg/igdb"
)

// 上游 DTO -> 镜像模型
// now 写入 LastSynced；缺省字段保持零值/nil，数组统一编码为有序去重的 JSON

func mirrorBase(id int64, now time.Time) model.MirrorBase {
	return model.MirrorBase{IGDBID: id, LastSynced: now}
}

func imageFields(dto igdb.ImageDTO) model.ImageFields {
	return model.ImageFields{
		ImageID:      dto.ImageID,
		URL:          dto.URL,
		Width:        dto.Width,
		Height:       dto.Height,
		AlphaChannel: dto.AlphaChannel,
		Animated:     dto.Animated,
	}
}

// ==================== 平台 ====================

func ToPlatformModel(dto igdb.PlatformDTO, now time.Time) model.Platform {
	return model.Platform{
		MirrorBase:        mirrorBase(dto.ID, now),
		Name:              dto.Name,
		Abbreviation:      dto.Abbreviation,
		AlternativeName:   dto.AlternativeName,
		Slug:              dto.Slug,
		Summary:           dto.Summary,
		URL:               dto.URL,
		Generation:        dto.Generation,
		PlatformFamily:    dto.PlatformFamily,
		PlatformType:      dto.PlatformType,
		PlatformLogo:      dto.PlatformLogo,
		Versions:          model.IDList(dto.Versions),
		UpstreamUpdatedAt: dto.UpdatedAt,
	}
}

func ToPlatformVersionModel(dto igdb.PlatformVersionDTO, now time.Time) model.PlatformVersion {
	return model.PlatformVersion{
		MirrorBase:   mirrorBase(dto.ID, now),
		Name:         dto.Name,
		Slug:         dto.Slug,
		Summary:      dto.Summary,
		URL:          dto.URL,
		PlatformLogo: dto.PlatformLogo,
		Companies:    model.IDList(dto.Companies),
	}
}

func ToPlatformLogoModel(dto igdb.ImageDTO, now time.Time) model.PlatformLogo {
	return model.PlatformLogo{MirrorBase: mirrorBase(dto.ID, now), ImageFields: imageFields(dto)}
}

func ToPlatformFamilyModel(dto igdb.NamedDTO, now time.Time) model.PlatformFamily {
	return model.PlatformFamily{MirrorBase: mirrorBase(dto.ID, now), Name: dto.Name, Slug: dto.Slug}
}

func ToPlatformTypeModel(dto igdb.NamedDTO, now time.Time) model.PlatformType {
	return model.PlatformType{MirrorBase: mirrorBase(dto.ID, now), Name: dto.Name, UpstreamUpdatedAt: dto.UpdatedAt}
}

// ==================== 公司 / 分类 ====================

func ToCompanyModel(dto igdb.CompanyDTO, now time.Time) model.Company {
	return model.Company{
		MirrorBase:        mirrorBase(dto.ID, now),
		Name:              dto.Name,
		Slug:              dto.Slug,
		Description:       dto.Description,
		Country:           dto.Country,
		URL:               dto.URL,
		StartDate:         dto.StartDate,
		UpstreamUpdatedAt: dto.UpdatedAt,
	}
}

func ToGenreModel(dto igdb.NamedDTO, now time.Time) model.Genre {
	return model.Genre{
		MirrorBase:        mirrorBase(dto.ID, now),
		Name:              dto.Name,
		Slug:              dto.Slug,
		URL:               dto.URL,
		UpstreamUpdatedAt: dto.UpdatedAt,
	}
}

func ToFranchiseModel(dto igdb.NamedDTO, now time.Time) model.Franchise {
	return model.Franchise{
		MirrorBase:        mirrorBase(dto.ID, now),
		Name:              dto.Name,
		Slug:              dto.Slug,
		URL:               dto.URL,
		UpstreamUpdatedAt: dto.UpdatedAt,
	}
}

func ToEngineModel(dto igdb.EngineDTO, now time.Time) model.Engine {
	return model.Engine{
		MirrorBase:        mirrorBase(dto.ID, now),
		Name:              dto.Name,
		Slug:              dto.Slug,
		Description:       dto.Description,
		URL:               dto.URL,
		Companies:         model.IDList(dto.Companies),
		Platforms:         model.IDList(dto.Platforms),
		UpstreamUpdatedAt: dto.UpdatedAt,
	}
}

func ToGameTypeModel(dto igdb.GameTypeDTO, now time.Time) model.GameType {
	return model.GameType{MirrorBase: mirrorBase(dto.ID, now), Type: dto.Type, UpstreamUpdatedAt: dto.UpdatedAt}
}

// ==================== 分级 ====================

func ToAgeRatingCategoryModel(dto igdb.AgeRatingCategoryDTO, now time.Time) model.AgeRatingCategory {
	return model.AgeRatingCategory{
		MirrorBase:        mirrorBase(dto.ID, now),
		Rating:            dto.Rating,
		Organization:      dto.Organization,
		UpstreamUpdatedAt: dto.UpdatedAt,
	}
}

func ToAgeRatingModel(dto igdb.AgeRatingDTO, now time.Time) model.AgeRating {
	return model.AgeRating{
		MirrorBase:          mirrorBase(dto.ID, now),
		Organization:        dto.Organization,
		RatingCategory:      dto.RatingCategory,
		Synopsis:            dto.Synopsis,
		RatingCoverURL:      dto.RatingCoverURL,
		ContentDescriptions: model.IDList(dto.RatingContentDescriptions),
	}
}

// ==================== 游戏附属 ====================

func ToCoverModel(dto igdb.ImageDTO, now time.Time) model.Cover {
	return model.Cover{MirrorBase: mirrorBase(dto.ID, now), ImageFields: imageFields(dto), Game: dto.Game}
}

func ToScreenshotModel(dto igdb.ImageDTO, now time.Time) model.Screenshot {
	return model.Screenshot{MirrorBase: mirrorBase(dto.ID, now), ImageFields: imageFields(dto), Game: dto.Game}
}

func ToArtworkModel(dto igdb.ImageDTO, now time.Time) model.Artwork {
	return model.Artwork{
		MirrorBase:  mirrorBase(dto.ID, now),
		ImageFields: imageFields(dto),
		Game:        dto.Game,
		ArtworkType: dto.ArtworkType,
	}
}

func ToAlternativeNameModel(dto igdb.AlternativeNameDTO, now time.Time) model.AlternativeName {
	return model.AlternativeName{
		MirrorBase: mirrorBase(dto.ID, now),
		Name:       dto.Name,
		Comment:    dto.Comment,
		Game:       dto.Game,
	}
}

func ToMultiplayerModeModel(dto igdb.MultiplayerModeDTO, now time.Time) model.MultiplayerMode {
	return model.MultiplayerMode{
		MirrorBase:        mirrorBase(dto.ID, now),
		Game:              dto.Game,
		Platform:          dto.Platform,
		CampaignCoop:      dto.CampaignCoop,
		DropIn:            dto.DropIn,
		LanCoop:           dto.LanCoop,
		OfflineCoop:       dto.OfflineCoop,
		OfflineCoopMax:    dto.OfflineCoopMax,
		OfflineMax:        dto.OfflineMax,
		OnlineCoop:        dto.OnlineCoop,
		OnlineCoopMax:     dto.OnlineCoopMax,
		OnlineMax:         dto.OnlineMax,
		SplitScreen:       dto.SplitScreen,
		SplitScreenOnline: dto.SplitScreenOnline,
	}
}
