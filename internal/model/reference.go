package model

import (
	"strconv"

	"gorm.io/datatypes"
)

// Referencer 持有引用字段的记录
// RefValue 返回字段的原始值：单值编码为数字，数组为 JSON 数组，缺省为 null
type Referencer interface {
	RefValue(field string) datatypes.JSON
}

// SingleRef 将单值引用编码为 JSON
func SingleRef(id *int64) datatypes.JSON {
	if id == nil {
		return datatypes.JSON("null")
	}
	return datatypes.JSON(strconv.FormatInt(*id, 10))
}

func (g Game) RefValue(field string) datatypes.JSON {
	switch field {
	case "cover":
		return SingleRef(g.Cover)
	case "game_type":
		return SingleRef(g.GameType)
	case "age_ratings":
		return g.AgeRatings
	case "artworks":
		return g.Artworks
	case "screenshots":
		return g.Screenshots
	case "alternative_names":
		return g.AlternativeNames
	case "multiplayer_modes":
		return g.MultiplayerModes
	case "genres":
		return g.Genres
	case "franchises":
		return g.Franchises
	case "game_engines":
		return g.GameEngines
	case "companies":
		return g.Companies
	}
	return nil
}

func (p Platform) RefValue(field string) datatypes.JSON {
	switch field {
	case "platform_family":
		return SingleRef(p.PlatformFamily)
	case "platform_type":
		return SingleRef(p.PlatformType)
	case "platform_logo":
		return SingleRef(p.PlatformLogo)
	case "versions":
		return p.Versions
	}
	return nil
}

func (v PlatformVersion) RefValue(field string) datatypes.JSON {
	switch field {
	case "platform_logo":
		return SingleRef(v.PlatformLogo)
	case "companies":
		return v.Companies
	}
	return nil
}

func (e Engine) RefValue(field string) datatypes.JSON {
	switch field {
	case "companies":
		return e.Companies
	case "platforms":
		return e.Platforms
	}
	return nil
}

func (r AgeRating) RefValue(field string) datatypes.JSON {
	if field == "rating_category" {
		return SingleRef(r.RatingCategory)
	}
	return nil
}

func (m MultiplayerMode) RefValue(field string) datatypes.JSON {
	if field == "platform" {
		return SingleRef(m.Platform)
	}
	return nil
}

func (p UserPlatform) RefValue(field string) datatypes.JSON {
	switch field {
	case "igdb_platform_id":
		return SingleRef(p.IGDBPlatformID)
	case "igdb_platform_version_id":
		return SingleRef(p.IGDBPlatformVersionID)
	}
	return nil
}
