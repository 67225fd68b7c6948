package model

import "gorm.io/datatypes"

// ==================== 平台相关 ====================

// Platform 上游平台镜像
type Platform struct {
	MirrorBase
	Name              string         `gorm:"size:255;index" json:"name"`
	Abbreviation      string         `gorm:"size:64" json:"abbreviation"`
	AlternativeName   string         `gorm:"size:255" json:"alternative_name"`
	Slug              string         `gorm:"size:255" json:"slug"`
	Summary           string         `gorm:"type:text" json:"summary"`
	URL               string         `gorm:"size:512" json:"url"`
	Generation        *int           `json:"generation"`
	PlatformFamily    *int64         `json:"platform_family"`
	PlatformType      *int64         `json:"platform_type"`
	PlatformLogo      *int64         `json:"platform_logo"`
	Versions          datatypes.JSON `gorm:"comment:平台版本ID数组" json:"versions"`
	UpstreamUpdatedAt int64          `gorm:"comment:上游更新时间(unix)" json:"upstream_updated_at"`
}

func (Platform) TableName() string { return "igdb_platforms" }

func (p Platform) SyncFields() map[string]interface{} {
	return map[string]interface{}{
		"name":                p.Name,
		"abbreviation":        p.Abbreviation,
		"alternative_name":    p.AlternativeName,
		"slug":                p.Slug,
		"summary":             p.Summary,
		"url":                 p.URL,
		"generation":          p.Generation,
		"platform_family":     p.PlatformFamily,
		"platform_type":       p.PlatformType,
		"platform_logo":       p.PlatformLogo,
		"versions":            p.Versions,
		"upstream_updated_at": p.UpstreamUpdatedAt,
	}
}

func (p Platform) Display() DisplayRef {
	return DisplayRef{ID: p.IGDBID, Name: p.Name, URL: p.URL}
}

// PlatformVersion 平台版本镜像 (如 SNES 的 PAL/NTSC 版本)
type PlatformVersion struct {
	MirrorBase
	Name         string         `gorm:"size:255" json:"name"`
	Slug         string         `gorm:"size:255" json:"slug"`
	Summary      string         `gorm:"type:text" json:"summary"`
	URL          string         `gorm:"size:512" json:"url"`
	PlatformLogo *int64         `json:"platform_logo"`
	Companies    datatypes.JSON `json:"companies"`
}

func (PlatformVersion) TableName() string { return "igdb_platform_versions" }

func (v PlatformVersion) SyncFields() map[string]interface{} {
	return map[string]interface{}{
		"name":          v.Name,
		"slug":          v.Slug,
		"summary":       v.Summary,
		"url":           v.URL,
		"platform_logo": v.PlatformLogo,
		"companies":     v.Companies,
	}
}

func (v PlatformVersion) Display() DisplayRef {
	return DisplayRef{ID: v.IGDBID, Name: v.Name, URL: v.URL}
}

// PlatformLogo 平台 Logo 镜像
type PlatformLogo struct {
	MirrorBase
	ImageFields `gorm:"embedded"`
}

func (PlatformLogo) TableName() string { return "igdb_platform_logos" }

func (l PlatformLogo) SyncFields() map[string]interface{} {
	return l.ImageFields.syncFields(map[string]interface{}{})
}

func (l PlatformLogo) Display() DisplayRef {
	return DisplayRef{ID: l.IGDBID, URL: l.URL}
}

// PlatformFamily 平台家族 (如 PlayStation)
type PlatformFamily struct {
	MirrorBase
	Name string `gorm:"size:255" json:"name"`
	Slug string `gorm:"size:255" json:"slug"`
}

func (PlatformFamily) TableName() string { return "igdb_platform_families" }

func (f PlatformFamily) SyncFields() map[string]interface{} {
	return map[string]interface{}{"name": f.Name, "slug": f.Slug}
}

func (f PlatformFamily) Display() DisplayRef {
	return DisplayRef{ID: f.IGDBID, Name: f.Name}
}

// PlatformType 平台类型 (主机/掌机/PC ...)
type PlatformType struct {
	MirrorBase
	Name              string `gorm:"size:255" json:"name"`
	UpstreamUpdatedAt int64  `json:"upstream_updated_at"`
}

func (PlatformType) TableName() string { return "igdb_platform_types" }

func (t PlatformType) SyncFields() map[string]interface{} {
	return map[string]interface{}{"name": t.Name, "upstream_updated_at": t.UpstreamUpdatedAt}
}

func (t PlatformType) Display() DisplayRef {
	return DisplayRef{ID: t.IGDBID, Name: t.Name}
}

// ==================== 公司 / 分类 ====================

// Company 公司镜像
type Company struct {
	MirrorBase
	Name              string `gorm:"size:255;index" json:"name"`
	Slug              string `gorm:"size:255" json:"slug"`
	Description       string `gorm:"type:text" json:"description"`
	Country           *int   `json:"country"`
	URL               string `gorm:"size:512" json:"url"`
	StartDate         *int64 `json:"start_date"`
	UpstreamUpdatedAt int64  `json:"upstream_updated_at"`
}

func (Company) TableName() string { return "igdb_companies" }

func (c Company) SyncFields() map[string]interface{} {
	return map[string]interface{}{
		"name":                c.Name,
		"slug":                c.Slug,
		"description":         c.Description,
		"country":             c.Country,
		"url":                 c.URL,
		"start_date":          c.StartDate,
		"upstream_updated_at": c.UpstreamUpdatedAt,
	}
}

func (c Company) Display() DisplayRef {
	return DisplayRef{ID: c.IGDBID, Name: c.Name, URL: c.URL}
}

// Genre 游戏类型镜像
type Genre struct {
	MirrorBase
	Name              string `gorm:"size:255" json:"name"`
	Slug              string `gorm:"size:255" json:"slug"`
	URL               string `gorm:"size:512" json:"url"`
	UpstreamUpdatedAt int64  `json:"upstream_updated_at"`
}

func (Genre) TableName() string { return "igdb_genres" }

func (g Genre) SyncFields() map[string]interface{} {
	return map[string]interface{}{
		"name":                g.Name,
		"slug":                g.Slug,
		"url":                 g.URL,
		"upstream_updated_at": g.UpstreamUpdatedAt,
	}
}

func (g Genre) Display() DisplayRef {
	return DisplayRef{ID: g.IGDBID, Name: g.Name, URL: g.URL}
}

// Franchise 系列镜像
type Franchise struct {
	MirrorBase
	Name              string `gorm:"size:255" json:"name"`
	Slug              string `gorm:"size:255" json:"slug"`
	URL               string `gorm:"size:512" json:"url"`
	UpstreamUpdatedAt int64  `json:"upstream_updated_at"`
}

func (Franchise) TableName() string { return "igdb_franchises" }

func (f Franchise) SyncFields() map[string]interface{} {
	return map[string]interface{}{
		"name":                f.Name,
		"slug":                f.Slug,
		"url":                 f.URL,
		"upstream_updated_at": f.UpstreamUpdatedAt,
	}
}

func (f Franchise) Display() DisplayRef {
	return DisplayRef{ID: f.IGDBID, Name: f.Name, URL: f.URL}
}

// Engine 游戏引擎镜像
type Engine struct {
	MirrorBase
	Name              string         `gorm:"size:255" json:"name"`
	Slug              string         `gorm:"size:255" json:"slug"`
	Description       string         `gorm:"type:text" json:"description"`
	URL               string         `gorm:"size:512" json:"url"`
	Companies         datatypes.JSON `json:"companies"`
	Platforms         datatypes.JSON `json:"platforms"`
	UpstreamUpdatedAt int64          `json:"upstream_updated_at"`
}

func (Engine) TableName() string { return "igdb_game_engines" }

func (e Engine) SyncFields() map[string]interface{} {
	return map[string]interface{}{
		"name":                e.Name,
		"slug":                e.Slug,
		"description":         e.Description,
		"url":                 e.URL,
		"companies":           e.Companies,
		"platforms":           e.Platforms,
		"upstream_updated_at": e.UpstreamUpdatedAt,
	}
}

func (e Engine) Display() DisplayRef {
	return DisplayRef{ID: e.IGDBID, Name: e.Name, URL: e.URL}
}

// GameType 游戏条目类型 (本体/DLC/合集 ...)
type GameType struct {
	MirrorBase
	Type              string `gorm:"size:128" json:"type"`
	UpstreamUpdatedAt int64  `json:"upstream_updated_at"`
}

func (GameType) TableName() string { return "igdb_game_types" }

func (t GameType) SyncFields() map[string]interface{} {
	return map[string]interface{}{"type": t.Type, "upstream_updated_at": t.UpstreamUpdatedAt}
}

func (t GameType) Display() DisplayRef {
	return DisplayRef{ID: t.IGDBID, Name: t.Type}
}

// ==================== 分级 ====================

// AgeRatingCategory 分级类别 (如 ESRB E / PEGI 12)
type AgeRatingCategory struct {
	MirrorBase
	Rating            string `gorm:"size:64" json:"rating"`
	Organization      *int64 `json:"organization"`
	UpstreamUpdatedAt int64  `json:"upstream_updated_at"`
}

func (AgeRatingCategory) TableName() string { return "igdb_age_rating_categories" }

func (c AgeRatingCategory) SyncFields() map[string]interface{} {
	return map[string]interface{}{
		"rating":              c.Rating,
		"organization":        c.Organization,
		"upstream_updated_at": c.UpstreamUpdatedAt,
	}
}

func (c AgeRatingCategory) Display() DisplayRef {
	return DisplayRef{ID: c.IGDBID, Name: c.Rating}
}

// AgeRating 游戏分级
type AgeRating struct {
	MirrorBase
	Organization        *int64         `json:"organization"`
	RatingCategory      *int64         `json:"rating_category"`
	Synopsis            string         `gorm:"type:text" json:"synopsis"`
	RatingCoverURL      string         `gorm:"size:512" json:"rating_cover_url"`
	ContentDescriptions datatypes.JSON `json:"rating_content_descriptions"`
}

func (AgeRating) TableName() string { return "igdb_age_ratings" }

func (r AgeRating) SyncFields() map[string]interface{} {
	return map[string]interface{}{
		"organization":         r.Organization,
		"rating_category":      r.RatingCategory,
		"synopsis":             r.Synopsis,
		"rating_cover_url":     r.RatingCoverURL,
		"content_descriptions": r.ContentDescriptions,
	}
}

func (r AgeRating) Display() DisplayRef {
	return DisplayRef{ID: r.IGDBID, Name: r.Synopsis, URL: r.RatingCoverURL}
}

// ==================== 游戏附属 ====================

// Cover 封面
type Cover struct {
	MirrorBase
	ImageFields `gorm:"embedded"`
	Game        *int64 `gorm:"index" json:"game"`
}

func (Cover) TableName() string { return "igdb_covers" }

func (c Cover) SyncFields() map[string]interface{} {
	return c.ImageFields.syncFields(map[string]interface{}{"game": c.Game})
}

func (c Cover) Display() DisplayRef {
	return DisplayRef{ID: c.IGDBID, URL: c.URL}
}

// Screenshot 截图
type Screenshot struct {
	MirrorBase
	ImageFields `gorm:"embedded"`
	Game        *int64 `gorm:"index" json:"game"`
}

func (Screenshot) TableName() string { return "igdb_screenshots" }

func (s Screenshot) SyncFields() map[string]interface{} {
	return s.ImageFields.syncFields(map[string]interface{}{"game": s.Game})
}

func (s Screenshot) Display() DisplayRef {
	return DisplayRef{ID: s.IGDBID, URL: s.URL}
}

// Artwork 原画
type Artwork struct {
	MirrorBase
	ImageFields `gorm:"embedded"`
	Game        *int64 `gorm:"index" json:"game"`
	ArtworkType *int64 `json:"artwork_type"`
}

func (Artwork) TableName() string { return "igdb_artworks" }

func (a Artwork) SyncFields() map[string]interface{} {
	return a.ImageFields.syncFields(map[string]interface{}{
		"game":         a.Game,
		"artwork_type": a.ArtworkType,
	})
}

func (a Artwork) Display() DisplayRef {
	return DisplayRef{ID: a.IGDBID, URL: a.URL}
}

// AlternativeName 别名
type AlternativeName struct {
	MirrorBase
	Name    string `gorm:"size:255" json:"name"`
	Comment string `gorm:"size:255" json:"comment"`
	Game    *int64 `gorm:"index" json:"game"`
}

func (AlternativeName) TableName() string { return "igdb_alternative_names" }

func (n AlternativeName) SyncFields() map[string]interface{} {
	return map[string]interface{}{"name": n.Name, "comment": n.Comment, "game": n.Game}
}

func (n AlternativeName) Display() DisplayRef {
	return DisplayRef{ID: n.IGDBID, Name: n.Name}
}

// MultiplayerMode 多人模式
type MultiplayerMode struct {
	MirrorBase
	Game              *int64 `gorm:"index" json:"game"`
	Platform          *int64 `json:"platform"`
	CampaignCoop      bool   `json:"campaigncoop"`
	DropIn            bool   `json:"dropin"`
	LanCoop           bool   `json:"lancoop"`
	OfflineCoop       bool   `json:"offlinecoop"`
	OfflineCoopMax    int    `json:"offlinecoopmax"`
	OfflineMax        int    `json:"offlinemax"`
	OnlineCoop        bool   `json:"onlinecoop"`
	OnlineCoopMax     int    `json:"onlinecoopmax"`
	OnlineMax         int    `json:"onlinemax"`
	SplitScreen       bool   `json:"splitscreen"`
	SplitScreenOnline bool   `json:"splitscreenonline"`
}

func (MultiplayerMode) TableName() string { return "igdb_multiplayer_modes" }

func (m MultiplayerMode) SyncFields() map[string]interface{} {
	return map[string]interface{}{
		"game":                m.Game,
		"platform":            m.Platform,
		"campaign_coop":       m.CampaignCoop,
		"drop_in":             m.DropIn,
		"lan_coop":            m.LanCoop,
		"offline_coop":        m.OfflineCoop,
		"offline_coop_max":    m.OfflineCoopMax,
		"offline_max":         m.OfflineMax,
		"online_coop":         m.OnlineCoop,
		"online_coop_max":     m.OnlineCoopMax,
		"online_max":          m.OnlineMax,
		"split_screen":        m.SplitScreen,
		"split_screen_online": m.SplitScreenOnline,
	}
}

func (m MultiplayerMode) Display() DisplayRef {
	return DisplayRef{ID: m.IGDBID}
}

// MirrorModels 全部镜像表 (用于 AutoMigrate)
func MirrorModels() []interface{} {
	return []interface{}{
		&Platform{}, &PlatformVersion{}, &PlatformLogo{}, &PlatformFamily{}, &PlatformType{},
		&Company{}, &Genre{}, &Franchise{}, &Engine{}, &GameType{},
		&AgeRatingCategory{}, &AgeRating{},
		&Cover{}, &Screenshot{}, &Artwork{}, &AlternativeName{}, &MultiplayerMode{},
	}
}
