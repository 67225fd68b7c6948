package model

import "gorm.io/datatypes"

// UserPlatform 本地用户拥有/追踪的平台
// 由本地维护，不参与上游同步；仅持有上游平台与版本的引用
type UserPlatform struct {
	BaseModel
	Name                  string `gorm:"size:255;not null" json:"name"`
	IGDBPlatformID        *int64 `gorm:"column:igdb_platform_id;index" json:"igdb_platform_id"`
	IGDBPlatformVersionID *int64 `gorm:"column:igdb_platform_version_id" json:"igdb_platform_version_id"`
}

func (UserPlatform) TableName() string { return "user_platforms" }

// Game 本地游戏条目
// 引用字段保存上游 ID (单值或 JSON 数组)，是依赖类型同步的 ID 来源
type Game struct {
	BaseModel
	Title      string `gorm:"size:255;not null" json:"title"`
	PlatformID int64  `gorm:"index;comment:本地平台ID" json:"platform_id"`
	IGDBID     *int64 `gorm:"column:igdb_id;index" json:"igdb_id"`

	Cover            *int64         `json:"cover"`
	GameType         *int64         `json:"game_type"`
	AgeRatings       datatypes.JSON `json:"age_ratings"`
	Artworks         datatypes.JSON `json:"artworks"`
	Screenshots      datatypes.JSON `json:"screenshots"`
	AlternativeNames datatypes.JSON `json:"alternative_names"`
	MultiplayerModes datatypes.JSON `json:"multiplayer_modes"`
	Genres           datatypes.JSON `json:"genres"`
	Franchises       datatypes.JSON `json:"franchises"`
	GameEngines      datatypes.JSON `json:"game_engines"`
	Companies        datatypes.JSON `json:"companies"`
}

func (Game) TableName() string { return "games" }
