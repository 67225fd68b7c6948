package igdb

// ==========================================
// DTO: 用于接收 IGDB API 返回的原始 JSON 数据
// 可选字段使用指针，缺省即 null
// ==========================================

// PlatformDTO POST /platforms
type PlatformDTO struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	Abbreviation    string  `json:"abbreviation"`
	AlternativeName string  `json:"alternative_name"`
	Slug            string  `json:"slug"`
	Summary         string  `json:"summary"`
	URL             string  `json:"url"`
	Generation      *int    `json:"generation"`
	PlatformFamily  *int64  `json:"platform_family"`
	PlatformType    *int64  `json:"platform_type"`
	PlatformLogo    *int64  `json:"platform_logo"`
	Versions        []int64 `json:"versions"`
	UpdatedAt       int64   `json:"updated_at"`
}

var PlatformFields = []string{
	"name", "abbreviation", "alternative_name", "slug", "summary", "url", "generation",
	"platform_family", "platform_type", "platform_logo", "versions", "updated_at",
}

// PlatformVersionDTO POST /platform_versions
type PlatformVersionDTO struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Slug         string  `json:"slug"`
	Summary      string  `json:"summary"`
	URL          string  `json:"url"`
	PlatformLogo *int64  `json:"platform_logo"`
	Companies    []int64 `json:"companies"`
}

var PlatformVersionFields = []string{"name", "slug", "summary", "url", "platform_logo", "companies"}

// ImageDTO 图片类公共字段 (covers / screenshots / artworks / platform_logos)
type ImageDTO struct {
	ID           int64  `json:"id"`
	ImageID      string `json:"image_id"`
	URL          string `json:"url"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	AlphaChannel bool   `json:"alpha_channel"`
	Animated     bool   `json:"animated"`
	Game         *int64 `json:"game"`
	ArtworkType  *int64 `json:"artwork_type"`
}

var (
	ImageFields     = []string{"image_id", "url", "width", "height", "alpha_channel", "animated"}
	GameImageFields = append(append([]string{}, ImageFields...), "game")
	ArtworkFields   = append(append([]string{}, ImageFields...), "game", "artwork_type")
)

// NamedDTO 只有名称/slug/url 的简单类型 (genres / franchises / platform_families / platform_types)
type NamedDTO struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	URL       string `json:"url"`
	UpdatedAt int64  `json:"updated_at"`
}

var (
	GenreFields          = []string{"name", "slug", "url", "updated_at"}
	FranchiseFields      = []string{"name", "slug", "url", "updated_at"}
	PlatformFamilyFields = []string{"name", "slug"}
	PlatformTypeFields   = []string{"name", "updated_at"}
)

// CompanyDTO POST /companies
type CompanyDTO struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Country     *int   `json:"country"`
	URL         string `json:"url"`
	StartDate   *int64 `json:"start_date"`
	UpdatedAt   int64  `json:"updated_at"`
}

var CompanyFields = []string{"name", "slug", "description", "country", "url", "start_date", "updated_at"}

// EngineDTO POST /game_engines
type EngineDTO struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	Description string  `json:"description"`
	URL         string  `json:"url"`
	Companies   []int64 `json:"companies"`
	Platforms   []int64 `json:"platforms"`
	UpdatedAt   int64   `json:"updated_at"`
}

var EngineFields = []string{"name", "slug", "description", "url", "companies", "platforms", "updated_at"}

// GameTypeDTO POST /game_types
type GameTypeDTO struct {
	ID        int64  `json:"id"`
	Type      string `json:"type"`
	UpdatedAt int64  `json:"updated_at"`
}

var GameTypeFields = []string{"type", "updated_at"}

// AgeRatingCategoryDTO POST /age_rating_categories
type AgeRatingCategoryDTO struct {
	ID           int64  `json:"id"`
	Rating       string `json:"rating"`
	Organization *int64 `json:"organization"`
	UpdatedAt    int64  `json:"updated_at"`
}

var AgeRatingCategoryFields = []string{"rating", "organization", "updated_at"}

// AgeRatingDTO POST /age_ratings
type AgeRatingDTO struct {
	ID                        int64   `json:"id"`
	Organization              *int64  `json:"organization"`
	RatingCategory            *int64  `json:"rating_category"`
	Synopsis                  string  `json:"synopsis"`
	RatingCoverURL            string  `json:"rating_cover_url"`
	RatingContentDescriptions []int64 `json:"rating_content_descriptions"`
}

var AgeRatingFields = []string{
	"organization", "rating_category", "synopsis", "rating_cover_url", "rating_content_descriptions",
}

// AlternativeNameDTO POST /alternative_names
type AlternativeNameDTO struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Comment string `json:"comment"`
	Game    *int64 `json:"game"`
}

var AlternativeNameFields = []string{"name", "comment", "game"}

// MultiplayerModeDTO POST /multiplayer_modes
type MultiplayerModeDTO struct {
	ID                int64  `json:"id"`
	Game              *int64 `json:"game"`
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

var MultiplayerModeFields = []string{
	"game", "platform", "campaigncoop", "dropin", "lancoop", "offlinecoop", "offlinecoopmax",
	"offlinemax", "onlinecoop", "onlinecoopmax", "onlinemax", "splitscreen", "splitscreenonline",
}
