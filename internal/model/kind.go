package model

// Kind 上游实体类型，取值即上游 endpoint 名称
type Kind string

const (
	KindPlatformType      Kind = "platform_types"
	KindPlatformFamily    Kind = "platform_families"
	KindCompany           Kind = "companies"
	KindGenre             Kind = "genres"
	KindFranchise         Kind = "franchises"
	KindEngine            Kind = "game_engines"
	KindGameType          Kind = "game_types"
	KindAgeRatingCategory Kind = "age_rating_categories"
	KindPlatform          Kind = "platforms"
	KindPlatformVersion   Kind = "platform_versions"
	KindPlatformLogo      Kind = "platform_logos"
	KindAgeRating         Kind = "age_ratings"
	KindCover             Kind = "covers"
	KindScreenshot        Kind = "screenshots"
	KindArtwork           Kind = "artworks"
	KindAlternativeName   Kind = "alternative_names"
	KindMultiplayerMode   Kind = "multiplayer_modes"
)

// syncOrder 同步顺序：父类型先于子类型
// 子类型的引用提取会读取父类型的镜像表
var syncOrder = []Kind{
	KindPlatformType,
	KindPlatformFamily,
	KindCompany,
	KindGenre,
	KindFranchise,
	KindEngine,
	KindGameType,
	KindAgeRatingCategory,
	KindPlatform,
	KindPlatformVersion,
	KindPlatformLogo,
	KindAgeRating,
	KindCover,
	KindScreenshot,
	KindArtwork,
	KindAlternativeName,
	KindMultiplayerMode,
}

// SyncOrder 返回全部类型 (按依赖顺序)
func SyncOrder() []Kind {
	return append([]Kind(nil), syncOrder...)
}

// ParseKind 解析类型名称
func ParseKind(s string) (Kind, bool) {
	for _, k := range syncOrder {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// Endpoint 上游接口路径
func (k Kind) Endpoint() string {
	return string(k)
}

func (k Kind) String() string {
	return string(k)
}
