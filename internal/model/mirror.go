package model

import (
	"sort"

	"github.com/goccy/go-json"
	"gorm.io/datatypes"
)

// Mirror 所有镜像实体的行为约定
type Mirror interface {
	// UpstreamKey 上游 ID (对账主键)
	UpstreamKey() int64
	// SyncFields 参与对账比较的列 (列名 -> 值)，不含 last_synced
	SyncFields() map[string]interface{}
	// Display 读路径展示字段
	Display() DisplayRef
}

// DisplayRef 引用解析后的展示值
type DisplayRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name,omitempty"`
	URL  string `json:"url,omitempty"`
}

// ImageFields 图片类实体 (封面/截图/原画/平台 Logo) 的公共字段
type ImageFields struct {
	ImageID      string `gorm:"size:64" json:"image_id"`
	URL          string `gorm:"size:512" json:"url"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	AlphaChannel bool   `json:"alpha_channel"`
	Animated     bool   `json:"animated"`
}

func (f ImageFields) syncFields(out map[string]interface{}) map[string]interface{} {
	out["image_id"] = f.ImageID
	out["url"] = f.URL
	out["width"] = f.Width
	out["height"] = f.Height
	out["alpha_channel"] = f.AlphaChannel
	out["animated"] = f.Animated
	return out
}

// IDList 将 ID 数组编码为 JSON 列，输出有序且去重，空数组编码为 []
func IDList(ids []int64) datatypes.JSON {
	if len(ids) == 0 {
		return datatypes.JSON("[]")
	}
	seen := make(map[int64]struct{}, len(ids))
	uniq := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		uniq = append(uniq, id)
	}
	sort.Slice(uniq, func(i, j int) bool { return uniq[i] < uniq[j] })

	b, _ := json.Marshal(uniq)
	return datatypes.JSON(b)
}
