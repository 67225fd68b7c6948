package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"igdb_mirror_v1_202610/internal/model"
)

var errNonPositiveID = errors.New("non-positive id")

// RefSource 一条父记录的一个引用字段
type RefSource struct {
	OwnerID int64
	Field   string
	Raw     datatypes.JSON
}

// KeyChecker 查询已存在于镜像表的 key
type KeyChecker interface {
	ExistingKeys(ctx context.Context, keys []int64) ([]int64, error)
}

// ParseIDs 解析引用字段
// 接受: null / 空、单个数字、数字数组、{"id": n} 对象数组，以及被再次编码成字符串的上述形式
func ParseIDs(raw datatypes.JSON) ([]int64, error) {
	return parseIDs(bytes.TrimSpace(raw), true)
}

func parseIDs(raw []byte, allowQuoted bool) ([]int64, error) {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	switch raw[0] {
	case '"':
		if !allowQuoted {
			return nil, fmt.Errorf("nested string reference %s", truncate(string(raw), 64))
		}
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, err
		}
		return parseIDs(bytes.TrimSpace([]byte(inner)), false)

	case '[':
		var ids []int64
		if err := json.Unmarshal(raw, &ids); err == nil {
			return validIDs(ids)
		}
		var objs []struct {
			ID *int64 `json:"id"`
		}
		if err := json.Unmarshal(raw, &objs); err != nil {
			return nil, err
		}
		ids = make([]int64, 0, len(objs))
		for _, o := range objs {
			if o.ID == nil {
				return nil, errors.New("reference object without id")
			}
			ids = append(ids, *o.ID)
		}
		return validIDs(ids)

	default:
		var id int64
		if err := json.Unmarshal(raw, &id); err != nil {
			return nil, err
		}
		return validIDs([]int64{id})
	}
}

func validIDs(ids []int64) ([]int64, error) {
	for _, id := range ids {
		if id <= 0 {
			return nil, errNonPositiveID
		}
	}
	return ids, nil
}

// ExtractIDs 合并全部父记录引用的 ID
// 单条记录解析失败只跳过该记录，错误随结果返回
func ExtractIDs(kind model.Kind, sources []RefSource) (map[int64]struct{}, []*MalformedReferenceError) {
	set := make(map[int64]struct{})
	var malformed []*MalformedReferenceError

	for _, src := range sources {
		ids, err := ParseIDs(src.Raw)
		if err != nil {
			malformed = append(malformed, &MalformedReferenceError{
				Kind:    kind,
				OwnerID: src.OwnerID,
				Field:   src.Field,
				Err:     err,
			})
			zap.S().Warnf("[RefExtractor] 记录 %d 的 %s 无法解析，已跳过: %v", src.OwnerID, src.Field, err)
			continue
		}
		for _, id := range ids {
			set[id] = struct{}{}
		}
	}
	return set, malformed
}

// MissingIDs 从 ID 集合中减去镜像表已有的部分，结果升序
func MissingIDs(ctx context.Context, checker KeyChecker, set map[int64]struct{}) ([]int64, error) {
	ids := sortedIDs(set)
	if len(ids) == 0 {
		return nil, nil
	}

	existing, err := checker.ExistingKeys(ctx, ids)
	if err != nil {
		return nil, err
	}
	have := make(map[int64]struct{}, len(existing))
	for _, id := range existing {
		have[id] = struct{}{}
	}

	missing := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := have[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func sortedIDs(set map[int64]struct{}) []int64 {
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// gameRefSources 提取本地游戏的某个引用字段
func gameRefSources(games []model.Game, field string) []RefSource {
	sources := make([]RefSource, 0, len(games))
	for _, g := range games {
		sources = append(sources, RefSource{OwnerID: g.ID, Field: "games." + field, Raw: g.RefValue(field)})
	}
	return sources
}
