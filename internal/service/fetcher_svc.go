package service

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"igdb_mirror_v1_202610/internal/model"
	"igdb_mirror_v1_202610/pkg/igdb"
)

// PageHandler 每页/每批结果回调，返回 error 时中止拉取
type PageHandler func(items []json.RawMessage) error

// MinRequestDelay 同一次拉取内相邻请求的最小间隔
const MinRequestDelay = 250 * time.Millisecond

// FetcherConfig 拉取配置
type FetcherConfig struct {
	PageSize int           // 每页条数，上限 500
	Delay    time.Duration // 相邻两次请求的间隔，不低于 MinRequestDelay
}

// Fetcher 分页拉取器
// 同一次拉取内的请求严格串行，两次请求之间固定等待 Delay，最后一次请求后不等待
type Fetcher struct {
	client   CatalogClient
	pageSize int
	delay    time.Duration
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewFetcher 创建拉取器
func NewFetcher(client CatalogClient, cfg FetcherConfig) *Fetcher {
	if cfg.PageSize <= 0 || cfg.PageSize > igdb.MaxLimit {
		cfg.PageSize = igdb.MaxLimit
	}
	if cfg.Delay < MinRequestDelay {
		cfg.Delay = MinRequestDelay
	}
	return &Fetcher{
		client:   client,
		pageSize: cfg.PageSize,
		delay:    cfg.Delay,
		sleep:    sleepCtx,
	}
}

// FetchAll 按 offset 分页拉取整个集合
// 返回的页长度小于 pageSize 即结束；等于 pageSize 时必须再请求一次
func (f *Fetcher) FetchAll(ctx context.Context, kind model.Kind, fields []string, filter string, handle PageHandler) (int, error) {
	total := 0
	for offset, requests := 0, 0; ; offset, requests = offset+f.pageSize, requests+1 {
		if requests > 0 {
			if err := f.sleep(ctx, f.delay); err != nil {
				return total, err
			}
		}

		body := igdb.NewQuery(fields...).
			Where(filter).
			Sort("id asc").
			Limit(f.pageSize).
			Offset(offset).
			String()

		items, err := f.client.Query(ctx, kind, body)
		if err != nil {
			return total, err
		}
		total += len(items)
		zap.S().Debugf("[Fetcher] %s offset=%d 返回 %d 条", kind, offset, len(items))

		if len(items) > 0 {
			if err := handle(items); err != nil {
				return total, err
			}
		}
		if len(items) < f.pageSize {
			return total, nil
		}
	}
}

// FetchByIDs 按 ID 集合拉取，每批最多 500 个 ID
func (f *Fetcher) FetchByIDs(ctx context.Context, kind model.Kind, fields []string, ids []int64, handle PageHandler) (int, error) {
	total := 0
	for i, chunk := range chunkIDs(ids, igdb.MaxLimit) {
		if i > 0 {
			if err := f.sleep(ctx, f.delay); err != nil {
				return total, err
			}
		}

		body := igdb.NewQuery(fields...).
			WhereIDs(chunk).
			Limit(len(chunk)).
			String()

		items, err := f.client.Query(ctx, kind, body)
		if err != nil {
			return total, err
		}
		total += len(items)
		zap.S().Debugf("[Fetcher] %s 第 %d 批 请求 %d 个 ID，返回 %d 条", kind, i+1, len(chunk), len(items))

		if len(items) > 0 {
			if err := handle(items); err != nil {
				return total, err
			}
		}
	}
	return total, nil
}

// CollectAll 拉取整个集合并返回全部元素
func (f *Fetcher) CollectAll(ctx context.Context, kind model.Kind, fields []string, filter string) ([]json.RawMessage, error) {
	var all []json.RawMessage
	_, err := f.FetchAll(ctx, kind, fields, filter, func(items []json.RawMessage) error {
		all = append(all, items...)
		return nil
	})
	return all, err
}

// ==================== 辅助函数 ====================

// sleepCtx 可被取消的等待
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func chunkIDs(ids []int64, size int) [][]int64 {
	if len(ids) == 0 {
		return nil
	}
	chunks := make([][]int64, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}

// decodeItems 解码一页上游数据；任一元素无法解码则整页不可信
func decodeItems[D any](kind model.Kind, items []json.RawMessage) ([]D, error) {
	out := make([]D, 0, len(items))
	for _, raw := range items {
		var d D
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, &UpstreamFetchError{Kind: kind, Status: 200, Body: "undecodable record: " + err.Error()}
		}
		out = append(out, d)
	}
	return out, nil
}
