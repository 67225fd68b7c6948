package service

import (
	"bytes"
	"context"
	"reflect"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"igdb_mirror_v1_202610/internal/model"
	"igdb_mirror_v1_202610/internal/repository"
)

// ReconcileOptions 对账参数
type ReconcileOptions struct {
	SubBatchSize int // 单次写入的最大记录数 (<=100)
	Concurrency  int // 子批次内并行更新数
	Now          func() time.Time
}

// ReconcileResult 对账结果
type ReconcileResult struct {
	Created   int
	Updated   int
	Unchanged int
	Failed    int
	Errors    []error
}

// Add 累加另一批结果
func (r *ReconcileResult) Add(o ReconcileResult) {
	r.Created += o.Created
	r.Updated += o.Updated
	r.Unchanged += o.Unchanged
	r.Failed += o.Failed
	r.Errors = append(r.Errors, o.Errors...)
}

type pendingUpdate struct {
	key    int64
	fields map[string]interface{}
}

// Reconcile 将一批上游记录写入镜像表
// 1. 按 key 集合一次性读出本地记录
// 2. 拆分为新建与更新；更新只保留有差异的列，无差异不写
// 3. 新建走批量插入 (冲突跳过)，更新按 key 逐条写；两者都按子批次提交
// 子批次失败只计数，不影响其他子批次
func Reconcile[T model.Mirror](ctx context.Context, kind model.Kind, store repository.MirrorRepository[T], batch []T, opts ReconcileOptions) ReconcileResult {
	opts = normalizeReconcileOptions(opts)
	var result ReconcileResult

	batch = dedupeByKey(batch)
	if len(batch) == 0 {
		return result
	}

	keys := make([]int64, len(batch))
	for i, rec := range batch {
		keys[i] = rec.UpstreamKey()
	}

	existing, err := store.FindByKeys(ctx, keys)
	if err != nil {
		result.Failed = len(batch)
		result.Errors = append(result.Errors, &StoreWriteError{Kind: kind, Op: "read", Keys: keys, Err: err})
		return result
	}
	existingByKey := make(map[int64]T, len(existing))
	for _, row := range existing {
		existingByKey[row.UpstreamKey()] = row
	}

	var toCreate []T
	var toUpdate []pendingUpdate
	for _, rec := range batch {
		current, ok := existingByKey[rec.UpstreamKey()]
		if !ok {
			toCreate = append(toCreate, rec)
			continue
		}
		diff := diffFields(current.SyncFields(), rec.SyncFields())
		if len(diff) == 0 {
			result.Unchanged++
			continue
		}
		toUpdate = append(toUpdate, pendingUpdate{key: rec.UpstreamKey(), fields: diff})
	}

	// 新建
	for start := 0; start < len(toCreate); start += opts.SubBatchSize {
		end := min(start+opts.SubBatchSize, len(toCreate))
		sub := toCreate[start:end]

		inserted, err := store.BulkCreateSkipDuplicates(ctx, sub)
		if err != nil {
			result.Failed += len(sub)
			result.Errors = append(result.Errors, &StoreWriteError{Kind: kind, Op: "create", Keys: keysOf(sub), Err: err})
			zap.S().Warnf("[Reconciler] %s 批量新建失败 (%d 条): %v", kind, len(sub), err)
			continue
		}
		result.Created += int(inserted)
		// 其余行已被并发写入方插入
		result.Unchanged += len(sub) - int(inserted)
	}

	// 更新
	now := opts.Now()
	for start := 0; start < len(toUpdate); start += opts.SubBatchSize {
		end := min(start+opts.SubBatchSize, len(toUpdate))
		updated, failed := applyUpdates(ctx, kind, store, toUpdate[start:end], now, opts.Concurrency)
		result.Updated += updated
		result.Failed += len(failed)
		for _, e := range failed {
			result.Errors = append(result.Errors, e)
		}
	}

	return result
}

// applyUpdates 子批次内并行逐条更新
func applyUpdates[T model.Mirror](ctx context.Context, kind model.Kind, store repository.MirrorRepository[T], updates []pendingUpdate, now time.Time, concurrency int) (int, []*StoreWriteError) {
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		updated int
		failed  []*StoreWriteError
	)
	sem := make(chan struct{}, concurrency)

	for _, u := range updates {
		wg.Add(1)
		sem <- struct{}{}

		go func(u pendingUpdate) {
			defer wg.Done()
			defer func() { <-sem }()

			u.fields["last_synced"] = now
			err := store.UpdateByKey(ctx, u.key, u.fields)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed = append(failed, &StoreWriteError{Kind: kind, Op: "update", Keys: []int64{u.key}, Err: err})
				zap.S().Warnf("[Reconciler] %s 更新 %d 失败: %v", kind, u.key, err)
				return
			}
			updated++
		}(u)
	}
	wg.Wait()

	return updated, failed
}

func normalizeReconcileOptions(opts ReconcileOptions) ReconcileOptions {
	if opts.SubBatchSize <= 0 || opts.SubBatchSize > 100 {
		opts.SubBatchSize = 100
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return opts
}

// dedupeByKey 同一批内重复 key 以最后一条为准
func dedupeByKey[T model.Mirror](batch []T) []T {
	index := make(map[int64]int, len(batch))
	out := make([]T, 0, len(batch))
	for _, rec := range batch {
		if i, ok := index[rec.UpstreamKey()]; ok {
			out[i] = rec
			continue
		}
		index[rec.UpstreamKey()] = len(out)
		out = append(out, rec)
	}
	return out
}

func keysOf[T model.Mirror](rows []T) []int64 {
	keys := make([]int64, len(rows))
	for i, r := range rows {
		keys[i] = r.UpstreamKey()
	}
	return keys
}

// diffFields 返回 candidate 中与 current 不同的列
func diffFields(current, candidate map[string]interface{}) map[string]interface{} {
	diff := make(map[string]interface{})
	for col, v := range candidate {
		if !fieldEqual(current[col], v) {
			diff[col] = v
		}
	}
	return diff
}

// fieldEqual JSON 列按语义比较 (PostgreSQL jsonb 会重排空白)
func fieldEqual(a, b interface{}) bool {
	ja, aIsJSON := a.(datatypes.JSON)
	jb, bIsJSON := b.(datatypes.JSON)
	if aIsJSON || bIsJSON {
		return jsonEqual(ja, jb)
	}
	return reflect.DeepEqual(a, b)
}

func jsonEqual(a, b datatypes.JSON) bool {
	if bytes.Equal(a, b) {
		return true
	}
	var va, vb interface{}
	if err := json.Unmarshal(normalizeJSON(a), &va); err != nil {
		return false
	}
	if err := json.Unmarshal(normalizeJSON(b), &vb); err != nil {
		return false
	}
	return reflect.DeepEqual(va, vb)
}

// normalizeJSON NULL 与空数组等价
func normalizeJSON(raw datatypes.JSON) []byte {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []byte("[]")
	}
	return trimmed
}
