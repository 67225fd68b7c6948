package service

import (
	"errors"
	"fmt"

	"igdb_mirror_v1_202610/internal/model"
)

// ==================== 错误定义 ====================

var (
	// ErrCredentialsMissing 未配置 client_id / client_secret，不可重试
	ErrCredentialsMissing = errors.New("igdb credentials not configured")
	// ErrSyncInProgress 同类型同步正在执行
	ErrSyncInProgress = errors.New("sync already running for this kind")
	// ErrUnknownKind 未知实体类型
	ErrUnknownKind = errors.New("unknown entity kind")
	// ErrPlatformNotFound 本地平台不存在
	ErrPlatformNotFound = errors.New("local platform not found")
	// ErrRecordNotFound 镜像记录不存在 (可能尚未同步)
	ErrRecordNotFound = errors.New("mirror record not found")
)

// UpstreamAuthError 凭证端点拒绝，或上游返回 401
// 调用方可在 Clear() 后重试
type UpstreamAuthError struct {
	Status int
	Body   string
}

func (e *UpstreamAuthError) Error() string {
	return fmt.Sprintf("upstream auth rejected: status=%d body=%s", e.Status, truncate(e.Body, 512))
}

// UpstreamFetchError 上游目录返回非 2xx 或超时 (Status=0)
// 中止当前类型的同步，已提交的批次保留
type UpstreamFetchError struct {
	Kind   model.Kind
	Status int
	Body   string
}

func (e *UpstreamFetchError) Error() string {
	return fmt.Sprintf("upstream fetch %s failed: status=%d body=%s", e.Kind, e.Status, truncate(e.Body, 512))
}

// MalformedReferenceError 父记录的引用字段无法解析，仅跳过该记录
type MalformedReferenceError struct {
	Kind    model.Kind // 目标类型
	OwnerID int64      // 父记录 ID
	Field   string
	Err     error
}

func (e *MalformedReferenceError) Error() string {
	return fmt.Sprintf("malformed reference %s on record %d (-> %s): %v", e.Field, e.OwnerID, e.Kind, e.Err)
}

func (e *MalformedReferenceError) Unwrap() error { return e.Err }

// StoreWriteError 单个子批次/记录写入失败，只计数不中止
type StoreWriteError struct {
	Kind model.Kind
	Op   string // create / update
	Keys []int64
	Err  error
}

func (e *StoreWriteError) Error() string {
	return fmt.Sprintf("store %s %s failed for %d record(s): %v", e.Op, e.Kind, len(e.Keys), e.Err)
}

func (e *StoreWriteError) Unwrap() error { return e.Err }

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
