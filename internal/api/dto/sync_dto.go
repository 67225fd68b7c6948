package dto

import "time"

// ==================== 同步 ====================

// SyncKindReq 单类型同步参数
type SyncKindReq struct {
	PlatformID *int64 `form:"platform_id" binding:"omitempty,min=1"` // 本地平台 ID，为空表示全部
	Full       bool   `form:"full"`                                  // 跳过增量过滤与缺失计算
}

// SyncAllReq 全部类型同步参数
type SyncAllReq struct {
	Full bool `form:"full"`
}

// SyncRunListReq 同步记录查询
type SyncRunListReq struct {
	Kind  string `form:"kind"`
	Limit int    `form:"limit" binding:"omitempty,min=1,max=500"`
}

// SyncRunResp 同步记录
type SyncRunResp struct {
	RunID       string     `json:"run_id"`
	Kind        string     `json:"kind"`
	PlatformID  *int64     `json:"platform_id,omitempty"`
	Full        bool       `json:"full"`
	Status      string     `json:"status"`
	TotalSynced int        `json:"total_synced"`
	New         int        `json:"new"`
	Updated     int        `json:"updated"`
	Unchanged   int        `json:"unchanged"`
	Failed      int        `json:"failed"`
	Message     string     `json:"message"`
	Warnings    []string   `json:"warnings"`
	TriggeredBy string     `json:"triggered_by,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
}

// ==================== 目录查询 ====================

// GameListReq 本地游戏列表
type GameListReq struct {
	PlatformID *int64 `form:"platform_id" binding:"omitempty,min=1"`
}

// ==================== 凭证 ====================

// TokenStatusResp 凭证缓存状态
type TokenStatusResp struct {
	Configured       bool       `json:"configured"`
	HasToken         bool       `json:"has_token"`
	ExpiresAt        *time.Time `json:"expires_at"`
	SecondsRemaining int64      `json:"seconds_remaining"`
}
