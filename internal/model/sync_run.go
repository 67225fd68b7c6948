package model

import (
	"time"

	"gorm.io/datatypes"
)

// SyncRun 同步执行记录
type SyncRun struct {
	BaseModel
	RunID      string `gorm:"size:36;uniqueIndex;not null" json:"run_id"`
	Kind       Kind   `gorm:"size:64;index;not null" json:"kind"`
	PlatformID *int64 `gorm:"comment:作用域本地平台ID" json:"platform_id"`
	Full       bool   `json:"full"`
	// TriggeredBy 触发者 (管理员 subject / cli)，定时任务为空
	TriggeredBy string `gorm:"size:128" json:"triggered_by"`

	Status    SyncRunStatus `gorm:"size:16;index;default:running" json:"status"`
	Total     int           `json:"total_synced"`
	Created   int           `json:"new"`
	Updated   int           `json:"updated"`
	Unchanged int           `json:"unchanged"`
	Failed    int           `json:"failed"`

	Message  string         `gorm:"size:1024" json:"message"`
	Warnings datatypes.JSON `json:"warnings"`

	StartedAt  time.Time  `gorm:"index" json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`
}

func (SyncRun) TableName() string { return "sync_runs" }

// SyncRunStatus 同步状态
type SyncRunStatus string

const (
	SyncRunRunning SyncRunStatus = "running"
	SyncRunSuccess SyncRunStatus = "success"
	// SyncRunPartial 拉取完成但有记录写入失败，不作为增量起点
	SyncRunPartial SyncRunStatus = "partial"
	SyncRunFailed  SyncRunStatus = "failed"
)

// AllModels 需要自动建表的全部模型
func AllModels() []interface{} {
	models := []interface{}{&UserPlatform{}, &Game{}, &SyncRun{}}
	return append(models, MirrorModels()...)
}
