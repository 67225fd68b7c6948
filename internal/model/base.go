package model

import (
	"time"

	"gorm.io/gorm"
)

// BaseModel 本地实体公共字段 (本地平台、游戏、同步记录)
type BaseModel struct {
	ID        int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// MirrorBase 镜像表公共字段
// IGDBID 为上游稳定主键，同一类型内唯一
type MirrorBase struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"-"`
	IGDBID     int64     `gorm:"column:igdb_id;uniqueIndex;not null" json:"id"`
	LastSynced time.Time `gorm:"index;comment:最后同步时间" json:"last_synced"`
	CreatedAt  time.Time `json:"-"`
	UpdatedAt  time.Time `json:"-"`
}

// UpstreamKey 返回上游 ID
func (m MirrorBase) UpstreamKey() int64 {
	return m.IGDBID
}
