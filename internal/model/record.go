// internal/model/record.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// 永続化するレコードのキー
const (
	RecordKeyProgress = "progress"
	RecordKeyStats    = "stats"
)

// LearningRecord はユーザーごとのJSONブロブ (進捗 / 集計) を保持します
type LearningRecord struct {
	UserID    uuid.UUID      `gorm:"type:uuid;primaryKey"`
	RecordKey string         `gorm:"type:varchar(32);primaryKey"`
	Value     datatypes.JSON `gorm:"not null"`
	UpdatedAt time.Time
}

func (LearningRecord) TableName() string {
	return "learning_records"
}

type ContextKey string

const (
	UserIDKey ContextKey = "userID"
)

// UserStats はストリーク一括失効で使う、ユーザーIDと集計値の組
type UserStats struct {
	UserID uuid.UUID
	Stats  LearningStats
}
