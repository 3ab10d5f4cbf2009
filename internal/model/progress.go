// internal/model/progress.go
package model

import (
	"time"
)

// TopicProgress は1日分 (1トピック) の進捗を表します
type TopicProgress struct {
	TopicID        string     `json:"topic_id"`
	Completed      bool       `json:"completed"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	TasksCompleted []bool     `json:"tasks_completed"`
	QuizScore      *int       `json:"quiz_score,omitempty"`
	Notes          *string    `json:"notes,omitempty"`
}

// TrackProgress は会社ごとのトラック進捗を表します (キーは会社名、大文字小文字を区別)
type TrackProgress struct {
	CompanyName    string                    `json:"company_name"`
	StartedAt      time.Time                 `json:"started_at"`
	CurrentDay     int                       `json:"current_day"`
	CompletedDays  int                       `json:"completed_days"`
	LastActivityAt time.Time                 `json:"last_activity_at"`
	Topics         map[string]*TopicProgress `json:"topics"`
}

// ProgressMap は会社名 -> TrackProgress の永続化単位
type ProgressMap map[string]*TrackProgress

// LearningStats はユーザー単位の集計値
type LearningStats struct {
	TotalTracksStarted int    `json:"total_tracks_started"`
	TotalDaysCompleted int    `json:"total_days_completed"`
	CurrentStreak      int    `json:"current_streak"`
	LongestStreak      int    `json:"longest_streak"`
	LastActivityDate   string `json:"last_activity_date,omitempty"` // YYYY-MM-DD (ユーザーのローカル日付)
	TimeZone           string `json:"time_zone,omitempty"`          // 最後のアクティビティを記録したタイムゾーン
}

// TrackProgressView は進捗と派生値をまとめたレスポンスDTO
type TrackProgressView struct {
	*TrackProgress
	TotalDays            int `json:"total_days"`
	CompletionPercentage int `json:"completion_percentage"`
}

// ProgressOverview は GET /progress のレスポンスDTO
type ProgressOverview struct {
	Tracks map[string]*TrackProgressView `json:"tracks"`
	Stats  LearningStats                 `json:"stats"`
}

// SaveNotesRequest はメモ保存リクエストのDTO
type SaveNotesRequest struct {
	Notes *string `json:"notes" validate:"required"`
}

// SaveQuizScoreRequest はクイズ結果保存リクエストのDTO
type SaveQuizScoreRequest struct {
	Score *int `json:"score" validate:"required,min=0,max=100"`
}

// TrackStateResponse は進捗操作のレスポンスDTO。未開始のトラックは Started=false, Progress=nil
type TrackStateResponse struct {
	CompanyName string             `json:"company_name"`
	Started     bool               `json:"started"`
	Progress    *TrackProgressView `json:"progress"`
	Stats       LearningStats      `json:"stats"`
}
