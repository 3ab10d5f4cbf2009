// internal/config/constants.go
package config

// アプリケーション情報
const (
	AppName    = "InterviewPrep"
	AppVersion = "0.3.0"
)

// デフォルト設定値
const (
	DefaultServerPort       = ":8080"
	DefaultDatabaseDriver   = "postgres"
	DefaultLogLevel         = "info"
	DefaultTimeZone         = "Asia/Dhaka"
	DefaultContentPath      = "configs/tracks.yaml"
	DefaultStreakSweepAt    = "00:05"
	DefaultNotesMaxLength   = 10000
	DefaultClientTimeoutSec = 10
	DefaultMailerType       = "log"
	DefaultAuthEnabled      = true
)
