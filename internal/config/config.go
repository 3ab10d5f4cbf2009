// internal/config/config.go
package config

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // postgres | sqlite
	URL    string `mapstructure:"url"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type AuthConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type JWTConfig struct {
	SecretKey string `mapstructure:"secret_key"`
}

// AppConfig はアプリケーション固有の設定
type AppConfig struct {
	TimeZone         string `mapstructure:"time_zone"`          // ユーザーがタイムゾーンを送らない場合の既定値
	ContentPath      string `mapstructure:"content_path"`       // トラック定義 (.yaml / .xlsx)
	StreakSweepAt    string `mapstructure:"streak_sweep_at"`    // 毎日のストリーク失効チェック時刻 (HH:MM)
	NotesMaxLength   int    `mapstructure:"notes_max_length"`   // メモの最大文字数
	ClientTimeoutSec int    `mapstructure:"client_timeout_sec"` // notify クライアントのHTTPタイムアウト
}

type PushConfig struct {
	VAPIDPublicKey string `mapstructure:"vapid_public_key"`
}

type MailerConfig struct {
	Type string `mapstructure:"type"` // log | smtp | ses
}

type SMTPConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	From string `mapstructure:"from"`
}

type SESConfig struct {
	Region          string `mapstructure:"region"`
	AuthType        string `mapstructure:"auth_type"` // static_credentials | iam_role
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	From            string `mapstructure:"from"`
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Auth     AuthConfig     `mapstructure:"auth"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	App      AppConfig      `mapstructure:"app"`
	Push     PushConfig     `mapstructure:"push"`
	Mailer   MailerConfig   `mapstructure:"mailer"`
	SMTP     SMTPConfig     `mapstructure:"smtp"`
	SES      SESConfig      `mapstructure:"ses"`
}

var Cfg Config

func LoadConfig(path string) error {
	// .env があれば先に環境変数へ展開する (無くてもエラーにしない)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, proceeding with OS environment variables")
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(path)
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("APP")
	viper.AutomaticEnv()
	viper.BindEnv("auth.enabled", "AUTH_ENABLED")
	viper.BindEnv("database.url", "DATABASE_URL")
	viper.BindEnv("jwt.secret_key", "JWT_SECRET")
	viper.BindEnv("push.vapid_public_key", "VAPID_PUBLIC_KEY")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("Warning: Config file not found. Using default settings or environment variables if available.")
		} else {
			log.Printf("Error reading config file: %s\n", err)
			return err
		}
	}

	if err := viper.Unmarshal(&Cfg); err != nil {
		log.Printf("Error unmarshalling config: %s\n", err)
		return err
	}

	applyDefaults(&Cfg)

	// Auth.Enabled は未設定なら有効にする
	if !viper.IsSet("auth.enabled") {
		log.Printf("Auth enabled flag not set, defaulting to %t", DefaultAuthEnabled)
		Cfg.Auth.Enabled = DefaultAuthEnabled
	}

	log.Println("Config loaded successfully")
	log.Printf("Server Port: %s", Cfg.Server.Port)
	log.Printf("Database Driver: %s", Cfg.Database.Driver)
	log.Printf("Time Zone: %s", Cfg.App.TimeZone)
	log.Printf("Auth Enabled: %t", Cfg.Auth.Enabled)

	return nil
}

// applyDefaults は未設定の項目にデフォルト値を入れる
func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		log.Printf("Server port not set, using default '%s'", DefaultServerPort)
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = DefaultDatabaseDriver
	}
	if cfg.Database.URL == "" {
		log.Println("Warning: Database URL is not set in config.")
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.App.TimeZone == "" {
		cfg.App.TimeZone = DefaultTimeZone
	}
	if cfg.App.ContentPath == "" {
		cfg.App.ContentPath = DefaultContentPath
	}
	if cfg.App.StreakSweepAt == "" {
		cfg.App.StreakSweepAt = DefaultStreakSweepAt
	}
	if cfg.App.NotesMaxLength <= 0 {
		cfg.App.NotesMaxLength = DefaultNotesMaxLength
	}
	if cfg.App.ClientTimeoutSec <= 0 {
		cfg.App.ClientTimeoutSec = DefaultClientTimeoutSec
	}
	if cfg.Mailer.Type == "" {
		cfg.Mailer.Type = DefaultMailerType
	}
}
