package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// ErrMissingDatabaseURL は STORAGE_TYPE=postgres で接続先が決まらない場合のエラー
var ErrMissingDatabaseURL = errors.New("DATABASE_URL or DB_HOST/DB_USERNAME/DB_PASSWORD/DB_NAME is required when STORAGE_TYPE=postgres")

var validate = validator.New()

// Config は環境変数から読み込むサーバー設定
type Config struct {
	Port        int    `env:"PORT,default=8080" validate:"min=1,max=65535"`
	StorageType string `env:"STORAGE_TYPE,default=memory" validate:"oneof=memory badger postgres"`

	DatabaseURL string `env:"DATABASE_URL"`
	DBHost      string `env:"DB_HOST"`
	DBPort      string `env:"DB_PORT,default=5432"`
	DBUsername  string `env:"DB_USERNAME"`
	DBPassword  string `env:"DB_PASSWORD"`
	DBName      string `env:"DB_NAME"`

	BadgerPath        string `env:"BADGER_PATH,default=./data/badger" validate:"required"`
	BadgerInspectPort int    `env:"BADGER_INSPECT_PORT" validate:"min=0,max=65535"`

	AuthTokenSecret   string `env:"AUTH_TOKEN_SECRET"`
	AuthTokenIssuer   string `env:"AUTH_TOKEN_ISSUER"`
	AuthTokenAudience string `env:"AUTH_TOKEN_AUDIENCE"`

	Locale          string        `env:"LOCALE,default=ko"`
	LogLevel        string        `env:"LOG_LEVEL,default=INFO" validate:"oneof=DEBUG INFO WARN ERROR"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s" validate:"gt=0"`
}

// Load はカレントディレクトリの .env があれば読み込んでから設定を組み立てる
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnviron()
}

// FromEnviron は環境変数だけから設定を組み立てる
func FromEnviron() (Config, error) {
	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}
	cfg.applyBlankDefaults()
	cfg.LogLevel = strings.ToUpper(cfg.LogLevel)
	cfg.StorageType = strings.ToLower(cfg.StorageType)

	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}

	if cfg.StorageType == "postgres" && cfg.DatabaseURL == "" {
		// 個別の環境変数からDATABASE_URLを組み立てる（ECS + Secrets Manager対応）
		if cfg.DBHost == "" || cfg.DBUsername == "" || cfg.DBPassword == "" || cfg.DBName == "" {
			return Config{}, ErrMissingDatabaseURL
		}
		cfg.DatabaseURL = cfg.composeDatabaseURL()
	}
	return cfg, nil
}

// applyBlankDefaults は空文字で定義された変数を既定値に戻す（例: .env の STORAGE_TYPE=）
func (c *Config) applyBlankDefaults() {
	if c.StorageType == "" {
		c.StorageType = "memory"
	}
	if c.DBPort == "" {
		c.DBPort = "5432"
	}
	if c.BadgerPath == "" {
		c.BadgerPath = "./data/badger"
	}
	if c.Locale == "" {
		c.Locale = "ko"
	}
	if c.LogLevel == "" {
		c.LogLevel = "INFO"
	}
}

func (c Config) composeDatabaseURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUsername, c.DBPassword),
		Host:     net.JoinHostPort(c.DBHost, c.DBPort),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=require",
	}
	return u.String()
}

// Addr は HTTP サーバーの待ち受けアドレス
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
