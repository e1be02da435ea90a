package app

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"learnportal/internal/db"
)

// Config stores runtime configuration loaded from .env, an optional
// config/learnportal.yaml and environment variables.
type Config struct {
	AppEnv                   string
	HTTPAddr                 string
	DBDriver                 db.Driver
	DBDSN                    string
	DBMaxOpenConns           int
	DBMaxIdleConns           int
	DBConnMaxLifeMins        int
	QuizUploadMaxSizeMB      int64
	QuizDefaultQuestionCount int
	UploadRateLimitPerMin    int
	CSRFEnforced             bool
	CORSOrigins              []string
}

func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigName("learnportal")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")

	v.SetDefault("app_env", "development")
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("db_driver", string(db.DriverSQLite))
	v.SetDefault("db_dsn", "")
	v.SetDefault("db_max_open_conns", 25)
	v.SetDefault("db_max_idle_conns", 25)
	v.SetDefault("db_conn_max_lifetime_minutes", 30)
	v.SetDefault("quiz_upload_max_size_mb", 50)
	v.SetDefault("quiz_default_question_count", 10)
	v.SetDefault("upload_rate_limit_per_minute", 30)
	v.SetDefault("csrf_enforced", "false")
	v.SetDefault("cors_origins", "http://localhost:5173")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	driver, err := db.ParseDriver(v.GetString("db_driver"))
	if err != nil {
		return Config{}, err
	}

	return Config{
		AppEnv:                   v.GetString("app_env"),
		HTTPAddr:                 v.GetString("http_addr"),
		DBDriver:                 driver,
		DBDSN:                    v.GetString("db_dsn"),
		DBMaxOpenConns:           positiveOr(v.GetInt("db_max_open_conns"), 25),
		DBMaxIdleConns:           positiveOr(v.GetInt("db_max_idle_conns"), 25),
		DBConnMaxLifeMins:        positiveOr(v.GetInt("db_conn_max_lifetime_minutes"), 30),
		QuizUploadMaxSizeMB:      int64(positiveOr(v.GetInt("quiz_upload_max_size_mb"), 50)),
		QuizDefaultQuestionCount: positiveOr(v.GetInt("quiz_default_question_count"), 10),
		UploadRateLimitPerMin:    positiveOr(v.GetInt("upload_rate_limit_per_minute"), 30),
		CSRFEnforced:             parseBool(v.GetString("csrf_enforced"), false),
		CORSOrigins:              splitList(v.GetString("cors_origins")),
	}, nil
}

func (c Config) PoolConfig() db.PoolConfig {
	return db.PoolConfig{
		MaxOpenConns:    c.DBMaxOpenConns,
		MaxIdleConns:    c.DBMaxIdleConns,
		ConnMaxLifetime: time.Duration(c.DBConnMaxLifeMins) * time.Minute,
	}
}

func positiveOr(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}

func parseBool(v string, fallback bool) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
