package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

type DatabaseConfig struct {
	Driver     string // sqlite or postgres
	SQLitePath string
	Postgres   PostgresConfig
}

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig is disabled when Addr is empty.
type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	MaxRetries  int
	DialTimeout int
	Timeout     int
	Prefix      string
}

// S3Config is disabled when Endpoint is empty.
type S3Config struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UseSSL          bool
	Region          string
	Prefix          string
}

type LogConfig struct {
	Level  string
	Format string
	Output string
}

type ExportConfig struct {
	Dir          string
	PublicPrefix string
	ExternalURL  string
	Retention    time.Duration
	FontPath     string
}

type AppConfig struct {
	Port     string
	Env      string
	Log      LogConfig
	Database DatabaseConfig
	Redis    RedisConfig
	S3       S3Config
	Export   ExportConfig
}

func (c RedisConfig) Enabled() bool { return c.Addr != "" }

func (c S3Config) Enabled() bool { return c.Endpoint != "" }

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func mustAtoi(s string) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int value %q: %v", s, err)
	}
	return i
}

func mustBool(s string) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		log.Fatalf("invalid bool value %q: %v", s, err)
	}
	return b
}

func Load() AppConfig {
	env := getenv("APP_ENV", "development")
	logFormat := "console"
	if env == "production" {
		logFormat = "json"
	}

	return AppConfig{
		Port: getenv("APP_PORT", "8010"),
		Env:  env,
		Log: LogConfig{
			Level:  getenv("LOG_LEVEL", "info"),
			Format: getenv("LOG_FORMAT", logFormat),
			Output: getenv("LOG_OUTPUT", "stdout"),
		},
		Database: DatabaseConfig{
			Driver:     getenv("DB_DRIVER", "sqlite"),
			SQLitePath: getenv("SQLITE_PATH", "payroll.db"),
			Postgres: PostgresConfig{
				Host:     getenv("PG_HOST", "127.0.0.1"),
				Port:     mustAtoi(getenv("PG_PORT", "5432")),
				User:     getenv("PG_USER", "root"),
				Password: getenv("PG_PASSWORD", ""),
				DBName:   getenv("PG_DB", "payroll"),
				SSLMode:  getenv("PG_SSLMODE", "disable"),
			},
		},
		Redis: RedisConfig{
			Addr:        os.Getenv("REDIS_ADDR"),
			Password:    getenv("REDIS_PASSWORD", ""),
			DB:          mustAtoi(getenv("REDIS_DB", "0")),
			MaxRetries:  mustAtoi(getenv("REDIS_MAX_RETRIES", "5")),
			DialTimeout: mustAtoi(getenv("REDIS_DIAL_TIMEOUT", "10")),
			Timeout:     mustAtoi(getenv("REDIS_TIMEOUT", "5")),
			Prefix:      getenv("EXPORT_CACHE_PREFIX", "payroll_export_"),
		},
		S3: S3Config{
			Endpoint:        os.Getenv("S3_ENDPOINT"),
			AccessKeyID:     getenv("S3_ACCESS_KEY", "minio"),
			SecretAccessKey: getenv("S3_SECRET_KEY", "minio123"),
			Bucket:          getenv("S3_BUCKET", "exports"),
			Region:          getenv("S3_REGION", "us-east-1"),
			UseSSL:          mustBool(getenv("S3_USE_SSL", "false")),
			Prefix:          getenv("S3_PREFIX", "payroll/"),
		},
		Export: ExportConfig{
			Dir:          getenv("EXPORT_DIR", "./exports"),
			PublicPrefix: getenv("FILES_PUBLIC_PREFIX", "/files"),
			ExternalURL:  getenv("EXTERNAL_URL", ""),
			Retention:    time.Duration(mustAtoi(getenv("EXPORT_RETENTION_MINUTES", "30"))) * time.Minute,
			FontPath:     getenv("PDF_FONT_PATH", "Amiri-Regular.ttf"),
		},
	}
}
