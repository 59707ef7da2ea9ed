package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Notification NotificationConfig
	Storage      StorageConfig
	Pricing      PricingConfig
	Documents    DocumentConfig
	Requests     RequestConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string `env:"APP_NAME" envDefault:"service-request-engine"`
	Env                   string `env:"APP_ENV" envDefault:"development"`
	Host                  string `env:"APP_HOST" envDefault:"0.0.0.0"`
	Port                  string `env:"APP_PORT" envDefault:"8080"`
	Version               string `env:"APP_VERSION" envDefault:"dev"`
	RequestTimeoutSeconds int    `env:"HTTP_REQUEST_TIMEOUT_SECONDS" envDefault:"30"`
	BodyLimitBytes        int    `env:"HTTP_BODY_LIMIT_BYTES" envDefault:"16777216"`
}

// PostgresConfig holds DB connection values.
// An empty DSN selects the in-memory store.
type PostgresConfig struct {
	DSN            string `env:"POSTGRES_DSN"`
	MaxConns       int32  `env:"POSTGRES_MAX_CONNS" envDefault:"10"`
	MinConns       int32  `env:"POSTGRES_MIN_CONNS" envDefault:"2"`
	RunMigrations  bool   `env:"POSTGRES_RUN_MIGRATIONS" envDefault:"true"`
	ConnMaxIdleSec int32  `env:"POSTGRES_CONN_MAX_IDLE_SECONDS" envDefault:"30"`
	ConnMaxLifeSec int32  `env:"POSTGRES_CONN_MAX_LIFE_SECONDS" envDefault:"300"`
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"127.0.0.1:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	Enabled  bool   `env:"REDIS_ENABLED" envDefault:"true"`
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string `env:"LOG_LEVEL" envDefault:"info"`
}

// AuthConfig defines bearer token verification parameters.
type AuthConfig struct {
	JWTSecret             string `env:"AUTH_JWT_SECRET" envDefault:"dev-secret"`
	AccessTokenTTLMinutes int    `env:"AUTH_ACCESS_TOKEN_TTL_MINUTES" envDefault:"60"`
}

// NotificationConfig holds outbound notification settings.
type NotificationConfig struct {
	EmailFrom      string        `env:"NOTIFY_EMAIL_FROM" envDefault:"noreply@example.com"`
	AdminRecipient string        `env:"NOTIFY_ADMIN_RECIPIENT" envDefault:"operations@example.com"`
	WebhookURL     string        `env:"NOTIFY_WEBHOOK_URL"`
	WebhookSecret  string        `env:"NOTIFY_WEBHOOK_SECRET"`
	Timeout        time.Duration `env:"NOTIFY_TIMEOUT" envDefault:"5s"`
	Workers        int           `env:"NOTIFY_WORKERS" envDefault:"2"`
	QueueSize      int           `env:"NOTIFY_QUEUE_SIZE" envDefault:"256"`
}

// StorageConfig configures optional object storage for document payloads.
type StorageConfig struct {
	Endpoint  string `env:"MINIO_ENDPOINT"`
	AccessKey string `env:"MINIO_ACCESS_KEY"`
	SecretKey string `env:"MINIO_SECRET_KEY"`
	Bucket    string `env:"MINIO_BUCKET" envDefault:"service-request-documents"`
	UseSSL    bool   `env:"MINIO_USE_SSL" envDefault:"false"`
}

// Enabled reports whether object storage was configured.
func (s StorageConfig) Enabled() bool {
	return s.Endpoint != ""
}

// PricingConfig controls the pricing entry cache.
type PricingConfig struct {
	CacheTTL time.Duration `env:"PRICING_CACHE_TTL" envDefault:"60s"`
}

// DocumentConfig bounds document uploads.
type DocumentConfig struct {
	MaxBytes int64 `env:"DOCUMENT_MAX_BYTES" envDefault:"10485760"`
}

// RequestConfig tunes request creation.
type RequestConfig struct {
	ReferenceMaxAttempts int `env:"REFERENCE_MAX_ATTEMPTS" envDefault:"3"`
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Requests.ReferenceMaxAttempts <= 0 {
		return nil, fmt.Errorf("invalid REFERENCE_MAX_ATTEMPTS: %d", cfg.Requests.ReferenceMaxAttempts)
	}
	if cfg.Documents.MaxBytes <= 0 {
		return nil, fmt.Errorf("invalid DOCUMENT_MAX_BYTES: %d", cfg.Documents.MaxBytes)
	}
	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}
