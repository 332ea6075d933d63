package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv      string `env:"APP_ENV" default:"development"`
	Port        string `env:"PORT" default:"8080"`
	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`
	NATSURL     string `env:"NATS_URL"`
	LogLevel    string `env:"LOG_LEVEL" default:"info"`
	LogFormat   string `env:"LOG_FORMAT" default:"text"`

	CORSOrigins    string `env:"CORS_ORIGINS" default:"*"`
	IdentityHeader string `env:"IDENTITY_HEADER" default:"X-User-ID"`

	Scorer          string `env:"SCORER" default:"lexicon"`
	AnalysisProfile string `env:"ANALYSIS_PROFILE"`
	MaxUploadBytes  int64  `env:"MAX_UPLOAD_BYTES" default:"10485760"` // 10 MiB
	IngestWorkers   int    `env:"INGEST_WORKERS" default:"8"`

	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" default:"20"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" default:"40"`

	CacheTTL       time.Duration `env:"CACHE_TTL" default:"5m"`
	MemoryCacheTTL time.Duration `env:"MEMORY_CACHE_TTL" default:"10s"`

	MinIOEndpoint   string        `env:"MINIO_ENDPOINT"`
	MinIOBucket     string        `env:"MINIO_BUCKET" default:"textpulse-exports"`
	MinIOAccessKey  string        `env:"MINIO_ACCESS_KEY"`
	MinIOSecretKey  string        `env:"MINIO_SECRET_KEY"`
	MinIOUseSSL     bool          `env:"MINIO_USE_SSL" default:"false"`
	ExportURLExpiry time.Duration `env:"EXPORT_URL_EXPIRY" default:"1h"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ObjectStoreEnabled reports whether export archiving is configured.
func (c *Config) ObjectStoreEnabled() bool {
	return c.MinIOEndpoint != ""
}

// AllowedOrigins splits CORS_ORIGINS on commas.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for o := range strings.SplitSeq(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func validate(cfg *Config) error {
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if cfg.IdentityHeader == "" {
		return errors.New("IDENTITY_HEADER must not be empty")
	}

	switch cfg.Scorer {
	case "lexicon", "vader":
	default:
		return fmt.Errorf("SCORER must be lexicon or vader, got %q", cfg.Scorer)
	}

	if cfg.MaxUploadBytes <= 0 {
		return errors.New("MAX_UPLOAD_BYTES must be positive")
	}
	if cfg.IngestWorkers < 1 || cfg.IngestWorkers > 256 {
		return fmt.Errorf("INGEST_WORKERS must be between 1 and 256, got %d", cfg.IngestWorkers)
	}
	if cfg.RateLimitRPS <= 0 || cfg.RateLimitBurst < 1 {
		return errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	if cfg.CacheTTL <= 0 || cfg.MemoryCacheTTL <= 0 {
		return errors.New("CACHE_TTL and MEMORY_CACHE_TTL must be positive")
	}
	if cfg.MemoryCacheTTL > cfg.CacheTTL {
		return errors.New("MEMORY_CACHE_TTL must not exceed CACHE_TTL")
	}

	if cfg.ObjectStoreEnabled() {
		if cfg.MinIOAccessKey == "" || cfg.MinIOSecretKey == "" {
			return errors.New("MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required when MINIO_ENDPOINT is set")
		}
		if cfg.MinIOBucket == "" {
			return errors.New("MINIO_BUCKET is required when MINIO_ENDPOINT is set")
		}
		if cfg.ExportURLExpiry < time.Second || cfg.ExportURLExpiry > 7*24*time.Hour {
			return errors.New("EXPORT_URL_EXPIRY must be between 1s and 168h")
		}
	}

	if cfg.AppEnv == "production" {
		if mode := sslMode(cfg.DatabaseURL); mode == "disable" || mode == "allow" {
			return fmt.Errorf("DATABASE_URL uses sslmode=%s which is not allowed in production", mode)
		}
	}

	return nil
}

func sslMode(databaseURL string) string {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Query().Get("sslmode"))
}
