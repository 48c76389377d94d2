package config

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	pkgRetry "github.com/futig/ragchat-backend/internal/pkg/retry"
	"github.com/joho/godotenv"
)

const (
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// Config holds the application configuration
type Config struct {
	// Server configuration
	ServerAddr      string        `env:"SERVER_ADDR" envDefault:":8080"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"2m"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`

	// Storage configuration
	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"sqlite"`
	SQLitePath    string `env:"SQLITE_PATH" envDefault:"data/ragchat.db"`

	// Database configuration, used when STORAGE_DRIVER=postgres
	DatabaseURL         string        `env:"DATABASE_URL"`
	DBMaxConns          int           `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns          int           `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	DBHealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`

	// Logging configuration
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	IngestCfg    IngestConfig    `envPrefix:"INGEST_"`
	RetrievalCfg RetrievalConfig `envPrefix:"RETRIEVAL_"`
	DispatchCfg  DispatchConfig  `envPrefix:"DISPATCH_"`
	CacheCfg     CacheConfig     `envPrefix:"CACHE_"`
	ChatCfg      ChatConfig      `envPrefix:"CHAT_"`
	ProvidersCfg ProvidersConfig `envPrefix:"PROVIDERS_"`
	APIRateCfg   APIRateConfig   `envPrefix:"API_RATE_LIMIT_"`

	// File upload configuration
	FileUploadCfg FileUploadConfig `envPrefix:"FILE_UPLOAD_"`

	// Environment (set from flag, not from env var)
	Environment string
}

type IngestConfig struct {
	ChunkMaxTokens   int   `env:"CHUNK_MAX_TOKENS" envDefault:"300"`
	DocumentMaxBytes int64 `env:"DOCUMENT_MAX_BYTES" envDefault:"5242880"`
	Workers          int   `env:"WORKERS" envDefault:"4"`
}

type RetrievalConfig struct {
	TopK     int     `env:"TOP_K" envDefault:"5"`
	MinScore float64 `env:"MIN_SCORE" envDefault:"0.05"`
}

type DispatchConfig struct {
	Retry      pkgRetry.RetryConfig
	Timeout    time.Duration `env:"TIMEOUT" envDefault:"60s"`
	RateWindow time.Duration `env:"RATE_WINDOW" envDefault:"1m"`
}

type CacheConfig struct {
	Enabled  bool          `env:"ENABLED" envDefault:"true"`
	TTL      time.Duration `env:"TTL" envDefault:"5m"`
	Capacity int           `env:"CAPACITY" envDefault:"1024"`
}

// ChatConfig holds defaults applied when a chat turn leaves them unset
type ChatConfig struct {
	Persona     string  `env:"PERSONA"`
	Temperature float64 `env:"TEMPERATURE" envDefault:"0.7"`
	MaxTokens   int     `env:"MAX_TOKENS" envDefault:"1024"`
}

type ProvidersConfig struct {
	File         string        `env:"FILE" envDefault:"providers.yaml"`
	Watch        bool          `env:"WATCH" envDefault:"true"`
	ModelListTTL time.Duration `env:"MODEL_LIST_TTL" envDefault:"10m"`

	// Shared HTTP client settings for every provider connector
	ConnTimeout           time.Duration `env:"CONN_TIMEOUT" envDefault:"10s"`
	RequestTimeout        time.Duration `env:"REQUEST_TIMEOUT" envDefault:"60s"`
	KeepAlive             time.Duration `env:"KEEP_ALIVE" envDefault:"90s"`
	IdleConnTimeout       time.Duration `env:"IDLE_CONN_TIMEOUT" envDefault:"90s"`
	ResponseHeaderTimeout time.Duration `env:"RESPONSE_HEADER_TIMEOUT" envDefault:"60s"`
}

type APIRateConfig struct {
	PerMinute int `env:"PER_MINUTE" envDefault:"120"`
	Burst     int `env:"BURST" envDefault:"20"`
}

// FileUploadConfig holds file upload limits
type FileUploadConfig struct {
	MaxFileSize   int64 `env:"MAX_FILE_SIZE" envDefault:"5242880"`    // 5 MiB
	MaxTotalSize  int64 `env:"MAX_TOTAL_SIZE" envDefault:"26214400"`  // 25 MiB
	MaxFileCount  int   `env:"MAX_FILE_COUNT" envDefault:"32"`        // Max 32 files
	MaxUploadSize int64 `env:"MAX_UPLOAD_SIZE" envDefault:"33554432"` // 32 MiB
}

func LoadConfig() (*Config, error) {
	envFlag := flag.String("env", "local", "Environment to run (local, prod, or custom)")
	flag.Parse()

	envFile := getEnvFile(*envFlag)
	// Try to load env file, but don't fail if it's missing.
	// In containerized/prod environments variables are usually set externally.
	if err := godotenv.Load(envFile); err != nil {
		fmt.Printf("Warning: could not load %s file (this is ok if env vars are set externally): %v\n", envFile, err)
	}

	return Parse(*envFlag)
}

// Parse reads the configuration from the process environment.
func Parse(environment string) (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	cfg.Environment = environment
	cfg.StorageDriver = strings.ToLower(strings.TrimSpace(cfg.StorageDriver))

	// Validate configuration
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func validateConfig(cfg *Config) error {
	var errors []string

	switch cfg.StorageDriver {
	case StorageSQLite:
		if cfg.SQLitePath == "" {
			errors = append(errors, "SQLITE_PATH is required for the sqlite storage driver")
		}
	case StoragePostgres:
		if cfg.DatabaseURL == "" {
			errors = append(errors, "DATABASE_URL is required for the postgres storage driver")
		}
		// Validate Database configuration
		if cfg.DBMaxConns < 1 || cfg.DBMaxConns > 200 {
			errors = append(errors, fmt.Sprintf("DB_MAX_CONNS must be between 1 and 200, got %d", cfg.DBMaxConns))
		}
		if cfg.DBMinConns < 0 || cfg.DBMinConns > cfg.DBMaxConns {
			errors = append(errors, fmt.Sprintf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS(%d), got %d", cfg.DBMaxConns, cfg.DBMinConns))
		}
	default:
		errors = append(errors, fmt.Sprintf("STORAGE_DRIVER must be %q or %q, got %q", StorageSQLite, StoragePostgres, cfg.StorageDriver))
	}

	switch strings.ToLower(cfg.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errors = append(errors, fmt.Sprintf("LOG_LEVEL must be one of debug, info, warn, error, got %q", cfg.LogLevel))
	}

	if cfg.IngestCfg.ChunkMaxTokens < 16 || cfg.IngestCfg.ChunkMaxTokens > 1000 {
		errors = append(errors, fmt.Sprintf("INGEST_CHUNK_MAX_TOKENS must be between 16 and 1000, got %d", cfg.IngestCfg.ChunkMaxTokens))
	}
	if cfg.IngestCfg.DocumentMaxBytes < 1 {
		errors = append(errors, fmt.Sprintf("INGEST_DOCUMENT_MAX_BYTES must be positive, got %d", cfg.IngestCfg.DocumentMaxBytes))
	}
	if cfg.IngestCfg.Workers < 1 || cfg.IngestCfg.Workers > 64 {
		errors = append(errors, fmt.Sprintf("INGEST_WORKERS must be between 1 and 64, got %d", cfg.IngestCfg.Workers))
	}

	if cfg.RetrievalCfg.TopK < 1 || cfg.RetrievalCfg.TopK > 100 {
		errors = append(errors, fmt.Sprintf("RETRIEVAL_TOP_K must be between 1 and 100, got %d", cfg.RetrievalCfg.TopK))
	}
	if cfg.RetrievalCfg.MinScore < 0 || cfg.RetrievalCfg.MinScore > 1 {
		errors = append(errors, fmt.Sprintf("RETRIEVAL_MIN_SCORE must be between 0 and 1, got %g", cfg.RetrievalCfg.MinScore))
	}

	if cfg.DispatchCfg.Retry.MaxRetries > 10 {
		errors = append(errors, fmt.Sprintf("DISPATCH_MAX_RETRIES must be at most 10, got %d", cfg.DispatchCfg.Retry.MaxRetries))
	}
	if cfg.DispatchCfg.Retry.Delay <= 0 || cfg.DispatchCfg.Retry.MaxDelay < cfg.DispatchCfg.Retry.Delay {
		errors = append(errors, "DISPATCH_BACKOFF_BASE must be positive and not exceed DISPATCH_BACKOFF_MAX")
	}
	if cfg.DispatchCfg.Retry.MaxJitter < 0 {
		errors = append(errors, "DISPATCH_BACKOFF_JITTER must not be negative")
	}
	if cfg.DispatchCfg.Timeout < 0 {
		errors = append(errors, "DISPATCH_TIMEOUT must not be negative")
	}
	if cfg.DispatchCfg.RateWindow <= 0 {
		errors = append(errors, "DISPATCH_RATE_WINDOW must be positive")
	}

	if cfg.CacheCfg.Enabled && cfg.CacheCfg.Capacity < 1 {
		errors = append(errors, fmt.Sprintf("CACHE_CAPACITY must be positive, got %d", cfg.CacheCfg.Capacity))
	}
	if cfg.CacheCfg.TTL <= 0 {
		errors = append(errors, "CACHE_TTL must be positive")
	}

	if cfg.ChatCfg.Temperature < 0 || cfg.ChatCfg.Temperature > 2 {
		errors = append(errors, fmt.Sprintf("CHAT_TEMPERATURE must be between 0 and 2, got %g", cfg.ChatCfg.Temperature))
	}
	if cfg.ChatCfg.MaxTokens < 1 {
		errors = append(errors, fmt.Sprintf("CHAT_MAX_TOKENS must be positive, got %d", cfg.ChatCfg.MaxTokens))
	}

	if cfg.ProvidersCfg.File == "" {
		errors = append(errors, "PROVIDERS_FILE is required")
	}

	if cfg.APIRateCfg.PerMinute < 1 || cfg.APIRateCfg.PerMinute > 6000 {
		errors = append(errors, fmt.Sprintf("API_RATE_LIMIT_PER_MINUTE must be between 1 and 6000, got %d", cfg.APIRateCfg.PerMinute))
	}
	if cfg.APIRateCfg.Burst < 1 || cfg.APIRateCfg.Burst > 1000 {
		errors = append(errors, fmt.Sprintf("API_RATE_LIMIT_BURST must be between 1 and 1000, got %d", cfg.APIRateCfg.Burst))
	}

	if cfg.FileUploadCfg.MaxFileCount < 1 {
		errors = append(errors, "FILE_UPLOAD_MAX_FILE_COUNT must be positive")
	}
	if cfg.FileUploadCfg.MaxFileSize < 1 || cfg.FileUploadCfg.MaxTotalSize < cfg.FileUploadCfg.MaxFileSize {
		errors = append(errors, "FILE_UPLOAD_MAX_FILE_SIZE must be positive and not exceed FILE_UPLOAD_MAX_TOTAL_SIZE")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation errors:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

func getEnvFile(environment string) string {
	switch environment {
	case "prod", "production":
		return ".env.prod"
	case "local", "dev", "development":
		return ".env.local"
	default:
		return fmt.Sprintf(".env.%s", environment)
	}
}
