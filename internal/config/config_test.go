package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse("test")
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.Environment)
	assert.Equal(t, StorageSQLite, cfg.StorageDriver)
	assert.Equal(t, 300, cfg.IngestCfg.ChunkMaxTokens)
	assert.Equal(t, 5, cfg.RetrievalCfg.TopK)
	assert.Equal(t, uint(3), cfg.DispatchCfg.Retry.MaxRetries)
	assert.Equal(t, 200*time.Millisecond, cfg.DispatchCfg.Retry.Delay)
	assert.Equal(t, time.Minute, cfg.DispatchCfg.RateWindow)
	assert.Equal(t, 5*time.Minute, cfg.CacheCfg.TTL)
	assert.Equal(t, "providers.yaml", cfg.ProvidersCfg.File)
	assert.Equal(t, 0.7, cfg.ChatCfg.Temperature)
	assert.Equal(t, 1024, cfg.ChatCfg.MaxTokens)
}

func TestParse_Overrides(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/db")
	t.Setenv("DISPATCH_MAX_RETRIES", "5")
	t.Setenv("DISPATCH_BACKOFF_BASE", "1s")
	t.Setenv("DISPATCH_BACKOFF_MAX", "10s")
	t.Setenv("RETRIEVAL_MIN_SCORE", "0.2")
	t.Setenv("CACHE_ENABLED", "false")

	cfg, err := Parse("local")
	require.NoError(t, err)

	assert.Equal(t, StoragePostgres, cfg.StorageDriver)
	assert.Equal(t, uint(5), cfg.DispatchCfg.Retry.MaxRetries)
	assert.Equal(t, time.Second, cfg.DispatchCfg.Retry.Delay)
	assert.Equal(t, 0.2, cfg.RetrievalCfg.MinScore)
	assert.False(t, cfg.CacheCfg.Enabled)
}

func TestParse_CollectsAllViolations(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("LOG_LEVEL", "loud")
	t.Setenv("RETRIEVAL_TOP_K", "0")
	t.Setenv("INGEST_WORKERS", "0")
	t.Setenv("CHAT_TEMPERATURE", "3")

	_, err := Parse("local")
	require.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, "DATABASE_URL")
	assert.Contains(t, msg, "LOG_LEVEL")
	assert.Contains(t, msg, "RETRIEVAL_TOP_K")
	assert.Contains(t, msg, "INGEST_WORKERS")
	assert.Contains(t, msg, "CHAT_TEMPERATURE")
}

func TestGetEnvFile(t *testing.T) {
	assert.Equal(t, ".env.prod", getEnvFile("production"))
	assert.Equal(t, ".env.local", getEnvFile("dev"))
	assert.Equal(t, ".env.staging", getEnvFile("staging"))
}
