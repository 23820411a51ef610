package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":5000", cfg.HTTP.Address)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "task_manager.db?_busy_timeout=5000", cfg.Database.DSN)
	assert.Equal(t, 168*time.Hour, cfg.JWT.TTL)
	assert.Equal(t, DevJWTSecret, cfg.JWT.SecretKey)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, 20, cfg.RateLimit.AuthRequests)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.False(t, cfg.ErrorsOnly())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("HTTP_ADDRESS", ":8081")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_DSN", "host=localhost user=tasks dbname=tasks")
	t.Setenv("JWT_TTL", "1h")
	t.Setenv("LOG_LEVEL", "ERROR")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8081", cfg.HTTP.Address)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "host=localhost user=tasks dbname=tasks", cfg.Database.DSN)
	assert.Equal(t, time.Hour, cfg.JWT.TTL)
	assert.True(t, cfg.ErrorsOnly())
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("http:\n  address: \":7000\"\nredis:\n  addr: \"cache:6379\"\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.HTTP.Address)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
}

func TestLoadMissingFileFallsBackToEnv(t *testing.T) {
	t.Setenv("REDIS_ADDR", "redis:6380")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "redis:6380", cfg.Redis.Addr)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "mongodb")

	_, err := Load("")
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestLoadRejectsDevSecretInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	_, err := Load("")
	assert.ErrorContains(t, err, "jwt secret key must be set in production")

	t.Setenv("JWT_SECRET_KEY", "a-real-secret")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Env)
}
