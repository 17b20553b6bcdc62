package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"ENVIRONMENT", "LOG_LEVEL", "LISTEN_ADDR", "APP_PASSWORD", "TOKEN_SECRET",
		"TOKEN_TTL", "STORAGE_BACKEND", "RECORDS_DIR", "STORAGE_TIMEOUT",
		"S3_ENDPOINT", "S3_REGION", "S3_BUCKET", "S3_ACCESS_KEY", "S3_SECRET_KEY",
		"RETENTION_DAYS", "PAGE_SIZE", "CONTENT_CACHE_SIZE", "CORS_ORIGINS",
		"RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "STATIC_DIR", "CONFIG_FILE",
	} {
		if _, ok := os.LookupEnv(name); ok {
			t.Setenv(name, "")
			os.Unsetenv(name)
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, ":3000", cfg.ListenAddr)
	assert.Equal(t, BackendFS, cfg.StorageBackend)
	assert.Equal(t, "./records", cfg.RecordsDir)
	assert.Equal(t, 8*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 2, cfg.RetentionDays)
	assert.Equal(t, 10, cfg.PageSize)
	assert.Equal(t, 256, cfg.ContentCacheSize)
	assert.Equal(t, "*", cfg.CORSOrigins)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_PASSWORD", "hunter2")
	t.Setenv("LISTEN_ADDR", ":8080")
	t.Setenv("RETENTION_DAYS", "5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "hunter2", cfg.AppPassword)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, 5, cfg.RetentionDays)
}

func TestLoad_S3BackendValidation(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORAGE_BACKEND", "s3")

	_, err := Load()
	require.Error(t, err)

	t.Setenv("S3_BUCKET", "clips")
	t.Setenv("S3_REGION", "ap-southeast-1")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendS3, cfg.StorageBackend)
}

func TestLoad_UnknownBackend(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORAGE_BACKEND", "ftp")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_FileOverlay(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "server.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"listen_addr: \":9000\"\nretention_days: 7\nlog_level: warn\n"), 0o644))

	t.Setenv("CONFIG_FILE", path)
	// Explicit env var beats the file.
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.ListenAddr, "file overrides default")
	assert.Equal(t, 7, cfg.RetentionDays)
	assert.Equal(t, "debug", cfg.LogLevel, "env overrides file")
}

func TestLoad_FileOverlayErrors(t *testing.T) {
	clearEnv(t)

	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := Load()
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("listen_addr: [oops"), 0o644))
	t.Setenv("CONFIG_FILE", bad)
	_, err = Load()
	assert.Error(t, err)
}

func TestTokenKey(t *testing.T) {
	cfg := &Config{AppPassword: "pw"}
	assert.Equal(t, "pw", cfg.TokenKey())

	cfg.TokenSecret = "separate-key"
	assert.Equal(t, "separate-key", cfg.TokenKey())
}
