// Package config loads server configuration from environment variables,
// with an optional YAML file overlay for non-secret settings.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/chaiyot-k/textpaste/internal/apperr"
)

// Storage backend selectors.
const (
	BackendFS = "fs"
	BackendS3 = "s3"
)

// Config holds all application configuration.
type Config struct {
	// General
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	ListenAddr  string `envconfig:"LISTEN_ADDR" default:":3000"`

	// Secrets. AppPassword is checked on login; TokenSecret keys the
	// HMAC tokens and falls back to AppPassword when unset, matching
	// the original single-secret deployment.
	AppPassword string        `envconfig:"APP_PASSWORD"`
	TokenSecret string        `envconfig:"TOKEN_SECRET"`
	TokenTTL    time.Duration `envconfig:"TOKEN_TTL" default:"8h"`

	// Storage
	StorageBackend string        `envconfig:"STORAGE_BACKEND" default:"fs"`
	RecordsDir     string        `envconfig:"RECORDS_DIR" default:"./records"`
	StorageTimeout time.Duration `envconfig:"STORAGE_TIMEOUT" default:"10s"`

	// S3 (used when STORAGE_BACKEND=s3)
	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3Region    string `envconfig:"S3_REGION"`
	S3Bucket    string `envconfig:"S3_BUCKET"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY"`
	S3SecretKey string `envconfig:"S3_SECRET_KEY"`

	// Records
	RetentionDays    int `envconfig:"RETENTION_DAYS" default:"2"`
	PageSize         int `envconfig:"PAGE_SIZE" default:"10"`
	ContentCacheSize int `envconfig:"CONTENT_CACHE_SIZE" default:"256"`

	// HTTP
	CORSOrigins    string `envconfig:"CORS_ORIGINS" default:"*"`
	RateLimitRPS   int    `envconfig:"RATE_LIMIT_RPS" default:"0"`
	RateLimitBurst int    `envconfig:"RATE_LIMIT_BURST" default:"0"`
	StaticDir      string `envconfig:"STATIC_DIR"`

	// Optional YAML overlay for the non-secret settings above.
	ConfigFile string `envconfig:"CONFIG_FILE"`
}

// fileConfig mirrors the YAML overlay. Secrets are deliberately absent:
// they come from the environment only.
type fileConfig struct {
	Environment      *string        `yaml:"environment"`
	LogLevel         *string        `yaml:"log_level"`
	ListenAddr       *string        `yaml:"listen_addr"`
	StorageBackend   *string        `yaml:"storage_backend"`
	RecordsDir       *string        `yaml:"records_dir"`
	StorageTimeout   *time.Duration `yaml:"storage_timeout"`
	S3Endpoint       *string        `yaml:"s3_endpoint"`
	S3Region         *string        `yaml:"s3_region"`
	S3Bucket         *string        `yaml:"s3_bucket"`
	RetentionDays    *int           `yaml:"retention_days"`
	PageSize         *int           `yaml:"page_size"`
	ContentCacheSize *int           `yaml:"content_cache_size"`
	CORSOrigins      *string        `yaml:"cors_origins"`
	RateLimitRPS     *int           `yaml:"rate_limit_rps"`
	RateLimitBurst   *int           `yaml:"rate_limit_burst"`
	StaticDir        *string        `yaml:"static_dir"`
}

// Load reads configuration from the environment, then applies the YAML
// overlay for any setting whose environment variable is not explicitly
// set. Precedence: explicit env var > file > built-in default.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if cfg.ConfigFile != "" {
		if err := cfg.applyFile(cfg.ConfigFile); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}

	overlayString(&c.Environment, fc.Environment, "ENVIRONMENT")
	overlayString(&c.LogLevel, fc.LogLevel, "LOG_LEVEL")
	overlayString(&c.ListenAddr, fc.ListenAddr, "LISTEN_ADDR")
	overlayString(&c.StorageBackend, fc.StorageBackend, "STORAGE_BACKEND")
	overlayString(&c.RecordsDir, fc.RecordsDir, "RECORDS_DIR")
	overlayDuration(&c.StorageTimeout, fc.StorageTimeout, "STORAGE_TIMEOUT")
	overlayString(&c.S3Endpoint, fc.S3Endpoint, "S3_ENDPOINT")
	overlayString(&c.S3Region, fc.S3Region, "S3_REGION")
	overlayString(&c.S3Bucket, fc.S3Bucket, "S3_BUCKET")
	overlayInt(&c.RetentionDays, fc.RetentionDays, "RETENTION_DAYS")
	overlayInt(&c.PageSize, fc.PageSize, "PAGE_SIZE")
	overlayInt(&c.ContentCacheSize, fc.ContentCacheSize, "CONTENT_CACHE_SIZE")
	overlayString(&c.CORSOrigins, fc.CORSOrigins, "CORS_ORIGINS")
	overlayInt(&c.RateLimitRPS, fc.RateLimitRPS, "RATE_LIMIT_RPS")
	overlayInt(&c.RateLimitBurst, fc.RateLimitBurst, "RATE_LIMIT_BURST")
	overlayString(&c.StaticDir, fc.StaticDir, "STATIC_DIR")
	return nil
}

func overlayString(dst *string, src *string, envName string) {
	if src != nil && !envIsSet(envName) {
		*dst = *src
	}
}

func overlayInt(dst *int, src *int, envName string) {
	if src != nil && !envIsSet(envName) {
		*dst = *src
	}
}

func overlayDuration(dst *time.Duration, src *time.Duration, envName string) {
	if src != nil && !envIsSet(envName) {
		*dst = *src
	}
}

func envIsSet(name string) bool {
	_, ok := os.LookupEnv(name)
	return ok
}

// Validate checks the settings the server cannot run without. A missing
// APP_PASSWORD is allowed at startup: the login route must be able to
// answer 500 for it. The S3 backend cannot be constructed lazily, so
// its settings are checked here.
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case BackendFS:
		if c.RecordsDir == "" {
			return fmt.Errorf("%w: RECORDS_DIR must not be empty", apperr.ErrConfig)
		}
	case BackendS3:
		if c.S3Bucket == "" || c.S3Region == "" {
			return fmt.Errorf("%w: S3_BUCKET and S3_REGION are required for the s3 backend", apperr.ErrConfig)
		}
	default:
		return fmt.Errorf("%w: unknown STORAGE_BACKEND %q", apperr.ErrConfig, c.StorageBackend)
	}
	if c.RetentionDays < 0 {
		return fmt.Errorf("%w: RETENTION_DAYS must not be negative", apperr.ErrConfig)
	}
	if c.PageSize < 1 {
		return fmt.Errorf("%w: PAGE_SIZE must be at least 1", apperr.ErrConfig)
	}
	return nil
}

// TokenKey returns the HMAC key for tokens: TOKEN_SECRET when set,
// otherwise the login password, as in the original deployment.
func (c *Config) TokenKey() string {
	if c.TokenSecret != "" {
		return c.TokenSecret
	}
	return c.AppPassword
}
