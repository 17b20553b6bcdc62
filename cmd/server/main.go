package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/chaiyot-k/textpaste/internal/config"
	"github.com/chaiyot-k/textpaste/internal/health"
	"github.com/chaiyot-k/textpaste/internal/metrics"
	"github.com/chaiyot-k/textpaste/internal/record"
	"github.com/chaiyot-k/textpaste/internal/server"
	"github.com/chaiyot-k/textpaste/internal/store"
	"github.com/chaiyot-k/textpaste/internal/store/fsstore"
	"github.com/chaiyot-k/textpaste/internal/store/s3store"
	"github.com/chaiyot-k/textpaste/internal/token"
)

func main() {
	// Setup structured logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zerolog.New(os.Stdout).With().Timestamp().Caller().Logger()

	if os.Getenv("ENVIRONMENT") == "development" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	log.Logger = logger

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	if cfg.AppPassword == "" {
		logger.Warn().Msg("APP_PASSWORD is not set, logins will fail until it is configured")
	}

	logger.Info().
		Str("environment", cfg.Environment).
		Str("listen_addr", cfg.ListenAddr).
		Str("storage_backend", cfg.StorageBackend).
		Int("retention_days", cfg.RetentionDays).
		Msg("starting textpaste server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Storage backend
	var st store.Store
	switch cfg.StorageBackend {
	case config.BackendS3:
		st, err = s3store.New(ctx, s3store.Config{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
	default:
		st, err = fsstore.New(cfg.RecordsDir)
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init storage backend")
	}

	m := metrics.New()

	records := record.NewService(st, record.Config{
		PageSize:       cfg.PageSize,
		RetentionDays:  cfg.RetentionDays,
		StorageTimeout: cfg.StorageTimeout,
		CacheSize:      cfg.ContentCacheSize,
	}, m, logger)

	codec := token.New(cfg.TokenKey(), cfg.TokenTTL)

	checker := health.NewChecker(logger)
	checker.Register("storage", func(ctx context.Context) health.Status {
		if err := st.Ping(ctx); err != nil {
			return health.StatusDown
		}
		return health.StatusOK
	})

	srv := server.NewServer(server.Config{
		ListenAddr:  cfg.ListenAddr,
		CORSOrigins: cfg.CORSOrigins,
		RateLimit: server.RateLimitConfig{
			RPS:   cfg.RateLimitRPS,
			Burst: cfg.RateLimitBurst,
		},
		StaticDir: cfg.StaticDir,
	}, records, codec, cfg.AppPassword, checker, m, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("shutting down gracefully")
	case err := <-errCh:
		logger.Fatal().Err(err).Msg("http server error")
	}

	cancel()

	if err := srv.Shutdown(); err != nil {
		logger.Error().Err(err).Msg("http server shutdown error")
	}

	// Let in-flight retention sweeps finish.
	done := make(chan struct{})
	go func() {
		records.WaitSweeps()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(15 * time.Second):
		logger.Warn().Msg("forced shutdown after timeout")
	}

	logger.Info().Msg("textpaste server stopped")
}
