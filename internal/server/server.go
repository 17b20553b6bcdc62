// Package server binds the record service and token codec to the HTTP
// wire contract consumed by the web, iOS, and macOS clients.
package server

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"

	"github.com/chaiyot-k/textpaste/internal/health"
	"github.com/chaiyot-k/textpaste/internal/metrics"
	"github.com/chaiyot-k/textpaste/internal/record"
	"github.com/chaiyot-k/textpaste/internal/requestid"
	"github.com/chaiyot-k/textpaste/internal/token"
)

// Config holds the HTTP server settings.
type Config struct {
	ListenAddr  string
	CORSOrigins string
	RateLimit   RateLimitConfig
	StaticDir   string
}

// Server is the textpaste Fiber application.
type Server struct {
	app      *fiber.App
	handlers *Handlers
	logger   zerolog.Logger
	config   Config
}

// NewServer creates and configures the HTTP server.
func NewServer(
	cfg Config,
	records *record.Service,
	codec *token.Codec,
	appPassword string,
	checker *health.Checker,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(logger),
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
	})

	handlers := NewHandlers(records, codec, appPassword, checker, logger)

	s := &Server{
		app:      app,
		handlers: handlers,
		logger:   logger.With().Str("component", "server").Logger(),
		config:   cfg,
	}

	s.setupMiddleware(cfg, m, logger)
	s.setupRoutes(handlers, m)

	return s
}

func (s *Server) setupMiddleware(cfg Config, m *metrics.Metrics, logger zerolog.Logger) {
	s.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	// Request ID middleware
	s.app.Use(func(c *fiber.Ctx) error {
		ctx, reqID := requestid.New(c.UserContext())
		c.SetUserContext(ctx)
		c.Set("X-Request-ID", reqID)
		c.Locals("request_id", reqID)
		return c.Next()
	})

	// CORS: the API is consumed cross-origin by the web client, so
	// default to fully permissive.
	origins := cfg.CORSOrigins
	if origins == "" {
		origins = "*"
	}
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowHeaders: "Origin, Content-Type, Accept, x-auth-token, Authorization, X-Request-ID",
		AllowMethods: "GET, POST, DELETE, OPTIONS",
	}))

	if cfg.RateLimit.RPS > 0 {
		s.app.Use(NewRateLimitMiddleware(cfg.RateLimit))
	}

	// Request log + metrics
	s.app.Use(func(c *fiber.Ctx) error {
		path := c.Path()
		if path == "/healthz" || path == "/readyz" || path == "/metrics" {
			return c.Next()
		}

		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if m != nil {
			m.RecordRequest(c.Route().Path, strconv.Itoa(status))
			m.ObserveDuration(c.Route().Path, time.Since(start).Seconds())
		}
		logger.Info().
			Str("method", c.Method()).
			Str("path", path).
			Int("status", status).
			Str("ip", c.IP()).
			Dur("duration", time.Since(start)).
			Str("request_id", c.GetRespHeader("X-Request-ID")).
			Msg("http request")

		return err
	})
}

func (s *Server) setupRoutes(h *Handlers, m *metrics.Metrics) {
	// Probe endpoints
	s.app.Get("/healthz", h.Liveness)
	s.app.Get("/readyz", h.Readiness)

	if m != nil {
		s.app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))
	}

	// Every API route answers preflight with an empty 200.
	s.app.Options("/*", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	// Auth endpoints
	s.app.Post("/login", h.Login)
	s.app.Get("/login", h.VerifyToken)

	// Record endpoints, all behind the bearer token
	auth := NewAuthMiddleware(h.codec, s.logger)
	s.app.Post("/save", auth, h.Save)
	s.app.Get("/records", auth, h.ListRecords)
	s.app.Get("/record/:filename", auth, h.GetRecord)
	s.app.Delete("/delete", auth, h.DeleteRecord)

	// Bundled web client
	if s.config.StaticDir != "" {
		s.app.Static("/", s.config.StaticDir)
	}
}

// Start starts the server. Blocks until stopped.
func (s *Server) Start() error {
	addr := s.config.ListenAddr
	if addr == "" {
		addr = ":3000"
	}
	s.logger.Info().Str("addr", addr).Msg("http server starting")
	return s.app.Listen(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	s.logger.Info().Msg("http server shutting down")
	return s.app.Shutdown()
}

// App returns the underlying Fiber app (useful for testing).
func (s *Server) App() *fiber.App {
	return s.app
}

func errorHandler(logger zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
		}

		logger.Error().
			Err(err).
			Int("status", code).
			Str("path", c.Path()).
			Str("method", c.Method()).
			Msg("unhandled error")

		msg := "Internal server error"
		if code != fiber.StatusInternalServerError {
			msg = err.Error()
		}
		return errorResponse(c, code, msg)
	}
}

// errorResponse writes the {"error": "..."} shape the clients expect.
func errorResponse(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": msg})
}
