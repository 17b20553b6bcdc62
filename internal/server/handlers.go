package server

import (
	"crypto/subtle"
	"errors"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/chaiyot-k/textpaste/internal/apperr"
	"github.com/chaiyot-k/textpaste/internal/health"
	"github.com/chaiyot-k/textpaste/internal/record"
	"github.com/chaiyot-k/textpaste/internal/token"
)

// Handlers holds dependencies for the HTTP handlers.
type Handlers struct {
	records     *record.Service
	codec       *token.Codec
	appPassword string
	checker     *health.Checker
	logger      zerolog.Logger

	// now is swapped out in tests.
	now func() time.Time
}

// NewHandlers creates a Handlers instance.
func NewHandlers(records *record.Service, codec *token.Codec, appPassword string, checker *health.Checker, logger zerolog.Logger) *Handlers {
	return &Handlers{
		records:     records,
		codec:       codec,
		appPassword: appPassword,
		checker:     checker,
		logger:      logger.With().Str("component", "handlers").Logger(),
		now:         time.Now,
	}
}

type loginRequest struct {
	Password string `json:"password"`
}

type saveRequest struct {
	Text string `json:"text"`
}

// Login handles POST /login: password check, token minting.
func (h *Handlers) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if h.appPassword == "" {
		return errorResponse(c, fiber.StatusInternalServerError, "APP_PASSWORD is not set on the server.")
	}

	if subtle.ConstantTimeCompare([]byte(req.Password), []byte(h.appPassword)) != 1 {
		return errorResponse(c, fiber.StatusUnauthorized, "Wrong password")
	}

	tok := h.codec.Sign(h.now().UnixMilli())
	return c.JSON(fiber.Map{"success": true, "token": tok})
}

// VerifyToken handles GET /login?token=T: reports token validity
// without minting anything.
func (h *Handlers) VerifyToken(c *fiber.Ctx) error {
	tok := c.Query("token")
	return c.JSON(fiber.Map{"valid": h.codec.Verify(tok, h.now().UnixMilli())})
}

// Save handles POST /save.
func (h *Handlers) Save(c *fiber.Ctx) error {
	var req saveRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}

	id, err := h.records.Save(c.UserContext(), req.Text, h.now())
	if err != nil {
		if errors.Is(err, apperr.ErrInvalidInput) {
			return errorResponse(c, fiber.StatusBadRequest, "Text is empty")
		}
		h.logger.Error().Err(err).Msg("save failed")
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to save record")
	}

	return c.JSON(fiber.Map{"success": true, "filename": id})
}

// ListRecords handles GET /records?page=N.
func (h *Handlers) ListRecords(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)

	listing, err := h.records.List(c.UserContext(), page)
	if err != nil {
		h.logger.Error().Err(err).Msg("list failed")
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to list records")
	}

	return c.JSON(listing)
}

// GetRecord handles GET /record/:filename.
func (h *Handlers) GetRecord(c *fiber.Ctx) error {
	id, err := urlDecodedParam(c, "filename")
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid filename")
	}

	content, err := h.records.Read(c.UserContext(), id)
	if err != nil {
		return h.recordError(c, err, "read")
	}

	return c.JSON(fiber.Map{"filename": id, "content": content})
}

// DeleteRecord handles DELETE /delete?filename=ID.
func (h *Handlers) DeleteRecord(c *fiber.Ctx) error {
	id := c.Query("filename")

	if err := h.records.Delete(c.UserContext(), id); err != nil {
		return h.recordError(c, err, "delete")
	}

	return c.JSON(fiber.Map{"success": true})
}

// Liveness handles GET /healthz.
func (h *Handlers) Liveness(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Readiness handles GET /readyz: checks the storage backend.
func (h *Handlers) Readiness(c *fiber.Ctx) error {
	results := h.checker.RunAll(c.UserContext())
	for _, status := range results {
		if status == health.StatusDown {
			return c.Status(fiber.StatusServiceUnavailable).
				JSON(fiber.Map{"status": "not_ready", "checks": results})
		}
	}
	return c.JSON(fiber.Map{"status": "ready", "checks": results})
}

func (h *Handlers) recordError(c *fiber.Ctx, err error, op string) error {
	switch {
	case errors.Is(err, apperr.ErrInvalidInput):
		return errorResponse(c, fiber.StatusBadRequest, "Invalid filename")
	case errors.Is(err, apperr.ErrNotFound):
		return errorResponse(c, fiber.StatusNotFound, "Record not found")
	default:
		h.logger.Error().Err(err).Str("op", op).Msg("record operation failed")
		return errorResponse(c, fiber.StatusInternalServerError, "Storage error")
	}
}

// urlDecodedParam returns a decoded path parameter. Percent-encoded
// traversal sequences must be decoded before validation sees them.
func urlDecodedParam(c *fiber.Ctx, name string) (string, error) {
	return url.PathUnescape(c.Params(name))
}
