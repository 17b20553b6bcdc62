package server

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/chaiyot-k/textpaste/internal/token"
)

// tokenHeader is the header the native clients send the bearer token in.
const tokenHeader = "x-auth-token"

// NewAuthMiddleware returns a Fiber middleware that rejects requests
// without a valid, unexpired token.
func NewAuthMiddleware(codec *token.Codec, logger zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tok := c.Get(tokenHeader)
		if tok == "" {
			// Web clients may use the standard Authorization header.
			if h := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(h, "Bearer ") {
				tok = strings.TrimPrefix(h, "Bearer ")
			}
		}

		if tok == "" {
			return errorResponse(c, fiber.StatusUnauthorized, "Missing auth token")
		}

		if !codec.Verify(tok, time.Now().UnixMilli()) {
			logger.Warn().
				Str("path", c.Path()).
				Str("method", c.Method()).
				Str("ip", c.IP()).
				Msg("unauthorized request: invalid or expired token")
			return errorResponse(c, fiber.StatusUnauthorized, "Invalid or expired token")
		}

		return c.Next()
	}
}
