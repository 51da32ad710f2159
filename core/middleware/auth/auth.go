package auth

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
)

// Config holds configuration for the API key middleware.
type Config struct {
	// ApiKey is the expected key. Empty disables the check.
	ApiKey string
}

// HeaderName is the request header carrying the API key.
const HeaderName = "X-Api-Key"

// New returns a middleware that rejects requests without a valid API key.
func New(cfg Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cfg.ApiKey == "" {
			return c.Next()
		}
		provided := c.Get(HeaderName)
		if subtle.ConstantTimeCompare([]byte(provided), []byte(cfg.ApiKey)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid api key",
			})
		}
		return c.Next()
	}
}
