package validation

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type Config struct {
	// MaxBodyBytes caps uploads before they reach the decoder.
	MaxBodyBytes int
	Logger       *zap.Logger
}

// EvaluateGuard rejects evaluation uploads that are oversized or not
// multipart before any audio processing happens.
func EvaluateGuard(cfg Config) fiber.Handler {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return func(c *fiber.Ctx) error {
		if cfg.MaxBodyBytes > 0 && len(c.Body()) > cfg.MaxBodyBytes {
			cfg.Logger.Warn("upload rejected: body too large",
				zap.Int("bytes", len(c.Body())),
				zap.Int("limit", cfg.MaxBodyBytes),
			)
			return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
				"error": "Audio upload too large",
			})
		}

		contentType := c.Get(fiber.HeaderContentType)
		if !strings.HasPrefix(contentType, fiber.MIMEMultipartForm) {
			return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
				"error": "Expected multipart/form-data",
			})
		}

		return c.Next()
	}
}
