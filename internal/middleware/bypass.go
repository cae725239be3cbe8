package middleware

import (
	"crypto/subtle"
	"log"
	"selen/internal/models"

	"github.com/gofiber/fiber/v2"
)

// BypassHeader carries the shared automation secret
const BypassHeader = "x-vercel-protection-bypass"

// BypassCheck rejects requests whose bypass header does not match secret.
// Requests without the header pass through.
func BypassCheck(secret string) fiber.Handler {
	expected := []byte(secret)

	return func(c *fiber.Ctx) error {
		provided := c.Get(BypassHeader)
		if provided == "" {
			return c.Next()
		}

		if len(expected) == 0 || subtle.ConstantTimeCompare([]byte(provided), expected) != 1 {
			log.Printf("🚫 [AUTH] Bypass secret mismatch from IP: %s", c.IP())
			return models.NewAuthError("Acceso no autorizado: protección Vercel activa.")
		}
		return c.Next()
	}
}
