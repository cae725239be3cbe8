package middleware

import (
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// RateLimitConfig holds rate limiting settings
type RateLimitConfig struct {
	// Max requests per IP within Expiration on /api
	APIMax        int
	APIExpiration time.Duration
}

// DefaultRateLimitConfig returns production-safe defaults
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		// 60/min = 1 req/sec; every miss costs a completion call
		APIMax:        60,
		APIExpiration: 1 * time.Minute,
	}
}

// NewRateLimitConfig builds a config allowing perMinute requests per IP.
// When perMinute is unset, non-production environments get a relaxed limit.
func NewRateLimitConfig(perMinute int, production bool) *RateLimitConfig {
	config := DefaultRateLimitConfig()
	switch {
	case perMinute > 0:
		config.APIMax = perMinute
	case !production:
		config.APIMax = 1000
		log.Println("⚠️  [RATE-LIMIT] Development mode: using relaxed rate limits")
	}
	return config
}

// APIRateLimiter creates a per-IP rate limiter for API requests
func APIRateLimiter(config *RateLimitConfig) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        config.APIMax,
		Expiration: config.APIExpiration,
		KeyGenerator: func(c *fiber.Ctx) string {
			return "api:" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			log.Printf("🚫 [RATE-LIMIT] API limit reached for IP: %s on %s", c.IP(), c.Path())
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(config.APIExpiration.Seconds())))
			return fiber.NewError(fiber.StatusTooManyRequests, "Demasiadas solicitudes. Inténtalo de nuevo más tarde.")
		},
	})
}
