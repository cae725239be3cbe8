package handlers

import (
	"context"
	"log"
	"sort"
	"time"

	"github.com/gofiber/fiber/v2"
)

const healthCheckTimeout = 2 * time.Second

// HealthCheck reports whether one dependency is reachable
type HealthCheck func(ctx context.Context) error

// HealthHandler handles health check requests
type HealthHandler struct {
	environment string
	checks      map[string]HealthCheck
}

// NewHealthHandler creates a new health handler. checks may be nil.
func NewHealthHandler(environment string, checks map[string]HealthCheck) *HealthHandler {
	return &HealthHandler{environment: environment, checks: checks}
}

// Handle responds with server health status.
// Any failing dependency check turns the response into 503 "degraded".
func (h *HealthHandler) Handle(c *fiber.Ctx) error {
	body := fiber.Map{
		"status":      "ok",
		"environment": h.environment,
		"timestamp":   timestamp(),
	}
	if len(h.checks) == 0 {
		return c.JSON(body)
	}

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := fiber.StatusOK
	results := make(map[string]string, len(names))
	for _, name := range names {
		ctx, cancel := context.WithTimeout(c.UserContext(), healthCheckTimeout)
		err := h.checks[name](ctx)
		cancel()
		if err != nil {
			log.Printf("⚠️  [HEALTH] %s check failed: %v", name, err)
			results[name] = "error"
			status = fiber.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	body["checks"] = results
	if status != fiber.StatusOK {
		body["status"] = "degraded"
	}
	return c.Status(status).JSON(body)
}
