package handlers

import (
	"context"
	"log"
	"selen/internal/models"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// TriggerResolver runs the trigger pipeline
type TriggerResolver interface {
	Resolve(ctx context.Context, raw interface{}) (*models.SelenResult, error)
}

// SelenHandler handles trigger resolution requests
type SelenHandler struct {
	resolver TriggerResolver
}

// NewSelenHandler creates a new Selen handler
func NewSelenHandler(resolver TriggerResolver) *SelenHandler {
	return &SelenHandler{resolver: resolver}
}

// Handle resolves the trigger given in the JSON body or the query string
// POST /api/selen
func (h *SelenHandler) Handle(c *fiber.Ctx) error {
	log.Printf("📥 [SELEN] Request received: %s %s", c.Method(), c.OriginalURL())

	raw, err := triggerFromRequest(c)
	if err != nil {
		return failure(c, fiber.StatusBadRequest, "El cuerpo de la solicitud no es JSON válido")
	}
	if raw == nil {
		return failure(c, fiber.StatusBadRequest, "Falta el campo 'trigger' en la solicitud")
	}

	result, err := h.resolver.Resolve(c.UserContext(), raw)
	if err != nil {
		return pipelineFailure(c, err)
	}
	return success(c, result)
}

// triggerFromRequest returns the body trigger, falling back to ?trigger= when
// the body is not JSON or has no usable value. nil means no trigger was sent.
func triggerFromRequest(c *fiber.Ctx) (interface{}, error) {
	var body map[string]interface{}
	if c.Is("json") && len(strings.TrimSpace(string(c.Body()))) > 0 {
		if err := c.BodyParser(&body); err != nil {
			return nil, err
		}
	}

	fromBody, inBody := body["trigger"]
	if s, ok := fromBody.(string); inBody && fromBody != nil && (!ok || s != "") {
		return fromBody, nil
	}

	if q := c.Query("trigger"); q != "" {
		return q, nil
	}
	if inBody {
		return fromBody, nil
	}
	return nil, nil
}
