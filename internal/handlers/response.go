package handlers

import (
	"errors"
	"log"
	"selen/internal/models"
	"time"

	"github.com/gofiber/fiber/v2"
)

const internalErrorMessage = "Error interno del servidor"

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// success writes the {status, data, timestamp} envelope
func success(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":    "success",
		"data":      data,
		"timestamp": timestamp(),
	})
}

// failure writes the {status, error, timestamp} envelope
func failure(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"status":    "error",
		"error":     message,
		"timestamp": timestamp(),
	})
}

// pipelineFailure maps err to a status and a client-safe message
func pipelineFailure(c *fiber.Ctx, err error) error {
	var pe *models.PipelineError
	if !errors.As(err, &pe) {
		log.Printf("❌ [SELEN] Unhandled error: %v", err)
		return failure(c, fiber.StatusInternalServerError, internalErrorMessage)
	}

	status := pe.HTTPStatus()
	if status >= fiber.StatusInternalServerError {
		return failure(c, status, internalErrorMessage+": "+pe.Message)
	}
	return failure(c, status, pe.Message)
}

// MethodNotAllowed answers every method other than allowed with 405
func MethodNotAllowed(allowed string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderAllow, allowed)
		return failure(c, fiber.StatusMethodNotAllowed, "Método no permitido, usa "+allowed)
	}
}

// ErrorHandler renders errors escaping the route handlers in the error envelope
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return failure(c, fe.Code, fe.Message)
	}
	return pipelineFailure(c, err)
}
