package middleware

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"selen/internal/handlers"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
)

func newTestApp() *fiber.App {
	return fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler})
}

func decodeError(t *testing.T, body io.Reader) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.NewDecoder(body).Decode(&out); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	return out
}

func TestBypassCheck(t *testing.T) {
	app := newTestApp()
	app.Post("/api/selen", BypassCheck("s3cret"), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"absent header proceeds", "", fiber.StatusOK},
		{"matching secret proceeds", "s3cret", fiber.StatusOK},
		{"mismatched secret rejected", "wrong", fiber.StatusUnauthorized},
		{"prefix rejected", "s3cre", fiber.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/selen", nil)
			if tt.header != "" {
				req.Header.Set(BypassHeader, tt.header)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			if resp.StatusCode != tt.want {
				t.Errorf("expected %d, got %d", tt.want, resp.StatusCode)
			}
			if tt.want == fiber.StatusUnauthorized {
				body := decodeError(t, resp.Body)
				if body["status"] != "error" || body["error"] != "Acceso no autorizado: protección Vercel activa." {
					t.Errorf("unexpected envelope %v", body)
				}
			}
		})
	}
}

func TestBypassCheckEmptySecretRejectsHeader(t *testing.T) {
	app := newTestApp()
	app.Post("/", BypassCheck(""), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest("POST", "/", nil)
	req.Header.Set(BypassHeader, "anything")
	resp, _ := app.Test(req)
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("expected 401, got %d", resp.StatusCode)
	}
}

func TestAPIRateLimiter(t *testing.T) {
	app := newTestApp()
	app.Use(APIRateLimiter(&RateLimitConfig{APIMax: 2, APIExpiration: time.Minute}))
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	for i := 0; i < 2; i++ {
		resp, _ := app.Test(httptest.NewRequest("GET", "/", nil))
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, resp.StatusCode)
		}
	}

	resp, _ := app.Test(httptest.NewRequest("GET", "/", nil))
	if resp.StatusCode != fiber.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Retry-After") != "60" {
		t.Errorf("expected Retry-After 60, got %q", resp.Header.Get("Retry-After"))
	}
	body := decodeError(t, resp.Body)
	if body["status"] != "error" || body["error"] == "" {
		t.Errorf("unexpected envelope %v", body)
	}
}

func TestNewRateLimitConfig(t *testing.T) {
	tests := []struct {
		name       string
		perMinute  int
		production bool
		want       int
	}{
		{"explicit limit in production", 30, true, 30},
		{"explicit limit in development", 30, false, 30},
		{"unset in production", 0, true, 60},
		{"unset in development", 0, false, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if cfg := NewRateLimitConfig(tt.perMinute, tt.production); cfg.APIMax != tt.want {
				t.Errorf("expected %d, got %d", tt.want, cfg.APIMax)
			}
		})
	}
}
