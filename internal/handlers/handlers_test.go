package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"selen/internal/models"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
)

type fakeResolver struct {
	result *models.SelenResult
	err    error
	got    []interface{}
}

func (f *fakeResolver) Resolve(_ context.Context, raw interface{}) (*models.SelenResult, error) {
	f.got = append(f.got, raw)
	if f.err != nil {
		return nil, f.err
	}
	if s, ok := raw.(string); !ok || strings.TrimSpace(s) == "" {
		return nil, models.NewValidationError("Falta el campo 'trigger' en la solicitud")
	}
	return f.result, nil
}

func setupApp(resolver TriggerResolver) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	handler := NewSelenHandler(resolver)
	health := NewHealthHandler("test", nil)

	app.Post("/api/selen", handler.Handle)
	app.All("/api/selen", MethodNotAllowed(fiber.MethodPost))
	app.Get("/api/health", health.Handle)
	app.All("/api/health", MethodNotAllowed(fiber.MethodGet))
	return app
}

func decode(t *testing.T, body io.Reader) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.NewDecoder(body).Decode(&out); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	return out
}

func TestSelenHandlerSuccess(t *testing.T) {
	resolver := &fakeResolver{result: &models.SelenResult{
		Prompt:        "prompt",
		Respuesta:     "Respuesta generada",
		FromCache:     false,
		SavedToNotion: true,
	}}
	app := setupApp(resolver)

	req := httptest.NewRequest("POST", "/api/selen", strings.NewReader(`{"trigger":"selen"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body := decode(t, resp.Body)
	if body["status"] != "success" || body["timestamp"] == "" {
		t.Errorf("unexpected envelope %v", body)
	}
	data := body["data"].(map[string]interface{})
	if data["respuesta"] != "Respuesta generada" || data["fromCache"] != false || data["savedToNotion"] != true {
		t.Errorf("unexpected data %v", data)
	}
}

func TestSelenHandlerTriggerSources(t *testing.T) {
	tests := []struct {
		name string
		url  string
		body string
		want interface{}
	}{
		{"json body", "/api/selen", `{"trigger":"body"}`, "body"},
		{"query string", "/api/selen?trigger=query", "", "query"},
		{"empty body value falls back to query", "/api/selen?trigger=query", `{"trigger":""}`, "query"},
		{"body wins over query", "/api/selen?trigger=query", `{"trigger":"body"}`, "body"},
		{"non-string is passed through", "/api/selen", `{"trigger":42}`, 42.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := &fakeResolver{result: &models.SelenResult{Respuesta: "ok"}}
			app := setupApp(resolver)

			req := httptest.NewRequest("POST", tt.url, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			if _, err := app.Test(req); err != nil {
				t.Fatalf("request failed: %v", err)
			}
			if len(resolver.got) != 1 || resolver.got[0] != tt.want {
				t.Errorf("expected resolver input %v, got %v", tt.want, resolver.got)
			}
		})
	}
}

func TestSelenHandlerNonJSONBodyUsesQuery(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
	}{
		{"form body", "application/x-www-form-urlencoded", "trigger=otro"},
		{"text body", "text/plain", "hola"},
		{"no content type", "", `{"trigger":"otro"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := &fakeResolver{result: &models.SelenResult{Respuesta: "ok"}}
			app := setupApp(resolver)

			req := httptest.NewRequest("POST", "/api/selen?trigger=selen", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			if resp.StatusCode != fiber.StatusOK {
				t.Fatalf("expected 200, got %d", resp.StatusCode)
			}
			if len(resolver.got) != 1 || resolver.got[0] != "selen" {
				t.Errorf("expected query trigger, got %v", resolver.got)
			}
		})
	}
}

func TestSelenHandlerNonJSONBodyWithoutQuery(t *testing.T) {
	app := setupApp(&fakeResolver{})
	req := httptest.NewRequest("POST", "/api/selen", strings.NewReader("trigger=selen"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
	body := decode(t, resp.Body)
	if !strings.Contains(body["error"].(string), "'trigger'") {
		t.Errorf("error should name the trigger field: %v", body["error"])
	}
}

func TestSelenHandlerBadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing body", ""},
		{"missing field", `{"other":"x"}`},
		{"null trigger", `{"trigger":null}`},
		{"blank trigger", `{"trigger":"   "}`},
		{"invalid json", `{"trigger":`},
		{"array body", `["selen"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := setupApp(&fakeResolver{})
			req := httptest.NewRequest("POST", "/api/selen", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			if resp.StatusCode != fiber.StatusBadRequest {
				t.Errorf("expected 400, got %d", resp.StatusCode)
			}
			body := decode(t, resp.Body)
			if body["status"] != "error" || body["error"] == "" {
				t.Errorf("unexpected envelope %v", body)
			}
		})
	}
}

func TestSelenHandlerMissingTriggerNamesField(t *testing.T) {
	app := setupApp(&fakeResolver{})
	resp, _ := app.Test(httptest.NewRequest("POST", "/api/selen", nil))
	body := decode(t, resp.Body)
	if !strings.Contains(body["error"].(string), "'trigger'") {
		t.Errorf("error should name the trigger field: %v", body["error"])
	}
}

func TestSelenHandlerErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", models.NewNotFoundError("nada"), fiber.StatusNotFound},
		{"auth", models.NewAuthError("no"), fiber.StatusUnauthorized},
		{"upstream", models.NewUpstreamError("Error de la API de Grok", 503, errors.New("secret detail")), fiber.StatusInternalServerError},
		{"timeout", models.NewUpstreamTimeout("lento", nil), fiber.StatusInternalServerError},
		{"persistence", models.NewPersistenceError("fallo", nil), fiber.StatusInternalServerError},
		{"unknown", errors.New("boom"), fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := setupApp(&fakeResolver{err: tt.err})
			resp, err := app.Test(httptest.NewRequest("POST", "/api/selen?trigger=selen", nil))
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			if resp.StatusCode != tt.want {
				t.Errorf("expected %d, got %d", tt.want, resp.StatusCode)
			}
			body := decode(t, resp.Body)
			if msg, _ := body["error"].(string); strings.Contains(msg, "secret detail") || strings.Contains(msg, "boom") {
				t.Errorf("error cause leaked to client: %s", msg)
			}
		})
	}
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		want    int
		message string
	}{
		{"auth error", models.NewAuthError("Acceso no autorizado"), fiber.StatusUnauthorized, "Acceso no autorizado"},
		{"fiber error", fiber.NewError(fiber.StatusTooManyRequests, "Demasiadas solicitudes"), fiber.StatusTooManyRequests, "Demasiadas solicitudes"},
		{"plain error", errors.New("boom"), fiber.StatusInternalServerError, internalErrorMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
			app.Get("/", func(c *fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			if resp.StatusCode != tt.want {
				t.Errorf("expected %d, got %d", tt.want, resp.StatusCode)
			}
			body := decode(t, resp.Body)
			if body["status"] != "error" || body["error"] != tt.message {
				t.Errorf("unexpected envelope %v", body)
			}
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	app := setupApp(&fakeResolver{})

	for _, tc := range []struct{ method, path string }{
		{"GET", "/api/selen"},
		{"PUT", "/api/selen"},
		{"DELETE", "/api/selen"},
		{"POST", "/api/health"},
	} {
		resp, err := app.Test(httptest.NewRequest(tc.method, tc.path, nil))
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if resp.StatusCode != fiber.StatusMethodNotAllowed {
			t.Errorf("%s %s: expected 405, got %d", tc.method, tc.path, resp.StatusCode)
		}
	}
}

func TestHealthHandler(t *testing.T) {
	app := setupApp(&fakeResolver{})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/health", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := decode(t, resp.Body)
	if body["status"] != "ok" || body["environment"] != "test" {
		t.Errorf("unexpected health body %v", body)
	}
}

func TestHealthHandlerChecks(t *testing.T) {
	tests := []struct {
		name   string
		checks map[string]HealthCheck
		want   int
		status string
		redis  string
	}{
		{
			name:   "all reachable",
			checks: map[string]HealthCheck{"redis": func(context.Context) error { return nil }},
			want:   fiber.StatusOK,
			status: "ok",
			redis:  "ok",
		},
		{
			name: "one unreachable",
			checks: map[string]HealthCheck{
				"redis":   func(context.Context) error { return errors.New("connection refused") },
				"mongodb": func(context.Context) error { return nil },
			},
			want:   fiber.StatusServiceUnavailable,
			status: "degraded",
			redis:  "error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/api/health", NewHealthHandler("test", tt.checks).Handle)

			resp, err := app.Test(httptest.NewRequest("GET", "/api/health", nil))
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			if resp.StatusCode != tt.want {
				t.Errorf("expected %d, got %d", tt.want, resp.StatusCode)
			}
			body := decode(t, resp.Body)
			if body["status"] != tt.status {
				t.Errorf("expected status %q, got %v", tt.status, body["status"])
			}
			checks := body["checks"].(map[string]interface{})
			if checks["redis"] != tt.redis {
				t.Errorf("expected redis %q, got %v", tt.redis, checks["redis"])
			}
			if msg, _ := checks["redis"].(string); msg == "connection refused" {
				t.Error("check error leaked to client")
			}
		})
	}
}
