package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"selen/internal/models"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://api.notion.com"
	APIVersion     = "2022-06-28"

	// Notion allows an average of three requests per second per integration
	requestsPerSecond = 3
)

// Client is a minimal Notion REST client shared by the content store and the persister
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a Notion client. An empty baseURL uses the public API.
func NewClient(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
	}
}

// apiError is the error body Notion returns for non-2xx responses
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// do sends a JSON request to endpoint and decodes the JSON response into out
func (c *Client) do(ctx context.Context, method, endpoint string, body, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return models.NewUpstreamError("Notion request cancelled", 0, err)
	}

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/v1"+endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Notion-Version", APIVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return models.NewUpstreamTimeout("Notion no respondió a tiempo", err)
		}
		return models.NewUpstreamError("No se pudo contactar a Notion", 0, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.NewUpstreamError("Respuesta de Notion ilegible", resp.StatusCode, err)
	}

	if resp.StatusCode >= 400 {
		var cause error
		var apiErr apiError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Message != "" {
			cause = errors.New(apiErr.Message)
		}
		return models.NewUpstreamError("Error de la API de Notion", resp.StatusCode, cause)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return models.NewUpstreamError("Respuesta de Notion malformada", resp.StatusCode, err)
	}
	return nil
}

// cleanID strips the hyphens Notion shows in database URLs
func cleanID(id string) string {
	return strings.ReplaceAll(strings.TrimSpace(id), "-", "")
}
