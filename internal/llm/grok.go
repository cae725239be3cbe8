package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"selen/internal/models"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// NoAnswer is returned when the completion carries no usable text
const NoAnswer = "(sin respuesta)"

const (
	completionsPath = "/v1/completions"
	maxErrorBody    = 2048
	promptLogLength = 100
)

// GrokConfig configures the xAI completions client
type GrokConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
	Logger  *logrus.Logger // nil uses a JSON logger on stderr
}

// GrokClient calls the xAI legacy text completions endpoint
type GrokClient struct {
	apiKey  string
	baseURL string
	model   string
	timeout time.Duration
	http    *http.Client
	breaker *CircuitBreaker
	logger  *logrus.Logger
}

type completionRequest struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

type completionResponse struct {
	Choices []struct {
		Text string `json:"text"`
	} `json:"choices"`
}

// NewGrokClient creates a new Grok client protected by breaker (nil disables it)
func NewGrokClient(config GrokConfig, breaker *CircuitBreaker) *GrokClient {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	logger := config.Logger
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return &GrokClient{
		apiKey:  config.APIKey,
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		model:   config.Model,
		timeout: timeout,
		http:    &http.Client{},
		breaker: breaker,
		logger:  logger,
	}
}

// Complete sends prompt to Grok and returns the trimmed completion text
func (c *GrokClient) Complete(ctx context.Context, prompt string, opts models.CompletionOptions) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", models.NewValidationError("El prompt debe ser una cadena no vacía")
	}
	if c.breaker == nil {
		return c.complete(ctx, prompt, opts)
	}
	return c.breaker.Execute(ctx, func() (string, error) {
		return c.complete(ctx, prompt, opts)
	})
}

func (c *GrokClient) complete(ctx context.Context, prompt string, opts models.CompletionOptions) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(completionRequest{
		Model:       c.model,
		Prompt:      prompt,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	})
	if err != nil {
		return "", models.NewUpstreamError("No se pudo preparar la solicitud a Grok", 0, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+completionsPath, bytes.NewReader(body))
	if err != nil {
		return "", models.NewUpstreamError("No se pudo preparar la solicitud a Grok", 0, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	c.logger.WithFields(logrus.Fields{
		"model":         c.model,
		"prompt":        truncate(prompt, promptLogLength),
		"prompt_length": len(prompt),
		"max_tokens":    opts.MaxTokens,
	}).Info("Sending prompt to Grok")

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			c.logger.WithField("timeout", c.timeout).Error("Grok request timed out")
			return "", models.NewUpstreamTimeout("Grok no respondió a tiempo", err)
		}
		c.logger.WithError(err).Error("Grok request failed")
		return "", models.NewUpstreamError("No se pudo contactar con Grok", 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errorText, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.WithFields(logrus.Fields{
			"status": resp.StatusCode,
			"body":   string(errorText),
		}).Error("Grok API error")
		return "", models.NewUpstreamError("Error de la API de Grok", resp.StatusCode,
			errors.New(strings.TrimSpace(string(errorText))))
	}

	var result completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", models.NewUpstreamTimeout("Grok no respondió a tiempo", err)
		}
		return "", models.NewUpstreamError("Respuesta de Grok malformada", resp.StatusCode, err)
	}

	c.logger.WithFields(logrus.Fields{
		"status":      resp.StatusCode,
		"choices":     len(result.Choices),
		"duration_ms": time.Since(started).Milliseconds(),
	}).Info("Grok completion received")

	if len(result.Choices) == 0 {
		c.logger.Warn("No valid choices received from Grok")
		return NoAnswer, nil
	}
	text := strings.TrimSpace(result.Choices[0].Text)
	if text == "" {
		return NoAnswer, nil
	}
	return text, nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
