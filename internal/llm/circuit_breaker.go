package llm

import (
	"context"
	"errors"
	"log"
	"selen/internal/models"
	"time"

	"github.com/sony/gobreaker"
)

// ErrCircuitOpen is returned while the breaker rejects calls
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreakerConfig holds the configuration for the circuit breaker.
type CircuitBreakerConfig struct {
	// MaxFailures is the number of consecutive failures required to trip the circuit.
	MaxFailures uint32

	// Timeout is how long the circuit stays open before allowing a trial request.
	Timeout time.Duration

	// HalfOpenMaxRequests is the number of trial requests allowed while half-open.
	HalfOpenMaxRequests uint32
}

// DefaultCircuitBreakerConfig trips after 3 consecutive failures and retries after 30s
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		MaxFailures:         3,
		Timeout:             30 * time.Second,
		HalfOpenMaxRequests: 1,
	}
}

// CircuitBreaker fails completion calls fast while the upstream is unhealthy
type CircuitBreaker struct {
	breaker *gobreaker.CircuitBreaker
}

// NewCircuitBreaker creates a breaker named after the protected service
func NewCircuitBreaker(name string, config CircuitBreakerConfig) *CircuitBreaker {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: config.HalfOpenMaxRequests,
		Interval:    0, // Don't clear counts periodically
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.MaxFailures
		},
		// Input errors say nothing about upstream health
		IsSuccessful: func(err error) bool {
			return err == nil || models.IsKind(err, models.ErrorKindValidation)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Printf("⚡ [BREAKER] %s: %s -> %s", name, from, to)
		},
	}

	return &CircuitBreaker{breaker: gobreaker.NewCircuitBreaker(settings)}
}

// Execute runs fn through the breaker. Calls are never retried.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func() (string, error)) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	result, err := cb.breaker.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", models.NewUpstreamError("Servicio de Grok no disponible temporalmente", 0, ErrCircuitOpen)
		}
		return "", err
	}

	text, _ := result.(string)
	return text, nil
}

// State returns the current state: "closed", "open" or "half-open"
func (cb *CircuitBreaker) State() string {
	return cb.breaker.State().String()
}
