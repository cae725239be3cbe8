package cache

import (
	"context"
	"time"
)

// Default expiry settings for cached entries
const (
	DefaultTTL           = 10 * time.Minute
	DefaultSweepInterval = 2 * time.Minute
)

// Key namespaces. The answer and content tiers never share a key.
const (
	answerPrefix  = "trigger-"
	contentPrefix = "content-"
)

// Cache is a best-effort, time-bounded key/value store shared across requests.
// Get reports a miss on any internal fault and Set reports false instead of
// failing, so callers can always proceed as if the cache were cold.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) bool
	Set(ctx context.Context, key string, value interface{}) bool
}

// AnswerKey returns the resolved-answer tier key for a normalized trigger
func AnswerKey(trigger string) string {
	return answerPrefix + trigger
}

// ContentKey returns the raw-content tier key for a normalized trigger
func ContentKey(trigger string) string {
	return contentPrefix + trigger
}

// Noop never hits and never stores
type Noop struct{}

func (Noop) Get(context.Context, string, interface{}) bool { return false }
func (Noop) Set(context.Context, string, interface{}) bool { return false }
