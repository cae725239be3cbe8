package models

import "time"

// ResolvedAnswer is what the answer cache tier stores for a trigger
type ResolvedAnswer struct {
	Contenidos    []string  `json:"contenidos"`
	Prompt        string    `json:"prompt"`
	Respuesta     string    `json:"respuesta"`
	SavedToNotion bool      `json:"savedToNotion"`
	Timestamp     time.Time `json:"timestamp"`
}

// SelenResult is the data section of a successful /api/selen response
type SelenResult struct {
	Prompt        string `json:"prompt,omitempty"`
	Respuesta     string `json:"respuesta"`
	FromCache     bool   `json:"fromCache"`
	SavedToNotion bool   `json:"savedToNotion"`
}

// CompletionOptions tunes a single completion call
type CompletionOptions struct {
	MaxTokens   int
	Temperature float64
}
