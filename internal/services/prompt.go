package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"selen/internal/models"
	"strings"
)

// FragmentSeparator joins content fragments inside the prompt
const FragmentSeparator = "\n---\n"

const promptFormat = "Selen, responde con toda tu simbiosis y contexto histórico siguiendo este template:\n\n%s\n\nContenido: %s"

// promptTemplate is serialized in this field order
type promptTemplate struct {
	Name           string                      `json:"name"`
	Personality    models.PersonaPersonality   `json:"personality"`
	Instructions   models.PersonaInstructions  `json:"instructions"`
	SymbioticBody  models.PersonaSymbioticBody `json:"symbiotic_body"`
	Memory         promptMemory                `json:"memory"`
	ResponseFormat models.PersonaFormat        `json:"response_format"`
}

type promptMemory struct {
	InteractionHistory string `json:"interaction_history"`
}

// PromptBuilder renders prompts for a fixed persona
type PromptBuilder struct {
	persona models.Persona
}

// NewPromptBuilder creates a builder for persona, filling empty sections with defaults
func NewPromptBuilder(persona models.Persona) *PromptBuilder {
	return &PromptBuilder{persona: persona.WithDefaults()}
}

// Build renders the prompt for the given fragments. Output depends only on its inputs.
func (b *PromptBuilder) Build(fragments []string) (string, error) {
	history := strings.Join(fragments, FragmentSeparator)

	tmpl := promptTemplate{
		Name:           b.persona.Name,
		Personality:    b.persona.Personality,
		Instructions:   b.persona.Instructions,
		SymbioticBody:  b.persona.SymbioticBody,
		Memory:         promptMemory{InteractionHistory: history},
		ResponseFormat: b.persona.ResponseFormat,
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(tmpl); err != nil {
		return "", fmt.Errorf("failed to encode prompt template: %w", err)
	}

	return fmt.Sprintf(promptFormat, strings.TrimSuffix(buf.String(), "\n"), history), nil
}
