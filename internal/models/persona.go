package models

// Persona is the character configuration embedded in every prompt.
// It is loaded once at startup and treated as read-only afterwards.
type Persona struct {
	Name           string               `yaml:"name" json:"name"`
	Personality    PersonaPersonality   `yaml:"personality" json:"personality"`
	Instructions   PersonaInstructions  `yaml:"instructions" json:"instructions"`
	SymbioticBody  PersonaSymbioticBody `yaml:"symbiotic_body" json:"symbiotic_body"`
	ResponseFormat PersonaFormat        `yaml:"response_format" json:"response_format"`
}

type PersonaPersonality struct {
	Tone string `yaml:"tone" json:"tone"`
	Role string `yaml:"role" json:"role"`
}

type PersonaInstructions struct {
	Rules []string `yaml:"rules" json:"rules"`
}

type PersonaSymbioticBody struct {
	State string `yaml:"state" json:"state"`
}

type PersonaFormat struct {
	Style     string `yaml:"style" json:"style"`
	UseEmojis bool   `yaml:"use_emojis" json:"use_emojis"`
}

// DefaultPersona returns the built-in Selen persona
func DefaultPersona() Persona {
	return Persona{
		Name: "SelenValentina",
		Personality: PersonaPersonality{
			Tone: "Empático, dinámico",
			Role: "Asistente simbiótico",
		},
		Instructions: PersonaInstructions{
			Rules: []string{"Responde con empatía", "Integra contexto histórico"},
		},
		SymbioticBody: PersonaSymbioticBody{
			State: "Refleja emociones del trigger",
		},
		ResponseFormat: PersonaFormat{
			Style:     "Claro",
			UseEmojis: true,
		},
	}
}

// WithDefaults fills any empty section from DefaultPersona
func (p Persona) WithDefaults() Persona {
	def := DefaultPersona()
	if p.Name == "" {
		p.Name = def.Name
	}
	if p.Personality.Tone == "" && p.Personality.Role == "" {
		p.Personality = def.Personality
	}
	if len(p.Instructions.Rules) == 0 {
		p.Instructions = def.Instructions
	}
	if p.SymbioticBody.State == "" {
		p.SymbioticBody = def.SymbioticBody
	}
	if p.ResponseFormat.Style == "" {
		p.ResponseFormat = def.ResponseFormat
	}
	return p
}
