package config

import (
	"fmt"
	"os"
	"selen/internal/models"

	"gopkg.in/yaml.v3"
)

// LoadPersona reads the persona YAML at filePath. An empty path yields the
// built-in persona; sections missing from the file fall back to it.
func LoadPersona(filePath string) (models.Persona, error) {
	if filePath == "" {
		return models.DefaultPersona(), nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return models.Persona{}, fmt.Errorf("failed to read persona file: %w", err)
	}

	var persona models.Persona
	if err := yaml.Unmarshal(data, &persona); err != nil {
		return models.Persona{}, fmt.Errorf("failed to parse persona YAML: %w", err)
	}

	return persona.WithDefaults(), nil
}
