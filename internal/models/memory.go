package models

import (
	"strings"
	"time"
)

// Curated memory classification defaults
const (
	DefaultClave              = "sin-clave"
	DefaultSeccion            = "general"
	DefaultPrioridad          = "media"
	DefaultEstado             = "activa"
	DefaultCategoriaEmocional = "neutral"
)

// DefaultEtiquetas are attached to every curated memory produced by a trigger run
var DefaultEtiquetas = []string{"selen", "trigger"}

// CuratedMemory is the durable record of one successful trigger run.
// It is built once and never mutated after persistence.
type CuratedMemory struct {
	Clave              string    `bson:"clave" json:"clave"`
	Seccion            string    `bson:"seccion" json:"seccion"`
	Contenido          string    `bson:"contenido" json:"contenido"`
	Prioridad          string    `bson:"prioridad" json:"prioridad"`
	Estado             string    `bson:"estado" json:"estado"`
	CategoriaEmocional string    `bson:"categoriaEmocional" json:"categoriaEmocional"`
	Etiquetas          []string  `bson:"etiquetas" json:"etiquetas"`
	Timestamp          time.Time `bson:"timestamp" json:"timestamp"`
}

// NewCuratedMemory builds a memory for key with the default classification
func NewCuratedMemory(key, contenido string, now time.Time) CuratedMemory {
	clave := strings.TrimSpace(key)
	if clave == "" {
		clave = DefaultClave
	}

	tags := make([]string, len(DefaultEtiquetas))
	copy(tags, DefaultEtiquetas)

	return CuratedMemory{
		Clave:              clave,
		Seccion:            DefaultSeccion,
		Contenido:          contenido,
		Prioridad:          DefaultPrioridad,
		Estado:             DefaultEstado,
		CategoriaEmocional: DefaultCategoriaEmocional,
		Etiquetas:          UniqueTags(tags),
		Timestamp:          now.UTC(),
	}
}

// UniqueTags drops empty and duplicate tags, keeping first-seen order
func UniqueTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
