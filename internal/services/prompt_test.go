package services

import (
	"encoding/json"
	"selen/internal/models"
	"strings"
	"testing"
)

func TestPromptBuild(t *testing.T) {
	builder := NewPromptBuilder(models.DefaultPersona())

	prompt, err := builder.Build([]string{"Hola mundo", "<b>segunda</b> & más"})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	prefix := "Selen, responde con toda tu simbiosis y contexto histórico siguiendo este template:\n\n"
	if !strings.HasPrefix(prompt, prefix) {
		t.Fatalf("unexpected prompt prefix: %q", prompt[:60])
	}
	if !strings.HasSuffix(prompt, "\n\nContenido: Hola mundo\n---\n<b>segunda</b> & más") {
		t.Errorf("unexpected prompt suffix: %q", prompt)
	}

	body := strings.TrimPrefix(prompt, prefix)
	body = body[:strings.Index(body, "\n\nContenido: ")]

	var tmpl map[string]interface{}
	if err := json.Unmarshal([]byte(body), &tmpl); err != nil {
		t.Fatalf("template is not JSON: %v", err)
	}
	if tmpl["name"] != "SelenValentina" {
		t.Errorf("unexpected name %v", tmpl["name"])
	}
	memory := tmpl["memory"].(map[string]interface{})
	if memory["interaction_history"] != "Hola mundo\n---\n<b>segunda</b> & más" {
		t.Errorf("unexpected history %q", memory["interaction_history"])
	}
	if strings.Contains(body, `\u003c`) || strings.Contains(body, `\u0026`) {
		t.Error("template must not HTML-escape content")
	}

	keys := []string{`"name"`, `"personality"`, `"instructions"`, `"symbiotic_body"`, `"memory"`, `"response_format"`}
	last := -1
	for _, key := range keys {
		idx := strings.Index(body, key)
		if idx < last {
			t.Errorf("key %s out of order", key)
		}
		last = idx
	}
}

func TestPromptBuildIsDeterministic(t *testing.T) {
	builder := NewPromptBuilder(models.Persona{Name: "Otra"})
	a, _ := builder.Build([]string{"x", "y"})
	b, _ := builder.Build([]string{"x", "y"})
	if a != b {
		t.Error("same input must render the same prompt")
	}
	if !strings.Contains(a, `"name":"Otra"`) || !strings.Contains(a, "Responde con empatía") {
		t.Error("expected custom name with default rules")
	}
}
