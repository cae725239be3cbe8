package notion

import (
	"context"
	"fmt"
	"log"
	"selen/internal/models"
	"strings"
	"time"
)

const (
	propClave              = "Clave"
	propContenido          = "Contenido"
	propSeccion            = "Seccion"
	propPrioridad          = "Prioridad"
	propEstado             = "Estado"
	propCategoriaEmocional = "CategoriaEmocional"
	propEtiquetas          = "Etiquetas"
	propTimestamp          = "Timestamp"

	queryPageSize = 100
	maxQueryPages = 10
)

type queryResponse struct {
	Object     string `json:"object"`
	Results    []page `json:"results"`
	HasMore    bool   `json:"has_more"`
	NextCursor string `json:"next_cursor"`
}

type page struct {
	ID         string              `json:"id"`
	Properties map[string]property `json:"properties"`
}

type property struct {
	Type     string     `json:"type"`
	RichText []textItem `json:"rich_text"`
	Title    []textItem `json:"title"`
}

type textItem struct {
	PlainText string `json:"plain_text"`
	Text      *struct {
		Content string `json:"content"`
	} `json:"text"`
}

func (t textItem) content() string {
	if t.PlainText != "" {
		return t.PlainText
	}
	if t.Text != nil {
		return t.Text.Content
	}
	return ""
}

// ContentStore finds trigger fragments in a Notion database
type ContentStore struct {
	client     *Client
	databaseID string
}

// NewContentStore creates a content store backed by the given database
func NewContentStore(client *Client, databaseID string) *ContentStore {
	return &ContentStore{client: client, databaseID: cleanID(databaseID)}
}

// FindByTrigger returns the Contenido of every page whose Clave contains key,
// in the order Notion returns them. Pages with empty content are skipped.
func (s *ContentStore) FindByTrigger(ctx context.Context, key string) ([]string, error) {
	body := map[string]interface{}{
		"filter": map[string]interface{}{
			"property": propClave,
			"rich_text": map[string]interface{}{
				"contains": key,
			},
		},
		"page_size": queryPageSize,
	}

	var fragments []string
	for pageNum := 0; pageNum < maxQueryPages; pageNum++ {
		var resp queryResponse
		if err := s.client.do(ctx, "POST", "/databases/"+s.databaseID+"/query", body, &resp); err != nil {
			log.Printf("❌ [NOTION] Query for trigger '%s' failed: %v", key, err)
			return nil, err
		}
		if resp.Object != "list" {
			return nil, models.NewUpstreamError("Respuesta de Notion malformada", 0,
				fmt.Errorf("unexpected object %q", resp.Object))
		}

		for _, p := range resp.Results {
			if text := pageContent(p); text != "" {
				fragments = append(fragments, text)
			}
		}

		if !resp.HasMore || resp.NextCursor == "" {
			break
		}
		body["start_cursor"] = resp.NextCursor
	}

	log.Printf("📚 [NOTION] Found %d memories for trigger '%s'", len(fragments), key)
	return fragments, nil
}

// pageContent joins every rich-text segment of the Contenido property
func pageContent(p page) string {
	prop, ok := p.Properties[propContenido]
	if !ok {
		return ""
	}
	items := prop.RichText
	if prop.Type == "title" {
		items = prop.Title
	}

	var b strings.Builder
	for _, item := range items {
		b.WriteString(item.content())
	}
	return strings.TrimSpace(b.String())
}

// Persister writes curated memories as pages of a Notion database
type Persister struct {
	client     *Client
	databaseID string
}

// NewPersister creates a persister writing into the given database
func NewPersister(client *Client, databaseID string) *Persister {
	return &Persister{client: client, databaseID: cleanID(databaseID)}
}

type createPageResponse struct {
	ID string `json:"id"`
}

// Persist creates one page for memory and returns its page ID
func (p *Persister) Persist(ctx context.Context, memory models.CuratedMemory) (string, error) {
	body := map[string]interface{}{
		"parent": map[string]interface{}{
			"database_id": p.databaseID,
		},
		"properties": pageProperties(memory),
	}

	var resp createPageResponse
	if err := p.client.do(ctx, "POST", "/pages", body, &resp); err != nil {
		log.Printf("❌ [NOTION] Failed to save curated memory '%s': %v", memory.Clave, err)
		return "", models.NewPersistenceError("No se pudo guardar la memoria", err)
	}
	if resp.ID == "" {
		log.Printf("❌ [NOTION] Save for '%s' returned no page ID", memory.Clave)
		return "", models.NewPersistenceError("No se pudo guardar la memoria", fmt.Errorf("empty page id"))
	}

	log.Printf("💾 [NOTION] Curated memory saved: %s", resp.ID)
	return resp.ID, nil
}

func pageProperties(memory models.CuratedMemory) map[string]interface{} {
	clave := strings.TrimSpace(memory.Clave)
	if clave == "" {
		clave = models.DefaultClave
	}
	seccion := strings.TrimSpace(memory.Seccion)
	if seccion == "" {
		seccion = models.DefaultSeccion
	}
	ts := memory.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	tags := make([]map[string]interface{}, 0, len(memory.Etiquetas))
	for _, tag := range models.UniqueTags(memory.Etiquetas) {
		tags = append(tags, map[string]interface{}{"name": tag})
	}

	props := map[string]interface{}{
		propClave: map[string]interface{}{
			"title": []map[string]interface{}{
				{"text": map[string]interface{}{"content": clave}},
			},
		},
		propSeccion:   selectValue(seccion),
		propContenido: map[string]interface{}{"rich_text": richText(SanitizeText(memory.Contenido))},
		propEtiquetas: map[string]interface{}{"multi_select": tags},
		propTimestamp: map[string]interface{}{
			"date": map[string]interface{}{"start": ts.UTC().Format(time.RFC3339)},
		},
	}
	if memory.Prioridad != "" {
		props[propPrioridad] = selectValue(memory.Prioridad)
	}
	if memory.Estado != "" {
		props[propEstado] = selectValue(memory.Estado)
	}
	if memory.CategoriaEmocional != "" {
		props[propCategoriaEmocional] = selectValue(memory.CategoriaEmocional)
	}
	return props
}

func selectValue(name string) map[string]interface{} {
	return map[string]interface{}{
		"select": map[string]interface{}{"name": name},
	}
}
