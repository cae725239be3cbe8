package database

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"selen/internal/models"
	"strings"

	"github.com/google/uuid"
)

// SQLStore reads trigger fragments from one table and writes curated memories to another
type SQLStore struct {
	db            *DB
	triggersTable string
	memoryTable   string
}

// NewSQLStore creates a store over the given tables
func NewSQLStore(db *DB, triggersTable, memoryTable string) (*SQLStore, error) {
	if err := ValidateIdentifier(triggersTable); err != nil {
		return nil, err
	}
	if err := ValidateIdentifier(memoryTable); err != nil {
		return nil, err
	}
	return &SQLStore{db: db, triggersTable: triggersTable, memoryTable: memoryTable}, nil
}

// Ping checks that the database still answers
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// FindByTrigger returns the content of every row whose clave contains key, oldest first
func (s *SQLStore) FindByTrigger(ctx context.Context, key string) ([]string, error) {
	query := fmt.Sprintf(
		"SELECT contenido FROM %s WHERE LOWER(clave) LIKE ? ESCAPE '!' ORDER BY created_at, id",
		s.triggersTable)

	rows, err := s.db.QueryContext(ctx, query, "%"+escapeLike(key)+"%")
	if err != nil {
		log.Printf("❌ [SQL] Query for trigger '%s' failed: %v", key, err)
		return nil, models.NewUpstreamError("No se pudo consultar la base de memorias", 0, err)
	}
	defer rows.Close()

	var fragments []string
	for rows.Next() {
		var contenido string
		if err := rows.Scan(&contenido); err != nil {
			return nil, models.NewUpstreamError("Fila de memoria malformada", 0, err)
		}
		if strings.TrimSpace(contenido) != "" {
			fragments = append(fragments, contenido)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, models.NewUpstreamError("No se pudo consultar la base de memorias", 0, err)
	}

	log.Printf("📚 [SQL] Found %d memories for trigger '%s'", len(fragments), key)
	return fragments, nil
}

// Persist inserts memory and returns the generated record ID
func (s *SQLStore) Persist(ctx context.Context, memory models.CuratedMemory) (string, error) {
	tags, err := json.Marshal(models.UniqueTags(memory.Etiquetas))
	if err != nil {
		return "", models.NewPersistenceError("No se pudo guardar la memoria", err)
	}

	clave := strings.TrimSpace(memory.Clave)
	if clave == "" {
		clave = models.DefaultClave
	}
	seccion := strings.TrimSpace(memory.Seccion)
	if seccion == "" {
		seccion = models.DefaultSeccion
	}

	id := uuid.New().String()
	query := fmt.Sprintf(`
		INSERT INTO %s
		(id, clave, seccion, contenido, prioridad, estado, categoria_emocional, etiquetas, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, s.memoryTable)

	_, err = s.db.ExecContext(ctx, query,
		id, clave, seccion, memory.Contenido, memory.Prioridad, memory.Estado,
		memory.CategoriaEmocional, string(tags), memory.Timestamp.UTC())
	if err != nil {
		log.Printf("❌ [SQL] Failed to save curated memory '%s': %v", clave, err)
		return "", models.NewPersistenceError("No se pudo guardar la memoria", err)
	}

	log.Printf("💾 [SQL] Curated memory saved: %s", id)
	return id, nil
}

// escapeLike escapes LIKE wildcards using '!' as the escape character
func escapeLike(s string) string {
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(s)
}
