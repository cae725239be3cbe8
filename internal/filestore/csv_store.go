package filestore

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"selen/internal/models"
	"selen/internal/utils"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	columnClave     = "Clave"
	columnContenido = "Contenido"

	reloadDebounce = 500 * time.Millisecond
)

type row struct {
	clave     string // normalized
	contenido string
}

// CSVStore serves trigger content from a flat CSV file with Clave and Contenido columns
type CSVStore struct {
	path string
	mu   sync.RWMutex
	rows []row
}

// NewCSVStore loads the trigger file at path
func NewCSVStore(path string) (*CSVStore, error) {
	s := &CSVStore{path: path}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads the file. The previous rows are kept if the file cannot be parsed.
func (s *CSVStore) Reload() error {
	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("failed to open triggers file: %w", err)
	}
	defer f.Close()

	rows, err := parseRows(f)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", s.path, err)
	}

	s.mu.Lock()
	s.rows = rows
	s.mu.Unlock()

	log.Printf("✅ [CSV] Loaded %d triggers from %s", len(rows), s.path)
	return nil
}

func parseRows(r io.Reader) ([]row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty file")
		}
		return nil, err
	}

	claveIdx, contenidoIdx := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")) {
		case columnClave:
			claveIdx = i
		case columnContenido:
			contenidoIdx = i
		}
	}
	if claveIdx < 0 || contenidoIdx < 0 {
		return nil, fmt.Errorf("header must contain %s and %s columns", columnClave, columnContenido)
	}

	var rows []row
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if claveIdx >= len(record) || contenidoIdx >= len(record) {
			continue
		}
		contenido := strings.TrimSpace(record[contenidoIdx])
		if contenido == "" {
			continue
		}
		rows = append(rows, row{
			clave:     utils.NormalizeTrigger(record[claveIdx]),
			contenido: contenido,
		})
	}
	return rows, nil
}

// FindByTrigger returns the content of every row whose Clave contains key, in file order
func (s *CSVStore) FindByTrigger(ctx context.Context, key string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, models.NewUpstreamError("Consulta de memorias cancelada", 0, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var fragments []string
	for _, r := range s.rows {
		if strings.Contains(r.clave, key) {
			fragments = append(fragments, r.contenido)
		}
	}
	return fragments, nil
}

// Len returns the number of loaded rows
func (s *CSVStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

// Watch reloads the file whenever it is written or replaced, until ctx is done
func (s *CSVStore) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	absPath, err := filepath.Abs(s.path)
	if err != nil {
		watcher.Close()
		return err
	}

	// Watch the directory so editors that replace the file are still seen
	dir := filepath.Dir(absPath)
	filename := filepath.Base(absPath)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}

	log.Printf("👁️  [CSV] Watching %s for changes", s.path)

	go func() {
		defer watcher.Close()

		var debounceTimer *time.Timer
		for {
			select {
			case <-ctx.Done():
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != filename {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(reloadDebounce, func() {
					if err := s.Reload(); err != nil {
						log.Printf("❌ [CSV] Reload failed, keeping previous triggers: %v", err)
					}
				})

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("⚠️  [CSV] File watcher error: %v", err)
			}
		}
	}()

	return nil
}
