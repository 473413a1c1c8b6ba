// Package storage contiene los adaptadores de persistencia: snapshot
// de estado en fichero con escritura atómica y cadena de migraciones,
// repositorio de monitorización y repositorio de barras históricas
// sobre SQLite.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/quantatrisk/voltrader/internal/domain"
)

// FileStateStore persiste el RuntimeState como JSON. La escritura va
// a un fichero temporal y se renombra para que un corte a mitad nunca
// deje un snapshot corrupto.
type FileStateStore struct {
	path       string
	migrations *MigrationChain
}

// NewFileStateStore crea el store sobre la ruta dada, creando el
// directorio si falta.
func NewFileStateStore(path string, migrations *MigrationChain) (*FileStateStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("storage.NewFileStateStore: mkdir %q: %w", filepath.Dir(path), err)
	}
	if migrations == nil {
		migrations = DefaultMigrations()
	}
	return &FileStateStore{path: path, migrations: migrations}, nil
}

// Save escribe el snapshot de forma atómica.
func (s *FileStateStore) Save(ctx context.Context, state *domain.RuntimeState) error {
	state.Version = domain.RuntimeStateVersion

	raw, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("storage.FileStateStore.Save: marshal: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("storage.FileStateStore.Save: write %q: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("storage.FileStateStore.Save: rename: %w", err)
	}
	return nil
}

// Load lee el último snapshot y lo migra a la versión actual.
// Sin snapshot previo devuelve nil sin error.
func (s *FileStateStore) Load(ctx context.Context) (*domain.RuntimeState, error) {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage.FileStateStore.Load: read %q: %w", s.path, err)
	}

	migrated, err := s.migrations.Apply(raw)
	if err != nil {
		return nil, fmt.Errorf("storage.FileStateStore.Load: %w", err)
	}

	var state domain.RuntimeState
	if err := json.Unmarshal(migrated, &state); err != nil {
		return nil, fmt.Errorf("storage.FileStateStore.Load: unmarshal: %w", err)
	}
	return &state, nil
}
