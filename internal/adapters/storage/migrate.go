package storage

import (
	"encoding/json"
	"fmt"

	"github.com/quantatrisk/voltrader/internal/domain"
)

// MigrationFunc transforma el snapshot crudo de una versión a la
// siguiente. Trabaja sobre el documento deserializado para no acoplar
// las migraciones a los tipos actuales.
type MigrationFunc func(doc map[string]any) (map[string]any, error)

// MigrationChain eleva snapshots antiguos versión a versión hasta la
// actual. Cada paso registrado cubre exactamente from → from+1.
type MigrationChain struct {
	steps map[int]MigrationFunc
}

// NewMigrationChain crea una cadena vacía.
func NewMigrationChain() *MigrationChain {
	return &MigrationChain{steps: make(map[int]MigrationFunc)}
}

// Register añade el paso from → from+1. Un paso duplicado es error.
func (c *MigrationChain) Register(from int, fn MigrationFunc) error {
	if _, exists := c.steps[from]; exists {
		return fmt.Errorf("storage.MigrationChain.Register: duplicate migration from version %d", from)
	}
	c.steps[from] = fn
	return nil
}

// Apply migra el snapshot crudo hasta la versión actual. La ausencia
// de un paso intermedio es error; un snapshot ya actual pasa intacto.
func (c *MigrationChain) Apply(raw []byte) ([]byte, error) {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("storage.MigrationChain.Apply: unmarshal: %w", err)
	}

	version := 1
	if v, ok := doc["version"].(float64); ok {
		version = int(v)
	}
	if version > domain.RuntimeStateVersion {
		return nil, fmt.Errorf("storage.MigrationChain.Apply: snapshot version %d newer than supported %d", version, domain.RuntimeStateVersion)
	}

	for version < domain.RuntimeStateVersion {
		fn, ok := c.steps[version]
		if !ok {
			return nil, fmt.Errorf("storage.MigrationChain.Apply: missing migration from version %d", version)
		}
		next, err := fn(doc)
		if err != nil {
			return nil, fmt.Errorf("storage.MigrationChain.Apply: migrate from %d: %w", version, err)
		}
		doc = next
		version++
		doc["version"] = version
	}

	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("storage.MigrationChain.Apply: marshal: %w", err)
	}
	return out, nil
}

// DefaultMigrations devuelve la cadena con las migraciones conocidas.
//
// v1 → v2: los contadores diarios pasaron de un entero global a un
// mapa por símbolo; el global se conserva y el mapa arranca vacío.
// v2 → v3: el agregado de instrumentos ganó el mapa de contratos
// activos por producto.
func DefaultMigrations() *MigrationChain {
	c := NewMigrationChain()

	c.Register(1, func(doc map[string]any) (map[string]any, error) {
		pos, _ := doc["position_aggregate"].(map[string]any)
		if pos == nil {
			pos = make(map[string]any)
			doc["position_aggregate"] = pos
		}
		if _, ok := pos["today_open_count_map"]; !ok {
			pos["today_open_count_map"] = map[string]any{}
		}
		return doc, nil
	})

	c.Register(2, func(doc map[string]any) (map[string]any, error) {
		tgt, _ := doc["target_aggregate"].(map[string]any)
		if tgt == nil {
			tgt = make(map[string]any)
			doc["target_aggregate"] = tgt
		}
		if _, ok := tgt["active_contracts"]; !ok {
			tgt["active_contracts"] = map[string]any{}
		}
		return doc, nil
	})

	return c
}
