package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/quantatrisk/voltrader/internal/ports"
	_ "modernc.org/sqlite"
)

const monitorSchema = `
-- Estado observable de cada instancia, una fila por variante+instancia
CREATE TABLE IF NOT EXISTS monitor_snapshot (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    variant      TEXT     NOT NULL,
    instance_id  TEXT     NOT NULL,
    updated_at   DATETIME NOT NULL,
    bar_dt       DATETIME,
    bar_interval TEXT,
    bar_window   INTEGER,
    payload_json TEXT     NOT NULL,
    UNIQUE (variant, instance_id)
);

-- Eventos de señal con clave de idempotencia
CREATE TABLE IF NOT EXISTS monitor_event (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    variant      TEXT     NOT NULL,
    instance_id  TEXT     NOT NULL,
    vt_symbol    TEXT     NOT NULL,
    bar_dt       DATETIME,
    event_type   TEXT     NOT NULL,
    event_key    TEXT     NOT NULL UNIQUE,
    created_at   DATETIME NOT NULL,
    payload_json TEXT     NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_monitor_snapshot_updated ON monitor_snapshot(updated_at DESC);
CREATE INDEX IF NOT EXISTS idx_monitor_event_created    ON monitor_event(variant, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_monitor_event_symbol     ON monitor_event(vt_symbol, bar_dt);
`

// SQLiteMonitor implementa ports.MonitorRepository sobre SQLite
// (pure Go, sin CGo).
type SQLiteMonitor struct {
	db *sql.DB
}

// NewSQLiteMonitor abre (o crea) la base de datos y aplica el schema.
func NewSQLiteMonitor(path string) (*SQLiteMonitor, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteMonitor: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(monitorSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteMonitor: apply schema: %w", err)
	}
	return &SQLiteMonitor{db: db}, nil
}

// UpsertSnapshot reemplaza el estado observable de la instancia.
func (m *SQLiteMonitor) UpsertSnapshot(ctx context.Context, snap ports.MonitorSnapshot) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO monitor_snapshot (variant, instance_id, updated_at, bar_dt, bar_interval, bar_window, payload_json)
		VALUES (?, ?, CURRENT_TIMESTAMP, ?, ?, ?, ?)
		ON CONFLICT (variant, instance_id) DO UPDATE SET
			updated_at   = CURRENT_TIMESTAMP,
			bar_dt       = excluded.bar_dt,
			bar_interval = excluded.bar_interval,
			bar_window   = excluded.bar_window,
			payload_json = excluded.payload_json`,
		snap.Variant, snap.InstanceID, snap.BarDatetime, snap.BarInterval, snap.BarWindow, string(snap.Payload),
	)
	if err != nil {
		return fmt.Errorf("storage.SQLiteMonitor.UpsertSnapshot: %w", err)
	}
	return nil
}

// InsertEvent inserta el evento; una clave ya vista se ignora.
func (m *SQLiteMonitor) InsertEvent(ctx context.Context, event ports.MonitorEvent) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO monitor_event (variant, instance_id, vt_symbol, bar_dt, event_type, event_key, created_at, payload_json)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, ?)`,
		event.Variant, event.InstanceID, event.VTSymbol, event.BarDatetime, event.EventType, event.EventKey, string(event.Payload),
	)
	if err != nil {
		return fmt.Errorf("storage.SQLiteMonitor.InsertEvent: %w", err)
	}
	return nil
}

// Close cierra la conexión.
func (m *SQLiteMonitor) Close() error {
	return m.db.Close()
}
