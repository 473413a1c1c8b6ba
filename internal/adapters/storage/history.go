package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/quantatrisk/voltrader/internal/domain"
	_ "modernc.org/sqlite"
)

const historySchema = `
-- Barras de 1 minuto, una fila por símbolo y minuto
CREATE TABLE IF NOT EXISTS history_bar (
    vt_symbol    TEXT     NOT NULL,
    bar_datetime DATETIME NOT NULL,
    open_price   REAL     NOT NULL,
    high_price   REAL     NOT NULL,
    low_price    REAL     NOT NULL,
    close_price  REAL     NOT NULL,
    volume       REAL     NOT NULL DEFAULT 0,
    PRIMARY KEY (vt_symbol, bar_datetime)
);

CREATE INDEX IF NOT EXISTS idx_history_bar_dt ON history_bar(bar_datetime);
`

// SQLiteHistory implementa ports.HistoryRepository sobre SQLite.
type SQLiteHistory struct {
	db *sql.DB
}

// NewSQLiteHistory abre (o crea) la base de datos y aplica el schema.
func NewSQLiteHistory(path string) (*SQLiteHistory, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteHistory: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(historySchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteHistory: apply schema: %w", err)
	}
	return &SQLiteHistory{db: db}, nil
}

// SaveBars inserta las barras del símbolo en una transacción,
// ignorando duplicados.
func (h *SQLiteHistory) SaveBars(ctx context.Context, vtSymbol string, bars []domain.Bar) error {
	if len(bars) == 0 {
		return nil
	}

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SQLiteHistory.SaveBars: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO history_bar (vt_symbol, bar_datetime, open_price, high_price, low_price, close_price, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("storage.SQLiteHistory.SaveBars: prepare: %w", err)
	}
	defer stmt.Close()

	for _, b := range bars {
		if _, err := stmt.ExecContext(ctx, vtSymbol, b.Datetime.UTC(), b.Open, b.High, b.Low, b.Close, b.Volume); err != nil {
			return fmt.Errorf("storage.SQLiteHistory.SaveBars: insert %s@%s: %w", vtSymbol, b.Datetime, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SQLiteHistory.SaveBars: commit: %w", err)
	}
	return nil
}

// LoadBars devuelve las barras de un símbolo en orden cronológico.
func (h *SQLiteHistory) LoadBars(ctx context.Context, vtSymbol string, start, end time.Time) ([]domain.Bar, error) {
	rows, err := h.db.QueryContext(ctx, `
		SELECT vt_symbol, bar_datetime, open_price, high_price, low_price, close_price, volume
		FROM history_bar
		WHERE vt_symbol = ? AND bar_datetime >= ? AND bar_datetime <= ?
		ORDER BY bar_datetime`,
		vtSymbol, start.UTC(), end.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("storage.SQLiteHistory.LoadBars: query: %w", err)
	}
	defer rows.Close()

	recs, err := scanBars(rows)
	if err != nil {
		return nil, err
	}
	bars := make([]domain.Bar, len(recs))
	for i, r := range recs {
		bars[i] = r.bar
	}
	return bars, nil
}

// Symbols devuelve los símbolos con barras almacenadas.
func (h *SQLiteHistory) Symbols(ctx context.Context) ([]string, error) {
	rows, err := h.db.QueryContext(ctx,
		`SELECT DISTINCT vt_symbol FROM history_bar ORDER BY vt_symbol`)
	if err != nil {
		return nil, fmt.Errorf("storage.SQLiteHistory.Symbols: query: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("storage.SQLiteHistory.Symbols: scan: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ReplayBars reproduce las barras de los símbolos dados en orden
// cronológico global, una llamada a fn por barra.
func (h *SQLiteHistory) ReplayBars(ctx context.Context, vtSymbols []string, start, end time.Time, fn func(map[string]domain.Bar) error) error {
	if len(vtSymbols) == 0 {
		return nil
	}

	query := `
		SELECT vt_symbol, bar_datetime, open_price, high_price, low_price, close_price, volume
		FROM history_bar
		WHERE bar_datetime >= ? AND bar_datetime <= ? AND vt_symbol IN (?` +
		repeatPlaceholder(len(vtSymbols)-1) + `)
		ORDER BY bar_datetime, vt_symbol`

	args := make([]any, 0, len(vtSymbols)+2)
	args = append(args, start.UTC(), end.UTC())
	for _, s := range vtSymbols {
		args = append(args, s)
	}

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("storage.SQLiteHistory.ReplayBars: query: %w", err)
	}
	defer rows.Close()

	recs, err := scanBars(rows)
	if err != nil {
		return fmt.Errorf("storage.SQLiteHistory.ReplayBars: %w", err)
	}
	for _, r := range recs {
		if err := fn(map[string]domain.Bar{r.vtSymbol: r.bar}); err != nil {
			return err
		}
	}
	return nil
}

// Close cierra la conexión.
func (h *SQLiteHistory) Close() error {
	return h.db.Close()
}

func repeatPlaceholder(n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += ", ?"
	}
	return out
}

type barRecord struct {
	vtSymbol string
	bar      domain.Bar
}

func scanBars(rows *sql.Rows) ([]barRecord, error) {
	var recs []barRecord
	for rows.Next() {
		var r barRecord
		if err := rows.Scan(&r.vtSymbol, &r.bar.Datetime, &r.bar.Open, &r.bar.High, &r.bar.Low, &r.bar.Close, &r.bar.Volume); err != nil {
			return nil, fmt.Errorf("storage.scanBars: %w", err)
		}
		recs = append(recs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage.scanBars: %w", err)
	}
	return recs, nil
}
