package ports

import (
	"context"
	"time"

	"github.com/quantatrisk/voltrader/internal/domain"
)

// StateStore persiste el estado completo de la estrategia.
type StateStore interface {
	// Save escribe el snapshot de forma atómica.
	Save(ctx context.Context, state *domain.RuntimeState) error

	// Load lee el último snapshot, migrándolo a la versión actual.
	// Devuelve nil sin error cuando no existe snapshot previo.
	Load(ctx context.Context) (*domain.RuntimeState, error)
}

// HistoryRepository guarda y reproduce barras de 1 minuto.
type HistoryRepository interface {
	// SaveBars inserta las barras del símbolo, ignorando duplicados.
	SaveBars(ctx context.Context, vtSymbol string, bars []domain.Bar) error

	// LoadBars devuelve las barras de un símbolo en orden cronológico.
	LoadBars(ctx context.Context, vtSymbol string, start, end time.Time) ([]domain.Bar, error)

	// ReplayBars reproduce las barras de varios símbolos en orden
	// cronológico, invocando fn una vez por barra con un mapa de un
	// solo símbolo.
	ReplayBars(ctx context.Context, vtSymbols []string, start, end time.Time, fn func(map[string]domain.Bar) error) error
}

// MonitorSnapshot es la fila de estado observable de una instancia.
type MonitorSnapshot struct {
	Variant     string
	InstanceID  string
	BarDatetime time.Time
	BarInterval string
	BarWindow   int
	Payload     []byte
}

// MonitorEvent es una fila de evento de señal con clave de idempotencia.
type MonitorEvent struct {
	Variant     string
	InstanceID  string
	VTSymbol    string
	BarDatetime time.Time
	EventType   string
	EventKey    string
	Payload     []byte
}

// MonitorRepository publica estado y eventos para observabilidad
// externa. Los fallos de escritura no deben tumbar la estrategia.
type MonitorRepository interface {
	// UpsertSnapshot reemplaza el snapshot de la instancia.
	UpsertSnapshot(ctx context.Context, snap MonitorSnapshot) error

	// InsertEvent inserta el evento; las claves repetidas se ignoran.
	InsertEvent(ctx context.Context, event MonitorEvent) error
}
