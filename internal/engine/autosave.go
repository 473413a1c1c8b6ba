package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/quantatrisk/voltrader/internal/domain"
	"github.com/quantatrisk/voltrader/internal/metrics"
	"github.com/quantatrisk/voltrader/internal/ports"
)

// AutoSaver persiste el estado del runtime cada intervalo. El snapshot
// se materializa de forma perezosa, solo cuando toca guardar.
type AutoSaver struct {
	store    ports.StateStore
	interval time.Duration
	snapshot func() *domain.RuntimeState
	lastSave time.Time
}

// NewAutoSaver crea el guardado periódico.
func NewAutoSaver(store ports.StateStore, interval time.Duration, snapshot func() *domain.RuntimeState) *AutoSaver {
	return &AutoSaver{
		store:    store,
		interval: interval,
		snapshot: snapshot,
	}
}

// MaybeSave guarda si ya pasó el intervalo. Los fallos se loggean y no
// se propagan; el pipeline no se detiene por un disco lleno.
func (a *AutoSaver) MaybeSave(ctx context.Context, now time.Time) bool {
	if !a.lastSave.IsZero() && now.Sub(a.lastSave) < a.interval {
		return false
	}
	if err := a.save(ctx); err != nil {
		slog.Error("autosave: snapshot failed", "error", err)
		metrics.SnapshotFailures.Inc()
		return false
	}
	a.lastSave = now
	return true
}

// ForceSave guarda incondicionalmente; se usa en OnStop.
func (a *AutoSaver) ForceSave(ctx context.Context, now time.Time) error {
	if err := a.save(ctx); err != nil {
		metrics.SnapshotFailures.Inc()
		return err
	}
	a.lastSave = now
	return nil
}

func (a *AutoSaver) save(ctx context.Context) error {
	if err := a.store.Save(ctx, a.snapshot()); err != nil {
		return err
	}
	metrics.SnapshotSaves.Inc()
	return nil
}
