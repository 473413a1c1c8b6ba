package storage_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantatrisk/voltrader/internal/adapters/storage"
	"github.com/quantatrisk/voltrader/internal/domain"
	"github.com/quantatrisk/voltrader/internal/ports"
)

func TestSQLiteMonitor_UpsertSnapshot(t *testing.T) {
	m, err := storage.NewSQLiteMonitor(":memory:")
	require.NoError(t, err)
	defer m.Close()
	ctx := context.Background()

	snap := ports.MonitorSnapshot{
		Variant:     "volatility",
		InstanceID:  "rb-live",
		BarDatetime: time.Date(2025, time.June, 2, 9, 30, 0, 0, time.UTC),
		BarInterval: "1m",
		BarWindow:   1,
		Payload:     []byte(`{"signal":"none"}`),
	}
	require.NoError(t, m.UpsertSnapshot(ctx, snap))

	// Mismo variant+instancia: reemplaza, no duplica.
	snap.Payload = []byte(`{"signal":"sell_put_divergence_td9"}`)
	require.NoError(t, m.UpsertSnapshot(ctx, snap))

	other := snap
	other.InstanceID = "rb-backtest"
	require.NoError(t, m.UpsertSnapshot(ctx, other))
}

func TestSQLiteMonitor_EventKeyIdempotent(t *testing.T) {
	m, err := storage.NewSQLiteMonitor(":memory:")
	require.NoError(t, err)
	defer m.Close()
	ctx := context.Background()

	event := ports.MonitorEvent{
		Variant:     "volatility",
		InstanceID:  "rb-live",
		VTSymbol:    "rb2510.SHFE",
		BarDatetime: time.Date(2025, time.June, 2, 9, 30, 0, 0, time.UTC),
		EventType:   "open_signal",
		EventKey:    "rb2510.SHFE|2025-06-02T09:30|open_signal",
		Payload:     []byte(`{"signal":"sell_put_divergence_td9"}`),
	}
	require.NoError(t, m.InsertEvent(ctx, event))

	// La misma clave de evento se ignora sin error.
	require.NoError(t, m.InsertEvent(ctx, event))
}

func historyBars(base time.Time, n int) []domain.Bar {
	bars := make([]domain.Bar, n)
	for i := range bars {
		bars[i] = domain.Bar{
			Datetime: base.Add(time.Duration(i) * time.Minute),
			Open:     3800 + float64(i),
			High:     3810 + float64(i),
			Low:      3790 + float64(i),
			Close:    3805 + float64(i),
			Volume:   1000,
		}
	}
	return bars
}

func TestSQLiteHistory_SaveAndLoad(t *testing.T) {
	h, err := storage.NewSQLiteHistory(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer h.Close()
	ctx := context.Background()
	base := time.Date(2025, time.June, 2, 9, 30, 0, 0, time.UTC)

	bars := historyBars(base, 10)
	require.NoError(t, h.SaveBars(ctx, "rb2510.SHFE", bars))

	// Reinsertar no duplica.
	require.NoError(t, h.SaveBars(ctx, "rb2510.SHFE", bars))

	loaded, err := h.LoadBars(ctx, "rb2510.SHFE", base, base.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, loaded, 10)
	assert.Equal(t, bars[0].Close, loaded[0].Close)
	assert.True(t, loaded[0].Datetime.Equal(base))

	partial, err := h.LoadBars(ctx, "rb2510.SHFE", base.Add(5*time.Minute), base.Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, partial, 5)
}

func TestSQLiteHistory_ReplayChronological(t *testing.T) {
	h, err := storage.NewSQLiteHistory(":memory:")
	require.NoError(t, err)
	defer h.Close()
	ctx := context.Background()
	base := time.Date(2025, time.June, 2, 9, 30, 0, 0, time.UTC)

	require.NoError(t, h.SaveBars(ctx, "rb2510.SHFE", historyBars(base, 3)))
	require.NoError(t, h.SaveBars(ctx, "MO2601-P-5800.CFFEX", historyBars(base.Add(30*time.Second), 3)))

	var order []string
	var last time.Time
	err = h.ReplayBars(ctx, []string{"rb2510.SHFE", "MO2601-P-5800.CFFEX"}, base, base.Add(time.Hour),
		func(bars map[string]domain.Bar) error {
			require.Len(t, bars, 1)
			for symbol, bar := range bars {
				order = append(order, symbol)
				assert.False(t, bar.Datetime.Before(last))
				last = bar.Datetime
			}
			return nil
		})
	require.NoError(t, err)
	assert.Len(t, order, 6)
	assert.Equal(t, "rb2510.SHFE", order[0])
	assert.Equal(t, "MO2601-P-5800.CFFEX", order[1])
}

func TestSQLiteHistory_ReplayEmptySymbols(t *testing.T) {
	h, err := storage.NewSQLiteHistory(":memory:")
	require.NoError(t, err)
	defer h.Close()

	err = h.ReplayBars(context.Background(), nil, time.Now().Add(-time.Hour), time.Now(),
		func(map[string]domain.Bar) error {
			t.Fatal("callback should not run")
			return nil
		})
	assert.NoError(t, err)
}
