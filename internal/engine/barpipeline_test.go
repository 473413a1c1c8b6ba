package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantatrisk/voltrader/internal/domain"
)

func minuteBar(t time.Time, open, high, low, close, volume float64) domain.Bar {
	return domain.Bar{Datetime: t, Open: open, High: high, Low: low, Close: close, Volume: volume}
}

func TestBarPipeline_FiveMinuteSynthesis(t *testing.T) {
	var got []map[string]domain.Bar
	p := NewBarPipeline(func(bars map[string]domain.Bar) {
		got = append(got, bars)
	}, IntervalMinute, 5)

	start := time.Date(2025, time.June, 2, 9, 30, 0, 0, time.UTC)
	closes := []float64{3800, 3805, 3798, 3810, 3807}
	for i, c := range closes {
		p.HandleBars(map[string]domain.Bar{
			"rb2510.SHFE": minuteBar(start.Add(time.Duration(i)*time.Minute), c, c+2, c-2, c, 100),
		})
	}

	// Los minutos 30..33 no cierran la ventana; el 34 sí.
	require.Len(t, got, 1)
	bar := got[0]["rb2510.SHFE"]
	assert.True(t, bar.Datetime.Equal(start))
	assert.Equal(t, 3800.0, bar.Open)
	assert.Equal(t, 3812.0, bar.High)
	assert.Equal(t, 3796.0, bar.Low)
	assert.Equal(t, 3807.0, bar.Close)
	assert.Equal(t, 500.0, bar.Volume)
}

func TestBarPipeline_TickUpdatesExtremes(t *testing.T) {
	var got []map[string]domain.Bar
	p := NewBarPipeline(func(bars map[string]domain.Bar) {
		got = append(got, bars)
	}, IntervalMinute, 5)

	start := time.Date(2025, time.June, 2, 9, 30, 0, 0, time.UTC)
	p.HandleBars(map[string]domain.Bar{
		"rb2510.SHFE": minuteBar(start, 3800, 3802, 3798, 3800, 100),
	})
	p.HandleTick(domain.Tick{VTSymbol: "rb2510.SHFE", LastPrice: 3820})
	p.HandleTick(domain.Tick{VTSymbol: "rb2510.SHFE", LastPrice: 3790})

	// El tick de un símbolo sin barra parcial se ignora.
	p.HandleTick(domain.Tick{VTSymbol: "rb2601.SHFE", LastPrice: 9999})

	for i := 1; i < 5; i++ {
		p.HandleBars(map[string]domain.Bar{
			"rb2510.SHFE": minuteBar(start.Add(time.Duration(i)*time.Minute), 3800, 3801, 3799, 3800, 100),
		})
	}

	require.Len(t, got, 1)
	bar := got[0]["rb2510.SHFE"]
	assert.Equal(t, 3820.0, bar.High)
	assert.Equal(t, 3790.0, bar.Low)
}

func TestBarPipeline_HourlyWindow(t *testing.T) {
	var got []map[string]domain.Bar
	p := NewBarPipeline(func(bars map[string]domain.Bar) {
		got = append(got, bars)
	}, IntervalHour, 2)

	start := time.Date(2025, time.June, 2, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 120; i++ {
		p.HandleBars(map[string]domain.Bar{
			"rb2510.SHFE": minuteBar(start.Add(time.Duration(i)*time.Minute), 3800, 3801, 3799, 3800, 1),
		})
	}

	// Dos horas completas cierran una sola ventana de 2h.
	require.Len(t, got, 1)
	assert.Equal(t, 120.0, got[0]["rb2510.SHFE"].Volume)
}

func TestBarPipeline_DailyClosesAtSessionEnd(t *testing.T) {
	var got []map[string]domain.Bar
	p := NewBarPipeline(func(bars map[string]domain.Bar) {
		got = append(got, bars)
	}, IntervalDaily, 1)

	morning := time.Date(2025, time.June, 2, 10, 30, 0, 0, time.UTC)
	p.HandleBars(map[string]domain.Bar{"rb2510.SHFE": minuteBar(morning, 3800, 3801, 3799, 3800, 10)})
	assert.Empty(t, got)

	sessionEnd := time.Date(2025, time.June, 2, 15, 0, 0, 0, time.UTC)
	p.HandleBars(map[string]domain.Bar{"rb2510.SHFE": minuteBar(sessionEnd, 3805, 3806, 3804, 3805, 10)})
	require.Len(t, got, 1)
	assert.Equal(t, 20.0, got[0]["rb2510.SHFE"].Volume)
}

func TestBarPipeline_MultiSymbolBatch(t *testing.T) {
	var got []map[string]domain.Bar
	p := NewBarPipeline(func(bars map[string]domain.Bar) {
		got = append(got, bars)
	}, IntervalMinute, 5)

	start := time.Date(2025, time.June, 2, 9, 30, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		at := start.Add(time.Duration(i) * time.Minute)
		p.HandleBars(map[string]domain.Bar{
			"IM2601.CFFEX":        minuteBar(at, 6000, 6001, 5999, 6000, 10),
			"MO2601-P-5800.CFFEX": minuteBar(at, 85, 86, 84, 85, 5),
		})
	}

	require.Len(t, got, 1)
	assert.Len(t, got[0], 2)
	assert.Equal(t, 50.0, got[0]["IM2601.CFFEX"].Volume)
	assert.Equal(t, 25.0, got[0]["MO2601-P-5800.CFFEX"].Volume)
}
