package engine

import (
	"time"

	"github.com/quantatrisk/voltrader/internal/domain"
)

// BarInterval es la unidad de la ventana de síntesis.
type BarInterval string

const (
	IntervalMinute BarInterval = "minute"
	IntervalHour   BarInterval = "hour"
	IntervalDaily  BarInterval = "daily"
)

// BarPipeline sintetiza barras de ventana (interval, window) a partir
// del flujo de barras de 1 minuto. Con window 1 y minute el motor no
// instala pipeline y las barras pasan tal cual.
type BarPipeline struct {
	callback func(map[string]domain.Bar)
	interval BarInterval
	window   int

	partial     map[string]*domain.Bar
	windowStart time.Time
	hourCount   int
}

// NewBarPipeline crea el pipeline con el callback de ventana cerrada.
func NewBarPipeline(callback func(map[string]domain.Bar), interval BarInterval, window int) *BarPipeline {
	if window < 1 {
		window = 1
	}
	return &BarPipeline{
		callback: callback,
		interval: interval,
		window:   window,
		partial:  make(map[string]*domain.Bar),
	}
}

// HandleTick refresca los extremos de la barra parcial del símbolo.
func (p *BarPipeline) HandleTick(tick domain.Tick) {
	bar, ok := p.partial[tick.VTSymbol]
	if !ok || tick.LastPrice <= 0 {
		return
	}
	if tick.LastPrice > bar.High {
		bar.High = tick.LastPrice
	}
	if tick.LastPrice < bar.Low {
		bar.Low = tick.LastPrice
	}
	bar.Close = tick.LastPrice
}

// HandleBars acumula el lote de barras de 1 minuto y emite la ventana
// sintetizada cuando el lote la cierra.
func (p *BarPipeline) HandleBars(bars map[string]domain.Bar) {
	if len(bars) == 0 {
		return
	}
	var batchTime time.Time
	for _, bar := range bars {
		batchTime = bar.Datetime
		break
	}
	p.merge(batchTime, bars)

	if p.windowClosed(batchTime) {
		p.flush()
	}
}

// merge funde el lote en las barras parciales.
func (p *BarPipeline) merge(batchTime time.Time, bars map[string]domain.Bar) {
	if p.windowStart.IsZero() {
		p.windowStart = batchTime
	}
	for vtSymbol, bar := range bars {
		partial, ok := p.partial[vtSymbol]
		if !ok {
			b := bar
			b.Datetime = p.windowStart
			p.partial[vtSymbol] = &b
			continue
		}
		if bar.High > partial.High {
			partial.High = bar.High
		}
		if bar.Low < partial.Low {
			partial.Low = bar.Low
		}
		partial.Close = bar.Close
		partial.Volume += bar.Volume
	}
}

// windowClosed decide si la barra con ese timestamp cierra la ventana.
func (p *BarPipeline) windowClosed(t time.Time) bool {
	switch p.interval {
	case IntervalMinute:
		return (t.Minute()+1)%p.window == 0
	case IntervalHour:
		if t.Minute() != 59 {
			return false
		}
		p.hourCount++
		if p.hourCount >= p.window {
			p.hourCount = 0
			return true
		}
		return false
	case IntervalDaily:
		// Cierre de la sesión diurna china.
		return t.Hour() == 15 && t.Minute() == 0
	}
	return false
}

// flush emite el mapa sintetizado y reinicia la ventana.
func (p *BarPipeline) flush() {
	if len(p.partial) == 0 {
		return
	}
	out := make(map[string]domain.Bar, len(p.partial))
	for vtSymbol, bar := range p.partial {
		out[vtSymbol] = *bar
	}
	p.partial = make(map[string]*domain.Bar)
	p.windowStart = time.Time{}
	p.callback(out)
}
