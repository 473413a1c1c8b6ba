// Package hedge contiene los motores de cobertura: delta hedging con
// banda de tolerancia y gamma scalping sobre gamma positiva.
package hedge

import (
	"math"
	"time"

	"github.com/quantatrisk/voltrader/internal/domain"
)

// Señales con las que se etiquetan las órdenes de cobertura.
const (
	SignalDeltaHedge = "delta_hedge"
	SignalGammaScalp = "gamma_scalp"
)

// HedgeResult describe la decisión del motor: si cubre, con qué
// instrucción y por qué no en caso contrario.
type HedgeResult struct {
	ShouldHedge bool
	Volume      float64
	Direction   domain.Direction
	Instruction domain.OrderInstruction
	Reason      string
}

// DeltaEngine vigila la delta de cartera y genera la orden que la
// devuelve al objetivo cuando sale de la banda.
type DeltaEngine struct {
	cfg domain.HedgingConfig
}

// NewDeltaEngine construye el motor con la configuración dada.
func NewDeltaEngine(cfg domain.HedgingConfig) *DeltaEngine {
	return &DeltaEngine{cfg: cfg}
}

// CheckAndHedge evalúa la cartera y devuelve la decisión de cobertura
// junto con los eventos emitidos.
func (e *DeltaEngine) CheckAndHedge(pg domain.PortfolioGreeks, currentPrice float64, now time.Time) (HedgeResult, []domain.Event) {
	cfg := e.cfg

	if cfg.HedgeMultiplier <= 0 {
		return HedgeResult{Reason: "invalid config: multiplier <= 0"}, nil
	}
	if cfg.HedgeDelta == 0 {
		return HedgeResult{Reason: "hedge instrument delta is zero"}, nil
	}
	if currentPrice <= 0 {
		return HedgeResult{Reason: "current price <= 0"}, nil
	}

	deltaDiff := pg.Delta - cfg.TargetDelta
	if math.Abs(deltaDiff) <= cfg.HedgingBand {
		return HedgeResult{Reason: "delta within band"}, nil
	}

	raw := (cfg.TargetDelta - pg.Delta) / (cfg.HedgeDelta * cfg.HedgeMultiplier)
	volume := math.Round(raw)
	if volume == 0 {
		return HedgeResult{Reason: "hedge volume rounds to zero"}, nil
	}

	direction := domain.DirectionLong
	sign := 1.0
	if volume < 0 {
		direction = domain.DirectionShort
		sign = -1.0
		volume = -volume
	}

	instruction := domain.OrderInstruction{
		VTSymbol:  cfg.HedgeVTSymbol,
		Direction: direction,
		Offset:    domain.OffsetOpen,
		Volume:    volume,
		Price:     currentPrice,
		Signal:    SignalDeltaHedge,
		OrderType: domain.OrderTypeLimit,
	}

	deltaAfter := pg.Delta + sign*volume*cfg.HedgeDelta*cfg.HedgeMultiplier
	event := domain.NewHedgeExecutedEvent(cfg.HedgeVTSymbol, volume, direction, pg.Delta, deltaAfter, now)

	return HedgeResult{
		ShouldHedge: true,
		Volume:      volume,
		Direction:   direction,
		Instruction: instruction,
	}, []domain.Event{event}
}
