package hedge

import (
	"math"
	"time"

	"github.com/quantatrisk/voltrader/internal/domain"
)

// ScalpResult describe la decisión del motor de gamma scalping. Un
// rechazo es distinto de un simple "sin rebalanceo": las condiciones
// de entrada no se cumplen.
type ScalpResult struct {
	ShouldRebalance bool
	Rejected        bool
	Volume          float64
	Direction       domain.Direction
	Instruction     domain.OrderInstruction
	Reason          string
}

// GammaEngine rebalancea la delta hacia cero mientras la cartera
// mantiene gamma positiva.
type GammaEngine struct {
	cfg domain.GammaScalpConfig
}

// NewGammaEngine construye el motor con la configuración dada.
func NewGammaEngine(cfg domain.GammaScalpConfig) *GammaEngine {
	return &GammaEngine{cfg: cfg}
}

// CheckAndRebalance evalúa la cartera y devuelve la decisión junto con
// los eventos emitidos.
func (e *GammaEngine) CheckAndRebalance(pg domain.PortfolioGreeks, currentPrice float64, now time.Time) (ScalpResult, []domain.Event) {
	cfg := e.cfg

	if pg.Gamma <= 0 {
		return ScalpResult{Rejected: true, Reason: "portfolio gamma is not positive"}, nil
	}
	if cfg.HedgeMultiplier <= 0 {
		return ScalpResult{Rejected: true, Reason: "invalid config: multiplier <= 0"}, nil
	}
	if cfg.HedgeDelta == 0 {
		return ScalpResult{Rejected: true, Reason: "hedge instrument delta is zero"}, nil
	}
	if currentPrice <= 0 {
		return ScalpResult{Rejected: true, Reason: "current price <= 0"}, nil
	}

	if math.Abs(pg.Delta) <= cfg.RebalanceThreshold {
		return ScalpResult{Reason: "delta within threshold"}, nil
	}

	raw := -pg.Delta / (cfg.HedgeDelta * cfg.HedgeMultiplier)
	volume := math.Round(raw)
	if volume == 0 {
		return ScalpResult{Reason: "rebalance volume rounds to zero"}, nil
	}

	direction := domain.DirectionLong
	if volume < 0 {
		direction = domain.DirectionShort
		volume = -volume
	}

	instruction := domain.OrderInstruction{
		VTSymbol:  cfg.HedgeVTSymbol,
		Direction: direction,
		Offset:    domain.OffsetOpen,
		Volume:    volume,
		Price:     currentPrice,
		Signal:    SignalGammaScalp,
		OrderType: domain.OrderTypeLimit,
	}

	event := domain.NewGammaScalpEvent(cfg.HedgeVTSymbol, volume, direction, pg.Delta, pg.Gamma, now)

	return ScalpResult{
		ShouldRebalance: true,
		Volume:          volume,
		Direction:       direction,
		Instruction:     instruction,
	}, []domain.Event{event}
}
