package risk

import (
	"fmt"
	"math"
	"time"

	"github.com/quantatrisk/voltrader/internal/domain"
)

// PositionGreeksEntry es la contribución de una posición activa al
// agregado de cartera.
type PositionGreeksEntry struct {
	VTSymbol   string
	Greeks     domain.GreeksResult
	Volume     float64
	Multiplier float64
}

// Aggregator hace el chequeo de griegas previo a la apertura y la
// agregación ponderada a nivel cartera.
type Aggregator struct {
	thresholds domain.RiskThresholds
}

// NewAggregator construye un agregador con los umbrales dados.
func NewAggregator(thresholds domain.RiskThresholds) *Aggregator {
	return &Aggregator{thresholds: thresholds}
}

// CheckPositionRisk valida que las griegas ponderadas de la posición
// candidata no superen los umbrales. Devuelve nil si pasa.
func (a *Aggregator) CheckPositionRisk(g domain.GreeksResult, volume, multiplier float64) error {
	weightedDelta := math.Abs(g.Delta * volume * multiplier)
	weightedGamma := math.Abs(g.Gamma * volume * multiplier)
	weightedVega := math.Abs(g.Vega * volume * multiplier)

	if weightedDelta > a.thresholds.Position.Delta {
		return fmt.Errorf("risk.CheckPositionRisk: delta limit exceeded: %.4f > %.4f", weightedDelta, a.thresholds.Position.Delta)
	}
	if weightedGamma > a.thresholds.Position.Gamma {
		return fmt.Errorf("risk.CheckPositionRisk: gamma limit exceeded: %.4f > %.4f", weightedGamma, a.thresholds.Position.Gamma)
	}
	if weightedVega > a.thresholds.Position.Vega {
		return fmt.Errorf("risk.CheckPositionRisk: vega limit exceeded: %.4f > %.4f", weightedVega, a.thresholds.Position.Vega)
	}
	return nil
}

// AggregatePortfolioGreeks suma las griegas ponderadas de todas las
// posiciones y devuelve el agregado junto con los eventos de umbral
// vulnerado a nivel cartera.
func (a *Aggregator) AggregatePortfolioGreeks(entries []PositionGreeksEntry, now time.Time) (domain.PortfolioGreeks, []domain.Event) {
	var total domain.PortfolioGreeks
	for _, e := range entries {
		weight := e.Volume * e.Multiplier
		total.Delta += e.Greeks.Delta * weight
		total.Gamma += e.Greeks.Gamma * weight
		total.Theta += e.Greeks.Theta * weight
		total.Vega += e.Greeks.Vega * weight
	}

	var events []domain.Event
	if math.Abs(total.Delta) > a.thresholds.Portfolio.Delta {
		events = append(events, domain.NewGreeksRiskBreachEvent(domain.RiskLevelPortfolio, "delta", total.Delta, a.thresholds.Portfolio.Delta, now))
	}
	if math.Abs(total.Gamma) > a.thresholds.Portfolio.Gamma {
		events = append(events, domain.NewGreeksRiskBreachEvent(domain.RiskLevelPortfolio, "gamma", total.Gamma, a.thresholds.Portfolio.Gamma, now))
	}
	if math.Abs(total.Vega) > a.thresholds.Portfolio.Vega {
		events = append(events, domain.NewGreeksRiskBreachEvent(domain.RiskLevelPortfolio, "vega", total.Vega, a.thresholds.Portfolio.Vega, now))
	}
	return total, events
}
