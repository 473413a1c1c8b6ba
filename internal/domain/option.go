package domain

import "time"

// OptionType distingue call de put.
type OptionType string

const (
	OptionCall OptionType = "call"
	OptionPut  OptionType = "put"
)

// OptionContract es una fila de la cadena de opciones con su cotización actual.
type OptionContract struct {
	VTSymbol         string
	UnderlyingSymbol string
	OptionType       OptionType
	Strike           float64
	Expiry           time.Time
	BidPrice         float64
	BidVolume        float64
	AskPrice         float64
	AskVolume        float64
	DaysToExpiry     int
	OTMDistance      float64
}

// GreeksResult son las sensibilidades Black-Scholes de una opción.
type GreeksResult struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
}

// PortfolioGreeks son las griegas agregadas de la cartera, ya ponderadas
// por volumen y multiplicador.
type PortfolioGreeks struct {
	Delta float64
	Gamma float64
	Theta float64
	Vega  float64
}

// GreeksLimits son los umbrales en valor absoluto para cada griega.
type GreeksLimits struct {
	Delta float64 `yaml:"delta"`
	Gamma float64 `yaml:"gamma"`
	Vega  float64 `yaml:"vega"`
}

// RiskThresholds agrupa los límites a nivel posición y cartera.
type RiskThresholds struct {
	Position  GreeksLimits `yaml:"position_limits"`
	Portfolio GreeksLimits `yaml:"portfolio_limits"`
}

// HedgingConfig parametriza el motor de cobertura delta.
type HedgingConfig struct {
	TargetDelta      float64 `yaml:"target_delta"`
	HedgingBand      float64 `yaml:"hedging_band"`
	HedgeVTSymbol    string  `yaml:"hedge_instrument_vt_symbol"`
	HedgeDelta       float64 `yaml:"hedge_instrument_delta"`
	HedgeMultiplier  float64 `yaml:"hedge_instrument_multiplier"`
}

// GammaScalpConfig parametriza el motor de gamma scalping.
type GammaScalpConfig struct {
	RebalanceThreshold float64 `yaml:"rebalance_threshold"`
	HedgeVTSymbol      string  `yaml:"hedge_instrument_vt_symbol"`
	HedgeDelta         float64 `yaml:"hedge_instrument_delta"`
	HedgeMultiplier    float64 `yaml:"hedge_instrument_multiplier"`
}

// OrderExecutionConfig parametriza el ejecutor de órdenes adaptativo.
type OrderExecutionConfig struct {
	TimeoutSeconds float64 `yaml:"timeout_seconds"`
	MaxRetries     int     `yaml:"max_retries"`
	SlippageTicks  float64 `yaml:"slippage_ticks"`
	PriceTick      float64 `yaml:"price_tick"`
}
