package selector

import (
	"sort"

	"github.com/quantatrisk/voltrader/internal/domain"
)

// Valores por defecto del filtro de cadena de opciones.
const (
	DefaultStrikeLevel    = 3
	DefaultMinBidPrice    = 10.0
	DefaultMinBidVolume   = 10.0
	DefaultMinTradingDays = 1
	DefaultMaxTradingDays = 50
)

// Umbrales del chequeo de liquidez previo a la apertura.
const (
	LiquidityMinVolume    = 100.0
	LiquidityMinBidVolume = 1.0
	LiquidityMaxSpread    = 3.0
)

// OptionSelector filtra una cadena de opciones y selecciona la opción
// virtual en el nivel pedido.
type OptionSelector struct {
	StrikeLevel    int
	MinBidPrice    float64
	MinBidVolume   float64
	MinTradingDays int
	MaxTradingDays int
}

// NewOptionSelector construye un selector con los valores por defecto.
func NewOptionSelector() *OptionSelector {
	return &OptionSelector{
		StrikeLevel:    DefaultStrikeLevel,
		MinBidPrice:    DefaultMinBidPrice,
		MinBidVolume:   DefaultMinBidVolume,
		MinTradingDays: DefaultMinTradingDays,
		MaxTradingDays: DefaultMaxTradingDays,
	}
}

// otmDistance es la distancia virtual con signo; positiva cuando la
// opción está fuera del dinero.
func otmDistance(c domain.OptionContract, underlyingPrice float64) float64 {
	if c.OptionType == domain.OptionCall {
		return (c.Strike - underlyingPrice) / underlyingPrice
	}
	return (underlyingPrice - c.Strike) / underlyingPrice
}

// filterChain aplica tipo, liquidez y ventana de vencimiento, calcula
// la distancia virtual y devuelve solo las filas fuera del dinero
// ordenadas de la más cercana a la más profunda.
func (s *OptionSelector) filterChain(chain []domain.OptionContract, optionType domain.OptionType, underlyingPrice float64) []domain.OptionContract {
	if underlyingPrice <= 0 {
		return nil
	}
	var out []domain.OptionContract
	for _, c := range chain {
		if c.OptionType != optionType {
			continue
		}
		if c.BidPrice < s.MinBidPrice || c.BidVolume < s.MinBidVolume {
			continue
		}
		if c.DaysToExpiry < s.MinTradingDays || c.DaysToExpiry > s.MaxTradingDays {
			continue
		}
		c.OTMDistance = otmDistance(c, underlyingPrice)
		if c.OTMDistance <= 0 {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OTMDistance < out[j].OTMDistance })
	return out
}

// SelectTarget elige la opción virtual en la posición level (base 0,
// la más cercana primero). level < 0 usa el nivel configurado. Si hay
// menos candidatas que el nivel pedido devuelve la más profunda.
func (s *OptionSelector) SelectTarget(chain []domain.OptionContract, optionType domain.OptionType, underlyingPrice float64, level int) (domain.OptionContract, bool) {
	if level < 0 {
		level = s.StrikeLevel
	}
	candidates := s.filterChain(chain, optionType, underlyingPrice)
	if len(candidates) == 0 {
		return domain.OptionContract{}, false
	}
	if level >= len(candidates) {
		return candidates[len(candidates)-1], true
	}
	return candidates[level], true
}

// AllOTM devuelve todas las opciones fuera del dinero que superan los
// filtros, ordenadas de la más cercana a la más profunda.
func (s *OptionSelector) AllOTM(chain []domain.OptionContract, optionType domain.OptionType, underlyingPrice float64) []domain.OptionContract {
	return s.filterChain(chain, optionType, underlyingPrice)
}

// CheckLiquidity valida la liquidez del tick antes de abrir: volumen
// diario, profundidad en el bid y spread en ticks.
func (s *OptionSelector) CheckLiquidity(tick domain.Tick, params domain.ContractParams) bool {
	if tick.Volume < LiquidityMinVolume {
		return false
	}
	if tick.BidVolume1 < LiquidityMinBidVolume {
		return false
	}
	if params.PriceTick <= 0 {
		return false
	}
	spreadTicks := tick.Spread() / params.PriceTick
	return spreadTicks < LiquidityMaxSpread
}
