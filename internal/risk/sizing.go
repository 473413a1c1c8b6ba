// Package risk agrupa el dimensionado de posiciones y el control de
// riesgo por griegas, tanto a nivel posición como de cartera.
package risk

import (
	"github.com/quantatrisk/voltrader/internal/domain"
)

// Valores por defecto del dimensionado.
const (
	DefaultMaxPositions     = 5
	DefaultGlobalDailyLimit = domain.DefaultGlobalDailyLimit
	DefaultPerContractLimit = domain.DefaultPerContractLimit
	DefaultPositionRatio    = 0.1
)

// Sizer calcula el volumen real de apertura y cierre aplicando los
// límites diarios y de cartera.
type Sizer struct {
	MaxPositions     int
	GlobalDailyLimit int
	PerContractLimit int
}

// NewSizer construye un Sizer con los límites por defecto.
func NewSizer() *Sizer {
	return &Sizer{
		MaxPositions:     DefaultMaxPositions,
		GlobalDailyLimit: DefaultGlobalDailyLimit,
		PerContractLimit: DefaultPerContractLimit,
	}
}

// OpenInstruction genera la instrucción de apertura, o false cuando
// algún límite la rechaza. La estrategia vende prima: apertura en corto
// de un lote fijo.
func (s *Sizer) OpenInstruction(signal, vtSymbol string, contractPrice float64, activePositions []*domain.Position, globalOpenCount, contractOpenCount int) (domain.OrderInstruction, bool) {
	if len(activePositions) >= s.MaxPositions {
		return domain.OrderInstruction{}, false
	}
	for _, p := range activePositions {
		if p.VTSymbol == vtSymbol && p.IsActive() {
			return domain.OrderInstruction{}, false
		}
	}
	if globalOpenCount+1 > s.GlobalDailyLimit {
		return domain.OrderInstruction{}, false
	}
	if contractOpenCount+1 > s.PerContractLimit {
		return domain.OrderInstruction{}, false
	}
	if contractPrice <= 0 {
		return domain.OrderInstruction{}, false
	}

	return domain.OrderInstruction{
		VTSymbol:  vtSymbol,
		Direction: domain.DirectionShort,
		Offset:    domain.OffsetOpen,
		Volume:    1,
		Price:     contractPrice,
		Signal:    signal,
		OrderType: domain.OrderTypeLimit,
	}, true
}

// CloseInstruction genera la instrucción de cierre de una posición
// activa, comprando para cerrar el corto completo.
func (s *Sizer) CloseInstruction(position *domain.Position, closePrice float64, signal string) (domain.OrderInstruction, bool) {
	if position == nil || !position.IsActive() || position.Volume <= 0 {
		return domain.OrderInstruction{}, false
	}
	return domain.OrderInstruction{
		VTSymbol:  position.VTSymbol,
		Direction: domain.DirectionLong,
		Offset:    domain.OffsetClose,
		Volume:    position.Volume,
		Price:     closePrice,
		Signal:    signal,
		OrderType: domain.OrderTypeLimit,
	}, true
}
