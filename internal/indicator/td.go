package indicator

import "github.com/quantatrisk/voltrader/internal/domain"

// tdLookback es el desplazamiento de comparación del TD Setup:
// cada cierre se compara con el de hace 4 barras.
const tdLookback = 4

// tdSignalWindow es cuántas barras recientes se miran para los flags 8/9.
const tdSignalWindow = 3

// updateTD calcula el contador TD de la barra recién añadida.
// Count positivo encadena cierres por debajo del cierre de hace 4
// barras (setup de compra), negativo por encima (setup de venta);
// la igualdad corta la racha.
func (s *Service) updateTD(inst *domain.TargetInstrument) domain.TDValue {
	n := inst.NumBars()
	count := 0

	if compare, ok := inst.CloseAgo(tdLookback); ok && n > tdLookback {
		current := inst.LatestClose()
		prev := 0
		if series := inst.TDCountSeries(); len(series) > 0 {
			prev = series[len(series)-1]
		}
		switch {
		case current < compare:
			if prev > 0 {
				count = prev + 1
			} else {
				count = 1
			}
		case current > compare:
			if prev < 0 {
				count = prev - 1
			} else {
				count = -1
			}
		}
	}
	inst.PushTD(count)

	setup := 0
	if count >= 9 {
		setup = 9
	} else if count <= -9 {
		setup = -9
	}

	buy89, sell89 := tdRecentSignals(inst.TDCountSeries())
	return domain.TDValue{Count: count, Setup: setup, HasBuy89: buy89, HasSell89: sell89}
}

// tdRecentSignals busca conteos de ±8/9 en las últimas barras.
func tdRecentSignals(counts []int) (buy, sell bool) {
	start := len(counts) - tdSignalWindow
	if start < 0 {
		start = 0
	}
	for _, c := range counts[start:] {
		if c == 8 || c == 9 {
			buy = true
		}
		if c == -8 || c == -9 {
			sell = true
		}
	}
	return buy, sell
}
