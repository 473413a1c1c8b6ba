package indicator

import "github.com/quantatrisk/voltrader/internal/domain"

// dullnessRun es la racha de histogramas estrictamente decrecientes
// (o crecientes en el suelo) que activa el aplanamiento.
const dullnessRun = 3

// updateDullness hace avanzar el estado persistente de aplanamiento.
//
// Techo: con DIF > 0, tres histogramas consecutivos estrictamente
// decrecientes activan el aplanamiento; una subida posterior del
// histograma lo invalida. Suelo es el espejo con DIF < 0 e histograma
// creciente (menos negativo). Un cruce de cero del DIF resetea todo.
func (s *Service) updateDullness(inst *domain.TargetInstrument, prev domain.DullnessState) domain.DullnessState {
	dif := inst.DifSeries()
	macd := inst.MACDBarSeries()
	n := len(macd)
	if n < 2 {
		return prev
	}

	// Cruce de cero del DIF: estado limpio
	if n >= 2 && zeroCross(dif[n-2], dif[n-1]) {
		return domain.DullnessState{}
	}

	state := prev
	curr, last := macd[n-1], macd[n-2]

	if dif[n-1] > 0 {
		switch {
		case curr < last:
			state.DecreasingRun++
			state.IncreasingRun = 0
			if state.DecreasingRun >= dullnessRun && !state.TopActive {
				state = state.WithTopActive()
			}
		case curr > last:
			state.DecreasingRun = 0
			if state.TopActive {
				state = state.WithTopInvalidated()
			}
		}
		return state
	}

	if dif[n-1] < 0 {
		switch {
		case curr > last:
			state.IncreasingRun++
			state.DecreasingRun = 0
			if state.IncreasingRun >= dullnessRun && !state.BottomActive {
				state = state.WithBottomActive()
			}
		case curr < last:
			state.IncreasingRun = 0
			if state.BottomActive {
				state = state.WithBottomInvalidated()
			}
		}
		return state
	}

	return state
}

// zeroCross detecta cambio de signo estricto entre dos valores.
func zeroCross(a, b float64) bool {
	return (a > 0 && b < 0) || (a < 0 && b > 0)
}

// updateDivergence confirma divergencias comparando los dos últimos
// picos del mismo signo, solo con el aplanamiento correspondiente activo.
//
// Divergencia de techo: precio más alto con DIF más bajo entre picos
// positivos. Divergencia de suelo: precio más bajo con DIF más alto
// entre picos negativos.
func (s *Service) updateDivergence(inst *domain.TargetInstrument, dullness domain.DullnessState) domain.DivergenceState {
	var state domain.DivergenceState

	if dullness.TopActive {
		if prev, last, ok := inst.LastTwoPeaksSameSign(true); ok {
			state.TopDivergence = last.Price > prev.Price && last.Dif < prev.Dif
		}
	}
	if dullness.BottomActive {
		if prev, last, ok := inst.LastTwoPeaksSameSign(false); ok {
			state.BottomDivergence = last.Price < prev.Price && last.Dif > prev.Dif
		}
	}
	return state
}
