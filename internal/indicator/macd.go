package indicator

import "github.com/quantatrisk/voltrader/internal/domain"

// updateMACD calcula DIF, DEA y el histograma de la barra recién añadida.
// Reutiliza las medias rápida/lenta ya empujadas por updateEMA.
func (s *Service) updateMACD(inst *domain.TargetInstrument) domain.MACDValue {
	fast := inst.EMAFastSeries()
	slow := inst.EMASlowSeries()
	n := len(fast)

	dif := fast[n-1] - slow[n-1]

	deaSeries := inst.DeaSeries()
	first := len(deaSeries) == 0
	var prevDea float64
	if !first {
		prevDea = deaSeries[len(deaSeries)-1]
	}
	dea := ema(prevDea, dif, s.SignalPeriod, first)

	macdBar := 2 * (dif - dea)
	inst.PushMACD(dif, dea, macdBar)

	return domain.MACDValue{Dif: dif, Dea: dea, MacdBar: macdBar}
}

// detectPeak evalúa si la barra que acaba de completar su ventana de
// confirmación (peakLookback barras por delante) es un extremo local
// del histograma, y lo registra en el instrumento.
//
// Un pico de techo es un histograma positivo mayor o igual que todos
// sus vecinos en ±peakLookback; el de suelo es el espejo en negativo.
func (s *Service) detectPeak(inst *domain.TargetInstrument) {
	macd := inst.MACDBarSeries()
	n := len(macd)
	i := n - 1 - s.PeakLookback
	if i < s.PeakLookback {
		return
	}

	current := macd[i]
	if current == 0 {
		return
	}

	top := current > 0
	for j := i - s.PeakLookback; j <= i+s.PeakLookback; j++ {
		if j == i {
			continue
		}
		if top && current < macd[j] {
			return
		}
		if !top && current > macd[j] {
			return
		}
	}

	inst.RecordPeak(domain.MACDPeak{
		BarIndex: inst.TotalBars() - inst.NumBars() + i,
		Value:    current,
		Price:    inst.Bar(i).Close,
		Dif:      inst.DifSeries()[i],
	})
}
