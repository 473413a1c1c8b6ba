package indicator

import "github.com/quantatrisk/voltrader/internal/domain"

// ema aplica un paso de media exponencial: alpha*price + (1-alpha)*prev.
// La primera observación arranca la serie con el propio precio.
func ema(prev, price float64, period int, first bool) float64 {
	if first {
		return price
	}
	alpha := 2.0 / (float64(period) + 1.0)
	return alpha*price + (1-alpha)*prev
}

// updateEMA calcula las medias de la barra y deriva tendencia y cruces.
func (s *Service) updateEMA(inst *domain.TargetInstrument, bar domain.Bar) domain.EMAState {
	fastSeries := inst.EMAFastSeries()
	slowSeries := inst.EMASlowSeries()
	first := len(fastSeries) == 0

	var prevFast, prevSlow float64
	if !first {
		prevFast = fastSeries[len(fastSeries)-1]
		prevSlow = slowSeries[len(slowSeries)-1]
	}

	fast := ema(prevFast, bar.Close, s.FastPeriod, first)
	slow := ema(prevSlow, bar.Close, s.SlowPeriod, first)
	inst.PushEMA(fast, slow)

	state := domain.EMAState{
		Fast:  fast,
		Slow:  slow,
		Trend: s.determineTrend(inst),
	}
	if !first {
		// Cruces: se comparan las dos últimas barras
		state.GoldenCross = prevFast <= prevSlow && fast > slow
		state.DeathCross = prevFast >= prevSlow && fast < slow
	}
	return state
}

// determineTrend mira las últimas trendLookback barras: alcista si la
// rápida está por encima de la lenta en todas y además sube; bajista
// en el caso espejo; neutral en el resto.
func (s *Service) determineTrend(inst *domain.TargetInstrument) domain.Trend {
	fast := inst.EMAFastSeries()
	slow := inst.EMASlowSeries()
	n := len(fast)
	if n < s.TrendLookback {
		return domain.TrendNeutral
	}

	start := n - s.TrendLookback
	above, below := true, true
	for i := start; i < n; i++ {
		if fast[i] <= slow[i] {
			above = false
		}
		if fast[i] >= slow[i] {
			below = false
		}
	}
	direction := fast[n-1] - fast[start]

	switch {
	case above && direction > 0:
		return domain.TrendUp
	case below && direction < 0:
		return domain.TrendDown
	}
	return domain.TrendNeutral
}
