// Package indicator calcula los indicadores derivados por barra:
// medias exponenciales, MACD con detección de picos, contador TD y los
// estados persistentes de aplanamiento y divergencia.
package indicator

import "github.com/quantatrisk/voltrader/internal/domain"

// Parámetros por defecto del pipeline.
const (
	DefaultFastPeriod    = 12
	DefaultSlowPeriod    = 26
	DefaultSignalPeriod  = 9
	DefaultTrendLookback = 5
	DefaultPeakLookback  = 5
)

// Service calcula todos los indicadores de una barra y los escribe en
// los slots tipados del instrumento. Es determinista: reproducir el
// mismo stream de barras produce los mismos estados.
type Service struct {
	FastPeriod    int
	SlowPeriod    int
	SignalPeriod  int
	TrendLookback int
	PeakLookback  int
}

// NewService crea el servicio con los parámetros por defecto.
func NewService() *Service {
	return &Service{
		FastPeriod:    DefaultFastPeriod,
		SlowPeriod:    DefaultSlowPeriod,
		SignalPeriod:  DefaultSignalPeriod,
		TrendLookback: DefaultTrendLookback,
		PeakLookback:  DefaultPeakLookback,
	}
}

// CalculateBar procesa la barra ya añadida al instrumento: empuja las
// series paralelas y actualiza el IndicatorSet. Debe llamarse
// exactamente una vez por barra, tras InstrumentManager.UpdateBar.
func (s *Service) CalculateBar(inst *domain.TargetInstrument, bar domain.Bar) {
	emaState := s.updateEMA(inst, bar)
	macdValue := s.updateMACD(inst)
	tdValue := s.updateTD(inst)
	s.detectPeak(inst)

	dullness := s.updateDullness(inst, inst.Indicators.Dullness)
	divergence := s.updateDivergence(inst, dullness)

	inst.Indicators.EMA = emaState
	inst.Indicators.MACD = macdValue
	inst.Indicators.TD = tdValue
	inst.Indicators.Dullness = dullness
	inst.Indicators.Divergence = divergence
}
