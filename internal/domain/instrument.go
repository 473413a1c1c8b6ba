package domain

import "time"

const (
	// DefaultBarCapacity limita la serie de barras por instrumento.
	// Cubre con margen el lookback máximo de los indicadores y el
	// histórico de picos MACD.
	DefaultBarCapacity = 600

	// MinBarsForSignals es el mínimo de barras antes de evaluar señales.
	MinBarsForSignals = 30
)

// TargetInstrument es el agregado por instrumento: serie de barras acotada,
// series paralelas de indicadores y los valores derivados de la última barra.
type TargetInstrument struct {
	VTSymbol       string
	Indicators     IndicatorSet
	LastUpdateTime time.Time

	capacity int
	trimmed  int // barras descartadas por la ventana; BarIndex global = trimmed + idx local

	bars    []Bar
	emaFast []float64
	emaSlow []float64
	dif     []float64
	dea     []float64
	macdBar []float64
	tdCount []int
	peaks   []MACDPeak
}

// NewTargetInstrument crea el instrumento con la capacidad por defecto.
func NewTargetInstrument(vtSymbol string) *TargetInstrument {
	return NewTargetInstrumentWithCapacity(vtSymbol, DefaultBarCapacity)
}

// NewTargetInstrumentWithCapacity permite ajustar la ventana en tests.
func NewTargetInstrumentWithCapacity(vtSymbol string, capacity int) *TargetInstrument {
	if capacity < MinBarsForSignals {
		capacity = MinBarsForSignals
	}
	return &TargetInstrument{VTSymbol: vtSymbol, capacity: capacity}
}

// AppendBar añade una barra y recorta la ventana si excede la capacidad.
// Las series paralelas se recortan en bloque para mantener el alineamiento.
func (t *TargetInstrument) AppendBar(bar Bar) {
	t.bars = append(t.bars, bar)
	t.LastUpdateTime = bar.Datetime
	if len(t.bars) <= t.capacity {
		return
	}
	drop := len(t.bars) - t.capacity
	t.trimmed += drop
	t.bars = t.bars[drop:]
	t.emaFast = trimFloats(t.emaFast, drop)
	t.emaSlow = trimFloats(t.emaSlow, drop)
	t.dif = trimFloats(t.dif, drop)
	t.dea = trimFloats(t.dea, drop)
	t.macdBar = trimFloats(t.macdBar, drop)
	if drop < len(t.tdCount) {
		t.tdCount = t.tdCount[drop:]
	} else {
		t.tdCount = t.tdCount[:0]
	}
}

func trimFloats(s []float64, drop int) []float64 {
	if drop >= len(s) {
		return s[:0]
	}
	return s[drop:]
}

// NumBars devuelve el número de barras retenidas en la ventana.
func (t *TargetInstrument) NumBars() int { return len(t.bars) }

// TotalBars devuelve el número de barras vistas desde el arranque,
// incluidas las ya descartadas.
func (t *TargetInstrument) TotalBars() int { return t.trimmed + len(t.bars) }

// Bar devuelve la barra en la posición local i.
func (t *TargetInstrument) Bar(i int) Bar { return t.bars[i] }

// LastBar devuelve la última barra. Pánico si no hay barras.
func (t *TargetInstrument) LastBar() Bar { return t.bars[len(t.bars)-1] }

// LatestClose devuelve el último cierre, o 0 sin barras.
func (t *TargetInstrument) LatestClose() float64 {
	if len(t.bars) == 0 {
		return 0
	}
	return t.bars[len(t.bars)-1].Close
}

// LatestHigh devuelve el último máximo, o 0 sin barras.
func (t *TargetInstrument) LatestHigh() float64 {
	if len(t.bars) == 0 {
		return 0
	}
	return t.bars[len(t.bars)-1].High
}

// LatestLow devuelve el último mínimo, o 0 sin barras.
func (t *TargetInstrument) LatestLow() float64 {
	if len(t.bars) == 0 {
		return 0
	}
	return t.bars[len(t.bars)-1].Low
}

// CloseAgo devuelve el cierre de hace n barras (n=0 es la última).
// ok=false si no hay suficientes barras en la ventana.
func (t *TargetInstrument) CloseAgo(n int) (float64, bool) {
	idx := len(t.bars) - 1 - n
	if idx < 0 {
		return 0, false
	}
	return t.bars[idx].Close, true
}

// HasEnoughData indica si hay barras suficientes para evaluar señales.
func (t *TargetInstrument) HasEnoughData() bool {
	return t.TotalBars() >= MinBarsForSignals
}

// PushEMA añade el par de medias de la barra recién procesada.
func (t *TargetInstrument) PushEMA(fast, slow float64) {
	t.emaFast = append(t.emaFast, fast)
	t.emaSlow = append(t.emaSlow, slow)
}

// PushMACD añade los valores MACD de la barra recién procesada.
func (t *TargetInstrument) PushMACD(dif, dea, bar float64) {
	t.dif = append(t.dif, dif)
	t.dea = append(t.dea, dea)
	t.macdBar = append(t.macdBar, bar)
}

// PushTD añade el contador TD de la barra recién procesada.
func (t *TargetInstrument) PushTD(count int) {
	t.tdCount = append(t.tdCount, count)
}

// EMAFastSeries devuelve la serie de la media rápida alineada con las barras.
func (t *TargetInstrument) EMAFastSeries() []float64 { return t.emaFast }

// EMASlowSeries devuelve la serie de la media lenta alineada con las barras.
func (t *TargetInstrument) EMASlowSeries() []float64 { return t.emaSlow }

// DifSeries devuelve la serie DIF alineada con las barras.
func (t *TargetInstrument) DifSeries() []float64 { return t.dif }

// DeaSeries devuelve la serie DEA alineada con las barras.
func (t *TargetInstrument) DeaSeries() []float64 { return t.dea }

// MACDBarSeries devuelve la serie del histograma alineada con las barras.
func (t *TargetInstrument) MACDBarSeries() []float64 { return t.macdBar }

// TDCountSeries devuelve la serie del contador TD alineada con las barras.
func (t *TargetInstrument) TDCountSeries() []int { return t.tdCount }

// RecordPeak registra un extremo local del histograma MACD.
// Se retienen como máximo los últimos 500.
func (t *TargetInstrument) RecordPeak(p MACDPeak) {
	t.peaks = append(t.peaks, p)
	if len(t.peaks) > 500 {
		t.peaks = t.peaks[len(t.peaks)-500:]
	}
}

// Peaks devuelve el histórico de picos MACD, el más antiguo primero.
func (t *TargetInstrument) Peaks() []MACDPeak { return t.peaks }

// LastTwoPeaksSameSign devuelve los dos picos más recientes del signo pedido
// (top=positivo). ok=false si no hay dos.
func (t *TargetInstrument) LastTwoPeaksSameSign(top bool) (prev, last MACDPeak, ok bool) {
	var found []MACDPeak
	for i := len(t.peaks) - 1; i >= 0 && len(found) < 2; i-- {
		if t.peaks[i].IsTop() == top {
			found = append(found, t.peaks[i])
		}
	}
	if len(found) < 2 {
		return MACDPeak{}, MACDPeak{}, false
	}
	return found[1], found[0], true
}

// InstrumentState es la forma serializable de TargetInstrument.
type InstrumentState struct {
	VTSymbol       string       `json:"vt_symbol"`
	Capacity       int          `json:"capacity"`
	Trimmed        int          `json:"trimmed"`
	LastUpdateTime time.Time    `json:"last_update_time"`
	Indicators     IndicatorSet `json:"indicators"`
	Bars           []Bar        `json:"bars"`
	EMAFast        []float64    `json:"ema_fast"`
	EMASlow        []float64    `json:"ema_slow"`
	Dif            []float64    `json:"dif"`
	Dea            []float64    `json:"dea"`
	MACDBar        []float64    `json:"macd_bar"`
	TDCount        []int        `json:"td_count"`
	Peaks          []MACDPeak   `json:"peaks"`
}

// Snapshot devuelve el estado serializable del instrumento.
func (t *TargetInstrument) Snapshot() InstrumentState {
	return InstrumentState{
		VTSymbol:       t.VTSymbol,
		Capacity:       t.capacity,
		Trimmed:        t.trimmed,
		LastUpdateTime: t.LastUpdateTime,
		Indicators:     t.Indicators,
		Bars:           append([]Bar(nil), t.bars...),
		EMAFast:        append([]float64(nil), t.emaFast...),
		EMASlow:        append([]float64(nil), t.emaSlow...),
		Dif:            append([]float64(nil), t.dif...),
		Dea:            append([]float64(nil), t.dea...),
		MACDBar:        append([]float64(nil), t.macdBar...),
		TDCount:        append([]int(nil), t.tdCount...),
		Peaks:          append([]MACDPeak(nil), t.peaks...),
	}
}

// InstrumentFromState reconstruye el instrumento desde su snapshot.
func InstrumentFromState(s InstrumentState) *TargetInstrument {
	t := NewTargetInstrumentWithCapacity(s.VTSymbol, s.Capacity)
	t.trimmed = s.Trimmed
	t.LastUpdateTime = s.LastUpdateTime
	t.Indicators = s.Indicators
	t.bars = append([]Bar(nil), s.Bars...)
	t.emaFast = append([]float64(nil), s.EMAFast...)
	t.emaSlow = append([]float64(nil), s.EMASlow...)
	t.dif = append([]float64(nil), s.Dif...)
	t.dea = append([]float64(nil), s.Dea...)
	t.macdBar = append([]float64(nil), s.MACDBar...)
	t.tdCount = append([]int(nil), s.TDCount...)
	t.peaks = append([]MACDPeak(nil), s.Peaks...)
	return t
}
