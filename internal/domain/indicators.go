package domain

// Trend es la tendencia detectada por las medias móviles.
type Trend string

const (
	TrendUp      Trend = "up"
	TrendDown    Trend = "down"
	TrendNeutral Trend = "neutral"
)

// EMAState es el valor por barra de las medias exponenciales rápida y lenta.
type EMAState struct {
	Fast        float64 `json:"fast"`
	Slow        float64 `json:"slow"`
	Trend       Trend   `json:"trend"`
	GoldenCross bool    `json:"golden_cross"`
	DeathCross  bool    `json:"death_cross"`
}

// MACDValue es el valor por barra del MACD.
type MACDValue struct {
	Dif     float64 `json:"dif"`
	Dea     float64 `json:"dea"`
	MacdBar float64 `json:"macd_bar"`
}

// MACDPeak es un extremo local del histograma MACD, con el contexto
// necesario para detectar divergencias.
type MACDPeak struct {
	BarIndex int     `json:"bar_index"`
	Value    float64 `json:"value"`
	Price    float64 `json:"price"`
	Dif      float64 `json:"dif"`
}

// IsTop devuelve true si el pico es de histograma positivo.
func (p MACDPeak) IsTop() bool { return p.Value > 0 }

// TDValue es el estado por barra del contador TD Setup (DeMark).
// Count positivo cuenta cierres por debajo del cierre de hace 4 barras,
// negativo por encima. Setup vale ±9 cuando la estructura completa.
// HasBuy89/HasSell89 indican un conteo de ±8/9 en las últimas 3 barras.
type TDValue struct {
	Count     int  `json:"count"`
	Setup     int  `json:"setup"`
	HasBuy89  bool `json:"has_buy_8_9"`
	HasSell89 bool `json:"has_sell_8_9"`
}

// DullnessState es el estado persistente de aplanamiento del MACD.
// No es un valor por barra: se arrastra entre barras y transiciona
// mediante los métodos With*.
type DullnessState struct {
	TopActive         bool `json:"top_active"`
	TopInvalidated    bool `json:"top_invalidated"`
	BottomActive      bool `json:"bottom_active"`
	BottomInvalidated bool `json:"bottom_invalidated"`
	DecreasingRun     int  `json:"decreasing_run"`
	IncreasingRun     int  `json:"increasing_run"`
}

// WithTopActive activa el aplanamiento de techo y limpia la invalidación.
func (d DullnessState) WithTopActive() DullnessState {
	d.TopActive = true
	d.TopInvalidated = false
	return d
}

// WithTopInvalidated marca el aplanamiento de techo como invalidado.
func (d DullnessState) WithTopInvalidated() DullnessState {
	d.TopActive = false
	d.TopInvalidated = true
	return d
}

// WithBottomActive activa el aplanamiento de suelo y limpia la invalidación.
func (d DullnessState) WithBottomActive() DullnessState {
	d.BottomActive = true
	d.BottomInvalidated = false
	return d
}

// WithBottomInvalidated marca el aplanamiento de suelo como invalidado.
func (d DullnessState) WithBottomInvalidated() DullnessState {
	d.BottomActive = false
	d.BottomInvalidated = true
	return d
}

// Reset limpia todo el estado; se usa cuando el DIF cruza cero.
func (d DullnessState) Reset() DullnessState {
	return DullnessState{}
}

// DivergenceState es el resultado de comparar los dos últimos picos MACD
// del mismo signo bajo aplanamiento activo.
type DivergenceState struct {
	TopDivergence    bool `json:"top_divergence"`
	BottomDivergence bool `json:"bottom_divergence"`
}

// IndicatorSet agrupa los valores derivados de la última barra procesada.
// Slots tipados en lugar de un mapa string→any: cada servicio lee y
// escribe su slot sin aserciones de tipo.
type IndicatorSet struct {
	EMA        EMAState           `json:"ema"`
	MACD       MACDValue          `json:"macd"`
	TD         TDValue            `json:"td"`
	Dullness   DullnessState      `json:"dullness"`
	Divergence DivergenceState    `json:"divergence"`
	Custom     map[string]float64 `json:"custom,omitempty"`
}
