package domain

import "time"

// EventKind clasifica los eventos de dominio; el notificador enruta
// por categoría.
type EventKind string

const (
	EventManualClose         EventKind = "manual_close"
	EventManualOpen          EventKind = "manual_open"
	EventRiskLimitExceeded   EventKind = "risk_limit_exceeded"
	EventGreeksRiskBreach    EventKind = "greeks_risk_breach"
	EventOrderTimeout        EventKind = "order_timeout"
	EventOrderRetryExhausted EventKind = "order_retry_exhausted"
	EventIcebergComplete     EventKind = "iceberg_complete"
	EventIcebergCancelled    EventKind = "iceberg_cancelled"
	EventTWAPComplete        EventKind = "twap_complete"
	EventVWAPComplete        EventKind = "vwap_complete"
	EventHedgeExecuted       EventKind = "hedge_executed"
	EventGammaScalp          EventKind = "gamma_scalp"
	EventOpenSignal          EventKind = "open_signal"
	EventCloseSignal         EventKind = "close_signal"
)

// Event es el contrato común de todos los eventos de dominio.
type Event interface {
	Kind() EventKind
	At() time.Time
}

// baseEvent lleva el timestamp común.
type baseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

func (e baseEvent) At() time.Time { return e.Timestamp }

// NewBaseEvent estampa el momento de emisión.
func newBaseEvent(at time.Time) baseEvent { return baseEvent{Timestamp: at} }

// ManualCloseDetectedEvent: el exchange reporta menos volumen del que
// la estrategia cree tener; alguien cerró a mano.
type ManualCloseDetectedEvent struct {
	baseEvent
	VTSymbol string  `json:"vt_symbol"`
	Volume   float64 `json:"volume"`
}

func NewManualCloseDetectedEvent(vtSymbol string, volume float64, at time.Time) ManualCloseDetectedEvent {
	return ManualCloseDetectedEvent{baseEvent: newBaseEvent(at), VTSymbol: vtSymbol, Volume: volume}
}

func (ManualCloseDetectedEvent) Kind() EventKind { return EventManualClose }

// ManualOpenDetectedEvent: el exchange reporta más volumen del gestionado.
// La estrategia no adopta los contratos extra; solo avisa.
type ManualOpenDetectedEvent struct {
	baseEvent
	VTSymbol string  `json:"vt_symbol"`
	Volume   float64 `json:"volume"`
}

func NewManualOpenDetectedEvent(vtSymbol string, volume float64, at time.Time) ManualOpenDetectedEvent {
	return ManualOpenDetectedEvent{baseEvent: newBaseEvent(at), VTSymbol: vtSymbol, Volume: volume}
}

func (ManualOpenDetectedEvent) Kind() EventKind { return EventManualOpen }

// RiskLimitType distingue el límite diario global del límite por contrato.
type RiskLimitType string

const (
	RiskLimitGlobal   RiskLimitType = "global"
	RiskLimitContract RiskLimitType = "contract"
)

// RiskLimitExceededEvent: un fill de apertura cruzó un límite diario.
type RiskLimitExceededEvent struct {
	baseEvent
	VTSymbol      string        `json:"vt_symbol"`
	LimitType     RiskLimitType `json:"limit_type"`
	CurrentVolume float64       `json:"current_volume"`
	LimitVolume   float64       `json:"limit_volume"`
}

func NewRiskLimitExceededEvent(vtSymbol string, lt RiskLimitType, current, limit float64, at time.Time) RiskLimitExceededEvent {
	return RiskLimitExceededEvent{
		baseEvent:     newBaseEvent(at),
		VTSymbol:      vtSymbol,
		LimitType:     lt,
		CurrentVolume: current,
		LimitVolume:   limit,
	}
}

func (RiskLimitExceededEvent) Kind() EventKind { return EventRiskLimitExceeded }

// RiskLevel indica si el umbral vulnerado es de posición o de cartera.
type RiskLevel string

const (
	RiskLevelPosition  RiskLevel = "position"
	RiskLevelPortfolio RiskLevel = "portfolio"
)

// GreeksRiskBreachEvent: una griega ponderada superó su umbral.
type GreeksRiskBreachEvent struct {
	baseEvent
	Level        RiskLevel `json:"level"`
	GreekName    string    `json:"greek_name"`
	CurrentValue float64   `json:"current_value"`
	LimitValue   float64   `json:"limit_value"`
}

func NewGreeksRiskBreachEvent(level RiskLevel, greek string, current, limit float64, at time.Time) GreeksRiskBreachEvent {
	return GreeksRiskBreachEvent{
		baseEvent:    newBaseEvent(at),
		Level:        level,
		GreekName:    greek,
		CurrentValue: current,
		LimitValue:   limit,
	}
}

func (GreeksRiskBreachEvent) Kind() EventKind { return EventGreeksRiskBreach }

// OrderTimeoutEvent: una orden viva superó el timeout de ejecución.
type OrderTimeoutEvent struct {
	baseEvent
	VTOrderID      string  `json:"vt_orderid"`
	VTSymbol       string  `json:"vt_symbol"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
}

func NewOrderTimeoutEvent(vtOrderID, vtSymbol string, elapsed float64, at time.Time) OrderTimeoutEvent {
	return OrderTimeoutEvent{baseEvent: newBaseEvent(at), VTOrderID: vtOrderID, VTSymbol: vtSymbol, ElapsedSeconds: elapsed}
}

func (OrderTimeoutEvent) Kind() EventKind { return EventOrderTimeout }

// OrderRetryExhaustedEvent: se agotaron los reintentos de una orden.
type OrderRetryExhaustedEvent struct {
	baseEvent
	VTOrderID string `json:"vt_orderid"`
	VTSymbol  string `json:"vt_symbol"`
	Retries   int    `json:"retries"`
}

func NewOrderRetryExhaustedEvent(vtOrderID, vtSymbol string, retries int, at time.Time) OrderRetryExhaustedEvent {
	return OrderRetryExhaustedEvent{baseEvent: newBaseEvent(at), VTOrderID: vtOrderID, VTSymbol: vtSymbol, Retries: retries}
}

func (OrderRetryExhaustedEvent) Kind() EventKind { return EventOrderRetryExhausted }

// IcebergCompleteEvent: todas las tandas de un iceberg ejecutadas.
type IcebergCompleteEvent struct {
	baseEvent
	OrderID     string  `json:"order_id"`
	VTSymbol    string  `json:"vt_symbol"`
	TotalVolume float64 `json:"total_volume"`
}

func NewIcebergCompleteEvent(orderID, vtSymbol string, total float64, at time.Time) IcebergCompleteEvent {
	return IcebergCompleteEvent{baseEvent: newBaseEvent(at), OrderID: orderID, VTSymbol: vtSymbol, TotalVolume: total}
}

func (IcebergCompleteEvent) Kind() EventKind { return EventIcebergComplete }

// IcebergCancelledEvent: iceberg cancelado; filled + remaining == total.
type IcebergCancelledEvent struct {
	baseEvent
	OrderID         string  `json:"order_id"`
	VTSymbol        string  `json:"vt_symbol"`
	FilledVolume    float64 `json:"filled_volume"`
	RemainingVolume float64 `json:"remaining_volume"`
}

func NewIcebergCancelledEvent(orderID, vtSymbol string, filled, remaining float64, at time.Time) IcebergCancelledEvent {
	return IcebergCancelledEvent{
		baseEvent:       newBaseEvent(at),
		OrderID:         orderID,
		VTSymbol:        vtSymbol,
		FilledVolume:    filled,
		RemainingVolume: remaining,
	}
}

func (IcebergCancelledEvent) Kind() EventKind { return EventIcebergCancelled }

// TWAPCompleteEvent: todas las rebanadas TWAP ejecutadas.
type TWAPCompleteEvent struct {
	baseEvent
	OrderID     string  `json:"order_id"`
	VTSymbol    string  `json:"vt_symbol"`
	TotalVolume float64 `json:"total_volume"`
}

func NewTWAPCompleteEvent(orderID, vtSymbol string, total float64, at time.Time) TWAPCompleteEvent {
	return TWAPCompleteEvent{baseEvent: newBaseEvent(at), OrderID: orderID, VTSymbol: vtSymbol, TotalVolume: total}
}

func (TWAPCompleteEvent) Kind() EventKind { return EventTWAPComplete }

// VWAPCompleteEvent: todas las rebanadas VWAP ejecutadas.
type VWAPCompleteEvent struct {
	baseEvent
	OrderID     string  `json:"order_id"`
	VTSymbol    string  `json:"vt_symbol"`
	TotalVolume float64 `json:"total_volume"`
}

func NewVWAPCompleteEvent(orderID, vtSymbol string, total float64, at time.Time) VWAPCompleteEvent {
	return VWAPCompleteEvent{baseEvent: newBaseEvent(at), OrderID: orderID, VTSymbol: vtSymbol, TotalVolume: total}
}

func (VWAPCompleteEvent) Kind() EventKind { return EventVWAPComplete }

// HedgeExecutedEvent: el motor delta emitió una orden de cobertura.
type HedgeExecutedEvent struct {
	baseEvent
	VTSymbol    string    `json:"vt_symbol"`
	Volume      float64   `json:"volume"`
	Direction   Direction `json:"direction"`
	DeltaBefore float64   `json:"delta_before"`
	DeltaAfter  float64   `json:"delta_after"`
}

func NewHedgeExecutedEvent(vtSymbol string, volume float64, dir Direction, before, after float64, at time.Time) HedgeExecutedEvent {
	return HedgeExecutedEvent{
		baseEvent:   newBaseEvent(at),
		VTSymbol:    vtSymbol,
		Volume:      volume,
		Direction:   dir,
		DeltaBefore: before,
		DeltaAfter:  after,
	}
}

func (HedgeExecutedEvent) Kind() EventKind { return EventHedgeExecuted }

// GammaScalpEvent: rebalanceo de gamma scalping propuesto.
type GammaScalpEvent struct {
	baseEvent
	VTSymbol  string    `json:"vt_symbol"`
	Volume    float64   `json:"volume"`
	Direction Direction `json:"direction"`
	Delta     float64   `json:"delta"`
	Gamma     float64   `json:"gamma"`
}

func NewGammaScalpEvent(vtSymbol string, volume float64, dir Direction, delta, gamma float64, at time.Time) GammaScalpEvent {
	return GammaScalpEvent{
		baseEvent: newBaseEvent(at),
		VTSymbol:  vtSymbol,
		Volume:    volume,
		Direction: dir,
		Delta:     delta,
		Gamma:     gamma,
	}
}

func (GammaScalpEvent) Kind() EventKind { return EventGammaScalp }

// SignalAlertEvent: aviso de señal de apertura o cierre para el notificador.
type SignalAlertEvent struct {
	baseEvent
	Category EventKind `json:"category"`
	VTSymbol string    `json:"vt_symbol"`
	Signal   string    `json:"signal"`
	Volume   float64   `json:"volume"`
	Price    float64   `json:"price"`
}

func NewSignalAlertEvent(category EventKind, vtSymbol, signal string, volume, price float64, at time.Time) SignalAlertEvent {
	return SignalAlertEvent{
		baseEvent: newBaseEvent(at),
		Category:  category,
		VTSymbol:  vtSymbol,
		Signal:    signal,
		Volume:    volume,
		Price:     price,
	}
}

func (e SignalAlertEvent) Kind() EventKind { return e.Category }
