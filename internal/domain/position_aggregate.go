package domain

import (
	"sort"
	"time"
)

const (
	// DefaultGlobalDailyLimit es el máximo de lotes abiertos por día.
	DefaultGlobalDailyLimit = 50
	// DefaultPerContractLimit es el máximo de lotes abiertos por contrato y día.
	DefaultPerContractLimit = 2
)

// PositionAggregate es el agregado de escritura: posiciones propias,
// órdenes pendientes, contadores diarios de apertura y la cola de
// eventos de dominio que el pipeline drena tras cada barra.
type PositionAggregate struct {
	positions      map[string]*Position
	pendingOrders  map[string]*Order
	managedSymbols map[string]struct{}

	todayOpenCount    float64
	todayOpenCountMap map[string]float64
	lastTradingDate   string // YYYY-MM-DD

	globalDailyLimit float64
	perContractLimit float64

	events []Event
}

// NewPositionAggregate crea el agregado con los límites diarios por defecto.
func NewPositionAggregate() *PositionAggregate {
	return NewPositionAggregateWithLimits(DefaultGlobalDailyLimit, DefaultPerContractLimit)
}

// NewPositionAggregateWithLimits permite ajustar los límites diarios.
func NewPositionAggregateWithLimits(globalLimit, perContract float64) *PositionAggregate {
	return &PositionAggregate{
		positions:         make(map[string]*Position),
		pendingOrders:     make(map[string]*Order),
		managedSymbols:    make(map[string]struct{}),
		todayOpenCountMap: make(map[string]float64),
		globalDailyLimit:  globalLimit,
		perContractLimit:  perContract,
	}
}

// ResetDailyCountersIfNeeded pone a cero los contadores cuando cambia la
// fecha de trading. Devuelve true si hubo reset.
func (a *PositionAggregate) ResetDailyCountersIfNeeded(tradingDate time.Time) bool {
	date := tradingDate.Format("2006-01-02")
	if date == a.lastTradingDate {
		return false
	}
	a.todayOpenCount = 0
	a.todayOpenCountMap = make(map[string]float64)
	a.lastTradingDate = date
	return true
}

// LastTradingDate devuelve la fecha de trading de los contadores actuales.
func (a *PositionAggregate) LastTradingDate() string { return a.lastTradingDate }

// TodayOpenCount devuelve el volumen de apertura *ejecutado* hoy.
func (a *PositionAggregate) TodayOpenCount() float64 { return a.todayOpenCount }

// TodayOpenCountFor devuelve el volumen de apertura ejecutado hoy
// para un contrato.
func (a *PositionAggregate) TodayOpenCountFor(vtSymbol string) float64 {
	return a.todayOpenCountMap[vtSymbol]
}

// ReservedOpenVolume devuelve el volumen de apertura comprometido en
// órdenes vivas: Σ (volume − traded) de pendientes con offset open.
func (a *PositionAggregate) ReservedOpenVolume() float64 {
	var total float64
	for _, o := range a.pendingOrders {
		if o.Offset == OffsetOpen && o.Status.IsActive() {
			total += o.Remaining()
		}
	}
	return total
}

// ReservedOpenVolumeFor devuelve el volumen reservado para un contrato.
func (a *PositionAggregate) ReservedOpenVolumeFor(vtSymbol string) float64 {
	var total float64
	for _, o := range a.pendingOrders {
		if o.VTSymbol == vtSymbol && o.Offset == OffsetOpen && o.Status.IsActive() {
			total += o.Remaining()
		}
	}
	return total
}

// EffectiveOpenCount devuelve ejecutado + reservado a nivel global.
func (a *PositionAggregate) EffectiveOpenCount() float64 {
	return a.todayOpenCount + a.ReservedOpenVolume()
}

// EffectiveOpenCountFor devuelve ejecutado + reservado para un contrato.
func (a *PositionAggregate) EffectiveOpenCountFor(vtSymbol string) float64 {
	return a.todayOpenCountMap[vtSymbol] + a.ReservedOpenVolumeFor(vtSymbol)
}

// RegisterOrder añade una orden recién enviada a pendientes.
func (a *PositionAggregate) RegisterOrder(o *Order) {
	a.pendingOrders[o.VTOrderID] = o
}

// PendingOrders devuelve las órdenes pendientes, ordenadas por ID para
// iterar de forma estable.
func (a *PositionAggregate) PendingOrders() []*Order {
	out := make([]*Order, 0, len(a.pendingOrders))
	for _, o := range a.pendingOrders {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VTOrderID < out[j].VTOrderID })
	return out
}

// PendingOrder devuelve la orden pendiente con el ID dado.
func (a *PositionAggregate) PendingOrder(vtOrderID string) (*Order, bool) {
	o, ok := a.pendingOrders[vtOrderID]
	return o, ok
}

// HasPendingCloseOrder indica si ya hay una orden de cierre viva para
// el contrato; el camino de cierre es idempotente gracias a esto.
func (a *PositionAggregate) HasPendingCloseOrder(vtSymbol string) bool {
	for _, o := range a.pendingOrders {
		if o.VTSymbol == vtSymbol && o.Offset.IsClose() && o.Status.IsActive() {
			return true
		}
	}
	return false
}

// AddPosition registra una posición propia y gestiona su símbolo.
func (a *PositionAggregate) AddPosition(p *Position) {
	a.positions[p.VTSymbol] = p
	a.managedSymbols[p.VTSymbol] = struct{}{}
}

// Position devuelve la posición del contrato si existe.
func (a *PositionAggregate) Position(vtSymbol string) (*Position, bool) {
	p, ok := a.positions[vtSymbol]
	return p, ok
}

// IsManaged indica si el contrato fue abierto por la estrategia.
func (a *PositionAggregate) IsManaged(vtSymbol string) bool {
	_, ok := a.managedSymbols[vtSymbol]
	return ok
}

// ActivePositions devuelve las posiciones con volumen vivo, ordenadas
// por símbolo.
func (a *PositionAggregate) ActivePositions() []*Position {
	var out []*Position
	for _, p := range a.positions {
		if p.IsActive() {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VTSymbol < out[j].VTSymbol })
	return out
}

// AllPositions devuelve todas las posiciones, vivas o cerradas,
// ordenadas por símbolo. Alimenta el informe final.
func (a *PositionAggregate) AllPositions() []*Position {
	out := make([]*Position, 0, len(a.positions))
	for _, p := range a.positions {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VTSymbol < out[j].VTSymbol })
	return out
}

// ActivePositionCount devuelve el número de posiciones vivas.
func (a *PositionAggregate) ActivePositionCount() int {
	n := 0
	for _, p := range a.positions {
		if p.IsActive() {
			n++
		}
	}
	return n
}

// HasActivePosition indica si hay posición viva en el contrato.
func (a *PositionAggregate) HasActivePosition(vtSymbol string) bool {
	p, ok := a.positions[vtSymbol]
	return ok && p.IsActive()
}

// ActivePositionsOnUnderlying devuelve las posiciones vivas cuyo
// subyacente es el dado.
func (a *PositionAggregate) ActivePositionsOnUnderlying(underlying string) []*Position {
	var out []*Position
	for _, p := range a.positions {
		if p.IsActive() && p.UnderlyingVTSymbol == underlying {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VTSymbol < out[j].VTSymbol })
	return out
}

// UpdateFromOrder aplica un callback de estado de orden. Las órdenes
// salen de pendientes solo al alcanzar estado terminal. No toca el
// volumen de posiciones: eso es el camino de trade.
func (a *PositionAggregate) UpdateFromOrder(rep OrderReport) {
	o, ok := a.pendingOrders[rep.VTOrderID]
	if !ok {
		return
	}
	o.ApplyReport(rep)
	if o.Status.IsTerminal() {
		delete(a.pendingOrders, rep.VTOrderID)
	}
}

// UpdateFromTrade aplica una ejecución. Aperturas incrementan el volumen
// y los contadores diarios, emitiendo RiskLimitExceededEvent al cruzar
// un límite. Cierres reducen volumen.
func (a *PositionAggregate) UpdateFromTrade(rep TradeReport) {
	if !a.IsManaged(rep.VTSymbol) {
		return
	}
	p, ok := a.positions[rep.VTSymbol]
	if !ok {
		return
	}

	if rep.Offset == OffsetOpen {
		p.AddFill(rep.Volume, rep.Price, rep.Datetime)
		a.todayOpenCount += rep.Volume
		a.todayOpenCountMap[rep.VTSymbol] += rep.Volume

		if a.todayOpenCount >= a.globalDailyLimit {
			a.emit(NewRiskLimitExceededEvent(rep.VTSymbol, RiskLimitGlobal,
				a.todayOpenCount, a.globalDailyLimit, rep.Datetime))
		}
		if a.todayOpenCountMap[rep.VTSymbol] >= a.perContractLimit {
			a.emit(NewRiskLimitExceededEvent(rep.VTSymbol, RiskLimitContract,
				a.todayOpenCountMap[rep.VTSymbol], a.perContractLimit, rep.Datetime))
		}
		return
	}

	if rep.Offset.IsClose() {
		p.ReduceVolume(rep.Volume, rep.Datetime)
	}
}

// UpdateFromPosition reconcilia contra el reporte del exchange.
// Menos volumen del esperado: cierre manual; más: apertura manual
// (no se adoptan los contratos extra).
func (a *PositionAggregate) UpdateFromPosition(snap PositionSnapshot, now time.Time) {
	if !a.IsManaged(snap.VTSymbol) {
		return
	}
	p, ok := a.positions[snap.VTSymbol]
	if !ok || !p.IsActive() {
		return
	}

	switch {
	case snap.Volume < p.Volume:
		manual := p.Volume - snap.Volume
		p.MarkManuallyClosed(manual, now)
		a.emit(NewManualCloseDetectedEvent(snap.VTSymbol, manual, now))
	case snap.Volume > p.Volume:
		a.emit(NewManualOpenDetectedEvent(snap.VTSymbol, snap.Volume-p.Volume, now))
	}
}

// Emit encola un evento de dominio producido fuera del agregado
// (motores de cobertura, scheduler, señales).
func (a *PositionAggregate) Emit(e Event) { a.emit(e) }

func (a *PositionAggregate) emit(e Event) {
	a.events = append(a.events, e)
}

// DrainEvents devuelve y vacía la cola de eventos pendientes.
func (a *PositionAggregate) DrainEvents() []Event {
	out := a.events
	a.events = nil
	return out
}

// PositionAggregateState es la forma serializable del agregado.
// La cola de eventos no se persiste.
type PositionAggregateState struct {
	Positions         map[string]PositionState `json:"positions"`
	PendingOrders     map[string]OrderState    `json:"pending_orders"`
	ManagedSymbols    []string                 `json:"managed_symbols"`
	TodayOpenCount    float64                  `json:"today_open_count"`
	TodayOpenCountMap map[string]float64       `json:"today_open_count_map"`
	LastTradingDate   string                   `json:"last_trading_date"`
	GlobalDailyLimit  float64                  `json:"global_daily_limit"`
	PerContractLimit  float64                  `json:"per_contract_limit"`
}

// Snapshot devuelve el estado serializable del agregado.
func (a *PositionAggregate) Snapshot() PositionAggregateState {
	positions := make(map[string]PositionState, len(a.positions))
	for s, p := range a.positions {
		positions[s] = p.Snapshot()
	}
	orders := make(map[string]OrderState, len(a.pendingOrders))
	for id, o := range a.pendingOrders {
		orders[id] = o.Snapshot()
	}
	managed := make([]string, 0, len(a.managedSymbols))
	for s := range a.managedSymbols {
		managed = append(managed, s)
	}
	sort.Strings(managed)
	counts := make(map[string]float64, len(a.todayOpenCountMap))
	for s, v := range a.todayOpenCountMap {
		counts[s] = v
	}
	return PositionAggregateState{
		Positions:         positions,
		PendingOrders:     orders,
		ManagedSymbols:    managed,
		TodayOpenCount:    a.todayOpenCount,
		TodayOpenCountMap: counts,
		LastTradingDate:   a.lastTradingDate,
		GlobalDailyLimit:  a.globalDailyLimit,
		PerContractLimit:  a.perContractLimit,
	}
}

// PositionAggregateFromState reconstruye el agregado desde su snapshot.
func PositionAggregateFromState(s PositionAggregateState) *PositionAggregate {
	a := NewPositionAggregateWithLimits(s.GlobalDailyLimit, s.PerContractLimit)
	for sym, ps := range s.Positions {
		a.positions[sym] = PositionFromState(ps)
	}
	for id, os := range s.PendingOrders {
		a.pendingOrders[id] = OrderFromState(os)
	}
	for _, sym := range s.ManagedSymbols {
		a.managedSymbols[sym] = struct{}{}
	}
	a.todayOpenCount = s.TodayOpenCount
	for sym, v := range s.TodayOpenCountMap {
		a.todayOpenCountMap[sym] = v
	}
	a.lastTradingDate = s.LastTradingDate
	return a
}
