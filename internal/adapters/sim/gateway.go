// Package sim es el gateway simulado para backtests: sintetiza ticks
// a partir de barras y ejecuta órdenes limit al instante contra el
// precio de la instrucción.
package sim

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/quantatrisk/voltrader/internal/contract"
	"github.com/quantatrisk/voltrader/internal/domain"
)

const (
	// Volúmenes sintéticos generosos para que los filtros de
	// liquidez no descarten contratos en backtest.
	simTickVolume  = 100000
	simBookVolume  = 10000
	simInitBalance = 1_000_000
)

// Clock es un reloj manual que avanza con las barras reproducidas.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock crea el reloj en el instante dado.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set fija el instante simulado. Nunca retrocede.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t.After(c.now) {
		c.now = t
	}
}

// Gateway implementa los cuatro puertos de gateway contra datos
// precargados. No es seguro para uso concurrente más allá del reloj;
// el backtest es secuencial.
type Gateway struct {
	clock    *Clock
	calendar *contract.Calendar

	contracts  map[string]*contract.Info
	subscribed map[string]bool
	bars       map[string][]domain.Bar
	ticks      map[string]domain.Tick

	positions map[string]*domain.PositionSnapshot
	trades    []domain.TradeReport
	orderSeq  int

	pendingOrders []domain.OrderReport
	pendingTrades []domain.TradeReport

	onOrder func(domain.OrderReport)
	onTrade func(domain.TradeReport)
}

// NewGateway crea el gateway simulado con el calendario de contratos.
func NewGateway(clock *Clock, cal *contract.Calendar) *Gateway {
	return &Gateway{
		clock:      clock,
		calendar:   cal,
		contracts:  make(map[string]*contract.Info),
		subscribed: make(map[string]bool),
		bars:       make(map[string][]domain.Bar),
		ticks:      make(map[string]domain.Tick),
		positions:  make(map[string]*domain.PositionSnapshot),
	}
}

// SetCallbacks registra los callbacks de orden y trade del motor.
func (g *Gateway) SetCallbacks(onOrder func(domain.OrderReport), onTrade func(domain.TradeReport)) {
	g.onOrder = onOrder
	g.onTrade = onTrade
}

// LoadBars precarga la serie histórica de un símbolo.
func (g *Gateway) LoadBars(vtSymbol string, bars []domain.Bar) error {
	if _, err := g.register(vtSymbol); err != nil {
		return err
	}
	g.bars[vtSymbol] = append(g.bars[vtSymbol], bars...)
	sort.SliceStable(g.bars[vtSymbol], func(i, j int) bool {
		return g.bars[vtSymbol][i].Datetime.Before(g.bars[vtSymbol][j].Datetime)
	})
	return nil
}

// PushBar avanza el reloj al cierre de la barra y sintetiza el tick
// del símbolo con bid = ask = close.
func (g *Gateway) PushBar(vtSymbol string, bar domain.Bar) error {
	info, err := g.register(vtSymbol)
	if err != nil {
		return err
	}
	g.clock.Set(bar.Datetime)
	g.ticks[vtSymbol] = domain.Tick{
		VTSymbol:   info.VTSymbol,
		Datetime:   bar.Datetime,
		LastPrice:  bar.Close,
		Volume:     simTickVolume,
		BidPrice1:  bar.Close,
		BidVolume1: simBookVolume,
		AskPrice1:  bar.Close,
		AskVolume1: simBookVolume,
	}
	return nil
}

// register parsea y cachea los metadatos del contrato.
func (g *Gateway) register(vtSymbol string) (*contract.Info, error) {
	if info, ok := g.contracts[vtSymbol]; ok {
		return info, nil
	}
	info, err := contract.Parse(vtSymbol, g.calendar)
	if err != nil {
		return nil, fmt.Errorf("sim.Gateway: register %q: %w", vtSymbol, err)
	}
	g.contracts[vtSymbol] = info
	return info, nil
}

// --- ports.MarketDataGateway ---

func (g *Gateway) Subscribe(_ context.Context, vtSymbols []string) error {
	for _, s := range vtSymbols {
		if _, err := g.register(s); err != nil {
			return err
		}
		g.subscribed[s] = true
	}
	return nil
}

func (g *Gateway) QueryBars(_ context.Context, vtSymbol string, start, end time.Time) ([]domain.Bar, error) {
	var out []domain.Bar
	for _, b := range g.bars[vtSymbol] {
		if b.Datetime.Before(start) || b.Datetime.After(end) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

// --- ports.QuoteGateway ---

func (g *Gateway) LatestTick(_ context.Context, vtSymbol string) (domain.Tick, error) {
	tick, ok := g.ticks[vtSymbol]
	if !ok {
		return domain.Tick{}, fmt.Errorf("sim.Gateway.LatestTick: no tick for %q", vtSymbol)
	}
	return tick, nil
}

func (g *Gateway) OptionChain(_ context.Context, underlyingVTSymbol string) ([]domain.OptionContract, error) {
	underTick, hasUnder := g.ticks[underlyingVTSymbol]

	var chain []domain.OptionContract
	for vtSymbol, info := range g.contracts {
		// El subyacente de Info no lleva sufijo de exchange; la consulta
		// llega como vt_symbol completo.
		if !info.IsOption || info.UnderlyingSymbol+"."+info.Exchange != underlyingVTSymbol {
			continue
		}
		tick, ok := g.ticks[vtSymbol]
		if !ok {
			continue
		}
		oc := domain.OptionContract{
			VTSymbol:         vtSymbol,
			UnderlyingSymbol: info.UnderlyingSymbol,
			OptionType:       info.OptionType,
			Strike:           info.Strike,
			Expiry:           info.Expiry,
			BidPrice:         tick.BidPrice1,
			BidVolume:        tick.BidVolume1,
			AskPrice:         tick.AskPrice1,
			AskVolume:        tick.AskVolume1,
			DaysToExpiry:     int(info.Expiry.Sub(g.clock.Now()).Hours() / 24),
		}
		if hasUnder {
			if info.OptionType == domain.OptionCall {
				oc.OTMDistance = info.Strike - underTick.LastPrice
			} else {
				oc.OTMDistance = underTick.LastPrice - info.Strike
			}
		}
		chain = append(chain, oc)
	}

	sort.Slice(chain, func(i, j int) bool { return chain[i].VTSymbol < chain[j].VTSymbol })
	return chain, nil
}

func (g *Gateway) ContractParams(_ context.Context, vtSymbol string) (domain.ContractParams, error) {
	info, err := g.register(vtSymbol)
	if err != nil {
		return domain.ContractParams{}, err
	}
	return info.Params(), nil
}

// --- ports.AccountGateway ---

func (g *Gateway) Account(_ context.Context) (domain.AccountSnapshot, error) {
	return domain.AccountSnapshot{
		ID:        "sim",
		Balance:   simInitBalance,
		Available: simInitBalance,
	}, nil
}

func (g *Gateway) Positions(_ context.Context) ([]domain.PositionSnapshot, error) {
	keys := make([]string, 0, len(g.positions))
	for k := range g.positions {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]domain.PositionSnapshot, 0, len(keys))
	for _, k := range keys {
		out = append(out, *g.positions[k])
	}
	return out, nil
}

// --- ports.TradeExecutionGateway ---

// SendOrder ejecuta la orden al instante al precio de la instrucción.
// Los reportes de orden y trade se encolan y se entregan en FlushReports,
// imitando la entrega asíncrona de un gateway real.
func (g *Gateway) SendOrder(_ context.Context, instr domain.OrderInstruction) (string, error) {
	if _, err := g.register(instr.VTSymbol); err != nil {
		return "", err
	}
	if instr.Volume <= 0 {
		return "", fmt.Errorf("sim.Gateway.SendOrder: invalid volume %.0f", instr.Volume)
	}
	if instr.Price <= 0 {
		return "", fmt.Errorf("sim.Gateway.SendOrder: invalid price %.2f", instr.Price)
	}

	g.orderSeq++
	vtOrderID := fmt.Sprintf("sim.%d", g.orderSeq)
	now := g.clock.Now()

	g.applyFill(instr)

	g.pendingOrders = append(g.pendingOrders, domain.OrderReport{
		VTOrderID: vtOrderID,
		VTSymbol:  instr.VTSymbol,
		Direction: instr.Direction,
		Offset:    instr.Offset,
		Volume:    instr.Volume,
		Traded:    instr.Volume,
		Price:     instr.Price,
		Status:    string(domain.StatusAllTraded),
		Datetime:  now,
	})

	trade := domain.TradeReport{
		VTTradeID: vtOrderID + ".t1",
		VTOrderID: vtOrderID,
		VTSymbol:  instr.VTSymbol,
		Direction: instr.Direction,
		Offset:    instr.Offset,
		Price:     instr.Price,
		Volume:    instr.Volume,
		Datetime:  now,
	}
	g.trades = append(g.trades, trade)
	g.pendingTrades = append(g.pendingTrades, trade)

	return vtOrderID, nil
}

// FlushReports entrega los reportes encolados a los callbacks registrados.
func (g *Gateway) FlushReports() {
	orders := g.pendingOrders
	trades := g.pendingTrades
	g.pendingOrders = nil
	g.pendingTrades = nil

	for _, rep := range orders {
		if g.onOrder != nil {
			g.onOrder(rep)
		}
	}
	for _, tr := range trades {
		if g.onTrade != nil {
			g.onTrade(tr)
		}
	}
}

// CancelOrder es un no-op: las órdenes simuladas se llenan al enviarse.
func (g *Gateway) CancelOrder(_ context.Context, _ string) error {
	return nil
}

// Trades devuelve el registro de ejecuciones de la sesión.
func (g *Gateway) Trades() []domain.TradeReport {
	return g.trades
}

// applyFill actualiza el libro de posiciones del broker simulado.
func (g *Gateway) applyFill(instr domain.OrderInstruction) {
	dir := instr.Direction
	if instr.Offset != domain.OffsetOpen {
		// Cerrar un largo toca la pierna corta del broker y viceversa.
		dir = instr.Direction.Opposite()
	}
	key := instr.VTSymbol + "|" + string(dir)

	pos, ok := g.positions[key]
	if !ok {
		pos = &domain.PositionSnapshot{VTSymbol: instr.VTSymbol, Direction: dir}
		g.positions[key] = pos
	}

	if instr.Offset == domain.OffsetOpen {
		total := pos.Volume + instr.Volume
		pos.AvgPrice = (pos.AvgPrice*pos.Volume + instr.Price*instr.Volume) / total
		pos.Volume = total
		return
	}

	pos.Volume -= instr.Volume
	if pos.Volume <= 0 {
		delete(g.positions, key)
	}
}
