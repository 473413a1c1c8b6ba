// Package engine contiene el pipeline de eventos de la estrategia: un
// único punto de entrada para barras, ticks y callbacks del broker,
// con fases de warm-up y trading bien separadas.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sort"
	"time"

	"github.com/quantatrisk/voltrader/config"
	"github.com/quantatrisk/voltrader/internal/contract"
	"github.com/quantatrisk/voltrader/internal/domain"
	"github.com/quantatrisk/voltrader/internal/execution"
	"github.com/quantatrisk/voltrader/internal/greeks"
	"github.com/quantatrisk/voltrader/internal/hedge"
	"github.com/quantatrisk/voltrader/internal/indicator"
	"github.com/quantatrisk/voltrader/internal/metrics"
	"github.com/quantatrisk/voltrader/internal/ports"
	"github.com/quantatrisk/voltrader/internal/risk"
	"github.com/quantatrisk/voltrader/internal/selector"
	"github.com/quantatrisk/voltrader/internal/signal"
)

const (
	// El rollover diario se chequea una sola vez, al llegar la barra
	// de las 14:50.
	rolloverHour   = 14
	rolloverMinute = 50

	// Cada cuántas barras se valida el universo de contratos.
	universeCheckEvery = 60

	// Meses de símbolos candidatos al seleccionar el dominante.
	dominantLookaheadMonths = 12

	monitorVariant = "volatility"

	riskFreeRate = 0.03

	// Tamaño de rebanada de las órdenes iceberg de cobertura.
	hedgeBatchVolume = 5
)

// Deps agrupa los puertos que el motor necesita.
type Deps struct {
	Market    ports.MarketDataGateway
	Quotes    ports.QuoteGateway
	Account   ports.AccountGateway
	Trader    ports.TradeExecutionGateway
	States    ports.StateStore
	History   ports.HistoryRepository
	Monitor   ports.MonitorRepository
	Notifiers []ports.Notifier
	Clock     ports.Clock
}

// Engine es el contenedor de la estrategia: enruta eventos de mercado
// y de cuenta hacia los agregados de dominio en un orden fijo. Todo el
// estado muta en el worker del pipeline; no es concurrente.
type Engine struct {
	cfg      *config.Config
	deps     Deps
	backtest bool

	calendar    *contract.Calendar
	instruments *domain.InstrumentManager
	positions   *domain.PositionAggregate
	indicators  *indicator.Service
	futureSel   *selector.FutureSelector
	optionSel   *selector.OptionSelector
	sizer       *risk.Sizer
	riskAgg     *risk.Aggregator
	deltaEng    *hedge.DeltaEngine
	gammaEng    *hedge.GammaEngine
	executor    *execution.Executor
	scheduler   *execution.Scheduler
	pipeline    *BarPipeline
	autosave    *AutoSaver

	trading   bool
	warmingUp bool

	lastBars        map[string]domain.Bar
	childByOrderID  map[string]string
	rolloverChecked bool
	barsSinceCheck  int
	barsProcessed   int
	signalsEmitted  int
	ordersSubmitted int
}

// New construye el motor. El estado previo se restaura en OnInit.
func New(cfg *config.Config, deps Deps, backtest bool) (*Engine, error) {
	overrides, err := cfg.ParsedExpiryOverrides()
	if err != nil {
		return nil, fmt.Errorf("engine.New: %w", err)
	}

	e := &Engine{
		cfg:      cfg,
		deps:     deps,
		backtest: backtest,

		calendar:    contract.NewCalendar(cfg.Strategy.Holidays, overrides),
		instruments: domain.NewInstrumentManager(),
		positions: domain.NewPositionAggregateWithLimits(
			cfg.Strategy.GlobalDailyLimit, cfg.Strategy.PerContractLimit),
		indicators: indicator.NewService(),
		futureSel:  selector.NewFutureSelector(cfg.Strategy.RolloverDays),
		optionSel:  selector.NewOptionSelector(),
		sizer:      risk.NewSizer(),
		riskAgg:    risk.NewAggregator(cfg.Risk),
		deltaEng:   hedge.NewDeltaEngine(cfg.Hedging),
		gammaEng:   hedge.NewGammaEngine(cfg.GammaScalp),
		executor:   execution.NewExecutor(cfg.OrderExecution),
		scheduler:  execution.NewScheduler(),

		lastBars:       make(map[string]domain.Bar),
		childByOrderID: make(map[string]string),
	}

	e.optionSel.StrikeLevel = *cfg.Strategy.StrikeLevel
	e.optionSel.MinBidPrice = cfg.Strategy.MinBidPrice
	e.optionSel.MinBidVolume = cfg.Strategy.MinBidVolume
	e.optionSel.MinTradingDays = cfg.Strategy.MinTradingDays
	e.optionSel.MaxTradingDays = cfg.Strategy.MaxTradingDays

	e.sizer.MaxPositions = cfg.Strategy.MaxPositions
	e.sizer.GlobalDailyLimit = int(cfg.Strategy.GlobalDailyLimit)
	e.sizer.PerContractLimit = int(cfg.Strategy.PerContractLimit)

	if cfg.Strategy.BarWindow > 1 || cfg.Strategy.BarInterval != string(IntervalMinute) {
		e.pipeline = NewBarPipeline(e.processBars,
			BarInterval(cfg.Strategy.BarInterval), cfg.Strategy.BarWindow)
	}

	e.autosave = NewAutoSaver(deps.States, cfg.AutoSaveInterval(), e.snapshot)

	return e, nil
}

// Trading expone la fase actual; los tests del driver la consultan.
func (e *Engine) Trading() bool { return e.trading }

// Positions expone el agregado de posiciones para el informe final.
func (e *Engine) Positions() *domain.PositionAggregate { return e.positions }

// ActiveSymbols devuelve los contratos activos del universo, ordenados.
func (e *Engine) ActiveSymbols() []string {
	out := make([]string, 0)
	for _, vtSymbol := range e.instruments.AllActiveContracts() {
		out = append(out, vtSymbol)
	}
	sort.Strings(out)
	return out
}

// Stats devuelve los contadores de la sesión.
func (e *Engine) Stats() (bars, signals, orders int) {
	return e.barsProcessed, e.signalsEmitted, e.ordersSubmitted
}

// OnInit restaura el snapshot previo, construye el universo inicial y
// reproduce el warm-up. No activa el trading.
func (e *Engine) OnInit(ctx context.Context) error {
	state, err := e.deps.States.Load(ctx)
	if err != nil {
		return fmt.Errorf("engine.OnInit: load state: %w", err)
	}
	if state != nil {
		e.instruments = domain.InstrumentManagerFromState(state.TargetAggregate)
		e.positions = domain.PositionAggregateFromState(state.PositionAggregate)
		slog.Info("engine: state restored",
			"saved_at", state.SavedAt, "version", state.Version)
	}

	if err := e.buildUniverse(ctx); err != nil {
		return fmt.Errorf("engine.OnInit: %w", err)
	}

	if err := e.Warmup(ctx); err != nil {
		return fmt.Errorf("engine.OnInit: %w", err)
	}
	return nil
}

// OnStart activa la fase de trading.
func (e *Engine) OnStart() {
	e.trading = true
	slog.Info("engine: trading started", "instance", e.cfg.Strategy.Name)
}

// OnStop desactiva el trading y fuerza un snapshot final.
func (e *Engine) OnStop(ctx context.Context) {
	e.trading = false
	if err := e.autosave.ForceSave(ctx, e.deps.Clock.Now()); err != nil {
		slog.Error("engine: final snapshot failed", "error", err)
	}
	slog.Info("engine: stopped", "instance", e.cfg.Strategy.Name)
}

// OnTick alimenta el pipeline de ventanas; sin pipeline se ignora.
func (e *Engine) OnTick(tick domain.Tick) {
	if e.pipeline != nil {
		e.pipeline.HandleTick(tick)
	}
}

// OnBars es la entrada principal de datos de mercado.
func (e *Engine) OnBars(bars map[string]domain.Bar) {
	var batchTime time.Time
	for vtSymbol, bar := range bars {
		e.lastBars[vtSymbol] = bar
		batchTime = bar.Datetime
	}

	if !e.warmingUp && e.instruments.HasActiveContracts() {
		e.maintainUniverse(batchTime, len(bars))
	}

	if e.pipeline != nil {
		e.pipeline.HandleBars(bars)
		return
	}
	e.processBars(bars)
}

// maintainUniverse ejecuta el rollover de las 14:50 y la validación
// periódica del universo. barCount es el número de barras del lote:
// la cadencia de validación se mide en barras, no en lotes.
func (e *Engine) maintainUniverse(batchTime time.Time, barCount int) {
	if batchTime.Hour() == rolloverHour && batchTime.Minute() == rolloverMinute {
		if !e.rolloverChecked {
			e.rolloverChecked = true
			e.checkRollover(context.Background(), batchTime)
		}
	} else {
		e.rolloverChecked = false
	}

	e.barsSinceCheck += barCount
	if e.barsSinceCheck >= universeCheckEvery {
		e.barsSinceCheck = 0
		e.validateUniverse(context.Background(), batchTime)
	}
}

// processBars aplica el orden fijo del pipeline por símbolo. Los
// errores por símbolo se loggean y no abortan el lote.
func (e *Engine) processBars(bars map[string]domain.Bar) {
	ctx := context.Background()
	var batchTime time.Time

	for vtSymbol, bar := range bars {
		batchTime = bar.Datetime
		e.barsProcessed++
		metrics.BarsProcessed.WithLabelValues(e.cfg.Strategy.Name).Inc()

		inst := e.instruments.UpdateBar(vtSymbol, bar)
		e.indicators.CalculateBar(inst, bar)

		if !inst.HasEnoughData() {
			continue
		}

		if open := signal.CheckOpen(inst); open != "" && e.trading {
			if err := e.executeOpen(ctx, vtSymbol, open, bar); err != nil {
				slog.Error("engine: open failed",
					"vt_symbol", vtSymbol, "signal", open, "error", err)
			}
		}

		for _, pos := range e.positions.ActivePositionsOnUnderlying(vtSymbol) {
			cls := signal.CheckClose(inst, pos)
			if cls == "" || !e.trading {
				continue
			}
			if err := e.executeClose(ctx, pos, cls); err != nil {
				slog.Error("engine: close failed",
					"vt_symbol", pos.VTSymbol, "signal", cls, "error", err)
			}
		}
	}

	if e.trading {
		e.checkHedges(batchTime)
		e.pumpOrders(ctx, batchTime)
	}

	e.drainEvents(ctx)
	e.recordMonitorSnapshot(ctx, batchTime)
	e.autosave.MaybeSave(ctx, e.deps.Clock.Now())

	metrics.ActivePositions.WithLabelValues(e.cfg.Strategy.Name).
		Set(float64(e.positions.ActivePositionCount()))
}

// executeOpen selecciona la opción objetivo y coloca las dos patas
// limit de la apertura.
func (e *Engine) executeOpen(ctx context.Context, underlying, openSignal string, bar domain.Bar) error {
	now := e.deps.Clock.Now()
	e.positions.ResetDailyCountersIfNeeded(bar.Datetime)

	optType, ok := signal.OptionTypeFor(openSignal)
	if !ok {
		return fmt.Errorf("unknown signal %q", openSignal)
	}

	chain, err := e.deps.Quotes.OptionChain(ctx, underlying)
	if err != nil {
		return fmt.Errorf("option chain: %w", err)
	}
	target, ok := e.optionSel.SelectTarget(chain, optType, bar.Close, -1)
	if !ok {
		slog.Debug("engine: no option candidate",
			"underlying", underlying, "signal", openSignal)
		return nil
	}

	tick, err := e.deps.Quotes.LatestTick(ctx, target.VTSymbol)
	if err != nil {
		return fmt.Errorf("tick %s: %w", target.VTSymbol, err)
	}
	params, err := e.deps.Quotes.ContractParams(ctx, target.VTSymbol)
	if err != nil {
		return fmt.Errorf("contract params %s: %w", target.VTSymbol, err)
	}
	if !e.optionSel.CheckLiquidity(tick, params) {
		slog.Debug("engine: liquidity gate rejected", "vt_symbol", target.VTSymbol)
		return nil
	}

	instr, ok := e.sizer.OpenInstruction(openSignal, target.VTSymbol, tick.LastPrice,
		e.positions.ActivePositions(),
		int(e.positions.EffectiveOpenCount()),
		int(e.positions.EffectiveOpenCountFor(target.VTSymbol)))
	if !ok {
		slog.Debug("engine: sizing rejected open", "vt_symbol", target.VTSymbol)
		return nil
	}

	if e.cfg.Strategy.GreeksPreflight {
		if err := e.preflightGreeks(target, tick, bar.Close, params.Size, instr.Volume); err != nil {
			slog.Warn("engine: greeks preflight rejected open",
				"vt_symbol", target.VTSymbol, "error", err)
			return nil
		}
	}

	// Dos patas limit: una al bid y otra al ask.
	legs := []domain.OrderInstruction{instr, instr}
	legs[0].Price = params.RoundPrice(tick.BidPrice1)
	legs[1].Price = params.RoundPrice(tick.AskPrice1)

	var targetVolume float64
	for _, leg := range legs {
		vtOrderID, err := e.deps.Trader.SendOrder(ctx, leg)
		if err != nil {
			slog.Error("engine: send open leg failed",
				"vt_symbol", leg.VTSymbol, "error", err)
			continue
		}
		e.positions.RegisterOrder(domain.NewOrder(vtOrderID, leg, now))
		e.executor.RegisterOrder(vtOrderID, leg, now)
		targetVolume += leg.Volume
		e.ordersSubmitted++
		metrics.OrdersSubmitted.WithLabelValues(e.cfg.Strategy.Name).Inc()
	}
	if targetVolume == 0 {
		return fmt.Errorf("no open leg accepted for %s", target.VTSymbol)
	}

	pos := domain.NewPosition(target.VTSymbol, underlying, openSignal,
		instr.Direction, targetVolume, now)
	e.positions.AddPosition(pos)

	e.signalsEmitted++
	metrics.SignalsEmitted.WithLabelValues(e.cfg.Strategy.Name, "open").Inc()
	e.positions.Emit(domain.NewSignalAlertEvent(domain.EventOpenSignal,
		target.VTSymbol, openSignal, targetVolume, tick.LastPrice, now))

	slog.Info("engine: open placed", "vt_symbol", target.VTSymbol,
		"signal", openSignal, "target_volume", targetVolume)
	return nil
}

// preflightGreeks rechaza la apertura cuando las griegas ponderadas de
// la nueva posición superan los umbrales de posición.
func (e *Engine) preflightGreeks(target domain.OptionContract, tick domain.Tick, underlyingPrice, multiplier, volume float64) error {
	T := float64(target.DaysToExpiry) / 365.0
	if T <= 0 || tick.LastPrice <= 0 || underlyingPrice <= 0 {
		return nil
	}

	iv, err := greeks.ImpliedVolatility(tick.LastPrice, underlyingPrice,
		target.Strike, T, riskFreeRate, target.OptionType)
	if err != nil {
		// Sin IV no hay preflight; la apertura sigue su curso.
		slog.Debug("engine: iv solve failed", "vt_symbol", target.VTSymbol, "error", err)
		return nil
	}

	g, err := greeks.Calculate(greeks.Input{
		SpotPrice:    underlyingPrice,
		StrikePrice:  target.Strike,
		TimeToExpiry: T,
		RiskFreeRate: riskFreeRate,
		Volatility:   iv.ImpliedVolatility,
		OptionType:   target.OptionType,
	})
	if err != nil {
		return nil
	}
	return e.riskAgg.CheckPositionRisk(g, volume, multiplier)
}

// executeClose envía la orden de cierre de la posición. Idempotente:
// con un cierre pendiente no hace nada.
func (e *Engine) executeClose(ctx context.Context, pos *domain.Position, closeSignal string) error {
	if e.positions.HasPendingCloseOrder(pos.VTSymbol) {
		return nil
	}
	now := e.deps.Clock.Now()

	closePrice := pos.OpenPrice
	if tick, err := e.deps.Quotes.LatestTick(ctx, pos.VTSymbol); err == nil && tick.AskPrice1 > 0 {
		// Cerrar un corto compra al ask.
		closePrice = tick.AskPrice1
	}

	instr, ok := e.sizer.CloseInstruction(pos, closePrice, closeSignal)
	if !ok {
		return nil
	}

	vtOrderID, err := e.deps.Trader.SendOrder(ctx, instr)
	if err != nil {
		return fmt.Errorf("send close: %w", err)
	}
	e.positions.RegisterOrder(domain.NewOrder(vtOrderID, instr, now))
	e.executor.RegisterOrder(vtOrderID, instr, now)
	e.ordersSubmitted++
	metrics.OrdersSubmitted.WithLabelValues(e.cfg.Strategy.Name).Inc()

	e.signalsEmitted++
	metrics.SignalsEmitted.WithLabelValues(e.cfg.Strategy.Name, "close").Inc()
	e.positions.Emit(domain.NewSignalAlertEvent(domain.EventCloseSignal,
		pos.VTSymbol, closeSignal, instr.Volume, closePrice, now))

	slog.Info("engine: close placed", "vt_symbol", pos.VTSymbol,
		"signal", closeSignal, "volume", instr.Volume)
	return nil
}

// checkHedges agrega las griegas de cartera y consulta los motores de
// cobertura delta y gamma scalping.
func (e *Engine) checkHedges(at time.Time) {
	entries := e.portfolioEntries()
	if len(entries) == 0 {
		return
	}

	pg, events := e.riskAgg.AggregatePortfolioGreeks(entries, at)
	for _, ev := range events {
		e.positions.Emit(ev)
	}

	hedgePrice := 0.0
	if bar, ok := e.lastBars[e.cfg.Hedging.HedgeVTSymbol]; ok {
		hedgePrice = bar.Close
	}
	hedgeRes, hedgeEvents := e.deltaEng.CheckAndHedge(pg, hedgePrice, at)
	for _, ev := range hedgeEvents {
		e.positions.Emit(ev)
	}
	if hedgeRes.ShouldHedge && hedgeRes.Volume > 0 {
		e.submitHedge(hedgeRes.Instruction)
	}

	scalpPrice := 0.0
	if bar, ok := e.lastBars[e.cfg.GammaScalp.HedgeVTSymbol]; ok {
		scalpPrice = bar.Close
	}
	scalpRes, scalpEvents := e.gammaEng.CheckAndRebalance(pg, scalpPrice, at)
	for _, ev := range scalpEvents {
		e.positions.Emit(ev)
	}
	if scalpRes.ShouldRebalance && !scalpRes.Rejected && scalpRes.Volume > 0 {
		e.submitHedge(scalpRes.Instruction)
	}
}

// submitHedge encola la instrucción de cobertura como orden iceberg.
// Si ya hay una orden avanzada en curso sobre el mismo contrato no
// encola otra: el ajuste pendiente ya está en vuelo.
func (e *Engine) submitHedge(instr domain.OrderInstruction) {
	if e.scheduler.HasExecutingFor(instr.VTSymbol) {
		return
	}
	order, err := e.scheduler.SubmitIceberg(instr, hedgeBatchVolume)
	if err != nil {
		slog.Error("engine: hedge submit failed",
			"vt_symbol", instr.VTSymbol, "error", err)
		return
	}
	slog.Info("engine: hedge order scheduled",
		"order_id", order.OrderID, "vt_symbol", instr.VTSymbol,
		"signal", instr.Signal, "direction", instr.Direction,
		"volume", instr.Volume)
}

// portfolioEntries calcula las griegas por posición activa a partir
// del último precio conocido de opción y subyacente.
func (e *Engine) portfolioEntries() []risk.PositionGreeksEntry {
	ctx := context.Background()
	var entries []risk.PositionGreeksEntry

	for _, pos := range e.positions.ActivePositions() {
		underBar, ok := e.lastBars[pos.UnderlyingVTSymbol]
		if !ok || underBar.Close <= 0 {
			continue
		}
		tick, err := e.deps.Quotes.LatestTick(ctx, pos.VTSymbol)
		if err != nil || tick.LastPrice <= 0 {
			continue
		}
		info, err := contract.Parse(pos.VTSymbol, e.calendar)
		if err != nil || !info.IsOption {
			continue
		}

		T := info.Expiry.Sub(underBar.Datetime).Hours() / 24 / 365
		if T <= 0 {
			continue
		}
		iv, err := greeks.ImpliedVolatility(tick.LastPrice, underBar.Close,
			info.Strike, T, riskFreeRate, info.OptionType)
		if err != nil {
			continue
		}
		g, err := greeks.Calculate(greeks.Input{
			SpotPrice:    underBar.Close,
			StrikePrice:  info.Strike,
			TimeToExpiry: T,
			RiskFreeRate: riskFreeRate,
			Volatility:   iv.ImpliedVolatility,
			OptionType:   info.OptionType,
		})
		if err != nil {
			continue
		}

		volume := pos.Volume
		if pos.Direction == domain.DirectionShort {
			volume = -volume
		}
		entries = append(entries, risk.PositionGreeksEntry{
			VTSymbol:   pos.VTSymbol,
			Greeks:     g,
			Volume:     volume,
			Multiplier: info.Size,
		})
	}
	return entries
}

// pumpOrders vigila timeouts del ejecutor y libera los hijos
// programados del scheduler cuyo momento llegó.
func (e *Engine) pumpOrders(ctx context.Context, now time.Time) {
	cancelIDs, events := e.executor.CheckTimeouts(now)
	for _, ev := range events {
		e.positions.Emit(ev)
	}
	for _, id := range cancelIDs {
		if err := e.deps.Trader.CancelOrder(ctx, id); err != nil {
			slog.Error("engine: cancel failed", "vt_orderid", id, "error", err)
		}
	}

	for _, child := range e.scheduler.PendingChildren(now) {
		parent := e.scheduler.Order(child.ParentID)
		if parent == nil {
			continue
		}
		instr := parent.Instruction
		instr.Volume = child.Volume
		vtOrderID, err := e.deps.Trader.SendOrder(ctx, instr)
		if err != nil {
			slog.Error("engine: child order failed",
				"child_id", child.ChildID, "error", err)
			continue
		}
		e.scheduler.MarkChildSubmitted(child.ChildID)
		e.childByOrderID[vtOrderID] = child.ChildID
		e.ordersSubmitted++
		metrics.OrdersSubmitted.WithLabelValues(e.cfg.Strategy.Name).Inc()
	}
}

// OnOrder procesa el callback de estado de orden del gateway.
func (e *Engine) OnOrder(rep domain.OrderReport) {
	e.positions.UpdateFromOrder(rep)

	switch domain.ParseOrderStatus(rep.Status) {
	case domain.StatusAllTraded:
		e.executor.MarkFilled(rep.VTOrderID)
	case domain.StatusCancelled, domain.StatusRejected:
		e.retryOrGiveUp(rep)
	}
}

// retryOrGiveUp reintenta una orden cancelada con precio más agresivo
// hasta agotar los reintentos.
func (e *Engine) retryOrGiveUp(rep domain.OrderReport) {
	order := e.executor.Order(rep.VTOrderID)
	e.executor.MarkCancelled(rep.VTOrderID)
	if order == nil {
		return
	}
	now := e.deps.Clock.Now()

	ctx := context.Background()
	params, err := e.deps.Quotes.ContractParams(ctx, rep.VTSymbol)
	if err != nil {
		slog.Error("engine: retry params failed", "vt_symbol", rep.VTSymbol, "error", err)
		return
	}

	instr, ok := e.executor.PrepareRetry(order, params.PriceTick)
	if !ok {
		e.positions.Emit(domain.NewOrderRetryExhaustedEvent(
			rep.VTOrderID, rep.VTSymbol, order.RetryCount, now))
		return
	}

	vtOrderID, err := e.deps.Trader.SendOrder(ctx, instr)
	if err != nil {
		slog.Error("engine: retry send failed", "vt_symbol", rep.VTSymbol, "error", err)
		return
	}
	retried := e.executor.RegisterOrder(vtOrderID, instr, now)
	retried.RetryCount = order.RetryCount
	e.positions.RegisterOrder(domain.NewOrder(vtOrderID, instr, now))
	e.ordersSubmitted++
	metrics.OrdersSubmitted.WithLabelValues(e.cfg.Strategy.Name).Inc()
}

// OnTrade procesa el fill reportado por el gateway.
func (e *Engine) OnTrade(rep domain.TradeReport) {
	e.positions.UpdateFromTrade(rep)

	if childID, ok := e.childByOrderID[rep.VTOrderID]; ok {
		delete(e.childByOrderID, rep.VTOrderID)
		for _, ev := range e.scheduler.OnChildFilled(childID, rep.Datetime) {
			e.positions.Emit(ev)
		}
	}
}

// OnPosition reconcilia contra la posición reportada por el broker.
func (e *Engine) OnPosition(snap domain.PositionSnapshot) {
	e.positions.UpdateFromPosition(snap, e.deps.Clock.Now())
}

// buildUniverse selecciona el contrato dominante de cada producto
// configurado y suscribe sus símbolos.
func (e *Engine) buildUniverse(ctx context.Context) error {
	now := e.deps.Clock.Now()
	var subscribe []string

	for _, product := range e.cfg.Strategy.Products {
		symbols, err := contract.GenerateRecent(product, now, dominantLookaheadMonths)
		if err != nil {
			return fmt.Errorf("generate symbols for %q: %w", product, err)
		}
		dominant, ok := e.futureSel.SelectDominant(symbols, now)
		if !ok {
			slog.Warn("engine: no dominant contract", "product", product)
			continue
		}
		e.instruments.SetActiveContract(product, dominant)
		subscribe = append(subscribe, dominant)
		slog.Info("engine: dominant selected", "product", product, "vt_symbol", dominant)
	}

	if len(subscribe) == 0 {
		return fmt.Errorf("no active contracts for products %v", e.cfg.Strategy.Products)
	}
	if err := e.deps.Market.Subscribe(ctx, subscribe); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	return nil
}

// checkRollover reevalúa el dominante de cada producto y rota el
// contrato activo cuando cambió.
func (e *Engine) checkRollover(ctx context.Context, now time.Time) {
	for product, active := range e.instruments.AllActiveContracts() {
		symbols, err := contract.GenerateRecent(product, now, dominantLookaheadMonths)
		if err != nil {
			slog.Error("engine: rollover symbols failed", "product", product, "error", err)
			continue
		}
		dominant, ok := e.futureSel.SelectDominant(symbols, now)
		if !ok || dominant == active {
			continue
		}
		e.instruments.SetActiveContract(product, dominant)
		if err := e.deps.Market.Subscribe(ctx, []string{dominant}); err != nil {
			slog.Error("engine: rollover subscribe failed", "vt_symbol", dominant, "error", err)
			continue
		}
		slog.Info("engine: contract rolled over",
			"product", product, "from", active, "to", dominant)
	}
}

// validateUniverse asegura que cada producto configurado tiene un
// contrato activo, suscribiendo los que falten.
func (e *Engine) validateUniverse(ctx context.Context, now time.Time) {
	for _, product := range e.cfg.Strategy.Products {
		if _, ok := e.instruments.ActiveContract(product); ok {
			continue
		}
		symbols, err := contract.GenerateRecent(product, now, dominantLookaheadMonths)
		if err != nil {
			slog.Error("engine: universe symbols failed", "product", product, "error", err)
			continue
		}
		dominant, ok := e.futureSel.SelectDominant(symbols, now)
		if !ok {
			continue
		}
		e.instruments.SetActiveContract(product, dominant)
		if err := e.deps.Market.Subscribe(ctx, []string{dominant}); err != nil {
			slog.Error("engine: universe subscribe failed", "vt_symbol", dominant, "error", err)
		}
	}
}

// drainEvents entrega los eventos acumulados a los notificadores y al
// repositorio de monitorización. Los fallos se loggean y se tragan.
func (e *Engine) drainEvents(ctx context.Context) {
	for _, ev := range e.positions.DrainEvents() {
		for _, n := range e.deps.Notifiers {
			if err := n.Notify(ctx, ev); err != nil {
				slog.Warn("engine: notify failed", "kind", ev.Kind(), "error", err)
			}
		}
		if e.deps.Monitor != nil {
			if err := e.deps.Monitor.InsertEvent(ctx, e.monitorEvent(ev)); err != nil {
				slog.Warn("engine: monitor event failed", "kind", ev.Kind(), "error", err)
			}
		}
	}
}

// monitorEvent serializa el evento con una clave de idempotencia.
func (e *Engine) monitorEvent(ev domain.Event) ports.MonitorEvent {
	payload, err := json.Marshal(ev)
	if err != nil {
		payload = []byte("{}")
	}
	h := fnv.New64a()
	h.Write([]byte(ev.Kind()))
	h.Write(payload)

	return ports.MonitorEvent{
		Variant:     monitorVariant,
		InstanceID:  e.cfg.Strategy.Name,
		BarDatetime: ev.At(),
		EventType:   string(ev.Kind()),
		EventKey: fmt.Sprintf("%s|%s|%x",
			ev.Kind(), ev.At().UTC().Format(time.RFC3339), h.Sum64()),
		Payload: payload,
	}
}

// recordMonitorSnapshot publica el estado observable de la instancia.
func (e *Engine) recordMonitorSnapshot(ctx context.Context, batchTime time.Time) {
	if e.deps.Monitor == nil {
		return
	}
	payload, err := json.Marshal(map[string]any{
		"active_contracts": e.instruments.AllActiveContracts(),
		"active_positions": e.positions.ActivePositionCount(),
		"today_open_count": e.positions.TodayOpenCount(),
		"trading":          e.trading,
	})
	if err != nil {
		return
	}
	snap := ports.MonitorSnapshot{
		Variant:     monitorVariant,
		InstanceID:  e.cfg.Strategy.Name,
		BarDatetime: batchTime,
		BarInterval: e.cfg.Strategy.BarInterval,
		BarWindow:   e.cfg.Strategy.BarWindow,
		Payload:     payload,
	}
	if err := e.deps.Monitor.UpsertSnapshot(ctx, snap); err != nil {
		slog.Warn("engine: monitor snapshot failed", "error", err)
	}
}

// snapshot materializa el estado completo del runtime.
func (e *Engine) snapshot() *domain.RuntimeState {
	return &domain.RuntimeState{
		SavedAt:           e.deps.Clock.Now(),
		TargetAggregate:   e.instruments.Snapshot(),
		PositionAggregate: e.positions.Snapshot(),
	}
}
