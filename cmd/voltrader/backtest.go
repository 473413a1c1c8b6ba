package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/quantatrisk/voltrader/config"
	"github.com/quantatrisk/voltrader/internal/adapters/notify"
	"github.com/quantatrisk/voltrader/internal/adapters/sim"
	"github.com/quantatrisk/voltrader/internal/adapters/storage"
	"github.com/quantatrisk/voltrader/internal/contract"
	"github.com/quantatrisk/voltrader/internal/domain"
	"github.com/quantatrisk/voltrader/internal/engine"
	"github.com/quantatrisk/voltrader/internal/ports"
)

// runBacktest reproduce un rango histórico completo por el mismo
// pipeline del modo live, con reloj de barras y ejecutor simulado.
func runBacktest(ctx context.Context, cfg *config.Config, states *storage.FileStateStore,
	history *storage.SQLiteHistory, monitor *storage.SQLiteMonitor, notifiers []ports.Notifier,
	startDate, endDate string, table bool) {

	if startDate == "" {
		slog.Error("backtest requires -start YYYY-MM-DD")
		os.Exit(1)
	}
	start, err := time.Parse(time.DateOnly, startDate)
	if err != nil {
		slog.Error("invalid -start date", "err", err, "value", startDate)
		os.Exit(1)
	}
	end := time.Now().UTC().Truncate(24 * time.Hour)
	if endDate != "" {
		if end, err = time.Parse(time.DateOnly, endDate); err != nil {
			slog.Error("invalid -end date", "err", err, "value", endDate)
			os.Exit(1)
		}
	}
	if !end.After(start) {
		slog.Error("backtest range is empty", "start", startDate, "end", end.Format(time.DateOnly))
		os.Exit(1)
	}
	// El rango incluye el día final completo.
	end = end.Add(24*time.Hour - time.Second)

	overrides, err := cfg.ParsedExpiryOverrides()
	if err != nil {
		slog.Error("invalid expiry overrides", "err", err)
		os.Exit(1)
	}
	cal := contract.NewCalendar(cfg.Strategy.Holidays, overrides)
	clock := sim.NewClock(start)
	gw := sim.NewGateway(clock, cal)

	eng, err := engine.New(cfg, engine.Deps{
		Market:    gw,
		Quotes:    gw,
		Account:   gw,
		Trader:    gw,
		States:    states,
		History:   history,
		Monitor:   monitor,
		Notifiers: notifiers,
		Clock:     clock,
	}, true)
	if err != nil {
		slog.Error("failed to build engine", "err", err)
		os.Exit(1)
	}
	gw.SetCallbacks(eng.OnOrder, eng.OnTrade)

	if err := eng.OnInit(ctx); err != nil {
		slog.Error("engine init failed", "err", err)
		os.Exit(1)
	}
	eng.OnStart()

	symbols, err := history.Symbols(ctx)
	if err != nil {
		slog.Error("backtest: listing symbols failed", "err", err)
		os.Exit(1)
	}
	if len(symbols) == 0 {
		slog.Error("backtest: history store has no bars", "dsn", cfg.Storage.HistoryDSN)
		os.Exit(1)
	}

	slog.Info("backtest started",
		"start", start.Format(time.DateOnly),
		"end", end.Format(time.DateOnly),
		"symbols", len(symbols))

	err = history.ReplayBars(ctx, symbols, start, end, func(bars map[string]domain.Bar) error {
		for vtSymbol, bar := range bars {
			if err := gw.PushBar(vtSymbol, bar); err != nil {
				slog.Warn("backtest: push bar failed", "vt_symbol", vtSymbol, "err", err)
			}
		}
		eng.OnBars(bars)
		gw.FlushReports()
		return ctx.Err()
	})
	if err != nil {
		slog.Error("backtest: replay failed", "err", err)
		os.Exit(1)
	}

	eng.OnStop(ctx)

	bars, signals, orders := eng.Stats()
	trades := gw.Trades()
	slog.Info("backtest complete",
		"bars", bars, "signals", signals, "orders", orders, "trades", len(trades))

	console := notify.NewConsole()
	console.RenderBacktestSummary(start, end, bars, signals, len(trades),
		eng.Positions().ActivePositionCount())
	if table {
		console.RenderPositions(eng.Positions().AllPositions())
		console.RenderTrades(trades)
	}
}
