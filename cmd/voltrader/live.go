package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/quantatrisk/voltrader/config"
	"github.com/quantatrisk/voltrader/internal/adapters/sim"
	"github.com/quantatrisk/voltrader/internal/adapters/storage"
	"github.com/quantatrisk/voltrader/internal/contract"
	"github.com/quantatrisk/voltrader/internal/domain"
	"github.com/quantatrisk/voltrader/internal/engine"
	"github.com/quantatrisk/voltrader/internal/ports"
)

const (
	// Cadencia de sondeo del repositorio de barras.
	pollInterval = 5 * time.Second
	// Ventana inicial hacia atrás al arrancar el sondeo.
	pollLookback = time.Minute

	stopFile = "STOP_TRADING"
)

// runLive opera en modo paper: el ejecutor simulado rellena las órdenes
// y las barras llegan sondeando el repositorio histórico, que alimenta
// un grabador externo.
func runLive(ctx context.Context, cfg *config.Config, states *storage.FileStateStore,
	history *storage.SQLiteHistory, monitor *storage.SQLiteMonitor, notifiers []ports.Notifier) {

	overrides, err := cfg.ParsedExpiryOverrides()
	if err != nil {
		slog.Error("invalid expiry overrides", "err", err)
		os.Exit(1)
	}
	cal := contract.NewCalendar(cfg.Strategy.Holidays, overrides)
	clock := sim.NewClock(time.Now())
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
	}, false)
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

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	slog.Info("live trading started, press Ctrl+C or create STOP_TRADING file to exit",
		"instance", cfg.Strategy.Name, "poll", pollInterval)

	latest := time.Now().Add(-pollLookback)
	for {
		select {
		case <-ctx.Done():
			slog.Info("live trading stopped (signal)", "instance", cfg.Strategy.Name)
			eng.OnStop(context.Background())
			return
		case <-ticker.C:
			if _, err := os.Stat(stopFile); err == nil {
				slog.Info("STOP_TRADING file detected, shutting down", "instance", cfg.Strategy.Name)
				os.Remove(stopFile)
				eng.OnStop(context.Background())
				return
			}
			latest = pollCycle(ctx, eng, gw, history, latest)
		}
	}
}

// pollCycle reproduce las barras nuevas desde el último sello visto y
// reconcilia posiciones contra el broker. Devuelve el nuevo sello.
func pollCycle(ctx context.Context, eng *engine.Engine, gw *sim.Gateway,
	history *storage.SQLiteHistory, latest time.Time) time.Time {

	symbols, err := history.Symbols(ctx)
	if err != nil {
		slog.Error("live: listing symbols failed", "err", err)
		return latest
	}
	if len(symbols) == 0 {
		return latest
	}

	newest := latest
	err = history.ReplayBars(ctx, symbols, latest.Add(time.Second), time.Now(),
		func(bars map[string]domain.Bar) error {
			for vtSymbol, bar := range bars {
				if err := gw.PushBar(vtSymbol, bar); err != nil {
					slog.Warn("live: push bar failed", "vt_symbol", vtSymbol, "err", err)
				}
				if bar.Datetime.After(newest) {
					newest = bar.Datetime
				}
			}
			eng.OnBars(bars)
			gw.FlushReports()
			return ctx.Err()
		})
	if err != nil {
		slog.Error("live: bar replay failed", "err", err)
		return newest
	}

	snaps, err := gw.Positions(ctx)
	if err != nil {
		slog.Warn("live: position query failed", "err", err)
		return newest
	}
	for _, snap := range snaps {
		eng.OnPosition(snap)
	}
	return newest
}
