package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/quantatrisk/voltrader/internal/domain"
)

// Warmup reproduce el histórico reciente por el pipeline para rellenar
// los buffers de indicadores. Durante el warm-up trading queda en
// false y se restaura pase lo que pase.
func (e *Engine) Warmup(ctx context.Context) error {
	days := e.cfg.Strategy.WarmupDaysLive
	if e.backtest {
		days = e.cfg.Strategy.WarmupDaysBacktest
	}

	symbols := make([]string, 0)
	for _, vtSymbol := range e.instruments.AllActiveContracts() {
		symbols = append(symbols, vtSymbol)
	}
	if len(symbols) == 0 {
		return fmt.Errorf("engine.Warmup: no active contracts")
	}

	prevTrading := e.trading
	e.trading = false
	e.warmingUp = true
	defer func() {
		e.trading = prevTrading
		e.warmingUp = false
	}()

	now := e.deps.Clock.Now()
	start := now.AddDate(0, 0, -days)

	replayed := 0
	err := e.deps.History.ReplayBars(ctx, symbols, start, now, func(bars map[string]domain.Bar) error {
		replayed += len(bars)
		e.OnBars(bars)
		return nil
	})
	if err != nil {
		return fmt.Errorf("engine.Warmup: replay: %w", err)
	}

	// En vivo, un warm-up vacío deja los indicadores ciegos.
	if replayed == 0 && !e.backtest {
		return fmt.Errorf("engine.Warmup: no historical bars for %v in the last %d days", symbols, days)
	}

	slog.Info("engine: warmup complete",
		"bars", replayed, "days", days, "since", start.Format(time.DateOnly))
	return nil
}
