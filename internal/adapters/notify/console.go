package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/quantatrisk/voltrader/internal/domain"
)

// Console implementa ports.Notifier escribiendo una línea por evento.
// También sabe renderizar tablas de posiciones y trades para el
// informe de backtest.
type Console struct {
	out io.Writer
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole() *Console {
	return &Console{out: os.Stdout}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer) *Console {
	return &Console{out: w}
}

// Notify imprime el evento en una línea.
func (c *Console) Notify(_ context.Context, event domain.Event) error {
	fmt.Fprintf(c.out, "[%s] %-22s %s\n",
		event.At().Format("15:04:05"), event.Kind(), formatEvent(event))
	return nil
}

// RenderPositions imprime la tabla de posiciones gestionadas.
func (c *Console) RenderPositions(positions []*domain.Position) {
	if len(positions) == 0 {
		fmt.Fprintln(c.out, "no managed positions")
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Symbol", "Dir", "Volume", "Open", "Signal", "Opened at", "Status")

	for i, p := range positions {
		status := "open"
		if p.IsClosed {
			status = "closed"
			if p.IsManuallyClosed {
				status = "closed (manual)"
			}
		}
		openedAt := ""
		if !p.OpenTime.IsZero() {
			openedAt = p.OpenTime.Format("2006-01-02 15:04")
		}
		table.Append(
			fmt.Sprintf("%d", i+1),
			p.VTSymbol,
			string(p.Direction),
			fmt.Sprintf("%.0f", p.Volume),
			fmt.Sprintf("%.2f", p.OpenPrice),
			p.Signal,
			openedAt,
			status,
		)
	}

	table.Render()
}

// RenderTrades imprime el registro de ejecuciones de una sesión.
func (c *Console) RenderTrades(trades []domain.TradeReport) {
	if len(trades) == 0 {
		fmt.Fprintln(c.out, "no trades")
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("Time", "Symbol", "Dir", "Offset", "Price", "Volume")

	for _, t := range trades {
		table.Append(
			t.Datetime.Format("2006-01-02 15:04:05"),
			t.VTSymbol,
			string(t.Direction),
			string(t.Offset),
			fmt.Sprintf("%.2f", t.Price),
			fmt.Sprintf("%.0f", t.Volume),
		)
	}

	table.Render()
}

// RenderBacktestSummary imprime las métricas agregadas de un backtest.
func (c *Console) RenderBacktestSummary(start, end time.Time, bars, signals, trades int, openPositions int) {
	fmt.Fprintf(c.out, "\n=== BACKTEST %s → %s ===\n",
		start.Format("2006-01-02"), end.Format("2006-01-02"))

	table := tablewriter.NewWriter(c.out)
	table.Header("Metric", "Value")
	table.Append("bars replayed", fmt.Sprintf("%d", bars))
	table.Append("signals emitted", fmt.Sprintf("%d", signals))
	table.Append("trades executed", fmt.Sprintf("%d", trades))
	table.Append("positions still open", fmt.Sprintf("%d", openPositions))
	table.Render()
}
