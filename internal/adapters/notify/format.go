package notify

import (
	"encoding/json"
	"fmt"

	"github.com/quantatrisk/voltrader/internal/domain"
)

// formatEvent convierte un evento de dominio en una línea legible.
// Es el formato compartido por la consola y el webhook.
func formatEvent(event domain.Event) string {
	switch e := event.(type) {
	case domain.ManualOpenDetectedEvent:
		return fmt.Sprintf("manual open detected: %s %.0f lots, untracked contracts are not adopted", e.VTSymbol, e.Volume)
	case domain.ManualCloseDetectedEvent:
		return fmt.Sprintf("manual close detected: %s %.0f lots, matched against managed position", e.VTSymbol, e.Volume)
	case domain.RiskLimitExceededEvent:
		return fmt.Sprintf("daily %s open limit exceeded: %s %.0f/%.0f lots", e.LimitType, e.VTSymbol, e.CurrentVolume, e.LimitVolume)
	case domain.GreeksRiskBreachEvent:
		return fmt.Sprintf("%s greeks breach: %s=%.2f over limit %.2f", e.Level, e.GreekName, e.CurrentValue, e.LimitValue)
	case domain.OrderTimeoutEvent:
		return fmt.Sprintf("order timeout: %s %s after %.0fs", e.VTOrderID, e.VTSymbol, e.ElapsedSeconds)
	case domain.OrderRetryExhaustedEvent:
		return fmt.Sprintf("order retries exhausted: %s %s after %d retries", e.VTOrderID, e.VTSymbol, e.Retries)
	case domain.IcebergCompleteEvent:
		return fmt.Sprintf("iceberg complete: %s %s %.0f lots", e.OrderID, e.VTSymbol, e.TotalVolume)
	case domain.IcebergCancelledEvent:
		return fmt.Sprintf("iceberg cancelled: %s %s filled %.0f, remaining %.0f", e.OrderID, e.VTSymbol, e.FilledVolume, e.RemainingVolume)
	case domain.TWAPCompleteEvent:
		return fmt.Sprintf("twap complete: %s %s %.0f lots", e.OrderID, e.VTSymbol, e.TotalVolume)
	case domain.VWAPCompleteEvent:
		return fmt.Sprintf("vwap complete: %s %s %.0f lots", e.OrderID, e.VTSymbol, e.TotalVolume)
	case domain.HedgeExecutedEvent:
		return fmt.Sprintf("delta hedge: %s %s %.0f lots, delta %.1f -> %.1f", e.Direction, e.VTSymbol, e.Volume, e.DeltaBefore, e.DeltaAfter)
	case domain.GammaScalpEvent:
		return fmt.Sprintf("gamma scalp: %s %s %.0f lots, delta %.1f gamma %.2f", e.Direction, e.VTSymbol, e.Volume, e.Delta, e.Gamma)
	case domain.SignalAlertEvent:
		if e.Category == domain.EventOpenSignal {
			return fmt.Sprintf("open signal %q: %s %.0f lots @ %.2f", e.Signal, e.VTSymbol, e.Volume, e.Price)
		}
		return fmt.Sprintf("close signal %q: %s %.0f lots @ %.2f", e.Signal, e.VTSymbol, e.Volume, e.Price)
	default:
		// Evento desconocido: el payload JSON es mejor que nada.
		raw, err := json.Marshal(event)
		if err != nil {
			return string(event.Kind())
		}
		return fmt.Sprintf("%s: %s", event.Kind(), raw)
	}
}
