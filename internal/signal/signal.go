// Package signal decide aperturas y cierres a partir del estado de
// indicadores de un instrumento. Servicio sin estado: funciones puras
// sobre el IndicatorSet.
package signal

import "github.com/quantatrisk/voltrader/internal/domain"

// Señales de apertura. Vender put es la apuesta alcista; vender call,
// la bajista.
const (
	SellPutDivergenceTD9     = "sell_put_divergence_td9"
	SellPutDivergenceConfirm = "sell_put_divergence_confirm"

	SellCallDivergenceTD9     = "sell_call_divergence_td9"
	SellCallDivergenceConfirm = "sell_call_divergence_confirm"
)

// Señales de cierre.
const (
	ClosePutTDHigh9           = "close_put_td_high9"
	ClosePutTopDivergence     = "close_put_top_divergence"
	ClosePutFlatteningInvalid = "close_put_flattening_invalid"

	CloseCallTDLow9            = "close_call_td_low9"
	CloseCallBottomDivergence  = "close_call_bottom_divergence"
	CloseCallFlatteningInvalid = "close_call_flattening_invalid"
)

var putCloseSignals = map[string]struct{}{
	ClosePutTDHigh9:           {},
	ClosePutTopDivergence:     {},
	ClosePutFlatteningInvalid: {},
}

var callCloseSignals = map[string]struct{}{
	CloseCallTDLow9:            {},
	CloseCallBottomDivergence:  {},
	CloseCallFlatteningInvalid: {},
}

// ValidCloseSignals devuelve los cierres admisibles para una señal de
// apertura. Señales desconocidas no admiten ninguno.
func ValidCloseSignals(openSignal string) map[string]struct{} {
	switch openSignal {
	case SellPutDivergenceTD9, SellPutDivergenceConfirm:
		return putCloseSignals
	case SellCallDivergenceTD9, SellCallDivergenceConfirm:
		return callCloseSignals
	}
	return nil
}

// IsSellPut indica si la señal de apertura corresponde a vender put.
func IsSellPut(openSignal string) bool {
	return openSignal == SellPutDivergenceTD9 || openSignal == SellPutDivergenceConfirm
}

// IsSellCall indica si la señal de apertura corresponde a vender call.
func IsSellCall(openSignal string) bool {
	return openSignal == SellCallDivergenceTD9 || openSignal == SellCallDivergenceConfirm
}

// OptionTypeFor devuelve el tipo de opción a vender para la señal.
func OptionTypeFor(openSignal string) (domain.OptionType, bool) {
	switch {
	case IsSellPut(openSignal):
		return domain.OptionPut, true
	case IsSellCall(openSignal):
		return domain.OptionCall, true
	}
	return "", false
}

// CheckOpen evalúa las condiciones de apertura en orden de prioridad:
//
//  1. aplanamiento de suelo + TD bajo 8/9  → vender put
//  2. divergencia de suelo confirmada      → vender put
//  3. aplanamiento de techo + TD alto 8/9  → vender call
//  4. divergencia de techo confirmada      → vender call
//
// Devuelve "" si no hay señal.
func CheckOpen(inst *domain.TargetInstrument) string {
	ind := inst.Indicators

	if ind.Dullness.BottomActive && ind.TD.HasBuy89 {
		return SellPutDivergenceTD9
	}
	if ind.Divergence.BottomDivergence {
		return SellPutDivergenceConfirm
	}
	if ind.Dullness.TopActive && ind.TD.HasSell89 {
		return SellCallDivergenceTD9
	}
	if ind.Divergence.TopDivergence {
		return SellCallDivergenceConfirm
	}
	return ""
}

// CheckClose evalúa los cierres admisibles para la posición según su
// señal de apertura. Devuelve "" si no procede cerrar.
func CheckClose(inst *domain.TargetInstrument, pos *domain.Position) string {
	if pos.Signal == "" {
		return ""
	}
	ind := inst.Indicators
	valid := ValidCloseSignals(pos.Signal)

	if IsSellPut(pos.Signal) {
		// Toma de beneficio: techo
		if ind.TD.HasSell89 {
			if _, ok := valid[ClosePutTDHigh9]; ok {
				return ClosePutTDHigh9
			}
		}
		if ind.Divergence.TopDivergence {
			if _, ok := valid[ClosePutTopDivergence]; ok {
				return ClosePutTopDivergence
			}
		}
		// Stop: el aplanamiento que justificó la entrada se invalidó
		if ind.Dullness.BottomInvalidated {
			if _, ok := valid[ClosePutFlatteningInvalid]; ok {
				return ClosePutFlatteningInvalid
			}
		}
	}

	if IsSellCall(pos.Signal) {
		if ind.TD.HasBuy89 {
			if _, ok := valid[CloseCallTDLow9]; ok {
				return CloseCallTDLow9
			}
		}
		if ind.Divergence.BottomDivergence {
			if _, ok := valid[CloseCallBottomDivergence]; ok {
				return CloseCallBottomDivergence
			}
		}
		if ind.Dullness.TopInvalidated {
			if _, ok := valid[CloseCallFlatteningInvalid]; ok {
				return CloseCallFlatteningInvalid
			}
		}
	}

	return ""
}
