// Package greeks implementa el modelo Black-Scholes: precio, griegas,
// volatilidad implícita y superficie de volatilidad con interpolación
// bilineal. Servicios puros de cálculo, sin efectos secundarios.
package greeks

import (
	"fmt"
	"math"

	"github.com/quantatrisk/voltrader/internal/domain"
)

// Input agrupa los parámetros de una valoración Black-Scholes.
type Input struct {
	SpotPrice    float64
	StrikePrice  float64
	TimeToExpiry float64
	RiskFreeRate float64
	Volatility   float64
	OptionType   domain.OptionType
}

func normCDF(x float64) float64 {
	return 0.5 * (1.0 + math.Erf(x/math.Sqrt2))
}

func normPDF(x float64) float64 {
	return math.Exp(-0.5*x*x) / math.Sqrt(2.0*math.Pi)
}

// Calculate devuelve las griegas Black-Scholes. Vega está escalada a
// un punto porcentual de volatilidad y theta a un día natural.
func Calculate(in Input) (domain.GreeksResult, error) {
	S, K, T, r, sigma := in.SpotPrice, in.StrikePrice, in.TimeToExpiry, in.RiskFreeRate, in.Volatility

	if S <= 0 || K <= 0 {
		return domain.GreeksResult{}, fmt.Errorf("greeks.Calculate: spot and strike must be positive")
	}
	if T < 0 {
		return domain.GreeksResult{}, fmt.Errorf("greeks.Calculate: negative time to expiry")
	}
	if sigma <= 0 {
		return domain.GreeksResult{}, fmt.Errorf("greeks.Calculate: volatility must be positive")
	}

	// En el vencimiento delta degenera a un escalón y el resto se anula.
	if T == 0 {
		var delta float64
		if in.OptionType == domain.OptionCall {
			if S > K {
				delta = 1.0
			}
		} else {
			if S < K {
				delta = -1.0
			}
		}
		return domain.GreeksResult{Delta: delta}, nil
	}

	sqrtT := math.Sqrt(T)
	d1 := (math.Log(S/K) + (r+0.5*sigma*sigma)*T) / (sigma * sqrtT)
	d2 := d1 - sigma*sqrtT

	pdfD1 := normPDF(d1)
	gamma := pdfD1 / (S * sigma * sqrtT)
	vega := S * pdfD1 * sqrtT / 100.0

	var delta, theta float64
	if in.OptionType == domain.OptionCall {
		delta = normCDF(d1)
		theta = (-S*pdfD1*sigma/(2.0*sqrtT) - r*K*math.Exp(-r*T)*normCDF(d2)) / 365.0
	} else {
		delta = normCDF(d1) - 1.0
		theta = (-S*pdfD1*sigma/(2.0*sqrtT) + r*K*math.Exp(-r*T)*normCDF(-d2)) / 365.0
	}

	return domain.GreeksResult{Delta: delta, Gamma: gamma, Theta: theta, Vega: vega}, nil
}

// Price devuelve el precio teórico Black-Scholes de la opción.
func Price(in Input) float64 {
	S, K, T, r, sigma := in.SpotPrice, in.StrikePrice, in.TimeToExpiry, in.RiskFreeRate, in.Volatility

	if T == 0 {
		if in.OptionType == domain.OptionCall {
			return math.Max(S-K, 0.0)
		}
		return math.Max(K-S, 0.0)
	}

	sqrtT := math.Sqrt(T)
	d1 := (math.Log(S/K) + (r+0.5*sigma*sigma)*T) / (sigma * sqrtT)
	d2 := d1 - sigma*sqrtT

	if in.OptionType == domain.OptionCall {
		return S*normCDF(d1) - K*math.Exp(-r*T)*normCDF(d2)
	}
	return K*math.Exp(-r*T)*normCDF(-d2) - S*normCDF(-d1)
}
