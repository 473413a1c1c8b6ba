package greeks

import (
	"fmt"
	"math"

	"github.com/quantatrisk/voltrader/internal/domain"
)

// Parámetros del solver de volatilidad implícita.
const (
	ivInitialGuess  = 0.5
	ivLowerBound    = 0.001
	ivUpperBound    = 10.0
	ivMaxIterations = 100
	ivTolerance     = 0.01
)

// IVResult es el resultado del solver: volatilidad e iteraciones usadas.
type IVResult struct {
	ImpliedVolatility float64
	Iterations        int
}

// ImpliedVolatility resuelve la volatilidad implícita por Newton con
// retroceso a bisección cuando el paso sale del intervalo o la vega es
// demasiado pequeña.
func ImpliedVolatility(marketPrice, spot, strike, timeToExpiry, riskFreeRate float64, optionType domain.OptionType) (IVResult, error) {
	if marketPrice <= 0 {
		return IVResult{}, fmt.Errorf("greeks.ImpliedVolatility: market price must be positive")
	}

	var intrinsic float64
	if optionType == domain.OptionCall {
		intrinsic = math.Max(spot-strike*math.Exp(-riskFreeRate*timeToExpiry), 0.0)
	} else {
		intrinsic = math.Max(strike*math.Exp(-riskFreeRate*timeToExpiry)-spot, 0.0)
	}
	if marketPrice < intrinsic-ivTolerance {
		return IVResult{}, fmt.Errorf("greeks.ImpliedVolatility: market price below intrinsic value")
	}

	sigma := ivInitialGuess
	low, high := ivLowerBound, ivUpperBound

	for i := 0; i < ivMaxIterations; i++ {
		in := Input{
			SpotPrice:    spot,
			StrikePrice:  strike,
			TimeToExpiry: timeToExpiry,
			RiskFreeRate: riskFreeRate,
			Volatility:   sigma,
			OptionType:   optionType,
		}
		price := Price(in)
		diff := price - marketPrice
		if math.Abs(diff) < ivTolerance {
			return IVResult{ImpliedVolatility: sigma, Iterations: i + 1}, nil
		}

		if diff > 0 {
			high = sigma
		} else {
			low = sigma
		}

		var vegaRaw float64
		if g, err := Calculate(in); err == nil {
			vegaRaw = g.Vega * 100.0
		}
		if math.Abs(vegaRaw) > 1e-10 {
			next := sigma - diff/vegaRaw
			if low < next && next < high {
				sigma = next
			} else {
				sigma = (low + high) / 2.0
			}
		} else {
			sigma = (low + high) / 2.0
		}
	}

	return IVResult{Iterations: ivMaxIterations}, fmt.Errorf("greeks.ImpliedVolatility: no convergence after %d iterations", ivMaxIterations)
}
