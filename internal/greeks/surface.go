package greeks

import (
	"fmt"
	"sort"
	"time"
)

const surfaceEps = 1e-9

// VolQuote es una cotización de volatilidad implícita en un punto
// (strike, vencimiento) de la superficie.
type VolQuote struct {
	Strike       float64 `json:"strike"`
	TimeToExpiry float64 `json:"time_to_expiry"`
	ImpliedVol   float64 `json:"implied_vol"`
}

// Surface es una rejilla de volatilidad indexada por vencimiento y
// strike, ambos en orden ascendente.
type Surface struct {
	Strikes   []float64   `json:"strikes"`
	Expiries  []float64   `json:"expiries"`
	VolMatrix [][]float64 `json:"vol_matrix"`
	Timestamp time.Time   `json:"timestamp"`
}

// Smile es el corte de la superficie a vencimiento fijo.
type Smile struct {
	TimeToExpiry float64
	Strikes      []float64
	Vols         []float64
}

// TermStructure es el corte de la superficie a strike fijo.
type TermStructure struct {
	Strike   float64
	Expiries []float64
	Vols     []float64
}

// BuildSurface construye la rejilla a partir de cotizaciones,
// descartando las de volatilidad no positiva. Requiere al menos dos
// strikes y dos vencimientos distintos.
func BuildSurface(quotes []VolQuote, now time.Time) (*Surface, error) {
	strikeSet := make(map[float64]struct{})
	expirySet := make(map[float64]struct{})
	lookup := make(map[[2]float64]float64)
	for _, q := range quotes {
		if q.ImpliedVol <= 0 {
			continue
		}
		strikeSet[q.Strike] = struct{}{}
		expirySet[q.TimeToExpiry] = struct{}{}
		lookup[[2]float64{q.TimeToExpiry, q.Strike}] = q.ImpliedVol
	}

	strikes := sortedKeys(strikeSet)
	expiries := sortedKeys(expirySet)
	if len(strikes) < 2 || len(expiries) < 2 {
		return nil, fmt.Errorf("greeks.BuildSurface: not enough quotes: %d strikes, %d expiries", len(strikes), len(expiries))
	}

	matrix := make([][]float64, len(expiries))
	for ei, exp := range expiries {
		row := make([]float64, len(strikes))
		for si, stk := range strikes {
			row[si] = lookup[[2]float64{exp, stk}]
		}
		matrix[ei] = row
	}

	return &Surface{Strikes: strikes, Expiries: expiries, VolMatrix: matrix, Timestamp: now}, nil
}

func sortedKeys(set map[float64]struct{}) []float64 {
	keys := make([]float64, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Float64s(keys)
	return keys
}

// Query interpola bilinealmente la volatilidad en (strike, expiry).
// Valores fuera de la rejilla, más allá de la tolerancia de punto
// flotante, devuelven error; dentro de ella se fijan al borde.
func (s *Surface) Query(strike, timeToExpiry float64) (float64, error) {
	if len(s.Strikes) == 0 || len(s.Expiries) == 0 {
		return 0, fmt.Errorf("greeks.Surface.Query: empty surface")
	}
	if strike < s.Strikes[0]-surfaceEps || strike > s.Strikes[len(s.Strikes)-1]+surfaceEps {
		return 0, fmt.Errorf("greeks.Surface.Query: strike %g out of range [%g, %g]",
			strike, s.Strikes[0], s.Strikes[len(s.Strikes)-1])
	}
	if timeToExpiry < s.Expiries[0]-surfaceEps || timeToExpiry > s.Expiries[len(s.Expiries)-1]+surfaceEps {
		return 0, fmt.Errorf("greeks.Surface.Query: expiry %g out of range [%g, %g]",
			timeToExpiry, s.Expiries[0], s.Expiries[len(s.Expiries)-1])
	}

	strike = clamp(strike, s.Strikes[0], s.Strikes[len(s.Strikes)-1])
	timeToExpiry = clamp(timeToExpiry, s.Expiries[0], s.Expiries[len(s.Expiries)-1])

	si := bracketIndex(s.Strikes, strike)
	ei := bracketIndex(s.Expiries, timeToExpiry)

	s0, s1 := s.Strikes[si], s.Strikes[si+1]
	e0, e1 := s.Expiries[ei], s.Expiries[ei+1]

	var ts, te float64
	if s1 != s0 {
		ts = (strike - s0) / (s1 - s0)
	}
	if e1 != e0 {
		te = (timeToExpiry - e0) / (e1 - e0)
	}

	v00 := s.VolMatrix[ei][si]
	v01 := s.VolMatrix[ei][si+1]
	v10 := s.VolMatrix[ei+1][si]
	v11 := s.VolMatrix[ei+1][si+1]

	return v00*(1-ts)*(1-te) + v01*ts*(1-te) + v10*(1-ts)*te + v11*ts*te, nil
}

// bracketIndex devuelve el índice inferior del segmento que contiene v.
func bracketIndex(grid []float64, v float64) int {
	i := sort.SearchFloat64s(grid, v)
	if i >= len(grid) || grid[i] != v {
		i--
	}
	if i > len(grid)-2 {
		i = len(grid) - 2
	}
	if i < 0 {
		i = 0
	}
	return i
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ExtractSmile devuelve el smile interpolado a un vencimiento dado.
func (s *Surface) ExtractSmile(timeToExpiry float64) Smile {
	vols := make([]float64, len(s.Strikes))
	for i, stk := range s.Strikes {
		if v, err := s.Query(stk, timeToExpiry); err == nil {
			vols[i] = v
		}
	}
	return Smile{
		TimeToExpiry: timeToExpiry,
		Strikes:      append([]float64(nil), s.Strikes...),
		Vols:         vols,
	}
}

// ExtractTermStructure devuelve la estructura temporal a un strike dado.
func (s *Surface) ExtractTermStructure(strike float64) TermStructure {
	vols := make([]float64, len(s.Expiries))
	for i, exp := range s.Expiries {
		if v, err := s.Query(strike, exp); err == nil {
			vols[i] = v
		}
	}
	return TermStructure{
		Strike:   strike,
		Expiries: append([]float64(nil), s.Expiries...),
		Vols:     vols,
	}
}
