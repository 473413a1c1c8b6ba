package greeks

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testQuotes() []VolQuote {
	return []VolQuote{
		{Strike: 5800, TimeToExpiry: 0.1, ImpliedVol: 0.22},
		{Strike: 6000, TimeToExpiry: 0.1, ImpliedVol: 0.20},
		{Strike: 6200, TimeToExpiry: 0.1, ImpliedVol: 0.23},
		{Strike: 5800, TimeToExpiry: 0.3, ImpliedVol: 0.24},
		{Strike: 6000, TimeToExpiry: 0.3, ImpliedVol: 0.21},
		{Strike: 6200, TimeToExpiry: 0.3, ImpliedVol: 0.25},
	}
}

func TestBuildSurface(t *testing.T) {
	now := time.Date(2025, time.June, 2, 9, 0, 0, 0, time.UTC)
	s, err := BuildSurface(testQuotes(), now)
	require.NoError(t, err)

	assert.Equal(t, []float64{5800, 6000, 6200}, s.Strikes)
	assert.Equal(t, []float64{0.1, 0.3}, s.Expiries)
	assert.Equal(t, 0.20, s.VolMatrix[0][1])
	assert.Equal(t, 0.25, s.VolMatrix[1][2])
}

func TestBuildSurface_FiltersNonPositiveVols(t *testing.T) {
	quotes := testQuotes()
	quotes = append(quotes, VolQuote{Strike: 6400, TimeToExpiry: 0.1, ImpliedVol: -0.1})

	s, err := BuildSurface(quotes, time.Now())
	require.NoError(t, err)
	assert.Equal(t, []float64{5800, 6000, 6200}, s.Strikes)
}

func TestBuildSurface_NotEnoughQuotes(t *testing.T) {
	_, err := BuildSurface(testQuotes()[:2], time.Now())
	assert.Error(t, err)
}

func TestSurface_QueryExactNode(t *testing.T) {
	s, err := BuildSurface(testQuotes(), time.Now())
	require.NoError(t, err)

	v, err := s.Query(6000, 0.1)
	require.NoError(t, err)
	assert.InDelta(t, 0.20, v, 1e-12)
}

func TestSurface_QueryBilinearMidpoint(t *testing.T) {
	s, err := BuildSurface(testQuotes(), time.Now())
	require.NoError(t, err)

	// Punto medio en ambos ejes: media de las cuatro esquinas.
	v, err := s.Query(5900, 0.2)
	require.NoError(t, err)
	assert.InDelta(t, (0.22+0.20+0.24+0.21)/4.0, v, 1e-12)
}

func TestSurface_QueryOutOfRange(t *testing.T) {
	s, err := BuildSurface(testQuotes(), time.Now())
	require.NoError(t, err)

	_, err = s.Query(5000, 0.2)
	assert.Error(t, err)

	_, err = s.Query(6000, 1.0)
	assert.Error(t, err)

	// Dentro de la tolerancia de punto flotante se fija al borde.
	v, err := s.Query(5800-1e-12, 0.1)
	require.NoError(t, err)
	assert.InDelta(t, 0.22, v, 1e-9)
}

func TestSurface_ExtractSmileAndTermStructure(t *testing.T) {
	s, err := BuildSurface(testQuotes(), time.Now())
	require.NoError(t, err)

	smile := s.ExtractSmile(0.1)
	assert.Equal(t, []float64{0.22, 0.20, 0.23}, smile.Vols)

	ts := s.ExtractTermStructure(6000)
	assert.InDelta(t, 0.20, ts.Vols[0], 1e-12)
	assert.InDelta(t, 0.21, ts.Vols[1], 1e-12)
}

func TestSurface_JSONRoundTrip(t *testing.T) {
	now := time.Date(2025, time.June, 2, 9, 0, 0, 0, time.UTC)
	s, err := BuildSurface(testQuotes(), now)
	require.NoError(t, err)

	raw, err := json.Marshal(s)
	require.NoError(t, err)

	var back Surface
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, *s, back)
}
