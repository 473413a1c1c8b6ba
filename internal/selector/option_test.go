package selector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantatrisk/voltrader/internal/domain"
)

func chainRow(symbol string, ot domain.OptionType, strike float64) domain.OptionContract {
	return domain.OptionContract{
		VTSymbol:     symbol,
		OptionType:   ot,
		Strike:       strike,
		BidPrice:     50,
		BidVolume:    20,
		AskPrice:     52,
		AskVolume:    20,
		DaysToExpiry: 20,
	}
}

func testChain() []domain.OptionContract {
	return []domain.OptionContract{
		chainRow("MO2601-C-6100.CFFEX", domain.OptionCall, 6100),
		chainRow("MO2601-C-6200.CFFEX", domain.OptionCall, 6200),
		chainRow("MO2601-C-6300.CFFEX", domain.OptionCall, 6300),
		chainRow("MO2601-C-6400.CFFEX", domain.OptionCall, 6400),
		chainRow("MO2601-P-5900.CFFEX", domain.OptionPut, 5900),
		chainRow("MO2601-P-5800.CFFEX", domain.OptionPut, 5800),
		chainRow("MO2601-P-5700.CFFEX", domain.OptionPut, 5700),
	}
}

func TestOptionSelector_ZeroBasedLevel(t *testing.T) {
	s := NewOptionSelector()
	underlying := 6000.0

	// Nivel 0 es la virtual más cercana: con subyacente 6000 el call
	// 6100 queda primero.
	got, ok := s.SelectTarget(testChain(), domain.OptionCall, underlying, 0)
	require.True(t, ok)
	assert.Equal(t, "MO2601-C-6100.CFFEX", got.VTSymbol)

	got, ok = s.SelectTarget(testChain(), domain.OptionCall, underlying, 2)
	require.True(t, ok)
	assert.Equal(t, "MO2601-C-6300.CFFEX", got.VTSymbol)
}

func TestOptionSelector_DeepestFallback(t *testing.T) {
	s := NewOptionSelector()

	got, ok := s.SelectTarget(testChain(), domain.OptionCall, 6000, 10)
	require.True(t, ok)
	assert.Equal(t, "MO2601-C-6400.CFFEX", got.VTSymbol)
}

func TestOptionSelector_PutDistanceMirrors(t *testing.T) {
	s := NewOptionSelector()

	got, ok := s.SelectTarget(testChain(), domain.OptionPut, 6000, 0)
	require.True(t, ok)
	assert.Equal(t, "MO2601-P-5900.CFFEX", got.VTSymbol)
	assert.InDelta(t, 100.0/6000.0, got.OTMDistance, 1e-12)
}

func TestOptionSelector_StrictlyOTMOnly(t *testing.T) {
	s := NewOptionSelector()

	// Con el subyacente en el strike más alto ningún call es virtual.
	_, ok := s.SelectTarget(testChain(), domain.OptionCall, 6400, 0)
	assert.False(t, ok)
}

func TestOptionSelector_LiquidityAndExpiryFilters(t *testing.T) {
	s := NewOptionSelector()

	cheap := chainRow("MO2601-C-6100.CFFEX", domain.OptionCall, 6100)
	cheap.BidPrice = 5

	thin := chainRow("MO2601-C-6200.CFFEX", domain.OptionCall, 6200)
	thin.BidVolume = 1

	far := chainRow("MO2606-C-6300.CFFEX", domain.OptionCall, 6300)
	far.DaysToExpiry = 120

	_, ok := s.SelectTarget([]domain.OptionContract{cheap, thin, far}, domain.OptionCall, 6000, 0)
	assert.False(t, ok)
}

func TestOptionSelector_AllOTMSorted(t *testing.T) {
	s := NewOptionSelector()

	got := s.AllOTM(testChain(), domain.OptionCall, 6000)
	require.Len(t, got, 4)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i].OTMDistance, got[i-1].OTMDistance)
	}
}

func TestOptionSelector_CheckLiquidity(t *testing.T) {
	s := NewOptionSelector()
	params := domain.ContractParams{Size: 100, PriceTick: 0.2}
	tick := domain.Tick{Volume: 500, BidVolume1: 3, BidPrice1: 50.0, AskPrice1: 50.4}

	assert.True(t, s.CheckLiquidity(tick, params))

	lowVolume := tick
	lowVolume.Volume = 10
	assert.False(t, s.CheckLiquidity(lowVolume, params))

	noDepth := tick
	noDepth.BidVolume1 = 0
	assert.False(t, s.CheckLiquidity(noDepth, params))

	wide := tick
	wide.AskPrice1 = 50.6
	assert.False(t, s.CheckLiquidity(wide, params), "three ticks wide fails the strict bound")

	badTick := params
	badTick.PriceTick = 0
	assert.False(t, s.CheckLiquidity(tick, badTick))
}
