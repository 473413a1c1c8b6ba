package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantatrisk/voltrader/internal/domain"
)

func activePosition(t *testing.T, vtSymbol string) *domain.Position {
	t.Helper()
	p := domain.NewPosition(vtSymbol, "IM2601.CFFEX", "sell_put_divergence_td9", domain.DirectionShort, 1, time.Now())
	p.AddFill(1, 50.0, time.Now())
	return p
}

func TestSizer_OpenFixedOneLot(t *testing.T) {
	s := NewSizer()

	instr, ok := s.OpenInstruction("sell_put_divergence_td9", "MO2601-P-5800.CFFEX", 45.2, nil, 0, 0)
	require.True(t, ok)
	assert.Equal(t, 1.0, instr.Volume)
	assert.Equal(t, domain.DirectionShort, instr.Direction)
	assert.Equal(t, domain.OffsetOpen, instr.Offset)
	assert.Equal(t, 45.2, instr.Price)
	assert.Equal(t, "sell_put_divergence_td9", instr.Signal)
}

func TestSizer_OpenRejections(t *testing.T) {
	s := NewSizer()
	s.MaxPositions = 1

	full := []*domain.Position{activePosition(t, "MO2601-P-5700.CFFEX")}
	_, ok := s.OpenInstruction("sig", "MO2601-P-5800.CFFEX", 45.2, full, 0, 0)
	assert.False(t, ok, "max positions reached")

	s.MaxPositions = 5
	same := []*domain.Position{activePosition(t, "MO2601-P-5800.CFFEX")}
	_, ok = s.OpenInstruction("sig", "MO2601-P-5800.CFFEX", 45.2, same, 0, 0)
	assert.False(t, ok, "same symbol already held")

	_, ok = s.OpenInstruction("sig", "MO2601-P-5800.CFFEX", 45.2, nil, s.GlobalDailyLimit, 0)
	assert.False(t, ok, "global daily limit")

	_, ok = s.OpenInstruction("sig", "MO2601-P-5800.CFFEX", 45.2, nil, 0, s.PerContractLimit)
	assert.False(t, ok, "per contract limit")

	_, ok = s.OpenInstruction("sig", "MO2601-P-5800.CFFEX", 0, nil, 0, 0)
	assert.False(t, ok, "non-positive price")
}

func TestSizer_CloseInstruction(t *testing.T) {
	s := NewSizer()
	pos := activePosition(t, "MO2601-P-5800.CFFEX")

	instr, ok := s.CloseInstruction(pos, 30.0, "close_put_td_high9")
	require.True(t, ok)
	assert.Equal(t, domain.DirectionLong, instr.Direction)
	assert.Equal(t, domain.OffsetClose, instr.Offset)
	assert.Equal(t, pos.Volume, instr.Volume)

	pos.ReduceVolume(pos.Volume, time.Now())
	_, ok = s.CloseInstruction(pos, 30.0, "close_put_td_high9")
	assert.False(t, ok, "closed position")

	_, ok = s.CloseInstruction(nil, 30.0, "close_put_td_high9")
	assert.False(t, ok)
}

func testThresholds() domain.RiskThresholds {
	return domain.RiskThresholds{
		Position:  domain.GreeksLimits{Delta: 0.8, Gamma: 0.1, Vega: 50},
		Portfolio: domain.GreeksLimits{Delta: 5.0, Gamma: 1.0, Vega: 500},
	}
}

func TestAggregator_CheckPositionRisk(t *testing.T) {
	a := NewAggregator(testThresholds())

	ok := domain.GreeksResult{Delta: -0.3, Gamma: 0.002, Vega: 12}
	assert.NoError(t, a.CheckPositionRisk(ok, 1, 1))

	// El peso volumen por multiplicador empuja delta fuera del umbral.
	assert.Error(t, a.CheckPositionRisk(ok, 3, 1))
	assert.Error(t, a.CheckPositionRisk(domain.GreeksResult{Gamma: 0.2}, 1, 1))
	assert.Error(t, a.CheckPositionRisk(domain.GreeksResult{Vega: 60}, 1, 1))
}

func TestAggregator_AggregatePortfolioGreeks(t *testing.T) {
	a := NewAggregator(testThresholds())
	now := time.Now()

	entries := []PositionGreeksEntry{
		{VTSymbol: "a", Greeks: domain.GreeksResult{Delta: 0.4, Gamma: 0.01, Theta: -2, Vega: 20}, Volume: 2, Multiplier: 1},
		{VTSymbol: "b", Greeks: domain.GreeksResult{Delta: -0.2, Gamma: 0.02, Theta: -1, Vega: 10}, Volume: 1, Multiplier: 1},
	}

	total, events := a.AggregatePortfolioGreeks(entries, now)
	assert.InDelta(t, 0.6, total.Delta, 1e-12)
	assert.InDelta(t, 0.04, total.Gamma, 1e-12)
	assert.InDelta(t, -5.0, total.Theta, 1e-12)
	assert.InDelta(t, 50.0, total.Vega, 1e-12)
	assert.Empty(t, events)
}

func TestAggregator_PortfolioBreachEvents(t *testing.T) {
	a := NewAggregator(testThresholds())

	entries := []PositionGreeksEntry{
		{VTSymbol: "a", Greeks: domain.GreeksResult{Delta: 0.5, Vega: 30}, Volume: 100, Multiplier: 1},
	}

	_, events := a.AggregatePortfolioGreeks(entries, time.Now())
	require.Len(t, events, 2)
	for _, ev := range events {
		breach, ok := ev.(domain.GreeksRiskBreachEvent)
		require.True(t, ok)
		assert.Equal(t, domain.RiskLevelPortfolio, breach.Level)
	}
}
