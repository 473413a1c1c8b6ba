package sim_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantatrisk/voltrader/internal/adapters/sim"
	"github.com/quantatrisk/voltrader/internal/contract"
	"github.com/quantatrisk/voltrader/internal/domain"
)

func newGateway(t *testing.T, start time.Time) (*sim.Gateway, *sim.Clock) {
	t.Helper()
	clock := sim.NewClock(start)
	return sim.NewGateway(clock, contract.NewCalendar(nil, nil)), clock
}

func TestGateway_PushBarSynthesizesTick(t *testing.T) {
	start := time.Date(2025, time.June, 2, 9, 30, 0, 0, time.UTC)
	g, clock := newGateway(t, start)
	ctx := context.Background()

	bar := domain.Bar{Datetime: start.Add(time.Minute), Close: 3805, Open: 3800, High: 3810, Low: 3799, Volume: 120}
	require.NoError(t, g.PushBar("rb2510.SHFE", bar))

	tick, err := g.LatestTick(ctx, "rb2510.SHFE")
	require.NoError(t, err)
	assert.Equal(t, 3805.0, tick.LastPrice)
	assert.Equal(t, 3805.0, tick.BidPrice1)
	assert.Equal(t, 3805.0, tick.AskPrice1)
	assert.True(t, tick.BidVolume1 >= 1)
	assert.True(t, tick.Volume >= 100)
	assert.True(t, clock.Now().Equal(bar.Datetime))

	_, err = g.LatestTick(ctx, "rb2601.SHFE")
	assert.Error(t, err)
}

func TestGateway_ClockNeverRewinds(t *testing.T) {
	start := time.Date(2025, time.June, 2, 9, 30, 0, 0, time.UTC)
	g, clock := newGateway(t, start)

	require.NoError(t, g.PushBar("rb2510.SHFE", domain.Bar{Datetime: start.Add(10 * time.Minute), Close: 3805}))
	require.NoError(t, g.PushBar("rb2510.SHFE", domain.Bar{Datetime: start.Add(5 * time.Minute), Close: 3800}))

	assert.True(t, clock.Now().Equal(start.Add(10*time.Minute)))
}

func TestGateway_OptionChain(t *testing.T) {
	start := time.Date(2025, time.June, 2, 9, 30, 0, 0, time.UTC)
	g, _ := newGateway(t, start)
	ctx := context.Background()

	require.NoError(t, g.PushBar("IM2601.CFFEX", domain.Bar{Datetime: start, Close: 6000}))
	require.NoError(t, g.PushBar("MO2601-P-5800.CFFEX", domain.Bar{Datetime: start, Close: 85.2}))
	require.NoError(t, g.PushBar("MO2601-C-6300.CFFEX", domain.Bar{Datetime: start, Close: 42.0}))

	chain, err := g.OptionChain(ctx, "IM2601.CFFEX")
	require.NoError(t, err)
	require.Len(t, chain, 2)

	var put, call domain.OptionContract
	for _, oc := range chain {
		if oc.OptionType == domain.OptionPut {
			put = oc
		} else {
			call = oc
		}
	}
	assert.Equal(t, "MO2601-P-5800.CFFEX", put.VTSymbol)
	assert.Equal(t, 5800.0, put.Strike)
	assert.Equal(t, 200.0, put.OTMDistance)
	assert.Equal(t, 300.0, call.OTMDistance)
	assert.True(t, put.DaysToExpiry > 0)

	empty, err := g.OptionChain(ctx, "IF2506.CFFEX")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestGateway_SendOrderFillsImmediately(t *testing.T) {
	start := time.Date(2025, time.June, 2, 9, 30, 0, 0, time.UTC)
	g, _ := newGateway(t, start)
	ctx := context.Background()

	var orders []domain.OrderReport
	var trades []domain.TradeReport
	g.SetCallbacks(
		func(o domain.OrderReport) { orders = append(orders, o) },
		func(tr domain.TradeReport) { trades = append(trades, tr) },
	)

	require.NoError(t, g.PushBar("MO2601-P-5800.CFFEX", domain.Bar{Datetime: start, Close: 85.2}))

	id, err := g.SendOrder(ctx, domain.OrderInstruction{
		VTSymbol:  "MO2601-P-5800.CFFEX",
		Direction: domain.DirectionShort,
		Offset:    domain.OffsetOpen,
		Volume:    1,
		Price:     85.0,
		OrderType: domain.OrderTypeLimit,
	})
	require.NoError(t, err)
	assert.Equal(t, "sim.1", id)

	// Los reportes se entregan al vaciar la cola, no dentro de SendOrder.
	assert.Empty(t, orders)
	g.FlushReports()

	require.Len(t, orders, 1)
	assert.Equal(t, string(domain.StatusAllTraded), orders[0].Status)
	assert.Equal(t, 1.0, orders[0].Traded)
	require.Len(t, trades, 1)
	assert.Equal(t, 85.0, trades[0].Price)

	positions, err := g.Positions(ctx)
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, domain.DirectionShort, positions[0].Direction)
	assert.Equal(t, 1.0, positions[0].Volume)

	// Cerrar el corto deja el libro vacío.
	_, err = g.SendOrder(ctx, domain.OrderInstruction{
		VTSymbol:  "MO2601-P-5800.CFFEX",
		Direction: domain.DirectionLong,
		Offset:    domain.OffsetClose,
		Volume:    1,
		Price:     80.0,
		OrderType: domain.OrderTypeLimit,
	})
	require.NoError(t, err)

	positions, err = g.Positions(ctx)
	require.NoError(t, err)
	assert.Empty(t, positions)
	assert.Len(t, g.Trades(), 2)
}

func TestGateway_SendOrderValidation(t *testing.T) {
	start := time.Date(2025, time.June, 2, 9, 30, 0, 0, time.UTC)
	g, _ := newGateway(t, start)
	ctx := context.Background()

	_, err := g.SendOrder(ctx, domain.OrderInstruction{
		VTSymbol: "rb2510.SHFE", Direction: domain.DirectionShort,
		Offset: domain.OffsetOpen, Volume: 0, Price: 3800,
	})
	assert.Error(t, err)

	_, err = g.SendOrder(ctx, domain.OrderInstruction{
		VTSymbol: "rb2510.SHFE", Direction: domain.DirectionShort,
		Offset: domain.OffsetOpen, Volume: 1, Price: 0,
	})
	assert.Error(t, err)
}

func TestGateway_QueryBarsRange(t *testing.T) {
	start := time.Date(2025, time.June, 2, 9, 30, 0, 0, time.UTC)
	g, _ := newGateway(t, start)
	ctx := context.Background()

	bars := []domain.Bar{
		{Datetime: start, Close: 3800},
		{Datetime: start.Add(time.Minute), Close: 3801},
		{Datetime: start.Add(2 * time.Minute), Close: 3802},
	}
	require.NoError(t, g.LoadBars("rb2510.SHFE", bars))
	require.NoError(t, g.Subscribe(ctx, []string{"rb2510.SHFE"}))

	out, err := g.QueryBars(ctx, "rb2510.SHFE", start.Add(time.Minute), start.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, 3801.0, out[0].Close)
}
