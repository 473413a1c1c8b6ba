package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAggWithPosition(vtSymbol string) (*PositionAggregate, *Position) {
	agg := NewPositionAggregate()
	p := NewPosition(vtSymbol, "SA509.CZCE", "sell_put_divergence_td9", DirectionShort, 2, t0)
	agg.AddPosition(p)
	return agg, p
}

func openOrder(id, vtSymbol string, volume float64) *Order {
	return NewOrder(id, OrderInstruction{
		VTSymbol:  vtSymbol,
		Direction: DirectionShort,
		Offset:    OffsetOpen,
		Volume:    volume,
		Price:     25,
		OrderType: OrderTypeLimit,
	}, t0)
}

func TestPositionAggregate_DailyCounterReset(t *testing.T) {
	agg, _ := newAggWithPosition("SA509P1100.CZCE")
	agg.ResetDailyCountersIfNeeded(t0)
	agg.UpdateFromTrade(TradeReport{
		VTSymbol: "SA509P1100.CZCE", Offset: OffsetOpen, Volume: 2, Price: 25, Datetime: t0,
	})
	require.Equal(t, 2.0, agg.TodayOpenCount())
	require.Equal(t, 2.0, agg.TodayOpenCountFor("SA509P1100.CZCE"))

	// Mismo día: sin reset
	assert.False(t, agg.ResetDailyCountersIfNeeded(t0.Add(time.Hour)))
	assert.Equal(t, 2.0, agg.TodayOpenCount())

	// Día nuevo: contadores a cero
	assert.True(t, agg.ResetDailyCountersIfNeeded(t0.Add(24*time.Hour)))
	assert.Equal(t, 0.0, agg.TodayOpenCount())
	assert.Equal(t, 0.0, agg.TodayOpenCountFor("SA509P1100.CZCE"))
}

func TestPositionAggregate_ReservedOpenVolume(t *testing.T) {
	agg := NewPositionAggregate()
	o1 := openOrder("gw.1", "SA509P1100.CZCE", 2)
	o2 := openOrder("gw.2", "SA509C1300.CZCE", 3)
	agg.RegisterOrder(o1)
	agg.RegisterOrder(o2)

	assert.Equal(t, 5.0, agg.ReservedOpenVolume())
	assert.Equal(t, 2.0, agg.ReservedOpenVolumeFor("SA509P1100.CZCE"))

	// Un fill parcial reduce lo reservado
	agg.UpdateFromOrder(OrderReport{VTOrderID: "gw.1", Status: "parttraded", Traded: 1, Datetime: t0})
	assert.Equal(t, 4.0, agg.ReservedOpenVolume())

	// Estado terminal: la orden sale de pendientes y deja de reservar
	agg.UpdateFromOrder(OrderReport{VTOrderID: "gw.2", Status: "cancelled", Traded: 0, Datetime: t0})
	assert.Equal(t, 1.0, agg.ReservedOpenVolume())
	_, ok := agg.PendingOrder("gw.2")
	assert.False(t, ok)
}

func TestPositionAggregate_OrderLeavesOnTerminalOnly(t *testing.T) {
	agg := NewPositionAggregate()
	agg.RegisterOrder(openOrder("gw.1", "rb2601.SHFE", 1))

	agg.UpdateFromOrder(OrderReport{VTOrderID: "gw.1", Status: "nottraded", Datetime: t0})
	_, ok := agg.PendingOrder("gw.1")
	assert.True(t, ok)

	agg.UpdateFromOrder(OrderReport{VTOrderID: "gw.1", Status: "alltraded", Traded: 1, Datetime: t0})
	_, ok = agg.PendingOrder("gw.1")
	assert.False(t, ok)
}

func TestPositionAggregate_TradeOpenAndClose(t *testing.T) {
	agg, p := newAggWithPosition("SA509P1100.CZCE")
	agg.ResetDailyCountersIfNeeded(t0)

	agg.UpdateFromTrade(TradeReport{
		VTSymbol: "SA509P1100.CZCE", Offset: OffsetOpen, Volume: 1, Price: 20, Datetime: t0,
	})
	agg.UpdateFromTrade(TradeReport{
		VTSymbol: "SA509P1100.CZCE", Offset: OffsetOpen, Volume: 1, Price: 30, Datetime: t0,
	})
	assert.InDelta(t, 25.0, p.OpenPrice, 1e-9)
	assert.Equal(t, 2.0, agg.TodayOpenCount())

	agg.UpdateFromTrade(TradeReport{
		VTSymbol: "SA509P1100.CZCE", Offset: OffsetClose, Volume: 2, Price: 15, Datetime: t0.Add(time.Hour),
	})
	assert.True(t, p.IsClosed)
	// Los cierres no tocan los contadores de apertura
	assert.Equal(t, 2.0, agg.TodayOpenCount())
}

func TestPositionAggregate_TradeOnUnmanagedSymbolIgnored(t *testing.T) {
	agg, _ := newAggWithPosition("SA509P1100.CZCE")
	agg.UpdateFromTrade(TradeReport{
		VTSymbol: "rb2601.SHFE", Offset: OffsetOpen, Volume: 5, Price: 3000, Datetime: t0,
	})
	assert.Equal(t, 0.0, agg.TodayOpenCount())
}

func TestPositionAggregate_PerContractLimitEvent(t *testing.T) {
	agg, _ := newAggWithPosition("SA509P1100.CZCE")
	agg.ResetDailyCountersIfNeeded(t0)

	agg.UpdateFromTrade(TradeReport{
		VTSymbol: "SA509P1100.CZCE", Offset: OffsetOpen, Volume: 2, Price: 25, Datetime: t0,
	})

	events := agg.DrainEvents()
	require.Len(t, events, 1)
	ev, ok := events[0].(RiskLimitExceededEvent)
	require.True(t, ok)
	assert.Equal(t, RiskLimitContract, ev.LimitType)
	assert.Equal(t, 2.0, ev.CurrentVolume)
	assert.Equal(t, 2.0, ev.LimitVolume)

	// La cola queda vacía tras drenar
	assert.Empty(t, agg.DrainEvents())
}

func TestPositionAggregate_ManualCloseReconciliation(t *testing.T) {
	agg, p := newAggWithPosition("SA509P1100.CZCE")
	agg.UpdateFromTrade(TradeReport{
		VTSymbol: "SA509P1100.CZCE", Offset: OffsetOpen, Volume: 3, Price: 25, Datetime: t0,
	})
	agg.DrainEvents()

	now := t0.Add(time.Hour)
	agg.UpdateFromPosition(PositionSnapshot{
		VTSymbol: "SA509P1100.CZCE", Direction: DirectionShort, Volume: 1,
	}, now)

	assert.Equal(t, 1.0, p.Volume)
	assert.True(t, p.IsManuallyClosed)

	events := agg.DrainEvents()
	require.Len(t, events, 1)
	ev, ok := events[0].(ManualCloseDetectedEvent)
	require.True(t, ok)
	assert.Equal(t, 2.0, ev.Volume)
}

func TestPositionAggregate_ManualOpenDoesNotAdoptVolume(t *testing.T) {
	agg, p := newAggWithPosition("SA509P1100.CZCE")
	agg.UpdateFromTrade(TradeReport{
		VTSymbol: "SA509P1100.CZCE", Offset: OffsetOpen, Volume: 1, Price: 25, Datetime: t0,
	})
	agg.DrainEvents()

	agg.UpdateFromPosition(PositionSnapshot{
		VTSymbol: "SA509P1100.CZCE", Direction: DirectionShort, Volume: 4,
	}, t0)

	assert.Equal(t, 1.0, p.Volume)
	events := agg.DrainEvents()
	require.Len(t, events, 1)
	ev, ok := events[0].(ManualOpenDetectedEvent)
	require.True(t, ok)
	assert.Equal(t, 3.0, ev.Volume)
}

func TestPositionAggregate_HasPendingCloseOrder(t *testing.T) {
	agg := NewPositionAggregate()
	assert.False(t, agg.HasPendingCloseOrder("SA509P1100.CZCE"))

	agg.RegisterOrder(NewOrder("gw.9", OrderInstruction{
		VTSymbol: "SA509P1100.CZCE", Direction: DirectionLong, Offset: OffsetClose, Volume: 1,
	}, t0))
	assert.True(t, agg.HasPendingCloseOrder("SA509P1100.CZCE"))

	agg.UpdateFromOrder(OrderReport{VTOrderID: "gw.9", Status: "cancelled", Datetime: t0})
	assert.False(t, agg.HasPendingCloseOrder("SA509P1100.CZCE"))
}

func TestPositionAggregate_SnapshotRoundTrip(t *testing.T) {
	agg, _ := newAggWithPosition("SA509P1100.CZCE")
	agg.ResetDailyCountersIfNeeded(t0)
	agg.RegisterOrder(openOrder("gw.1", "SA509P1100.CZCE", 2))
	agg.UpdateFromTrade(TradeReport{
		VTSymbol: "SA509P1100.CZCE", Offset: OffsetOpen, Volume: 1, Price: 25, Datetime: t0,
	})

	restored := PositionAggregateFromState(agg.Snapshot())
	assert.Equal(t, agg.Snapshot(), restored.Snapshot())
	assert.Equal(t, agg.TodayOpenCount(), restored.TodayOpenCount())
	assert.Equal(t, agg.ReservedOpenVolume(), restored.ReservedOpenVolume())
	assert.True(t, restored.IsManaged("SA509P1100.CZCE"))
}
