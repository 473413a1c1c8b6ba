package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func makeOrder(id string) *Order {
	return NewOrder(id, OrderInstruction{
		VTSymbol:  "SA509P1100.CZCE",
		Direction: DirectionShort,
		Offset:    OffsetOpen,
		Volume:    2,
		Price:     25.5,
		Signal:    "sell_put_divergence_td9",
		OrderType: OrderTypeLimit,
	}, t0)
}

func TestOrder_ApplyReportUpdatesStatusAndTraded(t *testing.T) {
	o := makeOrder("gw.1")
	o.ApplyReport(OrderReport{VTOrderID: "gw.1", Status: "parttraded", Traded: 1, Datetime: t0.Add(time.Second)})

	assert.Equal(t, StatusPartTraded, o.Status)
	assert.Equal(t, 1.0, o.Traded)
	assert.Equal(t, 1.0, o.Remaining())
}

func TestOrder_TerminalStatusIsAbsorbing(t *testing.T) {
	o := makeOrder("gw.1")
	o.ApplyReport(OrderReport{Status: "cancelled", Traded: 1, Datetime: t0})
	o.ApplyReport(OrderReport{Status: "alltraded", Traded: 2, Datetime: t0})

	assert.Equal(t, StatusCancelled, o.Status)
	assert.Equal(t, 1.0, o.Traded)
}

func TestOrder_TradedNeverExceedsVolume(t *testing.T) {
	o := makeOrder("gw.1")
	o.ApplyReport(OrderReport{Status: "alltraded", Traded: 99, Datetime: t0})
	assert.Equal(t, o.Volume, o.Traded)
}

func TestParseOrderStatus_UnknownFallsBackToSubmitting(t *testing.T) {
	assert.Equal(t, StatusSubmitting, ParseOrderStatus("weird"))
	assert.Equal(t, StatusAllTraded, ParseOrderStatus("alltraded"))
}

func TestOrderStatus_Terminal(t *testing.T) {
	assert.True(t, StatusAllTraded.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.True(t, StatusRejected.IsTerminal())
	assert.False(t, StatusPartTraded.IsTerminal())
	assert.False(t, StatusSubmitting.IsTerminal())
}

func TestOrder_SnapshotRoundTrip(t *testing.T) {
	o := makeOrder("gw.42")
	o.ApplyReport(OrderReport{Status: "parttraded", Traded: 1, Datetime: t0.Add(time.Minute)})

	restored := OrderFromState(o.Snapshot())
	assert.Equal(t, o, restored)
}

func TestRoundToTick(t *testing.T) {
	assert.InDelta(t, 3640.0, RoundToTick(3641.3, 5), 1e-9)
	assert.InDelta(t, 25.5, RoundToTick(25.4, 0.5), 1e-9)
	// Tick no positivo: identidad
	assert.Equal(t, 17.3, RoundToTick(17.3, 0))
	assert.Equal(t, 17.3, RoundToTick(17.3, -1))
}
