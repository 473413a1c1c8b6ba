package execution

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantatrisk/voltrader/internal/domain"
)

func execConfig() domain.OrderExecutionConfig {
	return domain.OrderExecutionConfig{TimeoutSeconds: 30, MaxRetries: 3, SlippageTicks: 2}
}

func shortInstr() domain.OrderInstruction {
	return domain.OrderInstruction{
		VTSymbol:  "MO2601-P-5800.CFFEX",
		Direction: domain.DirectionShort,
		Offset:    domain.OffsetOpen,
		Volume:    1,
		Price:     45.0,
		OrderType: domain.OrderTypeLimit,
	}
}

func TestExecutor_AdaptivePrice(t *testing.T) {
	e := NewExecutor(execConfig())

	// Venta: dos ticks por debajo del bid.
	got := e.AdaptivePrice(shortInstr(), 45.0, 45.4, 0.2)
	assert.InDelta(t, 44.6, got, 1e-9)

	long := shortInstr()
	long.Direction = domain.DirectionLong
	got = e.AdaptivePrice(long, 45.0, 45.4, 0.2)
	assert.InDelta(t, 45.8, got, 1e-9)
}

func TestExecutor_AdaptivePriceFallsBackWithoutBook(t *testing.T) {
	e := NewExecutor(execConfig())

	got := e.AdaptivePrice(shortInstr(), 0, 45.4, 0.2)
	assert.InDelta(t, 45.0, got, 1e-9)

	long := shortInstr()
	long.Direction = domain.DirectionLong
	got = e.AdaptivePrice(long, 45.0, 0, 0.2)
	assert.InDelta(t, 45.0, got, 1e-9)

	// Un precio fuera de tick se respeta tal cual en el fallback.
	offTick := shortInstr()
	offTick.Price = 45.07
	got = e.AdaptivePrice(offTick, 0, 45.4, 0.2)
	assert.InDelta(t, 45.07, got, 1e-9)
}

func TestExecutor_CheckTimeouts(t *testing.T) {
	e := NewExecutor(execConfig())
	start := time.Date(2025, time.June, 2, 9, 30, 0, 0, time.UTC)

	e.RegisterOrder("order-1", shortInstr(), start)
	e.RegisterOrder("order-2", shortInstr(), start.Add(20*time.Second))

	ids, events := e.CheckTimeouts(start.Add(30 * time.Second))
	require.Len(t, ids, 1)
	assert.Equal(t, "order-1", ids[0])

	require.Len(t, events, 1)
	ev, ok := events[0].(domain.OrderTimeoutEvent)
	require.True(t, ok)
	assert.Equal(t, "order-1", ev.VTOrderID)
	assert.InDelta(t, 30.0, ev.ElapsedSeconds, 1e-9)
}

func TestExecutor_FilledOrdersSkipTimeout(t *testing.T) {
	e := NewExecutor(execConfig())
	start := time.Now()

	e.RegisterOrder("order-1", shortInstr(), start)
	e.MarkFilled("order-1")

	ids, events := e.CheckTimeouts(start.Add(time.Minute))
	assert.Empty(t, ids)
	assert.Empty(t, events)
}

func TestExecutor_PrepareRetry(t *testing.T) {
	e := NewExecutor(execConfig())
	order := e.RegisterOrder("order-1", shortInstr(), time.Now())

	// Venta: cada reintento baja un tick.
	retry, ok := e.PrepareRetry(order, 0.2)
	require.True(t, ok)
	assert.InDelta(t, 44.8, retry.Price, 1e-9)
	assert.Equal(t, 1, order.RetryCount)

	order.RetryCount = e.MaxRetries()
	_, ok = e.PrepareRetry(order, 0.2)
	assert.False(t, ok, "retries exhausted")
}

func TestExecutor_PrepareRetryLongRaisesPrice(t *testing.T) {
	e := NewExecutor(execConfig())
	long := shortInstr()
	long.Direction = domain.DirectionLong
	order := e.RegisterOrder("order-1", long, time.Now())

	retry, ok := e.PrepareRetry(order, 0.2)
	require.True(t, ok)
	assert.InDelta(t, 45.2, retry.Price, 1e-9)
}

func TestExecutor_ZeroConfigUsesDefaults(t *testing.T) {
	e := NewExecutor(domain.OrderExecutionConfig{})

	assert.Equal(t, DefaultMaxRetries, e.MaxRetries())
	got := e.AdaptivePrice(shortInstr(), 45.0, 45.4, 0.2)
	assert.InDelta(t, 44.6, got, 1e-9, "default slippage is two ticks")
}
