package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeBar(i int, close float64) Bar {
	return Bar{
		Datetime: time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Minute),
		Open:     close - 1,
		High:     close + 2,
		Low:      close - 2,
		Close:    close,
		Volume:   100,
	}
}

func TestTargetInstrument_AppendAndLatest(t *testing.T) {
	inst := NewTargetInstrument("rb2601.SHFE")
	for i := 0; i < 10; i++ {
		inst.AppendBar(makeBar(i, 3000+float64(i)))
	}

	assert.Equal(t, 10, inst.NumBars())
	assert.Equal(t, 3009.0, inst.LatestClose())
	assert.Equal(t, 3011.0, inst.LatestHigh())
	assert.Equal(t, 3007.0, inst.LatestLow())
	assert.False(t, inst.HasEnoughData())

	c, ok := inst.CloseAgo(4)
	require.True(t, ok)
	assert.Equal(t, 3005.0, c)

	_, ok = inst.CloseAgo(10)
	assert.False(t, ok)
}

func TestTargetInstrument_HasEnoughDataAt30(t *testing.T) {
	inst := NewTargetInstrument("rb2601.SHFE")
	for i := 0; i < MinBarsForSignals; i++ {
		inst.AppendBar(makeBar(i, 3000))
	}
	assert.True(t, inst.HasEnoughData())
}

func TestTargetInstrument_WindowTrimKeepsSeriesAligned(t *testing.T) {
	inst := NewTargetInstrumentWithCapacity("rb2601.SHFE", 50)
	for i := 0; i < 80; i++ {
		inst.AppendBar(makeBar(i, float64(i)))
		inst.PushEMA(float64(i), float64(i))
		inst.PushMACD(float64(i), float64(i), float64(i))
		inst.PushTD(i)
	}

	assert.Equal(t, 50, inst.NumBars())
	assert.Equal(t, 80, inst.TotalBars())
	assert.Len(t, inst.DifSeries(), 50)
	assert.Len(t, inst.TDCountSeries(), 50)
	// La primera barra retenida y su valor de serie siguen alineados
	assert.Equal(t, 30.0, inst.Bar(0).Close)
	assert.Equal(t, 30.0, inst.DifSeries()[0])
	assert.Equal(t, 30, inst.TDCountSeries()[0])
}

func TestTargetInstrument_LastTwoPeaksSameSign(t *testing.T) {
	inst := NewTargetInstrument("rb2601.SHFE")
	inst.RecordPeak(MACDPeak{BarIndex: 10, Value: 2.0, Price: 3000, Dif: 1.0})
	inst.RecordPeak(MACDPeak{BarIndex: 20, Value: -1.5, Price: 2950, Dif: -0.8})
	inst.RecordPeak(MACDPeak{BarIndex: 30, Value: 3.0, Price: 3050, Dif: 0.9})

	prev, last, ok := inst.LastTwoPeaksSameSign(true)
	require.True(t, ok)
	assert.Equal(t, 10, prev.BarIndex)
	assert.Equal(t, 30, last.BarIndex)

	_, _, ok = inst.LastTwoPeaksSameSign(false)
	assert.False(t, ok)
}

func TestTargetInstrument_SnapshotRoundTrip(t *testing.T) {
	inst := NewTargetInstrumentWithCapacity("SA509.CZCE", 100)
	for i := 0; i < 40; i++ {
		inst.AppendBar(makeBar(i, 1100+float64(i)))
		inst.PushEMA(1100, 1099)
		inst.PushMACD(0.5, 0.3, 0.4)
		inst.PushTD(i % 9)
	}
	inst.RecordPeak(MACDPeak{BarIndex: 12, Value: 1.2, Price: 1110, Dif: 0.6})
	inst.Indicators.TD = TDValue{Count: 5}
	inst.Indicators.Dullness = DullnessState{TopActive: true, DecreasingRun: 3}

	restored := InstrumentFromState(inst.Snapshot())
	assert.Equal(t, inst.Snapshot(), restored.Snapshot())
	assert.Equal(t, inst.NumBars(), restored.NumBars())
	assert.Equal(t, inst.Indicators, restored.Indicators)
}

func TestInstrumentManager_UpdateBarCreatesLazily(t *testing.T) {
	m := NewInstrumentManager()
	_, ok := m.Instrument("rb2601.SHFE")
	require.False(t, ok)

	inst := m.UpdateBar("rb2601.SHFE", makeBar(0, 3000))
	assert.Equal(t, 1, inst.NumBars())

	again := m.UpdateBar("rb2601.SHFE", makeBar(1, 3001))
	assert.Same(t, inst, again)
	assert.Equal(t, 2, again.NumBars())
}

func TestInstrumentManager_ActiveContracts(t *testing.T) {
	m := NewInstrumentManager()
	assert.False(t, m.HasActiveContracts())

	m.SetActiveContract("SA", "SA509.CZCE")
	got, ok := m.ActiveContract("SA")
	require.True(t, ok)
	assert.Equal(t, "SA509.CZCE", got)
	assert.True(t, m.HasActiveContracts())

	// Rollover: el dominante se sobreescribe
	m.SetActiveContract("SA", "SA510.CZCE")
	got, _ = m.ActiveContract("SA")
	assert.Equal(t, "SA510.CZCE", got)
}

func TestInstrumentManager_SnapshotRoundTrip(t *testing.T) {
	m := NewInstrumentManager()
	m.UpdateBar("rb2601.SHFE", makeBar(0, 3000))
	m.UpdateBar("SA509.CZCE", makeBar(0, 1100))
	m.SetActiveContract("rb", "rb2601.SHFE")
	m.SetActiveContract("SA", "SA509.CZCE")

	restored := InstrumentManagerFromState(m.Snapshot())
	assert.Equal(t, m.Snapshot(), restored.Snapshot())
	assert.Equal(t, []string{"SA509.CZCE", "rb2601.SHFE"}, restored.Symbols())
}
