package smoothing_test

import (
	"math"
	"testing"

	"github.com/2beens/formcheck/internal/metric"
	"github.com/2beens/formcheck/internal/smoothing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEMA_FirstSamplePassesThrough(t *testing.T) {
	ema := smoothing.NewEMA(0.1)
	assert.Equal(t, 42.0, ema.Update(42, 1.0))
	v, ok := ema.Value()
	assert.True(t, ok)
	assert.Equal(t, 42.0, v)
}

func TestEMA_TimeConstant(t *testing.T) {
	ema := smoothing.NewEMA(0.1)
	ema.Update(0, 0)

	// after exactly one tau the filter covers 1 - 1/e of a step
	got := ema.Update(100, 0.1)
	assert.InDelta(t, 100*(1-math.Exp(-1)), got, 1e-9)
}

func TestEMA_VariableStepIsConsistent(t *testing.T) {
	// two half steps land where one full step does
	one := smoothing.NewEMA(0.2)
	one.Update(0, 0)
	full := one.Update(10, 0.1)

	two := smoothing.NewEMA(0.2)
	two.Update(0, 0)
	two.Update(10, 0.05)
	halves := two.Update(10, 0.1)

	assert.InDelta(t, full, halves, 1e-9)
}

func TestEMA_NonPositiveDeltaKeepsValue(t *testing.T) {
	ema := smoothing.NewEMA(0.1)
	ema.Update(10, 1)
	assert.Equal(t, 10.0, ema.Update(90, 1))
	assert.Equal(t, 10.0, ema.Update(90, 0.5))
}

func TestEMA_Reset(t *testing.T) {
	ema := smoothing.NewEMA(0.1)
	ema.Update(10, 1)
	ema.Update(20, 1.1)
	ema.Reset()
	_, ok := ema.Value()
	assert.False(t, ok)
	assert.Equal(t, 55.0, ema.Update(55, 2))
}

func TestVelocityTracker(t *testing.T) {
	vt := smoothing.NewVelocityTracker(0.0001)
	assert.Equal(t, 0.0, vt.Update(170, 0))

	// a practically unsmoothed tracker follows the finite difference
	v := vt.Update(160, 0.1)
	assert.InDelta(t, -100.0, v, 1e-6)
	v = vt.Update(160, 0.2)
	assert.InDelta(t, 0.0, v, 1e-6)
}

func TestBank_Update(t *testing.T) {
	bank := smoothing.NewBank(smoothing.DefaultParams(), metric.ElbowFlexion)

	var raw metric.Snapshot
	raw.Set(metric.ElbowFlexion, 170)
	raw.Set(metric.ElbowFlare, 40)
	raw.Set(metric.DepthProgress, 0.2)

	out := bank.Update(&raw, 0)
	assert.Equal(t, 170.0, out.Value(metric.ElbowFlexion))
	assert.Equal(t, 0.0, out.Value(metric.Velocity))

	raw.Set(metric.ElbowFlexion, 150)
	raw.Set(metric.ElbowFlare, 60)
	out = bank.Update(&raw, 100)

	fast := 170 + (150-170)*(1-math.Exp(-0.1/smoothing.DefaultFastTau))
	slow := 40 + (60-40)*(1-math.Exp(-0.1/smoothing.DefaultSlowTau))
	assert.InDelta(t, fast, out.Value(metric.ElbowFlexion), 1e-9)
	assert.InDelta(t, slow, out.Value(metric.ElbowFlare), 1e-9)
	// unbanded metrics are copied unchanged
	assert.Equal(t, 0.2, out.Value(metric.DepthProgress))
	require.True(t, out.Has(metric.Velocity))
	assert.Less(t, out.Value(metric.Velocity), 0.0)

	bank.Reset()
	raw.Set(metric.ElbowFlexion, 90)
	out = bank.Update(&raw, 200)
	assert.Equal(t, 90.0, out.Value(metric.ElbowFlexion))
	assert.Equal(t, 0.0, out.Value(metric.Velocity))
}
