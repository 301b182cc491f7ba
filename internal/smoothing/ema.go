package smoothing

import (
	"math"

	"github.com/2beens/formcheck/internal/metric"
)

const (
	DefaultFastTau     = 0.10
	DefaultSlowTau     = 0.18
	DefaultVelocityTau = 0.08
)

// EMA is an exponential moving average with a time constant instead of a
// fixed factor, so frame interval jitter does not change the response.
type EMA struct {
	Tau float64 // seconds

	value       float64
	lastSeconds float64
	initialized bool
}

func NewEMA(tau float64) *EMA {
	return &EMA{Tau: tau}
}

// Update feeds a sample taken at the given time and returns the smoothed
// value. The first sample passes through unchanged.
func (e *EMA) Update(value, seconds float64) float64 {
	if !e.initialized || math.IsNaN(e.value) {
		e.value = value
		e.lastSeconds = seconds
		e.initialized = true
		return e.value
	}

	dt := seconds - e.lastSeconds
	if dt <= 0 {
		return e.value
	}
	e.lastSeconds = seconds

	alpha := 1.0
	if e.Tau > 0 {
		alpha = 1 - math.Exp(-dt/e.Tau)
	}
	e.value = alpha*value + (1-alpha)*e.value
	return e.value
}

func (e *EMA) Value() (float64, bool) {
	return e.value, e.initialized
}

func (e *EMA) Reset() {
	e.value = 0
	e.lastSeconds = 0
	e.initialized = false
}

// VelocityTracker derives degrees per second from an already smoothed angle
// and smooths the finite difference with its own time constant.
type VelocityTracker struct {
	ema *EMA

	lastAngle   float64
	lastSeconds float64
	initialized bool
}

func NewVelocityTracker(tau float64) *VelocityTracker {
	return &VelocityTracker{ema: NewEMA(tau)}
}

func (v *VelocityTracker) Update(angle, seconds float64) float64 {
	if !v.initialized {
		v.lastAngle = angle
		v.lastSeconds = seconds
		v.initialized = true
		return v.ema.Update(0, seconds)
	}

	dt := seconds - v.lastSeconds
	if dt <= 0 {
		current, _ := v.ema.Value()
		return current
	}

	raw := (angle - v.lastAngle) / dt
	v.lastAngle = angle
	v.lastSeconds = seconds
	return v.ema.Update(raw, seconds)
}

func (v *VelocityTracker) Reset() {
	v.ema.Reset()
	v.lastAngle = 0
	v.lastSeconds = 0
	v.initialized = false
}

// Params are the time constants of a Bank, in seconds.
type Params struct {
	FastTau     float64 `json:"fastTau"`
	SlowTau     float64 `json:"slowTau"`
	VelocityTau float64 `json:"velocityTau"`
}

func DefaultParams() Params {
	return Params{
		FastTau:     DefaultFastTau,
		SlowTau:     DefaultSlowTau,
		VelocityTau: DefaultVelocityTau,
	}
}

// Bank smooths every banded metric of a snapshot independently and derives
// the velocity of one primary metric.
type Bank struct {
	params   Params
	primary  metric.ID
	filters  [metric.Count]*EMA
	velocity *VelocityTracker
}

func NewBank(params Params, primary metric.ID) *Bank {
	b := &Bank{
		params:   params,
		primary:  primary,
		velocity: NewVelocityTracker(params.VelocityTau),
	}
	for id := metric.ID(0); id < metric.Count; id++ {
		switch id.Descriptor().Band {
		case metric.BandFast:
			b.filters[id] = NewEMA(params.FastTau)
		case metric.BandSlow:
			b.filters[id] = NewEMA(params.SlowTau)
		}
	}
	return b
}

// Update returns the smoothed copy of raw, with Velocity set from the
// smoothed primary metric. Unbanded metrics are copied as they are.
func (b *Bank) Update(raw *metric.Snapshot, timestampMs int64) metric.Snapshot {
	seconds := float64(timestampMs) / 1000.0

	var out metric.Snapshot
	for id := metric.ID(0); id < metric.Count; id++ {
		v, ok := raw.Get(id)
		if !ok {
			continue
		}
		if f := b.filters[id]; f != nil {
			v = f.Update(v, seconds)
		}
		out.Set(id, v)
	}

	if angle, ok := out.Get(b.primary); ok {
		out.Set(metric.Velocity, b.velocity.Update(angle, seconds))
	}
	return out
}

func (b *Bank) Reset() {
	for _, f := range b.filters {
		if f != nil {
			f.Reset()
		}
	}
	b.velocity.Reset()
}
