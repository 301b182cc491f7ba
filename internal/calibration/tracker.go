package calibration

import (
	"github.com/2beens/formcheck/internal/metric"
)

// DefaultReps is how many completed reps are observed before the baseline
// freezes.
const DefaultReps = 3

// Baseline holds the personal reference value of each calibrated metric.
type Baseline struct {
	values metric.Snapshot
}

func (b Baseline) Get(id metric.ID) (float64, bool) {
	return b.values.Get(id)
}

// OptionalBaseline is a Baseline that may not exist yet.
type OptionalBaseline struct {
	baseline Baseline
	ok       bool
}

func Some(b Baseline) OptionalBaseline {
	return OptionalBaseline{baseline: b, ok: true}
}

func None() OptionalBaseline {
	return OptionalBaseline{}
}

func (o OptionalBaseline) Get() (Baseline, bool) {
	return o.baseline, o.ok
}

func (o OptionalBaseline) IsSet() bool {
	return o.ok
}

// Tracker learns a Baseline from the first reps of a session. For each
// calibrated metric it keeps the extremum in the metric's badness direction:
// the max for higher-is-worse metrics, the min for lower-is-worse ones and
// the per-rep aggregate for neutral ones. Once the configured number of reps
// has been seen the baseline is frozen and never changes again.
type Tracker struct {
	reps int

	observed int
	running  metric.Snapshot
	frozen   OptionalBaseline
}

func NewTracker(reps int) *Tracker {
	if reps <= 0 {
		reps = DefaultReps
	}
	return &Tracker{
		reps: reps,
	}
}

// Observe records the per-rep snapshot of a completed rep. It is a no-op
// once the baseline is frozen.
func (t *Tracker) Observe(rep *metric.Snapshot) {
	if t.frozen.IsSet() {
		return
	}

	for id := metric.ID(0); id < metric.Count; id++ {
		d := id.Descriptor()
		if !d.Calibrated {
			continue
		}
		v, ok := rep.Get(id)
		if !ok {
			continue
		}
		prev, seen := t.running.Get(id)
		if !seen || worse(d, v, prev) {
			t.running.Set(id, v)
		}
	}

	t.observed++
	if t.observed >= t.reps {
		t.frozen = Some(Baseline{values: t.running})
	}
}

func worse(d metric.Descriptor, v, prev float64) bool {
	switch d.Badness {
	case metric.HigherIsWorse:
		return v > prev
	case metric.LowerIsWorse:
		return v < prev
	}
	if d.Aggregate == metric.AggregateMin {
		return v < prev
	}
	return v > prev
}

// Baseline is set only after the tracker froze.
func (t *Tracker) Baseline() OptionalBaseline {
	return t.frozen
}

func (t *Tracker) Observed() int {
	return t.observed
}

// Remaining is the number of reps still needed to freeze the baseline.
func (t *Tracker) Remaining() int {
	if t.observed >= t.reps {
		return 0
	}
	return t.reps - t.observed
}
