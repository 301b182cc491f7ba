package repfsm

import (
	"github.com/2beens/formcheck/internal/metric"
)

// RepRecord accumulates one repetition, from its start boundary to its end.
type RepRecord struct {
	StartMs int64
	EndMs   int64
	Extrema metric.Extrema
	// HipsVisible stays true only while every frame of the rep saw the hips.
	HipsVisible bool
}

func newRepRecord(startMs int64) *RepRecord {
	return &RepRecord{
		StartMs:     startMs,
		EndMs:       startMs,
		HipsVisible: true,
	}
}

func (r *RepRecord) observe(in Input) {
	r.EndMs = in.TimestampMs
	r.Extrema.Observe(&in.Metrics)
	if !in.HipsVisible {
		r.HipsVisible = false
	}
}

// DurationSeconds is the elapsed time between start and end.
func (r *RepRecord) DurationSeconds() float64 {
	return float64(r.EndMs-r.StartMs) / 1000.0
}

// Snapshot collapses the rep into one snapshot of per-rep extrema, plus the
// rep duration.
func (r *RepRecord) Snapshot() metric.Snapshot {
	s := r.Extrema.Collapse()
	s.Set(metric.RepDuration, r.DurationSeconds())
	return s
}
