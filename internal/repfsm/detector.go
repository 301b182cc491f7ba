package repfsm

import (
	"github.com/2beens/formcheck/internal/metric"
	"github.com/2beens/formcheck/internal/posture"
)

// Input is what a detector sees of one frame: smoothed metrics (including
// Velocity) and visibility flags.
type Input struct {
	TimestampMs int64
	View        posture.View
	Metrics     metric.Snapshot
	HipsVisible bool
}

type EventKind int

const (
	EventNone EventKind = iota
	EventRepStarted
	EventRepCompleted
)

func (k EventKind) String() string {
	switch k {
	case EventRepStarted:
		return "rep_started"
	case EventRepCompleted:
		return "rep_completed"
	default:
		return "none"
	}
}

// Event is the outcome of one Update. Record is only set on completion and
// belongs to the caller from then on.
type Event struct {
	Kind   EventKind
	Record *RepRecord
}

// BoundaryDetector finds repetition boundaries in a stream of inputs.
type BoundaryDetector interface {
	Update(in Input) Event
	// Reset returns the detector to its initial state, dropping any open rep.
	Reset()
	// Phase names the current state, for debug output.
	Phase() string
	// Recording tells whether a repetition is in progress.
	Recording() bool
}
