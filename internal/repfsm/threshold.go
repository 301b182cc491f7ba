package repfsm

import (
	"fmt"

	"github.com/2beens/formcheck/internal/metric"
	"github.com/2beens/formcheck/internal/posture"
)

// Thresholds drive the angle-threshold detector for one view. Angles are in
// degrees, velocities in degrees per second and dwell times in milliseconds.
type Thresholds struct {
	// LockoutAngle is the fully extended angle the detector arms at.
	LockoutAngle float64 `json:"lockoutAngle"`
	// UpAngle must be crossed on the way back up to finish a rep.
	UpAngle float64 `json:"upAngle"`
	// DownAngle must be crossed on the way down to reach the bottom phase.
	DownAngle float64 `json:"downAngle"`
	// DepthTargetAngle is a full-depth bottom, used for depth progress.
	DepthTargetAngle float64 `json:"depthTargetAngle"`
	DownVelocity     float64 `json:"downVelocity"`
	UpVelocity       float64 `json:"upVelocity"`
	DownDwellMs      int64   `json:"downDwellMs"`
	UpDwellMs        int64   `json:"upDwellMs"`
	ArmHoldMs        int64   `json:"armHoldMs"`
}

// Validate checks the angle ordering. With inverted set the working phase
// raises the angle, so the ordering is reversed.
func (t Thresholds) Validate(inverted bool) error {
	s := 1.0
	if inverted {
		s = -1
	}
	if s*t.UpAngle > s*t.LockoutAngle {
		return fmt.Errorf("up angle %.1f past lockout angle %.1f", t.UpAngle, t.LockoutAngle)
	}
	if s*t.DownAngle >= s*t.UpAngle {
		return fmt.Errorf("down angle %.1f not past up angle %.1f", t.DownAngle, t.UpAngle)
	}
	if t.DownVelocity < 0 || t.UpVelocity < 0 {
		return fmt.Errorf("velocity thresholds must not be negative")
	}
	if t.DownDwellMs < 0 || t.UpDwellMs < 0 || t.ArmHoldMs < 0 {
		return fmt.Errorf("dwell times must not be negative")
	}
	return nil
}

// DepthProgress maps an angle onto [0, 1]: 0 at lockout, 1 at the depth target.
func (t Thresholds) DepthProgress(angle float64) float64 {
	span := t.LockoutAngle - t.DepthTargetAngle
	if span == 0 {
		return 0
	}
	p := (t.LockoutAngle - angle) / span
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	default:
		return p
	}
}

type thresholdPhase int

const (
	phaseUp thresholdPhase = iota
	phaseDown
)

// ThresholdDetector counts reps of a single primary angle with an UP/DOWN
// machine. A rep must start from a held lockout, cross DownAngle while moving
// down and cross UpAngle while moving up. Each crossing has to hold for its
// dwell time.
//
// For exercises whose working phase increases the angle, Inverted flips every
// comparison.
type ThresholdDetector struct {
	primary  metric.ID
	inverted bool
	profiles map[posture.View]Thresholds

	phase          thresholdPhase
	armed          bool
	inLockout      bool
	lockoutSinceMs int64
	downPending    bool
	downSinceMs    int64
	upPending      bool
	upSinceMs      int64
	leftLockout    bool
	record         *RepRecord
}

var _ BoundaryDetector = (*ThresholdDetector)(nil)

// NewThresholdDetector builds a detector over primary. profiles must hold at
// least a side view entry, which also serves views without their own.
func NewThresholdDetector(primary metric.ID, inverted bool, profiles map[posture.View]Thresholds) (*ThresholdDetector, error) {
	if !primary.Valid() {
		return nil, fmt.Errorf("invalid primary metric: %d", primary)
	}
	if _, ok := profiles[posture.ViewSide]; !ok {
		return nil, fmt.Errorf("missing thresholds for view %s", posture.ViewSide)
	}
	for view, t := range profiles {
		if err := t.Validate(inverted); err != nil {
			return nil, fmt.Errorf("thresholds for view %s: %w", view, err)
		}
	}

	copied := make(map[posture.View]Thresholds, len(profiles))
	for view, t := range profiles {
		copied[view] = t
	}
	return &ThresholdDetector{
		primary:  primary,
		inverted: inverted,
		profiles: copied,
	}, nil
}

// ThresholdsFor returns the thresholds used for view.
func (d *ThresholdDetector) ThresholdsFor(view posture.View) Thresholds {
	if t, ok := d.profiles[view]; ok {
		return t
	}
	return d.profiles[posture.ViewSide]
}

// oriented turns a value into the detector's reference direction, where the
// working phase always lowers it.
func (d *ThresholdDetector) oriented(v float64) float64 {
	if d.inverted {
		return -v
	}
	return v
}

func (d *ThresholdDetector) Update(in Input) Event {
	angle, ok := in.Metrics.Get(d.primary)
	if !ok {
		return Event{}
	}
	velocity, ok := in.Metrics.Get(metric.Velocity)
	if !ok {
		return Event{}
	}

	t := d.ThresholdsFor(in.View)
	a := d.oriented(angle)
	v := d.oriented(velocity)
	ts := in.TimestampMs

	if d.phase == phaseDown {
		d.record.observe(in)
		if a > d.oriented(t.UpAngle) && v > t.UpVelocity {
			if !d.upPending {
				d.upPending = true
				d.upSinceMs = ts
			}
			if ts-d.upSinceMs >= t.UpDwellMs {
				rec := d.record
				d.phase = phaseUp
				d.upPending = false
				d.record = nil
				d.leftLockout = false
				return Event{Kind: EventRepCompleted, Record: rec}
			}
		} else {
			d.upPending = false
		}
		return Event{}
	}

	var ev Event
	atLockout := a >= d.oriented(t.LockoutAngle)
	if atLockout {
		if !d.inLockout {
			d.inLockout = true
			d.lockoutSinceMs = ts
		}
		if !d.armed && ts-d.lockoutSinceMs >= t.ArmHoldMs {
			d.armed = true
		}
	} else {
		d.inLockout = false
	}

	// a descent that comes back to lockout before reaching the bottom is not a rep
	if d.record != nil {
		if !atLockout {
			d.leftLockout = true
		} else if d.leftLockout {
			d.record = nil
			d.leftLockout = false
			d.downPending = false
		}
	}

	if d.record == nil && d.armed && v < -t.DownVelocity {
		d.record = newRepRecord(ts)
		d.leftLockout = !atLockout
		ev = Event{Kind: EventRepStarted}
	}
	if d.record == nil {
		return ev
	}
	d.record.observe(in)

	if a < d.oriented(t.DownAngle) && v < -t.DownVelocity {
		if !d.downPending {
			d.downPending = true
			d.downSinceMs = ts
		}
		if ts-d.downSinceMs >= t.DownDwellMs {
			d.phase = phaseDown
			d.armed = false
			d.inLockout = false
			d.downPending = false
		}
	} else {
		d.downPending = false
	}

	return ev
}

func (d *ThresholdDetector) Reset() {
	d.phase = phaseUp
	d.armed = false
	d.inLockout = false
	d.lockoutSinceMs = 0
	d.downPending = false
	d.downSinceMs = 0
	d.upPending = false
	d.upSinceMs = 0
	d.leftLockout = false
	d.record = nil
}

func (d *ThresholdDetector) Phase() string {
	switch {
	case d.phase == phaseDown:
		return "down"
	case d.armed:
		return "up/armed"
	default:
		return "up"
	}
}

func (d *ThresholdDetector) Recording() bool {
	return d.record != nil
}

func (d *ThresholdDetector) Armed() bool {
	return d.armed
}
