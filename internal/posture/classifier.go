package posture

import (
	"fmt"
	"math"
	"strings"

	"github.com/2beens/formcheck/internal/pose"
)

// View is the camera-relative orientation of the subject.
type View string

const (
	ViewNone  View = "none"
	ViewSide  View = "side"
	ViewFront View = "front"
)

func (v View) String() string {
	return string(v)
}

// Stance is the body orientation an exercise is performed in, it selects the
// classification geometry.
type Stance string

const (
	// StanceHorizontal covers plank-like exercises (push-up).
	StanceHorizontal Stance = "horizontal"
	// StanceUpright covers standing exercises (squat).
	StanceUpright Stance = "upright"
	// StanceHanging covers exercises hanging from a bar (pull-up).
	StanceHanging Stance = "hanging"
)

func ParseStance(s string) (Stance, error) {
	switch Stance(strings.ToLower(s)) {
	case StanceHorizontal:
		return StanceHorizontal, nil
	case StanceUpright:
		return StanceUpright, nil
	case StanceHanging:
		return StanceHanging, nil
	default:
		return "", fmt.Errorf("unknown stance: %s", s)
	}
}

const (
	DefaultVisibilityThreshold = 0.45
	DefaultMinSegment          = 0.05
	DefaultStackTolerance      = 0.12
	DefaultStackRise           = 0.02
	DefaultWristReach          = 0.6
	DefaultFrontSpread         = 0.35
)

type Params struct {
	Stance              Stance
	VisibilityThreshold float64
	// MinSegment is the shortest shoulder-hip or hip-leg distance, in image
	// units, accepted as a real pose.
	MinSegment float64
	// StackTolerance is the horizontal slack for joints stacked under the
	// shoulder in a front view.
	StackTolerance float64
	// StackRise is how far above the shoulder a stacked joint may still sit.
	StackRise float64
	// WristReach is the horizontal wrist-to-shoulder distance, in torso
	// lengths, still counted as "under the shoulder" in a side view.
	WristReach float64
	// FrontSpread is the shoulder spread, in torso lengths, above which an
	// upright body faces the camera.
	FrontSpread float64
}

func DefaultParams(stance Stance) Params {
	return Params{
		Stance:              stance,
		VisibilityThreshold: DefaultVisibilityThreshold,
		MinSegment:          DefaultMinSegment,
		StackTolerance:      DefaultStackTolerance,
		StackRise:           DefaultStackRise,
		WristReach:          DefaultWristReach,
		FrontSpread:         DefaultFrontSpread,
	}
}

// Joints are the landmarks the classifier looks at. Lower is the ankle, or
// the knee when the ankle is not visible.
type Joints struct {
	Shoulder      pose.Landmark
	Wrist         pose.Landmark
	Hip           pose.Landmark
	Lower         pose.Landmark
	ShoulderWidth float64
}

// JointsFromFrame picks the classifier joints of one body side.
func JointsFromFrame(f *pose.Frame, side pose.Side, visibilityThreshold float64) Joints {
	j := f.Joints(side)
	lower := j.Ankle
	if lower.Visibility < visibilityThreshold && j.Knee.Visibility > lower.Visibility {
		lower = j.Knee
	}
	return Joints{
		Shoulder:      j.Shoulder,
		Wrist:         j.Wrist,
		Hip:           j.Hip,
		Lower:         lower,
		ShoulderWidth: math.Abs(f.Landmarks[pose.LeftShoulder].X - f.Landmarks[pose.RightShoulder].X),
	}
}

// Classify decides the view of a single frame. It keeps no state.
func Classify(j Joints, p Params) View {
	if j.Shoulder.Visibility < p.VisibilityThreshold ||
		j.Wrist.Visibility < p.VisibilityThreshold ||
		j.Hip.Visibility < p.VisibilityThreshold {
		return ViewNone
	}

	torso := pose.Distance(j.Shoulder, j.Hip)
	if torso < p.MinSegment || pose.Distance(j.Hip, j.Lower) < p.MinSegment {
		return ViewNone
	}

	switch p.Stance {
	case StanceUpright, StanceHanging:
		return classifyVertical(j, p, torso)
	default:
		return classifyHorizontal(j, p, torso)
	}
}

func predominantlyHorizontal(a, b pose.Landmark) bool {
	return math.Abs(a.X-b.X) > math.Abs(a.Y-b.Y)
}

func classifyHorizontal(j Joints, p Params, torso float64) View {
	side := predominantlyHorizontal(j.Shoulder, j.Hip) &&
		predominantlyHorizontal(j.Hip, j.Lower) &&
		math.Abs(j.Wrist.X-j.Shoulder.X) <= p.WristReach*torso

	stacked := func(l pose.Landmark) bool {
		return math.Abs(l.X-j.Shoulder.X) <= p.StackTolerance && l.Y > j.Shoulder.Y-p.StackRise
	}
	front := stacked(j.Wrist) && stacked(j.Hip) && stacked(j.Lower)

	return pick(side, front)
}

func classifyVertical(j Joints, p Params, torso float64) View {
	if predominantlyHorizontal(j.Shoulder, j.Hip) {
		return ViewNone
	}
	// the hip sits below the shoulder in image space
	if j.Hip.Y <= j.Shoulder.Y {
		return ViewNone
	}
	if p.Stance == StanceHanging && j.Wrist.Y >= j.Shoulder.Y {
		return ViewNone
	}

	front := pose.SafeDiv(j.ShoulderWidth, torso) >= p.FrontSpread
	return pick(!front, front)
}

func pick(side, front bool) View {
	switch {
	case side && !front:
		return ViewSide
	case front && !side:
		return ViewFront
	default:
		return ViewNone
	}
}
