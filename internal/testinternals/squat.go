package testinternals

import (
	"math"

	"github.com/2beens/formcheck/internal/pose"
)

// SquatPose places a side-on squatter by knee angle and forward torso lean,
// both in degrees. The shins stay vertical and the arms are held straight
// out in front, so the elbow angle never changes.
type SquatPose struct {
	Knee, Lean float64
}

var (
	SquatTop    = SquatPose{Knee: 175, Lean: 5}
	SquatBottom = SquatPose{Knee: 85, Lean: 30}
	// SquatHalf never gets the hips near knee height.
	SquatHalf = SquatPose{Knee: 115, Lean: 15}
)

type SquatSpan = Span[SquatPose]

func CleanSquat() []SquatSpan {
	return []SquatSpan{
		MovePose(0.8, SquatTop, SquatBottom),
		HoldPose(0.2, SquatBottom),
		MovePose(0.8, SquatBottom, SquatTop),
		HoldPose(0.5, SquatTop),
	}
}

func HalfSquat() []SquatSpan {
	return []SquatSpan{
		MovePose(0.5, SquatTop, SquatHalf),
		HoldPose(0.2, SquatHalf),
		MovePose(0.5, SquatHalf, SquatTop),
		HoldPose(0.5, SquatTop),
	}
}

func SquatPoses(spans ...SquatSpan) []SquatPose {
	return expand(spans, func(from, to SquatPose, f float64) SquatPose {
		return SquatPose{
			Knee: lerp(from.Knee, to.Knee, f),
			Lean: lerp(from.Lean, to.Lean, f),
		}
	})
}

func SquatFrame(ts int64, p SquatPose, visibility float64) *pose.Frame {
	const (
		shin  = 0.2
		thigh = 0.2
		torso = 0.25
		arm   = 0.13
	)

	ankle := pose.Landmark{X: 0.5, Y: 0.9}
	knee := pose.Landmark{X: ankle.X, Y: ankle.Y - shin}
	// the thigh turns away from the shin by the knee angle, hips going back
	hip := pose.Landmark{
		X: knee.X - thigh*math.Sin(rad(p.Knee)),
		Y: knee.Y + thigh*math.Cos(rad(p.Knee)),
	}
	shoulder := pose.Landmark{
		X: hip.X + torso*math.Sin(rad(p.Lean)),
		Y: hip.Y - torso*math.Cos(rad(p.Lean)),
	}
	elbow := pose.Landmark{X: shoulder.X + arm, Y: shoulder.Y}
	wrist := pose.Landmark{X: shoulder.X + 2*arm, Y: shoulder.Y}
	nose := pose.Landmark{X: shoulder.X + 0.03, Y: shoulder.Y - 0.08}

	f := newFrame(ts, nose, visibility)
	setBoth(f, shoulder, visibility, pose.LeftShoulder, pose.RightShoulder)
	setBoth(f, elbow, visibility, pose.LeftElbow, pose.RightElbow)
	setBoth(f, wrist, visibility, pose.LeftWrist, pose.RightWrist)
	setBoth(f, hip, visibility, pose.LeftHip, pose.RightHip)
	setBoth(f, knee, visibility, pose.LeftKnee, pose.RightKnee)
	setBoth(f, ankle, visibility, pose.LeftAnkle, pose.RightAnkle)
	return f
}

func SquatFrames(visibility float64, spans ...SquatSpan) []*pose.Frame {
	var out []*pose.Frame
	for i, p := range SquatPoses(spans...) {
		out = append(out, SquatFrame(Timestamp(i), p, visibility))
	}
	return out
}

// SquatSession is a short stand followed by n clean squats.
func SquatSession(n int) []*pose.Frame {
	spans := []SquatSpan{HoldPose(0.5, SquatTop)}
	for i := 0; i < n; i++ {
		spans = append(spans, CleanSquat()...)
	}
	return SquatFrames(0.9, spans...)
}
