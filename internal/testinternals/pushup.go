// Package testinternals builds synthetic pose streams for tests.
package testinternals

import (
	"math"

	"github.com/2beens/formcheck/internal/pose"
)

// PushUpPose places a side-on push-up body with the given elbow and back
// angles, in degrees. Both body sides share the same landmarks.
type PushUpPose struct {
	Elbow, Back float64
}

var (
	PushUpTop    = PushUpPose{Elbow: 170, Back: 178}
	PushUpBottom = PushUpPose{Elbow: 95, Back: 178}
)

type Segment = Span[PushUpPose]

func Hold(seconds float64, p PushUpPose) Segment {
	return HoldPose(seconds, p)
}

func Move(seconds float64, from, to PushUpPose) Segment {
	return MovePose(seconds, from, to)
}

func CleanPushUp() []Segment {
	return []Segment{
		Move(0.6, PushUpTop, PushUpBottom),
		Hold(0.1, PushUpBottom),
		Move(0.6, PushUpBottom, PushUpTop),
		Hold(0.5, PushUpTop),
	}
}

// Poses expands segments into one pose per frame, linearly interpolated.
func Poses(segments ...Segment) []PushUpPose {
	return expand(segments, func(from, to PushUpPose, f float64) PushUpPose {
		return PushUpPose{
			Elbow: lerp(from.Elbow, to.Elbow, f),
			Back:  lerp(from.Back, to.Back, f),
		}
	})
}

func PushUpFrame(ts int64, p PushUpPose, visibility float64) *pose.Frame {
	wrist := pose.Landmark{X: 0.3, Y: 0.8}
	elbow := pose.Landmark{X: 0.3, Y: 0.68}
	shoulder := pose.Landmark{
		X: elbow.X - 0.12*math.Sin(rad(p.Elbow)),
		Y: elbow.Y + 0.12*math.Cos(rad(p.Elbow)),
	}
	hip := pose.Landmark{X: shoulder.X + 0.25, Y: shoulder.Y}
	ankle := pose.Landmark{
		X: hip.X - 0.25*math.Cos(rad(p.Back)),
		Y: hip.Y - 0.25*math.Sin(rad(p.Back)),
	}
	knee := pose.Midpoint(hip, ankle)

	f := newFrame(ts, pose.Landmark{X: shoulder.X - 0.05, Y: shoulder.Y}, visibility)
	setBoth(f, shoulder, visibility, pose.LeftShoulder, pose.RightShoulder)
	setBoth(f, elbow, visibility, pose.LeftElbow, pose.RightElbow)
	setBoth(f, wrist, visibility, pose.LeftWrist, pose.RightWrist)
	setBoth(f, hip, visibility, pose.LeftHip, pose.RightHip)
	setBoth(f, knee, visibility, pose.LeftKnee, pose.RightKnee)
	setBoth(f, ankle, visibility, pose.LeftAnkle, pose.RightAnkle)
	return f
}

func PushUpFrames(visibility float64, segments ...Segment) []*pose.Frame {
	var out []*pose.Frame
	for i, p := range Poses(segments...) {
		out = append(out, PushUpFrame(Timestamp(i), p, visibility))
	}
	return out
}

// PushUpSession is a held lockout followed by n clean reps.
func PushUpSession(n int) []*pose.Frame {
	segments := []Segment{Hold(0.5, PushUpTop)}
	for i := 0; i < n; i++ {
		segments = append(segments, CleanPushUp()...)
	}
	return PushUpFrames(0.9, segments...)
}
