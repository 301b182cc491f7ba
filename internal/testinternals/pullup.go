package testinternals

import (
	"math"

	"github.com/2beens/formcheck/internal/pose"
)

// PullUpPose places a side-on pull-up hanging from a bar by elbow angle, in
// degrees, and the height of the nose above the shoulders, in image units.
type PullUpPose struct {
	Elbow, Head float64
}

const (
	barY = 0.1
	// HeadClear gets the chin over the bar at the top of a full pull.
	HeadClear = 0.2
	// HeadLow keeps the chin under the bar even at the top.
	HeadLow = 0.05
)

func PullUpHang(head float64) PullUpPose {
	return PullUpPose{Elbow: 170, Head: head}
}

func PullUpTop(head float64) PullUpPose {
	return PullUpPose{Elbow: 50, Head: head}
}

type PullUpSpan = Span[PullUpPose]

// PullUpRep is one controlled pull from a dead hang and back.
func PullUpRep(head float64) []PullUpSpan {
	return []PullUpSpan{
		MovePose(0.8, PullUpHang(head), PullUpTop(head)),
		HoldPose(0.3, PullUpTop(head)),
		MovePose(0.8, PullUpTop(head), PullUpHang(head)),
		HoldPose(0.5, PullUpHang(head)),
	}
}

func PullUpPoses(spans ...PullUpSpan) []PullUpPose {
	return expand(spans, func(from, to PullUpPose, f float64) PullUpPose {
		return PullUpPose{
			Elbow: lerp(from.Elbow, to.Elbow, f),
			Head:  lerp(from.Head, to.Head, f),
		}
	})
}

func PullUpFrame(ts int64, p PullUpPose, visibility float64) *pose.Frame {
	const (
		arm   = 0.15 // upper arm and forearm
		torso = 0.2
		leg   = 0.15 // thigh and shin
	)

	// shoulder, elbow and wrist form an isosceles triangle with the elbow
	// angle at its apex; the shoulder hangs straight under the wrist
	half := rad(p.Elbow) / 2
	wrist := pose.Landmark{X: 0.5, Y: barY}
	shoulder := pose.Landmark{X: wrist.X, Y: wrist.Y + 2*arm*math.Sin(half)}
	elbow := pose.Landmark{X: wrist.X + arm*math.Cos(half), Y: (wrist.Y + shoulder.Y) / 2}
	hip := pose.Landmark{X: shoulder.X, Y: shoulder.Y + torso}
	knee := pose.Landmark{X: hip.X, Y: hip.Y + leg}
	ankle := pose.Landmark{X: knee.X, Y: knee.Y + leg}
	nose := pose.Landmark{X: shoulder.X + 0.03, Y: shoulder.Y - p.Head}

	f := newFrame(ts, nose, visibility)
	setBoth(f, shoulder, visibility, pose.LeftShoulder, pose.RightShoulder)
	setBoth(f, elbow, visibility, pose.LeftElbow, pose.RightElbow)
	setBoth(f, wrist, visibility, pose.LeftWrist, pose.RightWrist)
	setBoth(f, hip, visibility, pose.LeftHip, pose.RightHip)
	setBoth(f, knee, visibility, pose.LeftKnee, pose.RightKnee)
	setBoth(f, ankle, visibility, pose.LeftAnkle, pose.RightAnkle)
	return f
}

func PullUpFrames(visibility float64, spans ...PullUpSpan) []*pose.Frame {
	var out []*pose.Frame
	for i, p := range PullUpPoses(spans...) {
		out = append(out, PullUpFrame(Timestamp(i), p, visibility))
	}
	return out
}
