package pose

import (
	"encoding/json"
)

// Joint indices following the 33-point MediaPipe pose skeleton.
const (
	Nose           = 0
	LeftEyeInner   = 1
	LeftEye        = 2
	LeftEyeOuter   = 3
	RightEyeInner  = 4
	RightEye       = 5
	RightEyeOuter  = 6
	LeftEar        = 7
	RightEar       = 8
	MouthLeft      = 9
	MouthRight     = 10
	LeftShoulder   = 11
	RightShoulder  = 12
	LeftElbow      = 13
	RightElbow     = 14
	LeftWrist      = 15
	RightWrist     = 16
	LeftPinky      = 17
	RightPinky     = 18
	LeftIndex      = 19
	RightIndex     = 20
	LeftThumb      = 21
	RightThumb     = 22
	LeftHip        = 23
	RightHip       = 24
	LeftKnee       = 25
	RightKnee      = 26
	LeftAnkle      = 27
	RightAnkle     = 28
	LeftHeel       = 29
	RightHeel      = 30
	LeftFootIndex  = 31
	RightFootIndex = 32
	NumLandmarks   = 33
)

// Landmark is a normalized joint position in image space, x and y in [0,1],
// with the pose model's visibility confidence.
type Landmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
}

// UnmarshalJSON treats a missing visibility as fully visible, some pose
// models do not report it at all.
func (l *Landmark) UnmarshalJSON(data []byte) error {
	var raw struct {
		X          float64  `json:"x"`
		Y          float64  `json:"y"`
		Z          float64  `json:"z"`
		Visibility *float64 `json:"visibility"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	l.X, l.Y, l.Z = raw.X, raw.Y, raw.Z
	l.Visibility = 1
	if raw.Visibility != nil {
		l.Visibility = *raw.Visibility
	}
	return nil
}

// Frame is one pose sample. Timestamps must be non-decreasing within a session.
type Frame struct {
	Landmarks   [NumLandmarks]Landmark `json:"landmarks"`
	TimestampMs int64                  `json:"timestampMs"`
}

// Side is the body side used for single-side metrics.
type Side int

const (
	LeftSide Side = iota
	RightSide
)

func (s Side) String() string {
	if s == RightSide {
		return "right"
	}
	return "left"
}

// SideJoints are the landmarks of one body side.
type SideJoints struct {
	Shoulder Landmark
	Elbow    Landmark
	Wrist    Landmark
	Hip      Landmark
	Knee     Landmark
	Ankle    Landmark
}

func (f *Frame) Joints(side Side) SideJoints {
	if side == RightSide {
		return SideJoints{
			Shoulder: f.Landmarks[RightShoulder],
			Elbow:    f.Landmarks[RightElbow],
			Wrist:    f.Landmarks[RightWrist],
			Hip:      f.Landmarks[RightHip],
			Knee:     f.Landmarks[RightKnee],
			Ankle:    f.Landmarks[RightAnkle],
		}
	}
	return SideJoints{
		Shoulder: f.Landmarks[LeftShoulder],
		Elbow:    f.Landmarks[LeftElbow],
		Wrist:    f.Landmarks[LeftWrist],
		Hip:      f.Landmarks[LeftHip],
		Knee:     f.Landmarks[LeftKnee],
		Ankle:    f.Landmarks[LeftAnkle],
	}
}

func (j SideJoints) meanVisibility() float64 {
	return (j.Shoulder.Visibility + j.Elbow.Visibility + j.Wrist.Visibility +
		j.Hip.Visibility + j.Knee.Visibility + j.Ankle.Visibility) / 6
}

// DominantSide returns the body side the camera sees better.
func (f *Frame) DominantSide() Side {
	if f.Joints(RightSide).meanVisibility() > f.Joints(LeftSide).meanVisibility() {
		return RightSide
	}
	return LeftSide
}
