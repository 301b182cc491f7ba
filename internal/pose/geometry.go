package pose

import (
	"math"
)

// MinDenominator guards every ratio against coincident landmarks.
const MinDenominator = 0.001

// AngleAt returns the unsigned angle in degrees, in [0, 180], at vertex
// between the rays towards a and b. NaN inputs propagate.
func AngleAt(a, vertex, b Landmark) float64 {
	radians := math.Atan2(b.Y-vertex.Y, b.X-vertex.X) - math.Atan2(a.Y-vertex.Y, a.X-vertex.X)
	angle := math.Abs(radians * 180.0 / math.Pi)
	if angle > 180.0 {
		angle = 360.0 - angle
	}
	return angle
}

func Distance(a, b Landmark) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

func Midpoint(a, b Landmark) Landmark {
	return Landmark{
		X:          (a.X + b.X) / 2,
		Y:          (a.Y + b.Y) / 2,
		Z:          (a.Z + b.Z) / 2,
		Visibility: math.Min(a.Visibility, b.Visibility),
	}
}

// SafeDiv divides by den, keeping its sign but never letting its magnitude
// drop below MinDenominator.
func SafeDiv(num, den float64) float64 {
	if math.Abs(den) < MinDenominator {
		if den < 0 {
			den = -MinDenominator
		} else {
			den = MinDenominator
		}
	}
	return num / den
}

// TorsoLength is the shoulder midpoint to hip midpoint distance.
func TorsoLength(f *Frame) float64 {
	shoulders := Midpoint(f.Landmarks[LeftShoulder], f.Landmarks[RightShoulder])
	hips := Midpoint(f.Landmarks[LeftHip], f.Landmarks[RightHip])
	return Distance(shoulders, hips)
}

// HipDropRatio is the vertical deviation of the hip midpoint below the
// shoulder-to-ankle line, in torso lengths. Positive means the hips sag
// (image y grows downwards), negative means they pike.
func HipDropRatio(f *Frame) float64 {
	shoulders := Midpoint(f.Landmarks[LeftShoulder], f.Landmarks[RightShoulder])
	hips := Midpoint(f.Landmarks[LeftHip], f.Landmarks[RightHip])
	ankles := Midpoint(f.Landmarks[LeftAnkle], f.Landmarks[RightAnkle])

	lineY := shoulders.Y
	if dx := ankles.X - shoulders.X; math.Abs(dx) >= MinDenominator {
		t := (hips.X - shoulders.X) / dx
		lineY = shoulders.Y + t*(ankles.Y-shoulders.Y)
	}

	return SafeDiv(hips.Y-lineY, Distance(shoulders, hips))
}

// ShoulderAsymmetry is the vertical offset between shoulders in torso lengths.
func ShoulderAsymmetry(f *Frame) float64 {
	dy := math.Abs(f.Landmarks[LeftShoulder].Y - f.Landmarks[RightShoulder].Y)
	return SafeDiv(dy, TorsoLength(f))
}

// KneeTracking is the knee spread over the ankle spread. Values well below 1
// mean the knees cave inwards.
func KneeTracking(f *Frame) float64 {
	knees := math.Abs(f.Landmarks[LeftKnee].X - f.Landmarks[RightKnee].X)
	ankles := math.Abs(f.Landmarks[LeftAnkle].X - f.Landmarks[RightAnkle].X)
	return SafeDiv(knees, ankles)
}

// TorsoLean is the torso angle from vertical in degrees.
func TorsoLean(f *Frame, side Side) float64 {
	j := f.Joints(side)
	dx := math.Abs(j.Shoulder.X - j.Hip.X)
	dy := math.Abs(j.Shoulder.Y - j.Hip.Y)
	return math.Atan2(dx, dy) * 180.0 / math.Pi
}

// ChinClearance is how far the nose rises above the wrist midpoint, in torso
// lengths. Positive once the chin is over the bar.
func ChinClearance(f *Frame) float64 {
	wrists := Midpoint(f.Landmarks[LeftWrist], f.Landmarks[RightWrist])
	return SafeDiv(wrists.Y-f.Landmarks[Nose].Y, TorsoLength(f))
}
