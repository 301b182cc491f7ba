package testinternals

import (
	"math"

	"github.com/2beens/formcheck/internal/pose"
)

const FPS = 30

// Span is a timed transition between two poses of one exercise.
type Span[P any] struct {
	Seconds  float64
	From, To P
}

func HoldPose[P any](seconds float64, p P) Span[P] {
	return Span[P]{Seconds: seconds, From: p, To: p}
}

func MovePose[P any](seconds float64, from, to P) Span[P] {
	return Span[P]{Seconds: seconds, From: from, To: to}
}

// expand samples every span at FPS. The first sample of a span is one frame
// after its start, so consecutive spans do not repeat a pose.
func expand[P any](spans []Span[P], interpolate func(from, to P, f float64) P) []P {
	var out []P
	for _, s := range spans {
		n := int(math.Round(s.Seconds * FPS))
		for k := 1; k <= n; k++ {
			out = append(out, interpolate(s.From, s.To, float64(k)/float64(n)))
		}
	}
	return out
}

func lerp(a, b, f float64) float64 {
	return a + (b-a)*f
}

func rad(deg float64) float64 {
	return deg * math.Pi / 180
}

// Timestamp of the i-th frame.
func Timestamp(i int) int64 {
	return int64(math.Round(float64(i) * 1000 / FPS))
}

// newFrame returns a frame with every landmark parked at rest and visible.
// Both body sides share the same landmarks, so the subject is seen side-on.
func newFrame(ts int64, rest pose.Landmark, visibility float64) *pose.Frame {
	f := &pose.Frame{TimestampMs: ts}
	rest.Visibility = visibility
	for i := range f.Landmarks {
		f.Landmarks[i] = rest
	}
	return f
}

func setBoth(f *pose.Frame, lm pose.Landmark, visibility float64, indices ...int) {
	lm.Visibility = visibility
	for _, i := range indices {
		f.Landmarks[i] = lm
	}
}
