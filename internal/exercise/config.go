package exercise

import (
	"github.com/2beens/formcheck/internal/calibration"
	"github.com/2beens/formcheck/internal/feedback"
	"github.com/2beens/formcheck/internal/posture"
	"github.com/2beens/formcheck/internal/repfsm"
	"github.com/2beens/formcheck/internal/smoothing"
)

type VisibilityConfig struct {
	Threshold float64 `json:"threshold"`
	GraceMs   int64   `json:"graceMs"`
}

// Config is the JSON form of an exercise definition. A config file is decoded
// over the built-in defaults, so it only needs the fields it changes. Each
// entry of Thresholds replaces the defaults of its view as a whole.
type Config struct {
	Stance          string                       `json:"stance"`
	PrimaryMetric   string                       `json:"primaryMetric"`
	Inverted        bool                         `json:"inverted"`
	Thresholds      map[string]repfsm.Thresholds `json:"thresholds"`
	Smoothing       smoothing.Params             `json:"smoothing"`
	CalibrationReps int                          `json:"calibrationReps"`
	Visibility      VisibilityConfig             `json:"visibility"`
	Rules           []feedback.RuleConfig        `json:"rules"`
	// FSM switches the exercise to the declarative detector.
	FSM *repfsm.FSMConfig `json:"fsm,omitempty"`
}

// Default returns the built-in configuration of kind.
func Default(kind Kind) (Config, error) {
	switch kind {
	case KindPushUp:
		return pushUpDefaults(), nil
	case KindSquat:
		return squatDefaults(), nil
	case KindPullUp:
		return pullUpDefaults(), nil
	default:
		return Config{}, ErrUnknownExercise
	}
}

func baseConfig(stance posture.Stance, primary string) Config {
	return Config{
		Stance:          string(stance),
		PrimaryMetric:   primary,
		Smoothing:       smoothing.DefaultParams(),
		CalibrationReps: calibration.DefaultReps,
		Visibility: VisibilityConfig{
			Threshold: posture.DefaultVisibilityThreshold,
			GraceMs:   posture.DefaultGraceMs,
		},
	}
}

func pushUpDefaults() Config {
	c := baseConfig(posture.StanceHorizontal, "elbowFlexion")
	c.Thresholds = map[string]repfsm.Thresholds{
		"side": {
			LockoutAngle:     160,
			UpAngle:          155,
			DownAngle:        120,
			DepthTargetAngle: 90,
			DownVelocity:     10,
			UpVelocity:       10,
			DownDwellMs:      40,
			UpDwellMs:        40,
			ArmHoldMs:        150,
		},
		// front-on the elbow angle foreshortens and moves slower on screen
		"front": {
			LockoutAngle:     155,
			UpAngle:          150,
			DownAngle:        125,
			DepthTargetAngle: 95,
			DownVelocity:     6,
			UpVelocity:       6,
			DownDwellMs:      80,
			UpDwellMs:        80,
			ArmHoldMs:        200,
		},
	}
	c.Rules = []feedback.RuleConfig{
		{
			ID: "hipSag", Severity: "critical", Message: "Hips sagging, tighten your core",
			Metric: "backAngle", Comparator: "lessThan", Threshold: 150,
			Tags: []string{"view:side"},
		},
		{
			ID: "hipDrop", Severity: "important", Message: "Keep your hips in line with your shoulders",
			Metric: "hipDropRatio", Comparator: "greaterThan", Threshold: 0.2,
			Tags: []string{"view:side"},
		},
		{
			ID: "shallow", Severity: "important", Message: "Go deeper, bring your chest to the floor",
			Metric: "depthProgress", Comparator: "lessThan", Threshold: 0.7,
		},
		{
			ID: "elbowFlare", Severity: "important", Message: "Tuck your elbows in",
			Metric: "elbowFlare", Comparator: "greaterThan", Threshold: 75,
			Tags: []string{"view:front"}, Live: true,
		},
		{
			ID: "asymmetry", Severity: "minor", Message: "Keep your shoulders level",
			Metric: "shoulderAsymmetry", Comparator: "greaterThan", Threshold: 0.15,
			Tags: []string{"view:front"}, Live: true,
		},
		{
			ID: "tooFast", Severity: "important", Message: "Slow down, control the descent",
			Metric: "repDuration", Comparator: "lessThan", Threshold: 0.8,
			Tags: []string{"focus:tempo"},
		},
	}
	return c
}

func squatDefaults() Config {
	c := baseConfig(posture.StanceUpright, "kneeFlexion")
	c.Thresholds = map[string]repfsm.Thresholds{
		"side": {
			LockoutAngle:     165,
			UpAngle:          160,
			DownAngle:        125,
			DepthTargetAngle: 90,
			DownVelocity:     10,
			UpVelocity:       10,
			DownDwellMs:      50,
			UpDwellMs:        50,
			ArmHoldMs:        200,
		},
		"front": {
			LockoutAngle:     160,
			UpAngle:          155,
			DownAngle:        130,
			DepthTargetAngle: 100,
			DownVelocity:     6,
			UpVelocity:       6,
			DownDwellMs:      80,
			UpDwellMs:        80,
			ArmHoldMs:        250,
		},
	}
	c.Rules = []feedback.RuleConfig{
		{
			ID: "kneeCave", Severity: "critical", Message: "Knees caving in, push them out",
			Metric: "kneeTracking", Comparator: "lessThan", Threshold: 0.75,
			Tags: []string{"view:front"},
		},
		{
			ID: "forwardLean", Severity: "important", Message: "Keep your chest up",
			Metric: "torsoLean", Comparator: "greaterThan", Threshold: 45,
			Tags: []string{"view:side"}, Live: true,
		},
		{
			ID: "shallow", Severity: "important", Message: "Squat deeper, hips to knee height",
			Metric: "depthProgress", Comparator: "lessThan", Threshold: 0.7,
		},
		{
			ID: "tooFast", Severity: "minor", Message: "Slow down, control the descent",
			Metric: "repDuration", Comparator: "lessThan", Threshold: 1.0,
			Tags: []string{"focus:tempo"},
		},
	}
	return c
}

func pullUpDefaults() Config {
	c := baseConfig(posture.StanceHanging, "elbowFlexion")
	c.Thresholds = map[string]repfsm.Thresholds{
		"side": {
			LockoutAngle:     150,
			UpAngle:          145,
			DownAngle:        95,
			DepthTargetAngle: 60,
			DownVelocity:     10,
			UpVelocity:       10,
			DownDwellMs:      50,
			UpDwellMs:        50,
			ArmHoldMs:        200,
		},
		"front": {
			LockoutAngle:     145,
			UpAngle:          140,
			DownAngle:        100,
			DepthTargetAngle: 65,
			DownVelocity:     6,
			UpVelocity:       6,
			DownDwellMs:      80,
			UpDwellMs:        80,
			ArmHoldMs:        250,
		},
	}
	c.Rules = []feedback.RuleConfig{
		{
			ID: "noChin", Severity: "critical", Message: "Pull until your chin clears the bar",
			Metric: "chinClearance", Comparator: "lessThan", Threshold: 0,
		},
		{
			ID: "partial", Severity: "important", Message: "Use the full range of motion",
			Metric: "depthProgress", Comparator: "lessThan", Threshold: 0.7,
		},
		{
			ID: "kipping", Severity: "important", Message: "Avoid swinging, keep your body still",
			Metric: "torsoLean", Comparator: "greaterThan", Threshold: 25,
			Tags: []string{"view:side"}, Live: true,
		},
		{
			ID: "asymmetry", Severity: "minor", Message: "Pull evenly with both arms",
			Metric: "shoulderAsymmetry", Comparator: "greaterThan", Threshold: 0.15,
			Tags: []string{"view:front"}, Live: true,
		},
		{
			ID: "tooFast", Severity: "minor", Message: "Lower yourself under control",
			Metric: "repDuration", Comparator: "lessThan", Threshold: 1.0,
			Tags: []string{"focus:tempo"},
		},
	}
	return c
}
