package exercise

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"github.com/2beens/formcheck/internal/feedback"
	"github.com/2beens/formcheck/internal/metric"
	"github.com/2beens/formcheck/internal/pose"
	"github.com/2beens/formcheck/internal/posture"
	"github.com/2beens/formcheck/internal/repfsm"
	"github.com/2beens/formcheck/internal/smoothing"
)

const SourceBuiltin = "builtin"

// Definition is a validated exercise configuration, ready to build engines
// from. It is immutable once resolved.
type Definition struct {
	Kind Kind
	// Source is the config file the definition came from, or SourceBuiltin.
	Source          string
	Posture         posture.Params
	GraceMs         int64
	Primary         metric.ID
	Inverted        bool
	Thresholds      map[posture.View]repfsm.Thresholds
	Smoothing       smoothing.Params
	CalibrationReps int
	Rules           []feedback.Rule
	FSM             *repfsm.FSMConfig
	// Warnings collects the non-fatal problems found while resolving: dropped
	// rules, unresolved metric names, a discarded fsm.
	Warnings error
}

// Resolve validates cfg. Problems with the core numbers (stance, primary
// metric, thresholds) are fatal. Problems with single rules or the fsm are
// logged, kept in Warnings, and the offending part is dropped.
func Resolve(kind Kind, cfg Config) (*Definition, error) {
	def := &Definition{
		Kind:            kind,
		Source:          SourceBuiltin,
		Inverted:        cfg.Inverted,
		Smoothing:       cfg.Smoothing,
		CalibrationReps: cfg.CalibrationReps,
		GraceMs:         cfg.Visibility.GraceMs,
	}

	var errs error
	stance, err := posture.ParseStance(cfg.Stance)
	if err != nil {
		errs = multierr.Append(errs, err)
	}
	def.Posture = posture.DefaultParams(stance)
	if cfg.Visibility.Threshold > 0 {
		def.Posture.VisibilityThreshold = cfg.Visibility.Threshold
	}
	if def.GraceMs < 0 {
		errs = multierr.Append(errs, fmt.Errorf("negative grace period: %d", def.GraceMs))
	}

	primary, ok := metric.Parse(cfg.PrimaryMetric)
	if !ok {
		errs = multierr.Append(errs, fmt.Errorf("unknown primary metric: %q", cfg.PrimaryMetric))
	}
	def.Primary = primary

	if s := cfg.Smoothing; s.FastTau <= 0 || s.SlowTau <= 0 || s.VelocityTau <= 0 {
		errs = multierr.Append(errs, errors.New("smoothing time constants must be positive"))
	}
	if def.CalibrationReps <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("calibration reps must be positive: %d", def.CalibrationReps))
	}

	def.Thresholds = make(map[posture.View]repfsm.Thresholds, len(cfg.Thresholds))
	for name, t := range cfg.Thresholds {
		view := posture.View(name)
		if view != posture.ViewSide && view != posture.ViewFront {
			errs = multierr.Append(errs, fmt.Errorf("thresholds for unknown view: %q", name))
			continue
		}
		if err := t.Validate(cfg.Inverted); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("thresholds for view %s: %w", name, err))
			continue
		}
		def.Thresholds[view] = t
	}
	if _, ok := def.Thresholds[posture.ViewSide]; !ok {
		errs = multierr.Append(errs, errors.New("missing side view thresholds"))
	}

	if errs != nil {
		return nil, fmt.Errorf("exercise %s: %w", kind, errs)
	}

	for _, rc := range cfg.Rules {
		rule, err := rc.Build(def.Primary)
		switch {
		case err == nil:
			def.Rules = append(def.Rules, rule)
		case errors.Is(err, feedback.ErrUnknownMetric):
			// kept: a rule on an unresolved metric never matches
			def.Rules = append(def.Rules, rule)
			def.warn(err)
		default:
			def.warn(fmt.Errorf("rule dropped: %w", err))
		}
	}

	if cfg.FSM != nil {
		d, err := repfsm.NewDeclarativeDetector(*cfg.FSM, def.Primary)
		if err != nil {
			def.warn(fmt.Errorf("fsm dropped, using thresholds: %w", err))
		} else {
			fsm := *cfg.FSM
			def.FSM = &fsm
			if condErr := d.ConditionErrors(); condErr != nil {
				def.Warnings = multierr.Append(def.Warnings, condErr)
			}
		}
	}

	return def, nil
}

func (d *Definition) warn(err error) {
	log.Warnf("exercise %s: %s", d.Kind, err)
	d.Warnings = multierr.Append(d.Warnings, err)
}

// ThresholdsFor returns the thresholds of view, the side view ones when the
// view has none.
func (d *Definition) ThresholdsFor(view posture.View) repfsm.Thresholds {
	if t, ok := d.Thresholds[view]; ok {
		return t
	}
	return d.Thresholds[posture.ViewSide]
}

// NewDetector builds the rep detector of the exercise: the declarative one
// when an fsm is configured, the threshold one otherwise.
func (d *Definition) NewDetector() (repfsm.BoundaryDetector, error) {
	if d.FSM != nil {
		return repfsm.NewDeclarativeDetector(*d.FSM, d.Primary)
	}
	return repfsm.NewThresholdDetector(d.Primary, d.Inverted, d.Thresholds)
}

// Measure computes the raw metrics of one frame for the given body side.
// A metric is only set when the landmarks it needs are visible.
func (d *Definition) Measure(f *pose.Frame, side pose.Side) metric.Snapshot {
	var s metric.Snapshot
	visible := func(idx ...int) bool {
		for _, i := range idx {
			if f.Landmarks[i].Visibility < d.Posture.VisibilityThreshold {
				return false
			}
		}
		return true
	}

	sh, el, wr, hp, kn, an := sideIndices(side)
	lm := func(i int) pose.Landmark { return f.Landmarks[i] }

	if visible(sh, el, wr) {
		s.Set(metric.ElbowFlexion, pose.AngleAt(lm(sh), lm(el), lm(wr)))
	}
	if visible(hp, kn, an) {
		s.Set(metric.KneeFlexion, pose.AngleAt(lm(hp), lm(kn), lm(an)))
	}
	if visible(sh, hp, kn) {
		s.Set(metric.HipFlexion, pose.AngleAt(lm(sh), lm(hp), lm(kn)))
	}
	if visible(sh, hp, an) {
		s.Set(metric.BackAngle, pose.AngleAt(lm(sh), lm(hp), lm(an)))
	}
	if visible(sh, hp) {
		s.Set(metric.TorsoLean, pose.TorsoLean(f, side))
	}

	if visible(pose.LeftShoulder, pose.LeftElbow, pose.LeftHip, pose.RightShoulder, pose.RightElbow, pose.RightHip) {
		left := pose.AngleAt(lm(pose.LeftElbow), lm(pose.LeftShoulder), lm(pose.LeftHip))
		right := pose.AngleAt(lm(pose.RightElbow), lm(pose.RightShoulder), lm(pose.RightHip))
		s.Set(metric.ElbowFlare, (left+right)/2)
	}
	if visible(pose.LeftShoulder, pose.RightShoulder, pose.LeftHip, pose.RightHip) {
		s.Set(metric.ShoulderAsymmetry, pose.ShoulderAsymmetry(f))
		if visible(pose.LeftAnkle, pose.RightAnkle) {
			s.Set(metric.HipDropRatio, pose.HipDropRatio(f))
		}
		if visible(pose.Nose, pose.LeftWrist, pose.RightWrist) {
			s.Set(metric.ChinClearance, pose.ChinClearance(f))
		}
	}
	if visible(pose.LeftKnee, pose.RightKnee, pose.LeftAnkle, pose.RightAnkle) {
		s.Set(metric.KneeTracking, pose.KneeTracking(f))
	}

	return s
}

// HipsVisible reports whether both hips pass the visibility threshold.
func (d *Definition) HipsVisible(f *pose.Frame) bool {
	return f.Landmarks[pose.LeftHip].Visibility >= d.Posture.VisibilityThreshold &&
		f.Landmarks[pose.RightHip].Visibility >= d.Posture.VisibilityThreshold
}

func sideIndices(side pose.Side) (shoulder, elbow, wrist, hip, knee, ankle int) {
	if side == pose.RightSide {
		return pose.RightShoulder, pose.RightElbow, pose.RightWrist, pose.RightHip, pose.RightKnee, pose.RightAnkle
	}
	return pose.LeftShoulder, pose.LeftElbow, pose.LeftWrist, pose.LeftHip, pose.LeftKnee, pose.LeftAnkle
}
