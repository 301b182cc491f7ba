package engine

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/2beens/formcheck/internal/calibration"
	"github.com/2beens/formcheck/internal/exercise"
	"github.com/2beens/formcheck/internal/feedback"
	"github.com/2beens/formcheck/internal/metric"
	"github.com/2beens/formcheck/internal/pose"
	"github.com/2beens/formcheck/internal/posture"
	"github.com/2beens/formcheck/internal/repfsm"
	"github.com/2beens/formcheck/internal/session"
	"github.com/2beens/formcheck/internal/smoothing"
)

const (
	MessageGetInPosition = "Get into position"
	MessageReady         = "Ready, start your first rep"
	spokenCleanRep       = "Good form"
)

// SessionConfig is chosen once per session.
type SessionConfig struct {
	Exercise    exercise.Kind           `json:"exercise"`
	TargetReps  int                     `json:"targetReps"`
	Sensitivity calibration.Sensitivity `json:"sensitivity"`
	Focus       string                  `json:"focus"`
	Portrait    bool                    `json:"portrait"`
	Debug       bool                    `json:"debug"`
}

// Output is emitted for every processed frame.
type Output struct {
	RepCount            int              `json:"repCount"`
	CleanRepCount       int              `json:"cleanRepCount"`
	OverallScorePercent int              `json:"overallScorePercent"`
	DepthProgress       float64          `json:"depthProgress"`
	RiskCategory        feedback.Risk    `json:"riskCategory"`
	PrimaryFeedback     string           `json:"primaryFeedback"`
	SecondaryHint       string           `json:"secondaryHint,omitempty"`
	LastRepScorePercent int              `json:"lastRepScorePercent"`
	LastRepIssues       []string         `json:"lastRepIssues,omitempty"`
	View                posture.View     `json:"view"`
	Phase               string           `json:"phase"`
	IsSessionComplete   bool             `json:"isSessionComplete"`
	Summary             *session.Summary `json:"summary,omitempty"`
	DebugText           string           `json:"debugText,omitempty"`
	// SpokenMessage is only set on the frame that completes a rep.
	SpokenMessage string `json:"spokenMessage,omitempty"`
}

// State is everything that changes while a session runs. Reset replaces it
// as a whole.
type State struct {
	Latch       *posture.Latch
	Smoother    *smoothing.Bank
	Detector    repfsm.BoundaryDetector
	Calibration *calibration.Tracker
	Session     *session.Aggregator

	RepCount        int
	LastRep         *feedback.Result
	DepthProgress   float64
	LastTimestampMs int64
	SeenFrame       bool
	Last            Output
}

func newState(def *exercise.Definition, cfg SessionConfig) (*State, error) {
	detector, err := def.NewDetector()
	if err != nil {
		return nil, fmt.Errorf("create detector: %w", err)
	}
	return &State{
		Latch:       posture.NewLatch(def.GraceMs),
		Smoother:    smoothing.NewBank(def.Smoothing, def.Primary),
		Detector:    detector,
		Calibration: calibration.NewTracker(def.CalibrationReps),
		Session:     session.NewAggregator(cfg.TargetReps),
	}, nil
}

// Engine turns a stream of pose frames into rep counts and feedback for one
// session. It is not safe for concurrent use.
type Engine struct {
	def   *exercise.Definition
	cfg   SessionConfig
	rules *feedback.Engine
	state *State
}

func New(def *exercise.Definition, cfg SessionConfig) (*Engine, error) {
	if def == nil {
		return nil, fmt.Errorf("nil exercise definition")
	}
	if cfg.TargetReps < 0 {
		return nil, fmt.Errorf("negative target reps: %d", cfg.TargetReps)
	}
	sensitivity, err := calibration.ParseSensitivity(string(cfg.Sensitivity))
	if err != nil {
		return nil, err
	}
	cfg.Sensitivity = sensitivity
	cfg.Exercise = def.Kind
	if cfg.Focus == "" {
		cfg.Focus = feedback.FocusAll
	}

	state, err := newState(def, cfg)
	if err != nil {
		return nil, err
	}
	return &Engine{
		def:   def,
		cfg:   cfg,
		rules: feedback.NewEngine(def.Rules),
		state: state,
	}, nil
}

func (e *Engine) Config() SessionConfig {
	return e.cfg
}

// Reset starts a new session on the same engine.
func (e *Engine) Reset() error {
	state, err := newState(e.def, e.cfg)
	if err != nil {
		return err
	}
	e.state = state
	return nil
}

func (e *Engine) State() *State {
	return e.state
}

func (e *Engine) Baseline() calibration.OptionalBaseline {
	return e.state.Calibration.Baseline()
}

// Summary is the summary so far, and whether the session is complete.
func (e *Engine) Summary() (session.Summary, bool) {
	if s, ok := e.state.Session.Summary(); ok {
		return s, true
	}
	return e.state.Session.Current(), false
}

func (e *Engine) context(view posture.View) feedback.Context {
	orientation := feedback.OrientationLandscape
	if e.cfg.Portrait {
		orientation = feedback.OrientationPortrait
	}
	return feedback.Context{
		View:        view,
		Exercise:    string(e.def.Kind),
		Orientation: orientation,
		Focus:       e.cfg.Focus,
	}
}

// ProcessFrame runs one frame through the pipeline. Frames going back in
// time and frames after the session completed are ignored and yield the
// previous output.
func (e *Engine) ProcessFrame(f *pose.Frame) Output {
	st := e.state
	if st.Session.Complete() || (st.SeenFrame && f.TimestampMs < st.LastTimestampMs) {
		out := st.Last
		out.SpokenMessage = ""
		return out
	}
	st.SeenFrame = true
	st.LastTimestampMs = f.TimestampMs

	side := f.DominantSide()
	joints := posture.JointsFromFrame(f, side, e.def.Posture.VisibilityThreshold)
	raw := posture.Classify(joints, e.def.Posture)
	view, expired := st.Latch.Update(raw, f.TimestampMs)
	if expired {
		log.Debugf("%s: view lost for more than %dms, resetting detector", e.def.Kind, e.def.GraceMs)
		st.Detector.Reset()
		st.Smoother.Reset()
		st.DepthProgress = 0
	}

	var (
		smoothed metric.Snapshot
		live     feedback.Result
		spoken   string
	)
	thresholdFn := calibration.ThresholdFunc(st.Calibration.Baseline(), e.cfg.Sensitivity)

	// an unclassifiable frame stalls the detector; the latched view only
	// keeps the last messages on screen
	if raw != posture.ViewNone {
		measured := e.def.Measure(f, side)
		smoothed = st.Smoother.Update(&measured, f.TimestampMs)
		if angle, ok := smoothed.Get(e.def.Primary); ok {
			st.DepthProgress = e.def.ThresholdsFor(view).DepthProgress(angle)
			smoothed.Set(metric.DepthProgress, st.DepthProgress)
		}

		ev := st.Detector.Update(repfsm.Input{
			TimestampMs: f.TimestampMs,
			View:        view,
			Metrics:     smoothed,
			HipsVisible: e.def.HipsVisible(f),
		})
		if ev.Kind == repfsm.EventRepCompleted {
			spoken = e.finishRep(ev.Record, view, thresholdFn)
		}

		live = e.rules.EvaluateLive(&smoothed, e.context(view), thresholdFn)
	}

	out := Output{
		RepCount:            st.RepCount,
		CleanRepCount:       st.Session.CleanReps(),
		OverallScorePercent: st.Session.OverallScore(),
		DepthProgress:       st.DepthProgress,
		RiskCategory:        feedback.RiskNone,
		View:                view,
		Phase:               st.Detector.Phase(),
		SpokenMessage:       spoken,
	}
	if st.LastRep != nil {
		out.LastRepScorePercent = st.LastRep.Score
		out.LastRepIssues = st.LastRep.Issues
	}

	switch {
	case view == posture.ViewNone:
		out.PrimaryFeedback = MessageGetInPosition
		out.DepthProgress = 0
	case spoken != "":
		// the completion frame always reports the rep
		out.PrimaryFeedback = st.LastRep.Primary
		out.SecondaryHint = st.LastRep.Secondary
		out.RiskCategory = st.LastRep.Risk
	case len(live.Matched) > 0:
		out.PrimaryFeedback = live.Primary
		out.SecondaryHint = live.Secondary
		out.RiskCategory = live.Risk
	case st.LastRep != nil:
		out.PrimaryFeedback = st.LastRep.Primary
		out.SecondaryHint = st.LastRep.Secondary
		out.RiskCategory = st.LastRep.Risk
	default:
		out.PrimaryFeedback = MessageReady
	}

	if summary, ok := st.Session.Summary(); ok {
		out.IsSessionComplete = true
		out.Summary = &summary
	}
	if e.cfg.Debug {
		out.DebugText = fmt.Sprintf("view=%s raw=%s side=%s phase=%s recording=%t %s",
			view, raw, side, out.Phase, st.Detector.Recording(), smoothed.String())
	}

	st.Last = out
	return out
}

func (e *Engine) finishRep(rec *repfsm.RepRecord, view posture.View, thresholdFn feedback.ThresholdFunc) string {
	st := e.state

	snap := rec.Snapshot()
	if !rec.HipsVisible {
		snap.Unset(metric.BackAngle)
		snap.Unset(metric.HipDropRatio)
		snap.Unset(metric.HipFlexion)
	}

	// the baseline in effect is the one frozen before this rep
	res := e.rules.Evaluate(&snap, e.context(view), thresholdFn)
	st.Calibration.Observe(&snap)

	st.RepCount++
	st.LastRep = &res

	issue := ""
	if len(res.Matched) > 0 {
		issue = res.Primary
	}
	complete := st.Session.AddRep(res.Score, res.Clean, issue)

	log.Debugf("%s: rep %d done in %.2fs, score %d, matched %d rules, [%s]",
		e.def.Kind, st.RepCount, rec.DurationSeconds(), res.Score, len(res.Matched), snap.String())

	spoken := fmt.Sprintf("Rep %d. ", st.RepCount)
	if len(res.Issues) == 0 {
		spoken += spokenCleanRep + "."
	} else {
		spoken += strings.TrimSuffix(res.Issues[0], ".") + "."
	}
	if complete {
		spoken += " Session complete."
	}
	return spoken
}
