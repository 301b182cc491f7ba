package engine_test

import (
	"math"
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2beens/formcheck/internal/calibration"
	"github.com/2beens/formcheck/internal/engine"
	"github.com/2beens/formcheck/internal/exercise"
	"github.com/2beens/formcheck/internal/feedback"
	"github.com/2beens/formcheck/internal/metric"
	"github.com/2beens/formcheck/internal/pose"
	"github.com/2beens/formcheck/internal/posture"
	"github.com/2beens/formcheck/internal/testinternals"
)

type pushUpPose = testinternals.PushUpPose

type segment = testinternals.Segment

var (
	hold        = testinternals.Hold
	move        = testinternals.Move
	cleanRep    = testinternals.CleanPushUp
	poses       = testinternals.Poses
	timestamp   = testinternals.Timestamp
	pushUpFrame = testinternals.PushUpFrame
	frames      = testinternals.PushUpFrames
	session     = testinternals.PushUpSession

	top    = testinternals.PushUpTop
	bottom = testinternals.PushUpBottom
)

func newPushUpEngine(t *testing.T, cfg engine.SessionConfig) *engine.Engine {
	t.Helper()
	def, err := exercise.Load("", exercise.KindPushUp)
	require.NoError(t, err)
	e, err := engine.New(def, cfg)
	require.NoError(t, err)
	return e
}

func runAll(e *engine.Engine, fs []*pose.Frame) []engine.Output {
	out := make([]engine.Output, 0, len(fs))
	for _, f := range fs {
		out = append(out, e.ProcessFrame(f))
	}
	return out
}

func spoken(outputs []engine.Output) []string {
	var msgs []string
	for _, o := range outputs {
		if o.SpokenMessage != "" {
			msgs = append(msgs, o.SpokenMessage)
		}
	}
	return msgs
}

func TestNew(t *testing.T) {
	def, err := exercise.Load("", exercise.KindPushUp)
	require.NoError(t, err)

	_, err = engine.New(nil, engine.SessionConfig{})
	assert.Error(t, err)
	_, err = engine.New(def, engine.SessionConfig{TargetReps: -1})
	assert.Error(t, err)
	_, err = engine.New(def, engine.SessionConfig{Sensitivity: "paranoid"})
	assert.Error(t, err)

	e, err := engine.New(def, engine.SessionConfig{Exercise: exercise.KindSquat})
	require.NoError(t, err)
	cfg := e.Config()
	assert.Equal(t, exercise.KindPushUp, cfg.Exercise)
	assert.Equal(t, calibration.SensitivityNormal, cfg.Sensitivity)
	assert.Equal(t, feedback.FocusAll, cfg.Focus)
	assert.False(t, e.Baseline().IsSet())
}

func TestProcessFrame_CleanRep(t *testing.T) {
	e := newPushUpEngine(t, engine.SessionConfig{})

	outputs := runAll(e, session(1))
	first := outputs[0]
	assert.Equal(t, posture.ViewSide, first.View)
	assert.Equal(t, engine.MessageReady, first.PrimaryFeedback)
	assert.Equal(t, 0, first.OverallScorePercent)

	last := outputs[len(outputs)-1]
	assert.Equal(t, 1, last.RepCount)
	assert.Equal(t, 1, last.CleanRepCount)
	assert.Equal(t, 100, last.LastRepScorePercent)
	assert.Equal(t, 100, last.OverallScorePercent)
	assert.Empty(t, last.LastRepIssues)
	assert.Equal(t, feedback.CleanMessage, last.PrimaryFeedback)
	assert.Equal(t, feedback.RiskNone, last.RiskCategory)
	assert.False(t, last.IsSessionComplete)
	assert.Nil(t, last.Summary)

	assert.Equal(t, []string{"Rep 1. Good form."}, spoken(outputs))

	maxDepth := 0.0
	for _, o := range outputs {
		assert.GreaterOrEqual(t, o.DepthProgress, 0.0)
		assert.LessOrEqual(t, o.DepthProgress, 1.0)
		maxDepth = math.Max(maxDepth, o.DepthProgress)
	}
	assert.Greater(t, maxDepth, 0.8)
}

func TestProcessFrame_HipSag(t *testing.T) {
	e := newPushUpEngine(t, engine.SessionConfig{})

	sagging := pushUpPose{Elbow: 95, Back: 140}
	outputs := runAll(e, frames(0.9,
		hold(0.5, top),
		move(0.6, top, sagging),
		hold(0.1, sagging),
		move(0.6, sagging, top),
		hold(0.5, top),
	))

	last := outputs[len(outputs)-1]
	require.Equal(t, 1, last.RepCount)
	assert.Equal(t, 0, last.CleanRepCount)
	assert.LessOrEqual(t, last.LastRepScorePercent, 65)
	assert.True(t, strings.HasPrefix(last.PrimaryFeedback, "CRITICAL: "), last.PrimaryFeedback)
	assert.Equal(t, feedback.RiskHigh, last.RiskCategory)
	assert.Contains(t, last.LastRepIssues, "Hips sagging, tighten your core")

	msgs := spoken(outputs)
	require.Len(t, msgs, 1)
	assert.Equal(t, "Rep 1. Hips sagging, tighten your core.", msgs[0])
}

func TestProcessFrame_HiddenHipsSkipHipRules(t *testing.T) {
	e := newPushUpEngine(t, engine.SessionConfig{})

	sagging := pushUpPose{Elbow: 95, Back: 140}
	fs := frames(0.9,
		hold(0.5, top),
		move(0.6, top, sagging),
		hold(0.1, sagging),
		move(0.6, sagging, top),
		hold(0.5, top),
	)
	for _, f := range fs {
		f.Landmarks[pose.RightHip].Visibility = 0.2
	}

	last := runAll(e, fs)[len(fs)-1]
	require.Equal(t, 1, last.RepCount)
	assert.Equal(t, 100, last.LastRepScorePercent)
	assert.Equal(t, feedback.CleanMessage, last.PrimaryFeedback)
}

func TestProcessFrame_TooFast(t *testing.T) {
	e := newPushUpEngine(t, engine.SessionConfig{})

	deep := pushUpPose{Elbow: 60, Back: 178}
	outputs := runAll(e, frames(0.9,
		hold(0.5, top),
		move(0.1, top, deep),
		hold(0.1, deep),
		move(0.1, deep, top),
		hold(0.5, top),
	))

	last := outputs[len(outputs)-1]
	require.Equal(t, 1, last.RepCount)
	assert.Contains(t, last.LastRepIssues, "Slow down, control the descent")
	assert.Equal(t, 85, last.LastRepScorePercent)
	// not critical, so still a clean rep
	assert.Equal(t, 1, last.CleanRepCount)
	assert.Equal(t, feedback.RiskModerate, last.RiskCategory)
}

func TestProcessFrame_LowVisibility(t *testing.T) {
	e := newPushUpEngine(t, engine.SessionConfig{})

	fs := frames(0.3, append([]segment{hold(0.5, top)}, cleanRep()...)...)
	for _, o := range runAll(e, fs) {
		assert.Equal(t, 0, o.RepCount)
		assert.Equal(t, posture.ViewNone, o.View)
		assert.Equal(t, engine.MessageGetInPosition, o.PrimaryFeedback)
		assert.Zero(t, o.DepthProgress)
	}
}

func TestProcessFrame_LostViewKeepsLatchedMessages(t *testing.T) {
	e := newPushUpEngine(t, engine.SessionConfig{})

	fs := session(1)
	outputs := runAll(e, fs)
	require.Equal(t, 1, outputs[len(outputs)-1].RepCount)

	ts := fs[len(fs)-1].TimestampMs
	// within the grace window the view is latched
	o := e.ProcessFrame(pushUpFrame(ts+100, top, 0.2))
	assert.Equal(t, posture.ViewSide, o.View)
	assert.Equal(t, feedback.CleanMessage, o.PrimaryFeedback)

	o = e.ProcessFrame(pushUpFrame(ts+100+posture.DefaultGraceMs+1, top, 0.2))
	assert.Equal(t, posture.ViewNone, o.View)
	assert.Equal(t, engine.MessageGetInPosition, o.PrimaryFeedback)
	assert.Equal(t, 1, o.RepCount)
}

func TestProcessFrame_DropsFramesGoingBack(t *testing.T) {
	e := newPushUpEngine(t, engine.SessionConfig{})

	fs := session(1)
	outputs := runAll(e, fs)
	prev := outputs[len(outputs)-1]

	o := e.ProcessFrame(pushUpFrame(fs[10].TimestampMs, bottom, 0.9))
	assert.Equal(t, prev, o)
}

func TestProcessFrame_SessionCompletes(t *testing.T) {
	e := newPushUpEngine(t, engine.SessionConfig{TargetReps: 2})

	outputs := runAll(e, session(3))
	msgs := spoken(outputs)
	require.Len(t, msgs, 2)
	assert.Equal(t, "Rep 1. Good form.", msgs[0])
	assert.Equal(t, "Rep 2. Good form. Session complete.", msgs[1])

	last := outputs[len(outputs)-1]
	assert.Equal(t, 2, last.RepCount)
	assert.True(t, last.IsSessionComplete)
	require.NotNil(t, last.Summary)
	assert.Equal(t, 2, last.Summary.TotalReps)
	assert.Equal(t, 2, last.Summary.CleanReps)
	assert.Equal(t, 100, last.Summary.AverageScore)
	assert.Empty(t, last.Summary.MostFrequentIssue)

	summary, done := e.Summary()
	assert.True(t, done)
	assert.Equal(t, *last.Summary, summary)
}

func TestProcessFrame_CalibrationFreezes(t *testing.T) {
	e := newPushUpEngine(t, engine.SessionConfig{})

	var frozen calibration.OptionalBaseline
	for _, f := range session(calibration.DefaultReps + 5) {
		o := e.ProcessFrame(f)
		switch {
		case o.RepCount < calibration.DefaultReps:
			assert.False(t, e.Baseline().IsSet())
		case o.RepCount == calibration.DefaultReps && !frozen.IsSet():
			frozen = e.Baseline()
			require.True(t, frozen.IsSet())
		}
	}

	assert.Equal(t, calibration.DefaultReps+5, e.State().RepCount)
	assert.Equal(t, frozen, e.Baseline())

	b, ok := frozen.Get()
	require.True(t, ok)
	elbow, ok := b.Get(metric.ElbowFlexion)
	require.True(t, ok)
	assert.InDelta(t, 99, elbow, 2)
}

func TestReset(t *testing.T) {
	e := newPushUpEngine(t, engine.SessionConfig{TargetReps: 2, Debug: true})

	fs := session(2)
	first := runAll(e, fs)
	require.True(t, first[len(first)-1].IsSessionComplete)

	require.NoError(t, e.Reset())
	assert.False(t, e.Baseline().IsSet())
	assert.Zero(t, e.State().RepCount)

	second := runAll(e, fs)
	require.Equal(t, first, second)
}

func TestProcessFrame_Bounds(t *testing.T) {
	faker := gofakeit.New(42)
	e := newPushUpEngine(t, engine.SessionConfig{Sensitivity: calibration.SensitivityStrict})

	segments := []segment{hold(0.5, top)}
	for i := 0; i < 3; i++ {
		segments = append(segments, cleanRep()...)
	}
	ps := poses(segments...)
	prevReps := 0
	for i, p := range ps {
		p.Elbow += faker.Float64Range(-4, 4)
		p.Back += faker.Float64Range(-3, 3)
		visibility := 0.9
		if faker.Float64Range(0, 1) < 0.05 {
			visibility = 0.1
		}

		o := e.ProcessFrame(pushUpFrame(timestamp(i), p, visibility))
		assert.GreaterOrEqual(t, o.RepCount, prevReps)
		assert.LessOrEqual(t, o.CleanRepCount, o.RepCount)
		assert.GreaterOrEqual(t, o.OverallScorePercent, 0)
		assert.LessOrEqual(t, o.OverallScorePercent, feedback.MaxScore)
		assert.GreaterOrEqual(t, o.LastRepScorePercent, 0)
		assert.LessOrEqual(t, o.LastRepScorePercent, feedback.MaxScore)
		assert.GreaterOrEqual(t, o.DepthProgress, 0.0)
		assert.LessOrEqual(t, o.DepthProgress, 1.0)
		assert.NotEmpty(t, o.PrimaryFeedback)
		prevReps = o.RepCount
	}
}

func TestProcessFrame_DebugText(t *testing.T) {
	e := newPushUpEngine(t, engine.SessionConfig{Debug: true})
	o := e.ProcessFrame(pushUpFrame(0, top, 0.9))
	assert.Contains(t, o.DebugText, "view=side")
	assert.Contains(t, o.DebugText, "elbowFlexion=")

	quiet := newPushUpEngine(t, engine.SessionConfig{})
	assert.Empty(t, quiet.ProcessFrame(pushUpFrame(0, top, 0.9)).DebugText)
}
