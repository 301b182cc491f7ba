package engine_test

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2beens/formcheck/internal/engine"
	"github.com/2beens/formcheck/internal/exercise"
	"github.com/2beens/formcheck/internal/feedback"
	"github.com/2beens/formcheck/internal/pose"
	"github.com/2beens/formcheck/internal/posture"
	"github.com/2beens/formcheck/internal/repfsm"
	"github.com/2beens/formcheck/internal/testinternals"
)

var shippedConfigs = filepath.Join("..", "..", "configs", "exercises")

func newShippedEngine(t *testing.T, kind exercise.Kind) *engine.Engine {
	t.Helper()
	def, err := exercise.Load(shippedConfigs, kind)
	require.NoError(t, err)
	require.NoError(t, def.Warnings)
	e, err := engine.New(def, engine.SessionConfig{Exercise: kind})
	require.NoError(t, err)
	return e
}

func phases(outputs []engine.Output) map[string]bool {
	seen := map[string]bool{}
	for _, o := range outputs {
		seen[o.Phase] = true
	}
	return seen
}

func TestProcessFrame_Squat(t *testing.T) {
	e := newShippedEngine(t, exercise.KindSquat)

	outputs := runAll(e, testinternals.SquatSession(3))
	assert.Equal(t, posture.ViewSide, outputs[0].View)
	assert.Equal(t, engine.MessageReady, outputs[0].PrimaryFeedback)

	last := outputs[len(outputs)-1]
	assert.Equal(t, 3, last.RepCount)
	assert.Equal(t, 3, last.CleanRepCount)
	assert.Equal(t, 100, last.LastRepScorePercent)
	assert.Equal(t, 100, last.OverallScorePercent)
	assert.Equal(t, feedback.CleanMessage, last.PrimaryFeedback)
	assert.Equal(t, feedback.RiskNone, last.RiskCategory)
	assert.Equal(t, "start", last.Phase)
	assert.True(t, phases(outputs)["bottom"])

	assert.Equal(t, []string{"Rep 1. Good form.", "Rep 2. Good form.", "Rep 3. Good form."}, spoken(outputs))

	maxDepth := 0.0
	for _, o := range outputs {
		maxDepth = math.Max(maxDepth, o.DepthProgress)
	}
	assert.Greater(t, maxDepth, 0.9)
}

func TestProcessFrame_SquatHalfRepNotCounted(t *testing.T) {
	e := newShippedEngine(t, exercise.KindSquat)

	spans := []testinternals.SquatSpan{testinternals.HoldPose(0.5, testinternals.SquatTop)}
	spans = append(spans, testinternals.CleanSquat()...)
	spans = append(spans, testinternals.HalfSquat()...)
	spans = append(spans, testinternals.CleanSquat()...)

	outputs := runAll(e, testinternals.SquatFrames(0.9, spans...))
	assert.Equal(t, 2, outputs[len(outputs)-1].RepCount)
	assert.Len(t, spoken(outputs), 2)
}

func TestProcessFrame_SquatAngleFollowsKnee(t *testing.T) {
	cfg, err := exercise.Default(exercise.KindSquat)
	require.NoError(t, err)
	cfg.FSM = &repfsm.FSMConfig{
		States: []repfsm.StateConfig{
			{Name: "start", Condition: "angle > 160"},
			{Name: "bottom", Condition: "angle < 100 && velocity <= 0"},
		},
		CounterFrom:      "bottom",
		CounterTo:        "start",
		MinRepDurationMs: 400,
	}
	def, err := exercise.Resolve(exercise.KindSquat, cfg)
	require.NoError(t, err)
	require.NoError(t, def.Warnings)
	require.NotNil(t, def.FSM)

	e, err := engine.New(def, engine.SessionConfig{Exercise: exercise.KindSquat})
	require.NoError(t, err)

	// the arms hang straight the whole time, only the knees bend
	outputs := runAll(e, testinternals.SquatSession(3))
	last := outputs[len(outputs)-1]
	assert.Equal(t, 3, last.RepCount)
	assert.Equal(t, "start", last.Phase)
	assert.True(t, phases(outputs)["bottom"])
}

func TestProcessFrame_PullUp(t *testing.T) {
	e := newShippedEngine(t, exercise.KindPullUp)

	hang := testinternals.PullUpHang(testinternals.HeadClear)
	spans := []testinternals.PullUpSpan{testinternals.HoldPose(0.5, hang)}
	spans = append(spans, testinternals.PullUpRep(testinternals.HeadClear)...)
	spans = append(spans, testinternals.PullUpRep(testinternals.HeadLow)...)

	var (
		outputs []engine.Output
		byRep   = map[int]engine.Output{}
	)
	for _, f := range testinternals.PullUpFrames(0.9, spans...) {
		o := e.ProcessFrame(f)
		outputs = append(outputs, o)
		if o.SpokenMessage != "" {
			byRep[o.RepCount] = o
		}
	}
	assert.Equal(t, posture.ViewSide, outputs[0].View)

	require.Len(t, byRep, 2)

	clean := byRep[1]
	assert.Equal(t, 100, clean.LastRepScorePercent)
	assert.Equal(t, feedback.CleanMessage, clean.PrimaryFeedback)
	assert.Equal(t, feedback.RiskNone, clean.RiskCategory)
	assert.Equal(t, 1, clean.CleanRepCount)
	assert.Equal(t, "Rep 1. Good form.", clean.SpokenMessage)

	noChin := byRep[2]
	assert.Equal(t, 65, noChin.LastRepScorePercent)
	assert.Equal(t, "CRITICAL: Pull until your chin clears the bar", noChin.PrimaryFeedback)
	assert.Equal(t, feedback.RiskHigh, noChin.RiskCategory)
	assert.Equal(t, []string{"Pull until your chin clears the bar"}, noChin.LastRepIssues)
	assert.Equal(t, 1, noChin.CleanRepCount)

	last := outputs[len(outputs)-1]
	assert.Equal(t, 2, last.RepCount)
	assert.Equal(t, "CRITICAL: Pull until your chin clears the bar", last.PrimaryFeedback)
}

// interruptedPushUp loses sight of the body for gapMs right after the bottom
// of a push-up. lostAt is the last frame seen before the gap.
func interruptedPushUp(gapMs int64) (fs []*pose.Frame, lostAt int) {
	for i, p := range poses(hold(0.5, top), move(0.6, top, bottom)) {
		fs = append(fs, pushUpFrame(timestamp(i), p, 0.9))
	}
	lostAt = len(fs) - 1
	lost := fs[lostAt].TimestampMs

	for ts := lost + 100; ts < lost+gapMs; ts += 100 {
		fs = append(fs, pushUpFrame(ts, bottom, 0.1))
	}
	for i, p := range poses(hold(0.1, bottom), move(0.6, bottom, top), hold(0.5, top)) {
		fs = append(fs, pushUpFrame(lost+gapMs+timestamp(i), p, 0.9))
	}
	return fs, lostAt
}

func TestProcessFrame_LatchExpiryDropsRepInProgress(t *testing.T) {
	for _, tc := range []struct {
		name  string
		gapMs int64
		reps  int
	}{
		{name: "past grace", gapMs: 1200, reps: 0},
		{name: "within grace", gapMs: 300, reps: 1},
	} {
		t.Run(tc.name, func(t *testing.T) {
			e := newPushUpEngine(t, engine.SessionConfig{})

			fs, lostAt := interruptedPushUp(tc.gapMs)
			outputs := runAll(e, fs)
			require.Equal(t, "down", outputs[lostAt].Phase)

			assert.Equal(t, tc.reps, outputs[len(outputs)-1].RepCount)
			assert.Len(t, spoken(outputs), tc.reps)
		})
	}
}
