package calibration_test

import (
	"testing"

	"github.com/2beens/formcheck/internal/calibration"
	"github.com/2beens/formcheck/internal/feedback"
	"github.com/2beens/formcheck/internal/metric"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func repSnapshot(elbow, hipDrop, depth, backAngle float64) *metric.Snapshot {
	var s metric.Snapshot
	s.Set(metric.ElbowFlexion, elbow)
	s.Set(metric.HipDropRatio, hipDrop)
	s.Set(metric.DepthProgress, depth)
	s.Set(metric.BackAngle, backAngle)
	return &s
}

func TestTracker_LearnsExtremaByBadness(t *testing.T) {
	tr := calibration.NewTracker(3)

	tr.Observe(repSnapshot(95, 0.05, 0.9, 170))
	tr.Observe(repSnapshot(88, 0.12, 0.8, 160))
	require.False(t, tr.Baseline().IsSet())
	assert.Equal(t, 1, tr.Remaining())

	tr.Observe(repSnapshot(92, 0.08, 0.95, 150))
	b, ok := tr.Baseline().Get()
	require.True(t, ok)
	assert.Zero(t, tr.Remaining())

	v, ok := b.Get(metric.HipDropRatio)
	require.True(t, ok)
	assert.Equal(t, 0.12, v)

	v, ok = b.Get(metric.DepthProgress)
	require.True(t, ok)
	assert.Equal(t, 0.8, v)

	// the primary angle keeps the deepest rep
	v, ok = b.Get(metric.ElbowFlexion)
	require.True(t, ok)
	assert.Equal(t, 88.0, v)

	// back angle is not a calibrated metric
	_, ok = b.Get(metric.BackAngle)
	assert.False(t, ok)
}

func TestTracker_FreezesAfterK(t *testing.T) {
	const k = 3
	faker := gofakeit.New(7)
	tr := calibration.NewTracker(k)

	var atK calibration.Baseline
	for i := 1; i <= k+5; i++ {
		tr.Observe(repSnapshot(
			faker.Float64Range(60, 120),
			faker.Float64Range(0, 0.5),
			faker.Float64Range(0.3, 1),
			faker.Float64Range(120, 180),
		))
		if i == k {
			b, ok := tr.Baseline().Get()
			require.True(t, ok)
			atK = b
		}
	}

	b, ok := tr.Baseline().Get()
	require.True(t, ok)
	assert.Equal(t, atK, b)
	assert.Equal(t, k, tr.Observed())
}

func TestTracker_DefaultReps(t *testing.T) {
	tr := calibration.NewTracker(0)
	for i := 0; i < calibration.DefaultReps-1; i++ {
		tr.Observe(repSnapshot(90, 0.1, 0.9, 170))
	}
	assert.False(t, tr.Baseline().IsSet())
	tr.Observe(repSnapshot(90, 0.1, 0.9, 170))
	assert.True(t, tr.Baseline().IsSet())
}

func frozenBaseline(t *testing.T, hipDrop, depth float64) calibration.OptionalBaseline {
	t.Helper()
	tr := calibration.NewTracker(1)
	tr.Observe(repSnapshot(90, hipDrop, depth, 170))
	require.True(t, tr.Baseline().IsSet())
	return tr.Baseline()
}

func TestEffectiveThreshold(t *testing.T) {
	hipDrop := feedback.Rule{
		ID: "hipDrop", Severity: feedback.SeverityImportant,
		Metric: metric.HipDropRatio, Comparator: feedback.GreaterThan, Threshold: 0.2,
	}
	shallow := feedback.Rule{
		ID: "shallow", Severity: feedback.SeverityImportant,
		Metric: metric.DepthProgress, Comparator: feedback.LessThan, Threshold: 0.7,
	}
	hipSag := feedback.Rule{
		ID: "hipSag", Severity: feedback.SeverityCritical,
		Metric: metric.BackAngle, Comparator: feedback.LessThan, Threshold: 150,
	}

	normal := calibration.SensitivityNormal

	// no baseline yet
	assert.Equal(t, 0.2, calibration.EffectiveThreshold(hipDrop, calibration.None(), normal))
	assert.Equal(t, 0.7, calibration.EffectiveThreshold(shallow, calibration.None(), normal))

	// a large baseline raises a higher-is-worse threshold
	b := frozenBaseline(t, 0.25, 0.6)
	assert.InDelta(t, 0.25*1.30, calibration.EffectiveThreshold(hipDrop, b, normal), 1e-9)
	// a small one never tightens it
	assert.Equal(t, 0.2, calibration.EffectiveThreshold(hipDrop, frozenBaseline(t, 0.05, 0.9), normal))

	// depth progress: baseline minus margin, lenient only
	assert.InDelta(t, 0.55, calibration.EffectiveThreshold(shallow, b, normal), 1e-9)
	assert.Equal(t, 0.7, calibration.EffectiveThreshold(shallow, frozenBaseline(t, 0.05, 0.95), normal))
	assert.Equal(t, 0.0, calibration.EffectiveThreshold(shallow, frozenBaseline(t, 0.05, 0.02), normal))

	// uncalibrated metrics keep their static threshold
	assert.Equal(t, 150.0, calibration.EffectiveThreshold(hipSag, b, normal))
}

func TestEffectiveThreshold_SensitivityOrder(t *testing.T) {
	rule := feedback.Rule{
		Severity: feedback.SeverityMinor, Metric: metric.HipDropRatio,
		Comparator: feedback.GreaterThan, Threshold: 0.01,
	}
	b := frozenBaseline(t, 0.2, 0.9)

	strict := calibration.EffectiveThreshold(rule, b, calibration.SensitivityStrict)
	normal := calibration.EffectiveThreshold(rule, b, calibration.SensitivityNormal)
	relaxed := calibration.EffectiveThreshold(rule, b, calibration.SensitivityRelaxed)
	assert.Less(t, strict, normal)
	assert.Less(t, normal, relaxed)

	for _, s := range []calibration.Sensitivity{calibration.SensitivityStrict, calibration.SensitivityNormal, calibration.SensitivityRelaxed} {
		crit := calibration.Multiplier(feedback.SeverityCritical, s)
		imp := calibration.Multiplier(feedback.SeverityImportant, s)
		minor := calibration.Multiplier(feedback.SeverityMinor, s)
		assert.Less(t, crit, imp, s)
		assert.Less(t, imp, minor, s)
	}
}

func TestThresholdFunc(t *testing.T) {
	rule := feedback.Rule{
		Severity: feedback.SeverityCritical, Metric: metric.HipDropRatio,
		Comparator: feedback.GreaterThan, Threshold: 0.1,
	}
	fn := calibration.ThresholdFunc(frozenBaseline(t, 0.5, 0.9), calibration.SensitivityStrict)
	assert.InDelta(t, 0.55, fn(rule), 1e-9)
}

func TestParseSensitivity(t *testing.T) {
	s, err := calibration.ParseSensitivity("Strict")
	require.NoError(t, err)
	assert.Equal(t, calibration.SensitivityStrict, s)

	s, err = calibration.ParseSensitivity("")
	require.NoError(t, err)
	assert.Equal(t, calibration.SensitivityNormal, s)

	_, err = calibration.ParseSensitivity("brutal")
	assert.Error(t, err)
}
