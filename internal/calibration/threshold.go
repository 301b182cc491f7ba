package calibration

import (
	"fmt"
	"math"
	"strings"

	"github.com/2beens/formcheck/internal/feedback"
	"github.com/2beens/formcheck/internal/metric"
)

// Sensitivity is the user's strictness preference. Stricter settings
// use smaller multipliers, so calibrated rules trigger earlier.
type Sensitivity string

const (
	SensitivityStrict  Sensitivity = "strict"
	SensitivityNormal  Sensitivity = "normal"
	SensitivityRelaxed Sensitivity = "relaxed"
)

func ParseSensitivity(s string) (Sensitivity, error) {
	switch Sensitivity(strings.ToLower(strings.TrimSpace(s))) {
	case SensitivityStrict:
		return SensitivityStrict, nil
	case SensitivityNormal, "":
		return SensitivityNormal, nil
	case SensitivityRelaxed:
		return SensitivityRelaxed, nil
	default:
		return "", fmt.Errorf("unknown sensitivity: %s", s)
	}
}

var multipliers = map[Sensitivity]map[feedback.Severity]float64{
	SensitivityStrict: {
		feedback.SeverityCritical:  1.10,
		feedback.SeverityImportant: 1.15,
		feedback.SeverityMinor:     1.20,
	},
	SensitivityNormal: {
		feedback.SeverityCritical:  1.20,
		feedback.SeverityImportant: 1.30,
		feedback.SeverityMinor:     1.40,
	},
	SensitivityRelaxed: {
		feedback.SeverityCritical:  1.35,
		feedback.SeverityImportant: 1.50,
		feedback.SeverityMinor:     1.70,
	},
}

var depthMargins = map[Sensitivity]float64{
	SensitivityStrict:  0.03,
	SensitivityNormal:  0.05,
	SensitivityRelaxed: 0.10,
}

// Multiplier scales a higher-is-worse baseline into a threshold. Unknown
// sensitivities resolve as normal.
func Multiplier(severity feedback.Severity, s Sensitivity) float64 {
	bySeverity, ok := multipliers[s]
	if !ok {
		bySeverity = multipliers[SensitivityNormal]
	}
	if m, ok := bySeverity[severity]; ok {
		return m
	}
	return bySeverity[feedback.SeverityMinor]
}

// DepthMargin is subtracted from a depth progress baseline.
func DepthMargin(s Sensitivity) float64 {
	if m, ok := depthMargins[s]; ok {
		return m
	}
	return depthMargins[SensitivityNormal]
}

// EffectiveThreshold is the threshold a rule is evaluated against given an
// optional calibration baseline. Without a baseline, or for a metric the
// baseline has no value for, the static threshold is used. Calibration only
// ever relaxes a rule:
//   - higher-is-worse metrics compared with greaterThan use
//     max(static, baseline * multiplier)
//   - depth progress compared with lessThan uses min(static, baseline - margin)
//   - every other rule keeps its static threshold
func EffectiveThreshold(rule feedback.Rule, baseline OptionalBaseline, s Sensitivity) float64 {
	b, ok := baseline.Get()
	if !ok {
		return rule.Threshold
	}
	v, ok := b.Get(rule.Metric)
	if !ok {
		return rule.Threshold
	}

	switch {
	case rule.Metric == metric.DepthProgress && rule.Comparator == feedback.LessThan:
		return math.Min(rule.Threshold, clamp01(v-DepthMargin(s)))
	case rule.Metric.Descriptor().Badness == metric.HigherIsWorse && rule.Comparator == feedback.GreaterThan:
		return math.Max(rule.Threshold, v*Multiplier(rule.Severity, s))
	default:
		return rule.Threshold
	}
}

// ThresholdFunc binds EffectiveThreshold to a baseline and sensitivity.
func ThresholdFunc(baseline OptionalBaseline, s Sensitivity) feedback.ThresholdFunc {
	return func(r feedback.Rule) float64 {
		return EffectiveThreshold(r, baseline, s)
	}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
