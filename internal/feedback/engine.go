package feedback

import (
	"sort"

	"github.com/2beens/formcheck/internal/metric"
)

const (
	MaxScore        = 100
	CleanMessage    = "GOOD: Form is clean"
	secondaryPrefix = "Also: "
)

type Risk string

const (
	RiskNone     Risk = "none"
	RiskLow      Risk = "low"
	RiskModerate Risk = "moderate"
	RiskHigh     Risk = "high"
)

func riskOf(s Severity) Risk {
	switch s {
	case SeverityCritical:
		return RiskHigh
	case SeverityImportant:
		return RiskModerate
	case SeverityMinor:
		return RiskLow
	default:
		return RiskNone
	}
}

// ThresholdFunc resolves the threshold a rule is compared against.
type ThresholdFunc func(r Rule) float64

// StaticThreshold uses the configured threshold as is.
func StaticThreshold(r Rule) float64 {
	return r.Threshold
}

type Result struct {
	// Matched rules, most severe first, in configuration order within a
	// severity.
	Matched []Rule
	// Issues are the distinct messages of Matched, in the same order.
	Issues    []string
	Primary   string
	Secondary string
	Risk      Risk
	Score     int
	// Clean is true when no critical rule matched.
	Clean bool
}

type Engine struct {
	rules []Rule
}

func NewEngine(rules []Rule) *Engine {
	copied := make([]Rule, len(rules))
	copy(copied, rules)
	return &Engine{
		rules: copied,
	}
}

func (e *Engine) Rules() []Rule {
	copied := make([]Rule, len(e.rules))
	copy(copied, e.rules)
	return copied
}

// Evaluate checks every rule applying to ctx against the snapshot of a
// completed rep.
func (e *Engine) Evaluate(s *metric.Snapshot, ctx Context, threshold ThresholdFunc) Result {
	return e.evaluate(s, ctx, threshold, false)
}

// EvaluateLive checks only live rules, against a per-frame snapshot.
func (e *Engine) EvaluateLive(s *metric.Snapshot, ctx Context, threshold ThresholdFunc) Result {
	return e.evaluate(s, ctx, threshold, true)
}

func (e *Engine) evaluate(s *metric.Snapshot, ctx Context, threshold ThresholdFunc, liveOnly bool) Result {
	if threshold == nil {
		threshold = StaticThreshold
	}

	var matched []Rule
	for _, r := range e.rules {
		if liveOnly && !r.Live {
			continue
		}
		if !r.AppliesTo(ctx) {
			continue
		}
		value, ok := s.Get(r.Metric)
		if !ok {
			continue
		}
		if r.Holds(value, threshold(r)) {
			matched = append(matched, r)
		}
	}

	return summarize(matched)
}

func summarize(matched []Rule) Result {
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Severity > matched[j].Severity
	})

	res := Result{
		Matched: matched,
		Risk:    RiskNone,
		Score:   MaxScore,
		Clean:   true,
	}

	seen := make(map[string]bool, len(matched))
	var top []Rule
	for _, r := range matched {
		res.Score -= r.Severity.Penalty()
		if r.Severity == SeverityCritical {
			res.Clean = false
		}
		if seen[r.Message] {
			continue
		}
		seen[r.Message] = true
		res.Issues = append(res.Issues, r.Message)
		top = append(top, r)
	}
	if res.Score < 0 {
		res.Score = 0
	}

	if len(top) == 0 {
		res.Primary = CleanMessage
		return res
	}

	res.Risk = riskOf(top[0].Severity)
	res.Primary = top[0].Severity.Label() + ": " + top[0].Message
	if len(top) > 1 {
		res.Secondary = secondaryPrefix + top[1].Message
	}
	return res
}
