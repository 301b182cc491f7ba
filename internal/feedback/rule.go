package feedback

import (
	"errors"
	"fmt"
	"strings"

	"github.com/2beens/formcheck/internal/metric"
	"github.com/2beens/formcheck/internal/posture"
)

var (
	ErrUnknownSeverity   = errors.New("unknown severity")
	ErrUnknownComparator = errors.New("unknown comparator")
	ErrUnknownMetric     = errors.New("unknown metric")
)

// Severity orders rules; a higher value ranks first.
type Severity int

const (
	SeverityMinor Severity = iota + 1
	SeverityImportant
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityMinor:
		return "minor"
	case SeverityImportant:
		return "important"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Label prefixes the primary message.
func (s Severity) Label() string {
	return strings.ToUpper(s.String())
}

// Penalty is the score deduction of one matched rule.
func (s Severity) Penalty() int {
	switch s {
	case SeverityCritical:
		return 35
	case SeverityImportant:
		return 15
	case SeverityMinor:
		return 5
	default:
		return 0
	}
}

func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "minor":
		return SeverityMinor, nil
	case "important":
		return SeverityImportant, nil
	case "critical":
		return SeverityCritical, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownSeverity, s)
	}
}

type Comparator int

const (
	GreaterThan Comparator = iota
	LessThan
)

func (c Comparator) String() string {
	if c == LessThan {
		return "lessThan"
	}
	return "greaterThan"
}

func ParseComparator(s string) (Comparator, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "greaterthan", ">":
		return GreaterThan, nil
	case "lessthan", "<":
		return LessThan, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownComparator, s)
	}
}

// Rule is one feedback check. Tags are "key:value" pairs limiting the
// contexts the rule applies in. Live rules are also checked every frame.
type Rule struct {
	ID         string
	Severity   Severity
	Message    string
	Metric     metric.ID
	Comparator Comparator
	Threshold  float64
	Tags       []string
	Live       bool
}

// Holds compares value against threshold. Strict comparisons only, so a
// value sitting on the threshold passes.
func (r Rule) Holds(value, threshold float64) bool {
	if r.Comparator == LessThan {
		return value < threshold
	}
	return value > threshold
}

type Orientation string

const (
	OrientationLandscape Orientation = "landscape"
	OrientationPortrait  Orientation = "portrait"
)

// FocusAll accepts rules of every focus.
const FocusAll = "all"

// Context is what rule tags are matched against.
type Context struct {
	View        posture.View
	Exercise    string
	Orientation Orientation
	Focus       string
}

func (c Context) value(key string) (string, bool) {
	switch key {
	case "view":
		return string(c.View), true
	case "exercise":
		return c.Exercise, true
	case "orientation":
		return string(c.Orientation), true
	case "focus":
		return c.Focus, true
	default:
		return "", false
	}
}

// AppliesTo reports whether, for every tag key the rule names, the context
// value is one of the listed values. Tags with unknown keys are ignored.
func (r Rule) AppliesTo(ctx Context) bool {
	if len(r.Tags) == 0 {
		return true
	}

	allowed := make(map[string][]string, len(r.Tags))
	for _, tag := range r.Tags {
		key, value, ok := strings.Cut(tag, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		allowed[key] = append(allowed[key], strings.ToLower(strings.TrimSpace(value)))
	}

	for key, values := range allowed {
		current, known := ctx.value(key)
		if !known {
			continue
		}
		if key == "focus" && (current == "" || strings.EqualFold(current, FocusAll)) {
			continue
		}
		if !contains(values, strings.ToLower(current)) {
			return false
		}
	}
	return true
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

// RuleConfig is the configuration form of a Rule.
type RuleConfig struct {
	ID         string   `json:"id"`
	Severity   string   `json:"severity"`
	Message    string   `json:"message"`
	Metric     string   `json:"metric"`
	Comparator string   `json:"comparator"`
	Threshold  float64  `json:"threshold"`
	Tags       []string `json:"tags,omitempty"`
	Live       bool     `json:"live,omitempty"`
}

// Build turns the config into a Rule. A metric name that does not resolve
// yields a rule on metric.Unknown, which never matches, along with
// ErrUnknownMetric. Any other error leaves the rule unusable. The metric name
// "angle" resolves to primary.
func (rc RuleConfig) Build(primary metric.ID) (Rule, error) {
	if strings.TrimSpace(rc.ID) == "" {
		return Rule{}, errors.New("rule without id")
	}
	if strings.TrimSpace(rc.Message) == "" {
		return Rule{}, fmt.Errorf("rule %s: empty message", rc.ID)
	}

	severity, err := ParseSeverity(rc.Severity)
	if err != nil {
		return Rule{}, fmt.Errorf("rule %s: %w", rc.ID, err)
	}
	comparator, err := ParseComparator(rc.Comparator)
	if err != nil {
		return Rule{}, fmt.Errorf("rule %s: %w", rc.ID, err)
	}

	r := Rule{
		ID:         rc.ID,
		Severity:   severity,
		Message:    rc.Message,
		Comparator: comparator,
		Threshold:  rc.Threshold,
		Tags:       rc.Tags,
		Live:       rc.Live,
	}

	id, ok := metric.ParseWithPrimary(rc.Metric, primary)
	r.Metric = id
	if !ok {
		return r, fmt.Errorf("rule %s: %w: %q", rc.ID, ErrUnknownMetric, rc.Metric)
	}
	return r, nil
}

// Config is the inverse of Build.
func (r Rule) Config() RuleConfig {
	return RuleConfig{
		ID:         r.ID,
		Severity:   r.Severity.String(),
		Message:    r.Message,
		Metric:     r.Metric.String(),
		Comparator: r.Comparator.String(),
		Threshold:  r.Threshold,
		Tags:       r.Tags,
		Live:       r.Live,
	}
}
