package repfsm

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/2beens/formcheck/internal/metric"
)

var (
	ErrEmptyCondition   = errors.New("empty condition")
	ErrMalformedClause  = errors.New("malformed clause")
	ErrUnknownCondition = errors.New("unknown metric in condition")
)

// Op is a comparison operator of a condition clause.
type Op int

const (
	OpGreater Op = iota
	OpLess
	OpGreaterEqual
	OpLessEqual
)

func (o Op) String() string {
	switch o {
	case OpGreater:
		return ">"
	case OpLess:
		return "<"
	case OpGreaterEqual:
		return ">="
	case OpLessEqual:
		return "<="
	default:
		return "?"
	}
}

func (o Op) apply(a, b float64) bool {
	switch o {
	case OpGreater:
		return a > b
	case OpLess:
		return a < b
	case OpGreaterEqual:
		return a >= b
	case OpLessEqual:
		return a <= b
	default:
		return false
	}
}

// Clause is a single "metric OP value" comparison.
type Clause struct {
	Metric metric.ID
	Op     Op
	Value  float64
}

// Eval is false when the metric has no value in s.
func (c Clause) Eval(s *metric.Snapshot) bool {
	v, ok := s.Get(c.Metric)
	if !ok {
		return false
	}
	return c.Op.apply(v, c.Value)
}

func (c Clause) String() string {
	return fmt.Sprintf("%s %s %g", c.Metric, c.Op, c.Value)
}

// Condition is a parsed state condition: a conjunction of clauses. A
// condition with no clauses never matches.
type Condition struct {
	Clauses []Clause
}

// Never is a condition that matches nothing. It stands in for conditions
// that failed to parse.
var Never = Condition{}

func (c Condition) Eval(s *metric.Snapshot) bool {
	if len(c.Clauses) == 0 {
		return false
	}
	for _, cl := range c.Clauses {
		if !cl.Eval(s) {
			return false
		}
	}
	return true
}

func (c Condition) String() string {
	if len(c.Clauses) == 0 {
		return "never"
	}
	parts := make([]string, len(c.Clauses))
	for i, cl := range c.Clauses {
		parts[i] = cl.String()
	}
	return strings.Join(parts, " && ")
}

var (
	conjunctionRegex = regexp.MustCompile(`(?i)\s*(?:&&|&|\band\b)\s*`)
	clauseRegex      = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\s*(>=|<=|>|<)\s*([-+]?(?:\d+\.?\d*|\.\d+)(?:[eE][-+]?\d+)?)$`)
)

// ParseCondition parses expressions like "elbowFlexion < 100 && velocity > 5".
// Clauses are joined with "&", "&&" or "and". The name "angle" stands for
// primary, the angle velocity is derived from.
func ParseCondition(expr string, primary metric.ID) (Condition, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return Never, ErrEmptyCondition
	}

	var cond Condition
	for _, raw := range conjunctionRegex.Split(expr, -1) {
		raw = strings.TrimSpace(raw)
		m := clauseRegex.FindStringSubmatch(raw)
		if m == nil {
			return Never, fmt.Errorf("%w: %q", ErrMalformedClause, raw)
		}

		id, ok := metric.ParseWithPrimary(m[1], primary)
		if !ok {
			return Never, fmt.Errorf("%w: %q", ErrUnknownCondition, m[1])
		}

		var op Op
		switch m[2] {
		case ">":
			op = OpGreater
		case "<":
			op = OpLess
		case ">=":
			op = OpGreaterEqual
		case "<=":
			op = OpLessEqual
		}

		value, err := strconv.ParseFloat(m[3], 64)
		if err != nil {
			return Never, fmt.Errorf("%w: %q: %s", ErrMalformedClause, raw, err)
		}

		cond.Clauses = append(cond.Clauses, Clause{Metric: id, Op: op, Value: value})
	}

	return cond, nil
}
