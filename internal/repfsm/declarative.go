package repfsm

import (
	"errors"
	"fmt"

	"github.com/2beens/formcheck/internal/metric"

	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

const DefaultStartState = "start"

type StateConfig struct {
	Name      string `json:"name"`
	Condition string `json:"condition"`
}

// FSMConfig describes a declarative rep counter. States are checked in order
// on every frame and the first whose condition holds becomes current. A rep
// counts on a CounterFrom -> CounterTo transition.
type FSMConfig struct {
	States []StateConfig `json:"states"`
	// StartState re-enables counting when entered. Defaults to "start" if
	// such a state exists, otherwise to the first state.
	StartState       string `json:"startState,omitempty"`
	CounterFrom      string `json:"counterFrom"`
	CounterTo        string `json:"counterTo"`
	MinRepDurationMs int64  `json:"minRepDurationMs"`
}

type compiledState struct {
	name string
	cond Condition
}

// DeclarativeDetector runs an FSMConfig. Conditions are parsed once, on
// construction.
type DeclarativeDetector struct {
	states         []compiledState
	start          string
	counterFrom    string
	counterTo      string
	minRepDuration int64
	conditionErrs  error

	current string
	counted bool
	record  *RepRecord
}

var _ BoundaryDetector = (*DeclarativeDetector)(nil)

// NewDeclarativeDetector compiles cfg. Structural errors (no states, unknown
// counter states) fail construction. A condition that does not parse is
// replaced by one that never matches; those errors are logged and kept in
// ConditionErrors. primary is what "angle" means in the conditions.
func NewDeclarativeDetector(cfg FSMConfig, primary metric.ID) (*DeclarativeDetector, error) {
	if len(cfg.States) == 0 {
		return nil, errors.New("fsm has no states")
	}

	d := &DeclarativeDetector{
		counterFrom:    cfg.CounterFrom,
		counterTo:      cfg.CounterTo,
		minRepDuration: cfg.MinRepDurationMs,
	}

	known := make(map[string]bool, len(cfg.States))
	for _, st := range cfg.States {
		if st.Name == "" {
			return nil, errors.New("fsm state without a name")
		}
		if known[st.Name] {
			return nil, fmt.Errorf("duplicate fsm state: %s", st.Name)
		}
		known[st.Name] = true

		cond, err := ParseCondition(st.Condition, primary)
		if err != nil {
			log.Warnf("fsm state %s: condition %q disabled: %s", st.Name, st.Condition, err)
			d.conditionErrs = multierr.Append(d.conditionErrs, fmt.Errorf("state %s: %w", st.Name, err))
		}
		d.states = append(d.states, compiledState{name: st.Name, cond: cond})
	}

	if !known[cfg.CounterFrom] {
		return nil, fmt.Errorf("counter-from state %q not defined", cfg.CounterFrom)
	}
	if !known[cfg.CounterTo] {
		return nil, fmt.Errorf("counter-to state %q not defined", cfg.CounterTo)
	}
	if cfg.CounterFrom == cfg.CounterTo {
		return nil, errors.New("counter-from and counter-to must differ")
	}

	switch {
	case cfg.StartState != "":
		if !known[cfg.StartState] {
			return nil, fmt.Errorf("start state %q not defined", cfg.StartState)
		}
		d.start = cfg.StartState
	case known[DefaultStartState]:
		d.start = DefaultStartState
	default:
		d.start = cfg.States[0].Name
	}

	d.current = d.start
	return d, nil
}

// ConditionErrors holds the combined parse errors of disabled conditions.
func (d *DeclarativeDetector) ConditionErrors() error {
	return d.conditionErrs
}

func (d *DeclarativeDetector) Update(in Input) Event {
	prev := d.current
	for _, st := range d.states {
		if st.cond.Eval(&in.Metrics) {
			d.current = st.name
			break
		}
	}
	next := d.current
	changed := next != prev

	var ev Event
	if changed && prev == d.counterFrom && next == d.counterTo && d.record != nil && !d.counted &&
		in.TimestampMs-d.record.StartMs >= d.minRepDuration {
		d.record.observe(in)
		ev = Event{Kind: EventRepCompleted, Record: d.record}
		d.record = nil
		d.counted = true
	}

	if changed && next == d.start {
		d.counted = false
		d.record = nil
	}
	if ev.Kind == EventRepCompleted {
		return ev
	}

	// the initial state counts as entered
	if next == d.counterFrom && d.record == nil && !d.counted {
		d.record = newRepRecord(in.TimestampMs)
		ev = Event{Kind: EventRepStarted}
	}
	if d.record != nil {
		d.record.observe(in)
	}

	return ev
}

func (d *DeclarativeDetector) Reset() {
	d.current = d.start
	d.counted = false
	d.record = nil
}

func (d *DeclarativeDetector) Phase() string {
	return d.current
}

func (d *DeclarativeDetector) Recording() bool {
	return d.record != nil
}
