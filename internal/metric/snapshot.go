package metric

import (
	"fmt"
	"math"
	"strings"
)

// Snapshot is a fixed set of metric values; absent metrics do not resolve.
type Snapshot struct {
	values  [Count]float64
	present [Count]bool
}

func (s *Snapshot) Set(id ID, value float64) {
	if !id.Valid() {
		return
	}
	s.values[id] = value
	s.present[id] = true
}

func (s *Snapshot) Unset(id ID) {
	if !id.Valid() {
		return
	}
	s.values[id] = 0
	s.present[id] = false
}

// Get returns the value and whether it resolves. NaN values never resolve.
func (s *Snapshot) Get(id ID) (float64, bool) {
	if !id.Valid() || !s.present[id] || math.IsNaN(s.values[id]) {
		return 0, false
	}
	return s.values[id], true
}

// Value returns the metric or 0 when absent.
func (s *Snapshot) Value(id ID) float64 {
	v, _ := s.Get(id)
	return v
}

func (s *Snapshot) Has(id ID) bool {
	_, ok := s.Get(id)
	return ok
}

// String renders present metrics as "name=value" pairs, for debug output.
func (s *Snapshot) String() string {
	var b strings.Builder
	for id := ID(0); id < Count; id++ {
		v, ok := s.Get(id)
		if !ok {
			continue
		}
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString(fmt.Sprintf("%s=%.2f", id, v))
	}
	return b.String()
}

// Extrema tracks the running min and max of every metric across frames.
type Extrema struct {
	min  [Count]float64
	max  [Count]float64
	seen [Count]bool
}

func (e *Extrema) Observe(s *Snapshot) {
	for id := ID(0); id < Count; id++ {
		v, ok := s.Get(id)
		if !ok {
			continue
		}
		if !e.seen[id] {
			e.min[id], e.max[id], e.seen[id] = v, v, true
			continue
		}
		e.min[id] = math.Min(e.min[id], v)
		e.max[id] = math.Max(e.max[id], v)
	}
}

func (e *Extrema) Min(id ID) (float64, bool) {
	if !id.Valid() || !e.seen[id] {
		return 0, false
	}
	return e.min[id], true
}

func (e *Extrema) Max(id ID) (float64, bool) {
	if !id.Valid() || !e.seen[id] {
		return 0, false
	}
	return e.max[id], true
}

// Collapse reduces the extrema to one snapshot, each metric taking the
// extremum its descriptor aggregates by.
func (e *Extrema) Collapse() Snapshot {
	var out Snapshot
	for id := ID(0); id < Count; id++ {
		if !e.seen[id] {
			continue
		}
		if descriptors[id].Aggregate == AggregateMin {
			out.Set(id, e.min[id])
		} else {
			out.Set(id, e.max[id])
		}
	}
	return out
}
