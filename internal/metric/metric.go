package metric

import (
	"fmt"
	"strings"
)

// ID identifies one derived scalar measurement. The set is closed; names only
// appear at the configuration boundary, see Parse.
type ID int

const (
	ElbowFlexion ID = iota
	KneeFlexion
	HipFlexion
	BackAngle
	ElbowFlare
	HipDropRatio
	ShoulderAsymmetry
	KneeTracking
	TorsoLean
	ChinClearance
	DepthProgress
	Velocity
	RepDuration

	Count
)

// Aggregate selects which extremum of a repetition represents the metric.
type Aggregate int

const (
	AggregateMax Aggregate = iota
	AggregateMin
)

// Badness tells calibration which direction of the metric is bad form.
type Badness int

const (
	Neutral Badness = iota
	HigherIsWorse
	LowerIsWorse
)

// Band is the smoothing band of a per-frame metric.
type Band int

const (
	BandNone Band = iota
	BandFast
	BandSlow
)

type Descriptor struct {
	Name       string
	Aggregate  Aggregate
	Badness    Badness
	Band       Band
	Calibrated bool
}

var descriptors = [Count]Descriptor{
	ElbowFlexion:      {Name: "elbowFlexion", Aggregate: AggregateMin, Badness: Neutral, Band: BandFast, Calibrated: true},
	KneeFlexion:       {Name: "kneeFlexion", Aggregate: AggregateMin, Badness: Neutral, Band: BandFast, Calibrated: true},
	HipFlexion:        {Name: "hipFlexion", Aggregate: AggregateMin, Badness: Neutral, Band: BandFast},
	BackAngle:         {Name: "backAngle", Aggregate: AggregateMin, Badness: LowerIsWorse, Band: BandFast},
	ElbowFlare:        {Name: "elbowFlare", Aggregate: AggregateMax, Badness: HigherIsWorse, Band: BandSlow, Calibrated: true},
	HipDropRatio:      {Name: "hipDropRatio", Aggregate: AggregateMax, Badness: HigherIsWorse, Band: BandSlow, Calibrated: true},
	ShoulderAsymmetry: {Name: "shoulderAsymmetry", Aggregate: AggregateMax, Badness: HigherIsWorse, Band: BandSlow, Calibrated: true},
	KneeTracking:      {Name: "kneeTracking", Aggregate: AggregateMin, Badness: LowerIsWorse, Band: BandSlow},
	TorsoLean:         {Name: "torsoLean", Aggregate: AggregateMax, Badness: HigherIsWorse, Band: BandSlow, Calibrated: true},
	ChinClearance:     {Name: "chinClearance", Aggregate: AggregateMax, Badness: LowerIsWorse, Band: BandSlow},
	DepthProgress:     {Name: "depthProgress", Aggregate: AggregateMax, Badness: LowerIsWorse, Band: BandNone, Calibrated: true},
	Velocity:          {Name: "velocity", Aggregate: AggregateMax, Badness: Neutral, Band: BandNone},
	RepDuration:       {Name: "repDuration", Aggregate: AggregateMax, Badness: Neutral, Band: BandNone},
}

var byName = func() map[string]ID {
	m := make(map[string]ID, Count)
	for id := ID(0); id < Count; id++ {
		m[strings.ToLower(descriptors[id].Name)] = id
	}
	// aliases used by older exercise configs
	m["duration"] = RepDuration
	return m
}()

func (id ID) Valid() bool {
	return id >= 0 && id < Count
}

func (id ID) String() string {
	if !id.Valid() {
		return fmt.Sprintf("metric(%d)", int(id))
	}
	return descriptors[id].Name
}

func (id ID) Descriptor() Descriptor {
	if !id.Valid() {
		return Descriptor{Name: id.String()}
	}
	return descriptors[id]
}

// Unknown is the ID of a configured name that did not resolve. It is never
// present in a snapshot.
const Unknown ID = -1

// PrimaryAlias names the primary angle of whatever exercise a config belongs
// to. It only resolves through ParseWithPrimary.
const PrimaryAlias = "angle"

// Parse resolves a configuration metric name, case-insensitively.
func Parse(name string) (ID, bool) {
	id, ok := byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Unknown, false
	}
	return id, true
}

// ParseWithPrimary is Parse with PrimaryAlias resolved to primary.
func ParseWithPrimary(name string, primary ID) (ID, bool) {
	if strings.EqualFold(strings.TrimSpace(name), PrimaryAlias) {
		if !primary.Valid() {
			return Unknown, false
		}
		return primary, true
	}
	return Parse(name)
}
