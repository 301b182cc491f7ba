package session

import (
	"math"
)

// Summary is the frozen result of a session.
type Summary struct {
	TotalReps         int    `json:"totalReps"`
	AverageScore      int    `json:"averageScore"`
	CleanReps         int    `json:"cleanReps"`
	BestRepScore      int    `json:"bestRepScore"`
	WorstRepScore     int    `json:"worstRepScore"`
	MostFrequentIssue string `json:"mostFrequentIssue,omitempty"`
}

// Aggregator accumulates completed reps. When TargetReps is reached it
// freezes a Summary and ignores every rep after that. A zero target never
// completes.
type Aggregator struct {
	TargetReps int

	scores     []int
	clean      int
	issueCount map[string]int
	issueOrder []string
	summary    *Summary
}

func NewAggregator(targetReps int) *Aggregator {
	return &Aggregator{
		TargetReps: targetReps,
		issueCount: make(map[string]int),
	}
}

// AddRep records one rep. issue is the rep's primary message, empty when
// the rep had nothing to report. It returns true on the rep that completes
// the session.
func (a *Aggregator) AddRep(score int, clean bool, issue string) bool {
	if a.summary != nil {
		return false
	}

	a.scores = append(a.scores, clampScore(score))
	if clean {
		a.clean++
	}
	if issue != "" {
		if _, ok := a.issueCount[issue]; !ok {
			a.issueOrder = append(a.issueOrder, issue)
		}
		a.issueCount[issue]++
	}

	if a.TargetReps > 0 && len(a.scores) >= a.TargetReps {
		s := a.Current()
		a.summary = &s
		return true
	}
	return false
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func (a *Aggregator) Reps() int {
	return len(a.scores)
}

func (a *Aggregator) CleanReps() int {
	return a.clean
}

// OverallScore is the rounded mean of all rep scores, 0 before the first rep.
func (a *Aggregator) OverallScore() int {
	if len(a.scores) == 0 {
		return 0
	}
	sum := 0
	for _, s := range a.scores {
		sum += s
	}
	return int(math.Round(float64(sum) / float64(len(a.scores))))
}

// MostFrequentIssue breaks ties by first occurrence.
func (a *Aggregator) MostFrequentIssue() string {
	best, bestCount := "", 0
	for _, issue := range a.issueOrder {
		if c := a.issueCount[issue]; c > bestCount {
			best, bestCount = issue, c
		}
	}
	return best
}

// Current summarizes the reps so far, whether or not the session is complete.
func (a *Aggregator) Current() Summary {
	s := Summary{
		TotalReps:         len(a.scores),
		AverageScore:      a.OverallScore(),
		CleanReps:         a.clean,
		MostFrequentIssue: a.MostFrequentIssue(),
	}
	for i, score := range a.scores {
		if i == 0 || score > s.BestRepScore {
			s.BestRepScore = score
		}
		if i == 0 || score < s.WorstRepScore {
			s.WorstRepScore = score
		}
	}
	return s
}

// Summary returns the frozen summary once the session is complete.
func (a *Aggregator) Summary() (Summary, bool) {
	if a.summary == nil {
		return Summary{}, false
	}
	return *a.summary, true
}

func (a *Aggregator) Complete() bool {
	return a.summary != nil
}
