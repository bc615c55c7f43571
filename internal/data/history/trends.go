package history

import (
	"fmt"
	"time"
)

// RuleDelta compares one rule between two runs.
type RuleDelta struct {
	Key               string
	PreviousPassed    bool
	Passed            bool
	PreviousViolation int
	Violations        int
	Delta             int
	// Known is false when the rule did not exist in the previous run.
	Known bool
}

func (d RuleDelta) Regressed() bool { return d.Known && d.PreviousPassed && !d.Passed }

func (d RuleDelta) Fixed() bool { return d.Known && !d.PreviousPassed && d.Passed }

// CompareRuns matches the rules of curr to prev by Key, keeping curr's order.
func CompareRuns(prev, curr Run) []RuleDelta {
	previous := make(map[string]RuleResult, len(prev.Rules))
	for _, r := range prev.Rules {
		previous[r.Key()] = r
	}

	deltas := make([]RuleDelta, 0, len(curr.Rules))
	for _, r := range curr.Rules {
		d := RuleDelta{
			Key:        r.Key(),
			Passed:     r.Passed,
			Violations: failingCount(r),
		}
		if p, ok := previous[d.Key]; ok {
			d.Known = true
			d.PreviousPassed = p.Passed
			d.PreviousViolation = failingCount(p)
			d.Delta = d.Violations - d.PreviousViolation
		}
		deltas = append(deltas, d)
	}
	return deltas
}

func failingCount(r RuleResult) int {
	if r.Passed {
		return 0
	}
	return len(r.Violations)
}

type TrendPoint struct {
	RunID           string
	StartedAt       time.Time
	Passed          bool
	FailedRules     int
	Violations      int
	DeltaViolations int
	DeltaFailed     int
}

// BuildTrend turns runs, oldest first, into per-run totals and deltas.
func BuildTrend(runs []Run) ([]TrendPoint, error) {
	if len(runs) == 0 {
		return nil, fmt.Errorf("no runs available")
	}

	points := make([]TrendPoint, 0, len(runs))
	for i, run := range runs {
		point := TrendPoint{
			RunID:       run.ID,
			StartedAt:   run.StartedAt,
			Passed:      run.Passed,
			FailedRules: run.FailedCount(),
			Violations:  run.ViolationCount(),
		}
		if i > 0 {
			prev := points[i-1]
			point.DeltaViolations = point.Violations - prev.Violations
			point.DeltaFailed = point.FailedRules - prev.FailedRules
		}
		points = append(points, point)
	}
	return points, nil
}
