package app

import (
	"context"
	"time"

	"archcheck/internal/core/errors"
	"archcheck/internal/data/history"
	"archcheck/internal/engine/architecture"
)

// record stores run and fills in its ID and the deltas against the
// previous run of the same root.
func (a *App) record(ctx context.Context, run *Run) error {
	prev, found, err := a.history.LatestRun(ctx, run.Root)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "load previous run")
	}

	stored := toHistoryRun(*run)
	id, err := a.history.SaveRun(ctx, stored)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "save run")
	}
	run.ID = id
	if found {
		run.Deltas = history.CompareRuns(prev, stored)
	}
	return nil
}

func toHistoryRun(run Run) history.Run {
	out := history.Run{
		ProjectKey: run.Root,
		StartedAt:  run.StartedAt,
		Duration:   run.Duration,
		Passed:     run.Passed(),
		Rules:      make([]history.RuleResult, 0, len(run.Outcomes)),
	}
	for _, o := range run.Outcomes {
		out.Rules = append(out.Rules, toRuleResult(o))
	}
	return out
}

func toRuleResult(o Outcome) history.RuleResult {
	r := history.RuleResult{
		Position:    o.Position,
		Name:        o.Rule.Name,
		Description: o.Rule.Description(),
		Kind:        string(o.Rule.Kind),
		Negated:     o.Rule.Negated,
		Passed:      o.Passed(),
		Selected:    o.Result.Selected,
	}
	if o.Err != nil {
		r.Error = o.Err.Error()
		return r
	}
	r.Violations = violationLines(o.Result.Violations)
	return r
}

func violationLines(vs []architecture.Violation) []string {
	if len(vs) == 0 {
		return nil
	}
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.String())
	}
	return out
}

// Trend returns per-run totals for the configured root, oldest first,
// limited to the most recent limit runs (all runs when limit <= 0).
func (a *App) Trend(ctx context.Context, limit int) ([]history.TrendPoint, error) {
	if a.history == nil {
		return nil, errors.New(errors.CodeValidationError, "history is disabled")
	}
	runs, err := a.history.LoadRuns(ctx, a.Config.Project.RootDir, time.Time{}, limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "load runs")
	}
	if len(runs) == 0 {
		return nil, errors.New(errors.CodeNotFound, "no runs recorded for "+a.Config.Project.RootDir)
	}
	return history.BuildTrend(runs)
}
