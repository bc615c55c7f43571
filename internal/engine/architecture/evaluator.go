package architecture

import (
	"context"
	"fmt"
	"strings"
	"time"

	"archcheck/internal/core/errors"
	"archcheck/internal/engine/graph"
	"archcheck/internal/engine/project"
	"archcheck/internal/shared/observability"
	"archcheck/internal/shared/util"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Result is the outcome of one rule over one selection.
type Result struct {
	Rule       Rule
	Passed     bool
	Selected   int
	Violations []Violation
	// Cycle holds the detected cycle for have_cycles rules, first node
	// repeated at the end.
	Cycle []string
}

// Err returns the violation error for a failed result and nil otherwise.
func (r Result) Err() error {
	if r.Passed {
		return nil
	}
	return &ViolationError{Description: r.Rule.Description(), Violations: r.Violations}
}

// Evaluate applies rule to the selection. Configuration problems are
// returned as errors; a failing rule is reported through Result.
func (s *Selector) Evaluate(ctx context.Context, rule Rule) (Result, error) {
	if err := rule.Validate(); err != nil {
		return Result{}, err
	}
	if need := rule.RequiredAnalysis(); need != project.AnalysisName && s.project.Analysis() != need {
		return Result{}, errors.Newf(errors.CodeValidationError,
			"rule %s needs a %s project, got %s", rule.Kind, need, s.project.Analysis())
	}

	_, span := observability.Tracer.Start(ctx, "architecture.Evaluate", trace.WithAttributes(
		attribute.String("kind", string(rule.Kind)),
		attribute.Bool("negated", rule.Negated),
		attribute.Int("selected", len(s.files)),
	))
	defer span.End()
	start := time.Now()

	ev := evaluation{rule: rule, files: s.files, root: s.project.Root(), project: s.project}
	var err error
	switch rule.Kind {
	case KindDependsOn:
		err = ev.dependsOn()
	case KindOnlyDependsOn:
		err = ev.onlyDependsOn()
	case KindHaveCycles:
		ev.cycles()
	case KindHaveName:
		err = ev.haveName(false)
	case KindOnlyHaveName:
		err = ev.haveName(true)
	case KindLOCGreaterThan, KindLOCLessThan, KindLOCGreaterOrEqualThan:
		ev.loc()
	case KindTotalProjectCodeLessOrEqualThan:
		ev.totalSize(s.project.TotalSize())
	}
	if err != nil {
		return Result{}, err
	}

	res := Result{
		Rule:       rule,
		Passed:     !ev.failed,
		Selected:   len(s.files),
		Violations: ev.violations,
		Cycle:      ev.cycle,
	}

	outcome := "passed"
	if !res.Passed {
		outcome = "failed"
	}
	observability.RuleEvaluationDuration.WithLabelValues(string(rule.Kind)).Observe(time.Since(start).Seconds())
	observability.RuleChecksTotal.WithLabelValues(string(rule.Kind), outcome).Inc()
	span.SetAttributes(attribute.String("result", outcome), attribute.Int("violations", len(res.Violations)))
	return res, nil
}

type evaluation struct {
	rule       Rule
	root       string
	project    *project.Project
	files      []*project.File
	violations []Violation
	cycle      []string
	failed     bool
}

func (ev *evaluation) flag(path, detail string) {
	ev.violations = append(ev.violations, Violation{Path: path, Detail: detail})
	ev.failed = true
}

type matcher struct {
	raw     string
	pattern util.Pattern
}

func (m matcher) match(value string) bool {
	return m.pattern.Match(value) != m.pattern.Negated()
}

func compileMatchers(raws []string, resolve func(string) string) ([]matcher, error) {
	out := make([]matcher, 0, len(raws))
	for _, raw := range raws {
		p, err := util.CompilePattern(resolve(raw))
		if err != nil {
			return nil, errors.AddContext(errors.Wrap(err, errors.CodeValidationError, "invalid rule pattern"), errors.CtxPattern, raw)
		}
		out = append(out, matcher{raw: raw, pattern: p})
	}
	return out, nil
}

func (ev *evaluation) dependencyMatchers() ([]matcher, error) {
	return compileMatchers(ev.rule.Patterns, func(p string) string {
		return util.ResolveDependencyPattern(ev.root, p)
	})
}

func quoteAll(ms []matcher) string {
	quoted := make([]string, 0, len(ms))
	for _, m := range ms {
		quoted = append(quoted, "'"+m.raw+"'")
	}
	return strings.Join(quoted, ", ")
}

// dependsOn: "should" fails a file missing any required pattern, "should
// not" fails a file with any dependency matching a forbidden pattern.
func (ev *evaluation) dependsOn() error {
	matchers, err := ev.dependencyMatchers()
	if err != nil {
		return err
	}
	for _, f := range ev.files {
		if ev.rule.Negated {
			if dep, m, ok := firstMatching(f, matchers); ok {
				ev.flag(f.Path, fmt.Sprintf("depends on '%s' matching '%s'", dep, m.raw))
			}
			continue
		}

		var missing []matcher
		for _, m := range matchers {
			found := false
			for _, dep := range f.Dependencies {
				if m.match(dep.Name) {
					found = true
					break
				}
			}
			if !found {
				missing = append(missing, m)
			}
		}
		if len(missing) > 0 {
			ev.flag(f.Path, "no dependency matching "+quoteAll(missing))
		}
	}
	return nil
}

func firstMatching(f *project.File, matchers []matcher) (string, matcher, bool) {
	for _, dep := range f.Dependencies {
		for _, m := range matchers {
			if m.match(dep.Name) {
				return dep.Name, m, true
			}
		}
	}
	return "", matcher{}, false
}

// onlyDependsOn: "should" fails a file with a dependency outside the
// allowed patterns, "should not" fails a file whose dependencies all fall
// inside them. Files without dependencies pass both forms.
func (ev *evaluation) onlyDependsOn() error {
	matchers, err := ev.dependencyMatchers()
	if err != nil {
		return err
	}
	for _, f := range ev.files {
		if len(f.Dependencies) == 0 {
			continue
		}
		outside := ""
		for _, dep := range f.Dependencies {
			if !matchesAny(matchers, dep.Name) {
				outside = dep.Name
				break
			}
		}
		switch {
		case !ev.rule.Negated && outside != "":
			ev.flag(f.Path, fmt.Sprintf("depends on '%s' outside %s", outside, quoteAll(matchers)))
		case ev.rule.Negated && outside == "":
			ev.flag(f.Path, "every dependency matches "+quoteAll(matchers))
		}
	}
	return nil
}

func matchesAny(matchers []matcher, value string) bool {
	for _, m := range matchers {
		if m.match(value) {
			return true
		}
	}
	return false
}

// cycles builds the graph of every project file and stops at the first
// cycle passing through a selected file.
func (ev *evaluation) cycles() {
	g := graph.FromFiles(ev.project.Files())
	for _, f := range ev.files {
		cycle, found := g.FindCycleThrough(f.Path)
		if !found {
			continue
		}
		ev.cycle = cycle
		for i := 0; i+1 < len(cycle); i++ {
			ev.flag(cycle[i], fmt.Sprintf("imports '%s'", cycle[i+1]))
		}
		return
	}
}

// haveName matches base names only. With only set, the negated form fails
// only when every selected file matches.
func (ev *evaluation) haveName(only bool) error {
	matchers, err := compileMatchers(ev.rule.Patterns, func(p string) string { return p })
	if err != nil {
		return err
	}

	if only && ev.rule.Negated {
		for _, f := range ev.files {
			if !matchesAny(matchers, f.Name) {
				return nil
			}
		}
		for _, f := range ev.files {
			ev.flag(f.Path, fmt.Sprintf("name '%s' matches %s", f.Name, quoteAll(matchers)))
		}
		return nil
	}

	for _, f := range ev.files {
		matched := matchesAny(matchers, f.Name)
		switch {
		case !ev.rule.Negated && !matched:
			ev.flag(f.Path, fmt.Sprintf("name '%s' does not match %s", f.Name, quoteAll(matchers)))
		case ev.rule.Negated && matched:
			ev.flag(f.Path, fmt.Sprintf("name '%s' matches %s", f.Name, quoteAll(matchers)))
		}
	}
	return nil
}

func (ev *evaluation) loc() {
	threshold := ev.rule.Threshold
	for _, f := range ev.files {
		loc := float64(f.LOC)
		var holds bool
		switch ev.rule.Kind {
		case KindLOCGreaterThan:
			holds = loc > threshold
		case KindLOCLessThan:
			holds = loc < threshold
		case KindLOCGreaterOrEqualThan:
			holds = loc >= threshold
		}
		if holds == ev.rule.Negated {
			ev.flag(f.Path, fmt.Sprintf("%d lines of code", f.LOC))
		}
	}
}

// totalSize lists every selected file; whether the rule fails depends only
// on the selected share of the project size.
func (ev *evaluation) totalSize(projectSize int64) {
	var selected int64
	for _, f := range ev.files {
		selected += f.Size
	}
	limit := float64(projectSize) * ev.rule.Threshold
	holds := float64(selected) <= limit

	for _, f := range ev.files {
		ev.violations = append(ev.violations, Violation{
			Path:   f.Path,
			Detail: fmt.Sprintf("%d bytes, selection %d of %d bytes, limit %s", f.Size, selected, projectSize, formatNumber(limit)),
		})
	}
	ev.failed = holds == ev.rule.Negated
}
