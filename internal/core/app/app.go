package app

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"archcheck/internal/core/config"
	"archcheck/internal/core/errors"
	"archcheck/internal/data/history"
	"archcheck/internal/engine/architecture"
	"archcheck/internal/engine/parser"
	"archcheck/internal/engine/project"
	"archcheck/internal/shared/observability"
	"archcheck/internal/shared/util"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Outcome is the result of checking one configured rule. Err is set when the
// rule could not be evaluated at all (bad configuration, empty selection).
type Outcome struct {
	Position int
	Rule     architecture.Rule
	Result   architecture.Result
	Err      error
	Duration time.Duration
}

func (o Outcome) Passed() bool {
	return o.Err == nil && o.Result.Passed
}

// Failure returns the error to report for a failed outcome, nil otherwise.
func (o Outcome) Failure() error {
	if o.Err != nil {
		return o.Err
	}
	return o.Result.Err()
}

// Run is one pass over every configured rule.
type Run struct {
	ID        string
	Root      string
	StartedAt time.Time
	Duration  time.Duration
	Outcomes  []Outcome
	// Deltas compares this run with the previous stored run. Empty when
	// history is disabled or no earlier run exists.
	Deltas []history.RuleDelta
}

func (r Run) Passed() bool {
	for _, o := range r.Outcomes {
		if !o.Passed() {
			return false
		}
	}
	return true
}

func (r Run) FailedCount() int {
	failed := 0
	for _, o := range r.Outcomes {
		if !o.Passed() {
			failed++
		}
	}
	return failed
}

type App struct {
	Config    *config.Config
	Extractor parser.Extractor

	history *history.Store
	limiter *util.Limiter

	// runMu serialises rule runs so watch re-runs never overlap.
	runMu sync.Mutex
}

// New builds an App for cfg, opening the history store when enabled.
func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, errors.New(errors.CodeValidationError, "config is required")
	}
	a := &App{
		Config:    cfg,
		Extractor: parser.NewParser(parser.NewGrammarLoader()),
		limiter:   util.NewLimiter(cfg.Watch.Rate),
	}
	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return nil, errors.AddContext(errors.Wrap(err, errors.CodeInternal, "open history"), errors.CtxPath, cfg.History.Path)
		}
		a.history = store
	}
	return a, nil
}

func (a *App) Close() error {
	if a.history == nil {
		return nil
	}
	return a.history.Close()
}

// HistoryEnabled reports whether runs are persisted.
func (a *App) HistoryEnabled() bool { return a.history != nil }

func (a *App) projectOptions(analysis project.AnalysisType) project.Options {
	p := a.Config.Project
	return project.Options{
		Analysis:       analysis,
		RootDir:        p.RootDir,
		Include:        p.Include,
		Exclude:        p.Exclude,
		Extensions:     p.Extensions,
		TypeScriptPath: p.TypeScriptPath,
		Extractor:      a.Extractor,
	}
}

// CheckRule builds a project for the analysis rule needs, selects its files
// and evaluates it. Each call walks the project afresh.
func (a *App) CheckRule(ctx context.Context, rule architecture.Rule) (architecture.Result, error) {
	if err := rule.Validate(); err != nil {
		return architecture.Result{}, err
	}
	p, err := project.Create(ctx, a.projectOptions(rule.RequiredAnalysis()))
	if err != nil {
		return architecture.Result{}, err
	}
	sel, err := architecture.NewSelector(p, rule.Files)
	if err != nil {
		return architecture.Result{}, err
	}
	return sel.Evaluate(ctx, rule)
}

// Check evaluates every configured rule in order. A rule that cannot be
// evaluated does not stop the others. The returned error is reserved for
// history failures; rule problems are carried by the outcomes.
func (a *App) Check(ctx context.Context) (Run, error) {
	a.runMu.Lock()
	defer a.runMu.Unlock()

	ctx, span := observability.Tracer.Start(ctx, "app.Check", trace.WithAttributes(
		attribute.String("root", a.Config.Project.RootDir),
		attribute.Int("rules", len(a.Config.Rules)),
	))
	defer span.End()

	run := Run{Root: a.Config.Project.RootDir, StartedAt: time.Now().UTC()}
	for i, rule := range a.Config.ArchitectureRules() {
		if err := ctx.Err(); err != nil {
			return run, err
		}
		start := time.Now()
		res, err := a.CheckRule(ctx, rule)
		o := Outcome{Position: i, Rule: rule, Result: res, Err: err, Duration: time.Since(start)}
		if err != nil {
			slog.Warn("rule could not be evaluated", "rule", rule.Description(), "error", err)
		} else {
			slog.Debug("rule evaluated", "rule", rule.Description(), "passed", res.Passed, "violations", len(res.Violations), "duration", o.Duration)
		}
		run.Outcomes = append(run.Outcomes, o)
	}
	run.Duration = time.Since(run.StartedAt)

	result := "passed"
	if !run.Passed() {
		result = "failed"
	}
	observability.RunsTotal.WithLabelValues(result).Inc()
	observability.RunDuration.Observe(run.Duration.Seconds())
	span.SetAttributes(attribute.String("result", result), attribute.Int("failed", run.FailedCount()))

	if a.history != nil {
		if err := a.record(ctx, &run); err != nil {
			return run, err
		}
	}
	return run, nil
}

// resolveTarget anchors a user-supplied file path at the project root.
func (a *App) resolveTarget(target string) (string, error) {
	if !filepath.IsAbs(target) {
		target = filepath.Join(a.Config.Project.RootDir, target)
	}
	abs, err := util.ToSlashAbs(target)
	if err != nil {
		return "", errors.AddContext(errors.Wrap(err, errors.CodeValidationError, "invalid path"), errors.CtxPath, target)
	}
	return abs, nil
}
