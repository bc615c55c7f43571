package app

import (
	"context"
	stderrors "errors"

	"archcheck/internal/core/errors"
	"archcheck/internal/engine/graph"
	"archcheck/internal/engine/project"
)

// DependencyGraph builds the import graph of the whole configured scope.
func (a *App) DependencyGraph(ctx context.Context) (*graph.Graph, error) {
	p, err := project.Create(ctx, a.projectOptions(project.AnalysisDependencies))
	if err != nil {
		return nil, err
	}
	return graph.FromFiles(p.Files()), nil
}

// TraceImportChain returns the shortest import chain from one file to
// another, both given relative to the project root or as absolute paths.
func (a *App) TraceImportChain(ctx context.Context, from, to string) ([]string, error) {
	fromPath, err := a.resolveTarget(from)
	if err != nil {
		return nil, err
	}
	toPath, err := a.resolveTarget(to)
	if err != nil {
		return nil, err
	}

	g, err := a.DependencyGraph(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range []string{fromPath, toPath} {
		if !g.HasNode(p) {
			return nil, errors.AddContext(errors.New(errors.CodeNotFound, "file is not in the project scope"), errors.CtxPath, p)
		}
	}

	chain, ok := g.FindImportChain(fromPath, toPath)
	if !ok {
		return nil, errors.Newf(errors.CodeNotFound, "no import chain from %s to %s", fromPath, toPath)
	}
	return chain, nil
}

// AnalyzeImpact lists the files that import target directly or transitively.
func (a *App) AnalyzeImpact(ctx context.Context, target string) (graph.ImpactReport, error) {
	path, err := a.resolveTarget(target)
	if err != nil {
		return graph.ImpactReport{}, err
	}
	g, err := a.DependencyGraph(ctx)
	if err != nil {
		return graph.ImpactReport{}, err
	}
	report, err := g.AnalyzeImpact(path)
	if stderrors.Is(err, graph.ErrImpactTargetNotFound) {
		return graph.ImpactReport{}, errors.AddContext(errors.Wrap(err, errors.CodeNotFound, "impact target"), errors.CtxPath, path)
	}
	return report, err
}
