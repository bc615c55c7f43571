package project

import (
	"context"
	"log/slog"
	"os"
	"path"
	"strings"
	"time"

	"archcheck/internal/core/errors"
	"archcheck/internal/engine/parser"
	"archcheck/internal/engine/resolver"
	"archcheck/internal/shared/observability"
	"archcheck/internal/shared/util"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Options describes one project build.
type Options struct {
	Analysis       AnalysisType
	RootDir        string
	Include        []string
	Exclude        []string
	Extensions     []string
	TypeScriptPath string
	// Extractor defaults to the tree-sitter parser.
	Extractor parser.Extractor
}

// Project is the in-scope file set of a root directory, keyed by absolute
// slash-separated path and ordered by walk order. It is read-only once built.
type Project struct {
	root     string
	analysis AnalysisType
	order    []string
	files    map[string]*File
}

// Create validates opts, walks the tree once to collect the available
// paths and then builds a File for each of them.
func Create(ctx context.Context, opts Options) (*Project, error) {
	ctx, span := observability.Tracer.Start(ctx, "project.Create", trace.WithAttributes(
		attribute.String("analysis", string(opts.Analysis)),
		attribute.String("root", opts.RootDir),
	))
	defer span.End()
	start := time.Now()

	root, patterns, err := prepare(opts)
	if err != nil {
		return nil, err
	}

	available, err := collectAvailable(root, patterns)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "walk project")
	}

	b := &builder{
		analysis:  opts.Analysis,
		extractor: opts.Extractor,
	}
	if b.extractor == nil {
		b.extractor = parser.NewParser(nil)
	}
	if opts.Analysis == AnalysisDependencies {
		b.env = resolver.NewEnvironment(root, available, opts.Extensions, opts.TypeScriptPath)
	}

	p := &Project{
		root:     root,
		analysis: opts.Analysis,
		order:    make([]string, 0, len(available)),
		files:    make(map[string]*File, len(available)),
	}
	for _, filePath := range available {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		file, err := b.build(filePath)
		if err != nil {
			slog.Warn("skipping file", "path", filePath, "error", err)
			continue
		}
		p.add(file)
	}

	observability.ProjectBuildDuration.WithLabelValues(string(opts.Analysis)).Observe(time.Since(start).Seconds())
	observability.FilesAnalyzedTotal.WithLabelValues(string(opts.Analysis)).Add(float64(len(p.order)))
	span.SetAttributes(attribute.Int("files", len(p.order)))
	slog.Debug("project built", "root", root, "analysis", opts.Analysis, "files", len(p.order))
	return p, nil
}

func prepare(opts Options) (string, *util.PatternSet, error) {
	switch opts.Analysis {
	case AnalysisDependencies, AnalysisLOC, AnalysisName, AnalysisSize:
	default:
		return "", nil, errors.Newf(errors.CodeValidationError, "unknown analysis type %q", opts.Analysis)
	}
	if strings.TrimSpace(opts.RootDir) == "" {
		return "", nil, errors.New(errors.CodeValidationError, "rootDir must not be empty")
	}
	root, err := util.ToSlashAbs(opts.RootDir)
	if err != nil {
		return "", nil, errors.Wrap(err, errors.CodeValidationError, "invalid rootDir")
	}
	info, err := os.Stat(root)
	if err != nil {
		return "", nil, errors.Wrap(err, errors.CodeValidationError, "invalid rootDir")
	}
	if !info.IsDir() {
		return "", nil, errors.Newf(errors.CodeValidationError, "rootDir %s is not a directory", root)
	}

	patterns, err := util.NewPatternSet(ResolvePatterns(root, opts.Include), ResolvePatterns(root, opts.Exclude))
	if err != nil {
		return "", nil, errors.Wrap(err, errors.CodeValidationError, "invalid include/exclude pattern")
	}
	return root, patterns, nil
}

// ResolvePatterns anchors every pattern at root, see util.ResolvePattern.
func ResolvePatterns(root string, patterns []string) []string {
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if strings.TrimSpace(p) == "" {
			continue
		}
		out = append(out, util.ResolvePattern(root, p))
	}
	return out
}

func (p *Project) add(f *File) {
	if _, exists := p.files[f.Path]; exists {
		return
	}
	p.files[f.Path] = f
	p.order = append(p.order, f.Path)
}

func (p *Project) Root() string { return p.root }

func (p *Project) Analysis() AnalysisType { return p.analysis }

func (p *Project) Len() int { return len(p.order) }

// Files returns the files in walk order.
func (p *Project) Files() []*File {
	out := make([]*File, 0, len(p.order))
	for _, path := range p.order {
		out = append(out, p.files[path])
	}
	return out
}

func (p *Project) File(path string) (*File, bool) {
	f, ok := p.files[path]
	return f, ok
}

// TotalSize sums file sizes; it is only meaningful for size builds.
func (p *Project) TotalSize() int64 {
	var total int64
	for _, f := range p.files {
		total += f.Size
	}
	return total
}

type builder struct {
	analysis  AnalysisType
	extractor parser.Extractor
	env       *resolver.Environment
}

func (b *builder) build(filePath string) (*File, error) {
	f := &File{
		Name: path.Base(filePath),
		Path: filePath,
		Type: DetectFileType(filePath),
	}

	switch b.analysis {
	case AnalysisName:
		return f, nil
	case AnalysisSize:
		info, err := os.Stat(filePath)
		if err != nil {
			return nil, err
		}
		f.Size = info.Size()
		return f, nil
	}

	source, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	if b.analysis == AnalysisLOC {
		stats := parser.CountLines(filePath, source)
		f.LOC = stats.Code
		f.TotalLines = stats.Total
		return f, nil
	}

	f.Dependencies = b.dependencies(filePath, f.Type, source)
	return f, nil
}

func (b *builder) dependencies(filePath string, fileType FileType, source []byte) []*resolver.Dependency {
	if fileType == FilePlain {
		return nil
	}
	imports, err := b.extractor.Extract(filePath, source)
	if err != nil {
		observability.ExtractionFailuresTotal.Inc()
		slog.Warn("failed to extract imports", "path", filePath, "error", err)
		return nil
	}

	ctx := b.env.For(filePath)
	deps := make([]*resolver.Dependency, 0, len(imports))
	for _, imp := range imports {
		with := resolver.WithImport
		if imp.Kind == parser.ImportRequire {
			with = resolver.WithRequire
		}
		dep := resolver.NewDependency(imp.Path, with)
		dep.Resolve(ctx)
		observability.DependenciesResolvedTotal.WithLabelValues(string(dep.Type)).Inc()
		deps = append(deps, dep)
	}
	return deps
}
