package architecture

import (
	"context"

	"archcheck/internal/core/errors"
	"archcheck/internal/engine/project"
	"archcheck/internal/shared/util"
)

// Selector is the subset of a project's files matched by one path pattern,
// in project walk order.
type Selector struct {
	project *project.Project
	pattern string
	files   []*project.File
}

// NewSelector filters p by pattern. The pattern is anchored at the project
// root the same way include patterns are, so "<rootDir>/x/**", "./x/**"
// and "x/**/" select the same files. An empty selection is an error.
func NewSelector(p *project.Project, pattern string) (*Selector, error) {
	resolved := util.ResolvePattern(p.Root(), pattern)
	compiled, err := util.CompilePattern(resolved)
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeValidationError, "invalid file selection"), errors.CtxPattern, pattern)
	}

	s := &Selector{project: p, pattern: pattern}
	for _, f := range p.Files() {
		if compiled.Match(f.Path) != compiled.Negated() {
			s.files = append(s.files, f)
		}
	}
	if len(s.files) == 0 {
		return nil, errors.Newf(errors.CodeNoFilesFound, "no files found matching '%s' under %s", pattern, p.Root())
	}
	return s, nil
}

func (s *Selector) Pattern() string { return s.pattern }

func (s *Selector) Files() []*project.File {
	return append([]*project.File(nil), s.files...)
}

// Check evaluates rule and returns a *ViolationError when it fails.
func (s *Selector) Check(ctx context.Context, rule Rule) error {
	res, err := s.Evaluate(ctx, rule)
	if err != nil {
		return err
	}
	if !res.Passed {
		return res.Err()
	}
	return nil
}
