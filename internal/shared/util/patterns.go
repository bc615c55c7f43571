package util

import (
	"fmt"
	"path"
	"strings"

	"github.com/gobwas/glob"
)

// RootDirPlaceholder is replaced by the project root in path patterns.
const RootDirPlaceholder = "<rootDir>"

const globMeta = "*?[]{}"

// ResolvePattern turns a user-facing path pattern into an absolute,
// slash-separated glob anchored at root. "<rootDir>/x/**", "./x/**",
// "x/**" and "<rootDir>/x/**/" all resolve to the same pattern. A leading
// "!" is preserved.
func ResolvePattern(root, pattern string) string {
	negated, body := splitNegation(pattern)
	body = strings.TrimSpace(strings.ReplaceAll(body, "\\", "/"))
	root = strings.TrimSuffix(strings.ReplaceAll(root, "\\", "/"), "/")

	switch {
	case body == RootDirPlaceholder:
		body = root
	case strings.HasPrefix(body, RootDirPlaceholder+"/"):
		body = root + strings.TrimPrefix(body, RootDirPlaceholder)
	case strings.HasPrefix(body, "/"):
	default:
		body = root + "/" + body
	}
	body = cleanPattern(body)
	if negated {
		return "!" + body
	}
	return body
}

// ResolveDependencyPattern expands only root-anchored forms ("<rootDir>/",
// "./", "../"); bare patterns such as package names or "**/domain/**" are
// returned untouched.
func ResolveDependencyPattern(root, pattern string) string {
	_, body := splitNegation(pattern)
	body = strings.TrimSpace(body)
	if strings.HasPrefix(body, RootDirPlaceholder) || strings.HasPrefix(body, "./") || strings.HasPrefix(body, "../") {
		return ResolvePattern(root, pattern)
	}
	return pattern
}

func cleanPattern(p string) string {
	if p == "" {
		return p
	}
	cleaned := path.Clean(p)
	if cleaned == "." {
		return ""
	}
	return cleaned
}

func splitNegation(pattern string) (bool, string) {
	trimmed := strings.TrimSpace(pattern)
	if strings.HasPrefix(trimmed, "!") {
		return true, strings.TrimPrefix(trimmed, "!")
	}
	return false, trimmed
}

// Pattern is a compiled path/name pattern. Patterns without glob
// metacharacters match the value itself or anything beneath it.
type Pattern struct {
	raw     string
	negated bool
	literal bool
	glob    glob.Glob
}

func CompilePattern(raw string) (Pattern, error) {
	negated, body := splitNegation(raw)
	if body == "" {
		return Pattern{}, fmt.Errorf("empty pattern %q", raw)
	}
	p := Pattern{raw: body, negated: negated}
	if !strings.ContainsAny(body, globMeta) {
		p.literal = true
		return p, nil
	}
	g, err := glob.Compile(body, '/')
	if err != nil {
		return Pattern{}, fmt.Errorf("invalid pattern %q: %w", raw, err)
	}
	p.glob = g
	return p, nil
}

func MustCompilePattern(raw string) Pattern {
	p, err := CompilePattern(raw)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Pattern) String() string { return p.raw }

func (p Pattern) Negated() bool { return p.negated }

func (p Pattern) Match(value string) bool {
	value = strings.ReplaceAll(value, "\\", "/")
	if p.literal {
		return HasPathPrefix(value, p.raw)
	}
	return p.glob.Match(value)
}

// StaticPrefix is the directory portion of the pattern before the first
// glob metacharacter.
func (p Pattern) StaticPrefix() string {
	if p.literal {
		return p.raw
	}
	idx := strings.IndexAny(p.raw, globMeta)
	prefix := p.raw[:idx]
	if slash := strings.LastIndex(prefix, "/"); slash >= 0 {
		return prefix[:slash]
	}
	return ""
}

// PatternSet combines include and exclude patterns. Include patterns
// written with a "!" prefix are treated as excludes.
type PatternSet struct {
	include []Pattern
	exclude []Pattern
}

func NewPatternSet(include, exclude []string) (*PatternSet, error) {
	set := &PatternSet{}
	for _, raw := range include {
		p, err := CompilePattern(raw)
		if err != nil {
			return nil, err
		}
		if p.negated {
			set.exclude = append(set.exclude, p)
			continue
		}
		set.include = append(set.include, p)
	}
	for _, raw := range exclude {
		p, err := CompilePattern(raw)
		if err != nil {
			return nil, err
		}
		set.exclude = append(set.exclude, p)
	}
	return set, nil
}

// Match reports whether value is included and not excluded. An empty
// include list includes everything.
func (s *PatternSet) Match(value string) bool {
	if s.Excluded(value) {
		return false
	}
	if len(s.include) == 0 {
		return true
	}
	return MatchAny(s.include, value)
}

func (s *PatternSet) Excluded(value string) bool {
	return MatchAny(s.exclude, value)
}

// MayContain reports whether a directory could hold included paths, so
// walkers can prune unrelated subtrees.
func (s *PatternSet) MayContain(dir string) bool {
	if len(s.include) == 0 {
		return true
	}
	for _, p := range s.include {
		prefix := p.StaticPrefix()
		if prefix == "" || HasPathPrefix(dir, prefix) || HasPathPrefix(prefix, dir) {
			return true
		}
	}
	return false
}

// MatchAny reports whether any pattern matches value.
func MatchAny(patterns []Pattern, value string) bool {
	for _, p := range patterns {
		if p.Match(value) {
			return true
		}
	}
	return false
}

func CompilePatterns(raw []string) ([]Pattern, error) {
	out := make([]Pattern, 0, len(raw))
	for _, r := range raw {
		p, err := CompilePattern(r)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
