package architecture

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"archcheck/internal/core/errors"
	"archcheck/internal/engine/project"
	"archcheck/internal/shared/util"
)

// Kind names a rule family.
type Kind string

const (
	KindDependsOn                       Kind = "depends_on"
	KindOnlyDependsOn                   Kind = "only_depends_on"
	KindHaveCycles                      Kind = "have_cycles"
	KindHaveName                        Kind = "have_name"
	KindOnlyHaveName                    Kind = "only_have_name"
	KindLOCGreaterThan                  Kind = "loc_greater_than"
	KindLOCLessThan                     Kind = "loc_less_than"
	KindLOCGreaterOrEqualThan           Kind = "loc_greater_or_equal_than"
	KindTotalProjectCodeLessOrEqualThan Kind = "total_project_code_less_or_equal_than"
)

var kindPhrases = map[Kind]string{
	KindDependsOn:                       "depend on",
	KindOnlyDependsOn:                   "only depend on",
	KindHaveCycles:                      "have cycles",
	KindHaveName:                        "have name",
	KindOnlyHaveName:                    "only have name",
	KindLOCGreaterThan:                  "have LOC greater than",
	KindLOCLessThan:                     "have LOC less than",
	KindLOCGreaterOrEqualThan:           "have LOC greater or equal than",
	KindTotalProjectCodeLessOrEqualThan: "have total project code less or equal than",
}

// Rule is one declarative check. Files selects the files the rule applies
// to; Negated turns "should" into "should not".
type Rule struct {
	Name      string
	Files     string
	Kind      Kind
	Negated   bool
	Patterns  []string
	Threshold float64
}

// Kinds lists every supported rule kind.
func Kinds() []Kind {
	kinds := make([]Kind, 0, len(kindPhrases))
	for k := range kindPhrases {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Validate rejects malformed rules before any file is read.
func (r Rule) Validate() error {
	if _, ok := kindPhrases[r.Kind]; !ok {
		return r.invalid("unknown rule kind %q", r.Kind)
	}
	if strings.TrimSpace(r.Files) == "" {
		return r.invalid("rule needs a file selection")
	}
	if _, err := util.CompilePattern(r.Files); err != nil {
		return errors.AddContext(errors.Wrap(err, errors.CodeValidationError, "invalid file selection"), errors.CtxPattern, r.Files)
	}

	switch r.Kind {
	case KindHaveCycles:
		if !r.Negated {
			return errors.New(errors.CodeNotSupported, "'should have cycles' is not a supported rule, use 'should not have cycles'")
		}
	case KindDependsOn, KindOnlyDependsOn, KindHaveName, KindOnlyHaveName:
		if len(r.Patterns) == 0 {
			return r.invalid("rule %s needs at least one pattern", r.Kind)
		}
		for _, p := range r.Patterns {
			if _, err := util.CompilePattern(p); err != nil {
				return errors.AddContext(errors.Wrap(err, errors.CodeValidationError, "invalid rule pattern"), errors.CtxPattern, p)
			}
		}
	case KindLOCGreaterThan, KindLOCLessThan, KindLOCGreaterOrEqualThan:
		if r.Threshold <= 0 {
			return r.invalid("LOC threshold must be greater than 0, got %s", formatNumber(r.Threshold))
		}
	case KindTotalProjectCodeLessOrEqualThan:
		if r.Threshold <= 0 || r.Threshold > 1 {
			return r.invalid("percentage threshold must be in (0, 1], got %s", formatNumber(r.Threshold))
		}
	}
	return nil
}

func (r Rule) invalid(format string, args ...interface{}) error {
	err := errors.Newf(errors.CodeValidationError, format, args...)
	if r.Name != "" {
		err = errors.AddContext(err, errors.CtxRule, r.Name)
	}
	return err
}

// RequiredAnalysis is the project build a rule needs.
func (r Rule) RequiredAnalysis() project.AnalysisType {
	switch r.Kind {
	case KindHaveName, KindOnlyHaveName:
		return project.AnalysisName
	case KindLOCGreaterThan, KindLOCLessThan, KindLOCGreaterOrEqualThan:
		return project.AnalysisLOC
	case KindTotalProjectCodeLessOrEqualThan:
		return project.AnalysisSize
	default:
		return project.AnalysisDependencies
	}
}

// Description is the human-readable rule line, e.g.
// "files in '<rootDir>/src/domain/**' should not depend on 'express'".
func (r Rule) Description() string {
	var b strings.Builder
	if r.Name != "" {
		fmt.Fprintf(&b, "[%s] ", r.Name)
	}
	fmt.Fprintf(&b, "files in '%s' should ", r.Files)
	if r.Negated {
		b.WriteString("not ")
	}
	phrase, ok := kindPhrases[r.Kind]
	if !ok {
		phrase = string(r.Kind)
	}
	b.WriteString(phrase)

	switch r.Kind {
	case KindHaveCycles:
	case KindLOCGreaterThan, KindLOCLessThan, KindLOCGreaterOrEqualThan, KindTotalProjectCodeLessOrEqualThan:
		b.WriteString(" " + formatNumber(r.Threshold))
	default:
		quoted := make([]string, 0, len(r.Patterns))
		for _, p := range r.Patterns {
			quoted = append(quoted, "'"+p+"'")
		}
		b.WriteString(" " + strings.Join(quoted, ", "))
	}
	return b.String()
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
