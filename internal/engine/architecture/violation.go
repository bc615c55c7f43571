package architecture

import (
	"fmt"
	"strings"

	"archcheck/internal/core/errors"
)

// Violation is one offending file and, when useful, what it failed.
type Violation struct {
	Path   string
	Detail string
}

func (v Violation) String() string {
	if v.Detail == "" {
		return fmt.Sprintf("- '%s'", v.Path)
	}
	return fmt.Sprintf("- '%s' (%s)", v.Path, v.Detail)
}

// ViolationError is returned by Check when a rule fails. Its message is the
// rule description followed by one line per offending file.
type ViolationError struct {
	Description string
	Violations  []Violation
}

func (e *ViolationError) Error() string {
	var b strings.Builder
	b.WriteString(e.Description)
	for _, v := range e.Violations {
		b.WriteByte('\n')
		b.WriteString(v.String())
	}
	return b.String()
}

func (e *ViolationError) ErrorCode() errors.ErrorCode {
	return errors.CodeRuleViolation
}

// Paths returns the offending paths in report order.
func (e *ViolationError) Paths() []string {
	out := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		out = append(out, v.Path)
	}
	return out
}
