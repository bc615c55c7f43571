package report

import (
	"archcheck/internal/core/app"
	"archcheck/internal/ui/report/formats"
)

// RenderSARIF converts run into a SARIF v2.1.0 document.
func RenderSARIF(run app.Run) ([]byte, error) {
	rules := make([]formats.RuleFinding, 0, len(run.Outcomes))
	for _, o := range run.Outcomes {
		finding := formats.RuleFinding{
			Name:        o.Rule.Name,
			Description: o.Rule.Description(),
		}
		switch {
		case o.Err != nil:
			finding.Error = o.Err.Error()
		case !o.Result.Passed:
			for _, v := range o.Result.Violations {
				finding.Violations = append(finding.Violations, formats.Finding{Path: v.Path, Message: v.Detail})
			}
		}
		rules = append(rules, finding)
	}
	return formats.GenerateSARIF(run.Root, rules)
}
