package history

import "time"

const SchemaVersion = 1

// Run is one invocation of the configured rules against a project.
type Run struct {
	ID         string        `json:"id"`
	ProjectKey string        `json:"project_key"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
	Passed     bool          `json:"passed"`
	Rules      []RuleResult  `json:"rules"`
}

// RuleResult is the stored outcome of one rule within a run.
type RuleResult struct {
	Position    int      `json:"position"`
	Name        string   `json:"name,omitempty"`
	Description string   `json:"description"`
	Kind        string   `json:"kind"`
	Negated     bool     `json:"negated"`
	Passed      bool     `json:"passed"`
	Selected    int      `json:"selected"`
	Error       string   `json:"error,omitempty"`
	Violations  []string `json:"violations,omitempty"`
}

// Key identifies a rule across runs.
func (r RuleResult) Key() string {
	if r.Name != "" {
		return r.Name
	}
	return r.Description
}

func (r Run) ViolationCount() int {
	total := 0
	for _, rule := range r.Rules {
		if !rule.Passed {
			total += len(rule.Violations)
		}
	}
	return total
}

func (r Run) FailedCount() int {
	failed := 0
	for _, rule := range r.Rules {
		if !rule.Passed {
			failed++
		}
	}
	return failed
}
