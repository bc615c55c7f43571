package config

import (
	"strings"
	"time"

	"archcheck/internal/engine/architecture"
)

// DefaultFile is the configuration file looked up when none is given.
const DefaultFile = "archcheck.toml"

type Config struct {
	Version       int           `toml:"version"`
	Project       Project       `toml:"project"`
	Rules         []Rule        `toml:"rules"`
	History       History       `toml:"history"`
	Observability Observability `toml:"observability"`
	Watch         Watch         `toml:"watch"`
}

// Project is the file scope every rule is evaluated against.
type Project struct {
	RootDir        string   `toml:"root_dir"`
	Include        []string `toml:"include"`
	Exclude        []string `toml:"exclude"`
	Extensions     []string `toml:"extensions"`
	TypeScriptPath string   `toml:"typescript_path"`
}

type Rule struct {
	Name      string   `toml:"name"`
	Files     string   `toml:"files"`
	Mode      string   `toml:"mode"`
	Kind      string   `toml:"kind"`
	Patterns  []string `toml:"patterns"`
	Threshold float64  `toml:"threshold"`
}

const (
	ModeShould    = "should"
	ModeShouldNot = "should_not"
)

type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

type Observability struct {
	MetricsFile  string `toml:"metrics_file"`
	OTLPEndpoint string `toml:"otlp_endpoint"`
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
	Rate     float64       `toml:"rate"`
}

// ArchitectureRule converts the TOML rule into the rule engine's form.
func (r Rule) ArchitectureRule() architecture.Rule {
	return architecture.Rule{
		Name:      strings.TrimSpace(r.Name),
		Files:     strings.TrimSpace(r.Files),
		Kind:      architecture.Kind(strings.ToLower(strings.TrimSpace(r.Kind))),
		Negated:   strings.EqualFold(strings.TrimSpace(r.Mode), ModeShouldNot),
		Patterns:  append([]string(nil), r.Patterns...),
		Threshold: r.Threshold,
	}
}

func (c *Config) ArchitectureRules() []architecture.Rule {
	out := make([]architecture.Rule, 0, len(c.Rules))
	for _, r := range c.Rules {
		out = append(out, r.ArchitectureRule())
	}
	return out
}
