package formats

import (
	"encoding/json"
	"fmt"

	"archcheck/internal/shared/version"
)

// SARIF v2.1.0 schema – see https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json

const (
	sarifSchema  = "https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json"
	sarifVersion = "2.1.0"
	srcRoot      = "%SRCROOT%"
)

type sarifReport struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Rules   []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string                 `json:"id"`
	Name             string                 `json:"name"`
	ShortDescription sarifMessage           `json:"shortDescription"`
	DefaultConfig    sarifRuleDefaultConfig `json:"defaultConfiguration"`
}

type sarifRuleDefaultConfig struct {
	Level string `json:"level"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	RuleIndex int             `json:"ruleIndex"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
}

type sarifArtifactLocation struct {
	URI       string `json:"uri"`
	URIBaseID string `json:"uriBaseId"`
}

// RuleFinding is one configured rule and what it reported.
type RuleFinding struct {
	Name        string
	Description string
	// Error is set when the rule could not be evaluated.
	Error      string
	Violations []Finding
}

// Finding is one offending file.
type Finding struct {
	Path    string
	Message string
}

// RuleID is the stable SARIF identifier of the rule at position.
func RuleID(position int) string {
	return fmt.Sprintf("ARCH%03d", position+1)
}

// GenerateSARIF builds a SARIF v2.1.0 document with one driver rule per
// configured rule and one result per violation. Passing rules produce no
// results. File URIs are relative to projectRoot.
func GenerateSARIF(projectRoot string, rules []RuleFinding) ([]byte, error) {
	driverRules := make([]sarifRule, 0, len(rules))
	results := make([]sarifResult, 0)

	for i, rule := range rules {
		id := RuleID(i)
		name := rule.Name
		if name == "" {
			name = id
		}
		driverRules = append(driverRules, sarifRule{
			ID:               id,
			Name:             name,
			ShortDescription: sarifMessage{Text: rule.Description},
			DefaultConfig:    sarifRuleDefaultConfig{Level: "error"},
		})

		if rule.Error != "" {
			results = append(results, sarifResult{
				RuleID:    id,
				RuleIndex: i,
				Level:     "error",
				Message:   sarifMessage{Text: fmt.Sprintf("%s: %s", rule.Description, rule.Error)},
			})
			continue
		}
		for _, v := range rule.Violations {
			msg := rule.Description
			if v.Message != "" {
				msg = fmt.Sprintf("%s: %s", rule.Description, v.Message)
			}
			results = append(results, sarifResult{
				RuleID:    id,
				RuleIndex: i,
				Level:     "error",
				Message:   sarifMessage{Text: msg},
				Locations: []sarifLocation{fileLocation(projectRoot, v.Path)},
			})
		}
	}

	report := sarifReport{
		Schema:  sarifSchema,
		Version: sarifVersion,
		Runs: []sarifRun{
			{
				Tool: sarifTool{
					Driver: sarifDriver{
						Name:    "archcheck",
						Version: version.Version,
						Rules:   driverRules,
					},
				},
				Results: results,
			},
		},
	}
	return json.MarshalIndent(report, "", "  ")
}

func fileLocation(projectRoot, filePath string) sarifLocation {
	return sarifLocation{
		PhysicalLocation: sarifPhysicalLocation{
			ArtifactLocation: sarifArtifactLocation{
				URI:       RelativePath(projectRoot, filePath),
				URIBaseID: srcRoot,
			},
		},
	}
}
