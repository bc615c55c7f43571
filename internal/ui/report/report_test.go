package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"archcheck/internal/core/app"
	"archcheck/internal/data/history"
	"archcheck/internal/engine/architecture"
	"archcheck/internal/engine/graph"
)

func sampleRun() app.Run {
	isolated := architecture.Rule{
		Name:     "domain-isolated",
		Files:    "src/domain/**",
		Kind:     architecture.KindDependsOn,
		Negated:  true,
		Patterns: []string{"**/infra/**"},
	}
	naming := architecture.Rule{
		Files:    "src/infra/**",
		Kind:     architecture.KindHaveName,
		Patterns: []string{"*.js"},
	}
	missing := architecture.Rule{
		Name:     "missing",
		Files:    "src/missing/**",
		Kind:     architecture.KindHaveName,
		Patterns: []string{"*.js"},
	}
	return app.Run{
		Root:     "/project",
		Duration: 12 * time.Millisecond,
		Outcomes: []app.Outcome{
			{
				Position: 0,
				Rule:     isolated,
				Result: architecture.Result{
					Rule:     isolated,
					Selected: 1,
					Violations: []architecture.Violation{
						{Path: "/project/src/domain/order.js", Detail: "depends on '/project/src/infra/db.js' matching '**/infra/**'"},
					},
				},
			},
			{Position: 1, Rule: naming, Result: architecture.Result{Rule: naming, Passed: true, Selected: 1}},
			{Position: 2, Rule: missing, Err: errors.New("NO_FILES_FOUND: no files found matching 'src/missing/**'")},
		},
		Deltas: []history.RuleDelta{
			{Key: "domain-isolated", Known: true, PreviousPassed: true, Passed: false, Violations: 1, Delta: 1},
		},
	}
}

func TestRenderText(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderText(&buf, sampleRun(), TextOptions{}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	for _, want := range []string{
		"[domain-isolated] files in 'src/domain/**' should not depend on '**/infra/**'",
		"- 'src/domain/order.js' (depends on '/project/src/infra/db.js' matching '**/infra/**')",
		"NO_FILES_FOUND",
		"regressed",
		"2 of 3 rules failed",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "PASS") {
		t.Errorf("passing rules should be hidden without verbose:\n%s", out)
	}

	buf.Reset()
	if err := RenderText(&buf, sampleRun(), TextOptions{Verbose: true}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "PASS") {
		t.Errorf("verbose output should list passing rules:\n%s", buf.String())
	}
}

func TestRenderText_AllPassed(t *testing.T) {
	run := app.Run{Root: "/project"}
	var buf bytes.Buffer
	if err := RenderText(&buf, run, TextOptions{}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "0 of 0 rules passed") {
		t.Errorf("unexpected summary:\n%s", buf.String())
	}
}

func TestRenderSARIF(t *testing.T) {
	data, err := RenderSARIF(sampleRun())
	if err != nil {
		t.Fatal(err)
	}
	var doc struct {
		Runs []struct {
			Results []struct {
				RuleID    string `json:"ruleId"`
				Locations []struct {
					PhysicalLocation struct {
						ArtifactLocation struct {
							URI string `json:"uri"`
						} `json:"artifactLocation"`
					} `json:"physicalLocation"`
				} `json:"locations"`
			} `json:"results"`
		} `json:"runs"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	results := doc.Runs[0].Results
	if len(results) != 2 {
		t.Fatalf("expected a violation and an error result, got %d", len(results))
	}
	if results[0].RuleID != "ARCH001" || results[0].Locations[0].PhysicalLocation.ArtifactLocation.URI != "src/domain/order.js" {
		t.Errorf("unexpected violation result %+v", results[0])
	}
	if results[1].RuleID != "ARCH003" {
		t.Errorf("unexpected error result %+v", results[1])
	}
}

func TestRenderTrend(t *testing.T) {
	points := []history.TrendPoint{
		{RunID: "r1", StartedAt: time.Date(2026, 2, 12, 0, 0, 0, 0, time.UTC), FailedRules: 1, Violations: 3},
		{RunID: "r2", StartedAt: time.Date(2026, 2, 13, 0, 0, 0, 0, time.UTC), Passed: true, DeltaFailed: -1, DeltaViolations: -3},
	}

	tsv, err := RenderTrendTSV(points)
	if err != nil {
		t.Fatalf("render tsv: %v", err)
	}
	body := string(tsv)
	if !strings.HasPrefix(body, "Timestamp\tRun\tPassed") {
		t.Fatalf("missing header in output: %s", body)
	}
	if !strings.Contains(body, "2026-02-13T00:00:00Z\tr2\ttrue\t0\t0\t-1\t-3\n") {
		t.Fatalf("missing row values in output: %s", body)
	}

	js, err := RenderTrendJSON(points)
	if err != nil {
		t.Fatalf("render json: %v", err)
	}
	var decoded []map[string]any
	if err := json.Unmarshal(js, &decoded); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(decoded) != 2 || decoded[0]["run_id"] != "r1" {
		t.Fatalf("unexpected json %s", js)
	}
}

func TestRenderChainAndImpact(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderChain(&buf, "/project", []string{"/project/a.js", "/project/b.js"}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "→ b.js") {
		t.Errorf("unexpected chain output:\n%s", buf.String())
	}

	buf.Reset()
	report := graph.ImpactReport{
		Target:              "/project/db.js",
		DirectImporters:     []string{"/project/repo.js"},
		TransitiveImporters: []string{"/project/service.js"},
	}
	if err := RenderImpact(&buf, "/project", report); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"impact of db.js", "direct importers (1)", "  repo.js", "transitive importers (1)", "  service.js"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("missing %q in:\n%s", want, buf.String())
		}
	}
}

func TestRenderGraph(t *testing.T) {
	g := graph.NewGraph()
	g.AddNode("/project/a.js")
	g.AddNode("/project/b.js")
	g.AddEdge("/project/a.js", "/project/b.js", "./b")

	out, err := RenderGraph(g, "/project", "mermaid")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "a_js --> b_js") {
		t.Errorf("unexpected mermaid output:\n%s", out)
	}
	if _, err := RenderGraph(g, "/project", "svg"); err == nil {
		t.Error("expected error for unknown format")
	}
}
