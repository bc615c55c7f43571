package formats

import (
	"encoding/json"
	"strings"
	"testing"

	"archcheck/internal/engine/graph"
)

func TestGenerateSARIF_PassingRulesHaveNoResults(t *testing.T) {
	data, err := GenerateSARIF("/project", []RuleFinding{{Name: "naming", Description: "[naming] files in 'src/**' should have name '*.js'"}})
	if err != nil {
		t.Fatalf("GenerateSARIF returned error: %v", err)
	}
	var report sarifReport
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if report.Schema != sarifSchema || report.Version != sarifVersion {
		t.Errorf("unexpected header %q %q", report.Schema, report.Version)
	}
	if len(report.Runs) != 1 {
		t.Fatalf("len(runs) = %d, want 1", len(report.Runs))
	}
	run := report.Runs[0]
	if len(run.Tool.Driver.Rules) != 1 || run.Tool.Driver.Rules[0].ID != "ARCH001" {
		t.Fatalf("unexpected driver rules %+v", run.Tool.Driver.Rules)
	}
	if len(run.Results) != 0 {
		t.Errorf("expected 0 results, got %d", len(run.Results))
	}
}

func TestGenerateSARIF_ViolationsAndErrors(t *testing.T) {
	rules := []RuleFinding{
		{Name: "ok", Description: "ok rule"},
		{
			Description: "[] files in 'src/domain/**' should not depend on '**/infra/**'",
			Violations: []Finding{
				{Path: "/project/src/domain/order.js", Message: "depends on '/project/src/infra/db.js'"},
				{Path: "/project/src/domain/user.js"},
			},
		},
		{Name: "broken", Description: "broken rule", Error: "NO_FILES_FOUND: nothing"},
	}
	data, err := GenerateSARIF("/project", rules)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var report sarifReport
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	driver := report.Runs[0].Tool.Driver
	if driver.Name != "archcheck" || len(driver.Rules) != 3 {
		t.Fatalf("unexpected driver %+v", driver)
	}
	if driver.Rules[1].Name != "ARCH002" {
		t.Errorf("unnamed rule should fall back to its ID, got %q", driver.Rules[1].Name)
	}

	results := report.Runs[0].Results
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	first := results[0]
	if first.RuleID != "ARCH002" || first.RuleIndex != 1 || first.Level != "error" {
		t.Errorf("unexpected first result %+v", first)
	}
	uri := first.Locations[0].PhysicalLocation.ArtifactLocation
	if uri.URI != "src/domain/order.js" || uri.URIBaseID != srcRoot {
		t.Errorf("unexpected location %+v", uri)
	}
	if !strings.Contains(first.Message.Text, "depends on") {
		t.Errorf("message %q lacks the violation detail", first.Message.Text)
	}
	if results[1].Message.Text != rules[1].Description {
		t.Errorf("violation without detail should use the description, got %q", results[1].Message.Text)
	}

	broken := results[2]
	if broken.RuleID != "ARCH003" || len(broken.Locations) != 0 {
		t.Errorf("unexpected error result %+v", broken)
	}
	if !strings.Contains(broken.Message.Text, "NO_FILES_FOUND") {
		t.Errorf("error result should carry the error, got %q", broken.Message.Text)
	}
}

func TestRelativePath(t *testing.T) {
	cases := []struct {
		root, path, want string
	}{
		{"/project", "/project/src/a.js", "src/a.js"},
		{"/project", "/elsewhere/a.js", "/elsewhere/a.js"},
		{"", "/project/a.js", "/project/a.js"},
		{"/project", "src/a.js", "src/a.js"},
	}
	for _, tc := range cases {
		if got := RelativePath(tc.root, tc.path); got != tc.want {
			t.Errorf("RelativePath(%q, %q) = %q, want %q", tc.root, tc.path, got, tc.want)
		}
	}
}

func cycleGraph() *graph.Graph {
	g := graph.NewGraph()
	for _, n := range []string{"/p/a.js", "/p/b.js", "/p/c.js"} {
		g.AddNode(n)
	}
	g.AddEdge("/p/a.js", "/p/b.js", "./b")
	g.AddEdge("/p/b.js", "/p/a.js", "./a")
	g.AddEdge("/p/b.js", "/p/c.js", "./c")
	return g
}

func TestGraphGenerator_DOT(t *testing.T) {
	gen := NewGraphGenerator(cycleGraph(), "/p")
	gen.SetCycle([]string{"/p/a.js", "/p/b.js", "/p/a.js"})
	out := gen.DOT()

	if !strings.HasPrefix(out, "digraph dependencies {") {
		t.Fatalf("missing header: %s", out)
	}
	if !strings.Contains(out, "\"a.js\" -> \"b.js\" [color=\"red\"") {
		t.Errorf("cycle edge not highlighted: %s", out)
	}
	if !strings.Contains(out, "\"b.js\" -> \"c.js\" [color=\"forestgreen\"]") {
		t.Errorf("plain edge missing: %s", out)
	}
	if !strings.Contains(out, "\"c.js\" [color=\"darkslategrey\"]") {
		t.Errorf("node outside the cycle should not be highlighted: %s", out)
	}
}

func TestGraphGenerator_Mermaid(t *testing.T) {
	gen := NewGraphGenerator(cycleGraph(), "/p")
	gen.SetCycle([]string{"/p/a.js", "/p/b.js", "/p/a.js"})
	out := gen.Mermaid()

	for _, want := range []string{
		"flowchart LR\n",
		"  a_js[\"a.js\"]\n",
		"  a_js --> b_js\n",
		"  b_js --> c_js\n",
		"  linkStyle 0,1 stroke:#F87171,stroke-width:3px\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestMakeIDs_Unique(t *testing.T) {
	ids := makeIDs([]string{"a.js", "a_js", "1.js"})
	if ids["a.js"] != "a_js" || ids["a_js"] != "a_js_2" {
		t.Errorf("unexpected ids %v", ids)
	}
	if ids["1.js"] != "n_1_js" {
		t.Errorf("leading digit not prefixed: %v", ids)
	}
}
