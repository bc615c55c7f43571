package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"archcheck/internal/core/errors"
	"archcheck/internal/engine/architecture"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, DefaultFile)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "app"), 0o755); err != nil {
		t.Fatal(err)
	}
	path := writeConfig(t, dir, `
version = 1

[project]
root_dir = "app"
include = ["<rootDir>/src/**", "!<rootDir>/src/**/*.test.js"]
extensions = [".js", ".ts"]
typescript_path = "tsconfig.build.json"

[[rules]]
name = "domain is framework free"
files = "<rootDir>/src/domain/**"
mode = "should_not"
kind = "depends_on"
patterns = ["express"]

[[rules]]
files = "<rootDir>/src/**"
kind = "loc_less_than"
threshold = 400

[history]
enabled = true

[observability]
metrics_file = "metrics.prom"

[watch]
debounce = "1s"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	root := filepath.Join(dir, "app")
	if cfg.Project.RootDir != root {
		t.Errorf("RootDir = %q, want %q", cfg.Project.RootDir, root)
	}
	if want := filepath.Join(root, "tsconfig.build.json"); cfg.Project.TypeScriptPath != want {
		t.Errorf("TypeScriptPath = %q, want %q", cfg.Project.TypeScriptPath, want)
	}
	if !reflect.DeepEqual(cfg.Project.Exclude, DefaultExclude) {
		t.Errorf("Exclude = %v, want defaults", cfg.Project.Exclude)
	}
	if want := []string{".js", ".ts"}; !reflect.DeepEqual(cfg.Project.Extensions, want) {
		t.Errorf("Extensions = %v, want %v", cfg.Project.Extensions, want)
	}
	if want := filepath.Join(root, ".archcheck", "history.db"); cfg.History.Path != want {
		t.Errorf("History.Path = %q, want %q", cfg.History.Path, want)
	}
	if want := filepath.Join(root, "metrics.prom"); cfg.Observability.MetricsFile != want {
		t.Errorf("MetricsFile = %q, want %q", cfg.Observability.MetricsFile, want)
	}
	if cfg.Watch.Debounce != time.Second || cfg.Watch.Rate != 1.0 {
		t.Errorf("unexpected watch settings %+v", cfg.Watch)
	}

	rules := cfg.ArchitectureRules()
	if len(rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(rules))
	}
	want := architecture.Rule{
		Name:     "domain is framework free",
		Files:    "<rootDir>/src/domain/**",
		Kind:     architecture.KindDependsOn,
		Negated:  true,
		Patterns: []string{"express"},
	}
	if !reflect.DeepEqual(rules[0], want) {
		t.Errorf("rules[0] = %+v, want %+v", rules[0], want)
	}
	if rules[1].Negated || rules[1].Kind != architecture.KindLOCLessThan || rules[1].Threshold != 400 {
		t.Errorf("unexpected rules[1] %+v", rules[1])
	}
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse(`
[[rules]]
files = "src/**"
kind = "have_cycles"
mode = "should_not"
`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cfg.Version != 1 || cfg.Project.RootDir != "." {
		t.Errorf("unexpected version/root: %d %q", cfg.Version, cfg.Project.RootDir)
	}
	if !reflect.DeepEqual(cfg.Project.Include, DefaultInclude) {
		t.Errorf("Include = %v", cfg.Project.Include)
	}
	if !reflect.DeepEqual(cfg.Project.Exclude, DefaultExclude) {
		t.Errorf("Exclude = %v", cfg.Project.Exclude)
	}
	if !reflect.DeepEqual(cfg.Project.Extensions, DefaultExtensions) {
		t.Errorf("Extensions = %v", cfg.Project.Extensions)
	}
	if cfg.Watch.Debounce != 500*time.Millisecond {
		t.Errorf("Debounce = %v", cfg.Watch.Debounce)
	}
	if cfg.History.Enabled {
		t.Error("history should be disabled by default")
	}
}

func TestParse_ExplicitEmptyExcludeIsKept(t *testing.T) {
	cfg, err := Parse(`
[project]
exclude = []
`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(cfg.Project.Exclude) != 0 {
		t.Errorf("expected empty exclude, got %v", cfg.Project.Exclude)
	}
}

func TestLoad_Errors(t *testing.T) {
	cases := []struct {
		name    string
		content string
		code    errors.ErrorCode
	}{
		{"BadTOML", "version = ", errors.CodeValidationError},
		{"BadVersion", "version = 3\n[[rules]]\nfiles='x'\nkind='have_cycles'\nmode='should_not'", errors.CodeValidationError},
		{"MissingRoot", "[project]\nroot_dir = 'nope'\n[[rules]]\nfiles='x'\nkind='have_cycles'\nmode='should_not'", errors.CodeValidationError},
		{"NoRules", "version = 1", errors.CodeValidationError},
		{"BadMode", "[[rules]]\nfiles='x'\nkind='have_cycles'\nmode='must'", errors.CodeValidationError},
		{"UnknownKind", "[[rules]]\nfiles='x'\nkind='be_pretty'", errors.CodeValidationError},
		{"ZeroLOC", "[[rules]]\nfiles='x'\nkind='loc_greater_than'\nthreshold=0", errors.CodeValidationError},
		{"BadPercentage", "[[rules]]\nfiles='x'\nkind='total_project_code_less_or_equal_than'\nthreshold=1.5", errors.CodeValidationError},
		{"ShouldHaveCycles", "[[rules]]\nfiles='x'\nkind='have_cycles'", errors.CodeNotSupported},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), tc.content)
			_, err := Load(path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.IsCode(err, tc.code) {
				t.Errorf("expected %s, got %v", tc.code, err)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if !errors.IsCode(err, errors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("ARCHCHECK_HISTORY_ENABLED", "true")
	t.Setenv("ARCHCHECK_WATCH_DEBOUNCE", "2s")
	t.Setenv("ARCHCHECK_WATCH_RATE", "not-a-number")

	cfg, err := Parse("[watch]\nrate = 3.0\n")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !cfg.History.Enabled {
		t.Error("expected history enabled from env")
	}
	if cfg.Watch.Debounce != 2*time.Second {
		t.Errorf("Debounce = %v, want 2s", cfg.Watch.Debounce)
	}
	if cfg.Watch.Rate != 3.0 {
		t.Errorf("Rate = %v, unparseable env should be ignored", cfg.Watch.Rate)
	}
}

func TestResolveRelative(t *testing.T) {
	cases := map[string]string{
		"":     filepath.Clean("/base"),
		"x":    filepath.Clean("/base/x"),
		"/abs": filepath.Clean("/abs"),
	}
	for value, want := range cases {
		if got := ResolveRelative("/base", value); got != want {
			t.Errorf("ResolveRelative(%q) = %q, want %q", value, got, want)
		}
	}
}
