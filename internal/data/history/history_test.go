package history

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func sampleRun(started time.Time, violations ...string) Run {
	return Run{
		StartedAt: started,
		Duration:  1500 * time.Millisecond,
		Passed:    len(violations) == 0,
		Rules: []RuleResult{
			{Name: "no-cycles", Description: "files in 'src/**' should not have cycles", Kind: "have_cycles", Negated: true, Passed: true, Selected: 10},
			{Description: "files in 'src/domain/**' should not depend on 'express'", Kind: "depends_on", Negated: true, Passed: len(violations) == 0, Selected: 4, Violations: violations},
		},
	}
}

func TestStore_SaveLoadRuns(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()
	ctx := context.Background()

	base := time.Date(2026, 2, 13, 10, 0, 0, 0, time.UTC)
	firstID, err := store.SaveRun(ctx, sampleRun(base))
	if err != nil {
		t.Fatalf("save first run: %v", err)
	}
	if firstID == "" {
		t.Fatal("expected generated run id")
	}
	if _, err := store.SaveRun(ctx, sampleRun(base.Add(time.Hour), "- '/p/src/domain/a.js'", "- '/p/src/domain/b.js'")); err != nil {
		t.Fatalf("save second run: %v", err)
	}

	all, err := store.LoadRuns(ctx, "", time.Time{}, 0)
	if err != nil {
		t.Fatalf("load runs: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(all))
	}
	if all[0].ID != firstID || !all[0].Passed {
		t.Fatalf("expected first run first, got %+v", all[0])
	}
	second := all[1]
	if second.Passed || second.Duration != 1500*time.Millisecond {
		t.Fatalf("unexpected second run %+v", second)
	}
	if len(second.Rules) != 2 || second.Rules[0].Name != "no-cycles" || !second.Rules[0].Negated {
		t.Fatalf("rule results did not roundtrip: %+v", second.Rules)
	}
	if got := second.Rules[1].Violations; len(got) != 2 || got[1] != "- '/p/src/domain/b.js'" {
		t.Fatalf("violations did not roundtrip: %v", got)
	}

	latest, ok, err := store.LatestRun(ctx, "default")
	if err != nil || !ok {
		t.Fatalf("latest run: %v %v", ok, err)
	}
	if latest.ID != second.ID {
		t.Fatalf("expected latest run %s, got %s", second.ID, latest.ID)
	}

	recent, err := store.LoadRuns(ctx, "", base.Add(30*time.Minute), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 1 {
		t.Fatalf("expected 1 run after since filter, got %d", len(recent))
	}
}

func TestStore_ProjectIsolation(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()

	a := sampleRun(time.Now())
	a.ProjectKey = "/work/a"
	if _, err := store.SaveRun(ctx, a); err != nil {
		t.Fatal(err)
	}

	runs, err := store.LoadRuns(ctx, "/work/b", time.Time{}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 0 {
		t.Fatalf("expected no runs for other project, got %d", len(runs))
	}
	if _, ok, err := store.LatestRun(ctx, "/work/b"); ok || err != nil {
		t.Fatalf("expected no latest run, got %v %v", ok, err)
	}
}

func TestStore_OpenRejectsDirectoryPath(t *testing.T) {
	tmpDir := t.TempDir()
	_, err := Open(tmpDir)
	if err == nil {
		t.Fatal("expected open error for directory path")
	}
	if !strings.Contains(err.Error(), "is a directory") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStore_OpenCorruptDBPath(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "history.db")
	if err := os.WriteFile(path, []byte("this is not sqlite"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Open(path)
	if err == nil {
		t.Fatal("expected sqlite open error")
	}
	lower := strings.ToLower(err.Error())
	if !strings.Contains(lower, "not a database") && !strings.Contains(lower, "schema") {
		t.Fatalf("expected schema/open error, got: %v", err)
	}
}

func TestEnsureSchema_DetectsNewerVersionDrift(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	if _, err := store.db.Exec(`INSERT OR REPLACE INTO schema_migrations(version) VALUES (?)`, SchemaVersion+1); err != nil {
		t.Fatal(err)
	}

	db, err := sql.Open(driverName, "file:"+path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	err = EnsureSchema(db)
	if err == nil {
		t.Fatal("expected drift error")
	}
	if !strings.Contains(err.Error(), "newer than supported") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCompareRuns(t *testing.T) {
	base := time.Date(2026, 2, 13, 10, 0, 0, 0, time.UTC)
	prev := sampleRun(base)
	curr := sampleRun(base.Add(time.Hour), "- 'a'", "- 'b'")
	curr.Rules = append(curr.Rules, RuleResult{Name: "new", Passed: true})

	deltas := CompareRuns(prev, curr)
	if len(deltas) != 3 {
		t.Fatalf("expected 3 deltas, got %d", len(deltas))
	}
	if deltas[0].Key != "no-cycles" || deltas[0].Delta != 0 || deltas[0].Regressed() {
		t.Fatalf("unexpected delta for unchanged rule: %+v", deltas[0])
	}
	if !deltas[1].Regressed() || deltas[1].Delta != 2 {
		t.Fatalf("expected regression with +2, got %+v", deltas[1])
	}
	if deltas[2].Known {
		t.Fatalf("expected unknown delta for new rule, got %+v", deltas[2])
	}

	back := CompareRuns(curr, prev)
	if !back[1].Fixed() || back[1].Delta != -2 {
		t.Fatalf("expected fix with -2, got %+v", back[1])
	}
}

func TestBuildTrend(t *testing.T) {
	base := time.Date(2026, 2, 13, 10, 0, 0, 0, time.UTC)
	points, err := BuildTrend([]Run{
		sampleRun(base),
		sampleRun(base.Add(time.Hour), "- 'a'", "- 'b'", "- 'c'"),
		sampleRun(base.Add(2*time.Hour), "- 'a'"),
	})
	if err != nil {
		t.Fatalf("build trend: %v", err)
	}
	if points[1].Violations != 3 || points[1].DeltaViolations != 3 || points[1].DeltaFailed != 1 {
		t.Fatalf("unexpected second point %+v", points[1])
	}
	if points[2].DeltaViolations != -2 || points[2].DeltaFailed != 0 {
		t.Fatalf("unexpected third point %+v", points[2])
	}

	if _, err := BuildTrend(nil); err == nil {
		t.Fatal("expected error for empty trend")
	}
}

func TestIsCorruptError(t *testing.T) {
	if !IsCorruptError(errors.New("database disk image is malformed")) {
		t.Fatal("expected malformed sqlite message to be treated as corrupt")
	}
}
