package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"archcheck/internal/shared/util"
)

func scope(t *testing.T, root string) *util.PatternSet {
	t.Helper()
	patterns, err := util.NewPatternSet(
		[]string{util.ResolvePattern(root, "<rootDir>/**")},
		[]string{util.ResolvePattern(root, "<rootDir>/ignored/**")},
	)
	if err != nil {
		t.Fatal(err)
	}
	return patterns
}

func waitFor(t *testing.T, changed <-chan []string, want string) {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case paths := <-changed:
			for _, p := range paths {
				if p == want {
					return
				}
			}
		case <-timeout:
			t.Fatalf("timed out waiting for change of %s", want)
		}
	}
}

func TestNewWatcher_RejectsNilCallback(t *testing.T) {
	w, err := NewWatcher(100*time.Millisecond, nil, nil, nil)
	if err == nil {
		t.Fatal("expected error for nil callback")
	}
	if !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("expected os.ErrInvalid, got %v", err)
	}
	if w != nil {
		t.Fatal("expected nil watcher when callback is invalid")
	}
}

func TestWatcher(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(tmpDir, "ignored"), 0o755); err != nil {
		t.Fatal(err)
	}

	changedFiles := make(chan []string, 8)
	w, err := NewWatcher(100*time.Millisecond, scope(t, tmpDir), []string{".js", ".ts"}, func(paths []string) {
		changedFiles <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch([]string{tmpDir}); err != nil {
		t.Fatal(err)
	}

	testFile := filepath.Join(tmpDir, "index.js")
	if err := os.WriteFile(testFile, []byte("require('fs');\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, changedFiles, testFile)

	// Out-of-scope changes are dropped.
	for _, p := range []string{filepath.Join(tmpDir, "notes.md"), filepath.Join(tmpDir, "ignored", "x.js")} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	select {
	case paths := <-changedFiles:
		t.Errorf("unexpected change batch %v", paths)
	case <-time.After(500 * time.Millisecond):
	}

	// New directories are watched recursively once created.
	subdir := filepath.Join(tmpDir, "src", "domain")
	if err := os.MkdirAll(subdir, 0o755); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)
	subFile := filepath.Join(subdir, "Todo.ts")
	if err := os.WriteFile(subFile, []byte("export class Todo {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, changedFiles, subFile)
}

func TestWatcher_RenameTriggersChange(t *testing.T) {
	tmpDir := t.TempDir()

	changedFiles := make(chan []string, 8)
	w, err := NewWatcher(100*time.Millisecond, nil, nil, func(paths []string) {
		changedFiles <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch([]string{tmpDir}); err != nil {
		t.Fatal(err)
	}

	oldPath := filepath.Join(tmpDir, "old.js")
	newPath := filepath.Join(tmpDir, "new.js")
	if err := os.WriteFile(oldPath, []byte("module.exports = 1;\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(oldPath, newPath); err != nil {
		t.Fatal(err)
	}

	timeout := time.After(2 * time.Second)
	for {
		select {
		case paths := <-changedFiles:
			for _, p := range paths {
				if p == oldPath || p == newPath {
					return
				}
			}
		case <-timeout:
			t.Fatalf("timed out waiting for rename event, old=%s new=%s", oldPath, newPath)
		}
	}
}

func TestWatcher_Filters(t *testing.T) {
	root := t.TempDir()
	w, err := NewWatcher(10*time.Millisecond, scope(t, root), []string{"js"}, func([]string) {})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if !w.shouldExcludeFile(filepath.Join(root, "main.py")) {
		t.Fatal("expected .py to be excluded when .js is the only extension")
	}
	if w.shouldExcludeFile(filepath.Join(root, "src", "main.js")) {
		t.Fatal("expected in-scope .js file to be included")
	}
	if !w.shouldExcludeFile(filepath.Join(root, "ignored", "main.js")) {
		t.Fatal("expected excluded directory to be filtered")
	}
	if w.shouldExcludeFile(filepath.Join(root, "package.json")) {
		t.Fatal("expected package.json to trigger a run")
	}

	if !w.shouldExcludeFile(filepath.Join(root, "archcheck.toml")) {
		t.Fatal("expected config to be ignored before it is registered")
	}
	w.AddTrigger("archcheck.toml")
	if w.shouldExcludeFile(filepath.Join(root, "archcheck.toml")) {
		t.Fatal("expected registered config file to trigger a run")
	}
	if !w.shouldExcludeDir(filepath.Join(root, "ignored")) {
		t.Fatal("expected ignored directory to be pruned")
	}
}
