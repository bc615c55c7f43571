package project

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"archcheck/internal/shared/util"
)

// walkFiles visits every in-scope file under root in directory-listing
// order. Directories are pruned when excluded or when no include pattern
// can match beneath them.
func walkFiles(root string, patterns *util.PatternSet, visit func(path string, info fs.FileInfo) error) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			slog.Warn("skipping unreadable path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		slashed := filepath.ToSlash(path)
		if d.IsDir() {
			if path == root {
				return nil
			}
			if patterns.Excluded(slashed) || patterns.Excluded(slashed+"/") || !patterns.MayContain(slashed) {
				return filepath.SkipDir
			}
			return nil
		}

		if !patterns.Match(slashed) {
			return nil
		}
		info, err := os.Stat(path)
		if err != nil {
			slog.Warn("skipping unreadable file", "path", path, "error", err)
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		return visit(slashed, info)
	})
}

// collectAvailable is the first pass: the full in-scope path list.
func collectAvailable(root string, patterns *util.PatternSet) ([]string, error) {
	var paths []string
	err := walkFiles(root, patterns, func(path string, _ fs.FileInfo) error {
		paths = append(paths, path)
		return nil
	})
	return paths, err
}
