package resolver

import (
	"log/slog"
	"path/filepath"

	"archcheck/internal/shared/util"
)

// AvailableFiles is the in-scope file universe path strategies must land in.
type AvailableFiles struct {
	paths []string
	set   map[string]struct{}
}

func NewAvailableFiles(paths []string) AvailableFiles {
	a := AvailableFiles{
		paths: make([]string, 0, len(paths)),
		set:   make(map[string]struct{}, len(paths)),
	}
	for _, p := range paths {
		key := canonicalPath(p)
		if _, ok := a.set[key]; ok {
			continue
		}
		a.set[key] = struct{}{}
		a.paths = append(a.paths, key)
	}
	return a
}

// Match returns the canonical in-scope path for candidate.
func (a AvailableFiles) Match(candidate string) (string, bool) {
	if candidate == "" {
		return "", false
	}
	key := canonicalPath(candidate)
	_, ok := a.set[key]
	return key, ok
}

func (a AvailableFiles) Paths() []string {
	out := make([]string, len(a.paths))
	copy(out, a.paths)
	return out
}

func (a AvailableFiles) Len() int { return len(a.paths) }

func canonicalPath(p string) string {
	return filepath.ToSlash(filepath.Clean(p))
}

// Environment is the per-project resolution state shared by every file of
// one project build. It is read-only once created.
type Environment struct {
	RootDir        string
	Available      AvailableFiles
	Extensions     []string
	TypeScriptPath string
	Manifest       *Manifest
	TSConfig       *TSConfig
}

// NewEnvironment loads the package manifest and TypeScript configuration for
// rootDir. Missing or broken configuration degrades to "not declared".
func NewEnvironment(rootDir string, available []string, extensions []string, typescriptPath string) *Environment {
	env := &Environment{
		RootDir:        rootDir,
		Available:      NewAvailableFiles(available),
		Extensions:     util.NormalizeExtensions(extensions),
		TypeScriptPath: typescriptPath,
		Manifest:       ReadManifest(rootDir),
	}
	if path := FindTSConfig(rootDir, typescriptPath); path != "" {
		cfg, err := LoadTSConfig(path)
		if err != nil {
			slog.Warn("ignoring unreadable tsconfig", "path", path, "error", err)
		} else {
			env.TSConfig = cfg
		}
	}
	return env
}

// For returns the resolution context of one importing file.
func (e *Environment) For(filePath string) Context {
	return Context{Environment: e, FilePath: filePath}
}

// Context is everything a strategy may consult for one dependency.
type Context struct {
	*Environment
	FilePath string
}

func (c Context) FileDir() string {
	return filepath.Dir(c.FilePath)
}
