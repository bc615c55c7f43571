package resolver

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var requireExtensions = []string{".js", ".json", ".node"}

// RequireResolver follows Node's require.resolve algorithm with module
// aliases supplied explicitly instead of through a process-wide table.
type RequireResolver struct {
	RootDir    string
	Aliases    map[string]string
	Extensions []string
}

// Resolve returns the absolute file a require(name) in fromDir would load.
func (r RequireResolver) Resolve(name, fromDir string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("empty module name")
	}
	if target, ok := r.expandAlias(name); ok {
		name = target
	}

	if isRelativeSpecifier(name) || filepath.IsAbs(name) {
		p := name
		if !filepath.IsAbs(p) {
			p = filepath.Join(fromDir, name)
		}
		if found, ok := r.loadAsFile(p); ok {
			return found, nil
		}
		if found, ok := r.loadAsDirectory(p); ok {
			return found, nil
		}
		return "", fmt.Errorf("cannot find module %q from %s", name, fromDir)
	}

	for dir := fromDir; ; dir = filepath.Dir(dir) {
		if filepath.Base(dir) != "node_modules" {
			p := filepath.Join(dir, "node_modules", name)
			if found, ok := r.loadAsFile(p); ok {
				return found, nil
			}
			if found, ok := r.loadAsDirectory(p); ok {
				return found, nil
			}
		}
		if filepath.Dir(dir) == dir {
			break
		}
	}
	return "", fmt.Errorf("cannot find module %q from %s", name, fromDir)
}

// expandAlias rewrites name when it equals an alias or starts with alias+"/".
// The longest alias wins.
func (r RequireResolver) expandAlias(name string) (string, bool) {
	best := ""
	for alias := range r.Aliases {
		if (name == alias || strings.HasPrefix(name, alias+"/")) && len(alias) > len(best) {
			best = alias
		}
	}
	if best == "" {
		return "", false
	}
	target := r.Aliases[best]
	if !filepath.IsAbs(target) {
		target = filepath.Join(r.RootDir, target)
	}
	return target + strings.TrimPrefix(name, best), true
}

func (r RequireResolver) loadAsFile(p string) (string, bool) {
	if isFile(p) {
		return p, true
	}
	for _, ext := range r.extensions() {
		if isFile(p + ext) {
			return p + ext, true
		}
	}
	return "", false
}

func (r RequireResolver) loadAsDirectory(p string) (string, bool) {
	if !isDir(p) {
		return "", false
	}
	if m, err := LoadManifest(p); err == nil && m.Main != "" {
		main := filepath.Join(p, m.Main)
		if found, ok := r.loadAsFile(main); ok {
			return found, true
		}
		if found, ok := r.loadIndex(main); ok {
			return found, true
		}
	}
	return r.loadIndex(p)
}

func (r RequireResolver) loadIndex(dir string) (string, bool) {
	for _, ext := range r.extensions() {
		index := filepath.Join(dir, "index"+ext)
		if isFile(index) {
			return index, true
		}
	}
	return "", false
}

func (r RequireResolver) extensions() []string {
	out := make([]string, 0, len(requireExtensions)+len(r.Extensions))
	out = append(out, requireExtensions...)
	for _, ext := range r.Extensions {
		dup := false
		for _, existing := range out {
			if existing == ext {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, ext)
		}
	}
	return out
}

func isRelativeSpecifier(name string) bool {
	return name == "." || name == ".." || strings.HasPrefix(name, "./") || strings.HasPrefix(name, "../")
}

func isFile(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}

func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}
