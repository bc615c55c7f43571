package resolver

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"archcheck/internal/shared/util"

	"github.com/tailscale/hujson"
)

const (
	tsconfigFile    = "tsconfig.json"
	maxExtendsDepth = 16
)

var tsExtensions = []string{".ts", ".tsx", ".d.ts", ".js", ".jsx"}

// TSConfig holds the module-resolution settings of a tsconfig.json after
// its extends chain has been applied.
type TSConfig struct {
	Path string
	// BaseURL is absolute, or empty when no config in the chain sets it.
	BaseURL string
	Paths   map[string][]string
	// PathsBase is the directory paths targets are relative to.
	PathsBase string
}

type rawTSConfig struct {
	Extends         string `json:"extends"`
	CompilerOptions struct {
		BaseURL *string             `json:"baseUrl"`
		Paths   map[string][]string `json:"paths"`
	} `json:"compilerOptions"`
}

// cachedTSConfig is a merged config and the stamps of every file in its
// extends chain, child first.
type cachedTSConfig struct {
	chain []fileStamp
	value *TSConfig
}

type fileStamp struct {
	path    string
	modTime time.Time
	size    int64
}

func stampFile(path string) (fileStamp, error) {
	info, err := os.Stat(path)
	if err != nil {
		return fileStamp{}, err
	}
	return fileStamp{path: path, modTime: info.ModTime(), size: info.Size()}, nil
}

func (c cachedTSConfig) fresh() bool {
	for _, want := range c.chain {
		got, err := stampFile(want.path)
		if err != nil || !got.modTime.Equal(want.modTime) || got.size != want.size {
			return false
		}
	}
	return true
}

var tsconfigCache = util.NewLRUCache[string, cachedTSConfig](32)

// FindTSConfig returns explicit when set (relative to rootDir), otherwise the
// nearest tsconfig.json walking up from rootDir. It returns "" when none exists.
func FindTSConfig(rootDir, explicit string) string {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		if !filepath.IsAbs(explicit) {
			explicit = filepath.Join(rootDir, explicit)
		}
		if isFile(explicit) {
			return explicit
		}
		return ""
	}
	dir := rootDir
	for {
		candidate := filepath.Join(dir, tsconfigFile)
		if isFile(candidate) {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// LoadTSConfig parses path and every config it extends. Cached results are
// reused until any file of the chain changes.
func LoadTSConfig(path string) (*TSConfig, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	if cached, ok := tsconfigCache.Get(path); ok && cached.fresh() {
		return cached.value, nil
	}

	cfg := &TSConfig{Path: path}
	var chain []fileStamp
	if err := mergeTSConfig(cfg, path, 0, &chain); err != nil {
		return nil, err
	}
	tsconfigCache.Put(path, cachedTSConfig{chain: chain, value: cfg})
	return cfg, nil
}

// mergeTSConfig applies path's chain to cfg, parents first so that the
// child's settings win, and records a stamp for every file it reads.
func mergeTSConfig(cfg *TSConfig, path string, depth int, chain *[]fileStamp) error {
	if depth > maxExtendsDepth {
		return fmt.Errorf("tsconfig extends chain too deep at %s", path)
	}
	stamp, err := stampFile(path)
	if err != nil {
		return err
	}
	*chain = append(*chain, stamp)
	raw, err := readTSConfig(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)

	if raw.Extends != "" {
		parent := resolveExtends(dir, raw.Extends)
		if parent == "" {
			slog.Debug("tsconfig extends target not found", "config", path, "extends", raw.Extends)
		} else if err := mergeTSConfig(cfg, parent, depth+1, chain); err != nil {
			return err
		}
	}

	if raw.CompilerOptions.BaseURL != nil {
		cfg.BaseURL = filepath.Join(dir, *raw.CompilerOptions.BaseURL)
	}
	if raw.CompilerOptions.Paths != nil {
		cfg.Paths = raw.CompilerOptions.Paths
		cfg.PathsBase = dir
	}
	if cfg.BaseURL != "" {
		cfg.PathsBase = cfg.BaseURL
	}
	return nil
}

func readTSConfig(path string) (*rawTSConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	std, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	var raw rawTSConfig
	if err := json.Unmarshal(std, &raw); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &raw, nil
}

func resolveExtends(dir, extends string) string {
	var candidates []string
	if strings.HasPrefix(extends, ".") || filepath.IsAbs(extends) {
		base := extends
		if !filepath.IsAbs(base) {
			base = filepath.Join(dir, extends)
		}
		candidates = []string{base, base + ".json"}
	} else {
		for d := dir; ; d = filepath.Dir(d) {
			pkg := filepath.Join(d, "node_modules", extends)
			candidates = append(candidates, pkg, pkg+".json", filepath.Join(pkg, tsconfigFile))
			if filepath.Dir(d) == d {
				break
			}
		}
	}
	for _, c := range candidates {
		if isFile(c) {
			return c
		}
	}
	return ""
}

// Resolve maps an import written in fromFile to an existing file using the
// baseUrl/paths settings, mirroring the compiler's classic node resolution.
func (c *TSConfig) Resolve(name, fromFile string) (string, bool) {
	if c == nil || name == "" {
		return "", false
	}
	if isRelativeSpecifier(name) {
		return tryTSFile(filepath.Join(filepath.Dir(fromFile), name))
	}
	if filepath.IsAbs(name) {
		return tryTSFile(name)
	}
	for _, pattern := range c.sortedPathPatterns() {
		star, ok := matchPathPattern(pattern, name)
		if !ok {
			continue
		}
		for _, target := range c.Paths[pattern] {
			candidate := filepath.Join(c.PathsBase, strings.Replace(target, "*", star, 1))
			if found, ok := tryTSFile(candidate); ok {
				return found, true
			}
		}
	}
	if c.BaseURL != "" {
		return tryTSFile(filepath.Join(c.BaseURL, name))
	}
	return "", false
}

// sortedPathPatterns orders patterns by specificity: exact keys first, then
// wildcard keys by longest prefix.
func (c *TSConfig) sortedPathPatterns() []string {
	keys := util.SortedStringKeys(c.Paths)
	sort.SliceStable(keys, func(i, j int) bool {
		return patternPrefixLen(keys[i]) > patternPrefixLen(keys[j])
	})
	return keys
}

func patternPrefixLen(pattern string) int {
	idx := strings.Index(pattern, "*")
	if idx < 0 {
		return len(pattern) + 1
	}
	return idx
}

func matchPathPattern(pattern, name string) (string, bool) {
	idx := strings.Index(pattern, "*")
	if idx < 0 {
		return "", pattern == name
	}
	prefix, suffix := pattern[:idx], pattern[idx+1:]
	if len(name) < len(prefix)+len(suffix) || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, suffix) {
		return "", false
	}
	return name[len(prefix) : len(name)-len(suffix)], true
}

func tryTSFile(base string) (string, bool) {
	if isFile(base) {
		return base, true
	}
	for _, ext := range tsExtensions {
		if isFile(base + ext) {
			return base + ext, true
		}
	}
	for _, ext := range tsExtensions {
		index := filepath.Join(base, "index"+ext)
		if isFile(index) {
			return index, true
		}
	}
	return "", false
}
