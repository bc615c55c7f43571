package resolver

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"archcheck/internal/shared/util"
)

const manifestFile = "package.json"

// Manifest is the subset of package.json the resolver reads.
type Manifest struct {
	Name            string            `json:"name"`
	Main            string            `json:"main"`
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
	// ModuleAliases follows the module-alias convention: alias -> path
	// relative to the manifest directory.
	ModuleAliases map[string]string `json:"_moduleAliases"`
}

type cachedFile[T any] struct {
	modTime time.Time
	size    int64
	value   T
}

var manifestCache = util.NewLRUCache[string, cachedFile[*Manifest]](128)

// LoadManifest reads dir/package.json. A missing or unreadable manifest is
// reported as an error; ReadManifest is the degrading variant.
func LoadManifest(dir string) (*Manifest, error) {
	path := filepath.Join(dir, manifestFile)
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if cached, ok := manifestCache.Get(path); ok && cached.modTime.Equal(info.ModTime()) && cached.size == info.Size() {
		return cached.value, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	manifestCache.Put(path, cachedFile[*Manifest]{modTime: info.ModTime(), size: info.Size(), value: &m})
	return &m, nil
}

// ReadManifest returns the manifest in dir, or an empty manifest when it is
// missing or malformed.
func ReadManifest(dir string) *Manifest {
	m, err := LoadManifest(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("ignoring unreadable package manifest", "dir", dir, "error", err)
		}
		return &Manifest{}
	}
	return m
}

func (m *Manifest) HasDependency(name string) bool {
	return m != nil && hasPackage(m.Dependencies, name)
}

func (m *Manifest) HasDevDependency(name string) bool {
	return m != nil && hasPackage(m.DevDependencies, name)
}

// hasPackage reports whether name is a declared key. Subpath imports such
// as "lodash/fp" are not declared keys and fall through to the path
// strategies.
func hasPackage(declared map[string]string, name string) bool {
	if name == "" {
		return false
	}
	_, ok := declared[name]
	return ok
}
