package formats

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
)

// RelativePath converts an absolute file path to a forward-slash path
// relative to projectRoot. Paths outside the root, relative paths and an
// empty root are returned with forward slashes only.
func RelativePath(projectRoot, filePath string) string {
	if projectRoot != "" && filepath.IsAbs(filepath.FromSlash(filePath)) {
		rel, err := filepath.Rel(filepath.FromSlash(projectRoot), filepath.FromSlash(filePath))
		if err == nil && !strings.HasPrefix(rel, "..") {
			filePath = rel
		}
	}
	return filepath.ToSlash(filePath)
}

func sanitizeID(name string) string {
	if name == "" {
		return "n"
	}
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		b.WriteRune('_')
	}
	out := b.String()
	if unicode.IsDigit(rune(out[0])) {
		return "n_" + out
	}
	return out
}

// makeIDs assigns every name a unique identifier safe for diagram syntax.
func makeIDs(names []string) map[string]string {
	ids := make(map[string]string, len(names))
	used := make(map[string]int, len(names))
	for _, name := range names {
		base := sanitizeID(name)
		idx := used[base]
		used[base] = idx + 1
		if idx == 0 {
			ids[name] = base
			continue
		}
		ids[name] = fmt.Sprintf("%s_%d", base, idx+1)
	}
	return ids
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

// cycleEdgeSet indexes the consecutive pairs of a cycle path whose first
// node is repeated at the end.
func cycleEdgeSet(cycle []string) map[[2]string]bool {
	edges := make(map[[2]string]bool, len(cycle))
	for i := 0; i+1 < len(cycle); i++ {
		edges[[2]string{cycle[i], cycle[i+1]}] = true
	}
	return edges
}
