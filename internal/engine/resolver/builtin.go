package resolver

import (
	_ "embed"
	"strings"
)

//go:embed stdlib/node.txt
var nodeBuiltinData string

var nodeBuiltins = map[string]bool{}

func init() {
	for _, line := range strings.Split(nodeBuiltinData, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		nodeBuiltins[line] = true
	}
}

// IsBuiltinModule reports whether name is a Node.js core module, with or
// without the "node:" scheme.
func IsBuiltinModule(name string) bool {
	if nodeBuiltins[name] {
		return true
	}
	if rest, ok := strings.CutPrefix(name, "node:"); ok {
		return nodeBuiltins[rest]
	}
	return false
}
