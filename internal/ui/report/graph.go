package report

import (
	"fmt"

	"archcheck/internal/engine/graph"
	"archcheck/internal/ui/report/formats"
)

// RenderGraph renders g as "dot" or "mermaid", highlighting its first
// cycle if it has one.
func RenderGraph(g *graph.Graph, root, format string) (string, error) {
	gen := formats.NewGraphGenerator(g, root)
	if cycle, found := g.FindCycle(); found {
		gen.SetCycle(cycle)
	}
	switch format {
	case "dot":
		return gen.DOT(), nil
	case "mermaid":
		return gen.Mermaid(), nil
	default:
		return "", fmt.Errorf("unknown graph format %q", format)
	}
}
