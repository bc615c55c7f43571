package formats

import (
	"fmt"
	"strings"

	"archcheck/internal/engine/graph"
)

// GraphGenerator renders the file import graph of a project. Nodes are
// labelled relative to the project root; edges on Cycle are highlighted.
type GraphGenerator struct {
	graph *graph.Graph
	root  string
	cycle []string
}

func NewGraphGenerator(g *graph.Graph, projectRoot string) *GraphGenerator {
	return &GraphGenerator{graph: g, root: projectRoot}
}

// SetCycle marks a cycle path (first node repeated at the end) for
// highlighting.
func (d *GraphGenerator) SetCycle(cycle []string) {
	d.cycle = append([]string(nil), cycle...)
}

func (d *GraphGenerator) DOT() string {
	var buf strings.Builder
	buf.WriteString("digraph dependencies {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  node [shape=box, style=rounded, fontname=\"Helvetica\", fontsize=10];\n")
	buf.WriteString("  edge [fontname=\"Helvetica\", fontsize=8, penwidth=1.2];\n")
	buf.WriteString("  splines=polyline;\n")
	buf.WriteString("  overlap=false;\n\n")

	nodes := d.graph.Nodes()
	cycleEdges := cycleEdgeSet(d.cycle)
	inCycle := make(map[string]bool, len(d.cycle))
	for _, n := range d.cycle {
		inCycle[n] = true
	}

	for _, n := range nodes {
		label := escapeLabel(RelativePath(d.root, n))
		if inCycle[n] {
			buf.WriteString(fmt.Sprintf("  \"%s\" [fillcolor=\"mistyrose\", style=\"rounded,filled\", color=\"red\", penwidth=2.0];\n", label))
			continue
		}
		buf.WriteString(fmt.Sprintf("  \"%s\" [color=\"darkslategrey\"];\n", label))
	}
	buf.WriteString("\n")

	for _, from := range nodes {
		for _, edge := range d.graph.Imports(from) {
			fromLabel := escapeLabel(RelativePath(d.root, edge.From))
			toLabel := escapeLabel(RelativePath(d.root, edge.To))
			if cycleEdges[[2]string{edge.From, edge.To}] {
				buf.WriteString(fmt.Sprintf("  \"%s\" -> \"%s\" [color=\"red\", penwidth=3.0, label=\"CYCLE\"];\n", fromLabel, toLabel))
				continue
			}
			buf.WriteString(fmt.Sprintf("  \"%s\" -> \"%s\" [color=\"forestgreen\"];\n", fromLabel, toLabel))
		}
	}
	buf.WriteString("}\n")
	return buf.String()
}

func (d *GraphGenerator) Mermaid() string {
	var b strings.Builder
	b.WriteString("flowchart LR\n")

	nodes := d.graph.Nodes()
	labels := make([]string, 0, len(nodes))
	for _, n := range nodes {
		labels = append(labels, RelativePath(d.root, n))
	}
	byLabel := makeIDs(labels)
	ids := make(map[string]string, len(nodes))
	for i, n := range nodes {
		ids[n] = byLabel[labels[i]]
	}
	cycleEdges := cycleEdgeSet(d.cycle)

	for i, n := range nodes {
		b.WriteString(fmt.Sprintf("  %s[\"%s\"]\n", ids[n], escapeLabel(labels[i])))
	}

	linkIndex := 0
	var cycleLinks []string
	for _, from := range nodes {
		for _, edge := range d.graph.Imports(from) {
			b.WriteString(fmt.Sprintf("  %s --> %s\n", ids[edge.From], ids[edge.To]))
			if cycleEdges[[2]string{edge.From, edge.To}] {
				cycleLinks = append(cycleLinks, fmt.Sprintf("%d", linkIndex))
			}
			linkIndex++
		}
	}
	if len(cycleLinks) > 0 {
		b.WriteString(fmt.Sprintf("  linkStyle %s stroke:#F87171,stroke-width:3px\n", strings.Join(cycleLinks, ",")))
	}
	return b.String()
}
