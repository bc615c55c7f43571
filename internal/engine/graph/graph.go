package graph

import (
	"sync"

	"archcheck/internal/engine/project"
	"archcheck/internal/engine/resolver"
)

// Graph is a directed file graph. Nodes keep insertion order and each
// node's outgoing edges keep the order they were added in, so traversals
// are deterministic for a given project walk.
type Graph struct {
	mu sync.RWMutex

	nodes map[string]bool
	order []string

	imports    map[string][]ImportEdge    // from -> edges
	importedBy map[string]map[string]bool // to -> from
}

type ImportEdge struct {
	From string
	To   string
	// Raw is the import string as written in From.
	Raw string
}

func NewGraph() *Graph {
	return &Graph{
		nodes:      make(map[string]bool),
		imports:    make(map[string][]ImportEdge),
		importedBy: make(map[string]map[string]bool),
	}
}

// FromFiles builds a graph over files whose edges are the valid-path
// dependencies that point at another file of the same set.
func FromFiles(files []*project.File) *Graph {
	g := NewGraph()
	for _, f := range files {
		g.AddNode(f.Path)
	}
	for _, f := range files {
		for _, dep := range f.Dependencies {
			if dep.Type != resolver.TypeValidPath {
				continue
			}
			g.AddEdge(f.Path, dep.Name, dep.Raw)
		}
	}
	return g
}

func (g *Graph) AddNode(path string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.nodes[path] {
		return
	}
	g.nodes[path] = true
	g.order = append(g.order, path)
}

// AddEdge records from -> to. Edges to or from unknown nodes and duplicate
// edges are ignored.
func (g *Graph) AddEdge(from, to, raw string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.nodes[from] || !g.nodes[to] {
		return false
	}
	if g.importedBy[to][from] {
		return false
	}
	g.imports[from] = append(g.imports[from], ImportEdge{From: from, To: to, Raw: raw})
	if g.importedBy[to] == nil {
		g.importedBy[to] = make(map[string]bool)
	}
	g.importedBy[to][from] = true
	return true
}

func (g *Graph) HasNode(path string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.nodes[path]
}

// Nodes returns the nodes in insertion order.
func (g *Graph) Nodes() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]string(nil), g.order...)
}

func (g *Graph) Imports(path string) []ImportEdge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]ImportEdge(nil), g.imports[path]...)
}

func (g *Graph) NodeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.order)
}

func (g *Graph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	count := 0
	for _, edges := range g.imports {
		count += len(edges)
	}
	return count
}
