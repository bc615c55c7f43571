package graph

import "sort"

type color uint8

const (
	white color = iota
	gray
	black
)

type frame struct {
	node string
	next int
}

// FindCycle runs an iterative three-colour depth-first search over every
// unvisited node and stops at the first back edge. The returned path starts
// and ends with the same node.
func (g *Graph) FindCycle() ([]string, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	colors := make(map[string]color, len(g.order))
	for _, start := range g.order {
		if colors[start] != white {
			continue
		}
		if path, ok := g.walk(start, colors, func(string) bool { return true }); ok {
			return path, true
		}
	}
	return nil, false
}

// FindCycleThrough reports a cycle that passes through node. Every node
// reachable from node is a descendant of the search root, so any edge back
// into node is seen as a back edge.
func (g *Graph) FindCycleThrough(node string) ([]string, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if !g.nodes[node] {
		return nil, false
	}
	return g.walk(node, make(map[string]color), func(back string) bool { return back == node })
}

// walk runs the depth-first search from start and returns the first back
// edge whose target is accepted. Caller holds the read lock.
func (g *Graph) walk(start string, colors map[string]color, accept func(back string) bool) ([]string, bool) {
	stack := []frame{{node: start}}
	colors[start] = gray
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		edges := g.imports[top.node]
		if top.next >= len(edges) {
			colors[top.node] = black
			stack = stack[:len(stack)-1]
			continue
		}
		next := edges[top.next].To
		top.next++

		switch colors[next] {
		case gray:
			if accept(next) {
				return cyclePath(stack, next), true
			}
		case white:
			colors[next] = gray
			stack = append(stack, frame{node: next})
		}
	}
	return nil, false
}

func cyclePath(stack []frame, back string) []string {
	start := 0
	for i, f := range stack {
		if f.node == back {
			start = i
			break
		}
	}
	path := make([]string, 0, len(stack)-start+1)
	for _, f := range stack[start:] {
		path = append(path, f.node)
	}
	return append(path, back)
}

// FindImportChain returns the shortest chain of imports leading from one
// file to another.
func (g *Graph) FindImportChain(from, to string) ([]string, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if !g.nodes[from] || !g.nodes[to] {
		return nil, false
	}
	if from == to {
		return []string{from}, true
	}

	queue := []string{from}
	visited := map[string]bool{from: true}
	prev := make(map[string]string)

	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]

		neighbors := make([]string, 0, len(g.imports[curr]))
		for _, edge := range g.imports[curr] {
			neighbors = append(neighbors, edge.To)
		}
		sort.Strings(neighbors)

		for _, next := range neighbors {
			if visited[next] {
				continue
			}
			visited[next] = true
			prev[next] = curr

			if next == to {
				path := []string{to}
				for node := to; node != from; {
					p, ok := prev[node]
					if !ok {
						return nil, false
					}
					path = append(path, p)
					node = p
				}
				for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
					path[i], path[j] = path[j], path[i]
				}
				return path, true
			}

			queue = append(queue, next)
		}
	}

	return nil, false
}
