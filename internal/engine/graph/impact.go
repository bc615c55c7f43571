package graph

import (
	"errors"
	"fmt"
	"sort"
)

var ErrImpactTargetNotFound = errors.New("impact target not found")

// ImpactReport lists the files that would be affected by changing Target.
type ImpactReport struct {
	Target              string
	DirectImporters     []string
	TransitiveImporters []string
}

type ImpactTargetError struct {
	Target string
}

func (e *ImpactTargetError) Error() string {
	return fmt.Sprintf("%v: %s", ErrImpactTargetNotFound, e.Target)
}

func (e *ImpactTargetError) Unwrap() error {
	return ErrImpactTargetNotFound
}

func (g *Graph) AnalyzeImpact(path string) (ImpactReport, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if !g.nodes[path] {
		return ImpactReport{}, &ImpactTargetError{Target: path}
	}

	report := ImpactReport{Target: path}
	direct := make([]string, 0, len(g.importedBy[path]))
	for importer := range g.importedBy[path] {
		direct = append(direct, importer)
	}
	sort.Strings(direct)
	report.DirectImporters = direct

	seen := map[string]bool{path: true}
	for _, importer := range direct {
		seen[importer] = true
	}
	queue := append([]string(nil), direct...)

	transitive := make([]string, 0)
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		for next := range g.importedBy[curr] {
			if seen[next] {
				continue
			}
			seen[next] = true
			queue = append(queue, next)
			transitive = append(transitive, next)
		}
	}
	sort.Strings(transitive)
	report.TransitiveImporters = transitive
	return report, nil
}
