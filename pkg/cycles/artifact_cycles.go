// Package cycles detects circular dependencies between artifacts.
package cycles

import (
	"slices"

	"gonum.org/v1/gonum/graph/topo"

	"github.com/ritzau/pom-graph/pkg/graph"
)

// Cycle is a set of artifacts that depend on each other, directly or transitively
type Cycle struct {
	Artifacts []string `json:"artifacts"` // Coordinate keys, sorted
}

// FindCycles finds all circular dependencies in the artifact graph using
// Tarjan's strongly connected components, plus one single-artifact cycle per
// self-dependency. Cycles are ordered by their artifact keys.
func FindCycles(ag *graph.ArtifactGraph) []Cycle {
	cycles := make([]Cycle, 0)
	for _, scc := range topo.TarjanSCC(ag.Graph()) {
		if len(scc) < 2 {
			continue
		}
		artifacts := make([]string, 0, len(scc))
		for _, n := range scc {
			if node := ag.GetNodeByID(n.ID()); node != nil {
				artifacts = append(artifacts, node.Key)
			}
		}
		if len(artifacts) < 2 {
			continue
		}
		slices.Sort(artifacts)
		cycles = append(cycles, Cycle{Artifacts: artifacts})
	}

	// A self-dependency is a cycle of one; topo does not see it as gonum
	// simple graphs carry no self loops.
	for _, key := range ag.SelfDependents() {
		cycles = append(cycles, Cycle{Artifacts: []string{key}})
	}

	slices.SortFunc(cycles, func(a, b Cycle) int {
		return slices.Compare(a.Artifacts, b.Artifacts)
	})
	return cycles
}
