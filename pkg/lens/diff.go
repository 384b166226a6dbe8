package lens

import (
	"sort"

	"github.com/ritzau/pom-graph/pkg/model"
)

// Edge is a dependency edge in a Diff
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Diff is the difference between the graphs of two runs. All lists are sorted.
type Diff struct {
	AddedNodes   []string `json:"addedNodes"`
	RemovedNodes []string `json:"removedNodes"`
	AddedEdges   []Edge   `json:"addedEdges"`
	RemovedEdges []Edge   `json:"removedEdges"`
	Initial      bool     `json:"initial"` // True when there was no previous graph
}

// Empty reports whether the graphs were identical
func (d *Diff) Empty() bool {
	return len(d.AddedNodes) == 0 && len(d.RemovedNodes) == 0 &&
		len(d.AddedEdges) == 0 && len(d.RemovedEdges) == 0
}

// ComputeDiff compares current against previous, which may be nil
func ComputeDiff(previous, current *model.Graph) *Diff {
	diff := &Diff{
		AddedNodes:   make([]string, 0),
		RemovedNodes: make([]string, 0),
		AddedEdges:   make([]Edge, 0),
		RemovedEdges: make([]Edge, 0),
	}
	if previous == nil {
		diff.Initial = true
		previous = model.NewGraph()
	}

	oldNodes, newNodes := nodeSet(previous), nodeSet(current)
	for key := range newNodes {
		if !oldNodes[key] {
			diff.AddedNodes = append(diff.AddedNodes, key)
		}
	}
	for key := range oldNodes {
		if !newNodes[key] {
			diff.RemovedNodes = append(diff.RemovedNodes, key)
		}
	}

	oldEdges, newEdges := edgeSet(previous), edgeSet(current)
	for e := range newEdges {
		if !oldEdges[e] {
			diff.AddedEdges = append(diff.AddedEdges, e)
		}
	}
	for e := range oldEdges {
		if !newEdges[e] {
			diff.RemovedEdges = append(diff.RemovedEdges, e)
		}
	}

	sort.Strings(diff.AddedNodes)
	sort.Strings(diff.RemovedNodes)
	sortEdges(diff.AddedEdges)
	sortEdges(diff.RemovedEdges)
	return diff
}

func nodeSet(g *model.Graph) map[string]bool {
	set := make(map[string]bool)
	for _, key := range g.Nodes() {
		set[key] = true
	}
	return set
}

func edgeSet(g *model.Graph) map[Edge]bool {
	set := make(map[Edge]bool)
	for _, e := range g.Edges() {
		set[Edge{Source: e[0], Target: e[1]}] = true
	}
	return set
}

func sortEdges(edges []Edge) {
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Source != edges[j].Source {
			return edges[i].Source < edges[j].Source
		}
		return edges[i].Target < edges[j].Target
	})
}
