package resolver

import (
	"fmt"

	"github.com/ritzau/pom-graph/pkg/model"
)

// DiamondMode controls how a dependency reached through more than one path is recorded
type DiamondMode string

const (
	// DiamondFirstParent records a coordinate only under the first node that reaches it.
	DiamondFirstParent DiamondMode = "first-parent"
	// DiamondAllEdges records every distinct edge but still expands each coordinate once.
	DiamondAllEdges DiamondMode = "all-edges"
)

// ParseDiamondMode parses a mode name, defaulting to DiamondFirstParent for "".
func ParseDiamondMode(s string) (DiamondMode, error) {
	switch DiamondMode(s) {
	case "", DiamondFirstParent:
		return DiamondFirstParent, nil
	case DiamondAllEdges:
		return DiamondAllEdges, nil
	default:
		return "", fmt.Errorf("unknown diamond mode %q (want %s or %s)", s, DiamondFirstParent, DiamondAllEdges)
	}
}

// traversal owns the mutable state of one top-level Build call
type traversal struct {
	graph   *model.Graph
	mode    DiamondMode
	visited map[string]bool // coordinate keys already claimed as dependencies
}

func newTraversal(mode DiamondMode) *traversal {
	return &traversal{
		graph:   model.NewGraph(),
		mode:    mode,
		visited: make(map[string]bool),
	}
}

// claim decides whether source->target is recorded as an edge and whether
// target should be expanded. Visited keys are never expanded twice.
func (t *traversal) claim(source, target string) (record, expand bool) {
	if t.mode == DiamondAllEdges {
		if t.graph.HasEdge(source, target) {
			return false, false
		}
		expand = !t.visited[target]
		t.visited[target] = true
		return true, expand
	}

	if t.visited[target] {
		return false, false
	}
	t.visited[target] = true
	return true, true
}

// lineage is the set of documents on the active parent chain
type lineage map[string]bool

func (l lineage) with(path string) lineage {
	out := make(lineage, len(l)+1)
	for p := range l {
		out[p] = true
	}
	out[path] = true
	return out
}
