// Package lens narrows a dependency graph down to the part a user is looking
// at, and compares graphs from consecutive runs.
package lens

import (
	"fmt"

	"github.com/ritzau/pom-graph/pkg/model"
)

// Direction selects which edges a lens follows from the focused artifacts
type Direction string

const (
	Dependencies Direction = "dependencies" // Follow edges forward
	Dependents   Direction = "dependents"   // Follow edges backward
	Both         Direction = "both"
)

// Unlimited disables the depth limit
const Unlimited = -1

// Config defines which part of the graph stays visible
type Config struct {
	Focus          []string  `json:"focus"`          // Coordinate keys; empty means the whole graph
	Depth          int       `json:"depth"`          // Maximum distance from a focused artifact, or Unlimited
	Direction      Direction `json:"direction"`      // Defaults to Dependencies
	HideUnexpanded bool      `json:"hideUnexpanded"` // Drop artifacts whose POM was never read
}

// ParseDirection maps a query value onto a Direction. Empty selects Dependencies.
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case "":
		return Dependencies, nil
	case Dependencies, Dependents, Both:
		return Direction(s), nil
	default:
		return "", fmt.Errorf("unknown direction %q (want dependencies, dependents or both)", s)
	}
}

// Apply returns the subgraph visible through cfg. Root and edge order are
// preserved so the result renders the same way as the full graph.
func Apply(g *model.Graph, cfg Config) *model.Graph {
	visible := func(string) bool { return true }

	if len(cfg.Focus) > 0 {
		distances := ComputeDistances(g, cfg.Focus, cfg.Direction)
		visible = func(key string) bool {
			d, ok := distances[key]
			return ok && (cfg.Depth == Unlimited || d <= cfg.Depth)
		}
	}
	if cfg.HideUnexpanded {
		inner := visible
		visible = func(key string) bool {
			return g.HasRoot(key) && inner(key)
		}
	}

	out := model.NewGraph()
	for _, root := range g.Roots() {
		if !visible(root) {
			continue
		}
		out.AddRoot(root)
		for _, dep := range g.Dependencies(root) {
			if visible(dep) {
				out.AddEdge(root, dep)
			}
		}
	}
	if visible(g.Root()) {
		out.SetRoot(g.Root())
	}
	return out
}
