package lens

import "github.com/ritzau/pom-graph/pkg/model"

type queueEntry struct {
	key      string
	distance int
}

// ComputeDistances returns the shortest distance from any focused artifact to
// every artifact reachable in the given direction. Focused artifacts that are
// not in the graph are ignored. Unreachable artifacts are absent from the map.
func ComputeDistances(g *model.Graph, focus []string, direction Direction) map[string]int {
	adjacency := buildAdjacency(g, direction)
	known := make(map[string]bool)
	for _, key := range g.Nodes() {
		known[key] = true
	}

	distances := make(map[string]int)
	queue := make([]queueEntry, 0, len(focus))
	for _, key := range focus {
		if !known[key] {
			continue
		}
		if _, seen := distances[key]; !seen {
			distances[key] = 0
			queue = append(queue, queueEntry{key: key})
		}
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, next := range adjacency[current.key] {
			if _, seen := distances[next]; seen {
				continue
			}
			distances[next] = current.distance + 1
			queue = append(queue, queueEntry{key: next, distance: current.distance + 1})
		}
	}

	return distances
}

func buildAdjacency(g *model.Graph, direction Direction) map[string][]string {
	adjacency := make(map[string][]string)
	for _, edge := range g.Edges() {
		source, target := edge[0], edge[1]
		if direction != Dependents {
			adjacency[source] = append(adjacency[source], target)
		}
		if direction == Dependents || direction == Both {
			adjacency[target] = append(adjacency[target], source)
		}
	}
	return adjacency
}
