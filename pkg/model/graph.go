package model

import "encoding/json"

// Graph is the dependency graph produced by one traversal.
// It maps a root coordinate key to the ordered coordinate keys it depends on.
// Roots keep their insertion order so that rendering is deterministic.
type Graph struct {
	root  string
	order []string
	deps  map[string][]string
}

// NewGraph creates a new empty graph.
func NewGraph() *Graph {
	return &Graph{
		order: make([]string, 0),
		deps:  make(map[string][]string),
	}
}

// SetRoot records the key of the document the traversal started from.
func (g *Graph) SetRoot(key string) {
	g.root = key
}

// Root returns the key of the starting document, or "" if it never resolved.
func (g *Graph) Root() string {
	return g.root
}

// AddRoot ensures key exists as a root. An existing entry is left untouched.
// Returns true if the root was added.
func (g *Graph) AddRoot(key string) bool {
	if _, exists := g.deps[key]; exists {
		return false
	}
	g.order = append(g.order, key)
	g.deps[key] = make([]string, 0)
	return true
}

// AddEdge appends target to the dependency sequence of source.
func (g *Graph) AddEdge(source, target string) {
	g.AddRoot(source)
	g.deps[source] = append(g.deps[source], target)
}

// HasRoot reports whether key was expanded as a root.
func (g *Graph) HasRoot(key string) bool {
	_, exists := g.deps[key]
	return exists
}

// HasEdge reports whether source already lists target.
func (g *Graph) HasEdge(source, target string) bool {
	for _, dep := range g.deps[source] {
		if dep == target {
			return true
		}
	}
	return false
}

// Roots returns the root keys in insertion order.
func (g *Graph) Roots() []string {
	roots := make([]string, len(g.order))
	copy(roots, g.order)
	return roots
}

// Dependencies returns the dependencies of key in the order they were added.
func (g *Graph) Dependencies(key string) []string {
	deps := g.deps[key]
	out := make([]string, len(deps))
	copy(out, deps)
	return out
}

// Edges returns all edges as [source, target] pairs, roots first, then sequence order.
func (g *Graph) Edges() [][2]string {
	var edges [][2]string
	for _, root := range g.order {
		for _, dep := range g.deps[root] {
			edges = append(edges, [2]string{root, dep})
		}
	}
	return edges
}

// Nodes returns every key that appears in the graph, either as a root or as a
// dependency, in order of first appearance.
func (g *Graph) Nodes() []string {
	seen := make(map[string]bool)
	nodes := make([]string, 0, len(g.order))
	add := func(key string) {
		if !seen[key] {
			seen[key] = true
			nodes = append(nodes, key)
		}
	}
	for _, root := range g.order {
		add(root)
		for _, dep := range g.deps[root] {
			add(dep)
		}
	}
	return nodes
}

// Unexpanded returns the dependency keys that never became roots, usually
// because their POM was not present in the repository.
func (g *Graph) Unexpanded() []string {
	var out []string
	for _, node := range g.Nodes() {
		if !g.HasRoot(node) {
			out = append(out, node)
		}
	}
	return out
}

// Len returns the number of roots.
func (g *Graph) Len() int {
	return len(g.order)
}

type jsonNode struct {
	ID       string `json:"id"`
	Expanded bool   `json:"expanded"`
}

type jsonEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// MarshalJSON encodes the graph as node and edge lists.
func (g *Graph) MarshalJSON() ([]byte, error) {
	out := struct {
		Root  string     `json:"root,omitempty"`
		Nodes []jsonNode `json:"nodes"`
		Edges []jsonEdge `json:"edges"`
	}{
		Root:  g.root,
		Nodes: make([]jsonNode, 0),
		Edges: make([]jsonEdge, 0),
	}
	for _, node := range g.Nodes() {
		out.Nodes = append(out.Nodes, jsonNode{ID: node, Expanded: g.HasRoot(node)})
	}
	for _, edge := range g.Edges() {
		out.Edges = append(out.Edges, jsonEdge{Source: edge[0], Target: edge[1]})
	}
	return json.Marshal(out)
}
