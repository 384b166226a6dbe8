package graph

import (
	"sort"

	"github.com/ritzau/pom-graph/pkg/model"
	"gonum.org/v1/gonum/graph/simple"
)

// ArtifactNode represents an artifact coordinate in the dependency graph
type ArtifactNode struct {
	Key      string // e.g., "org.example:example-lib:1.0.1"
	Expanded bool   // false when the POM was never read (not in the repository)
}

// ArtifactGraph is a gonum view of a model.Graph, used for structural analysis
type ArtifactGraph struct {
	graph  *simple.DirectedGraph
	nodes  map[string]*ArtifactNode // Map from coordinate key to node
	ids    map[string]int64         // Map from coordinate key to graph ID
	keys   map[int64]string         // Map from graph ID back to coordinate key
	self   map[string]bool          // Artifacts that list themselves as a dependency
	nextID int64
}

// NewArtifactGraph creates a new empty artifact graph
func NewArtifactGraph() *ArtifactGraph {
	return &ArtifactGraph{
		graph:  simple.NewDirectedGraph(),
		nodes:  make(map[string]*ArtifactNode),
		ids:    make(map[string]int64),
		keys:   make(map[int64]string),
		self:   make(map[string]bool),
		nextID: 0,
	}
}

// AddArtifact adds an artifact to the graph
func (ag *ArtifactGraph) AddArtifact(key string) *ArtifactNode {
	if node, exists := ag.nodes[key]; exists {
		return node
	}

	node := &ArtifactNode{Key: key}
	ag.nodes[key] = node
	ag.ids[key] = ag.nextID
	ag.keys[ag.nextID] = key

	ag.graph.AddNode(simple.Node(ag.nextID))
	ag.nextID++

	return node
}

// AddDependency adds a dependency edge from source to target, creating both nodes if needed.
// gonum simple graphs do not allow self loops, so a self-dependency is kept
// aside and reported by SelfDependents instead of becoming an edge.
func (ag *ArtifactGraph) AddDependency(source, target string) {
	ag.AddArtifact(source)
	ag.AddArtifact(target)

	sourceID := ag.ids[source]
	targetID := ag.ids[target]
	if sourceID == targetID {
		ag.self[source] = true
		return
	}

	if !ag.graph.HasEdgeFromTo(sourceID, targetID) {
		ag.graph.SetEdge(ag.graph.NewEdge(ag.graph.Node(sourceID), ag.graph.Node(targetID)))
	}
}

// GetNode returns an artifact node by coordinate key
func (ag *ArtifactGraph) GetNode(key string) (*ArtifactNode, bool) {
	node, exists := ag.nodes[key]
	return node, exists
}

// GetNodeByID returns an artifact node by its graph ID
func (ag *ArtifactGraph) GetNodeByID(id int64) *ArtifactNode {
	key, exists := ag.keys[id]
	if !exists {
		return nil
	}
	return ag.nodes[key]
}

// Graph returns the underlying directed graph
func (ag *ArtifactGraph) Graph() *simple.DirectedGraph {
	return ag.graph
}

// Len returns the number of artifacts
func (ag *ArtifactGraph) Len() int {
	return len(ag.nodes)
}

// GetDependencies returns the keys the given artifact depends on
func (ag *ArtifactGraph) GetDependencies(key string) []string {
	id, exists := ag.ids[key]
	if !exists {
		return nil
	}

	var deps []string
	iter := ag.graph.From(id)
	for iter.Next() {
		deps = append(deps, ag.keys[iter.Node().ID()])
	}
	return deps
}

// GetDependents returns the keys that depend on the given artifact
func (ag *ArtifactGraph) GetDependents(key string) []string {
	id, exists := ag.ids[key]
	if !exists {
		return nil
	}

	var dependents []string
	iter := ag.graph.To(id)
	for iter.Next() {
		dependents = append(dependents, ag.keys[iter.Node().ID()])
	}
	return dependents
}

// SelfDependents returns the sorted keys of artifacts that depend on themselves
func (ag *ArtifactGraph) SelfDependents() []string {
	keys := make([]string, 0, len(ag.self))
	for key := range ag.self {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// FromModel builds an artifact graph from a resolved dependency graph
func FromModel(g *model.Graph) *ArtifactGraph {
	ag := NewArtifactGraph()

	for _, key := range g.Nodes() {
		node := ag.AddArtifact(key)
		node.Expanded = g.HasRoot(key)
	}
	for _, edge := range g.Edges() {
		ag.AddDependency(edge[0], edge[1])
	}

	return ag
}
