package graph

import (
	"iter"
	"slices"
)

// Core property names.
const (
	PropID                     = "id"
	PropName                   = "name"
	PropCategory               = "category"
	PropCategories             = "categories"
	PropSubject                = "subject"
	PropObject                 = "object"
	PropPredicate              = "predicate"
	PropPrimaryKnowledgeSource = "primary_knowledge_source"
	PropEquivalentIdentifiers  = "equivalent_identifiers"
	PropEquivalentCuries       = "equivalent_curies"
)

// EdgeCoreProperties are kept on every edge in addition to the endpoints and predicate.
var EdgeCoreProperties = []string{
	PropPrimaryKnowledgeSource,
	"source_record_urls",
	"qualified_predicate",
	"object_direction_qualifier",
	"object_aspect_qualifier",
	"knowledge_level",
	"agent_type",
}

// Node is a concept in the graph. The id is the table key and is not repeated here.
type Node struct {
	Name       string
	Categories []string
	Attributes map[string]any
}

// Edge is a typed relationship between two nodes.
type Edge struct {
	Subject   string
	Object    string
	Predicate string
	// PrimaryKnowledgeSource is promoted out of Attributes because every response carries it.
	PrimaryKnowledgeSource string
	Attributes             map[string]any
}

// Stats summarizes a load.
type Stats struct {
	Nodes          int `json:"nodes"`
	Edges          int `json:"edges"`
	PrunedNodes    int `json:"pruned_nodes"`
	PrunedEdges    int `json:"pruned_edges"`
	DuplicateNodes int `json:"duplicate_nodes"`
	EquivalentIDs  int `json:"equivalent_ids"`
}

// Graph holds the node and edge tables. It is immutable and safe for concurrent use.
//
// Nodes and edges also have dense ordinals (load order), which the index
// uses instead of strings.
type Graph struct {
	nodeIDs   []string
	nodes     []Node
	nodeIndex map[string]uint32

	edgeIDs   []string
	edges     []Edge
	edgeIndex map[string]uint32

	preferred map[string]string
	stats     Stats
}

// NumNodes returns the number of nodes.
func (g *Graph) NumNodes() int { return len(g.nodes) }

// NumEdges returns the number of edges.
func (g *Graph) NumEdges() int { return len(g.edges) }

// Stats returns load statistics.
func (g *Graph) Stats() Stats { return g.stats }

// Node returns the node with the given id.
func (g *Graph) Node(id string) (*Node, bool) {
	ord, ok := g.nodeIndex[id]
	if !ok {
		return nil, false
	}
	return &g.nodes[ord], true
}

// HasNode reports whether id is in the node table.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodeIndex[id]
	return ok
}

// NodeOrdinal returns the dense ordinal of a node.
func (g *Graph) NodeOrdinal(id string) (uint32, bool) {
	ord, ok := g.nodeIndex[id]
	return ord, ok
}

// NodeID returns the id for a node ordinal.
func (g *Graph) NodeID(ord uint32) string { return g.nodeIDs[ord] }

// NodeAt returns the node for an ordinal.
func (g *Graph) NodeAt(ord uint32) *Node { return &g.nodes[ord] }

// Edge returns the edge with the given id.
func (g *Graph) Edge(id string) (*Edge, bool) {
	ord, ok := g.edgeIndex[id]
	if !ok {
		return nil, false
	}
	return &g.edges[ord], true
}

// EdgeOrdinal returns the dense ordinal of an edge.
func (g *Graph) EdgeOrdinal(id string) (uint32, bool) {
	ord, ok := g.edgeIndex[id]
	return ord, ok
}

// EdgeID returns the id for an edge ordinal.
func (g *Graph) EdgeID(ord uint32) string { return g.edgeIDs[ord] }

// EdgeAt returns the edge for an ordinal.
func (g *Graph) EdgeAt(ord uint32) *Edge { return &g.edges[ord] }

// Nodes iterates nodes in ordinal order.
func (g *Graph) Nodes() iter.Seq2[string, *Node] {
	return func(yield func(string, *Node) bool) {
		for i := range g.nodes {
			if !yield(g.nodeIDs[i], &g.nodes[i]) {
				return
			}
		}
	}
}

// Edges iterates edges in ordinal order.
func (g *Graph) Edges() iter.Seq2[string, *Edge] {
	return func(yield func(string, *Edge) bool) {
		for i := range g.edges {
			if !yield(g.edgeIDs[i], &g.edges[i]) {
				return
			}
		}
	}
}

// Preferred maps an equivalent identifier to the id used in this graph.
// Unknown ids are returned unchanged.
func (g *Graph) Preferred(id string) string {
	if p, ok := g.preferred[id]; ok {
		return p
	}
	return id
}

// HasCategory reports whether the node carries category.
func (n *Node) HasCategory(category string) bool {
	return slices.Contains(n.Categories, category)
}
