package query

import (
	gojson "github.com/goccy/go-json"

	"github.com/hupe1980/plover/graph"
)

// NodeRecord is a materialized node.
type NodeRecord struct {
	Name       string   `json:"name,omitempty"`
	Categories []string `json:"categories"`
	// QueryIDs lists the query ids this node was matched as a subclass of.
	QueryIDs   []string       `json:"query_ids,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// EdgeRecord is a materialized edge.
type EdgeRecord struct {
	Subject                  string         `json:"subject"`
	Object                   string         `json:"object"`
	Predicate                string         `json:"predicate"`
	PrimaryKnowledgeSource   string         `json:"primary_knowledge_source,omitempty"`
	QualifiedPredicate       string         `json:"qualified_predicate,omitempty"`
	ObjectDirectionQualifier string         `json:"object_direction_qualifier,omitempty"`
	ObjectAspectQualifier    string         `json:"object_aspect_qualifier,omitempty"`
	Attributes               map[string]any `json:"attributes,omitempty"`
}

var qualifierProperties = map[string]struct{}{
	"qualified_predicate":        {},
	"object_direction_qualifier": {},
	"object_aspect_qualifier":    {},
}

func newNodeRecord(n *graph.Node, queryIDs []string) *NodeRecord {
	return &NodeRecord{
		Name:       n.Name,
		Categories: n.Categories,
		QueryIDs:   queryIDs,
		Attributes: n.Attributes,
	}
}

func newEdgeRecord(e *graph.Edge) *EdgeRecord {
	r := &EdgeRecord{
		Subject:                e.Subject,
		Object:                 e.Object,
		Predicate:              e.Predicate,
		PrimaryKnowledgeSource: e.PrimaryKnowledgeSource,
	}
	r.QualifiedPredicate, _ = e.Attributes["qualified_predicate"].(string)
	r.ObjectDirectionQualifier, _ = e.Attributes["object_direction_qualifier"].(string)
	r.ObjectAspectQualifier, _ = e.Attributes["object_aspect_qualifier"].(string)
	for k, v := range e.Attributes {
		if _, ok := qualifierProperties[k]; ok {
			continue
		}
		if r.Attributes == nil {
			r.Attributes = make(map[string]any, len(e.Attributes))
		}
		r.Attributes[k] = v
	}
	return r
}

// NodeBinding holds the answers for one qnode: sorted ids, plus records
// when metadata was requested. It encodes as the id list or as the record map.
type NodeBinding struct {
	IDs     []string
	Records map[string]*NodeRecord
}

// MarshalJSON implements json.Marshaler.
func (b *NodeBinding) MarshalJSON() ([]byte, error) {
	if b.Records != nil {
		return gojson.Marshal(b.Records)
	}
	if b.IDs == nil {
		return []byte("[]"), nil
	}
	return gojson.Marshal(b.IDs)
}

// EdgeBinding holds the answers for one qedge.
type EdgeBinding struct {
	IDs     []string
	Records map[string]*EdgeRecord
}

// MarshalJSON implements json.Marshaler.
func (b *EdgeBinding) MarshalJSON() ([]byte, error) {
	if b.Records != nil {
		return gojson.Marshal(b.Records)
	}
	if b.IDs == nil {
		return []byte("[]"), nil
	}
	return gojson.Marshal(b.IDs)
}

// Response is the answer to a query graph.
type Response struct {
	Nodes map[string]*NodeBinding `json:"nodes"`
	Edges map[string]*EdgeBinding `json:"edges"`
}

// NumEdges returns the number of answer edges.
func (r *Response) NumEdges() int {
	n := 0
	for _, b := range r.Edges {
		n += len(b.IDs)
	}
	return n
}

// KnowledgeGraph is a set of materialized nodes and edges.
type KnowledgeGraph struct {
	Nodes map[string]*NodeRecord `json:"nodes"`
	Edges map[string]*EdgeRecord `json:"edges"`
}

// EdgesResponse answers an EdgesRequest.
type EdgesResponse struct {
	// PairsToEdgeIDs is keyed by "a--b" using the ids as requested.
	PairsToEdgeIDs map[string][]string `json:"pairs_to_edge_ids"`
	KnowledgeGraph KnowledgeGraph      `json:"knowledge_graph"`
}
