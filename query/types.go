package query

import (
	"bytes"
	"slices"
	"sync"

	"github.com/go-playground/validator/v10"
	gojson "github.com/goccy/go-json"
)

// StringList is a list of strings that also decodes from a single string.
type StringList []string

// UnmarshalJSON implements json.Unmarshaler.
func (l *StringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := gojson.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = StringList{s}
		return nil
	}
	var list []string
	if err := gojson.Unmarshal(data, &list); err != nil {
		return err
	}
	*l = list
	return nil
}

// QNode is a pattern node.
type QNode struct {
	IDs        StringList `json:"ids,omitempty" validate:"dive,required"`
	Categories StringList `json:"categories,omitempty" validate:"dive,required"`
}

// Qualifier is one qualifier_type_id and qualifier_value pair.
type Qualifier struct {
	TypeID string `json:"qualifier_type_id" validate:"required"`
	Value  string `json:"qualifier_value" validate:"required"`
}

// QualifierConstraint is a set of qualifiers that must all hold on one edge.
type QualifierConstraint struct {
	QualifierSet []Qualifier `json:"qualifier_set" validate:"dive"`
}

// QEdge is a pattern edge between two qnodes.
type QEdge struct {
	Subject    string     `json:"subject" validate:"required"`
	Object     string     `json:"object" validate:"required"`
	Predicates StringList `json:"predicates,omitempty" validate:"dive,required"`
	// QualifierConstraints are alternatives; an edge must satisfy at least one.
	QualifierConstraints []QualifierConstraint `json:"qualifier_constraints,omitempty" validate:"dive"`
	// AttributeConstraints are rejected when present.
	AttributeConstraints []any `json:"attribute_constraints,omitempty"`
}

// Graph is a query graph.
type Graph struct {
	Nodes map[string]*QNode `json:"nodes" validate:"required,min=1,dive,keys,required,endkeys,required"`
	Edges map[string]*QEdge `json:"edges,omitempty" validate:"dive,keys,required,endkeys,required"`
	// IncludeMetadata returns node and edge records instead of bare ids.
	IncludeMetadata bool `json:"include_metadata,omitempty"`
	// EnforceDirection only matches edges stated from qedge subject to object.
	EnforceDirection bool `json:"enforce_direction,omitempty"`
}

// Message wraps a query graph the way TRAPI clients send it.
type Message struct {
	QueryGraph *Graph `json:"query_graph" validate:"required"`
}

// Request accepts either a bare query graph or one nested in a message.
type Request struct {
	Graph
	Message *Message `json:"message,omitempty"`
}

// QueryGraph returns the graph carried by the request.
func (r *Request) QueryGraph() *Graph {
	if r.Message != nil && r.Message.QueryGraph != nil {
		g := *r.Message.QueryGraph
		g.IncludeMetadata = g.IncludeMetadata || r.IncludeMetadata
		g.EnforceDirection = g.EnforceDirection || r.EnforceDirection
		return &g
	}
	return &r.Graph
}

// EdgesRequest asks for the edges between pairs of nodes.
type EdgesRequest struct {
	Pairs [][]string `json:"pairs" validate:"required,dive,len=2,dive,required"`
}

// NeighborsRequest asks for the neighbors of nodes.
type NeighborsRequest struct {
	IDs        StringList `json:"node_ids" validate:"required,min=1,dive,required"`
	Categories StringList `json:"categories,omitempty" validate:"dive,required"`
	Predicates StringList `json:"predicates,omitempty" validate:"dive,required"`
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks the shape of a request document.
func Validate(v any) error {
	if err := validatorInstance().Struct(v); err != nil {
		return &ValidationError{Reason: "malformed request", cause: err}
	}
	return nil
}

// Decode parses and validates a query request.
func Decode(data []byte) (*Graph, error) {
	var req Request
	if err := gojson.Unmarshal(data, &req); err != nil {
		return nil, &ValidationError{Reason: "cannot decode request", cause: err}
	}
	g := req.QueryGraph()
	if err := Validate(g); err != nil {
		return nil, err
	}
	return g, nil
}

// check validates the structure a query graph must have to be answered.
// It returns the key of the single qedge, or "" for edgeless queries.
func (g *Graph) check() (string, error) {
	if len(g.Nodes) == 0 {
		return "", invalidf("query graph has no nodes")
	}
	switch len(g.Edges) {
	case 0:
		return "", nil
	case 1:
	default:
		return "", invalidf("can only answer single-edge queries; query graph has %d edges", len(g.Edges))
	}

	var key string
	var e *QEdge
	for k, v := range g.Edges {
		key, e = k, v
	}
	if e == nil {
		return "", invalidf("qedge %q is empty", key)
	}
	if err := e.checkConstraints(key); err != nil {
		return "", err
	}
	for _, end := range []string{e.Subject, e.Object} {
		if n, ok := g.Nodes[end]; !ok || n == nil {
			return "", invalidf("qedge %q references unknown qnode %q", key, end)
		}
	}
	if e.Subject == e.Object {
		return "", invalidf("qedge %q must connect two different qnodes", key)
	}
	if len(g.Nodes) > 2 {
		keys := make([]string, 0, len(g.Nodes))
		for k := range g.Nodes {
			if k != e.Subject && k != e.Object {
				keys = append(keys, k)
			}
		}
		slices.Sort(keys)
		return "", invalidf("qnodes %v are not connected to qedge %q", keys, key)
	}
	if len(g.Nodes[e.Subject].IDs) == 0 && len(g.Nodes[e.Object].IDs) == 0 {
		return "", invalidf("can only answer queries where at least one qnode has ids")
	}
	return key, nil
}
