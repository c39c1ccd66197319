package query

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/plover/codec"
	"github.com/hupe1980/plover/graph"
	"github.com/hupe1980/plover/index"
	"github.com/hupe1980/plover/ontology"
	"github.com/hupe1980/plover/testutil"
)

const qualifiedGraph = `{
  "nodes": [
    {"id": "CHEBI:1", "category": ["biolink:ChemicalEntity"]},
    {"id": "NCBIGene:1", "category": ["biolink:Gene"]},
    {"id": "NCBIGene:2", "category": ["biolink:Gene"]},
    {"id": "NCBIGene:3", "category": ["biolink:Gene"]}
  ],
  "edges": [
    {"id": "q1", "subject": "CHEBI:1", "predicate": "biolink:related_to", "object": "NCBIGene:1",
     "qualified_predicate": "biolink:causes", "object_direction_qualifier": "increased", "object_aspect_qualifier": "activity"},
    {"id": "q2", "subject": "CHEBI:1", "predicate": "biolink:related_to", "object": "NCBIGene:2",
     "qualified_predicate": "biolink:causes", "object_direction_qualifier": "decreased", "object_aspect_qualifier": "expression"},
    {"id": "q3", "subject": "CHEBI:1", "predicate": "biolink:related_to", "object": "NCBIGene:3"}
  ]
}`

func newQualifiedEngine(t *testing.T) *Engine {
	t.Helper()
	ctx := context.Background()
	g, err := graph.Load(ctx, graph.Options{}, codec.Default,
		graph.Input{Name: "kg.json", Reader: strings.NewReader(qualifiedGraph)})
	require.NoError(t, err)
	e, err := ontology.Load(ctx, ontology.FetcherFunc(func(context.Context) ([]byte, error) {
		return []byte(testutil.Hierarchy), nil
	}), 0)
	require.NoError(t, err)
	return NewEngine(index.Build(g), e, nil, Options{})
}

func qualified(constraints ...QualifierConstraint) *Graph {
	g := oneHop(&QNode{IDs: StringList{"CHEBI:1"}}, &QNode{Categories: StringList{"biolink:Gene"}})
	g.Edges["e0"].QualifierConstraints = constraints
	return g
}

func qualifierSet(pairs ...string) QualifierConstraint {
	var c QualifierConstraint
	for i := 0; i+1 < len(pairs); i += 2 {
		c.QualifierSet = append(c.QualifierSet, Qualifier{TypeID: pairs[i], Value: pairs[i+1]})
	}
	return c
}

func TestAnswer_QualifierConstraints(t *testing.T) {
	en := newQualifiedEngine(t)

	tests := []struct {
		name  string
		query *Graph
		edges []string
		genes []string
	}{
		{
			name:  "no constraints",
			query: qualified(),
			edges: []string{"q1", "q2", "q3"},
			genes: []string{"NCBIGene:1", "NCBIGene:2", "NCBIGene:3"},
		},
		{
			name:  "qualified predicate",
			query: qualified(qualifierSet(QualifiedPredicate, "biolink:causes")),
			edges: []string{"q1", "q2"},
			genes: []string{"NCBIGene:1", "NCBIGene:2"},
		},
		{
			name:  "qualified predicate ancestor",
			query: qualified(qualifierSet(QualifiedPredicate, "biolink:related_to_at_instance_level")),
			edges: []string{"q1", "q2"},
			genes: []string{"NCBIGene:1", "NCBIGene:2"},
		},
		{
			name: "all qualifiers of a set must hold",
			query: qualified(qualifierSet(
				QualifiedPredicate, "biolink:causes",
				ObjectDirectionQualifier, "increased",
			)),
			edges: []string{"q1"},
			genes: []string{"NCBIGene:1"},
		},
		{
			name: "any set may hold",
			query: qualified(
				qualifierSet(ObjectDirectionQualifier, "increased"),
				qualifierSet(ObjectAspectQualifier, "expression"),
			),
			edges: []string{"q1", "q2"},
			genes: []string{"NCBIGene:1", "NCBIGene:2"},
		},
		{
			name: "no match",
			query: qualified(qualifierSet(
				ObjectDirectionQualifier, "increased",
				ObjectAspectQualifier, "expression",
			)),
			edges: []string{},
			genes: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := answerQuery(t, en, tt.query)
			assert.ElementsMatch(t, tt.edges, resp.Edges["e0"].IDs)
			assert.ElementsMatch(t, tt.genes, resp.Nodes["n1"].IDs)
		})
	}
}

func TestAnswer_UnqualifiedEdgesNeverMatch(t *testing.T) {
	en := newQualifiedEngine(t)

	// q3 has predicate related_to but no qualifiers at all.
	resp := answerQuery(t, en, qualified(qualifierSet(QualifiedPredicate, "biolink:related_to")))
	assert.ElementsMatch(t, []string{"q1", "q2"}, resp.Edges["e0"].IDs)
}

func TestAnswer_RejectedConstraints(t *testing.T) {
	en := newQualifiedEngine(t)
	ctx := context.Background()

	attrs := qualified()
	attrs.Edges["e0"].AttributeConstraints = []any{map[string]any{"id": "biolink:knowledge_level"}}

	for name, g := range map[string]*Graph{
		"attribute constraints": attrs,
		"unsupported qualifier": qualified(qualifierSet("biolink:subject_aspect_qualifier", "activity")),
		"empty qualifier set":   qualified(QualifierConstraint{}),
		"empty value":           qualified(qualifierSet(ObjectDirectionQualifier, "")),
	} {
		_, err := en.Answer(ctx, g)
		assert.ErrorIs(t, err, ErrInvalid, name)
	}
}

func TestDecode_Constraints(t *testing.T) {
	g, err := Decode([]byte(`{
		"nodes": {"n0": {"ids": ["CHEBI:1"]}, "n1": {}},
		"edges": {"e0": {
			"subject": "n0", "object": "n1",
			"qualifier_constraints": [{"qualifier_set": [
				{"qualifier_type_id": "biolink:qualified_predicate", "qualifier_value": "biolink:causes"},
				{"qualifier_type_id": "biolink:object_direction_qualifier", "qualifier_value": "increased"}
			]}],
			"attribute_constraints": []
		}}
	}`))
	require.NoError(t, err)
	assert.Equal(t, []QualifierConstraint{qualifierSet(
		QualifiedPredicate, "biolink:causes",
		ObjectDirectionQualifier, "increased",
	)}, g.Edges["e0"].QualifierConstraints)
	assert.Empty(t, g.Edges["e0"].AttributeConstraints)

	_, err = Decode([]byte(`{"nodes": {"n0": {}}, "edges": {"e0": {"subject": "n0", "object": "n0",
		"qualifier_constraints": [{"qualifier_set": [{"qualifier_type_id": "biolink:qualified_predicate"}]}]}}}`))
	assert.ErrorIs(t, err, ErrInvalid)
}
