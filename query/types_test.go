package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringList(t *testing.T) {
	var n QNode
	require.NoError(t, (&n.IDs).UnmarshalJSON([]byte(`"CHEBI:1"`)))
	assert.Equal(t, StringList{"CHEBI:1"}, n.IDs)

	require.NoError(t, (&n.IDs).UnmarshalJSON([]byte(` ["CHEBI:1", "CHEBI:2"]`)))
	assert.Equal(t, StringList{"CHEBI:1", "CHEBI:2"}, n.IDs)

	require.NoError(t, (&n.IDs).UnmarshalJSON([]byte(`null`)))
	assert.Nil(t, n.IDs)

	assert.Error(t, (&n.IDs).UnmarshalJSON([]byte(`42`)))
}

func TestDecode(t *testing.T) {
	t.Run("bare graph", func(t *testing.T) {
		g, err := Decode([]byte(`{
			"nodes": {"n0": {"ids": "CHEBI:1"}, "n1": {"categories": "biolink:Protein"}},
			"edges": {"e0": {"subject": "n0", "object": "n1", "predicates": ["biolink:interacts_with"]}},
			"include_metadata": true
		}`))
		require.NoError(t, err)
		assert.Equal(t, StringList{"CHEBI:1"}, g.Nodes["n0"].IDs)
		assert.Equal(t, StringList{"biolink:Protein"}, g.Nodes["n1"].Categories)
		assert.Equal(t, StringList{"biolink:interacts_with"}, g.Edges["e0"].Predicates)
		assert.True(t, g.IncludeMetadata)
		assert.False(t, g.EnforceDirection)
	})

	t.Run("message", func(t *testing.T) {
		g, err := Decode([]byte(`{
			"message": {"query_graph": {"nodes": {"n0": {"ids": ["CHEBI:1"]}}, "enforce_direction": true}},
			"include_metadata": true
		}`))
		require.NoError(t, err)
		assert.Equal(t, StringList{"CHEBI:1"}, g.Nodes["n0"].IDs)
		assert.True(t, g.IncludeMetadata)
		assert.True(t, g.EnforceDirection)
	})

	for name, doc := range map[string]string{
		"not json":      `{"nodes":`,
		"no nodes":      `{"nodes": {}}`,
		"missing nodes": `{"edges": {}}`,
		"null qnode":    `{"nodes": {"n0": null}}`,
		"edge subject":  `{"nodes": {"n0": {}}, "edges": {"e0": {"object": "n0"}}}`,
		"empty id":      `{"nodes": {"n0": {"ids": [""]}}}`,
	} {
		_, err := Decode([]byte(doc))
		assert.ErrorIs(t, err, ErrInvalid, name)
	}
}

func TestValidate_Requests(t *testing.T) {
	assert.NoError(t, Validate(&EdgesRequest{Pairs: [][]string{{"a", "b"}}}))
	assert.ErrorIs(t, Validate(&EdgesRequest{Pairs: [][]string{{"a"}}}), ErrInvalid)
	assert.ErrorIs(t, Validate(&EdgesRequest{}), ErrInvalid)

	assert.NoError(t, Validate(&NeighborsRequest{IDs: StringList{"a"}}))
	assert.ErrorIs(t, Validate(&NeighborsRequest{}), ErrInvalid)
}
