package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func node(id, name string, cats ...string) map[string]any {
	list := make([]any, len(cats))
	for i, c := range cats {
		list[i] = c
	}
	return map[string]any{"id": id, "name": name, "category": list}
}

func edge(id, s, p, o string) map[string]any {
	return map[string]any{"id": id, "subject": s, "predicate": p, "object": o}
}

func TestBuilder_CoreProperties(t *testing.T) {
	b := NewBuilder(Options{KeepProperties: []string{"description"}})

	n := node("CHEBI:15365", "aspirin", "biolink:SmallMolecule")
	n["description"] = "an NSAID"
	n["iri"] = "http://purl.obolibrary.org/obo/CHEBI_15365"
	n["equivalent_identifiers"] = []any{"CHEBI:15365", "DRUGBANK:DB00945"}
	require.NoError(t, b.AddNode(n))
	require.NoError(t, b.AddNode(node("NCBIGene:5743", "PTGS2", "biolink:Gene", "biolink:Protein")))

	e := edge("e1", "CHEBI:15365", "biolink:affects", "NCBIGene:5743")
	e["primary_knowledge_source"] = "infores:drugcentral"
	e["qualified_predicate"] = "biolink:causes"
	e["publications"] = []any{"PMID:1"}
	e["source_record_urls"] = []any{}
	require.NoError(t, b.AddEdge(e))

	g, err := b.Finish()
	require.NoError(t, err)

	// 1. Node table
	asp, ok := g.Node("CHEBI:15365")
	require.True(t, ok)
	assert.Equal(t, "aspirin", asp.Name)
	assert.Equal(t, []string{"biolink:SmallMolecule"}, asp.Categories)
	assert.Equal(t, map[string]any{"description": "an NSAID"}, asp.Attributes)

	// 2. Edge table
	got, ok := g.Edge("e1")
	require.True(t, ok)
	assert.Equal(t, "infores:drugcentral", got.PrimaryKnowledgeSource)
	assert.Equal(t, map[string]any{"qualified_predicate": "biolink:causes"}, got.Attributes)

	// 3. Preferred ids
	assert.Equal(t, "CHEBI:15365", g.Preferred("DRUGBANK:DB00945"))
	assert.Equal(t, "MONDO:1", g.Preferred("MONDO:1"))

	// 4. Ordinals follow load order
	ord, ok := g.NodeOrdinal("NCBIGene:5743")
	require.True(t, ok)
	assert.Equal(t, uint32(1), ord)
	assert.Equal(t, "NCBIGene:5743", g.NodeID(ord))
	assert.Equal(t, "e1", g.EdgeID(0))
	assert.True(t, g.NodeAt(ord).HasCategory("biolink:Protein"))
}

func TestBuilder_SynthesizedEdgeID(t *testing.T) {
	b := NewBuilder(Options{})
	require.NoError(t, b.AddNode(node("A", "a", "biolink:Gene")))
	require.NoError(t, b.AddNode(node("B", "b", "biolink:Gene")))
	require.NoError(t, b.AddEdge(map[string]any{"subject": "A", "predicate": "biolink:related_to", "object": "B"}))

	g, err := b.Finish()
	require.NoError(t, err)
	_, ok := g.Edge("A--biolink:related_to--B")
	assert.True(t, ok)
}

func TestBuilder_MissingFields(t *testing.T) {
	b := NewBuilder(Options{})

	err := b.AddNode(map[string]any{"name": "nameless"})
	assert.ErrorIs(t, err, ErrMalformed)

	err = b.AddNode(map[string]any{"id": "X"})
	var de *DataError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "X", de.ID)

	err = b.AddEdge(map[string]any{"id": "e", "subject": "A", "object": "B"})
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestBuilder_DanglingEdgeIsFatal(t *testing.T) {
	b := NewBuilder(Options{})
	require.NoError(t, b.AddNode(node("A", "a", "biolink:Gene")))
	require.NoError(t, b.AddEdge(edge("e1", "A", "biolink:related_to", "MISSING")))

	_, err := b.Finish()
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestBuilder_TestModePrunes(t *testing.T) {
	b := NewBuilder(Options{TestMode: true})
	require.NoError(t, b.AddNode(node("A", "a", "biolink:Gene")))
	require.NoError(t, b.AddNode(node("B", "b", "biolink:Gene")))
	require.NoError(t, b.AddNode(node("LONELY", "l", "biolink:Gene")))
	n := node("GONE", "g", "biolink:Gene")
	n["equivalent_identifiers"] = []any{"ALIAS:1"}
	require.NoError(t, b.AddNode(n))
	require.NoError(t, b.AddEdge(edge("e1", "A", "biolink:related_to", "B")))
	require.NoError(t, b.AddEdge(edge("e2", "A", "biolink:related_to", "MISSING")))

	g, err := b.Finish()
	require.NoError(t, err)

	// MISSING is referenced but absent, so e2 goes; LONELY and GONE are unreferenced.
	assert.Equal(t, 2, g.NumNodes())
	assert.Equal(t, 1, g.NumEdges())
	assert.True(t, g.HasNode("A"))
	assert.False(t, g.HasNode("LONELY"))
	assert.Equal(t, "ALIAS:1", g.Preferred("ALIAS:1"))

	for _, e := range g.Edges() {
		assert.True(t, g.HasNode(e.Subject))
		assert.True(t, g.HasNode(e.Object))
	}

	st := g.Stats()
	assert.Equal(t, 2, st.PrunedNodes)
	assert.Equal(t, 1, st.PrunedEdges)
}

func TestBuilder_Duplicates(t *testing.T) {
	b := NewBuilder(Options{})
	require.NoError(t, b.AddNode(node("A", "first", "biolink:Gene")))
	require.NoError(t, b.AddNode(node("A", "second", "biolink:Gene")))

	g, err := b.Finish()
	require.NoError(t, err)
	a, _ := g.Node("A")
	assert.Equal(t, "second", a.Name)
	assert.Equal(t, 1, g.Stats().DuplicateNodes)
}

func TestBuilder_DuplicateEdges(t *testing.T) {
	newBuilder := func(t *testing.T) *Builder {
		b := NewBuilder(Options{})
		require.NoError(t, b.AddNode(node("A", "a", "biolink:Gene")))
		require.NoError(t, b.AddNode(node("B", "b", "biolink:Gene")))
		return b
	}
	related := func(source string) map[string]any {
		return map[string]any{"subject": "A", "predicate": "biolink:related_to", "object": "B", "primary_knowledge_source": source}
	}

	t.Run("SourcesKeepSynthesizedIDsApart", func(t *testing.T) {
		b := newBuilder(t)
		require.NoError(t, b.AddEdge(related("infores:s1")))
		require.NoError(t, b.AddEdge(related("infores:s2")))

		g, err := b.Finish()
		require.NoError(t, err)
		assert.Equal(t, 2, g.NumEdges())

		e1, ok := g.Edge("A--biolink:related_to--B--infores:s1")
		require.True(t, ok)
		assert.Equal(t, "infores:s1", e1.PrimaryKnowledgeSource)
		e2, ok := g.Edge("A--biolink:related_to--B--infores:s2")
		require.True(t, ok)
		assert.Equal(t, "infores:s2", e2.PrimaryKnowledgeSource)
	})

	t.Run("RepeatedSynthesizedID", func(t *testing.T) {
		b := newBuilder(t)
		require.NoError(t, b.AddEdge(related("infores:s1")))

		err := b.AddEdge(related("infores:s1"))
		var de *DataError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "A--biolink:related_to--B--infores:s1", de.ID)
		assert.ErrorIs(t, err, ErrMalformed)
	})

	t.Run("RepeatedExplicitID", func(t *testing.T) {
		b := newBuilder(t)
		require.NoError(t, b.AddEdge(edge("e1", "A", "biolink:related_to", "B")))

		err := b.AddEdge(edge("e1", "B", "biolink:related_to", "A"))
		assert.ErrorIs(t, err, ErrMalformed)

		g, ferr := b.Finish()
		require.NoError(t, ferr)
		e, _ := g.Edge("e1")
		assert.Equal(t, "A", e.Subject)
	})
}
