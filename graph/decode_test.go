package graph

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/hupe1980/plover/codec"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const nodesJSONL = `{"id":"CHEBI:1","name":"water","category":["biolink:SmallMolecule"]}
{"id":"NCBIGene:1","name":"A1BG","category":"biolink:Gene"}

`

const edgesJSONL = `{"id":"e1","subject":"CHEBI:1","predicate":"biolink:interacts_with","object":"NCBIGene:1"}
`

func TestDetectFormat(t *testing.T) {
	cases := []struct {
		name   string
		format Format
		comp   Compression
	}{
		{"kg.json", FormatJSON, CompressionNone},
		{"nodes.jsonl.gz", FormatJSONL, CompressionGzip},
		{"edges.tsv.zst", FormatTSV, CompressionZstd},
		{"edges.jsonl.lz4", FormatJSONL, CompressionLZ4},
	}
	for _, tc := range cases {
		f, c, err := DetectFormat(tc.name)
		require.NoError(t, err, tc.name)
		assert.Equal(t, tc.format, f, tc.name)
		assert.Equal(t, tc.comp, c, tc.name)
	}

	_, _, err := DetectFormat("nodes.csv")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestLoad_Document(t *testing.T) {
	doc := `{"nodes":[{"id":"A","name":"a","category":["biolink:Gene"]},{"id":"B","name":"b","category":["biolink:Protein"]}],
"edges":[{"id":"e1","subject":"A","predicate":"biolink:related_to","object":"B"}]}`

	g, err := Load(context.Background(), Options{}, codec.JSON{}, Input{Name: "kg.json", Reader: strings.NewReader(doc)})
	require.NoError(t, err)
	assert.Equal(t, 2, g.NumNodes())
	assert.Equal(t, 1, g.NumEdges())
}

func TestLoad_JSONLGzip(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(nodesJSONL))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	g, err := Load(context.Background(), Options{}, nil,
		Input{Name: "nodes.jsonl.gz", Kind: KindNodes, Reader: &buf},
		Input{Name: "edges.jsonl", Kind: KindEdges, Reader: strings.NewReader(edgesJSONL)},
	)
	require.NoError(t, err)

	n, ok := g.Node("NCBIGene:1")
	require.True(t, ok)
	assert.Equal(t, []string{"biolink:Gene"}, n.Categories)
	assert.Equal(t, 1, g.NumEdges())
}

func TestLoad_TSVZstd(t *testing.T) {
	nodes := "id\tname\tcategory\tinformation_content\n" +
		"1234\tfoo\tbiolink:Gene\t85.2\n" +
		"\t\t\t\n" +
		"CHEBI:1\twater\tbiolink:SmallMoleculeǂbiolink:ChemicalEntity\t100\n"
	edges := "subject\tpredicate\tobject\tprimary_knowledge_source\tsource_record_urls\n" +
		"CHEBI:1\tbiolink:related_to\t1234\tinfores:x\thttps://a|https://b\n"

	var buf bytes.Buffer
	zw, err := zstd.NewWriter(&buf)
	require.NoError(t, err)
	_, err = zw.Write([]byte(nodes))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	opts := Options{
		KeepProperties:  []string{"information_content"},
		ArrayDelimiter:  "|",
		ArrayProperties: []string{"category", "source_record_urls"},
	}
	// the node file uses the default delimiter, the edge file "|"
	b := NewBuilder(Options{KeepProperties: opts.KeepProperties})
	require.NoError(t, b.Read(context.Background(), codec.Default, Input{Name: "nodes.tsv.zst", Kind: KindNodes, Reader: &buf}))
	b.opts.ArrayDelimiter = "|"
	require.NoError(t, b.Read(context.Background(), codec.Default, Input{Name: "edges.tsv", Kind: KindEdges, Reader: strings.NewReader(edges)}))
	g, err := b.Finish()
	require.NoError(t, err)

	n, ok := g.Node("1234")
	require.True(t, ok, "numeric-looking ids stay strings")
	assert.Equal(t, 85.2, n.Attributes["information_content"])

	water, _ := g.Node("CHEBI:1")
	assert.Equal(t, []string{"biolink:SmallMolecule", "biolink:ChemicalEntity"}, water.Categories)
	assert.Equal(t, int64(100), water.Attributes["information_content"])

	e, ok := g.Edge("CHEBI:1--biolink:related_to--1234--infores:x")
	require.True(t, ok)
	assert.Equal(t, "infores:x", e.PrimaryKnowledgeSource)
	assert.Equal(t, []any{"https://a", "https://b"}, e.Attributes["source_record_urls"])
}

func TestLoad_TSVIdentifierLists(t *testing.T) {
	nodes := "id\tname\tcategory\tequivalent_identifiers\n" +
		"NCBIGene:1\tA1BG\t1\tNCBIGene:1ǂ1234ǂ1.5\n"

	g, err := Load(context.Background(), Options{}, nil,
		Input{Name: "nodes.tsv", Kind: KindNodes, Reader: strings.NewReader(nodes)})
	require.NoError(t, err)

	// equivalent ids that look numeric are still ids
	assert.Equal(t, "NCBIGene:1", g.Preferred("1234"))
	assert.Equal(t, "NCBIGene:1", g.Preferred("1.5"))
	assert.Equal(t, 2, g.Stats().EquivalentIDs)

	n, ok := g.Node("NCBIGene:1")
	require.True(t, ok)
	assert.Equal(t, []string{"1"}, n.Categories)
}

func TestLoad_LZ4(t *testing.T) {
	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	_, err := zw.Write([]byte(edgesJSONL))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	g, err := Load(context.Background(), Options{}, nil,
		Input{Name: "nodes.jsonl", Kind: KindNodes, Reader: strings.NewReader(nodesJSONL)},
		Input{Name: "edges.jsonl.lz4", Kind: KindEdges, Reader: &buf},
	)
	require.NoError(t, err)
	assert.Equal(t, 1, g.NumEdges())
}

func TestLoad_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("BadJSONLine", func(t *testing.T) {
		_, err := Load(ctx, Options{}, nil, Input{Name: "nodes.jsonl", Kind: KindNodes, Reader: strings.NewReader("{\"id\":\"A\"\n")})
		var de *DataError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, 1, de.Line)
	})

	t.Run("MissingCategoryHasLine", func(t *testing.T) {
		_, err := Load(ctx, Options{}, nil, Input{Name: "nodes.jsonl", Kind: KindNodes,
			Reader: strings.NewReader(nodesJSONL + `{"id":"X","name":"x"}` + "\n")})
		var de *DataError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "nodes.jsonl", de.Input)
		assert.Equal(t, 4, de.Line)
		assert.Contains(t, err.Error(), "nodes.jsonl:4")
	})

	t.Run("ColumnMismatch", func(t *testing.T) {
		_, err := Load(ctx, Options{}, nil, Input{Name: "nodes.tsv", Kind: KindNodes,
			Reader: strings.NewReader("id\tcategory\nA\tbiolink:Gene\textra\n")})
		assert.ErrorIs(t, err, ErrMalformed)
	})

	t.Run("DuplicateHeader", func(t *testing.T) {
		_, err := Load(ctx, Options{}, nil, Input{Name: "nodes.tsv", Kind: KindNodes,
			Reader: strings.NewReader("id\tid\n")})
		assert.ErrorIs(t, err, ErrMalformed)
	})

	t.Run("EmptyTSV", func(t *testing.T) {
		_, err := Load(ctx, Options{}, nil, Input{Name: "nodes.tsv", Kind: KindNodes, Reader: strings.NewReader("")})
		assert.ErrorIs(t, err, ErrMalformed)
	})

	t.Run("KindRequired", func(t *testing.T) {
		_, err := Load(ctx, Options{}, nil, Input{Name: "nodes.jsonl", Reader: strings.NewReader(nodesJSONL)})
		require.Error(t, err)
	})

	t.Run("BadGzip", func(t *testing.T) {
		_, err := Load(ctx, Options{}, nil, Input{Name: "nodes.jsonl.gz", Kind: KindNodes, Reader: strings.NewReader("not gzip")})
		assert.ErrorIs(t, err, ErrMalformed)
	})
}

func TestScalarValue(t *testing.T) {
	assert.Equal(t, int64(42), scalarValue("42"))
	assert.Equal(t, 0.5, scalarValue("0.5"))
	assert.Equal(t, true, scalarValue("True"))
	assert.Equal(t, false, scalarValue("f"))
	assert.Nil(t, scalarValue("null"))
	assert.Equal(t, "-3", scalarValue("-3"))
	assert.Equal(t, "1.2.3", scalarValue("1.2.3"))
	assert.Equal(t, "CHEBI:1", scalarValue("CHEBI:1"))
}
