package query

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hupe1980/plover/graph"
	"github.com/hupe1980/plover/index"
	"github.com/hupe1980/plover/ontology"
	"github.com/hupe1980/plover/subclass"
	"github.com/hupe1980/plover/testutil"
)

func newBenchEngine(b *testing.B, numNodes, numEdges int) *Engine {
	b.Helper()
	nodes, edges := testutil.NewRNG(42).Graph(numNodes, numEdges)

	gb := graph.NewBuilder(graph.Options{})
	for _, n := range nodes {
		require.NoError(b, gb.AddNode(n))
	}
	for _, e := range edges {
		require.NoError(b, gb.AddEdge(e))
	}
	g, err := gb.Finish()
	require.NoError(b, err)

	e, err := ontology.Load(context.Background(), ontology.FetcherFunc(func(context.Context) ([]byte, error) {
		return []byte(testutil.Hierarchy), nil
	}), 0)
	require.NoError(b, err)
	return NewEngine(index.Build(g), e, subclass.Build(g, subclass.Options{}), Options{})
}

func BenchmarkAnswer(b *testing.B) {
	en := newBenchEngine(b, 10_000, 100_000)
	ctx := context.Background()

	cases := []struct {
		name  string
		query *Graph
	}{
		// Node 0 is the heaviest Zipf hub.
		{"Hub/RelatedTo", oneHop(&QNode{IDs: StringList{testutil.NodeID(0)}}, &QNode{}, "biolink:related_to")},
		{"Hub/Category", oneHop(&QNode{IDs: StringList{testutil.NodeID(0)}}, &QNode{Categories: StringList{"biolink:Protein"}}, "biolink:interacts_with")},
		{"Leaf/Any", oneHop(&QNode{IDs: StringList{testutil.NodeID(9_999)}}, &QNode{})},
	}

	for _, tc := range cases {
		b.Run(tc.name, func(b *testing.B) {
			b.ReportAllocs()
			for b.Loop() {
				if _, err := en.Answer(ctx, tc.query); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkGetNeighbors(b *testing.B) {
	en := newBenchEngine(b, 10_000, 100_000)
	ctx := context.Background()

	for _, n := range []int{1, 10, 100} {
		ids := make([]string, n)
		for i := range ids {
			ids[i] = testutil.NodeID(i * 97)
		}
		b.Run(fmt.Sprintf("ids=%d", n), func(b *testing.B) {
			b.ReportAllocs()
			for b.Loop() {
				if _, err := en.GetNeighbors(ctx, ids, nil, nil); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
