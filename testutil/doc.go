// Package testutil provides fixtures for tests and benchmarks.
//
// This package is intended for use in tests only.
//
// # Fixtures
//
// Hierarchy is a small biolink-style predicate hierarchy and Graph a graph
// document that uses it:
//
//	defs, _ := ontology.Parse([]byte(testutil.Hierarchy))
//	g, _ := graph.Load(ctx, graph.Options{}, codec.Default,
//		graph.Input{Name: "kg.json", Reader: strings.NewReader(testutil.Graph)})
//
// # Random Graphs
//
//	rng := testutil.NewRNG(seed)
//	nodes, edges := rng.Graph(1000, 5000)
package testutil
