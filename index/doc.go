// Package index provides the adjacency index queries run against.
//
// For every node the index stores
//
//	neighbor category -> predicate -> direction -> neighbor -> edges
//
// and each edge is inserted twice: forward under its subject and backward
// under its object. A neighbor with several categories is reachable under
// each of them.
//
// Nodes and edges are referenced by the dense ordinals of graph.Graph,
// categories and predicates by symbol ids. Each bucket keeps the edges of
// all its neighbors in a roaring bitmap so that a full bucket scan is a
// single bitmap union.
//
// An Index is immutable after Build and safe for concurrent use.
package index
