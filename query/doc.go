// Package query answers single-hop graph pattern queries.
//
// A query graph has pattern nodes (qnodes) keyed by name, each with
// optional ids and categories, and at most one pattern edge (qedge)
// connecting two of them with optional predicates:
//
//	{
//	  "nodes": {
//	    "n0": {"ids": "CHEBI:15365"},
//	    "n1": {"categories": ["biolink:Protein"]}
//	  },
//	  "edges": {
//	    "e0": {"subject": "n0", "object": "n1", "predicates": "biolink:interacts_with"}
//	  },
//	  "include_metadata": true
//	}
//
// The graph may also be nested as {"message": {"query_graph": ...}}.
//
// Requested predicates match their expansion in the predicate hierarchy,
// requested ids match their subclass descendants, and edges are matched
// regardless of direction unless enforce_direction is set.
//
// A qedge may also carry qualifier_constraints. Each entry is a
// qualifier_set, and an edge matches when it satisfies every qualifier of
// at least one set.
package query
