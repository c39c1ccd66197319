// Package subclass computes taxonomic descendants from subclass edges.
//
// An edge `A biolink:subclass_of B` makes B the parent of A, an edge
// `A biolink:superclass_of B` makes A the parent of B. The lookup maps
// every parent to all of its transitive children.
//
// Descendant sets are computed by a memoized post-order walk from a
// synthetic root above all parents. The walk is iterative, visits parents
// and children in sorted id order, and drops every edge that closes a
// cycle, so the result is deterministic for a given graph. Nodes on such
// an edge are reported as problem nodes.
package subclass
