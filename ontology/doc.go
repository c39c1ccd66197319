// Package ontology turns a predicate hierarchy into the expansion map used
// by queries.
//
// The hierarchy is a YAML document. Both the biolink-model layout
//
//	slots:
//	  related to:
//	    symmetric: true
//	  treats:
//	    is_a: related to
//	    inverse: treated by
//
// and a plain layout (`predicates:` with `parent`, `inverse`, `symmetric`)
// are accepted. Names are normalized to `biolink:snake_case` unless they
// already carry a prefix.
//
// For every predicate p the expansion is the smallest set that contains p
// and is closed under taking descendants and inverses. Each member also
// records whether it was reached through an odd number of inverse steps,
// so direction-aware queries know which adjacency bucket to read.
//
// A `classes:` section, when present, gives category descendants the same
// way: a query for biolink:GeneOrGeneProduct also matches biolink:Gene and
// biolink:Protein nodes. Class names are normalized to `biolink:CamelCase`.
//
// When the hierarchy cannot be fetched or parsed, Build returns the identity
// expansion (every predicate expands only to itself) and reports the
// degraded state instead of failing.
package ontology
