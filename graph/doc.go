// Package graph loads knowledge graph dumps into immutable node and edge tables.
//
// A dump is one JSON document holding `nodes` and `edges`, or a pair of
// JSON Lines / TSV files. Any input may be compressed (.gz, .zst, .lz4).
//
// Records are reduced to a core property set while loading: nodes keep their
// name and categories, edges keep endpoints, predicate, provenance and
// qualifiers. Everything else is dropped unless allow-listed through
// Options.KeepProperties.
//
// Normal builds fail on any record that misses a required field or refers to
// a node that does not exist. Test builds instead prune the node table to the
// nodes referenced by edges and then drop edges with a missing endpoint.
package graph
