// Package plover is an in-memory index and query engine for biomedical
// knowledge graphs.
//
// A DB loads a graph dump (nodes and edges in JSON, JSON Lines or TSV,
// optionally compressed) from a blob store, expands predicates through a
// biolink-style hierarchy, computes subclass descendants, and answers
// single-hop pattern queries against the result.
//
// # Quick Start
//
//	ctx := context.Background()
//	store := blobstore.NewLocalStore("./data")
//	sources, _ := plover.NewSources(store, "nodes.jsonl.gz", "edges.jsonl.gz")
//	db, err := plover.Open(ctx, sources,
//	    plover.WithOntology(&ontology.HTTPFetcher{URL: biolinkURL}, 10*time.Second))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	g, _ := query.Decode(body)
//	resp, err := db.Answer(ctx, g)
//
// # Rebuilds
//
// Rebuild loads the sources again and swaps the new snapshot in
// atomically. Queries never see a partially built index; a failed rebuild
// leaves the previous snapshot serving.
//
// # Errors
//
// Errors from sub-packages are mapped onto the sentinels in this package
// (ErrInvalidQuery, ErrTooManyEdges, ErrUnavailable, ErrMalformedGraph),
// which callers can test with errors.Is.
package plover
