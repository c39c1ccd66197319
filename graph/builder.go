package graph

import (
	"fmt"
	"log/slog"
)

// Options configures loading.
type Options struct {
	// TestMode prunes dangling records instead of failing the load.
	TestMode bool
	// KeepProperties extends the core property allow-list for nodes and edges.
	KeepProperties []string
	// ArrayDelimiter splits list-valued TSV columns. Defaults to "ǂ".
	ArrayDelimiter string
	// ArrayProperties names TSV columns that hold lists.
	// Defaults to DefaultArrayProperties.
	ArrayProperties []string
	// Logger receives progress messages. Defaults to slog.Default().
	Logger *slog.Logger
}

// DefaultArrayProperties are the list-valued TSV columns of a typical dump.
var DefaultArrayProperties = []string{
	PropCategory,
	PropCategories,
	PropEquivalentIdentifiers,
	PropEquivalentCuries,
	"source_record_urls",
	"publications",
}

const progressEvery = 1_000_000

func (o *Options) withDefaults() {
	if o.ArrayDelimiter == "" {
		o.ArrayDelimiter = "ǂ"
	}
	if o.ArrayProperties == nil {
		o.ArrayProperties = DefaultArrayProperties
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Builder accumulates node and edge records and produces a Graph.
// It is not safe for concurrent use.
type Builder struct {
	opts Options
	keep map[string]struct{}

	nodeOrder []string
	nodes     map[string]*Node
	edgeOrder []string
	edges     map[string]*Edge
	preferred map[string]string

	stats Stats
}

// NewBuilder creates a Builder.
func NewBuilder(opts Options) *Builder {
	opts.withDefaults()
	keep := make(map[string]struct{}, len(opts.KeepProperties))
	for _, p := range opts.KeepProperties {
		keep[p] = struct{}{}
	}
	for _, p := range EdgeCoreProperties {
		keep[p] = struct{}{}
	}
	return &Builder{
		opts:      opts,
		keep:      keep,
		nodes:     make(map[string]*Node),
		edges:     make(map[string]*Edge),
		preferred: make(map[string]string),
	}
}

// AddNode adds a raw node record. Later records with the same id replace earlier ones.
func (b *Builder) AddNode(rec map[string]any) error {
	id, ok := stringField(rec, PropID)
	if !ok {
		return &DataError{Reason: "node without id"}
	}
	cats := stringList(rec[PropCategory])
	if len(cats) == 0 {
		cats = stringList(rec[PropCategories])
	}
	if len(cats) == 0 {
		return &DataError{ID: id, Reason: "node without category"}
	}

	name, _ := stringField(rec, PropName)
	n := &Node{Name: name, Categories: cats}

	for _, p := range []string{PropEquivalentIdentifiers, PropEquivalentCuries} {
		for _, equiv := range stringList(rec[p]) {
			if equiv != id {
				b.preferred[equiv] = id
			}
		}
	}

	for k, v := range rec {
		switch k {
		case PropID, PropName, PropCategory, PropCategories, PropEquivalentIdentifiers, PropEquivalentCuries:
			continue
		}
		if _, ok := b.keep[k]; !ok {
			continue
		}
		if n.Attributes == nil {
			n.Attributes = make(map[string]any)
		}
		n.Attributes[k] = v
	}

	if _, dup := b.nodes[id]; dup {
		b.stats.DuplicateNodes++
	} else {
		b.nodeOrder = append(b.nodeOrder, id)
	}
	b.nodes[id] = n

	if len(b.nodeOrder)%progressEvery == 0 {
		b.opts.Logger.Info("loading nodes", "count", len(b.nodeOrder))
	}
	return nil
}

// AddEdge adds a raw edge record. Edges without an id get
// subject--predicate--object, suffixed with --primary_knowledge_source when
// one is set. A repeated id is a DataError.
func (b *Builder) AddEdge(rec map[string]any) error {
	subject, ok := stringField(rec, PropSubject)
	if !ok {
		return &DataError{ID: fmt.Sprint(rec[PropID]), Reason: "edge without subject"}
	}
	object, ok := stringField(rec, PropObject)
	if !ok {
		return &DataError{ID: fmt.Sprint(rec[PropID]), Reason: "edge without object"}
	}
	predicate, ok := stringField(rec, PropPredicate)
	if !ok {
		return &DataError{ID: fmt.Sprint(rec[PropID]), Reason: "edge without predicate"}
	}
	e := &Edge{Subject: subject, Object: object, Predicate: predicate}
	e.PrimaryKnowledgeSource, _ = stringField(rec, PropPrimaryKnowledgeSource)

	id, ok := stringField(rec, PropID)
	if !ok {
		id = subject + "--" + predicate + "--" + object
		if e.PrimaryKnowledgeSource != "" {
			id += "--" + e.PrimaryKnowledgeSource
		}
	}
	if _, dup := b.edges[id]; dup {
		return &DataError{ID: id, Reason: "duplicate edge id"}
	}

	for k, v := range rec {
		switch k {
		case PropID, PropSubject, PropObject, PropPredicate, PropPrimaryKnowledgeSource:
			continue
		}
		if _, ok := b.keep[k]; !ok || isEmpty(v) {
			continue
		}
		if e.Attributes == nil {
			e.Attributes = make(map[string]any)
		}
		e.Attributes[k] = v
	}

	b.edgeOrder = append(b.edgeOrder, id)
	b.edges[id] = e

	if len(b.edgeOrder)%progressEvery == 0 {
		b.opts.Logger.Info("loading edges", "count", len(b.edgeOrder))
	}
	return nil
}

// Finish validates referential integrity and freezes the tables.
func (b *Builder) Finish() (*Graph, error) {
	if b.opts.TestMode {
		b.prune()
	} else {
		for _, id := range b.edgeOrder {
			e := b.edges[id]
			for _, end := range []string{e.Subject, e.Object} {
				if _, ok := b.nodes[end]; !ok {
					return nil, &DataError{ID: id, Reason: fmt.Sprintf("edge endpoint %q not in node table", end)}
				}
			}
		}
	}

	g := &Graph{
		nodeIDs:   make([]string, 0, len(b.nodeOrder)),
		nodes:     make([]Node, 0, len(b.nodeOrder)),
		nodeIndex: make(map[string]uint32, len(b.nodeOrder)),
		edgeIDs:   make([]string, 0, len(b.edgeOrder)),
		edges:     make([]Edge, 0, len(b.edgeOrder)),
		edgeIndex: make(map[string]uint32, len(b.edgeOrder)),
		preferred: b.preferred,
	}
	for _, id := range b.nodeOrder {
		n, ok := b.nodes[id]
		if !ok {
			continue
		}
		g.nodeIndex[id] = uint32(len(g.nodes))
		g.nodeIDs = append(g.nodeIDs, id)
		g.nodes = append(g.nodes, *n)
	}
	for _, id := range b.edgeOrder {
		e, ok := b.edges[id]
		if !ok {
			continue
		}
		g.edgeIndex[id] = uint32(len(g.edges))
		g.edgeIDs = append(g.edgeIDs, id)
		g.edges = append(g.edges, *e)
	}

	b.stats.Nodes = len(g.nodes)
	b.stats.Edges = len(g.edges)
	b.stats.EquivalentIDs = len(g.preferred)
	g.stats = b.stats

	b.nodes, b.edges, b.nodeOrder, b.edgeOrder, b.preferred = nil, nil, nil, nil, nil
	return g, nil
}

// prune keeps nodes referenced by an edge, then edges whose endpoints both survived.
func (b *Builder) prune() {
	referenced := make(map[string]struct{}, len(b.nodes))
	for _, e := range b.edges {
		referenced[e.Subject] = struct{}{}
		referenced[e.Object] = struct{}{}
	}
	for id := range b.nodes {
		if _, ok := referenced[id]; !ok {
			delete(b.nodes, id)
			b.stats.PrunedNodes++
		}
	}
	for id, e := range b.edges {
		_, sOK := b.nodes[e.Subject]
		_, oOK := b.nodes[e.Object]
		if !sOK || !oOK {
			delete(b.edges, id)
			b.stats.PrunedEdges++
		}
	}
	for equiv, id := range b.preferred {
		if _, ok := b.nodes[id]; !ok {
			delete(b.preferred, equiv)
		}
	}
}

func stringField(rec map[string]any, key string) (string, bool) {
	s, ok := rec[key].(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// stringList accepts a string or a list of strings.
func stringList(v any) []string {
	switch t := v.(type) {
	case string:
		if t == "" {
			return nil
		}
		return []string{t}
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, x := range t {
			if s, ok := x.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	case []string:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	}
	return false
}
