package query

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/plover/graph"
	"github.com/hupe1980/plover/index"
	"github.com/hupe1980/plover/ontology"
	"github.com/hupe1980/plover/subclass"
)

const (
	// DefaultEdgeCutoff caps the number of edges in one answer. An answer
	// fails only when it would exceed the cutoff; exactly cutoff edges pass.
	DefaultEdgeCutoff = 1_000_000
	// RelatedTo is the root predicate used to find edges between node pairs.
	RelatedTo = "biolink:related_to"
)

// Options configures an Engine.
type Options struct {
	// EdgeCutoff is the largest answer allowed. Defaults to DefaultEdgeCutoff.
	EdgeCutoff int
	Logger     *slog.Logger
}

// Engine answers queries against one immutable snapshot of the graph.
// It is safe for concurrent use.
type Engine struct {
	index     *index.Index
	graph     *graph.Graph
	expansion *ontology.Expansion
	subclass  *subclass.Lookup
	cutoff    int
	logger    *slog.Logger
}

// NewEngine creates an engine. A nil expansion behaves as the identity
// expansion and a nil lookup disables subclass reasoning.
func NewEngine(x *index.Index, e *ontology.Expansion, s *subclass.Lookup, opts Options) *Engine {
	if e == nil {
		e = ontology.Identity("")
	}
	if opts.EdgeCutoff <= 0 {
		opts.EdgeCutoff = DefaultEdgeCutoff
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Engine{
		index:     x,
		graph:     x.Graph(),
		expansion: e,
		subclass:  s,
		cutoff:    opts.EdgeCutoff,
		logger:    opts.Logger,
	}
}

// Index returns the index the engine reads.
func (en *Engine) Index() *index.Index { return en.index }

// Expansion returns the predicate expansion.
func (en *Engine) Expansion() *ontology.Expansion { return en.expansion }

// Subclass returns the subclass lookup.
func (en *Engine) Subclass() *subclass.Lookup { return en.subclass }

// Answer answers a query graph with zero or one qedge.
func (en *Engine) Answer(ctx context.Context, g *Graph) (*Response, error) {
	start := time.Now()
	key, err := g.check()
	if err != nil {
		return nil, err
	}

	var resp *Response
	if key == "" {
		resp = en.answerEdgeless(g)
	} else {
		resp, err = en.answerOneHop(ctx, g, key)
		if err != nil {
			return nil, err
		}
	}

	en.logger.Debug("query answered",
		"qnodes", len(g.Nodes),
		"qedges", len(g.Edges),
		"edges", resp.NumEdges(),
		"duration", time.Since(start),
	)
	return resp, nil
}

func (en *Engine) answerEdgeless(g *Graph) *Response {
	resp := &Response{
		Nodes: make(map[string]*NodeBinding, len(g.Nodes)),
		Edges: map[string]*EdgeBinding{},
	}
	for key, qn := range g.Nodes {
		var found []string
		var origins map[string][]string
		if qn != nil && len(qn.IDs) > 0 {
			var ids []string
			ids, origins = en.subclass.Expand(en.canonical(qn.IDs))
			for _, id := range ids {
				if en.graph.HasNode(id) {
					found = append(found, id)
				}
			}
			slices.Sort(found)
		}
		resp.Nodes[key] = en.nodeBinding(found, origins, g.IncludeMetadata)
	}
	return resp
}

func (en *Engine) answerOneHop(ctx context.Context, g *Graph, key string) (*Response, error) {
	qe := g.Edges[key]
	subjIDs, subjOrigins := en.expandIDs(g.Nodes[qe.Subject].IDs)
	objIDs, objOrigins := en.expandIDs(g.Nodes[qe.Object].IDs)

	// The side with more ids drives the lookup.
	inKey, outKey := qe.Subject, qe.Object
	inIDs, outIDs := subjIDs, objIDs
	inOrigins, outOrigins := subjOrigins, objOrigins
	if len(objIDs) > len(subjIDs) {
		inKey, outKey = outKey, inKey
		inIDs, outIDs = outIDs, inIDs
		inOrigins, outOrigins = outOrigins, inOrigins
	}

	ans, err := en.lookup(ctx, pattern{
		inputs:      inIDs,
		outputs:     outIDs,
		categories:  g.Nodes[outKey].Categories,
		predicates:  qe.Predicates,
		qualifiers:  en.qualifierFilter(qe.QualifierConstraints),
		fromSubject: inKey == qe.Subject,
		enforce:     g.EnforceDirection,
	})
	if err != nil {
		return nil, err
	}

	return &Response{
		Nodes: map[string]*NodeBinding{
			inKey:  en.nodeBinding(ans.inputs, inOrigins, g.IncludeMetadata),
			outKey: en.nodeBinding(ans.outputs, outOrigins, g.IncludeMetadata),
		},
		Edges: map[string]*EdgeBinding{
			key: en.edgeBinding(ans.edges, g.IncludeMetadata),
		},
	}, nil
}

// expandIDs canonicalizes ids and adds their subclass descendants.
// A qnode without ids yields nil, which places no constraint.
func (en *Engine) expandIDs(ids []string) ([]string, map[string][]string) {
	if len(ids) == 0 {
		return nil, nil
	}
	return en.subclass.Expand(en.canonical(ids))
}

// canonical maps ids to the identifiers used in the graph, without duplicates.
func (en *Engine) canonical(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if p := en.graph.Preferred(id); !slices.Contains(out, p) {
			out = append(out, p)
		}
	}
	return out
}

func (en *Engine) nodeBinding(ids []string, origins map[string][]string, metadata bool) *NodeBinding {
	b := &NodeBinding{IDs: ids}
	if !metadata {
		return b
	}
	b.Records = make(map[string]*NodeRecord, len(ids))
	for _, id := range ids {
		if n, ok := en.graph.Node(id); ok {
			b.Records[id] = newNodeRecord(n, origins[id])
		}
	}
	return b
}

func (en *Engine) edgeBinding(edges *roaring.Bitmap, metadata bool) *EdgeBinding {
	b := &EdgeBinding{IDs: en.edgeIDs(edges)}
	if !metadata {
		return b
	}
	b.Records = make(map[string]*EdgeRecord, len(b.IDs))
	it := edges.Iterator()
	for it.HasNext() {
		ord := it.Next()
		b.Records[en.graph.EdgeID(ord)] = newEdgeRecord(en.graph.EdgeAt(ord))
	}
	return b
}

func (en *Engine) edgeIDs(edges *roaring.Bitmap) []string {
	out := make([]string, 0, edges.GetCardinality())
	it := edges.Iterator()
	for it.HasNext() {
		out = append(out, en.graph.EdgeID(it.Next()))
	}
	slices.Sort(out)
	return out
}

// GetEdges returns the edges between each pair of nodes, in either
// direction and under any predicate. Ids are canonicalized but not expanded
// to subclasses.
func (en *Engine) GetEdges(ctx context.Context, pairs [][]string) (*EdgesResponse, error) {
	resp := &EdgesResponse{
		PairsToEdgeIDs: make(map[string][]string, len(pairs)),
		KnowledgeGraph: KnowledgeGraph{
			Nodes: make(map[string]*NodeRecord),
			Edges: make(map[string]*EdgeRecord),
		},
	}

	// A degraded expansion only knows related_to itself.
	var predicates []string
	if en.expansion.Degraded() == "" {
		predicates = []string{RelatedTo}
	}

	for _, pair := range pairs {
		if len(pair) != 2 {
			return nil, invalidf("node pair %v must have two ids", pair)
		}
		a, b := en.graph.Preferred(pair[0]), en.graph.Preferred(pair[1])
		ans, err := en.lookup(ctx, pattern{
			inputs:      []string{a},
			outputs:     []string{b},
			predicates:  predicates,
			fromSubject: true,
		})
		if err != nil {
			return nil, err
		}

		resp.PairsToEdgeIDs[pair[0]+"--"+pair[1]] = en.edgeIDs(ans.edges)
		it := ans.edges.Iterator()
		for it.HasNext() {
			ord := it.Next()
			e := en.graph.EdgeAt(ord)
			resp.KnowledgeGraph.Edges[en.graph.EdgeID(ord)] = newEdgeRecord(e)
			for _, id := range []string{e.Subject, e.Object} {
				if _, ok := resp.KnowledgeGraph.Nodes[id]; !ok {
					n, _ := en.graph.Node(id)
					resp.KnowledgeGraph.Nodes[id] = newNodeRecord(n, nil)
				}
			}
		}
	}
	return resp, nil
}

// GetNeighbors returns, for every id as requested, the sorted ids of its
// neighbors restricted to categories and predicates.
func (en *Engine) GetNeighbors(ctx context.Context, ids, categories, predicates []string) (map[string][]string, error) {
	out := make(map[string][]string, len(ids))
	for _, id := range ids {
		ans, err := en.lookup(ctx, pattern{
			inputs:      []string{en.graph.Preferred(id)},
			categories:  categories,
			predicates:  predicates,
			fromSubject: true,
		})
		if err != nil {
			return nil, err
		}
		out[id] = ans.outputs
	}
	return out, nil
}
