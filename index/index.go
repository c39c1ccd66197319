package index

import (
	"iter"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/plover/graph"
	"github.com/hupe1980/plover/internal/symbol"
)

// Direction selects one side of an edge.
type Direction uint8

const (
	// Forward buckets hold edges whose subject is the indexed node.
	Forward Direction = iota
	// Backward buckets hold edges whose object is the indexed node.
	Backward
)

// String returns the name of the direction.
func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// Reverse returns the opposite direction.
func (d Direction) Reverse() Direction { return 1 - d }

// Bucket holds the edges of one (node, category, predicate, direction) cell.
type Bucket struct {
	neighbors map[uint32][]uint32
	edges     *roaring.Bitmap
}

func newBucket() *Bucket {
	return &Bucket{neighbors: make(map[uint32][]uint32), edges: roaring.New()}
}

func (b *Bucket) add(neighbor, edge uint32) {
	if b.edges.CheckedAdd(edge) {
		b.neighbors[neighbor] = append(b.neighbors[neighbor], edge)
	}
}

var emptyBitmap = roaring.New()

// Edges returns every edge ordinal in the bucket. The bitmap must not be modified.
func (b *Bucket) Edges() *roaring.Bitmap {
	if b == nil {
		return emptyBitmap
	}
	return b.edges
}

// EdgesTo returns the edges connecting to neighbor.
func (b *Bucket) EdgesTo(neighbor uint32) []uint32 {
	if b == nil {
		return nil
	}
	return b.neighbors[neighbor]
}

// Neighbors iterates neighbor ordinals with their edges, in no particular order.
func (b *Bucket) Neighbors() iter.Seq2[uint32, []uint32] {
	return func(yield func(uint32, []uint32) bool) {
		if b == nil {
			return
		}
		for n, edges := range b.neighbors {
			if !yield(n, edges) {
				return
			}
		}
	}
}

// Len returns the number of edges in the bucket.
func (b *Bucket) Len() int {
	if b == nil {
		return 0
	}
	return int(b.edges.GetCardinality())
}

// Slot is the pair of buckets for one neighbor category and predicate.
type Slot struct {
	Category  symbol.ID
	Predicate symbol.ID
	buckets   [2]*Bucket
}

// Bucket returns the bucket for d. It may be nil; a nil Bucket is empty.
func (s *Slot) Bucket(d Direction) *Bucket { return s.buckets[d] }

type adjacency map[symbol.ID]map[symbol.ID]*Slot

// Stats describes an index.
type Stats struct {
	Nodes      int `json:"nodes"`
	Edges      int `json:"edges"`
	Categories int `json:"categories"`
	Predicates int `json:"predicates"`
	Slots      int `json:"slots"`
	// Entries counts bucket entries; each edge contributes one per neighbor category.
	Entries int `json:"entries"`
}

// Index is the main adjacency index.
type Index struct {
	graph      *graph.Graph
	categories *symbol.Table
	predicates *symbol.Table
	nodeCats   [][]symbol.ID
	adj        []adjacency
	stats      Stats
}

// Build indexes every edge of g.
func Build(g *graph.Graph) *Index {
	cats := symbol.NewInterner()
	preds := symbol.NewInterner()

	nodeCats := make([][]symbol.ID, g.NumNodes())
	for ord := range nodeCats {
		n := g.NodeAt(uint32(ord))
		ids := make([]symbol.ID, 0, len(n.Categories))
		for _, c := range n.Categories {
			if id := cats.Intern(c); !slices.Contains(ids, id) {
				ids = append(ids, id)
			}
		}
		nodeCats[ord] = ids
	}

	x := &Index{
		graph:    g,
		nodeCats: nodeCats,
		adj:      make([]adjacency, g.NumNodes()),
	}
	for ord := range g.NumEdges() {
		e := g.EdgeAt(uint32(ord))
		s, _ := g.NodeOrdinal(e.Subject)
		o, _ := g.NodeOrdinal(e.Object)
		p := preds.Intern(e.Predicate)

		for _, c := range nodeCats[o] {
			x.insert(s, c, p, Forward, o, uint32(ord))
		}
		for _, c := range nodeCats[s] {
			x.insert(o, c, p, Backward, s, uint32(ord))
		}
	}

	for _, a := range x.adj {
		if a == nil {
			continue
		}
		x.stats.Nodes++
		for _, byPred := range a {
			x.stats.Slots += len(byPred)
			for _, slot := range byPred {
				for _, b := range slot.buckets {
					if b != nil {
						b.edges.RunOptimize()
						x.stats.Entries += int(b.edges.GetCardinality())
					}
				}
			}
		}
	}
	x.stats.Edges = g.NumEdges()
	x.stats.Categories = cats.Len()
	x.stats.Predicates = preds.Len()

	x.categories = cats.Freeze()
	x.predicates = preds.Freeze()
	return x
}

func (x *Index) insert(node uint32, cat, pred symbol.ID, d Direction, neighbor, edge uint32) {
	a := x.adj[node]
	if a == nil {
		a = make(adjacency)
		x.adj[node] = a
	}
	byPred := a[cat]
	if byPred == nil {
		byPred = make(map[symbol.ID]*Slot)
		a[cat] = byPred
	}
	slot := byPred[pred]
	if slot == nil {
		slot = &Slot{Category: cat, Predicate: pred}
		byPred[pred] = slot
	}
	if slot.buckets[d] == nil {
		slot.buckets[d] = newBucket()
	}
	slot.buckets[d].add(neighbor, edge)
}

// Graph returns the indexed graph.
func (x *Index) Graph() *graph.Graph { return x.graph }

// Categories returns the category symbol table.
func (x *Index) Categories() *symbol.Table { return x.categories }

// Predicates returns the predicate symbol table.
func (x *Index) Predicates() *symbol.Table { return x.predicates }

// Stats returns index statistics.
func (x *Index) Stats() Stats { return x.stats }

// NodeCategories returns the category ids of a node.
func (x *Index) NodeCategories(node uint32) []symbol.ID {
	if int(node) >= len(x.nodeCats) {
		return nil
	}
	return x.nodeCats[node]
}

// Has reports whether node has at least one edge.
func (x *Index) Has(node uint32) bool {
	return int(node) < len(x.adj) && x.adj[node] != nil
}

// Slots iterates the slots of node restricted to the given neighbor
// categories and predicates. A nil filter selects everything present;
// ids absent from the node, including symbol.Unknown, select nothing.
func (x *Index) Slots(node uint32, categories, predicates []symbol.ID) iter.Seq[*Slot] {
	return func(yield func(*Slot) bool) {
		if !x.Has(node) {
			return
		}
		eachCategory(x.adj[node], categories, func(byPred map[symbol.ID]*Slot) bool {
			if predicates == nil {
				for _, slot := range byPred {
					if !yield(slot) {
						return false
					}
				}
				return true
			}
			for _, p := range predicates {
				if slot, ok := byPred[p]; ok && !yield(slot) {
					return false
				}
			}
			return true
		})
	}
}

func eachCategory(a adjacency, categories []symbol.ID, fn func(map[symbol.ID]*Slot) bool) {
	if categories == nil {
		for _, byPred := range a {
			if !fn(byPred) {
				return
			}
		}
		return
	}
	for _, c := range categories {
		if byPred, ok := a[c]; ok && !fn(byPred) {
			return
		}
	}
}
