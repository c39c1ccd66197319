package subclass

import (
	"cmp"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/plover/graph"
)

// Subclass predicates.
const (
	PredicateSubclassOf   = "biolink:subclass_of"
	PredicateSuperclassOf = "biolink:superclass_of"
)

const (
	// DefaultMaxDescendants drops parents too general to be useful.
	DefaultMaxDescendants = 5000
	// DefaultMaxDepth bounds the walk below the synthetic root.
	DefaultMaxDepth = 1000
)

// DefaultExcludedPrefixes are id prefixes never used as parents.
var DefaultExcludedPrefixes = []string{"biolink:"}

// Options configures Build.
type Options struct {
	// Sources restricts subclass edges to these primary knowledge sources.
	// Empty means every source.
	Sources []string
	// MaxDescendants defaults to DefaultMaxDescendants.
	MaxDescendants int
	// ExcludedPrefixes defaults to DefaultExcludedPrefixes.
	ExcludedPrefixes []string
	// MaxDepth defaults to DefaultMaxDepth.
	MaxDepth int
	Logger   *slog.Logger
}

func (o *Options) withDefaults() {
	if o.MaxDescendants <= 0 {
		o.MaxDescendants = DefaultMaxDescendants
	}
	if o.ExcludedPrefixes == nil {
		o.ExcludedPrefixes = DefaultExcludedPrefixes
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Lookup maps parents to their descendants. It is immutable and safe for
// concurrent use. The zero value is an empty lookup.
type Lookup struct {
	graph       *graph.Graph
	descendants map[uint32]*roaring.Bitmap
	report      *Report
}

const (
	white uint8 = iota
	grey
	black
)

type frame struct {
	node uint32
	next int
}

// Build extracts subclass edges from g and computes the lookup.
func Build(g *graph.Graph, opts Options) *Lookup {
	opts.withDefaults()
	start := time.Now()
	report := &Report{}

	sources := make(map[string]struct{}, len(opts.Sources))
	for _, s := range opts.Sources {
		sources[s] = struct{}{}
	}

	childSets := make(map[uint32]map[uint32]struct{})
	for _, e := range g.Edges() {
		var parent, child string
		switch e.Predicate {
		case PredicateSubclassOf:
			parent, child = e.Object, e.Subject
		case PredicateSuperclassOf:
			parent, child = e.Subject, e.Object
		default:
			continue
		}
		if len(sources) > 0 {
			if _, ok := sources[e.PrimaryKnowledgeSource]; !ok {
				report.FilteredEdges++
				continue
			}
		}
		report.SubclassEdges++
		p, _ := g.NodeOrdinal(parent)
		c, _ := g.NodeOrdinal(child)
		set := childSets[p]
		if set == nil {
			set = make(map[uint32]struct{})
			childSets[p] = set
		}
		set[c] = struct{}{}
	}

	byID := func(a, b uint32) int { return cmp.Compare(g.NodeID(a), g.NodeID(b)) }
	children := make(map[uint32][]uint32, len(childSets))
	parents := make([]uint32, 0, len(childSets))
	for p, set := range childSets {
		kids := make([]uint32, 0, len(set))
		for c := range set {
			kids = append(kids, c)
		}
		slices.SortFunc(kids, byID)
		children[p] = kids
		parents = append(parents, p)
	}
	slices.SortFunc(parents, byID)

	problems := make(map[uint32]struct{})
	color := make([]uint8, g.NumNodes())
	desc := make(map[uint32]*roaring.Bitmap, len(parents))
	var stack []frame

	// The synthetic root: every parent is one of its children.
	for _, p := range parents {
		if color[p] != white {
			continue
		}
		color[p] = grey
		stack = append(stack[:0], frame{node: p})

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			kids := children[top.node]

			if top.next < len(kids) {
				c := kids[top.next]
				top.next++
				switch color[c] {
				case grey:
					problems[top.node] = struct{}{}
					problems[c] = struct{}{}
					report.BackEdges++
				case white:
					if len(stack) >= opts.MaxDepth {
						problems[c] = struct{}{}
						report.DepthExceeded++
						continue
					}
					color[c] = grey
					stack = append(stack, frame{node: c})
				}
				continue
			}

			// Grey children are ancestors on the stack; those edges are dropped.
			set := roaring.New()
			for _, c := range kids {
				switch color[c] {
				case grey:
					continue
				case black:
					if d, ok := desc[c]; ok {
						set.Or(d)
					}
				}
				set.Add(c)
			}
			if len(kids) > 0 {
				desc[top.node] = set
			}
			color[top.node] = black
			stack = stack[:len(stack)-1]
		}
	}

	l := &Lookup{graph: g, descendants: make(map[uint32]*roaring.Bitmap, len(desc))}
	for p, set := range desc {
		id := g.NodeID(p)
		switch {
		case hasAnyPrefix(id, opts.ExcludedPrefixes):
			report.DroppedNodes = append(report.DroppedNodes, id)
		case set.GetCardinality() > uint64(opts.MaxDescendants):
			report.DroppedNodes = append(report.DroppedNodes, id)
		case set.IsEmpty():
		default:
			set.RunOptimize()
			l.descendants[p] = set
		}
	}
	for p := range problems {
		report.ProblemNodes = append(report.ProblemNodes, g.NodeID(p))
	}
	report.finish(l)
	l.report = report

	opts.Logger.Info("subclass lookup built",
		"subclass_edges", report.SubclassEdges,
		"parents", report.NodesWithDescendants,
		"problem_nodes", len(report.ProblemNodes),
		"dropped_nodes", len(report.DroppedNodes),
		"duration", time.Since(start),
	)
	return l
}

func hasAnyPrefix(id string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(id, p) {
			return true
		}
	}
	return false
}

// Len returns the number of parents in the lookup.
func (l *Lookup) Len() int {
	if l == nil {
		return 0
	}
	return len(l.descendants)
}

// Report returns the build report.
func (l *Lookup) Report() *Report {
	if l == nil || l.report == nil {
		return &Report{}
	}
	return l.report
}

// Descendants returns the descendants of id in sorted order, excluding id.
func (l *Lookup) Descendants(id string) []string {
	if l == nil || l.graph == nil {
		return nil
	}
	ord, ok := l.graph.NodeOrdinal(id)
	if !ok {
		return nil
	}
	set, ok := l.descendants[ord]
	if !ok {
		return nil
	}
	out := make([]string, 0, set.GetCardinality())
	it := set.Iterator()
	for it.HasNext() {
		out = append(out, l.graph.NodeID(it.Next()))
	}
	slices.Sort(out)
	return out
}

// Expand returns ids together with their descendants, without duplicates
// and in first-seen order. origins maps every descendant that is not itself
// one of ids to the ids it descends from.
func (l *Lookup) Expand(ids []string) (expanded []string, origins map[string][]string) {
	direct := make(map[string]struct{}, len(ids))
	for _, q := range ids {
		direct[q] = struct{}{}
	}
	seen := make(map[string]struct{}, len(ids))
	origins = make(map[string][]string)
	add := func(id string) {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			expanded = append(expanded, id)
		}
	}
	for _, q := range ids {
		add(q)
		for _, d := range l.Descendants(q) {
			add(d)
			if _, ok := direct[d]; !ok && !slices.Contains(origins[d], q) {
				origins[d] = append(origins[d], q)
			}
		}
	}
	return expanded, origins
}
