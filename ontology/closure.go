package ontology

import (
	"slices"

	"github.com/RoaringBitmap/roaring/v2"
)

// Member is one predicate of an expansion.
type Member struct {
	Name string
	// Inverted is set when the member was reached through an odd number of
	// inverse steps, i.e. it states the relationship in the opposite direction.
	Inverted bool
}

// Expansion is the precomputed predicate closure. It is immutable and safe
// for concurrent use.
type Expansion struct {
	names     []string
	index     map[string]uint32
	same      []*roaring.Bitmap
	inverted  []*roaring.Bitmap
	symmetric map[string]bool
	classes   map[string][]string
	degraded  string
}

// Identity returns an expansion in which every predicate maps to itself.
// reason is reported through Degraded.
func Identity(reason string) *Expansion {
	return &Expansion{index: map[string]uint32{}, symmetric: map[string]bool{}, degraded: reason}
}

// Close computes the expansion of every predicate in h.
//
// Each predicate starts from its own subtree plus the subtree of its inverse
// and grows until a pass adds nothing: the delta of the previous pass
// contributes its descendants and the descendants of its inverses.
func Close(h *Hierarchy) *Expansion {
	names := h.Names()
	e := &Expansion{
		names:     names,
		index:     make(map[string]uint32, len(names)),
		same:      make([]*roaring.Bitmap, len(names)),
		inverted:  make([]*roaring.Bitmap, len(names)),
		symmetric: make(map[string]bool),
	}
	for i, n := range names {
		e.index[n] = uint32(i)
		if h.Symmetric(n) {
			e.symmetric[n] = true
		}
	}

	desc := make([]*roaring.Bitmap, len(names))
	inv := make([]int64, len(names))
	for i, n := range names {
		desc[i] = roaring.New()
		for _, d := range h.Descendants(n) {
			desc[i].Add(e.index[d])
		}
		desc[i].RunOptimize()
		inv[i] = -1
		if in, ok := h.Inverse(n); ok {
			inv[i] = int64(e.index[in])
		}
	}

	for i := range names {
		same := desc[i].Clone()
		flipped := roaring.New()
		if inv[i] >= 0 {
			flipped.Or(desc[inv[i]])
		}

		deltaSame, deltaFlipped := same.Clone(), flipped.Clone()
		for !deltaSame.IsEmpty() || !deltaFlipped.IsEmpty() {
			nextSame, nextFlipped := roaring.New(), roaring.New()
			grow(deltaSame, desc, inv, nextSame, nextFlipped)
			grow(deltaFlipped, desc, inv, nextFlipped, nextSame)

			nextSame.AndNot(same)
			nextFlipped.AndNot(flipped)
			same.Or(nextSame)
			flipped.Or(nextFlipped)
			deltaSame, deltaFlipped = nextSame, nextFlipped
		}

		same.RunOptimize()
		flipped.RunOptimize()
		e.same[i] = same
		e.inverted[i] = flipped
	}
	return e
}

// grow adds the descendants of every member to keep and the descendants of
// every member's inverse to flip.
func grow(members *roaring.Bitmap, desc []*roaring.Bitmap, inv []int64, keep, flip *roaring.Bitmap) {
	it := members.Iterator()
	for it.HasNext() {
		m := it.Next()
		keep.Or(desc[m])
		if inv[m] >= 0 {
			flip.Or(desc[inv[m]])
		}
	}
}

// Degraded returns the reason the expansion fell back to identity, or "".
func (e *Expansion) Degraded() string { return e.degraded }

// Len returns the number of predicates with a computed expansion.
func (e *Expansion) Len() int { return len(e.names) }

// Expand returns the members of p's expansion, sorted by name with
// same-direction members first on ties. Predicates unknown to the hierarchy
// expand to themselves.
func (e *Expansion) Expand(p string) []Member {
	i, ok := e.index[p]
	if !ok {
		return []Member{{Name: p}}
	}
	out := make([]Member, 0, e.same[i].GetCardinality()+e.inverted[i].GetCardinality())
	for _, set := range []struct {
		bm       *roaring.Bitmap
		inverted bool
	}{{e.same[i], false}, {e.inverted[i], true}} {
		it := set.bm.Iterator()
		for it.HasNext() {
			out = append(out, Member{Name: e.names[it.Next()], Inverted: set.inverted})
		}
	}
	slices.SortStableFunc(out, func(a, b Member) int {
		switch {
		case a.Name < b.Name:
			return -1
		case a.Name > b.Name:
			return 1
		}
		return 0
	})
	return out
}

// Names returns the distinct predicate names of p's expansion, sorted.
func (e *Expansion) Names(p string) []string {
	members := e.Expand(p)
	out := make([]string, 0, len(members))
	for _, m := range members {
		if len(out) == 0 || out[len(out)-1] != m.Name {
			out = append(out, m.Name)
		}
	}
	return out
}

// Symmetric reports whether p is declared symmetric.
func (e *Expansion) Symmetric(p string) bool { return e.symmetric[p] }

// WithClasses attaches a category hierarchy and returns e.
func (e *Expansion) WithClasses(h *Hierarchy) *Expansion {
	names := h.Names()
	e.classes = make(map[string][]string, len(names))
	for _, n := range names {
		d := h.Descendants(n)
		slices.Sort(d)
		e.classes[n] = d
	}
	return e
}

// Categories returns c and its descendant categories, sorted. Categories
// unknown to the hierarchy expand to themselves.
func (e *Expansion) Categories(c string) []string {
	if d, ok := e.classes[c]; ok {
		return d
	}
	return []string{c}
}

// Map returns the expansion of every known predicate as plain name sets.
func (e *Expansion) Map() map[string][]string {
	out := make(map[string][]string, len(e.names))
	for _, n := range e.names {
		out[n] = e.Names(n)
	}
	return out
}
