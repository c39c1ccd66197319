package query

import (
	"context"
	"slices"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/plover/index"
	"github.com/hupe1980/plover/internal/symbol"
)

// pattern is a resolved single-hop lookup.
type pattern struct {
	inputs []string
	// outputs restricts neighbors; nil places no constraint.
	outputs []string
	// categories restricts neighbor categories when outputs is nil.
	categories []string
	// predicates are expanded through the hierarchy; empty means every predicate.
	predicates []string
	// qualifiers filters candidate edges; nil keeps them all.
	qualifiers  qualifierFilter
	fromSubject bool
	enforce     bool
}

type answer struct {
	inputs  []string
	outputs []string
	edges   *roaring.Bitmap
}

type dirMask uint8

const (
	maskForward  dirMask = 1 << index.Forward
	maskBackward dirMask = 1 << index.Backward
	maskBoth             = maskForward | maskBackward
)

var directions = [...]index.Direction{index.Forward, index.Backward}

var bitmapPool = sync.Pool{
	New: func() any { return roaring.New() },
}

func getBitmap() *roaring.Bitmap {
	b := bitmapPool.Get().(*roaring.Bitmap)
	b.Clear()
	return b
}

func putBitmap(b *roaring.Bitmap) {
	b.Clear()
	bitmapPool.Put(b)
}

// checkEvery is how many inputs are scanned between context checks.
const checkEvery = 256

func (en *Engine) lookup(ctx context.Context, p pattern) (*answer, error) {
	ans := &answer{inputs: []string{}, outputs: []string{}, edges: roaring.New()}

	var outOrds []uint32
	if p.outputs != nil {
		for _, id := range p.outputs {
			if ord, ok := en.graph.NodeOrdinal(id); ok {
				outOrds = append(outOrds, ord)
			}
		}
		if len(outOrds) == 0 {
			return ans, nil
		}
	}

	var cats []symbol.ID
	if len(p.categories) > 0 && p.outputs == nil {
		var names []string
		for _, c := range p.categories {
			names = append(names, en.expansion.Categories(c)...)
		}
		cats = en.index.Categories().LookupAll(names)
	}

	preds, masks := en.predicateMasks(p)
	defaultMask := en.defaultMask(p)

	acc := getBitmap()
	defer putBitmap(acc)
	inputs := make(map[string]struct{})
	outputs := make(map[string]struct{})

	for i, in := range p.inputs {
		if i%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		ord, ok := en.graph.NodeOrdinal(in)
		if !ok {
			continue
		}

		acc.Clear()
		for slot := range en.index.Slots(ord, cats, preds) {
			mask, ok := masks[slot.Predicate]
			if !ok {
				mask = defaultMask(slot.Predicate)
			}
			for _, d := range directions {
				b := slot.Bucket(d)
				if mask&(1<<d) == 0 || b == nil {
					continue
				}
				if outOrds == nil {
					acc.Or(b.Edges())
					continue
				}
				for _, o := range outOrds {
					acc.AddMany(b.EdgesTo(o))
				}
			}
			if ans.edges.OrCardinality(acc) > uint64(en.cutoff) {
				return nil, &CutoffError{Cutoff: en.cutoff}
			}
		}
		en.retain(acc, p.qualifiers)
		if acc.IsEmpty() {
			continue
		}

		inputs[in] = struct{}{}
		it := acc.Iterator()
		for it.HasNext() {
			e := en.graph.EdgeAt(it.Next())
			out := e.Object
			if out == in {
				out = e.Subject
			}
			outputs[out] = struct{}{}
		}
		ans.edges.Or(acc)
	}

	for id := range inputs {
		ans.inputs = append(ans.inputs, id)
	}
	for id := range outputs {
		ans.outputs = append(ans.outputs, id)
	}
	slices.Sort(ans.inputs)
	slices.Sort(ans.outputs)
	return ans, nil
}

// outDirection is the bucket that holds edges stated from qedge subject to
// object, seen from the input node.
func (p *pattern) outDirection() index.Direction {
	if p.fromSubject {
		return index.Forward
	}
	return index.Backward
}

// predicateMasks expands the requested predicates and decides which
// buckets each member may read. A nil slice selects every predicate.
func (en *Engine) predicateMasks(p pattern) ([]symbol.ID, map[symbol.ID]dirMask) {
	if len(p.predicates) == 0 {
		return nil, nil
	}
	table := en.index.Predicates()
	ids := []symbol.ID{}
	masks := make(map[symbol.ID]dirMask)
	for _, req := range p.predicates {
		symmetric := en.expansion.Symmetric(req)
		for _, m := range en.expansion.Expand(req) {
			id := table.Lookup(m.Name)
			if id == symbol.Unknown {
				continue
			}
			mask := maskBoth
			if p.enforce && !symmetric && !en.expansion.Symmetric(m.Name) {
				d := p.outDirection()
				if m.Inverted {
					d = d.Reverse()
				}
				mask = 1 << d
			}
			if _, seen := masks[id]; !seen {
				ids = append(ids, id)
			}
			masks[id] |= mask
		}
	}
	return ids, masks
}

// defaultMask applies when no predicates were requested.
func (en *Engine) defaultMask(p pattern) func(symbol.ID) dirMask {
	if !p.enforce {
		return func(symbol.ID) dirMask { return maskBoth }
	}
	table := en.index.Predicates()
	d := dirMask(1 << p.outDirection())
	return func(id symbol.ID) dirMask {
		if name, ok := table.Name(id); ok && en.expansion.Symmetric(name) {
			return maskBoth
		}
		return d
	}
}
