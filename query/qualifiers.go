package query

import (
	"slices"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/plover/graph"
)

// Qualifier types a qedge may constrain.
const (
	QualifiedPredicate       = "biolink:qualified_predicate"
	ObjectDirectionQualifier = "biolink:object_direction_qualifier"
	ObjectAspectQualifier    = "biolink:object_aspect_qualifier"
)

// SupportedQualifiers lists the qualifier types answered by the engine.
var SupportedQualifiers = []string{QualifiedPredicate, ObjectDirectionQualifier, ObjectAspectQualifier}

func (e *QEdge) checkConstraints(key string) error {
	if len(e.AttributeConstraints) > 0 {
		return invalidf("qedge %q: attribute constraints are not supported", key)
	}
	for _, c := range e.QualifierConstraints {
		if len(c.QualifierSet) == 0 {
			return invalidf("qedge %q: empty qualifier set", key)
		}
		for _, q := range c.QualifierSet {
			if !slices.Contains(SupportedQualifiers, q.TypeID) {
				return invalidf("qedge %q: unsupported qualifier %q; supported qualifiers are %v", key, q.TypeID, SupportedQualifiers)
			}
			if q.Value == "" {
				return invalidf("qedge %q: qualifier %q has no value", key, q.TypeID)
			}
		}
	}
	return nil
}

// qualifierAttribute is the edge attribute carrying a qualifier type.
func qualifierAttribute(typeID string) string {
	return strings.TrimPrefix(typeID, "biolink:")
}

type qualifierMatch struct {
	attr   string
	values map[string]struct{}
}

// qualifierFilter holds alternative qualifier sets. A nil filter keeps every edge.
type qualifierFilter [][]qualifierMatch

// qualifierFilter resolves constraints against the predicate hierarchy:
// a qualified predicate also matches its descendants.
func (en *Engine) qualifierFilter(cs []QualifierConstraint) qualifierFilter {
	if len(cs) == 0 {
		return nil
	}
	f := make(qualifierFilter, 0, len(cs))
	for _, c := range cs {
		set := make([]qualifierMatch, 0, len(c.QualifierSet))
		for _, q := range c.QualifierSet {
			m := qualifierMatch{
				attr:   qualifierAttribute(q.TypeID),
				values: map[string]struct{}{q.Value: {}},
			}
			if q.TypeID == QualifiedPredicate {
				for _, member := range en.expansion.Expand(q.Value) {
					if !member.Inverted {
						m.values[member.Name] = struct{}{}
					}
				}
			}
			set = append(set, m)
		}
		f = append(f, set)
	}
	return f
}

// matches reports whether e satisfies every qualifier of at least one set.
// Edges without qualifiers never match; a missing qualified predicate falls
// back to the edge predicate.
func (f qualifierFilter) matches(e *graph.Edge) bool {
	qualified := false
	for attr := range qualifierProperties {
		if _, ok := e.Attributes[attr]; ok {
			qualified = true
			break
		}
	}
	if !qualified {
		return false
	}
	for _, set := range f {
		if matchesAll(set, e) {
			return true
		}
	}
	return false
}

func matchesAll(set []qualifierMatch, e *graph.Edge) bool {
	for _, m := range set {
		v, _ := e.Attributes[m.attr].(string)
		if v == "" && m.attr == qualifierAttribute(QualifiedPredicate) {
			v = e.Predicate
		}
		if _, ok := m.values[v]; !ok {
			return false
		}
	}
	return true
}

// retain drops the edges of b that fail f.
func (en *Engine) retain(b *roaring.Bitmap, f qualifierFilter) {
	if f == nil {
		return
	}
	for _, ord := range b.ToArray() {
		if !f.matches(en.graph.EdgeAt(ord)) {
			b.Remove(ord)
		}
	}
}
