// Package symbol interns category and predicate names into compact ids.
//
// An Interner is owned by a single build and is not safe for concurrent use.
// Freeze turns it into a Table, which is immutable and safe to share.
package symbol

import "math"

// ID is a compact symbol identifier.
type ID uint32

// Unknown is returned by Table.Lookup for names that were never interned.
// It is never assigned to a real name, so it matches nothing in the index.
const Unknown ID = math.MaxUint32

// Interner assigns sequential ids to names, starting at 0.
type Interner struct {
	ids   map[string]ID
	names []string
}

// NewInterner creates an empty interner.
func NewInterner() *Interner {
	return &Interner{ids: make(map[string]ID)}
}

// Intern returns the id for name, assigning the next id on first sight.
func (in *Interner) Intern(name string) ID {
	if id, ok := in.ids[name]; ok {
		return id
	}
	id := ID(len(in.names))
	in.ids[name] = id
	in.names = append(in.names, name)
	return id
}

// Len returns the number of interned names.
func (in *Interner) Len() int {
	return len(in.names)
}

// Freeze returns a read-only table. The interner must not be used afterwards.
func (in *Interner) Freeze() *Table {
	t := &Table{ids: in.ids, names: in.names}
	in.ids = nil
	in.names = nil
	return t
}

// Table is the frozen form of an Interner.
type Table struct {
	ids   map[string]ID
	names []string
}

// Lookup returns the id of name, or Unknown.
func (t *Table) Lookup(name string) ID {
	if t == nil {
		return Unknown
	}
	if id, ok := t.ids[name]; ok {
		return id
	}
	return Unknown
}

// LookupAll maps names to ids. Unknown names collapse into a single Unknown entry.
func (t *Table) LookupAll(names []string) []ID {
	out := make([]ID, 0, len(names))
	seen := make(map[ID]struct{}, len(names))
	for _, n := range names {
		id := t.Lookup(n)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Name returns the name for id.
func (t *Table) Name(id ID) (string, bool) {
	if t == nil || int(id) >= len(t.names) {
		return "", false
	}
	return t.names[id], true
}

// Len returns the number of symbols.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.names)
}
