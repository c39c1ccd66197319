package ontology

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// RootName is the synthetic root every top-level predicate hangs from.
// It never appears in an expansion.
const RootName = "plover:root"

// ErrEmptyHierarchy is returned when a document declares no predicates.
var ErrEmptyHierarchy = errors.New("ontology: no predicates declared")

type slotDef struct {
	IsA       string `yaml:"is_a"`
	Parent    string `yaml:"parent"`
	Inverse   string `yaml:"inverse"`
	Symmetric bool   `yaml:"symmetric"`
}

type document struct {
	Slots      map[string]*slotDef `yaml:"slots"`
	Predicates map[string]*slotDef `yaml:"predicates"`
	Classes    map[string]*slotDef `yaml:"classes"`
}

// Definition is one declared predicate.
type Definition struct {
	Name      string
	Parent    string
	Inverse   string
	Symmetric bool
}

// Parse reads a hierarchy document.
func Parse(data []byte) ([]Definition, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("ontology: parse: %w", err)
	}

	defs := make([]Definition, 0, len(doc.Slots)+len(doc.Predicates))
	for _, m := range []map[string]*slotDef{doc.Slots, doc.Predicates} {
		for name, sd := range m {
			d := Definition{Name: Normalize(name)}
			if sd != nil {
				parent := sd.Parent
				if parent == "" {
					parent = sd.IsA
				}
				if parent != "" {
					d.Parent = Normalize(parent)
				}
				if sd.Inverse != "" {
					d.Inverse = Normalize(sd.Inverse)
				}
				d.Symmetric = sd.Symmetric
			}
			defs = append(defs, d)
		}
	}
	if len(defs) == 0 {
		return nil, ErrEmptyHierarchy
	}
	slices.SortFunc(defs, func(a, b Definition) int { return strings.Compare(a.Name, b.Name) })
	return defs, nil
}

// ParseClasses reads the category hierarchy of a document. A document
// without classes yields no definitions and no error.
func ParseClasses(data []byte) ([]Definition, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("ontology: parse: %w", err)
	}
	defs := make([]Definition, 0, len(doc.Classes))
	for name, sd := range doc.Classes {
		d := Definition{Name: NormalizeClass(name)}
		if sd != nil {
			parent := sd.Parent
			if parent == "" {
				parent = sd.IsA
			}
			if parent != "" {
				d.Parent = NormalizeClass(parent)
			}
		}
		defs = append(defs, d)
	}
	slices.SortFunc(defs, func(a, b Definition) int { return strings.Compare(a.Name, b.Name) })
	return defs, nil
}

// NormalizeClass maps "chemical entity" to "biolink:ChemicalEntity".
// Prefixed names are kept.
func NormalizeClass(name string) string {
	name = strings.TrimSpace(name)
	if strings.Contains(name, ":") {
		return name
	}
	var sb strings.Builder
	sb.WriteString("biolink:")
	for _, w := range strings.Fields(name) {
		sb.WriteString(strings.ToUpper(w[:1]))
		sb.WriteString(w[1:])
	}
	return sb.String()
}

// Normalize maps "related to" to "biolink:related_to". Prefixed names are kept.
func Normalize(name string) string {
	name = strings.TrimSpace(name)
	if strings.Contains(name, ":") {
		return name
	}
	return "biolink:" + strings.ReplaceAll(name, " ", "_")
}

type treeNode struct {
	name     string
	children []*treeNode
}

// Hierarchy is a rooted predicate tree with inverse and symmetry annotations.
type Hierarchy struct {
	root      *treeNode
	nodes     map[string]*treeNode
	parent    map[string]string
	inverse   map[string]string
	symmetric map[string]bool
}

// NewHierarchy builds the tree in two passes: first collect parent to
// children links, then instantiate from the synthetic root. Declaration
// order therefore does not matter.
func NewHierarchy(defs []Definition) *Hierarchy {
	h := &Hierarchy{
		nodes:     make(map[string]*treeNode),
		parent:    make(map[string]string),
		inverse:   make(map[string]string),
		symmetric: make(map[string]bool),
	}

	// Pass 1: links. Parents and inverses that are referenced but not declared
	// still become predicates.
	names := make(map[string]struct{})
	childrenOf := make(map[string][]string)
	for _, d := range defs {
		names[d.Name] = struct{}{}
		if d.Parent != "" && d.Parent != d.Name {
			names[d.Parent] = struct{}{}
			h.parent[d.Name] = d.Parent
		}
		if d.Inverse != "" {
			names[d.Inverse] = struct{}{}
			h.inverse[d.Name] = d.Inverse
			if _, ok := h.inverse[d.Inverse]; !ok {
				h.inverse[d.Inverse] = d.Name
			}
		}
		if d.Symmetric {
			h.symmetric[d.Name] = true
		}
	}
	for name := range names {
		p, ok := h.parent[name]
		if !ok {
			p = RootName
		}
		childrenOf[p] = append(childrenOf[p], name)
	}
	for _, c := range childrenOf {
		slices.Sort(c)
	}

	// Pass 2: instantiate from the root.
	h.root = h.instantiate(RootName, childrenOf)

	// Names caught in an is_a cycle are unreachable from the root.
	var orphans []string
	for name := range names {
		if _, ok := h.nodes[name]; !ok {
			orphans = append(orphans, name)
		}
	}
	slices.Sort(orphans)
	for _, name := range orphans {
		if _, ok := h.nodes[name]; ok {
			continue
		}
		delete(h.parent, name)
		h.root.children = append(h.root.children, h.instantiate(name, childrenOf))
	}
	return h
}

func (h *Hierarchy) instantiate(name string, childrenOf map[string][]string) *treeNode {
	n := &treeNode{name: name}
	h.nodes[name] = n
	for _, c := range childrenOf[name] {
		if _, seen := h.nodes[c]; seen {
			continue
		}
		n.children = append(n.children, h.instantiate(c, childrenOf))
	}
	return n
}

// Len returns the number of predicates, excluding the root.
func (h *Hierarchy) Len() int { return len(h.nodes) - 1 }

// Has reports whether name is a predicate of the hierarchy.
func (h *Hierarchy) Has(name string) bool {
	_, ok := h.nodes[name]
	return ok && name != RootName
}

// Names returns all predicates in sorted order.
func (h *Hierarchy) Names() []string {
	out := make([]string, 0, len(h.nodes))
	for name := range h.nodes {
		if name != RootName {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out
}

// Parent returns the parent of name, or "" for top-level predicates.
func (h *Hierarchy) Parent(name string) string { return h.parent[name] }

// Inverse returns the declared inverse of name.
func (h *Hierarchy) Inverse(name string) (string, bool) {
	inv, ok := h.inverse[name]
	return inv, ok
}

// Symmetric reports whether name is declared symmetric.
func (h *Hierarchy) Symmetric(name string) bool { return h.symmetric[name] }

// Descendants returns name and everything below it.
func (h *Hierarchy) Descendants(name string) []string {
	n, ok := h.nodes[name]
	if !ok {
		return nil
	}
	var out []string
	var walk func(*treeNode)
	walk = func(t *treeNode) {
		out = append(out, t.name)
		for _, c := range t.children {
			walk(c)
		}
	}
	walk(n)
	return out
}
