package subclass

import (
	"cmp"
	"slices"
	"strings"
)

const topParents = 50

// Report summarizes a subclass build.
type Report struct {
	SubclassEdges        int            `json:"num_subclass_edges"`
	FilteredEdges        int            `json:"num_filtered_edges"`
	NodesWithDescendants int            `json:"num_nodes_with_descendants"`
	ByPrefix             map[string]int `json:"nodes_with_descendants_by_prefix"`
	Descendants          Distribution   `json:"num_descendants_per_node"`
	TopParents           []ParentCount  `json:"top_parents"`
	BackEdges            int            `json:"num_back_edges"`
	DepthExceeded        int            `json:"num_depth_exceeded"`
	ProblemNodes         []string       `json:"problem_nodes"`
	DroppedNodes         []string       `json:"dropped_nodes"`
}

// Distribution describes descendant counts.
type Distribution struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Max    int     `json:"max"`
}

// ParentCount is a parent with its number of descendants.
type ParentCount struct {
	ID    string `json:"id"`
	Count int    `json:"count"`
}

func (r *Report) finish(l *Lookup) {
	slices.Sort(r.ProblemNodes)
	slices.Sort(r.DroppedNodes)

	r.NodesWithDescendants = len(l.descendants)
	r.ByPrefix = make(map[string]int)
	counts := make([]ParentCount, 0, len(l.descendants))
	for p, set := range l.descendants {
		id := l.graph.NodeID(p)
		prefix, _, _ := strings.Cut(id, ":")
		r.ByPrefix[prefix]++
		counts = append(counts, ParentCount{ID: id, Count: int(set.GetCardinality())})
	}
	if len(counts) == 0 {
		return
	}

	slices.SortFunc(counts, func(a, b ParentCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	r.TopParents = counts[:min(topParents, len(counts))]

	sum := 0
	for _, c := range counts {
		sum += c.Count
	}
	r.Descendants.Mean = float64(sum) / float64(len(counts))
	r.Descendants.Max = counts[0].Count

	n := len(counts)
	if n%2 == 1 {
		r.Descendants.Median = float64(counts[n/2].Count)
	} else {
		r.Descendants.Median = float64(counts[n/2-1].Count+counts[n/2].Count) / 2
	}
}
