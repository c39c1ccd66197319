package testutil

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
)

// Categories used by generated graphs.
var Categories = []string{
	"biolink:ChemicalEntity",
	"biolink:Protein",
	"biolink:Gene",
	"biolink:Disease",
	"biolink:PhenotypicFeature",
}

// Predicates used by generated graphs. All of them appear in Hierarchy.
var Predicates = []string{
	"biolink:interacts_with",
	"biolink:physically_interacts_with",
	"biolink:treats",
	"biolink:causes",
	"biolink:related_to",
}

// RNG generates reproducible random graphs. It is safe for concurrent use.
type RNG struct {
	rand *rand.Rand
	mu   sync.Mutex
}

// NewRNG returns an RNG seeded with seed.
func NewRNG(seed int64) *RNG {
	return &RNG{rand: rand.New(rand.NewSource(seed))}
}

// zipfLocked samples a Zipf value in [0, n) by inverse transform.
// Caller must hold the lock.
func (r *RNG) zipfLocked(n int, s float64) int {
	if n <= 1 {
		return 0
	}
	var hns float64
	for i := 1; i <= n; i++ {
		hns += 1.0 / math.Pow(float64(i), s)
	}
	u := r.rand.Float64() * hns
	var cumulative float64
	for k := 1; k <= n; k++ {
		cumulative += 1.0 / math.Pow(float64(k), s)
		if u <= cumulative {
			return k - 1
		}
	}
	return n - 1
}

// Graph generates raw node and edge records. Edge subjects follow a Zipf
// distribution so a few hubs carry most edges, as in real knowledge graphs.
// Every node gets one or two categories.
func (r *RNG) Graph(numNodes, numEdges int) (nodes, edges []map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	nodes = make([]map[string]any, numNodes)
	for i := range numNodes {
		cats := []any{Categories[r.rand.Intn(len(Categories))]}
		if r.rand.Intn(4) == 0 {
			if extra := Categories[r.rand.Intn(len(Categories))]; extra != cats[0] {
				cats = append(cats, extra)
			}
		}
		nodes[i] = map[string]any{
			"id":       NodeID(i),
			"name":     fmt.Sprintf("node %d", i),
			"category": cats,
		}
	}

	edges = make([]map[string]any, numEdges)
	for i := range numEdges {
		s := r.zipfLocked(min(numNodes, 64), 1.2) * (numNodes / min(numNodes, 64))
		o := r.rand.Intn(numNodes)
		edges[i] = map[string]any{
			"id":        fmt.Sprintf("E:%d", i),
			"subject":   NodeID(s),
			"object":    NodeID(o),
			"predicate": Predicates[r.rand.Intn(len(Predicates))],
		}
	}
	return nodes, edges
}

// NodeID returns the id Graph assigns to the i-th node.
func NodeID(i int) string { return fmt.Sprintf("N:%d", i) }
