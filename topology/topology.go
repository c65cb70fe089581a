// Package topology implements DAG construction, cycle detection,
// and deterministic topological ordering over node handles.
//
// Insertion order is tracked alongside the adjacency maps and used as
// the tie-break everywhere an ordering is produced, so re-computing the
// topological order during Compile yields an identical sequence as long
// as the graph itself has not changed.
package topology

import (
	"sort"

	"github.com/Lint111/VBVS--VIXEN-sub013/corerr"
	"github.com/Lint111/VBVS--VIXEN-sub013/node"
)

const component = "topology"

// Topology holds the adjacency derived from connections between
// node.Handles, plus stable insertion order for deterministic tie-break.
type Topology struct {
	order   []node.Handle       // insertion order
	index   map[node.Handle]int // insertion index, for tie-break
	edges   map[node.Handle]map[node.Handle]bool
	rev     map[node.Handle]map[node.Handle]bool
	present map[node.Handle]bool
}

// New creates an empty Topology.
func New() *Topology {
	return &Topology{
		index:   make(map[node.Handle]int),
		edges:   make(map[node.Handle]map[node.Handle]bool),
		rev:     make(map[node.Handle]map[node.Handle]bool),
		present: make(map[node.Handle]bool),
	}
}

// AddNode registers h, assigning it the next insertion index used to
// break topological-sort ties deterministically.
func (t *Topology) AddNode(h node.Handle) {
	if t.present[h] {
		return
	}
	t.present[h] = true
	t.index[h] = len(t.order)
	t.order = append(t.order, h)
	t.edges[h] = make(map[node.Handle]bool)
	t.rev[h] = make(map[node.Handle]bool)
}

// RemoveNode removes h and every edge touching it.
func (t *Topology) RemoveNode(h node.Handle) {
	if !t.present[h] {
		return
	}
	for to := range t.edges[h] {
		delete(t.rev[to], h)
	}
	for from := range t.rev[h] {
		delete(t.edges[from], h)
	}
	delete(t.edges, h)
	delete(t.rev, h)
	delete(t.present, h)
	delete(t.index, h)
	kept := t.order[:0]
	for _, n := range t.order {
		if n != h {
			kept = append(kept, n)
		}
	}
	t.order = kept
}

// Connect adds a directed dependency edge from→to (to depends on from:
// to must follow from in topological order).
func (t *Topology) Connect(from, to node.Handle) error {
	if !t.present[from] || !t.present[to] {
		return corerr.New(component, corerr.TypeMismatch, "connect references a node not in the topology")
	}
	t.edges[from][to] = true
	t.rev[to][from] = true
	return nil
}

// Disconnect removes a directed edge, if present.
func (t *Topology) Disconnect(from, to node.Handle) {
	delete(t.edges[from], to)
	delete(t.rev[to], from)
}

// DirectDeps returns h's immediate dependencies (nodes h's edges point
// away from, i.e. predecessors), in insertion order.
func (t *Topology) DirectDeps(h node.Handle) []node.Handle {
	return t.sortedKeys(t.rev[h])
}

// TransitiveDeps returns every node that h transitively depends on, in
// insertion order, via a depth-first walk over predecessor edges.
func (t *Topology) TransitiveDeps(h node.Handle) []node.Handle {
	seen := make(map[node.Handle]bool)
	var walk func(node.Handle)
	walk = func(n node.Handle) {
		for from := range t.rev[n] {
			if !seen[from] {
				seen[from] = true
				walk(from)
			}
		}
	}
	walk(h)
	return t.sortedKeys(seen)
}

// Dependents returns the nodes that directly depend on h (the inverse
// of DirectDeps), in insertion order. The invalidation cascade walks
// this to mark downstream nodes Dirty when h's output changes.
func (t *Topology) Dependents(h node.Handle) []node.Handle {
	return t.sortedKeys(t.edges[h])
}

// TransitiveDependents returns every node that transitively depends on
// h, in insertion order.
func (t *Topology) TransitiveDependents(h node.Handle) []node.Handle {
	seen := make(map[node.Handle]bool)
	var walk func(node.Handle)
	walk = func(n node.Handle) {
		for to := range t.edges[n] {
			if !seen[to] {
				seen[to] = true
				walk(to)
			}
		}
	}
	walk(h)
	return t.sortedKeys(seen)
}

// Roots returns every node with no dependencies, in insertion order.
func (t *Topology) Roots() []node.Handle {
	var out []node.Handle
	for _, h := range t.order {
		if len(t.rev[h]) == 0 {
			out = append(out, h)
		}
	}
	return out
}

// Leaves returns every node nothing else depends on, in insertion
// order.
func (t *Topology) Leaves() []node.Handle {
	var out []node.Handle
	for _, h := range t.order {
		if len(t.edges[h]) == 0 {
			out = append(out, h)
		}
	}
	return out
}

func (t *Topology) sortedKeys(m map[node.Handle]bool) []node.Handle {
	out := make([]node.Handle, 0, len(m))
	for h := range m {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return t.index[out[i]] < t.index[out[j]] })
	return out
}

// CyclePath is returned by CycleCheck when the graph contains a cycle.
type CyclePath struct {
	Path []node.Handle
}

// CycleCheck performs a DFS cycle detection pass, returning the first
// cycle found (as the path from the cycle's start back to its
// repetition) or ok=false if the graph is acyclic.
func (t *Topology) CycleCheck() (path CyclePath, ok bool) {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[node.Handle]int, len(t.order))
	var stack []node.Handle

	var visit func(node.Handle) (CyclePath, bool)
	visit = func(h node.Handle) (CyclePath, bool) {
		color[h] = gray
		stack = append(stack, h)
		for _, to := range t.sortedKeys(t.edges[h]) {
			switch color[to] {
			case white:
				if p, found := visit(to); found {
					return p, true
				}
			case gray:
				// Found the repeated node: slice the stack from its
				// first occurrence to build the reported cycle path.
				start := 0
				for i, n := range stack {
					if n == to {
						start = i
						break
					}
				}
				cyc := append([]node.Handle(nil), stack[start:]...)
				cyc = append(cyc, to)
				return CyclePath{Path: cyc}, true
			}
		}
		stack = stack[:len(stack)-1]
		color[h] = black
		return CyclePath{}, false
	}

	for _, h := range t.order {
		if color[h] == white {
			if p, found := visit(h); found {
				return p, true
			}
		}
	}
	return CyclePath{}, false
}

// TopologicalOrder computes a deterministic topological order using
// Kahn's algorithm with a tie-break on insertion order, so repeated
// calls with no intervening graph change produce an identical sequence
// (repeated compiles yield identical plans). It returns CyclicGraph if the
// graph contains a cycle.
func (t *Topology) TopologicalOrder() ([]node.Handle, error) {
	indeg := make(map[node.Handle]int, len(t.order))
	for _, h := range t.order {
		indeg[h] = len(t.rev[h])
	}

	ready := make([]node.Handle, 0, len(t.order))
	for _, h := range t.order {
		if indeg[h] == 0 {
			ready = append(ready, h)
		}
	}
	sort.Slice(ready, func(i, j int) bool { return t.index[ready[i]] < t.index[ready[j]] })

	var out []node.Handle
	for len(ready) > 0 {
		// Pop the lowest-insertion-index ready node for determinism.
		n := ready[0]
		ready = ready[1:]
		out = append(out, n)

		var newlyReady []node.Handle
		for _, to := range t.sortedKeys(t.edges[n]) {
			indeg[to]--
			if indeg[to] == 0 {
				newlyReady = append(newlyReady, to)
			}
		}
		ready = append(ready, newlyReady...)
		sort.Slice(ready, func(i, j int) bool { return t.index[ready[i]] < t.index[ready[j]] })
	}

	if len(out) != len(t.order) {
		if p, found := t.CycleCheck(); found {
			return nil, &corerr.CoreError{Kind: corerr.CyclicGraph, Component: component,
				Reason: cyclePathString(p)}
		}
		return nil, corerr.New(component, corerr.CyclicGraph, "topological sort failed to cover all nodes")
	}
	return out, nil
}

func cyclePathString(p CyclePath) string {
	s := "cycle:"
	for _, h := range p.Path {
		s += " " + itoa(int64(h))
	}
	return s
}

func itoa(n int64) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// Len returns the number of nodes currently in the topology.
func (t *Topology) Len() int { return len(t.order) }
