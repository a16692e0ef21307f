// Package graph implements a mapping graph: a stable directed multigraph
// of W-weighted nodes and E-weighted edges, with a many-to-one string-key
// to node-index mapping and its consistent reverse mapping.
// "Stable" means node indices never shift on deletion: a removed
// node's slot is tombstoned, not reclaimed, so indices handed out earlier
// remain valid identifiers (or correctly report non-existence).
package graph

import "sort"

// NodeIndex identifies a node within one Graph. Indices are stable: once
// handed out they are never reused or shifted by later mutation.
type NodeIndex int

// EdgeIndex identifies an edge within one Graph.
type EdgeIndex int

type nodeEntry[W any] struct {
	weight W
	alive  bool
	out    []EdgeIndex
	in     []EdgeIndex
}

type edgeEntry[E comparable] struct {
	src, dst NodeIndex
	weight   E
	alive    bool
}

// Graph is a mapping graph with W node weights and E edge weights. The
// key type is fixed to string (every caller in this pipeline keys nodes
// by a DerivedTypeVar's or lattice element's canonical string form) which
// keeps iteration order deterministic via plain string sorting.
type Graph[W any, E comparable] struct {
	nodes []nodeEntry[W]
	edges []edgeEntry[E]

	keyToNode  map[string]NodeIndex
	nodeToKeys map[NodeIndex]map[string]bool

	mergeWeight func(a, b W) W
	lessEdge    func(a, b E) bool
}

// New builds an empty Graph. mergeWeight is the magma operation applied
// when two nodes coalesce; lessEdge gives a total order over edge
// weights, used only to make iteration deterministic.
func New[W any, E comparable](mergeWeight func(a, b W) W, lessEdge func(a, b E) bool) *Graph[W, E] {
	return &Graph[W, E]{
		keyToNode:   make(map[string]NodeIndex),
		nodeToKeys:  make(map[NodeIndex]map[string]bool),
		mergeWeight: mergeWeight,
		lessEdge:    lessEdge,
	}
}

// Capacity returns one past the highest node index ever handed out,
// i.e. the size a union-find over this graph's node space must have.
func (g *Graph[W, E]) Capacity() int { return len(g.nodes) }

// Alive reports whether idx currently names a live node.
func (g *Graph[W, E]) Alive(idx NodeIndex) bool {
	return idx >= 0 && int(idx) < len(g.nodes) && g.nodes[idx].alive
}

// Weight returns idx's stored node weight. It does not check that idx is
// alive; an index outside the node space panics.
func (g *Graph[W, E]) Weight(idx NodeIndex) W {
	return g.nodes[idx].weight
}

// SetWeight overwrites idx's node weight directly (used by labeling,
// which refines bounds in place rather than through the merge magma).
func (g *Graph[W, E]) SetWeight(idx NodeIndex, w W) {
	g.nodes[idx].weight = w
}

// Lookup returns the node a key currently maps to.
func (g *Graph[W, E]) Lookup(key string) (NodeIndex, bool) {
	idx, ok := g.keyToNode[key]
	return idx, ok
}

// KeysOf returns every key currently mapping to idx, sorted.
func (g *Graph[W, E]) KeysOf(idx NodeIndex) []string {
	ks := g.nodeToKeys[idx]
	out := make([]string, 0, len(ks))
	for k := range ks {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Keys returns every registered key, sorted.
func (g *Graph[W, E]) Keys() []string {
	out := make([]string, 0, len(g.keyToNode))
	for k := range g.keyToNode {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// NodeIndices returns every live node index, in ascending order.
func (g *Graph[W, E]) NodeIndices() []NodeIndex {
	out := make([]NodeIndex, 0, len(g.nodes))
	for i, n := range g.nodes {
		if n.alive {
			out = append(out, NodeIndex(i))
		}
	}
	return out
}

// EdgeEndpoints returns the (src, dst, weight) of a live edge.
func (g *Graph[W, E]) EdgeEndpoints(e EdgeIndex) (NodeIndex, NodeIndex, E) {
	ee := g.edges[e]
	return ee.src, ee.dst, ee.weight
}

// EdgeAlive reports whether e currently names a live edge.
func (g *Graph[W, E]) EdgeAlive(e EdgeIndex) bool {
	return int(e) >= 0 && int(e) < len(g.edges) && g.edges[e].alive
}

// OutEdges returns idx's live outgoing edges, ordered by (weight, edge
// index) for determinism.
func (g *Graph[W, E]) OutEdges(idx NodeIndex) []EdgeIndex {
	return g.sortedLiveEdges(g.nodes[idx].out)
}

// InEdges returns idx's live incoming edges, ordered by (weight, edge
// index).
func (g *Graph[W, E]) InEdges(idx NodeIndex) []EdgeIndex {
	return g.sortedLiveEdges(g.nodes[idx].in)
}

func (g *Graph[W, E]) sortedLiveEdges(ids []EdgeIndex) []EdgeIndex {
	out := make([]EdgeIndex, 0, len(ids))
	for _, id := range ids {
		if g.edges[id].alive {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := g.edges[out[i]], g.edges[out[j]]
		if g.lessEdge(a.weight, b.weight) {
			return true
		}
		if g.lessEdge(b.weight, a.weight) {
			return false
		}
		return out[i] < out[j]
	})
	return out
}

// EdgeTo returns the live out-edge from idx to dst bearing weight, if any.
func (g *Graph[W, E]) EdgeTo(idx NodeIndex, weight E) (EdgeIndex, NodeIndex, bool) {
	for _, e := range g.nodes[idx].out {
		if !g.edges[e].alive {
			continue
		}
		if g.edges[e].weight == weight {
			return e, g.edges[e].dst, true
		}
	}
	return 0, 0, false
}

func (g *Graph[W, E]) appendNode(w W) NodeIndex {
	idx := NodeIndex(len(g.nodes))
	g.nodes = append(g.nodes, nodeEntry[W]{weight: w, alive: true})
	g.nodeToKeys[idx] = make(map[string]bool)
	return idx
}

// AddNode inserts a node under key: if key is already known, the new
// weight is merged in place via the magma operator; otherwise a fresh
// node is created and registered under key.
func (g *Graph[W, E]) AddNode(key string, weight W) NodeIndex {
	if idx, ok := g.keyToNode[key]; ok {
		g.nodes[idx].weight = g.mergeWeight(g.nodes[idx].weight, weight)
		return idx
	}
	idx := g.appendNode(weight)
	g.keyToNode[key] = idx
	g.nodeToKeys[idx][key] = true
	return idx
}

// AddBareNode creates a node with no key at all (used for anonymous
// intermediate nodes, e.g. DFA product states before they are keyed).
func (g *Graph[W, E]) AddBareNode(weight W) NodeIndex {
	return g.appendNode(weight)
}

// findParallelEdge implements the multigraph dedup rule: no two edges
// with equal weight between the same ordered node pair.
func (g *Graph[W, E]) findParallelEdge(a, b NodeIndex, weight E) (EdgeIndex, bool) {
	for _, e := range g.nodes[a].out {
		ee := g.edges[e]
		if ee.alive && ee.dst == b && ee.weight == weight {
			return e, true
		}
	}
	return 0, false
}

// AddEdge inserts an edge from a to b, skipped if a parallel edge with
// the same weight already connects them. Returns the edge's index and
// whether it was newly added.
func (g *Graph[W, E]) AddEdge(a, b NodeIndex, weight E) (EdgeIndex, bool) {
	if e, ok := g.findParallelEdge(a, b, weight); ok {
		return e, false
	}
	idx := EdgeIndex(len(g.edges))
	g.edges = append(g.edges, edgeEntry[E]{src: a, dst: b, weight: weight, alive: true})
	g.nodes[a].out = append(g.nodes[a].out, idx)
	g.nodes[b].in = append(g.nodes[b].in, idx)
	return idx, true
}

// RemoveNodeByIdx drops a node and every key associated with it, along
// with all edges incident to it.
func (g *Graph[W, E]) RemoveNodeByIdx(idx NodeIndex) {
	if !g.Alive(idx) {
		return
	}
	for _, e := range g.nodes[idx].out {
		g.killEdge(e)
	}
	for _, e := range g.nodes[idx].in {
		g.killEdge(e)
	}
	for k := range g.nodeToKeys[idx] {
		delete(g.keyToNode, k)
	}
	delete(g.nodeToKeys, idx)
	g.nodes[idx].alive = false
	g.nodes[idx].out = nil
	g.nodes[idx].in = nil
}

func (g *Graph[W, E]) killEdge(e EdgeIndex) {
	if !g.edges[e].alive {
		return
	}
	g.edges[e].alive = false
}

// RemoveNode drops the node that key maps to, if any.
func (g *Graph[W, E]) RemoveNode(key string) {
	if idx, ok := g.keyToNode[key]; ok {
		g.RemoveNodeByIdx(idx)
	}
}

// MergeNodes coalesces the nodes named by two keys: if both keys exist
// and name distinct nodes, a fresh node is created with the merged
// weight, every key of both old nodes is re-homed to it, its incoming and
// outgoing edges are copied over (deduplicated by the usual parallel-edge
// rule), and the two old nodes are deleted. Returns the surviving node
// index and true if a merge happened; if either key is absent, or both
// name the same node, no-op and returns that node (or the zero value) and
// false.
func (g *Graph[W, E]) MergeNodes(k1, k2 string) (NodeIndex, bool) {
	idx1, ok1 := g.keyToNode[k1]
	idx2, ok2 := g.keyToNode[k2]
	if !ok1 || !ok2 {
		return 0, false
	}
	if idx1 == idx2 {
		return idx1, false
	}
	return g.MergeNodeIndices(idx1, idx2), true
}

// MergeNodeIndices is MergeNodes addressed by node index rather than key;
// used internally by Quotient and by callers that already hold indices.
func (g *Graph[W, E]) MergeNodeIndices(idx1, idx2 NodeIndex) NodeIndex {
	if idx1 == idx2 {
		return idx1
	}
	newWeight := g.mergeWeight(g.nodes[idx1].weight, g.nodes[idx2].weight)
	newIdx := g.appendNode(newWeight)

	remap := func(n NodeIndex) NodeIndex {
		if n == idx1 || n == idx2 {
			return newIdx
		}
		return n
	}

	type pending struct {
		src, dst NodeIndex
		weight   E
	}
	var toAdd []pending

	for _, old := range [2]NodeIndex{idx1, idx2} {
		for _, e := range g.nodes[old].out {
			ee := g.edges[e]
			if !ee.alive {
				continue
			}
			toAdd = append(toAdd, pending{src: newIdx, dst: remap(ee.dst), weight: ee.weight})
		}
		for _, e := range g.nodes[old].in {
			ee := g.edges[e]
			if !ee.alive {
				continue
			}
			toAdd = append(toAdd, pending{src: remap(ee.src), dst: newIdx, weight: ee.weight})
		}
	}

	for k := range g.nodeToKeys[idx1] {
		g.keyToNode[k] = newIdx
		g.nodeToKeys[newIdx][k] = true
	}
	for k := range g.nodeToKeys[idx2] {
		g.keyToNode[k] = newIdx
		g.nodeToKeys[newIdx][k] = true
	}
	delete(g.nodeToKeys, idx1)
	delete(g.nodeToKeys, idx2)
	g.nodes[idx1].alive = false
	g.nodes[idx2].alive = false
	for _, e := range g.nodes[idx1].out {
		g.killEdge(e)
	}
	for _, e := range g.nodes[idx1].in {
		g.killEdge(e)
	}
	for _, e := range g.nodes[idx2].out {
		g.killEdge(e)
	}
	for _, e := range g.nodes[idx2].in {
		g.killEdge(e)
	}
	g.nodes[idx1].out, g.nodes[idx1].in = nil, nil
	g.nodes[idx2].out, g.nodes[idx2].in = nil, nil

	for _, p := range toAdd {
		g.AddEdge(p.src, p.dst, p.weight)
	}
	return newIdx
}
