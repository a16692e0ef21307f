package graph

// ReachableSet returns the set of nodes forward-reachable from root,
// including root itself.
func (g *Graph[W, E]) ReachableSet(root NodeIndex) map[NodeIndex]bool {
	seen := map[NodeIndex]bool{root: true}
	stack := []NodeIndex{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, e := range g.OutEdges(n) {
			_, dst, _ := g.EdgeEndpoints(e)
			if !seen[dst] {
				seen[dst] = true
				stack = append(stack, dst)
			}
		}
	}
	return seen
}

// PathsFrom returns, for every node forward-reachable from root, the
// sequence of edge weights along a shortest path from root to it (root
// itself maps to the empty path). Ties are broken by the deterministic
// edge order from OutEdges, so the result is stable across calls.
func (g *Graph[W, E]) PathsFrom(root NodeIndex) map[NodeIndex][]E {
	paths := map[NodeIndex][]E{root: {}}
	queue := []NodeIndex{root}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, e := range g.OutEdges(n) {
			_, dst, w := g.EdgeEndpoints(e)
			if _, ok := paths[dst]; ok {
				continue
			}
			p := make([]E, len(paths[n])+1)
			copy(p, paths[n])
			p[len(paths[n])] = w
			paths[dst] = p
			queue = append(queue, dst)
		}
	}
	return paths
}

// WalkPath follows path, one edge-weight at a time, from start. Returns
// the node reached and whether the whole path could be followed.
func (g *Graph[W, E]) WalkPath(start NodeIndex, path []E) (NodeIndex, bool) {
	cur := start
	for _, w := range path {
		_, dst, ok := g.EdgeTo(cur, w)
		if !ok {
			return 0, false
		}
		cur = dst
	}
	return cur, true
}

func (g *Graph[W, E]) setKey(key string, idx NodeIndex) {
	if old, ok := g.keyToNode[key]; ok && old != idx {
		delete(g.nodeToKeys[old], key)
	}
	g.keyToNode[key] = idx
	if g.nodeToKeys[idx] == nil {
		g.nodeToKeys[idx] = make(map[string]bool)
	}
	g.nodeToKeys[idx][key] = true
}

// GetReachableSubgraph clones the forward-reachable subgraph from root
// into a fresh Graph,
// filtering the key mapping to nodes in the reached set. Returns the new
// graph and root's image in it.
func (g *Graph[W, E]) GetReachableSubgraph(root NodeIndex) (*Graph[W, E], NodeIndex) {
	reached := g.ReachableSet(root)
	out := New[W, E](g.mergeWeight, g.lessEdge)
	remap := make(map[NodeIndex]NodeIndex, len(reached))

	// Insert in ascending original-index order for determinism.
	ordered := make([]NodeIndex, 0, len(reached))
	for idx := range reached {
		ordered = append(ordered, idx)
	}
	sortNodeIndices(ordered)
	for _, idx := range ordered {
		remap[idx] = out.AddBareNode(g.Weight(idx))
	}
	for _, idx := range ordered {
		for _, e := range g.OutEdges(idx) {
			_, dst, w := g.EdgeEndpoints(e)
			if reached[dst] {
				out.AddEdge(remap[idx], remap[dst], w)
			}
		}
	}
	for _, key := range g.Keys() {
		idx, _ := g.Lookup(key)
		if reached[idx] {
			out.setKey(key, remap[idx])
		}
	}
	return out, remap[root]
}

func sortNodeIndices(xs []NodeIndex) {
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && xs[j-1] > xs[j]; j-- {
			xs[j-1], xs[j] = xs[j], xs[j-1]
		}
	}
}

// Quotient collapses a partition of live node indices into groups,
// producing a new graph where each group is a
// single node with weight = magma-reduce of the original weights and
// edges deduplicated; a key mapping to any member of a group now maps to
// the group's representative. groups need not be sorted, but every live
// node must appear in exactly one group.
func (g *Graph[W, E]) Quotient(groups [][]NodeIndex) *Graph[W, E] {
	out := New[W, E](g.mergeWeight, g.lessEdge)
	groupOf := make(map[NodeIndex]int, len(g.nodes))
	newIdxForGroup := make([]NodeIndex, len(groups))

	for gi, members := range groups {
		if len(members) == 0 {
			newIdxForGroup[gi] = out.AddBareNode(*new(W))
			continue
		}
		ordered := append([]NodeIndex(nil), members...)
		sortNodeIndices(ordered)
		weight := g.Weight(ordered[0])
		for _, idx := range ordered[1:] {
			weight = g.mergeWeight(weight, g.Weight(idx))
		}
		newIdxForGroup[gi] = out.AddBareNode(weight)
		for _, idx := range ordered {
			groupOf[idx] = gi
		}
	}

	for _, idx := range g.NodeIndices() {
		gi, ok := groupOf[idx]
		if !ok {
			continue
		}
		for _, e := range g.OutEdges(idx) {
			_, dst, w := g.EdgeEndpoints(e)
			dgi, ok := groupOf[dst]
			if !ok {
				continue
			}
			out.AddEdge(newIdxForGroup[gi], newIdxForGroup[dgi], w)
		}
	}

	for _, key := range g.Keys() {
		idx, _ := g.Lookup(key)
		if gi, ok := groupOf[idx]; ok {
			out.setKey(key, newIdxForGroup[gi])
		}
	}
	return out
}

// ReplaceNode swaps one node's forward-reachable subgraph for another
// graph. Let R be the set of nodes forward-reachable
// from the node named by key. Every edge entering R from outside R is
// recorded as (source, weight, path-from-key-to-target). All nodes of R
// are removed, replacement's nodes and internal edges are inserted, each
// recorded incoming edge is re-attached to the node reachable from
// replacement's own root by the recorded path (if one exists), and every
// key that labeled a node in R is carried forward to the corresponding
// node of the replacement by the same path (if one exists).
func (g *Graph[W, E]) ReplaceNode(key string, replacement *Graph[W, E], replacementRoot NodeIndex) bool {
	rootIdx, ok := g.Lookup(key)
	if !ok {
		return false
	}
	R := g.ReachableSet(rootIdx)
	paths := g.PathsFrom(rootIdx)

	type incoming struct {
		src    NodeIndex
		weight E
		path   []E
	}
	var crossEdges []incoming
	for _, idx := range g.NodeIndices() {
		if R[idx] {
			continue
		}
		for _, e := range g.OutEdges(idx) {
			_, dst, w := g.EdgeEndpoints(e)
			if R[dst] {
				crossEdges = append(crossEdges, incoming{src: idx, weight: w, path: paths[dst]})
			}
		}
	}

	type carriedKey struct {
		key  string
		path []E
	}
	var carried []carriedKey
	for _, k := range g.Keys() {
		idx, _ := g.Lookup(k)
		if R[idx] {
			carried = append(carried, carriedKey{key: k, path: paths[idx]})
		}
	}

	for idx := range R {
		g.RemoveNodeByIdx(idx)
	}

	repOrdered := replacement.NodeIndices()
	remap := make(map[NodeIndex]NodeIndex, len(repOrdered))
	for _, idx := range repOrdered {
		remap[idx] = g.AddBareNode(replacement.Weight(idx))
	}
	for _, idx := range repOrdered {
		for _, e := range replacement.OutEdges(idx) {
			_, dst, w := replacement.EdgeEndpoints(e)
			g.AddEdge(remap[idx], remap[dst], w)
		}
	}

	newRoot := remap[replacementRoot]
	g.setKey(key, newRoot)

	for _, ck := range carried {
		if ck.key == key {
			continue
		}
		if target, ok := replacement.WalkPath(replacementRoot, ck.path); ok {
			g.setKey(ck.key, remap[target])
		}
	}

	for _, ce := range crossEdges {
		if target, ok := replacement.WalkPath(replacementRoot, ce.path); ok {
			g.AddEdge(ce.src, remap[target], ce.weight)
		}
	}

	return true
}
