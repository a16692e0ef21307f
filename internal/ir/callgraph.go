package ir

import "sort"

// Callgraph is a directed graph over Sub Tids: an edge caller->callee
// means caller contains a call to callee. Insertion order is preserved
// for Subs() so topological-order construction downstream (see
// internal/sketch) has a stable secondary key to break ties on.
type Callgraph struct {
	subOrder []Tid
	subSeen  map[string]bool
	edges    map[string][]Tid
}

// NewCallgraph returns an empty callgraph.
func NewCallgraph() *Callgraph {
	return &Callgraph{subSeen: make(map[string]bool), edges: make(map[string][]Tid)}
}

// AddSub registers a sub with no callees, a no-op if already present.
func (c *Callgraph) AddSub(t Tid) {
	key := t.String()
	if c.subSeen[key] {
		return
	}
	c.subSeen[key] = true
	c.subOrder = append(c.subOrder, t)
}

// AddEdge records that caller calls callee, registering both as subs if
// new.
func (c *Callgraph) AddEdge(caller, callee Tid) {
	c.AddSub(caller)
	c.AddSub(callee)
	key := caller.String()
	for _, existing := range c.edges[key] {
		if existing == callee {
			return
		}
	}
	c.edges[key] = append(c.edges[key], callee)
}

// Callees returns t's direct callees in insertion order.
func (c *Callgraph) Callees(t Tid) []Tid {
	return c.edges[t.String()]
}

// Callers returns every sub with a direct call edge into t, sorted by Tid
// string for determinism.
func (c *Callgraph) Callers(t Tid) []Tid {
	key := t.String()
	byKey := make(map[string]Tid, len(c.subOrder))
	for _, s := range c.subOrder {
		byKey[s.String()] = s
	}
	var names []string
	for caller, callees := range c.edges {
		for _, callee := range callees {
			if callee.String() == key {
				names = append(names, caller)
				break
			}
		}
	}
	sort.Strings(names)
	out := make([]Tid, len(names))
	for i, n := range names {
		out[i] = byKey[n]
	}
	return out
}

// Subs returns every registered sub Tid in insertion order.
func (c *Callgraph) Subs() []Tid {
	out := make([]Tid, len(c.subOrder))
	copy(out, c.subOrder)
	return out
}

// SCCs computes strongly connected components via Tarjan's algorithm,
// returned in reverse-topological order (a callee's SCC is emitted before
// any caller's SCC reachable only through it), with ties within an SCC
// broken by a sort on Tid string for determinism.
func (c *Callgraph) SCCs() [][]Tid {
	index := make(map[string]int)
	low := make(map[string]int)
	onStack := make(map[string]bool)
	var stack []string
	counter := 0
	var order [][]string

	byKey := make(map[string]Tid, len(c.subOrder))
	for _, t := range c.subOrder {
		byKey[t.String()] = t
	}

	var strongconnect func(v string)
	strongconnect = func(v string) {
		index[v] = counter
		low[v] = counter
		counter++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range c.edges[v] {
			wk := w.String()
			if _, seen := index[wk]; !seen {
				strongconnect(wk)
				if low[wk] < low[v] {
					low[v] = low[wk]
				}
			} else if onStack[wk] {
				if index[wk] < low[v] {
					low[v] = index[wk]
				}
			}
		}

		if low[v] == index[v] {
			var scc []string
			for {
				n := len(stack) - 1
				w := stack[n]
				stack = stack[:n]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sort.Strings(scc)
			order = append(order, scc)
		}
	}

	for _, t := range c.subOrder {
		if _, seen := index[t.String()]; !seen {
			strongconnect(t.String())
		}
	}

	out := make([][]Tid, len(order))
	for i, scc := range order {
		tids := make([]Tid, len(scc))
		for j, k := range scc {
			tids[j] = byKey[k]
		}
		out[i] = tids
	}
	return out
}
