// Package dfa implements the product construction used to union and
// intersect two sketches: a shared reachability walk over
// the two input automata, differing in which labels a product state steps
// on (either side's for union, only both sides' for intersection) and in
// how a product state's lattice bounds are combined.
package dfa

import (
	"sort"

	"github.com/typesketch/tysketch/internal/graph"
	"github.com/typesketch/tysketch/internal/lattice"
	"github.com/typesketch/tysketch/internal/quotient"
	"github.com/typesketch/tysketch/internal/tvar"
)

type sketchGraph = graph.Graph[lattice.Bounds[string], tvar.FieldLabel]

type pairState struct {
	a    int
	hasA bool
	b    int
	hasB bool
}

func (s pairState) key() [4]int {
	toInt := func(has bool) int {
		if has {
			return 1
		}
		return 0
	}
	return [4]int{s.a, toInt(s.hasA), s.b, toInt(s.hasB)}
}

func lessLabel(a, b tvar.FieldLabel) bool { return a.String() < b.String() }

func newGraph(lat lattice.Lattice[string]) *sketchGraph {
	return graph.New(
		func(a, b lattice.Bounds[string]) lattice.Bounds[string] { return lattice.Merge(lat, a, b) },
		lessLabel,
	)
}

func boundsFor(lat lattice.Lattice[string], combine func(lattice.Lattice[string], lattice.Bounds[string], lattice.Bounds[string]) lattice.Bounds[string], a *sketchGraph, b *sketchGraph, s pairState) lattice.Bounds[string] {
	switch {
	case s.hasA && s.hasB:
		return combine(lat, a.Weight(graph.NodeIndex(s.a)), b.Weight(graph.NodeIndex(s.b)))
	case s.hasA:
		return a.Weight(graph.NodeIndex(s.a))
	case s.hasB:
		return b.Weight(graph.NodeIndex(s.b))
	default:
		return lattice.Identity(lat)
	}
}

// product builds the shared reachable pair-automaton from (rootA, rootB):
// a product state steps on a label whenever either side supports it,
// carrying the other side's projection forward as "absent" once lost;
// with both set, it steps only on labels both sides support.
// Every reachable state is accepting; combine decides how bounds merge
// where both sides project onto the same state (join for union, meet for
// intersection).
func product(lat lattice.Lattice[string], combine func(lattice.Lattice[string], lattice.Bounds[string], lattice.Bounds[string]) lattice.Bounds[string], both bool, a *sketchGraph, rootA graph.NodeIndex, b *sketchGraph, rootB graph.NodeIndex) (*sketchGraph, graph.NodeIndex) {
	out := newGraph(lat)
	visited := make(map[[4]int]graph.NodeIndex)

	start := pairState{a: int(rootA), hasA: true, b: int(rootB), hasB: true}
	startIdx := out.AddBareNode(boundsFor(lat, combine, a, b, start))
	visited[start.key()] = startIdx

	queue := []pairState{start}
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		srcIdx := visited[s.key()]

		labels := make(map[string]tvar.FieldLabel)
		aOut := make(map[string]graph.NodeIndex)
		bOut := make(map[string]graph.NodeIndex)
		if s.hasA {
			for _, e := range a.OutEdges(graph.NodeIndex(s.a)) {
				_, dst, w := a.EdgeEndpoints(e)
				labels[w.String()] = w
				aOut[w.String()] = dst
			}
		}
		if s.hasB {
			for _, e := range b.OutEdges(graph.NodeIndex(s.b)) {
				_, dst, w := b.EdgeEndpoints(e)
				labels[w.String()] = w
				bOut[w.String()] = dst
			}
		}

		var names []string
		for n := range labels {
			names = append(names, n)
		}
		sort.Strings(names)

		for _, n := range names {
			label := labels[n]
			next := pairState{}
			if dst, ok := aOut[n]; ok {
				next.a, next.hasA = int(dst), true
			}
			if dst, ok := bOut[n]; ok {
				next.b, next.hasB = int(dst), true
			}
			if both && !(next.hasA && next.hasB) {
				continue
			}
			k := next.key()
			dstIdx, ok := visited[k]
			if !ok {
				dstIdx = out.AddBareNode(boundsFor(lat, combine, a, b, next))
				visited[k] = dstIdx
				queue = append(queue, next)
			}
			out.AddEdge(srcIdx, dstIdx, label)
		}
	}

	return out, startIdx
}

// minimize re-quotients g by pure edge-implication closure (an empty
// constraint set) after a product construction, and returns root's image
// in the minimized graph.
func minimize(g *sketchGraph, root graph.NodeIndex) (*sketchGraph, graph.NodeIndex) {
	groups := quotient.Compute(g, tvar.NewConstraintSet())
	out := g.Quotient(groups)
	for gi, members := range groups {
		for _, m := range members {
			if m == root {
				return out, graph.NodeIndex(gi)
			}
		}
	}
	return out, root
}

// Union implements sketch union (join): the product of a and b, accepting
// L(a) ∪ L(b), with node bounds joined where both sides project.
func Union(lat lattice.Lattice[string], a *sketchGraph, rootA graph.NodeIndex, b *sketchGraph, rootB graph.NodeIndex) (*sketchGraph, graph.NodeIndex) {
	p, root := product(lat, func(l lattice.Lattice[string], x, y lattice.Bounds[string]) lattice.Bounds[string] {
		return lattice.Bounds[string]{Upper: l.Join(x.Upper, y.Upper), Lower: l.Join(x.Lower, y.Lower)}
	}, false, a, rootA, b, rootB)
	return minimize(p, root)
}

// Intersect implements sketch intersection (meet): the product of a and b
// restricted to labels both sides support, accepting L(a) ∩ L(b), with
// node bounds met.
func Intersect(lat lattice.Lattice[string], a *sketchGraph, rootA graph.NodeIndex, b *sketchGraph, rootB graph.NodeIndex) (*sketchGraph, graph.NodeIndex) {
	p, root := product(lat, func(l lattice.Lattice[string], x, y lattice.Bounds[string]) lattice.Bounds[string] {
		return lattice.Bounds[string]{Upper: l.Meet(x.Upper, y.Upper), Lower: l.Meet(x.Lower, y.Lower)}
	}, true, a, rootA, b, rootB)
	return minimize(p, root)
}
