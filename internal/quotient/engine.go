// Package quotient computes node-equivalence classes over a constraint
// graph: explicit subtype unification first, then edge-implication
// closure (equal ancestors with equal labels imply equal successors;
// Load/Store collapse for this purpose only).
package quotient

import (
	"sort"

	"github.com/typesketch/tysketch/internal/graph"
	"github.com/typesketch/tysketch/internal/tvar"
)

type implication struct {
	eq0, eq1     int
	edge0, edge1 int
	resolved     bool
}

// Compute returns the partition of g's live nodes under constraints:
// union-find over explicit subtype pairs, then edge-implication closure
// to fixpoint. g's nodes are keyed by tvar.DerivedTypeVar.Key(); any
// constraint endpoint not present in g is ignored (callers are expected
// to have inserted every DerivedTypeVar mentioned in constraints before
// quotienting).
func Compute[W any](g *graph.Graph[W, tvar.FieldLabel], constraints *tvar.ConstraintSet) [][]graph.NodeIndex {
	uf := newUnionFind(g.Capacity())

	for _, c := range constraints.Slice() {
		lIdx, lok := g.Lookup(c.Lhs.Key())
		rIdx, rok := g.Lookup(c.Rhs.Key())
		if lok && rok {
			uf.union(int(lIdx), int(rIdx))
		}
	}

	var edges []graph.EdgeIndex
	for _, idx := range g.NodeIndices() {
		edges = append(edges, g.OutEdges(idx)...)
	}

	var implications []*implication
	for i := 0; i < len(edges); i++ {
		s1, d1, w1 := g.EdgeEndpoints(edges[i])
		for j := 0; j < len(edges); j++ {
			if i == j {
				continue
			}
			s2, d2, w2 := g.EdgeEndpoints(edges[j])
			if tvar.EquivalentForImplication(w1, w2) {
				implications = append(implications, &implication{
					eq0: int(s1), eq1: int(s2),
					edge0: int(d1), edge1: int(d2),
				})
			}
		}
	}

	for changed := true; changed; {
		changed = false
		for _, imp := range implications {
			if imp.resolved {
				continue
			}
			if uf.equivalent(imp.eq0, imp.eq1) {
				imp.resolved = true
				if uf.union(imp.edge0, imp.edge1) {
					changed = true
				}
			}
		}
	}

	groups := make(map[int][]graph.NodeIndex)
	for _, idx := range g.NodeIndices() {
		r := uf.find(int(idx))
		groups[r] = append(groups[r], idx)
	}

	reps := make([]int, 0, len(groups))
	for r := range groups {
		reps = append(reps, r)
	}
	sort.Slice(reps, func(i, j int) bool {
		return minIndex(groups[reps[i]]) < minIndex(groups[reps[j]])
	})

	out := make([][]graph.NodeIndex, 0, len(reps))
	for _, r := range reps {
		members := groups[r]
		sort.Slice(members, func(i, j int) bool { return members[i] < members[j] })
		out = append(out, members)
	}
	return out
}

func minIndex(xs []graph.NodeIndex) graph.NodeIndex {
	m := xs[0]
	for _, x := range xs[1:] {
		if x < m {
			m = x
		}
	}
	return m
}
