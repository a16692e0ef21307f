package sketch

import (
	"testing"

	"github.com/typesketch/tysketch/internal/lattice"
	"github.com/typesketch/tysketch/internal/tvar"
)

func TestInsertDTVBuildsPrefixChain(t *testing.T) {
	lat := testLattice(t)
	g := New(lat)
	vars := make(map[string]tvar.DerivedTypeVar)

	dtv := tvar.Var(tvar.New("t1")).Extend(tvar.In(0)).Extend(tvar.Load())
	leaf := insertDTV(g, vars, lat, dtv)

	rootIdx, ok := g.Lookup("t1")
	if !ok {
		t.Fatalf("insertDTV should register the bare base as a node")
	}
	midIdx, ok := g.Lookup("t1.in_0")
	if !ok {
		t.Fatalf("insertDTV should register the one-label prefix")
	}
	if idx, ok := g.Lookup(dtv.Key()); !ok || idx != leaf {
		t.Fatalf("insertDTV should return the full variable's own node index")
	}

	if _, dst, ok := g.EdgeTo(rootIdx, tvar.In(0)); !ok || dst != midIdx {
		t.Errorf("expected an in_0 edge from root to the mid prefix")
	}
	if _, _, ok := g.EdgeTo(midIdx, tvar.Load()); !ok {
		t.Errorf("expected a load edge from the mid prefix to the leaf")
	}
}

func TestSketchUnionAndIntersect(t *testing.T) {
	lat := testLattice(t)

	g1 := New(lat)
	root1 := g1.AddBareNode(lattice.Bounds[string]{Upper: "int", Lower: "bot"})
	s1 := &Sketch{Root: tvar.Var(tvar.New("a")), RootIdx: root1, G: g1, Vars: map[string]tvar.DerivedTypeVar{}}

	g2 := New(lat)
	root2 := g2.AddBareNode(lattice.Bounds[string]{Upper: "top", Lower: "int"})
	s2 := &Sketch{Root: tvar.Var(tvar.New("b")), RootIdx: root2, G: g2, Vars: map[string]tvar.DerivedTypeVar{}}

	union := s1.Union(lat, s2)
	ub := union.G.Weight(union.RootIdx)
	if ub.Upper != "top" {
		t.Errorf("union bounds upper = %q, want top", ub.Upper)
	}

	inter := s1.Intersect(lat, s2)
	ib := inter.G.Weight(inter.RootIdx)
	if ib.Lower != "bot" {
		t.Errorf("intersect bounds lower = %q, want bot", ib.Lower)
	}
}

func TestRepresentingSketchesIgnoresCallSiteTags(t *testing.T) {
	lat := testLattice(t)
	g := New(lat)
	vars := make(map[string]tvar.DerivedTypeVar)

	formal := tvar.Var(tvar.New("callee")).Extend(tvar.In(0))

	tagged1 := formal.WithCallSite("cs1")
	tagged2 := formal.WithCallSite("cs2")
	insertDTV(g, vars, lat, tagged1)
	insertDTV(g, vars, lat, tagged2)
	// an unrelated variable that should not match.
	insertDTV(g, vars, lat, tvar.Var(tvar.New("other")))

	caller := &Sketch{G: g, Vars: vars}
	reps := representingSketches(caller, formal)

	if len(reps) != 2 {
		t.Fatalf("expected exactly 2 representing sketches (one per call site), got %d", len(reps))
	}
	for _, r := range reps {
		if r.Root.ToCallee().Key() != formal.Key() {
			t.Errorf("representing sketch root %q does not match formal %q when untagged", r.Root.Key(), formal.Key())
		}
	}
}
