package sketch

import (
	"testing"

	"github.com/typesketch/tysketch/internal/diagnostics"
	"github.com/typesketch/tysketch/internal/ir"
	"github.com/typesketch/tysketch/internal/lattice"
	"github.com/typesketch/tysketch/internal/tvar"
)

func testLattice(t *testing.T) *lattice.StringLattice {
	t.Helper()
	lat, err := lattice.FromDoc(lattice.Doc{
		Elements: []string{"int"},
		Edges: []lattice.Edge{
			{Lower: "bot", Upper: "int"},
			{Lower: "int", Upper: "top"},
		},
		Top: "top",
		Bot: "bot",
	})
	if err != nil {
		t.Fatalf("FromDoc: %v", err)
	}
	return lat
}

func TestBuildSingleSCCRefinesBounds(t *testing.T) {
	lat := testLattice(t)
	subTid := ir.NewTid(ir.KindSub, "1")

	in0 := tvar.Var(tvar.FromTid(subTid.String())).Extend(tvar.In(0))
	intElem := tvar.Var(tvar.New("int"))

	cs := tvar.NewConstraintSet()
	cs.Subtype(in0, intElem)

	sccs := []ir.SCCConstraints{{SCC: []ir.Tid{subTid}, Constraints: cs}}
	subs := map[string]ir.Sub{subTid.String(): {Tid: subTid}}
	cg := ir.NewCallgraph()
	cg.AddSub(subTid)

	result := Build(lat, nil, sccs, subs, cg)
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}

	sk, ok := result.Sketches[subTid.String()]
	if !ok {
		t.Fatalf("expected a sketch for %s", subTid.String())
	}

	e, _, ok := sk.G.EdgeTo(sk.RootIdx, tvar.In(0))
	if !ok {
		t.Fatalf("root should have an in_0 edge")
	}
	_, dst, _ := sk.G.EdgeEndpoints(e)
	bounds := sk.G.Weight(dst)
	if bounds.Upper != "int" {
		t.Errorf("in_0 node upper bound = %q, want int", bounds.Upper)
	}
	if bounds.Lower != "bot" {
		t.Errorf("in_0 node lower bound = %q, want bot", bounds.Lower)
	}
}

func TestBuildReportsExternalTypeNotBuilt(t *testing.T) {
	lat := testLattice(t)
	subTid := ir.NewTid(ir.KindSub, "1")
	calleeTid := ir.NewTid(ir.KindSub, "999")

	// the callee is a declared sub, but its SCC never reaches PassA, so
	// its sketch is missing when the caller's SCC asks for it.
	callee := tvar.Var(tvar.FromTid(calleeTid.String())).Extend(tvar.Out(0))
	local := tvar.Var(tvar.FromTid(subTid.String())).Extend(tvar.In(0))

	cs := tvar.NewConstraintSet()
	cs.Subtype(callee, local)

	sccs := []ir.SCCConstraints{{SCC: []ir.Tid{subTid}, Constraints: cs}}
	subs := map[string]ir.Sub{
		subTid.String():    {Tid: subTid},
		calleeTid.String(): {Tid: calleeTid},
	}
	cg := ir.NewCallgraph()
	cg.AddEdge(subTid, calleeTid)

	result := Build(lat, nil, sccs, subs, cg)
	if len(result.Errors) != 1 {
		t.Fatalf("expected exactly one error, got %v", result.Errors)
	}
	if result.Errors[0].Code != diagnostics.ErrExternalTypeNotBuilt {
		t.Errorf("error code = %s, want %s", result.Errors[0].Code, diagnostics.ErrExternalTypeNotBuilt)
	}
}

func TestBuildReportsMissingLatticeElement(t *testing.T) {
	lat := testLattice(t)
	subTid := ir.NewTid(ir.KindSub, "1")

	// "ghost" is declared as an atomic element name, but the lattice
	// does not know it.
	cs := tvar.NewConstraintSet()
	cs.Subtype(tvar.Var(tvar.FromTid(subTid.String())).Extend(tvar.In(0)), tvar.Var(tvar.New("ghost")))

	sccs := []ir.SCCConstraints{{SCC: []ir.Tid{subTid}, Constraints: cs}}
	subs := map[string]ir.Sub{subTid.String(): {Tid: subTid}}
	cg := ir.NewCallgraph()
	cg.AddSub(subTid)

	result := Build(lat, []string{"int", "ghost"}, sccs, subs, cg)
	if len(result.Errors) != 1 || result.Errors[0].Code != diagnostics.ErrMissingLatticeElement {
		t.Fatalf("expected a MissingLatticeElement error, got %v", result.Errors)
	}
}

func TestBuildKeepsRegisterAndArgSlotVariablesLocal(t *testing.T) {
	lat := testLattice(t)
	subTid := ir.NewTid(ir.KindSub, "1")

	// register variables, per-callsite argument slots, and fresh
	// variables are not sub references; none of them may trip the
	// external-sketch lookup.
	reg := tvar.Var(tvar.TidIndexedByVariable("@def_5", "RAX"))
	slot := tvar.Var(tvar.ArgTvarName(subTid.String(), 0))
	fresh := tvar.Var(tvar.New("t3"))
	in0 := tvar.Var(tvar.FromTid(subTid.String())).Extend(tvar.In(0))

	cs := tvar.NewConstraintSet()
	cs.Subtype(reg, in0)
	cs.Subtype(in0, slot)
	cs.Subtype(fresh, in0)

	sccs := []ir.SCCConstraints{{SCC: []ir.Tid{subTid}, Constraints: cs}}
	subs := map[string]ir.Sub{subTid.String(): {Tid: subTid}}
	cg := ir.NewCallgraph()
	cg.AddSub(subTid)

	result := Build(lat, nil, sccs, subs, cg)
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if _, ok := result.Sketches[subTid.String()]; !ok {
		t.Fatalf("expected a sketch for %s", subTid.String())
	}
}
