package sketch

import (
	"testing"

	"github.com/typesketch/tysketch/internal/graph"
	"github.com/typesketch/tysketch/internal/ir"
	"github.com/typesketch/tysketch/internal/lattice"
	"github.com/typesketch/tysketch/internal/tvar"
)

// byteLattice is bot ⊑ {char, int} ⊑ bytetype ⊑ top.
func byteLattice(t *testing.T) *lattice.StringLattice {
	t.Helper()
	lat, err := lattice.FromDoc(lattice.Doc{
		Elements: []string{"char", "int", "bytetype"},
		Edges: []lattice.Edge{
			{Lower: "bot", Upper: "char"},
			{Lower: "bot", Upper: "int"},
			{Lower: "char", Upper: "bytetype"},
			{Lower: "int", Upper: "bytetype"},
			{Lower: "bytetype", Upper: "top"},
		},
		Top: "top",
		Bot: "bot",
	})
	if err != nil {
		t.Fatalf("FromDoc: %v", err)
	}
	return lat
}

func subVar(tid ir.Tid) tvar.DerivedTypeVar {
	return tvar.Var(tvar.FromTid(tid.String()))
}

func elemVar(name string) tvar.DerivedTypeVar {
	return tvar.Var(tvar.New(name))
}

func mustEdgeTo(t *testing.T, sk *Sketch, from graph.NodeIndex, l tvar.FieldLabel) graph.NodeIndex {
	t.Helper()
	_, dst, ok := sk.G.EdgeTo(from, l)
	if !ok {
		t.Fatalf("expected an outgoing %s edge", l)
	}
	return dst
}

// Two callers of the same identity-shaped callee (through an alias) must
// keep their own argument types: refining the shared callee never leaks
// one caller's bounds into the other's sketch.
func TestPolymorphismDoesNotUnifyCallers(t *testing.T) {
	lat := byteLattice(t)
	id := ir.NewTid(ir.KindSub, "id")
	alias := ir.NewTid(ir.KindSub, "alias")
	c1 := ir.NewTid(ir.KindSub, "c1")
	c2 := ir.NewTid(ir.KindSub, "c2")

	idCS := tvar.NewConstraintSet()
	idCS.Subtype(subVar(id).Extend(tvar.In(0)), subVar(id).Extend(tvar.Out(0)))

	aliasCS := tvar.NewConstraintSet()
	aliasCS.Subtype(subVar(alias).Extend(tvar.In(0)), subVar(id).WithCallSite("a0").Extend(tvar.In(0)))
	aliasCS.Subtype(subVar(id).WithCallSite("a0").Extend(tvar.Out(0)), subVar(alias).Extend(tvar.Out(0)))

	c1CS := tvar.NewConstraintSet()
	c1CS.Subtype(subVar(c1).Extend(tvar.In(0)), subVar(alias).WithCallSite("s1").Extend(tvar.In(0)))
	c1CS.Subtype(subVar(c1).Extend(tvar.In(0)).Extend(tvar.Load()), elemVar("char"))

	c2CS := tvar.NewConstraintSet()
	c2CS.Subtype(subVar(c2).Extend(tvar.In(0)), subVar(alias).WithCallSite("s2").Extend(tvar.In(0)))
	c2CS.Subtype(subVar(c2).Extend(tvar.In(0)), elemVar("int"))

	sccs := []ir.SCCConstraints{
		{SCC: []ir.Tid{id}, Constraints: idCS},
		{SCC: []ir.Tid{alias}, Constraints: aliasCS},
		{SCC: []ir.Tid{c1}, Constraints: c1CS},
		{SCC: []ir.Tid{c2}, Constraints: c2CS},
	}
	arg := ir.Arg{Kind: ir.ArgRegister, Var: ir.Variable{Name: "RDI", SizeBytes: 8}}
	subs := map[string]ir.Sub{
		id.String():    {Tid: id, FormalArgs: []ir.Arg{arg}},
		alias.String(): {Tid: alias, FormalArgs: []ir.Arg{arg}},
		c1.String():    {Tid: c1, FormalArgs: []ir.Arg{arg}},
		c2.String():    {Tid: c2, FormalArgs: []ir.Arg{arg}},
	}
	cg := ir.NewCallgraph()
	cg.AddEdge(alias, id)
	cg.AddEdge(c1, alias)
	cg.AddEdge(c2, alias)

	result := Build(lat, nil, sccs, subs, cg)
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}

	sk1 := result.Sketches[c1.String()]
	in1 := mustEdgeTo(t, sk1, sk1.RootIdx, tvar.In(0))
	if got := sk1.G.Weight(in1).Upper; got != "top" {
		t.Errorf("c1.in_0 upper = %q, want top", got)
	}
	loadDst := mustEdgeTo(t, sk1, in1, tvar.Load())
	if got := sk1.G.Weight(loadDst).Upper; got != "char" {
		t.Errorf("c1.in_0.load upper = %q, want char", got)
	}

	sk2 := result.Sketches[c2.String()]
	in2 := mustEdgeTo(t, sk2, sk2.RootIdx, tvar.In(0))
	if got := sk2.G.Weight(in2).Upper; got != "int" {
		t.Errorf("c2.in_0 upper = %q, want int", got)
	}
	if out := sk2.G.OutEdges(in2); len(out) != 0 {
		t.Errorf("c2.in_0 should have no outgoing edges, got %d", len(out))
	}
}

// A callee shared by two callers has its input formal refined to the
// union of both callers' views: the pointee's upper bound becomes the
// join of char and int, their common supertype bytetype.
func TestSharedCalleeInputRefinedToCallerJoin(t *testing.T) {
	lat := byteLattice(t)
	id := ir.NewTid(ir.KindSub, "id")
	c1 := ir.NewTid(ir.KindSub, "c1")
	c2 := ir.NewTid(ir.KindSub, "c2")

	idCS := tvar.NewConstraintSet()
	idCS.Subtype(subVar(id).Extend(tvar.In(0)), subVar(id).Extend(tvar.Out(0)))

	c1CS := tvar.NewConstraintSet()
	c1CS.Subtype(subVar(c1).Extend(tvar.In(0)), subVar(id).WithCallSite("s1").Extend(tvar.In(0)))
	c1CS.Subtype(subVar(c1).Extend(tvar.In(0)).Extend(tvar.Load()), elemVar("char"))

	c2CS := tvar.NewConstraintSet()
	c2CS.Subtype(subVar(c2).Extend(tvar.In(0)), subVar(id).WithCallSite("s2").Extend(tvar.In(0)))
	c2CS.Subtype(subVar(c2).Extend(tvar.In(0)).Extend(tvar.Load()), elemVar("int"))

	sccs := []ir.SCCConstraints{
		{SCC: []ir.Tid{id}, Constraints: idCS},
		{SCC: []ir.Tid{c1}, Constraints: c1CS},
		{SCC: []ir.Tid{c2}, Constraints: c2CS},
	}
	arg := ir.Arg{Kind: ir.ArgRegister, Var: ir.Variable{Name: "RDI", SizeBytes: 8}}
	subs := map[string]ir.Sub{
		id.String(): {Tid: id, FormalArgs: []ir.Arg{arg}},
		c1.String(): {Tid: c1, FormalArgs: []ir.Arg{arg}},
		c2.String(): {Tid: c2, FormalArgs: []ir.Arg{arg}},
	}
	cg := ir.NewCallgraph()
	cg.AddEdge(c1, id)
	cg.AddEdge(c2, id)

	result := Build(lat, nil, sccs, subs, cg)
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}

	sk := result.Sketches[id.String()]
	in0Idx, ok := sk.G.Lookup(subVar(id).Extend(tvar.In(0)).Key())
	if !ok {
		t.Fatalf("id.in_0 should survive refinement under its own key")
	}
	loadDst := mustEdgeTo(t, sk, in0Idx, tvar.Load())
	if got := sk.G.Weight(loadDst).Upper; got != "bytetype" {
		t.Errorf("id.in_0.load upper = %q, want bytetype", got)
	}
}

// One caller invoking the callee at two sites with different argument
// types keeps the sites apart: the two result fields carry char and int
// respectively, not a blend.
func TestCallsitePolymorphismKeepsFieldsDistinct(t *testing.T) {
	lat := byteLattice(t)
	id := ir.NewTid(ir.KindSub, "id")
	caller := ir.NewTid(ir.KindSub, "caller")

	idCS := tvar.NewConstraintSet()
	idCS.Subtype(subVar(id).Extend(tvar.In(0)), subVar(id).Extend(tvar.Out(0)))

	callerCS := tvar.NewConstraintSet()
	callerCS.Subtype(subVar(id).WithCallSite("s0").Extend(tvar.In(0)), elemVar("char"))
	callerCS.Subtype(
		subVar(id).WithCallSite("s0").Extend(tvar.Out(0)),
		subVar(caller).Extend(tvar.Out(0)).Extend(tvar.Field(0, 8)))
	callerCS.Subtype(subVar(id).WithCallSite("s1").Extend(tvar.In(0)), elemVar("int"))
	callerCS.Subtype(
		subVar(id).WithCallSite("s1").Extend(tvar.Out(0)),
		subVar(caller).Extend(tvar.Out(0)).Extend(tvar.Field(1, 32)))

	sccs := []ir.SCCConstraints{
		{SCC: []ir.Tid{id}, Constraints: idCS},
		{SCC: []ir.Tid{caller}, Constraints: callerCS},
	}
	arg := ir.Arg{Kind: ir.ArgRegister, Var: ir.Variable{Name: "RDI", SizeBytes: 8}}
	subs := map[string]ir.Sub{
		id.String():     {Tid: id, FormalArgs: []ir.Arg{arg}, FormalRets: []ir.Arg{arg}},
		caller.String(): {Tid: caller, FormalRets: []ir.Arg{arg}},
	}
	cg := ir.NewCallgraph()
	cg.AddEdge(caller, id)

	result := Build(lat, nil, sccs, subs, cg)
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}

	sk := result.Sketches[caller.String()]
	outIdx := mustEdgeTo(t, sk, sk.RootIdx, tvar.Out(0))
	f0 := mustEdgeTo(t, sk, outIdx, tvar.Field(0, 8))
	if got := sk.G.Weight(f0).Upper; got != "char" {
		t.Errorf("caller.out_0.Field(0,8) upper = %q, want char", got)
	}
	f1 := mustEdgeTo(t, sk, outIdx, tvar.Field(1, 32))
	if got := sk.G.Weight(f1).Upper; got != "int" {
		t.Errorf("caller.out_0.Field(1,32) upper = %q, want int", got)
	}
}

// Load and Store edges from one pointer node imply equivalent targets,
// so both edges survive but land on a single memory-cell node.
func TestLoadStoreEquivalenceSharesMemoryCell(t *testing.T) {
	lat := byteLattice(t)
	p := ir.NewTid(ir.KindSub, "p")

	cs := tvar.NewConstraintSet()
	cs.Subtype(subVar(p).Extend(tvar.In(0)).Extend(tvar.Load()), subVar(p).Extend(tvar.Out(0)))
	cs.Subtype(subVar(p).Extend(tvar.In(0)).Extend(tvar.Store()), subVar(p).Extend(tvar.Out(1)))

	sccs := []ir.SCCConstraints{{SCC: []ir.Tid{p}, Constraints: cs}}
	subs := map[string]ir.Sub{p.String(): {Tid: p}}
	cg := ir.NewCallgraph()
	cg.AddSub(p)

	result := Build(lat, nil, sccs, subs, cg)
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}

	sk := result.Sketches[p.String()]
	in0 := mustEdgeTo(t, sk, sk.RootIdx, tvar.In(0))
	loadDst := mustEdgeTo(t, sk, in0, tvar.Load())
	storeDst := mustEdgeTo(t, sk, in0, tvar.Store())
	if loadDst != storeDst {
		t.Errorf("load target %v and store target %v should be one memory-cell node", loadDst, storeDst)
	}
}
