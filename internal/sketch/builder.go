package sketch

import (
	"sort"

	"github.com/typesketch/tysketch/internal/diagnostics"
	"github.com/typesketch/tysketch/internal/ir"
	"github.com/typesketch/tysketch/internal/lattice"
	"github.com/typesketch/tysketch/internal/quotient"
	"github.com/typesketch/tysketch/internal/tvar"
)

// Builder runs the two-pass sketch construction over a sequence of
// per-SCC constraint sets and a callgraph giving caller/callee
// relationships between them.
type Builder struct {
	Lattice   lattice.Lattice[string]
	Elems     map[string]bool // declared atomic lattice element names
	Subs      map[string]ir.Sub
	Callgraph *ir.Callgraph

	sketches map[string]*Sketch // by sub Tid string, shared across an SCC's members
}

// NewBuilder constructs a Builder over subs (every sub's declared formal
// signature, keyed by Tid string) and the callgraph relating them.
// elemNames declares which type-variable names are atomic lattice
// constants; a declared name the lattice cannot resolve is a fatal
// MissingLatticeElement for any SCC whose constraints mention it.
func NewBuilder(lat lattice.Lattice[string], elemNames []string, subs map[string]ir.Sub, cg *ir.Callgraph) *Builder {
	elems := make(map[string]bool, len(elemNames))
	for _, n := range elemNames {
		elems[n] = true
	}
	return &Builder{Lattice: lat, Elems: elems, Subs: subs, Callgraph: cg, sketches: make(map[string]*Sketch)}
}

// Sketches returns every sketch built so far, keyed by sub Tid string;
// the members of one SCC share a sketch.
func (b *Builder) Sketches() map[string]*Sketch { return b.sketches }

func dtvKeys(cs *tvar.ConstraintSet) []tvar.DerivedTypeVar {
	seen := make(map[string]bool)
	var out []tvar.DerivedTypeVar
	for _, c := range cs.Slice() {
		for _, d := range [2]tvar.DerivedTypeVar{c.Lhs, c.Rhs} {
			if !seen[d.Key()] {
				seen[d.Key()] = true
				out = append(out, d)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

// buildSCC implements Pass A for one strongly connected component.
func (b *Builder) buildSCC(scc ir.SCCConstraints) *diagnostics.SketchError {
	g := New(b.Lattice)
	vars := make(map[string]tvar.DerivedTypeVar)

	sccNames := make(map[string]bool, len(scc.SCC))
	for _, t := range scc.SCC {
		sccNames[t.String()] = true
	}

	for _, dtv := range dtvKeys(scc.Constraints) {
		bareBase := dtv.Base.ToCallee()
		_, isElem := b.Lattice.GetElem(bareBase.Name)
		if b.Elems[bareBase.Name] && !isElem {
			return diagnostics.New(diagnostics.PhaseSketchBuild, diagnostics.ErrMissingLatticeElement, scc.SCC[0], bareBase.Name)
		}
		_, isSub := b.Subs[bareBase.Name]
		// Only a declared sub outside this SCC is an external reference.
		// Register variables, per-callsite argument slots, and fresh
		// variables all live in the SCC's own graph.
		if isElem || sccNames[bareBase.Name] || !isSub {
			insertDTV(g, vars, b.Lattice, dtv)
			continue
		}

		callee, ok := b.sketches[bareBase.Name]
		if !ok {
			loc := scc.SCC[0]
			return diagnostics.New(diagnostics.PhaseSketchBuild, diagnostics.ErrExternalTypeNotBuilt, loc, bareBase.Name)
		}
		copyCalleeInto(g, vars, callee, dtv.Base.CSTag)
	}

	groups := quotient.Compute(g, scc.Constraints)
	q := g.Quotient(groups)

	for _, c := range scc.Constraints.Slice() {
		if c.Lhs.IsBare() {
			if _, isElem := b.Lattice.GetElem(c.Lhs.Base.Name); isElem {
				if idx, ok := q.Lookup(c.Rhs.Key()); ok {
					q.SetWeight(idx, lattice.RefineLower(b.Lattice, q.Weight(idx), c.Lhs.Base.Name))
				}
			}
		}
		if c.Rhs.IsBare() {
			if _, isElem := b.Lattice.GetElem(c.Rhs.Base.Name); isElem {
				if idx, ok := q.Lookup(c.Lhs.Key()); ok {
					q.SetWeight(idx, lattice.RefineUpper(b.Lattice, q.Weight(idx), c.Rhs.Base.Name))
				}
			}
		}
	}

	for _, t := range scc.SCC {
		root := tvar.Var(tvar.FromTid(t.String()))
		rootIdx, ok := q.Lookup(root.Key())
		if !ok {
			rootIdx = q.AddNode(root.Key(), lattice.Identity(b.Lattice))
			vars[root.Key()] = root
		}
		b.sketches[t.String()] = &Sketch{Root: root, RootIdx: rootIdx, G: q, Vars: vars}
	}
	return nil
}

// PassA builds a sketch for every SCC in sccs, which must already be in
// reverse-topological order (callees before callers), per
// ir.Callgraph.SCCs(). An SCC whose build fails fatally is skipped; its
// callers will in turn fail with ErrExternalTypeNotBuilt when they reach
// it, and both errors are returned.
func (b *Builder) PassA(sccs []ir.SCCConstraints) []*diagnostics.SketchError {
	var errs []*diagnostics.SketchError
	for _, scc := range sccs {
		if err := b.buildSCC(scc); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// PassB implements the polymorphic-refinement pass: for every built sub's
// formal In(i)/Out(i), gathers the per-callsite representations left
// behind in every calling sub's (already Pass-A-built) sketch, merges
// them (union across call-site instantiations for inputs, intersection
// for outputs), and replaces the formal's own subgraph with the merged
// result.
func (b *Builder) PassB() {
	// Walk the condensed callgraph forward-topologically (callers before
	// callees), so a callee's formals always merge its callers'
	// already-refined views.
	sccs := b.Callgraph.SCCs()
	for i := len(sccs) - 1; i >= 0; i-- {
		for _, tid := range sccs[i] {
			name := tid.String()
			sk, ok := b.sketches[name]
			if !ok {
				continue
			}
			sub, ok := b.Subs[name]
			if !ok {
				continue
			}
			callers := b.Callgraph.Callers(sub.Tid)
			if len(callers) == 0 {
				continue
			}

			for j := range sub.FormalArgs {
				b.refineFormal(sk, tvar.Var(sk.Root.Base).Extend(tvar.In(j)), callers, true)
			}
			for j := range sub.FormalRets {
				b.refineFormal(sk, tvar.Var(sk.Root.Base).Extend(tvar.Out(j)), callers, false)
			}
		}
	}
}

func (b *Builder) refineFormal(sk *Sketch, formal tvar.DerivedTypeVar, callers []ir.Tid, union bool) {
	var reps []*Sketch
	for _, caller := range callers {
		callerSk, ok := b.sketches[caller.String()]
		if !ok {
			continue
		}
		reps = append(reps, representingSketches(callerSk, formal)...)
	}
	if len(reps) == 0 {
		return
	}

	// reps[0]'s graph aliases its owning sub's whole shared sketch graph;
	// clone just its reachable subtree so ReplaceNode below only ever
	// copies the formal's own subgraph, not the caller's entire sketch.
	g0, r0 := reps[0].G.GetReachableSubgraph(reps[0].RootIdx)
	merged := &Sketch{G: g0, RootIdx: r0}
	for _, r := range reps[1:] {
		if union {
			merged = merged.Union(b.Lattice, r)
		} else {
			merged = merged.Intersect(b.Lattice, r)
		}
	}

	sk.G.ReplaceNode(formal.Key(), merged.G, merged.RootIdx)
}
