package constraintgen

import (
	"github.com/typesketch/tysketch/internal/diagnostics"
	"github.com/typesketch/tysketch/internal/ir"
	"github.com/typesketch/tysketch/internal/tvar"
)

// HandleFunction walks fn's blocks in order (BlkStart/BlkEnd), dispatching
// CallSource at every Call jump and CallReturn at every CallReturn jump,
// and returns the accumulated constraint set for fn. subs is the whole
// fixture's sub table (not just fn's own SCC), since a call's formal
// argument/return count must be known from the callee's declared
// signature wherever it lives. A MalformedCfg or UnsupportedStackReturn
// error aborts fn's own build (the caller is expected to skip just this
// function and continue with the rest of the fixture).
func (g *Generator) HandleFunction(fn ir.Function, subs map[string]ir.Sub) (*tvar.ConstraintSet, []*diagnostics.SketchError, *diagnostics.SketchError) {
	cs := tvar.NewConstraintSet()
	var warnings []*diagnostics.SketchError

	for _, blk := range fn.Blocks {
		bcs, bwarn := g.BlkStart(blk)
		cs.Union(bcs)
		warnings = append(warnings, bwarn...)

		for _, j := range blk.Jumps {
			switch j.Kind {
			case ir.JmpCall:
				calleeSub, ok := subs[j.CallTarget.String()]
				if !ok {
					continue // external callee; linked later by the sketch builder
				}
				cs.Union(g.CallSource(j.Tid, calleeSub))

			case ir.JmpCallReturn:
				callJmp, found := fn.FindCallJmp(j.ReturnFromCallTid)
				if !found {
					return nil, warnings, diagnostics.New(diagnostics.PhaseConstraintGen, diagnostics.ErrMalformedCfg, blk.Tid, blk.Tid.String())
				}
				calleeSub, ok := subs[callJmp.CallTarget.String()]
				if !ok {
					continue
				}
				rcs, rerr := g.CallReturn(j.Tid, calleeSub)
				if rerr != nil {
					return nil, warnings, rerr
				}
				cs.Union(rcs)
			}
		}
	}
	return cs, warnings, nil
}

// Output is the result of GenerateAll: the per-SCC constraint sets ready
// for the sketch builder, plus every non-fatal warning collected along
// the way.
type Output struct {
	SCCs     []ir.SCCConstraints
	Warnings []*diagnostics.SketchError
}

// GenerateAll runs constraint generation over every function in fixture,
// using a single shared VariableManager, and groups the per-function
// results by the callgraph's strongly connected components, so mutually
// recursive functions share one constraint set. A function whose own
// build fails fatally (malformed CFG, unsupported stack return) is
// skipped; its error is folded into Output.Warnings and every other
// function still proceeds.
func GenerateAll(fixture *ir.Fixture, vm *tvar.Manager) *Output {
	g := New(fixture.RegisterMapping, fixture.PointsTo, fixture.Subprocedure, vm)

	subs := make(map[string]ir.Sub, len(fixture.Functions))
	for _, fn := range fixture.Functions {
		subs[fn.Sub.Tid.String()] = fn.Sub
	}

	perSub := make(map[string]*tvar.ConstraintSet, len(fixture.Functions))
	var warnings []*diagnostics.SketchError

	for _, fn := range fixture.Functions {
		cs, warns, ferr := g.HandleFunction(fn, subs)
		warnings = append(warnings, warns...)
		if ferr != nil {
			warnings = append(warnings, ferr)
			continue
		}
		perSub[fn.Sub.Tid.String()] = cs
	}

	var out []ir.SCCConstraints
	for _, scc := range fixture.Callgraph.SCCs() {
		merged := tvar.NewConstraintSet()
		var members []ir.Tid
		for _, t := range scc {
			cs, ok := perSub[t.String()]
			if !ok {
				continue
			}
			merged.Union(cs)
			members = append(members, t)
		}
		if len(members) == 0 {
			continue
		}
		out = append(out, ir.SCCConstraints{SCC: members, Constraints: merged})
	}

	return &Output{SCCs: out, Warnings: warnings}
}
