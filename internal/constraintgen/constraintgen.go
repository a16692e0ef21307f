// Package constraintgen walks a function's IR producing subtype
// constraints between derived type variables. It is parametric over three
// collaborator contracts — register mapping, points-to, subprocedure
// locators — supplied by the caller, so the generator itself carries no
// knowledge of how reaching definitions or aliasing were computed.
package constraintgen

import (
	"github.com/typesketch/tysketch/internal/diagnostics"
	"github.com/typesketch/tysketch/internal/ir"
	"github.com/typesketch/tysketch/internal/tvar"
)

// Generator holds the three collaborators and the run's shared variable
// manager. A Generator is single-owner within one pipeline run.
type Generator struct {
	Reg ir.RegisterMapping
	Pts ir.PointsToMapping
	Sub ir.SubprocedureLocators
	VM  *tvar.Manager
}

// New builds a Generator over the given collaborators and variable
// manager.
func New(reg ir.RegisterMapping, pts ir.PointsToMapping, sub ir.SubprocedureLocators, vm *tvar.Manager) *Generator {
	return &Generator{Reg: reg, Pts: pts, Sub: sub, VM: vm}
}

func memDerivedTypeVar(access tvar.TypeVariableAccess, label tvar.FieldLabel) tvar.DerivedTypeVar {
	return tvar.Var(access.Var).Extend(label).ExtendPath(access.FieldPath())
}

// evaluateExpression is the "evaluate e" half of Assign/Store: a direct
// register read delegates to RegisterMapping.Access; anything else yields
// a fresh variable plus an UnhandledExpression warning. The fresh
// variable keeps downstream constraints sound; an unhandled expression
// contributes nothing further.
func (g *Generator) evaluateExpression(tid ir.Tid, e ir.Expression) (tvar.TypeVariable, *tvar.ConstraintSet, *diagnostics.SketchError) {
	if e.Kind == ir.ExprVar {
		v, cs := g.Reg.Access(tid, e.Var, g.VM)
		if cs == nil {
			cs = tvar.NewConstraintSet()
		}
		return v, cs, nil
	}
	warn := diagnostics.New(diagnostics.PhaseConstraintGen, diagnostics.ErrUnhandledExpression, tid, tid.String(), e.String())
	return g.VM.Fresh(), tvar.NewConstraintSet(), warn
}

// Assign handles v := e, emitting T_e ⊑ T_{tid,v}.
func (g *Generator) Assign(d ir.Def) (*tvar.ConstraintSet, *diagnostics.SketchError) {
	rhs, cs, warn := g.evaluateExpression(d.Tid, d.Value)
	lhs := tvar.Var(tvar.TidIndexedByVariable(d.Tid.String(), d.Var.Name))
	cs.Subtype(tvar.Var(rhs), lhs)
	return cs, warn
}

// Load handles v := *a: memory is a subtype of the loaded register (a
// load is covariant at the sink).
func (g *Generator) Load(d ir.Def) *tvar.ConstraintSet {
	cs := tvar.NewConstraintSet()
	lhs := tvar.Var(tvar.TidIndexedByVariable(d.Tid.String(), d.Var.Name))
	for _, a := range g.Pts.PointsTo(d.Tid, d.Address, d.Var.SizeBytes, g.VM) {
		cs.Subtype(memDerivedTypeVar(a, tvar.Load()), lhs)
	}
	return cs
}

func exprSizeBytes(e ir.Expression) int64 {
	if e.Kind == ir.ExprVar {
		return e.Var.SizeBytes
	}
	return 0
}

// Store handles *a := e, emitting T_e ⊑ tv.Store[.Field] for each
// points-to target.
func (g *Generator) Store(d ir.Def) (*tvar.ConstraintSet, *diagnostics.SketchError) {
	rhs, cs, warn := g.evaluateExpression(d.Tid, d.Value)
	for _, a := range g.Pts.PointsTo(d.Tid, d.Address, exprSizeBytes(d.Value), g.VM) {
		cs.Subtype(tvar.Var(rhs), memDerivedTypeVar(a, tvar.Store()))
	}
	return cs, warn
}

func (g *Generator) handleDef(d ir.Def) (*tvar.ConstraintSet, *diagnostics.SketchError) {
	switch d.Kind {
	case ir.DefAssign:
		return g.Assign(d)
	case ir.DefLoad:
		return g.Load(d), nil
	case ir.DefStore:
		return g.Store(d)
	default:
		return tvar.NewConstraintSet(), nil
	}
}

// BlkStart processes all definitions of blk in program order, unioning
// their constraint sets.
func (g *Generator) BlkStart(blk ir.Blk) (*tvar.ConstraintSet, []*diagnostics.SketchError) {
	cs := tvar.NewConstraintSet()
	var warnings []*diagnostics.SketchError
	for _, d := range blk.Defs {
		dcs, warn := g.handleDef(d)
		cs.Union(dcs)
		if warn != nil {
			warnings = append(warnings, warn)
		}
	}
	return cs, warnings
}

// BlkEnd contributes no constraints.
func (g *Generator) BlkEnd(ir.Blk) *tvar.ConstraintSet { return tvar.NewConstraintSet() }

// CallSource handles the call at the jmp identified by callTid, calling
// into calleeSub: each actual argument is a subtype of the callee's
// In(i) formal, and the formal in turn flows into the per-sub actual
// slot arg_<sub>_<i>. The formal is the polymorphic holder; callee
// refinement happens separately in the sketch builder.
func (g *Generator) CallSource(callTid ir.Tid, calleeSub ir.Sub) *tvar.ConstraintSet {
	cs := tvar.NewConstraintSet()
	calleeTV := tvar.FromTid(calleeSub.Tid.String()).WithCallSite(callTid.String())
	for i, arg := range calleeSub.FormalArgs {
		formal := tvar.Var(calleeTV).Extend(tvar.In(i))
		actuals, extra := g.Sub.ArgTvars(callTid, arg, g.Reg, g.Pts, g.VM)
		cs.Union(extra)
		for _, actual := range actuals {
			cs.Subtype(actual.DerivedTypeVar(), formal)
		}
		cs.Subtype(formal, tvar.Var(tvar.ArgTvarName(calleeSub.Tid.String(), i)))
	}
	return cs
}

// CallReturn handles control resuming after a call: for each formal
// return index, treats the register at the call site as the actual and
// links it to the callee's Out(i) formal. callTid identifies
// the CallReturn node (used to name T_{call-tid,reg}); returnFromSub is
// the callee resolved by searching the calling block for the matching
// Call jump.
func (g *Generator) CallReturn(callTid ir.Tid, returnFromSub ir.Sub) (*tvar.ConstraintSet, *diagnostics.SketchError) {
	cs := tvar.NewConstraintSet()
	subTV := tvar.FromTid(returnFromSub.Tid.String()).WithCallSite(callTid.String())
	for i, r := range returnFromSub.FormalRets {
		if r.Kind == ir.ArgStack {
			return nil, diagnostics.New(diagnostics.PhaseConstraintGen, diagnostics.ErrUnsupportedStackRet, returnFromSub.Tid, i, returnFromSub.Tid.String())
		}
		actual := tvar.Var(tvar.TidIndexedByVariable(callTid.String(), r.Var.Name))
		formal := tvar.Var(subTV).Extend(tvar.Out(i))
		cs.Subtype(actual, formal)
	}
	return cs, nil
}
