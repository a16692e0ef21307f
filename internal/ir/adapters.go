package ir

import "github.com/typesketch/tysketch/internal/tvar"

// RegisterMapping is the reaching-definitions collaborator: returns the
// type variable representing the value currently in var at the
// program point tid, plus any auxiliary constraints needed to join
// multiple reaching definitions.
type RegisterMapping interface {
	Access(tid Tid, v Variable, vm *tvar.Manager) (tvar.TypeVariable, *tvar.ConstraintSet)
}

// PointsToMapping is the aliasing collaborator: returns every abstract
// memory cell an address expression may refer to at tid,
// with optional constant offsets. An empty result is valid.
type PointsToMapping interface {
	PointsTo(tid Tid, address Expression, size int64, vm *tvar.Manager) []tvar.TypeVariableAccess
}

// SubprocedureLocators is the calling-convention collaborator: resolves
// an argument specification into the type variables that represent it at
// the call boundary.
type SubprocedureLocators interface {
	ArgTvars(tid Tid, arg Arg, reg RegisterMapping, pts PointsToMapping, vm *tvar.Manager) ([]tvar.ArgTvar, *tvar.ConstraintSet)
}

// DefaultRegisterMapping is the reference RegisterMapping adapter: a
// per-Tid map from register name to its ordered list of reaching
// TypeVariables. A single reaching definition is returned directly; more
// than one is joined through a fresh representative with a per-definition
// ⊑ constraint. No reaching definition yields a fresh variable with an
// empty constraint set.
type DefaultRegisterMapping struct {
	Reaching map[string]map[string][]tvar.TypeVariable
}

// NewDefaultRegisterMapping returns an adapter with no registered
// reaching definitions; Set populates it.
func NewDefaultRegisterMapping() *DefaultRegisterMapping {
	return &DefaultRegisterMapping{Reaching: make(map[string]map[string][]tvar.TypeVariable)}
}

// Set records that var reaches tid via the given ordered set of
// definitions' type variables.
func (m *DefaultRegisterMapping) Set(tid Tid, varName string, defs ...tvar.TypeVariable) {
	key := tid.String()
	if m.Reaching[key] == nil {
		m.Reaching[key] = make(map[string][]tvar.TypeVariable)
	}
	m.Reaching[key][varName] = defs
}

func (m *DefaultRegisterMapping) Access(tid Tid, v Variable, vm *tvar.Manager) (tvar.TypeVariable, *tvar.ConstraintSet) {
	cs := tvar.NewConstraintSet()
	defs := m.Reaching[tid.String()][v.Name]
	switch len(defs) {
	case 0:
		return vm.Fresh(), cs
	case 1:
		return defs[0], cs
	default:
		rep := vm.Fresh()
		for _, d := range defs {
			cs.Subtype(tvar.Var(d), tvar.Var(rep))
		}
		return rep, cs
	}
}

// DefaultPointsToMapping is the reference PointsToMapping adapter: a
// static table keyed by (Tid, address-expression text), supplied by a
// fixture.
type DefaultPointsToMapping struct {
	Table map[string]map[string][]tvar.TypeVariableAccess
}

// NewDefaultPointsToMapping returns an adapter with an empty table.
func NewDefaultPointsToMapping() *DefaultPointsToMapping {
	return &DefaultPointsToMapping{Table: make(map[string]map[string][]tvar.TypeVariableAccess)}
}

// Set records the points-to set for address expression addrText at tid.
func (m *DefaultPointsToMapping) Set(tid Tid, addrText string, accesses ...tvar.TypeVariableAccess) {
	key := tid.String()
	if m.Table[key] == nil {
		m.Table[key] = make(map[string][]tvar.TypeVariableAccess)
	}
	m.Table[key][addrText] = accesses
}

func (m *DefaultPointsToMapping) PointsTo(tid Tid, address Expression, size int64, vm *tvar.Manager) []tvar.TypeVariableAccess {
	return m.Table[tid.String()][address.String()]
}

// DefaultSubprocedureLocators is the reference SubprocedureLocators
// adapter: resolves a register-passed arg through the supplied
// RegisterMapping, and a
// stack-passed arg through the supplied PointsToMapping at the arg's own
// stack address expression.
type DefaultSubprocedureLocators struct{}

func (DefaultSubprocedureLocators) ArgTvars(tid Tid, arg Arg, reg RegisterMapping, pts PointsToMapping, vm *tvar.Manager) ([]tvar.ArgTvar, *tvar.ConstraintSet) {
	cs := tvar.NewConstraintSet()
	switch arg.Kind {
	case ArgRegister:
		v, extra := reg.Access(tid, arg.Var, vm)
		cs.Union(extra)
		return []tvar.ArgTvar{tvar.VariableTvar(v)}, cs
	case ArgStack:
		accesses := pts.PointsTo(tid, arg.StackAddress, arg.StackSize, vm)
		out := make([]tvar.ArgTvar, 0, len(accesses))
		for _, a := range accesses {
			out = append(out, tvar.MemTvar(a))
		}
		return out, cs
	default:
		return nil, cs
	}
}
