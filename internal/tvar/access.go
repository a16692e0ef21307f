package tvar

import "fmt"

// TypeVariableAccess is the output of a points-to query: an abstract
// memory cell, identified by the type variable that represents it, an
// access size in bytes, and an optional constant offset into the cell.
type TypeVariableAccess struct {
	Var        TypeVariable
	AccessSize int64 // bytes
	HasOffset  bool
	Offset     int64 // bytes, meaningful only when HasOffset
}

func (a TypeVariableAccess) String() string {
	if a.HasOffset {
		return fmt.Sprintf("%s[+%d](%db)", a.Var, a.Offset, a.AccessSize)
	}
	return fmt.Sprintf("%s(%db)", a.Var, a.AccessSize)
}

// FieldPath returns the label path that an access through this
// TypeVariableAccess contributes past a Load/Store label: a
// Field(offset, size_bits) label when an offset is present, or no extra
// label when the access covers the whole cell.
func (a TypeVariableAccess) FieldPath() []FieldLabel {
	if !a.HasOffset {
		return nil
	}
	return []FieldLabel{Field(a.Offset, a.AccessSize*8)}
}

// ArgTvarKind distinguishes the two ways a call argument can be resolved
// to type variables at the call boundary.
type ArgTvarKind int

const (
	ArgKindVariable ArgTvarKind = iota
	ArgKindMem
)

// ArgTvar is a tagged union: either a directly-named register/value
// variable, or a memory access resolved via points-to.
type ArgTvar struct {
	Kind     ArgTvarKind
	Variable TypeVariable       // meaningful when Kind == ArgKindVariable
	Mem      TypeVariableAccess // meaningful when Kind == ArgKindMem
}

// VariableTvar builds an ArgTvar directly naming a variable.
func VariableTvar(v TypeVariable) ArgTvar {
	return ArgTvar{Kind: ArgKindVariable, Variable: v}
}

// MemTvar builds an ArgTvar naming a memory cell reached via points-to.
func MemTvar(a TypeVariableAccess) ArgTvar {
	return ArgTvar{Kind: ArgKindMem, Mem: a}
}

// DerivedTypeVar returns the (bare, for ArgKindVariable; Load[.Field]-
// projected, for ArgKindMem) derived type variable this ArgTvar denotes.
func (a ArgTvar) DerivedTypeVar() DerivedTypeVar {
	switch a.Kind {
	case ArgKindVariable:
		return Var(a.Variable)
	case ArgKindMem:
		dtv := Var(a.Mem.Var).Extend(Load())
		return dtv.ExtendPath(a.Mem.FieldPath())
	default:
		return DerivedTypeVar{}
	}
}

func (a ArgTvar) String() string {
	switch a.Kind {
	case ArgKindVariable:
		return a.Variable.String()
	case ArgKindMem:
		return a.Mem.String()
	default:
		return "?"
	}
}
