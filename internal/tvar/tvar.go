// Package tvar implements the type-variable algebra: symbolic type
// variables, derived type variables (a base plus a path of field labels),
// and the variable manager that mints fresh names for a single pipeline
// run.
package tvar

import "fmt"

// TypeVariable is a named symbolic type. It may additionally carry a
// call-site tag identifying a particular callsite instantiation of a
// polymorphic callee, e.g. "sub_042:0".
type TypeVariable struct {
	Name  string
	CSTag string // "" when untagged
}

// New builds an untagged type variable from a raw name.
func New(name string) TypeVariable {
	return TypeVariable{Name: name}
}

// WithCallSite returns a copy of v tagged with the given callsite.
func (v TypeVariable) WithCallSite(tag string) TypeVariable {
	return TypeVariable{Name: v.Name, CSTag: tag}
}

// ToCallee strips any call-site tag, returning the untagged variable that
// the callee itself would use to refer to the same symbol.
func (v TypeVariable) ToCallee() TypeVariable {
	if v.CSTag == "" {
		return v
	}
	return TypeVariable{Name: v.Name}
}

// Tagged reports whether v carries a call-site tag.
func (v TypeVariable) Tagged() bool { return v.CSTag != "" }

func (v TypeVariable) String() string {
	if v.CSTag == "" {
		return v.Name
	}
	return fmt.Sprintf("%s@%s", v.Name, v.CSTag)
}

// FromTid builds the type variable naming a whole IR term (e.g. a
// function/sub), using its canonical string form directly.
func FromTid(tidString string) TypeVariable {
	return New(tidString)
}

// TidIndexedByVariable builds the type variable representing a register
// `variable` at the program point identified by tid: "<tid>_<var>".
func TidIndexedByVariable(tidString, variable string) TypeVariable {
	return New(tidString + "_" + variable)
}

// ArgTvarName builds the type variable naming the i-th per-callsite actual
// argument slot of callee: "arg_<callee-tid>_<index>".
func ArgTvarName(calleeTid string, index int) TypeVariable {
	return New(fmt.Sprintf("arg_%s_%d", calleeTid, index))
}

// Manager mints fresh TypeVariables with a monotonically increasing
// counter. A Manager is single-owner within one pipeline run: it must not
// be shared across concurrent constraint-generation or sketch-building
// invocations.
type Manager struct {
	counter int
}

// NewManager returns a Manager whose counter starts at zero.
func NewManager() *Manager {
	return &Manager{}
}

// Fresh mints a new, run-unique type variable. Names produced this way
// never collide with FromTid/TidIndexedByVariable/ArgTvarName output:
// Tid strings always start with "@" and argument slots with "arg_",
// while fresh names are a bare "t" followed by the counter value.
func (m *Manager) Fresh() TypeVariable {
	m.counter++
	return New(fmt.Sprintf("t%d", m.counter))
}

// Count reports how many variables have been minted so far.
func (m *Manager) Count() int { return m.counter }
