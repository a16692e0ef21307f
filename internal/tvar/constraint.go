package tvar

import "sort"

// SubtypeConstraint is an ordered pair (Lhs, Rhs) of derived type
// variables meaning Lhs ⊑ Rhs.
type SubtypeConstraint struct {
	Lhs DerivedTypeVar
	Rhs DerivedTypeVar
}

func (c SubtypeConstraint) key() string { return c.Lhs.Key() + "<:" + c.Rhs.Key() }

func (c SubtypeConstraint) String() string { return c.Lhs.String() + " ⊑ " + c.Rhs.String() }

// ConstraintSet is a deduplicated set of SubtypeConstraints. The zero
// value is an empty set ready to use.
type ConstraintSet struct {
	byKey map[string]SubtypeConstraint
}

// NewConstraintSet returns an empty constraint set.
func NewConstraintSet() *ConstraintSet {
	return &ConstraintSet{byKey: make(map[string]SubtypeConstraint)}
}

// Add inserts a constraint, a no-op if an equal one is already present.
func (s *ConstraintSet) Add(c SubtypeConstraint) {
	if s.byKey == nil {
		s.byKey = make(map[string]SubtypeConstraint)
	}
	s.byKey[c.key()] = c
}

// Subtype is shorthand for Add(SubtypeConstraint{lhs, rhs}).
func (s *ConstraintSet) Subtype(lhs, rhs DerivedTypeVar) {
	s.Add(SubtypeConstraint{Lhs: lhs, Rhs: rhs})
}

// Union adds every constraint of other into s.
func (s *ConstraintSet) Union(other *ConstraintSet) {
	if other == nil {
		return
	}
	for _, c := range other.byKey {
		s.Add(c)
	}
}

// Len reports the number of distinct constraints.
func (s *ConstraintSet) Len() int { return len(s.byKey) }

// Slice returns the constraints in a deterministic order, sorted by
// their canonical string key.
func (s *ConstraintSet) Slice() []SubtypeConstraint {
	out := make([]SubtypeConstraint, 0, len(s.byKey))
	keys := make([]string, 0, len(s.byKey))
	for k := range s.byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = append(out, s.byKey[k])
	}
	return out
}
