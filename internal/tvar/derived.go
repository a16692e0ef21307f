package tvar

import "strings"

// DerivedTypeVar is a base TypeVariable plus an ordered sequence of field
// labels: a projection into a structured type, e.g. base.Load.Field(0,8).
// Equality and hashing are structural (Go struct/slice comparison by
// value via Key, since []FieldLabel is not itself comparable).
type DerivedTypeVar struct {
	Base   TypeVariable
	Labels []FieldLabel
}

// Var builds a bare derived type variable (no field labels) from a base.
func Var(base TypeVariable) DerivedTypeVar {
	return DerivedTypeVar{Base: base}
}

// Extend returns a new derived type variable with one more label appended.
// DerivedTypeVars are immutable once created: Extend never mutates the
// receiver's Labels slice.
func (d DerivedTypeVar) Extend(l FieldLabel) DerivedTypeVar {
	labels := make([]FieldLabel, len(d.Labels)+1)
	copy(labels, d.Labels)
	labels[len(d.Labels)] = l
	return DerivedTypeVar{Base: d.Base, Labels: labels}
}

// ExtendPath appends a whole path of labels at once.
func (d DerivedTypeVar) ExtendPath(path []FieldLabel) DerivedTypeVar {
	out := d
	for _, l := range path {
		out = out.Extend(l)
	}
	return out
}

// IsBare reports whether d carries no field labels.
func (d DerivedTypeVar) IsBare() bool { return len(d.Labels) == 0 }

// ToCallee strips the base variable's call-site tag, keeping the label
// path unchanged.
func (d DerivedTypeVar) ToCallee() DerivedTypeVar {
	return DerivedTypeVar{Base: d.Base.ToCallee(), Labels: d.Labels}
}

// WithCallSite returns a copy of d whose base carries the given tag.
func (d DerivedTypeVar) WithCallSite(tag string) DerivedTypeVar {
	return DerivedTypeVar{Base: d.Base.WithCallSite(tag), Labels: d.Labels}
}

// Variance is the composed variance of the full label path: the group
// product of each label's own variance, left to right.
func (d DerivedTypeVar) Variance() Variance {
	v := Covariant
	for _, l := range d.Labels {
		v = v.Compose(l.Variance())
	}
	return v
}

// Key returns a canonical comparable string uniquely identifying this
// derived type variable; suitable as a map key everywhere structural
// equality is needed.
func (d DerivedTypeVar) Key() string {
	var b strings.Builder
	b.WriteString(d.Base.String())
	for _, l := range d.Labels {
		b.WriteByte('.')
		b.WriteString(l.String())
	}
	return b.String()
}

func (d DerivedTypeVar) String() string { return d.Key() }

// Prefix returns the derived type variable obtained by keeping only the
// first n labels of d's path (n may be 0..len(d.Labels)).
func (d DerivedTypeVar) Prefix(n int) DerivedTypeVar {
	if n > len(d.Labels) {
		n = len(d.Labels)
	}
	labels := make([]FieldLabel, n)
	copy(labels, d.Labels[:n])
	return DerivedTypeVar{Base: d.Base, Labels: labels}
}
