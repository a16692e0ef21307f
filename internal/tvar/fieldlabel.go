package tvar

import "fmt"

// Variance is whether a field label preserves (covariant) or inverts
// (contravariant) subtyping direction. Composition is a two-element group:
// co*co=co, co*contra=contra, contra*contra=co — implemented as XOR.
type Variance bool

const (
	Covariant     Variance = false
	Contravariant Variance = true
)

// Compose implements the group multiplication described above.
func (v Variance) Compose(other Variance) Variance {
	return v != other
}

func (v Variance) String() string {
	if v == Contravariant {
		return "contra"
	}
	return "co"
}

// LabelKind identifies which of the five FieldLabel variants a label is.
type LabelKind int

const (
	KindIn LabelKind = iota
	KindOut
	KindLoad
	KindStore
	KindField
)

// FieldLabel is an edge label in a sketch: one of In(i), Out(i), Load,
// Store, or Field(offset, size_bits). It is a closed tagged union; zero
// value is the invalid label (use the constructors below).
type FieldLabel struct {
	Kind   LabelKind
	Index  int   // meaningful for In/Out
	Offset int64 // meaningful for Field
	Size   int64 // bits; meaningful for Field
}

// In constructs the i-th contravariant formal-parameter label.
func In(i int) FieldLabel { return FieldLabel{Kind: KindIn, Index: i} }

// Out constructs the i-th covariant formal-return label.
func Out(i int) FieldLabel { return FieldLabel{Kind: KindOut, Index: i} }

// Load constructs the covariant memory-load label.
func Load() FieldLabel { return FieldLabel{Kind: KindLoad} }

// Store constructs the covariant memory-store label.
func Store() FieldLabel { return FieldLabel{Kind: KindStore} }

// Field constructs a covariant structure-field label at a byte offset with
// a size in bits.
func Field(offset, sizeBits int64) FieldLabel {
	return FieldLabel{Kind: KindField, Offset: offset, Size: sizeBits}
}

// Variance reports this label's variance: In is contravariant; Out,
// Load, Store, Field are covariant.
func (l FieldLabel) Variance() Variance {
	if l.Kind == KindIn {
		return Contravariant
	}
	return Covariant
}

func (l FieldLabel) String() string {
	switch l.Kind {
	case KindIn:
		return fmt.Sprintf("in_%d", l.Index)
	case KindOut:
		return fmt.Sprintf("out_%d", l.Index)
	case KindLoad:
		return "load"
	case KindStore:
		return "store"
	case KindField:
		return fmt.Sprintf(".%d@%d", l.Size, l.Offset)
	default:
		return "?"
	}
}

// EquivalentForImplication reports whether two labels are treated as equal
// for the purposes of edge-implication closure in the quotient engine:
// either they are exactly the same label, or they are the Load/Store
// pair, which collapses for equivalence purposes while remaining
// distinct edge labels.
func EquivalentForImplication(a, b FieldLabel) bool {
	if a == b {
		return true
	}
	isLoadStore := func(l FieldLabel) bool { return l.Kind == KindLoad || l.Kind == KindStore }
	return isLoadStore(a) && isLoadStore(b)
}
