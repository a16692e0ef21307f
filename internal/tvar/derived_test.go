package tvar

import (
	"reflect"
	"testing"
)

func TestDerivedTypeVarExtendDoesNotMutate(t *testing.T) {
	base := Var(New("sub_042_RAX"))
	extended := base.Extend(In(0))

	if !base.IsBare() {
		t.Fatalf("Extend mutated the receiver's label path")
	}
	if extended.IsBare() {
		t.Fatalf("extended variable should carry one label")
	}
	if got, want := extended.Key(), "sub_042_RAX.in_0"; got != want {
		t.Errorf("Key() = %q, want %q", got, want)
	}
}

func TestDerivedTypeVarExtendPath(t *testing.T) {
	base := Var(New("t1"))
	path := []FieldLabel{Load(), Field(0, 64)}
	d := base.ExtendPath(path)

	if got, want := d.Key(), "t1.load..64@0"; got != want {
		t.Errorf("Key() = %q, want %q", got, want)
	}
	if !reflect.DeepEqual(d.Labels, path) {
		t.Errorf("Labels = %+v, want %+v", d.Labels, path)
	}
}

func TestDerivedTypeVarVarianceComposition(t *testing.T) {
	// in_0 then load: contravariant composed with covariant is contravariant.
	d := Var(New("t1")).Extend(In(0)).Extend(Load())
	if got := d.Variance(); got != Contravariant {
		t.Errorf("Variance() = %s, want %s", got, Contravariant)
	}

	// in_0 then in_1: contravariant composed with contravariant is covariant.
	d2 := Var(New("t1")).Extend(In(0)).Extend(In(1))
	if got := d2.Variance(); got != Covariant {
		t.Errorf("Variance() = %s, want %s", got, Covariant)
	}
}

func TestDerivedTypeVarWithCallSiteKeepsPath(t *testing.T) {
	d := Var(New("RAX")).Extend(Out(0))
	tagged := d.WithCallSite("sub_001:0")

	if got, want := tagged.Base.CSTag, "sub_001:0"; got != want {
		t.Errorf("Base.CSTag = %q, want %q", got, want)
	}
	if !reflect.DeepEqual(tagged.Labels, d.Labels) {
		t.Errorf("Labels changed by WithCallSite: %+v vs %+v", tagged.Labels, d.Labels)
	}

	back := tagged.ToCallee()
	if back.Base.Tagged() {
		t.Errorf("ToCallee() left the base tagged")
	}
	if !reflect.DeepEqual(back.Labels, d.Labels) {
		t.Errorf("ToCallee() changed the label path")
	}
}

func TestDerivedTypeVarPrefix(t *testing.T) {
	d := Var(New("t1")).Extend(In(0)).Extend(Load()).Extend(Field(0, 32))

	p0 := d.Prefix(0)
	if !p0.IsBare() {
		t.Errorf("Prefix(0) should be bare")
	}

	p2 := d.Prefix(2)
	if got, want := p2.Key(), "t1.in_0.load"; got != want {
		t.Errorf("Prefix(2).Key() = %q, want %q", got, want)
	}

	pTooMany := d.Prefix(10)
	if got, want := pTooMany.Key(), d.Key(); got != want {
		t.Errorf("Prefix(10).Key() = %q, want %q (clamped to full path)", got, want)
	}
}

func TestDerivedTypeVarKeyDistinguishesLoadStore(t *testing.T) {
	// Key() is a string form, distinct for Load and Store even though
	// EquivalentForImplication treats them as equivalent.
	load := Var(New("t1")).Extend(Load())
	store := Var(New("t1")).Extend(Store())
	if load.Key() == store.Key() {
		t.Errorf("Load and Store keys should differ: %q", load.Key())
	}
}
