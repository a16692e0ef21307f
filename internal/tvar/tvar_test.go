package tvar

import "testing"

func TestTypeVariableCallSiteRoundTrip(t *testing.T) {
	v := New("RAX")
	if v.Tagged() {
		t.Fatalf("fresh variable should not be tagged")
	}
	if v.String() != "RAX" {
		t.Errorf("String() = %q, want %q", v.String(), "RAX")
	}

	tagged := v.WithCallSite("sub_042:0")
	if !tagged.Tagged() {
		t.Fatalf("WithCallSite should tag the variable")
	}
	if got, want := tagged.String(), "RAX@sub_042:0"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}

	back := tagged.ToCallee()
	if back != v {
		t.Errorf("ToCallee() = %+v, want %+v", back, v)
	}
}

func TestTypeVariableToCalleeUntaggedIsNoop(t *testing.T) {
	v := New("RDI")
	if got := v.ToCallee(); got != v {
		t.Errorf("ToCallee() on untagged variable = %+v, want %+v", got, v)
	}
}

func TestTidIndexedByVariable(t *testing.T) {
	v := TidIndexedByVariable("sub_123", "RAX")
	if got, want := v.Name, "sub_123_RAX"; got != want {
		t.Errorf("Name = %q, want %q", got, want)
	}
}

func TestArgTvarName(t *testing.T) {
	v := ArgTvarName("sub_042", 2)
	if got, want := v.Name, "arg_sub_042_2"; got != want {
		t.Errorf("Name = %q, want %q", got, want)
	}
}

func TestManagerFreshIsUniqueAndCounted(t *testing.T) {
	m := NewManager()
	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		v := m.Fresh()
		if seen[v.Name] {
			t.Fatalf("Fresh() produced a repeat name %q", v.Name)
		}
		seen[v.Name] = true
	}
	if m.Count() != 5 {
		t.Errorf("Count() = %d, want 5", m.Count())
	}
}
