package tvar

import "testing"

func TestVarianceCompose(t *testing.T) {
	tests := []struct {
		a, b Variance
		want Variance
	}{
		{Covariant, Covariant, Covariant},
		{Covariant, Contravariant, Contravariant},
		{Contravariant, Covariant, Contravariant},
		{Contravariant, Contravariant, Covariant},
	}
	for _, tt := range tests {
		if got := tt.a.Compose(tt.b); got != tt.want {
			t.Errorf("%s.Compose(%s) = %s, want %s", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestFieldLabelVariance(t *testing.T) {
	tests := []struct {
		name string
		l    FieldLabel
		want Variance
	}{
		{"in", In(0), Contravariant},
		{"out", Out(0), Covariant},
		{"load", Load(), Covariant},
		{"store", Store(), Covariant},
		{"field", Field(8, 32), Covariant},
	}
	for _, tt := range tests {
		if got := tt.l.Variance(); got != tt.want {
			t.Errorf("%s.Variance() = %s, want %s", tt.name, got, tt.want)
		}
	}
}

func TestEquivalentForImplication(t *testing.T) {
	tests := []struct {
		name string
		a, b FieldLabel
		want bool
	}{
		{"identical in", In(0), In(0), true},
		{"different index", In(0), In(1), false},
		{"load and store collapse", Load(), Store(), true},
		{"load and load", Load(), Load(), true},
		{"load and field", Load(), Field(0, 8), false},
		{"in and out", In(0), Out(0), false},
	}
	for _, tt := range tests {
		if got := EquivalentForImplication(tt.a, tt.b); got != tt.want {
			t.Errorf("%s: EquivalentForImplication(%s, %s) = %v, want %v", tt.name, tt.a, tt.b, got, tt.want)
		}
	}
}

func TestFieldLabelString(t *testing.T) {
	tests := []struct {
		l    FieldLabel
		want string
	}{
		{In(3), "in_3"},
		{Out(1), "out_1"},
		{Load(), "load"},
		{Store(), "store"},
		{Field(8, 32), ".32@8"},
	}
	for _, tt := range tests {
		if got := tt.l.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
