package quotient

import "testing"

func TestUnionFindBasic(t *testing.T) {
	uf := newUnionFind(5)
	for i := 0; i < 5; i++ {
		if !uf.equivalent(i, i) {
			t.Errorf("singleton %d should be equivalent to itself", i)
		}
	}

	if !uf.union(0, 1) {
		t.Fatalf("first union of distinct sets should report true")
	}
	if uf.union(0, 1) {
		t.Errorf("re-union of already-equivalent sets should report false")
	}
	if !uf.equivalent(0, 1) {
		t.Errorf("0 and 1 should be equivalent after union")
	}
	if uf.equivalent(0, 2) {
		t.Errorf("0 and 2 should not be equivalent")
	}
}

func TestUnionFindTransitivity(t *testing.T) {
	uf := newUnionFind(4)
	uf.union(0, 1)
	uf.union(1, 2)
	if !uf.equivalent(0, 2) {
		t.Errorf("union should be transitive: 0~1, 1~2 implies 0~2")
	}
	if uf.equivalent(0, 3) {
		t.Errorf("3 was never unioned, should remain separate")
	}
}
