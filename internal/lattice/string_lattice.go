package lattice

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// StringLattice is the reference Lattice[string] implementation: a finite
// bounded lattice described by an explicit Hasse diagram (a set of
// elements plus a set of lower⊑upper edges) together with designated top
// and bottom elements. Join/Meet are computed by transitive-closure
// least-upper-bound/greatest-lower-bound search, memoized on first use.
type StringLattice struct {
	elements map[string]bool
	top      string
	bot      string
	// supers[e] is the set of elements reachable from e by following
	// lower->upper edges (ancestors in the ⊑ order), including e itself.
	supers map[string]map[string]bool
	// subs[e] is the symmetric descendant closure, including e itself.
	subs map[string]map[string]bool

	joinCache map[[2]string]string
	meetCache map[[2]string]string
}

// Edge is one lower⊑upper relation of the lattice's Hasse diagram.
type Edge struct {
	Lower string `yaml:"lower" json:"lower"`
	Upper string `yaml:"upper" json:"upper"`
}

// Doc is the YAML document shape loaded by Load: a flat element list, the
// Hasse-diagram edges between them, and the designated top/bottom names.
type Doc struct {
	Elements []string `yaml:"elements" json:"elements"`
	Edges    []Edge   `yaml:"edges" json:"edges"`
	Top      string   `yaml:"top" json:"top"`
	Bot      string   `yaml:"bot" json:"bot"`
}

// Load parses a YAML lattice definition and builds its transitive closure.
func Load(r io.Reader) (*StringLattice, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("lattice: read: %w", err)
	}
	var doc Doc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("lattice: parse yaml: %w", err)
	}
	return FromDoc(doc)
}

// FromDoc builds a StringLattice directly from an already-parsed Doc.
func FromDoc(doc Doc) (*StringLattice, error) {
	if doc.Top == "" || doc.Bot == "" {
		return nil, fmt.Errorf("lattice: top and bot must both be named")
	}
	l := &StringLattice{
		elements: make(map[string]bool, len(doc.Elements)),
		top:      doc.Top,
		bot:      doc.Bot,
	}
	for _, e := range doc.Elements {
		l.elements[e] = true
	}
	l.elements[doc.Top] = true
	l.elements[doc.Bot] = true

	upperOf := make(map[string][]string)
	lowerOf := make(map[string][]string)
	for _, e := range doc.Edges {
		if !l.elements[e.Lower] || !l.elements[e.Upper] {
			return nil, fmt.Errorf("lattice: edge %s<=%s references unknown element", e.Lower, e.Upper)
		}
		upperOf[e.Lower] = append(upperOf[e.Lower], e.Upper)
		lowerOf[e.Upper] = append(lowerOf[e.Upper], e.Lower)
	}

	l.supers = make(map[string]map[string]bool, len(l.elements))
	l.subs = make(map[string]map[string]bool, len(l.elements))
	for e := range l.elements {
		l.supers[e] = closure(e, upperOf)
		l.subs[e] = closure(e, lowerOf)
	}

	l.joinCache = make(map[[2]string]string)
	l.meetCache = make(map[[2]string]string)
	return l, nil
}

func closure(start string, adj map[string][]string) map[string]bool {
	seen := map[string]bool{start: true}
	stack := []string{start}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, next := range adj[n] {
			if !seen[next] {
				seen[next] = true
				stack = append(stack, next)
			}
		}
	}
	return seen
}

func (l *StringLattice) Top() string { return l.top }
func (l *StringLattice) Bot() string { return l.bot }

func (l *StringLattice) GetElem(name string) (string, bool) {
	if l.elements[name] {
		return name, true
	}
	return "", false
}

func (l *StringLattice) Name(e string) string { return e }

// Join returns the least upper bound of a and b: the unique common
// ancestor (element of supers(a) ∩ supers(b)) that is itself an ancestor
// of every other element in that intersection.
func (l *StringLattice) Join(a, b string) string {
	return l.bound(a, b, l.supers, l.joinCache, l.top)
}

// Meet returns the greatest lower bound of a and b, symmetric to Join.
func (l *StringLattice) Meet(a, b string) string {
	return l.bound(a, b, l.subs, l.meetCache, l.bot)
}

func (l *StringLattice) bound(a, b string, reach map[string]map[string]bool, cache map[[2]string]string, fallback string) string {
	if a == b {
		return a
	}
	key := [2]string{a, b}
	if a > b {
		key = [2]string{b, a}
	}
	if v, ok := cache[key]; ok {
		return v
	}
	ra, okA := reach[a]
	rb, okB := reach[b]
	result := fallback
	if okA && okB {
		candidates := make([]string, 0)
		for e := range ra {
			if rb[e] {
				candidates = append(candidates, e)
			}
		}
		for _, x := range candidates {
			isBoundOfAll := true
			for _, y := range candidates {
				if !reach[x][y] {
					isBoundOfAll = false
					break
				}
			}
			if isBoundOfAll {
				result = x
				break
			}
		}
	}
	cache[key] = result
	return result
}
