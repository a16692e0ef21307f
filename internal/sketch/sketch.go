// Package sketch implements the per-function Sketch data structure and its
// two-pass builder: a prefix-closed rooted DFA over
// tvar.FieldLabel, with nodes labeled by lattice.Bounds, constructed from a
// callgraph-ordered sequence of constraint sets.
package sketch

import (
	"sort"

	"github.com/typesketch/tysketch/internal/dfa"
	"github.com/typesketch/tysketch/internal/graph"
	"github.com/typesketch/tysketch/internal/lattice"
	"github.com/typesketch/tysketch/internal/tvar"
)

// Sketch is one function's reconstructed type, a rooted prefix-closed DFA
// over FieldLabel whose nodes carry lattice.Bounds[string]. Vars mirrors
// G's key space back into the structured tvar.DerivedTypeVar each key
// names, since graph.Graph only ever stores the opaque string key;
// builder operations that need to inspect a node's base variable (e.g.
// "is this node's base the callee being copied in?") consult Vars rather
// than re-parsing keys.
type Sketch struct {
	Root    tvar.DerivedTypeVar
	RootIdx graph.NodeIndex
	G       *graph.Graph[lattice.Bounds[string], tvar.FieldLabel]
	Vars    map[string]tvar.DerivedTypeVar
}

// New builds a new, empty graph suitable for a Sketch, wired with the
// lattice's merge-bounds magma and a deterministic edge order.
func New(lat lattice.Lattice[string]) *graph.Graph[lattice.Bounds[string], tvar.FieldLabel] {
	return graph.New(
		func(a, b lattice.Bounds[string]) lattice.Bounds[string] { return lattice.Merge(lat, a, b) },
		lessLabel,
	)
}

func lessLabel(a, b tvar.FieldLabel) bool { return a.String() < b.String() }

// insertDTV implements Pass A step 3's local-variable case: inserts the
// full prefix chain root..dtv into g (each prefix's node created if
// absent, with identity bounds), registering every prefix in vars.
// Returns dtv's own node index.
func insertDTV(g *graph.Graph[lattice.Bounds[string], tvar.FieldLabel], vars map[string]tvar.DerivedTypeVar, lat lattice.Lattice[string], dtv tvar.DerivedTypeVar) graph.NodeIndex {
	id := lattice.Identity(lat)
	prev := tvar.Var(dtv.Base)
	prevIdx := g.AddNode(prev.Key(), id)
	vars[prev.Key()] = prev
	for i, l := range dtv.Labels {
		cur := dtv.Prefix(i + 1)
		curIdx := g.AddNode(cur.Key(), id)
		vars[cur.Key()] = cur
		g.AddEdge(prevIdx, curIdx, l)
		prevIdx = curIdx
	}
	return prevIdx
}

// copyCalleeInto implements Pass A step 3's external-base case: clones
// callee's reachable subgraph into g, re-tagging every copied node whose
// base matches the callee's own (untagged) base with tag, and registers
// the copies in vars. Returns the copied image of callee's root.
func copyCalleeInto(g *graph.Graph[lattice.Bounds[string], tvar.FieldLabel], vars map[string]tvar.DerivedTypeVar, callee *Sketch, tag string) graph.NodeIndex {
	reached, rootIdx := callee.G.GetReachableSubgraph(callee.RootIdx)
	calleeBaseName := callee.Root.Base.Name

	remap := make(map[graph.NodeIndex]graph.NodeIndex, reached.Capacity())
	firstKey := make(map[graph.NodeIndex]string, reached.Capacity())
	for _, key := range reached.Keys() {
		idx, ok := reached.Lookup(key)
		if !ok {
			continue
		}
		dtv, ok := callee.Vars[key]
		if !ok {
			continue
		}
		newDtv := dtv
		if dtv.Base.Name == calleeBaseName {
			newDtv = dtv.WithCallSite(tag)
		}
		newKey := newDtv.Key()
		g.AddNode(newKey, reached.Weight(idx))
		vars[newKey] = newDtv
		// A callee node named by several keys stays one node in the copy.
		if prevKey, seen := firstKey[idx]; seen {
			g.MergeNodes(prevKey, newKey)
		} else {
			firstKey[idx] = newKey
		}
	}
	for idx, key := range firstKey {
		remap[idx], _ = g.Lookup(key)
	}

	bareIdx := func(idx graph.NodeIndex) graph.NodeIndex {
		if r, ok := remap[idx]; ok {
			return r
		}
		r := g.AddBareNode(reached.Weight(idx))
		remap[idx] = r
		return r
	}

	for _, idx := range reached.NodeIndices() {
		src := bareIdx(idx)
		for _, e := range reached.OutEdges(idx) {
			_, dst, w := reached.EdgeEndpoints(e)
			g.AddEdge(src, bareIdx(dst), w)
		}
	}

	return bareIdx(rootIdx)
}

// Union returns a new, unkeyed sketch accepting the union of s and
// other's languages, suitable as a graph.ReplaceNode replacement.
func (s *Sketch) Union(lat lattice.Lattice[string], other *Sketch) *Sketch {
	g, root := dfa.Union(lat, s.G, s.RootIdx, other.G, other.RootIdx)
	return &Sketch{G: g, RootIdx: root}
}

// Intersect returns a new, unkeyed sketch accepting the intersection of s
// and other's languages.
func (s *Sketch) Intersect(lat lattice.Lattice[string], other *Sketch) *Sketch {
	g, root := dfa.Intersect(lat, s.G, s.RootIdx, other.G, other.RootIdx)
	return &Sketch{G: g, RootIdx: root}
}

// representingSketches implements Pass B's
// "get_representing_sketchs_ignoring_callsite_tags": every node of
// caller's graph whose variable equals formal when its call-site tag is
// ignored, one per distinct tag the caller actually instantiated, each
// viewed as its own Sketch rooted there (sharing caller's underlying
// graph).
func representingSketches(caller *Sketch, formal tvar.DerivedTypeVar) []*Sketch {
	var out []*Sketch
	var keys []string
	for k := range caller.Vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		dtv := caller.Vars[k]
		if dtv.ToCallee().Key() != formal.Key() {
			continue
		}
		idx, ok := caller.G.Lookup(k)
		if !ok {
			continue
		}
		out = append(out, &Sketch{Root: dtv, RootIdx: idx, G: caller.G, Vars: caller.Vars})
	}
	return out
}
