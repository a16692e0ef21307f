package sketch

import (
	"github.com/typesketch/tysketch/internal/diagnostics"
	"github.com/typesketch/tysketch/internal/ir"
	"github.com/typesketch/tysketch/internal/lattice"
)

// Result is the output of Build: every sub's sketch, plus any fatal
// per-SCC errors raised along the way.
type Result struct {
	Sketches map[string]*Sketch
	Errors   []*diagnostics.SketchError
}

// Build runs both builder passes over sccs (already grouped and
// ordered by internal/constraintgen.GenerateAll) and subs (every sub's
// declared formal signature, for Pass B's formal enumeration).
// elemNames declares the atomic lattice constants; see NewBuilder.
func Build(lat lattice.Lattice[string], elemNames []string, sccs []ir.SCCConstraints, subs map[string]ir.Sub, cg *ir.Callgraph) *Result {
	b := NewBuilder(lat, elemNames, subs, cg)
	errs := b.PassA(sccs)
	b.PassB()
	return &Result{Sketches: b.Sketches(), Errors: errs}
}
