package pipeline

import (
	"github.com/typesketch/tysketch/internal/constraintgen"
	"github.com/typesketch/tysketch/internal/diagnostics"
	"github.com/typesketch/tysketch/internal/ir"
	"github.com/typesketch/tysketch/internal/sketch"
	"github.com/typesketch/tysketch/internal/tvar"
)

// PipelineContext threads one fixture's state through the build stages
// (load, generate constraints, build sketches). Each Processor reads
// what earlier stages left and writes its own result; Err, once set, is
// checked by every later stage before it does real work.
type PipelineContext struct {
	FixturePath string

	Fixture          *ir.Fixture
	VM               *tvar.Manager
	ConstraintOutput *constraintgen.Output
	Result           *sketch.Result

	Warnings []*diagnostics.SketchError
	Err      error
}

// NewContext starts a pipeline run for the fixture at path.
func NewContext(fixturePath string) *PipelineContext {
	return &PipelineContext{FixturePath: fixturePath, VM: tvar.NewManager()}
}
