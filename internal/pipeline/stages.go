// Package pipeline chains a fixture's load/generate/build stages into one
// run over a shared PipelineContext.
package pipeline

import (
	"github.com/typesketch/tysketch/internal/constraintgen"
	"github.com/typesketch/tysketch/internal/ir"
	"github.com/typesketch/tysketch/internal/sketch"
)

// Processor is one stage of a Pipeline.
type Processor interface {
	Process(ctx *PipelineContext) *PipelineContext
}

// Pipeline is an ordered list of stages applied to one fixture's context.
type Pipeline []Processor

// New assembles a Pipeline from the given stages.
func New(stages ...Processor) Pipeline { return Pipeline(stages) }

// Run threads ctx through every stage in order. A stage that fails sets
// ctx.Err and later stages see it and skip their real work, so a failed
// run still surfaces whatever warnings the earlier stages collected.
func (p Pipeline) Run(ctx *PipelineContext) *PipelineContext {
	for _, stage := range p {
		ctx = stage.Process(ctx)
	}
	return ctx
}

// LoadFixtureStage parses ctx.FixturePath into ctx.Fixture.
type LoadFixtureStage struct{}

func (LoadFixtureStage) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.Err != nil {
		return ctx
	}
	fx, err := ir.LoadFixture(ctx.FixturePath)
	if err != nil {
		ctx.Err = err
		return ctx
	}
	ctx.Fixture = fx
	return ctx
}

// GenerateConstraintsStage runs constraint generation over ctx.Fixture.
type GenerateConstraintsStage struct{}

func (GenerateConstraintsStage) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.Err != nil || ctx.Fixture == nil {
		return ctx
	}
	out := constraintgen.GenerateAll(ctx.Fixture, ctx.VM)
	ctx.ConstraintOutput = out
	ctx.Warnings = append(ctx.Warnings, out.Warnings...)
	return ctx
}

// BuildSketchesStage runs both sketch builder passes over
// ctx.ConstraintOutput.
type BuildSketchesStage struct{}

func (BuildSketchesStage) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.Err != nil || ctx.ConstraintOutput == nil {
		return ctx
	}
	subs := make(map[string]ir.Sub, len(ctx.Fixture.Functions))
	for _, fn := range ctx.Fixture.Functions {
		subs[fn.Sub.Tid.String()] = fn.Sub
	}
	result := sketch.Build(ctx.Fixture.Lattice, ctx.Fixture.LatticeElems, ctx.ConstraintOutput.SCCs, subs, ctx.Fixture.Callgraph)
	ctx.Result = result
	for _, e := range result.Errors {
		ctx.Warnings = append(ctx.Warnings, e)
	}
	return ctx
}

// Default returns the standard three-stage pipeline: load, generate, build.
func Default() Pipeline {
	return Pipeline{LoadFixtureStage{}, GenerateConstraintsStage{}, BuildSketchesStage{}}
}
