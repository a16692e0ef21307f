// Package diagnostics carries structured errors out of the constraint
// generator and sketch builder: a code, a phase, a source location, and
// the format arguments needed to render a message.
package diagnostics

import (
	"fmt"

	"github.com/typesketch/tysketch/internal/ir"
)

// Phase names the stage that raised the error.
type Phase string

const (
	PhaseConstraintGen Phase = "constraintgen"
	PhaseSketchBuild   Phase = "sketch"
	PhaseDFA           Phase = "dfa"
)

// ErrorCode enumerates the error kinds the pipeline can raise.
type ErrorCode string

const (
	ErrExternalTypeNotBuilt  ErrorCode = "E001"
	ErrMalformedCfg          ErrorCode = "E002"
	ErrUnsupportedStackRet   ErrorCode = "E003"
	ErrUnhandledExpression   ErrorCode = "E004"
	ErrMissingLatticeElement ErrorCode = "E005"
)

var errorTemplates = map[ErrorCode]string{
	ErrExternalTypeNotBuilt:  "external base %s has no built sketch (topological order violation)",
	ErrMalformedCfg:          "call-return node in block %s has no matching call jump",
	ErrUnsupportedStackRet:   "return slot %d of %s is stack-passed, which is unsupported",
	ErrUnhandledExpression:   "unhandled expression in %s: %s; substituting a fresh variable",
	ErrMissingLatticeElement: "lattice element %q referenced in constraints is not in the lattice",
}

// fatalCodes are the codes whose errors abort the current build unit
// (a function, or the SCC being built) rather than merely warning.
var fatalCodes = map[ErrorCode]bool{
	ErrExternalTypeNotBuilt:  true,
	ErrMalformedCfg:          true,
	ErrUnsupportedStackRet:   true,
	ErrMissingLatticeElement: true,
}

// SketchError is the error type returned by the constraint generator and
// sketch builder: a code, a phase, the Tid it is located at, and format
// args for the code's message template.
type SketchError struct {
	Code  ErrorCode
	Phase Phase
	Tid   ir.Tid
	Args  []interface{}
}

func (e *SketchError) Error() string {
	template, ok := errorTemplates[e.Code]
	if !ok {
		return fmt.Sprintf("unknown error code: %s", e.Code)
	}
	message := fmt.Sprintf(template, e.Args...)

	phaseStr := ""
	if e.Phase != "" {
		phaseStr = fmt.Sprintf("[%s] ", e.Phase)
	}
	if e.Tid.ID == "" {
		return fmt.Sprintf("%serror [%s]: %s", phaseStr, e.Code, message)
	}
	return fmt.Sprintf("%serror at %s [%s]: %s", phaseStr, e.Tid, e.Code, message)
}

// Fatal reports whether this error should abort the current build unit.
func (e *SketchError) Fatal() bool {
	return fatalCodes[e.Code]
}

// New constructs a SketchError for code at tid in phase, with args for the
// error's message template.
func New(phase Phase, code ErrorCode, tid ir.Tid, args ...interface{}) *SketchError {
	return &SketchError{Code: code, Phase: phase, Tid: tid, Args: args}
}
