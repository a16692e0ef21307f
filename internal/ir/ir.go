// Package ir defines the concrete input model consumed by
// internal/constraintgen and internal/sketch: Tids, a minimal expression
// and statement language, callgraphs, and the default collaborator
// adapters used by tests and cmd/tysketch fixtures.
package ir

import "fmt"

// TidKind distinguishes which kind of IR term a Tid names.
type TidKind string

const (
	KindSub TidKind = "sub"
	KindBlk TidKind = "blk"
	KindDef TidKind = "def"
	KindJmp TidKind = "jmp"
)

// Tid is the opaque stable identifier of an IR term, with a canonical
// string form "@<kind>_<id>".
type Tid struct {
	Kind TidKind
	ID   string
}

// NewTid builds a Tid of the given kind.
func NewTid(kind TidKind, id string) Tid { return Tid{Kind: kind, ID: id} }

func (t Tid) String() string {
	if t.ID == "" {
		return ""
	}
	return fmt.Sprintf("@%s_%s", t.Kind, t.ID)
}

// Variable is a register-like value with a byte size, read or written by
// an IR def.
type Variable struct {
	Name      string
	SizeBytes int64
}

// ExprKind distinguishes a direct register read from everything else
// (arithmetic, constants, memory expressions folded elsewhere) that
// constraint generation does not interpret.
type ExprKind int

const (
	ExprVar ExprKind = iota
	ExprOther
)

// Expression is deliberately thin: constraint generation only ever
// interprets a direct variable read (ExprVar); anything else (ExprOther)
// is an unhandled expression and is reported as a warning.
type Expression struct {
	Kind ExprKind
	Var  Variable // meaningful when Kind == ExprVar
	Text string   // debug text, meaningful when Kind == ExprOther
}

// VarExpr builds a direct register-read expression.
func VarExpr(v Variable) Expression { return Expression{Kind: ExprVar, Var: v} }

// OtherExpr builds an uninterpreted expression carrying only debug text.
func OtherExpr(text string) Expression { return Expression{Kind: ExprOther, Text: text} }

func (e Expression) String() string {
	if e.Kind == ExprVar {
		return e.Var.Name
	}
	return e.Text
}

// DefKind distinguishes the three statement shapes constraint generation
// understands.
type DefKind int

const (
	DefAssign DefKind = iota
	DefLoad
	DefStore
)

// Def is one instruction inside a block: var := expr (Assign), var :=
// *address (Load), or *address := value (Store).
type Def struct {
	Tid     Tid
	Kind    DefKind
	Var     Variable   // destination, meaningful for Assign/Load
	Address Expression // meaningful for Load/Store
	Value   Expression // meaningful for Assign/Store
}

// ArgKind distinguishes a register-passed argument from a stack-passed
// one.
type ArgKind int

const (
	ArgRegister ArgKind = iota
	ArgStack
)

// Arg is a formal or actual argument/return specification. Stack-passed
// args carry the address expression (and access size) used to resolve
// them via points-to; a stack-passed *return* is unsupported and is
// reported as ErrUnsupportedStackRet.
type Arg struct {
	Kind         ArgKind
	Var          Variable   // meaningful when Kind == ArgRegister
	StackAddress Expression // meaningful when Kind == ArgStack
	StackSize    int64      // meaningful when Kind == ArgStack
}

// Sub is a function: its formal argument and return specifications.
type Sub struct {
	Tid        Tid
	FormalArgs []Arg
	FormalRets []Arg
}

// JmpKind distinguishes the jump shapes a block may terminate with.
type JmpKind int

const (
	JmpCall JmpKind = iota
	JmpReturn
	JmpBranch
	JmpOther
	// JmpCallReturn marks the point control resumes at after a call
	// returns. It is distinct from the Call jump itself, so constraint
	// generation must search the calling function for the matching Call
	// jump.
	JmpCallReturn
)

// Jmp is a block terminator. CallTarget is meaningful for JmpCall;
// ReturnFrom names the Sub being returned from for JmpReturn (a function's
// own return statement); ReturnFromCallTid is meaningful for
// JmpCallReturn, naming the Call jump this node is the continuation of.
type Jmp struct {
	Tid               Tid
	Kind              JmpKind
	CallTarget        Tid
	ReturnFrom        Tid
	ReturnFromCallTid Tid
}

// Blk is a basic block: a straight-line run of Defs followed by one or
// more Jmps (e.g. a branch's alternatives, or a call jump together with
// its call_return jump).
type Blk struct {
	Tid   Tid
	Defs  []Def
	Jumps []Jmp
}

// NodeKind distinguishes the four ICFG node shapes constraint generation
// traverses.
type NodeKind int

const (
	NodeBlkStart NodeKind = iota
	NodeBlkEnd
	NodeCallSource
	NodeCallReturn
)

// Function aggregates one Sub's formal signature with its block bodies,
// in program order.
type Function struct {
	Sub    Sub
	Blocks []Blk
}

// FindBlock returns the block with the given Tid, if present.
func (f Function) FindBlock(tid Tid) (Blk, bool) {
	for _, b := range f.Blocks {
		if b.Tid == tid {
			return b, true
		}
	}
	return Blk{}, false
}

// FindCallJmp searches blk for a JmpCall terminator with the given Tid.
func (b Blk) FindCallJmp(callTid Tid) (Jmp, bool) {
	for _, j := range b.Jumps {
		if j.Kind == JmpCall && j.Tid == callTid {
			return j, true
		}
	}
	return Jmp{}, false
}

// FindCallJmp searches every block of f for a JmpCall terminator with
// the given Tid. A CallReturn jump with no matching Call jump anywhere
// in its function is a malformed CFG and is fatal for that function.
func (f Function) FindCallJmp(callTid Tid) (Jmp, bool) {
	for _, b := range f.Blocks {
		if j, ok := b.FindCallJmp(callTid); ok {
			return j, true
		}
	}
	return Jmp{}, false
}
