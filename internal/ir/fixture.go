package ir

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/typesketch/tysketch/internal/config"
	"github.com/typesketch/tysketch/internal/lattice"
	"github.com/typesketch/tysketch/internal/tvar"
)

// SCCConstraints pairs one strongly-connected-component's Tids with the
// constraint set generated for it, the unit the sketch builder consumes.
type SCCConstraints struct {
	SCC         []Tid
	Constraints *tvar.ConstraintSet
}

// Fixture aggregates everything internal/constraintgen and internal/sketch
// need for one run: the functions under analysis, the callgraph over
// them, the lattice, and the three default collaborator adapters,
// populated from a fixture file by LoadFixture.
type Fixture struct {
	Functions []Function
	Callgraph *Callgraph
	Lattice   *lattice.StringLattice
	// LatticeElems is the fixture's declared atomic element name list,
	// handed to the sketch builder so a constraint referencing a declared
	// name the lattice cannot resolve is a hard error rather than a
	// silently local variable.
	LatticeElems []string

	RegisterMapping *DefaultRegisterMapping
	PointsTo        *DefaultPointsToMapping
	Subprocedure    DefaultSubprocedureLocators
}

// --- on-disk document shape ---

type varDoc struct {
	Name string `yaml:"name" json:"name"`
	Size int64  `yaml:"size" json:"size"`
}

type exprDoc struct {
	Kind string `yaml:"kind" json:"kind"` // "var" | "other"
	Var  string `yaml:"var" json:"var"`
	Text string `yaml:"text" json:"text"`
}

func (e exprDoc) resolve(sizes map[string]int64) Expression {
	if e.Kind == "var" {
		return VarExpr(Variable{Name: e.Var, SizeBytes: sizes[e.Var]})
	}
	text := e.Text
	if text == "" {
		text = e.Var
	}
	return OtherExpr(text)
}

type argDoc struct {
	Kind         string `yaml:"kind" json:"kind"` // "register" | "stack"
	Var          varDoc `yaml:"var" json:"var"`
	StackAddress string `yaml:"stack_address" json:"stack_address"`
	StackSize    int64  `yaml:"stack_size" json:"stack_size"`
}

func (a argDoc) resolve() Arg {
	if a.Kind == "stack" {
		return Arg{Kind: ArgStack, StackAddress: OtherExpr(a.StackAddress), StackSize: a.StackSize}
	}
	return Arg{Kind: ArgRegister, Var: Variable{Name: a.Var.Name, SizeBytes: a.Var.Size}}
}

type defDoc struct {
	Tid     string  `yaml:"tid" json:"tid"`
	Kind    string  `yaml:"kind" json:"kind"` // "assign" | "load" | "store"
	Var     varDoc  `yaml:"var" json:"var"`
	Address exprDoc `yaml:"address" json:"address"`
	Value   exprDoc `yaml:"value" json:"value"`
}

type jmpDoc struct {
	Tid               string `yaml:"tid" json:"tid"`
	Kind              string `yaml:"kind" json:"kind"` // "call" | "return" | "call_return" | "branch" | "other"
	CallTarget        string `yaml:"call_target" json:"call_target"`
	ReturnFrom        string `yaml:"return_from" json:"return_from"`
	ReturnFromCallTid string `yaml:"return_from_call" json:"return_from_call"`
}

type blkDoc struct {
	Tid   string   `yaml:"tid" json:"tid"`
	Defs  []defDoc `yaml:"defs" json:"defs"`
	Jumps []jmpDoc `yaml:"jumps" json:"jumps"`
}

type subDoc struct {
	Tid        string   `yaml:"tid" json:"tid"`
	FormalArgs []argDoc `yaml:"formal_args" json:"formal_args"`
	FormalRets []argDoc `yaml:"formal_rets" json:"formal_rets"`
}

type functionDoc struct {
	Sub    subDoc   `yaml:"sub" json:"sub"`
	Blocks []blkDoc `yaml:"blocks" json:"blocks"`
	Calls  []string `yaml:"calls" json:"calls"` // callee sub tids, for the callgraph
}

type reachingDefDoc struct {
	Tid  string   `yaml:"tid" json:"tid"`
	Var  string   `yaml:"var" json:"var"`
	Defs []string `yaml:"defs" json:"defs"`
}

type accessDoc struct {
	Var       string `yaml:"var" json:"var"`
	Size      int64  `yaml:"size" json:"size"`
	HasOffset bool   `yaml:"has_offset" json:"has_offset"`
	Offset    int64  `yaml:"offset" json:"offset"`
}

type pointsToDoc struct {
	Tid      string      `yaml:"tid" json:"tid"`
	Addr     string      `yaml:"addr" json:"addr"`
	Accesses []accessDoc `yaml:"accesses" json:"accesses"`
}

type fixtureDoc struct {
	Lattice     lattice.Doc      `yaml:"lattice" json:"lattice"`
	Functions   []functionDoc    `yaml:"functions" json:"functions"`
	RegisterMap []reachingDefDoc `yaml:"register_mapping" json:"register_mapping"`
	PointsTo    []pointsToDoc    `yaml:"points_to" json:"points_to"`
}

func tid(kind TidKind, raw string) Tid {
	if raw == "" {
		return Tid{}
	}
	return NewTid(kind, raw)
}

// LoadFixture parses a YAML or JSON fixture file (chosen by extension:
// ".json" for JSON, anything else for YAML) into a runnable Fixture.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ir: read fixture: %w", err)
	}
	return LoadFixtureBytes(path, data)
}

// LoadFixtureBytes parses an already-read fixture document, choosing YAML
// or JSON by name's extension the same way LoadFixture does. Used where
// the fixture arrives over a channel other than the local filesystem
// (internal/rpc's BuildSketches request).
func LoadFixtureBytes(name string, data []byte) (*Fixture, error) {
	var doc fixtureDoc
	if config.IsJSONFixture(name) {
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("ir: parse json fixture: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("ir: parse yaml fixture: %w", err)
		}
	}
	return buildFixture(doc)
}

func buildFixture(doc fixtureDoc) (*Fixture, error) {
	lat, err := lattice.FromDoc(doc.Lattice)
	if err != nil {
		return nil, fmt.Errorf("ir: lattice: %w", err)
	}

	sizes := make(map[string]int64)
	for _, fn := range doc.Functions {
		for _, blk := range fn.Blocks {
			for _, d := range blk.Defs {
				if d.Var.Name != "" {
					sizes[d.Var.Name] = d.Var.Size
				}
			}
		}
	}

	f := &Fixture{
		Callgraph:       NewCallgraph(),
		Lattice:         lat,
		LatticeElems:    append([]string{doc.Lattice.Top, doc.Lattice.Bot}, doc.Lattice.Elements...),
		RegisterMapping: NewDefaultRegisterMapping(),
		PointsTo:        NewDefaultPointsToMapping(),
	}

	for _, fn := range doc.Functions {
		subTid := tid(KindSub, fn.Sub.Tid)
		f.Callgraph.AddSub(subTid)

		args := make([]Arg, len(fn.Sub.FormalArgs))
		for i, a := range fn.Sub.FormalArgs {
			args[i] = a.resolve()
		}
		rets := make([]Arg, len(fn.Sub.FormalRets))
		for i, a := range fn.Sub.FormalRets {
			rets[i] = a.resolve()
		}

		blocks := make([]Blk, len(fn.Blocks))
		for i, b := range fn.Blocks {
			blkTid := tid(KindBlk, b.Tid)
			defs := make([]Def, len(b.Defs))
			for j, d := range b.Defs {
				defs[j] = Def{
					Tid:     tid(KindDef, d.Tid),
					Kind:    parseDefKind(d.Kind),
					Var:     Variable{Name: d.Var.Name, SizeBytes: d.Var.Size},
					Address: d.Address.resolve(sizes),
					Value:   d.Value.resolve(sizes),
				}
			}
			jumps := make([]Jmp, len(b.Jumps))
			for j, jd := range b.Jumps {
				jumps[j] = Jmp{
					Tid:               tid(KindJmp, jd.Tid),
					Kind:              parseJmpKind(jd.Kind),
					CallTarget:        tid(KindSub, jd.CallTarget),
					ReturnFrom:        tid(KindSub, jd.ReturnFrom),
					ReturnFromCallTid: tid(KindJmp, jd.ReturnFromCallTid),
				}
				if jumps[j].Kind == JmpCall {
					f.Callgraph.AddEdge(subTid, jumps[j].CallTarget)
				}
			}
			blocks[i] = Blk{Tid: blkTid, Defs: defs, Jumps: jumps}
		}

		for _, callee := range fn.Calls {
			f.Callgraph.AddEdge(subTid, tid(KindSub, callee))
		}

		f.Functions = append(f.Functions, Function{
			Sub:    Sub{Tid: subTid, FormalArgs: args, FormalRets: rets},
			Blocks: blocks,
		})
	}

	for _, rd := range doc.RegisterMap {
		defs := make([]tvar.TypeVariable, len(rd.Defs))
		for i, name := range rd.Defs {
			defs[i] = tvar.New(name)
		}
		f.RegisterMapping.Set(tid(KindDef, rd.Tid), rd.Var, defs...)
	}

	for _, pd := range doc.PointsTo {
		accesses := make([]tvar.TypeVariableAccess, len(pd.Accesses))
		for i, a := range pd.Accesses {
			accesses[i] = tvar.TypeVariableAccess{
				Var:        tvar.New(a.Var),
				AccessSize: a.Size,
				HasOffset:  a.HasOffset,
				Offset:     a.Offset,
			}
		}
		f.PointsTo.Set(tid(KindDef, pd.Tid), pd.Addr, accesses...)
	}

	return f, nil
}

func parseDefKind(s string) DefKind {
	switch s {
	case "load":
		return DefLoad
	case "store":
		return DefStore
	default:
		return DefAssign
	}
}

func parseJmpKind(s string) JmpKind {
	switch s {
	case "call":
		return JmpCall
	case "return":
		return JmpReturn
	case "call_return":
		return JmpCallReturn
	case "branch":
		return JmpBranch
	default:
		return JmpOther
	}
}
