// Package sketchviz renders a built sketch.Sketch as Graphviz DOT or
// JSON.
package sketchviz

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/typesketch/tysketch/internal/graph"
	"github.com/typesketch/tysketch/internal/lattice"
	"github.com/typesketch/tysketch/internal/sketch"
	"github.com/typesketch/tysketch/internal/tvar"
)

type printer struct {
	buf    strings.Builder
	indent int
}

func (p *printer) write(s string) { p.buf.WriteString(s) }

func (p *printer) writeIndent() {
	for i := 0; i < p.indent; i++ {
		p.buf.WriteString("  ")
	}
}

func nodeLabel(idx graph.NodeIndex, b lattice.Bounds[string]) string {
	return fmt.Sprintf("%d:[%s,%s]", idx, b.Lower, b.Upper)
}

func edgeLabel(idx graph.EdgeIndex, l tvar.FieldLabel) string {
	return fmt.Sprintf("%d:%s", idx, l.String())
}

// Graphviz renders sk as a DOT digraph: one node per sketch node (labeled
// idx:[lower,upper]), one edge per sketch edge (labeled idx:fieldlabel),
// with sk's root double-circled.
func Graphviz(sk *sketch.Sketch) string {
	p := &printer{}
	p.write("digraph sketch {\n")
	p.indent++
	p.writeIndent()
	p.write("rankdir=LR;\n")

	for _, idx := range sk.G.NodeIndices() {
		p.writeIndent()
		shape := "box"
		if idx == sk.RootIdx {
			shape = "doublecircle"
		}
		p.write(fmt.Sprintf("n%d [shape=%s label=%q];\n", idx, shape, nodeLabel(idx, sk.G.Weight(idx))))
	}

	for _, idx := range sk.G.NodeIndices() {
		for _, e := range sk.G.OutEdges(idx) {
			_, dst, w := sk.G.EdgeEndpoints(e)
			p.writeIndent()
			p.write(fmt.Sprintf("n%d -> n%d [label=%q];\n", idx, dst, edgeLabel(e, w)))
		}
	}

	p.indent--
	p.write("}\n")
	return p.buf.String()
}

// jsonNode and jsonEdge mirror Graphviz's node/edge labeling scheme in a
// machine-readable form.
type jsonNode struct {
	Index int    `json:"index"`
	Lower string `json:"lower"`
	Upper string `json:"upper"`
	Root  bool   `json:"root"`
}

type jsonEdge struct {
	Index int    `json:"index"`
	Src   int    `json:"src"`
	Dst   int    `json:"dst"`
	Label string `json:"label"`
}

type jsonSketch struct {
	Root  string     `json:"root"`
	Nodes []jsonNode `json:"nodes"`
	Edges []jsonEdge `json:"edges"`
}

// JSON renders sk as a structured document carrying the same information
// Graphviz does.
func JSON(sk *sketch.Sketch) ([]byte, error) {
	doc := jsonSketch{Root: sk.Root.Key()}

	indices := sk.G.NodeIndices()
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })
	for _, idx := range indices {
		b := sk.G.Weight(idx)
		doc.Nodes = append(doc.Nodes, jsonNode{
			Index: int(idx),
			Lower: b.Lower,
			Upper: b.Upper,
			Root:  idx == sk.RootIdx,
		})
	}

	for _, idx := range indices {
		for _, e := range sk.G.OutEdges(idx) {
			src, dst, w := sk.G.EdgeEndpoints(e)
			doc.Edges = append(doc.Edges, jsonEdge{
				Index: int(e),
				Src:   int(src),
				Dst:   int(dst),
				Label: w.String(),
			})
		}
	}

	return json.MarshalIndent(doc, "", "  ")
}
