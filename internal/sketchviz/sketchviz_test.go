package sketchviz

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/typesketch/tysketch/internal/lattice"
	"github.com/typesketch/tysketch/internal/sketch"
	"github.com/typesketch/tysketch/internal/tvar"
)

func testSketch(t *testing.T) *sketch.Sketch {
	t.Helper()
	lat, err := lattice.FromDoc(lattice.Doc{
		Elements: []string{"int"},
		Edges: []lattice.Edge{
			{Lower: "bot", Upper: "int"},
			{Lower: "int", Upper: "top"},
		},
		Top: "top",
		Bot: "bot",
	})
	if err != nil {
		t.Fatalf("FromDoc: %v", err)
	}

	g := sketch.New(lat)
	root := g.AddNode("@sub_f", lattice.Identity[string](lat))
	arg := g.AddNode("@sub_f.in_0", lattice.Bounds[string]{Upper: "int", Lower: "bot"})
	g.AddEdge(root, arg, tvar.In(0))

	return &sketch.Sketch{
		Root:    tvar.Var(tvar.FromTid("@sub_f")),
		RootIdx: root,
		G:       g,
	}
}

func TestGraphvizRendering(t *testing.T) {
	dot := Graphviz(testSketch(t))

	if !strings.HasPrefix(dot, "digraph sketch {") {
		t.Errorf("rendering should open a digraph, got %q", dot)
	}
	if !strings.Contains(dot, "doublecircle") {
		t.Errorf("the root node should be double-circled:\n%s", dot)
	}
	if !strings.Contains(dot, "[bot,top]") {
		t.Errorf("the root's identity bounds should render as [bot,top]:\n%s", dot)
	}
	if !strings.Contains(dot, "[bot,int]") {
		t.Errorf("the argument's bounds should render as [bot,int]:\n%s", dot)
	}
	if !strings.Contains(dot, "in_0") {
		t.Errorf("the in_0 edge label should appear:\n%s", dot)
	}
}

func TestJSONRendering(t *testing.T) {
	data, err := JSON(testSketch(t))
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}

	var doc struct {
		Root  string `json:"root"`
		Nodes []struct {
			Lower string `json:"lower"`
			Upper string `json:"upper"`
			Root  bool   `json:"root"`
		} `json:"nodes"`
		Edges []struct {
			Label string `json:"label"`
		} `json:"edges"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("rendered JSON should parse: %v", err)
	}
	if doc.Root != "@sub_f" {
		t.Errorf("root = %q, want @sub_f", doc.Root)
	}
	if len(doc.Nodes) != 2 || len(doc.Edges) != 1 {
		t.Fatalf("nodes/edges = %d/%d, want 2/1", len(doc.Nodes), len(doc.Edges))
	}
	if !doc.Nodes[0].Root || doc.Nodes[1].Root {
		t.Errorf("exactly the first node should be marked root")
	}
	if doc.Edges[0].Label != "in_0" {
		t.Errorf("edge label = %q, want in_0", doc.Edges[0].Label)
	}
}
