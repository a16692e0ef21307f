package rpc

import (
	"context"
	"reflect"
	"strings"
	"testing"
)

func TestFixtureBatchRoundTrip(t *testing.T) {
	in := &FixtureBatch{
		RunID: "run-1",
		Fixtures: map[string][]byte{
			"a.yaml": []byte("lattice: {}"),
			"b.json": []byte(`{"functions": []}`),
		},
	}
	data, err := in.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var out FixtureBatch
	if err := out.Unmarshal(data); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out.RunID != in.RunID || !reflect.DeepEqual(out.Fixtures, in.Fixtures) {
		t.Errorf("round trip = %+v, want %+v", out, in)
	}
}

func TestSketchBatchRoundTrip(t *testing.T) {
	in := &SketchBatch{
		RunID: "run-2",
		Renderings: map[string]string{
			"a.yaml:@sub_main": "digraph sketch {}\n",
		},
	}
	data, err := in.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var out SketchBatch
	if err := out.Unmarshal(data); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out.RunID != in.RunID || !reflect.DeepEqual(out.Renderings, in.Renderings) {
		t.Errorf("round trip = %+v, want %+v", out, in)
	}
}

const serverFixture = `
lattice:
  elements: [int]
  edges:
    - {lower: bot, upper: int}
    - {lower: int, upper: top}
  top: top
  bot: bot
functions:
  - sub:
      tid: main
    blocks:
      - tid: b0
        defs:
          - tid: d0
            kind: assign
            var: {name: v, size: 8}
            value: {kind: var, var: w}
`

func TestServerBuildSketches(t *testing.T) {
	srv := NewServer(nil)
	reply, err := srv.BuildSketches(context.Background(), &FixtureBatch{
		RunID:    "run-3",
		Fixtures: map[string][]byte{"f.yaml": []byte(serverFixture)},
	})
	if err != nil {
		t.Fatalf("BuildSketches: %v", err)
	}
	if reply.RunID != "run-3" {
		t.Errorf("reply run id = %q, want run-3", reply.RunID)
	}
	dot, ok := reply.Renderings["f.yaml:@sub_main"]
	if !ok {
		t.Fatalf("expected a rendering for f.yaml:@sub_main, got %v", reply.Renderings)
	}
	if !strings.HasPrefix(dot, "digraph sketch {") {
		t.Errorf("rendering should be Graphviz source, got %q", dot)
	}
}

func TestServerRejectsBadFixture(t *testing.T) {
	srv := NewServer(nil)
	_, err := srv.BuildSketches(context.Background(), &FixtureBatch{
		Fixtures: map[string][]byte{"bad.yaml": []byte("lattice: {elements: [a]}")},
	})
	if err == nil {
		t.Errorf("a fixture with an invalid lattice should fail the batch")
	}
}
