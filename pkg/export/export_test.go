package export

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/fpbviz/fpbviz/pkg/errors"
	"github.com/fpbviz/fpbviz/pkg/fpb"
	"github.com/fpbviz/fpbviz/pkg/layout"
	"github.com/fpbviz/fpbviz/pkg/routing"
)

func testModel() *fpb.ProcessModel {
	return &fpb.ProcessModel{
		Title: "Brewing",
		States: []fpb.State{
			{ID: "s1", Type: fpb.StateProduct, Label: "Malt"},
			{ID: "s2", Type: fpb.StateProduct, Label: "Wort"},
		},
		ProcessOperators: []fpb.ProcessOperator{{ID: "p1", Label: "Mash"}},
		TechnicalResources: []fpb.TechnicalResource{{ID: "tr1", Label: "Tun"}},
		Flows: []fpb.Flow{
			{ID: "f1", SourceRef: "s1", TargetRef: "p1", Type: fpb.FlowRegular},
			{ID: "f2", SourceRef: "p1", TargetRef: "s2", Type: fpb.FlowAlternative},
		},
		Usages: []fpb.Usage{{ID: "u1", ProcessOperatorRef: "p1", TechnicalResourceRef: "tr1"}},
	}
}

func testDiagram(t *testing.T) (*fpb.ProcessModel, *Diagram) {
	t.Helper()
	model := testModel()
	data := layout.Compute(model, layout.DefaultConfig())
	routed := routing.Compute(data.Elements, data.Connections)
	return model, Build(model, data, routed)
}

func TestBuild(t *testing.T) {
	_, d := testDiagram(t)

	if d.Title != "Brewing" {
		t.Errorf("Title = %q, want Brewing", d.Title)
	}
	if len(d.Elements) != 4 {
		t.Errorf("Elements = %d, want 4", len(d.Elements))
	}
	if len(d.Connections) != 3 {
		t.Errorf("Connections = %d, want 3", len(d.Connections))
	}
	if len(d.SystemLimits) != 1 {
		t.Errorf("SystemLimits = %d, want 1", len(d.SystemLimits))
	}
}

func TestExportJSON(t *testing.T) {
	model, d := testDiagram(t)

	data, err := Export(context.Background(), model, d, FormatJSON)
	if err != nil {
		t.Fatalf("Export error: %v", err)
	}

	var decoded Diagram
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("exported JSON does not parse: %v", err)
	}
	if len(decoded.Elements) != len(d.Elements) {
		t.Errorf("decoded %d elements, want %d", len(decoded.Elements), len(d.Elements))
	}
	// Every routed connection carries its waypoints.
	for _, c := range decoded.Connections {
		if len(c.Points) < 2 {
			t.Errorf("connection %s has %d points, want >= 2", c.ID, len(c.Points))
		}
	}
}

func TestExportUnsupportedFormat(t *testing.T) {
	model, d := testDiagram(t)

	_, err := Export(context.Background(), model, d, "pdf")
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("err = %v, want INVALID_FORMAT", err)
	}
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(testModel())

	for _, want := range []string{
		`"s1" [label="Malt", shape=circle`,
		`"p1" [label="Mash", shape=box`,
		`"tr1" [label="Tun", shape=hexagon`,
		`"s1" -> "p1";`,
		`"p1" -> "s2" [style=dashed];`,
		`"p1" -> "tr1" [style=dotted, dir=none];`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}

	// Nil model still yields a valid empty digraph.
	empty := ToDOT(nil)
	if !strings.HasPrefix(empty, "digraph FPB {") || !strings.HasSuffix(empty, "}\n") {
		t.Errorf("empty DOT malformed:\n%s", empty)
	}
}

func TestWriteJSON(t *testing.T) {
	_, d := testDiagram(t)

	var buf bytes.Buffer
	if err := WriteJSON(d, &buf); err != nil {
		t.Fatalf("WriteJSON error: %v", err)
	}
	if !json.Valid(buf.Bytes()) {
		t.Error("WriteJSON should emit valid JSON")
	}
}
