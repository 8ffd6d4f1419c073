package fpb

import "testing"

func TestDisplayLabel(t *testing.T) {
	s := State{ID: "s1", Label: "Malt"}
	if got := s.DisplayLabel(); got != "Malt" {
		t.Errorf("DisplayLabel = %q, want Malt", got)
	}
	s.Label = ""
	if got := s.DisplayLabel(); got != "s1" {
		t.Errorf("DisplayLabel fallback = %q, want s1", got)
	}
}

func TestModelCounts(t *testing.T) {
	m := &ProcessModel{
		States:             []State{{ID: "s1"}, {ID: "s2"}},
		ProcessOperators:   []ProcessOperator{{ID: "p1"}},
		TechnicalResources: []TechnicalResource{{ID: "tr1"}},
		Flows:              []Flow{{ID: "f1"}},
		Usages:             []Usage{{ID: "u1"}},
	}
	if got := m.ElementCount(); got != 4 {
		t.Errorf("ElementCount = %d, want 4", got)
	}
	if got := m.EdgeCount(); got != 2 {
		t.Errorf("EdgeCount = %d, want 2", got)
	}
	if m.IsEmpty() {
		t.Error("model with elements reported empty")
	}
	if !(&ProcessModel{}).IsEmpty() {
		t.Error("zero model should be empty")
	}
}

func TestUnmarshalModelRoundTrip(t *testing.T) {
	in := &ProcessModel{
		Title:  "demo",
		States: []State{{ID: "s1", Type: StateProduct, Label: "In"}},
		Flows:  []Flow{{ID: "f1", SourceRef: "s1", TargetRef: "p1", Type: FlowAlternative}},
	}
	data, err := MarshalModel(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	out, err := UnmarshalModel(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Title != "demo" || len(out.States) != 1 || out.Flows[0].Type != FlowAlternative {
		t.Errorf("round trip lost data: %+v", out)
	}
}

func TestUnmarshalModelRejectsGarbage(t *testing.T) {
	if _, err := UnmarshalModel([]byte("{nope")); err == nil {
		t.Error("expected error for malformed JSON")
	}
}
