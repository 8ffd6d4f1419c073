package routing

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/fpbviz/fpbviz/pkg/fpb"
	"github.com/fpbviz/fpbviz/pkg/layout"
)

func box(id string, x, y float64) layout.DiagramElement {
	return layout.DiagramElement{ID: id, Type: layout.TypeState, Label: id, X: x, Y: y, Width: 10, Height: 10}
}

func conn(id, src, tgt string) layout.DiagramConnection {
	return layout.DiagramConnection{ID: id, SourceID: src, TargetID: tgt, FlowType: string(fpb.FlowRegular)}
}

func TestComputeStraightVertical(t *testing.T) {
	elements := []layout.DiagramElement{box("a", 0, 0), box("b", 0, 100)}
	routed := Compute(elements, []layout.DiagramConnection{conn("c1", "a", "b")})

	if len(routed) != 1 {
		t.Fatalf("expected 1 routed connection, got %d", len(routed))
	}
	r := routed[0]
	if r.SourceSide != layout.SideBottom || r.TargetSide != layout.SideTop {
		t.Errorf("sides = %s/%s, want bottom/top", r.SourceSide, r.TargetSide)
	}
	want := []Point{{5, 10}, {5, 100}}
	if !reflect.DeepEqual(r.Points, want) {
		t.Errorf("points = %v, want %v", r.Points, want)
	}
}

func TestComputeZShapeVertical(t *testing.T) {
	// Equal horizontal and vertical offset prefers the vertical axis and
	// bends twice at the midline.
	elements := []layout.DiagramElement{box("a", 0, 0), box("b", 100, 100)}
	routed := Compute(elements, []layout.DiagramConnection{conn("c1", "a", "b")})

	want := []Point{{5, 10}, {5, 55}, {105, 55}, {105, 100}}
	if !reflect.DeepEqual(routed[0].Points, want) {
		t.Errorf("points = %v, want %v", routed[0].Points, want)
	}
}

func TestComputeZShapeHorizontal(t *testing.T) {
	elements := []layout.DiagramElement{box("a", 0, 0), box("b", 200, 50)}
	routed := Compute(elements, []layout.DiagramConnection{conn("c1", "a", "b")})

	r := routed[0]
	if r.SourceSide != layout.SideRight || r.TargetSide != layout.SideLeft {
		t.Fatalf("sides = %s/%s, want right/left", r.SourceSide, r.TargetSide)
	}
	want := []Point{{10, 5}, {105, 5}, {105, 55}, {200, 55}}
	if !reflect.DeepEqual(r.Points, want) {
		t.Errorf("points = %v, want %v", r.Points, want)
	}
}

func TestComputeLShapeMixedAxes(t *testing.T) {
	// A side hint from the layout can force mixed axes: leave through the
	// bottom, arrive on the left, one bend at the corner.
	elements := []layout.DiagramElement{box("a", 0, 0), box("b", 200, 50)}
	c := conn("c1", "a", "b")
	c.SourceSide = layout.SideBottom
	routed := Compute(elements, []layout.DiagramConnection{c})

	want := []Point{{5, 10}, {5, 55}, {200, 55}}
	if !reflect.DeepEqual(routed[0].Points, want) {
		t.Errorf("points = %v, want %v", routed[0].Points, want)
	}
}

func TestComputeSideHintsWin(t *testing.T) {
	elements := []layout.DiagramElement{box("a", 0, 0), box("b", 0, 100)}
	c := conn("c1", "a", "b")
	c.SourceSide = layout.SideLeft
	c.TargetSide = layout.SideLeft
	routed := Compute(elements, []layout.DiagramConnection{c})

	r := routed[0]
	if r.SourceSide != layout.SideLeft || r.TargetSide != layout.SideLeft {
		t.Errorf("hinted sides lost: got %s/%s", r.SourceSide, r.TargetSide)
	}
}

func TestComputeAlternativeSharesPort(t *testing.T) {
	// Three alternative flows out of one element draw as direct
	// diagonals from a single shared port.
	elements := []layout.DiagramElement{
		box("p", 50, 0),
		box("t1", 0, 100),
		box("t2", 100, 100),
		box("t3", 200, 100),
	}
	var conns []layout.DiagramConnection
	for i, tgt := range []string{"t1", "t2", "t3"} {
		c := conn(fmt.Sprintf("c%d", i+1), "p", tgt)
		c.FlowType = string(fpb.FlowAlternative)
		conns = append(conns, c)
	}

	routed := Compute(elements, conns)
	if len(routed) != 3 {
		t.Fatalf("expected 3 routed connections, got %d", len(routed))
	}
	for _, r := range routed {
		if len(r.Points) != 2 {
			t.Errorf("%s: alternative flow should be a direct segment, got %v", r.ID, r.Points)
		}
		if !r.IsDirect {
			t.Errorf("%s: alternative flow should be marked direct", r.ID)
		}
		if r.Points[0] != routed[0].Points[0] {
			t.Errorf("alternative flows should share the source port: %v vs %v",
				r.Points[0], routed[0].Points[0])
		}
	}
}

func TestComputeAlternativeAlignsToFirstSide(t *testing.T) {
	// The three targets pull the inferred source sides apart (bottom,
	// right, right); the whole group follows the first edge's side.
	elements := []layout.DiagramElement{
		box("p", 0, 0),
		box("t1", 0, 100),
		box("t2", 200, 50),
		box("t3", 200, 100),
	}
	var conns []layout.DiagramConnection
	for i, tgt := range []string{"t1", "t2", "t3"} {
		c := conn(fmt.Sprintf("c%d", i+1), "p", tgt)
		c.FlowType = string(fpb.FlowAlternative)
		conns = append(conns, c)
	}

	routed := Compute(elements, conns)
	for _, r := range routed {
		if r.SourceSide != layout.SideBottom {
			t.Errorf("%s: source side = %q, want %q (first edge's side)", r.ID, r.SourceSide, layout.SideBottom)
		}
	}
	for _, r := range routed[1:] {
		if r.Points[0] != routed[0].Points[0] {
			t.Errorf("%s: aligned flows should share the source port: %v vs %v",
				r.ID, r.Points[0], routed[0].Points[0])
		}
	}
}

func TestComputeDirectFlag(t *testing.T) {
	elements := []layout.DiagramElement{box("a", 0, 0), box("b", 100, 100)}
	alt := conn("c1", "a", "b")
	alt.FlowType = string(fpb.FlowAlternative)
	reg := conn("c2", "a", "b")

	routed := Compute(elements, []layout.DiagramConnection{alt, reg})
	if !routed[0].IsDirect {
		t.Error("alternative flow not marked direct")
	}
	if routed[1].IsDirect {
		t.Error("regular flow must not be marked direct")
	}

	data, err := json.Marshal(routed[0])
	if err != nil {
		t.Fatalf("marshal routed connection: %v", err)
	}
	if !strings.Contains(string(data), `"isDirect":true`) {
		t.Errorf("serialized connection missing isDirect flag: %s", data)
	}
}

func TestComputeDedicatedPortsOrdered(t *testing.T) {
	// Two regular flows out of one element get separate ports, ordered by
	// where their targets sit.
	elements := []layout.DiagramElement{
		box("p", 50, 0),
		box("t1", 0, 100),
		box("t2", 100, 100),
	}
	routed := Compute(elements, []layout.DiagramConnection{
		conn("c1", "p", "t1"),
		conn("c2", "p", "t2"),
	})

	p1 := routed[0].Points[0]
	p2 := routed[1].Points[0]
	if p1 == p2 {
		t.Fatal("regular flows must not share a port")
	}
	// t1 sits left of t2, so c1's port comes first along the bottom edge.
	if p1.X >= p2.X {
		t.Errorf("ports out of order: c1 at %v, c2 at %v", p1, p2)
	}
	// Ports spread evenly: 2 ports on a width-10 side at 1/3 and 2/3.
	if p1.X != 50+10*(1.0/3.0) || p2.X != 50+10*(2.0/3.0) {
		t.Errorf("port spread = %v, %v; want thirds of the side", p1.X, p2.X)
	}
}

func TestComputeDropsDangling(t *testing.T) {
	elements := []layout.DiagramElement{box("a", 0, 0)}
	routed := Compute(elements, []layout.DiagramConnection{
		conn("c1", "a", "ghost"),
		conn("c2", "ghost", "a"),
	})
	if len(routed) != 0 {
		t.Errorf("dangling connections must be dropped, got %d", len(routed))
	}
}

func TestComputeUsageHorizontal(t *testing.T) {
	// Operator to resource on its right: horizontal straight line.
	elements := []layout.DiagramElement{box("p", 0, 0), box("tr", 100, 0)}
	c := layout.DiagramConnection{ID: "u1", SourceID: "p", TargetID: "tr", IsUsage: true}
	routed := Compute(elements, []layout.DiagramConnection{c})

	r := routed[0]
	if !r.IsUsage {
		t.Error("usage flag lost in routing")
	}
	want := []Point{{10, 5}, {100, 5}}
	if !reflect.DeepEqual(r.Points, want) {
		t.Errorf("points = %v, want %v", r.Points, want)
	}
}
