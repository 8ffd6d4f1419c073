package layout

// Element types in a computed diagram.
const (
	TypeState             = "state"
	TypeProcessOperator   = "processOperator"
	TypeTechnicalResource = "technicalResource"
)

// Sides of an element's bounding box. Used both for routing hints emitted
// by the layout engine and for port placement in the router.
const (
	SideTop    = "top"
	SideBottom = "bottom"
	SideLeft   = "left"
	SideRight  = "right"
)

// DiagramElement is the laid-out geometry for one node. Elements are
// rebuilt from scratch on every layout pass; only the ID is stable across
// recomputations.
type DiagramElement struct {
	ID         string  `json:"id" bson:"id"`
	Type       string  `json:"type" bson:"type"`
	Label      string  `json:"label" bson:"label"`
	X          float64 `json:"x" bson:"x"`
	Y          float64 `json:"y" bson:"y"`
	Width      float64 `json:"width" bson:"width"`
	Height     float64 `json:"height" bson:"height"`
	StateType  string  `json:"stateType,omitempty" bson:"state_type,omitempty"`
	LineNumber int     `json:"line_number,omitempty" bson:"line_number,omitempty"`
}

// CenterX returns the horizontal center of the element.
func (e DiagramElement) CenterX() float64 { return e.X + e.Width/2 }

// CenterY returns the vertical center of the element.
func (e DiagramElement) CenterY() float64 { return e.Y + e.Height/2 }

// DiagramConnection is an edge augmented with optional routing-side hints.
// SourceSide/TargetSide are set by the layout engine for boundary and
// feedback cases; empty values leave side inference to the router.
type DiagramConnection struct {
	ID         string `json:"id" bson:"id"`
	SourceID   string `json:"sourceId" bson:"source_id"`
	TargetID   string `json:"targetId" bson:"target_id"`
	FlowType   string `json:"flowType,omitempty" bson:"flow_type,omitempty"`
	IsUsage    bool   `json:"isUsage" bson:"is_usage"`
	SourceSide string `json:"sourceSide,omitempty" bson:"source_side,omitempty"`
	TargetSide string `json:"targetSide,omitempty" bson:"target_side,omitempty"`
}

// SystemLimitBounds is the boundary rectangle of one sub-system.
type SystemLimitBounds struct {
	ID     string  `json:"id" bson:"id"`
	Label  string  `json:"label" bson:"label"`
	X      float64 `json:"x" bson:"x"`
	Y      float64 `json:"y" bson:"y"`
	Width  float64 `json:"width" bson:"width"`
	Height float64 `json:"height" bson:"height"`
}

// DiagramData is the complete result of one layout pass. It is owned by
// the caller; the engine keeps no reference to it.
type DiagramData struct {
	Elements     []DiagramElement    `json:"elements" bson:"elements"`
	Connections  []DiagramConnection `json:"connections" bson:"connections"`
	SystemLimits []SystemLimitBounds `json:"systemLimits,omitempty" bson:"system_limits,omitempty"`
}

// Element returns the element with the given ID and true, or a zero
// element and false if not present.
func (d *DiagramData) Element(id string) (DiagramElement, bool) {
	for _, e := range d.Elements {
		if e.ID == id {
			return e, true
		}
	}
	return DiagramElement{}, false
}
