// Package fpb defines the process model for VDI 3682 "Formalized Process
// Description" diagrams.
//
// A process model consists of typed nodes (states, process operators,
// technical resources), typed edges (flows between states and operators,
// usages between operators and resources) and optional sub-system
// declarations. The model is the immutable input to the layout engine in
// [github.com/fpbviz/fpbviz/pkg/layout]; nothing in this package carries
// geometry.
//
// All serialized types carry both JSON and BSON tags: JSON is the exchange
// format of the CLI and HTTP API, BSON backs the persistent document store.
package fpb

// StateType distinguishes the three kinds of State elements.
type StateType string

// State types defined by VDI 3682.
const (
	StateProduct     StateType = "product"
	StateEnergy      StateType = "energy"
	StateInformation StateType = "information"
)

// Placement is an optional hint for where a state sits relative to the
// system limit. The generic Boundary value lets the layout engine pick the
// side; the directional values pin it.
type Placement string

// Placement hints.
const (
	PlacementBoundary       Placement = "boundary"
	PlacementBoundaryTop    Placement = "boundary-top"
	PlacementBoundaryBottom Placement = "boundary-bottom"
	PlacementBoundaryLeft   Placement = "boundary-left"
	PlacementBoundaryRight  Placement = "boundary-right"
	PlacementInternal       Placement = "internal"
)

// FlowType distinguishes the flow sub-types of VDI 3682.
type FlowType string

// Flow sub-types. FlowRegular is the default when a flow declares none.
const (
	FlowRegular     FlowType = "flow"
	FlowAlternative FlowType = "alternativeFlow"
	FlowParallel    FlowType = "parallelFlow"
)

// Identification is the VDI 3682 element identification: a unique
// identifier plus optional human-readable names.
type Identification struct {
	UniqueIdent string `json:"unique_ident" bson:"unique_ident"`
	LongName    string `json:"long_name,omitempty" bson:"long_name,omitempty"`
	ShortName   string `json:"short_name,omitempty" bson:"short_name,omitempty"`
}

// State is a Product, Energy or Information element.
type State struct {
	ID             string         `json:"id" bson:"id"`
	Type           StateType      `json:"state_type" bson:"state_type"`
	Identification Identification `json:"identification" bson:"identification"`
	Label          string         `json:"label" bson:"label"`
	Placement      Placement      `json:"placement,omitempty" bson:"placement,omitempty"`
	LineNumber     int            `json:"line_number,omitempty" bson:"line_number,omitempty"`
	SystemID       string         `json:"system_id,omitempty" bson:"system_id,omitempty"`
}

// ProcessOperator is a transformation step.
type ProcessOperator struct {
	ID             string         `json:"id" bson:"id"`
	Identification Identification `json:"identification" bson:"identification"`
	Label          string         `json:"label" bson:"label"`
	LineNumber     int            `json:"line_number,omitempty" bson:"line_number,omitempty"`
	SystemID       string         `json:"system_id,omitempty" bson:"system_id,omitempty"`
}

// TechnicalResource is equipment used by a process operator.
type TechnicalResource struct {
	ID             string         `json:"id" bson:"id"`
	Identification Identification `json:"identification" bson:"identification"`
	Label          string         `json:"label" bson:"label"`
	LineNumber     int            `json:"line_number,omitempty" bson:"line_number,omitempty"`
	SystemID       string         `json:"system_id,omitempty" bson:"system_id,omitempty"`
}

// Flow is a directed edge between a State and a ProcessOperator, in either
// direction. SourceRef and TargetRef name element IDs; IDs are unique
// across all element kinds, so the endpoint kinds are recovered by lookup.
type Flow struct {
	ID         string   `json:"id" bson:"id"`
	SourceRef  string   `json:"source_ref" bson:"source_ref"`
	TargetRef  string   `json:"target_ref" bson:"target_ref"`
	Type       FlowType `json:"flow_type" bson:"flow_type"`
	LineNumber int      `json:"line_number,omitempty" bson:"line_number,omitempty"`
	SystemID   string   `json:"system_id,omitempty" bson:"system_id,omitempty"`
}

// Usage is an edge between a ProcessOperator and a TechnicalResource.
type Usage struct {
	ID                   string `json:"id" bson:"id"`
	ProcessOperatorRef   string `json:"process_operator_ref" bson:"process_operator_ref"`
	TechnicalResourceRef string `json:"technical_resource_ref" bson:"technical_resource_ref"`
	LineNumber           int    `json:"line_number,omitempty" bson:"line_number,omitempty"`
	SystemID             string `json:"system_id,omitempty" bson:"system_id,omitempty"`
}

// SystemLimit declares a named sub-system (Systemgrenze). Elements opt in
// to a sub-system via their SystemID field.
type SystemLimit struct {
	ID             string         `json:"id" bson:"id"`
	Identification Identification `json:"identification" bson:"identification"`
	Label          string         `json:"label" bson:"label"`
	LineNumber     int            `json:"line_number,omitempty" bson:"line_number,omitempty"`
}

// DisplayLabel returns the label if set, otherwise the ID.
func (s State) DisplayLabel() string {
	if s.Label != "" {
		return s.Label
	}
	return s.ID
}

// DisplayLabel returns the label if set, otherwise the ID.
func (p ProcessOperator) DisplayLabel() string {
	if p.Label != "" {
		return p.Label
	}
	return p.ID
}

// DisplayLabel returns the label if set, otherwise the ID.
func (t TechnicalResource) DisplayLabel() string {
	if t.Label != "" {
		return t.Label
	}
	return t.ID
}
