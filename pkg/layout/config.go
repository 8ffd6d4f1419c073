package layout

// Config holds the spacing parameters of the layout algorithm. The zero
// value is not usable; start from DefaultConfig and override fields as
// needed. The engine has no other tunables — every call receives its
// Config explicitly, there is no ambient global state.
type Config struct {
	// Padding is the outer margin around all content of one system.
	Padding float64 `json:"padding" toml:"padding"`

	// HGap is the horizontal gap between sibling elements.
	HGap float64 `json:"h_gap" toml:"h_gap"`

	// VGap is the vertical gap between operator rows.
	VGap float64 `json:"v_gap" toml:"v_gap"`

	// SystemLimitPadding is the margin between the core content and the
	// system-limit rectangle.
	SystemLimitPadding float64 `json:"system_limit_padding" toml:"system_limit_padding"`

	// ResourceOffsetX is the gap between the system-limit rectangle and
	// technical resources placed to its right.
	ResourceOffsetX float64 `json:"resource_offset_x" toml:"resource_offset_x"`
}

// DefaultConfig returns the documented default spacing.
func DefaultConfig() Config {
	return Config{
		Padding:            40,
		HGap:               40,
		VGap:               80,
		SystemLimitPadding: 50,
		ResourceOffsetX:    40,
	}
}

// Element dimensions. These match the renderer's design tokens; the
// engine treats them as fixed shape sizes, labels render outside the
// shape.
const (
	stateMaxW = 55
	stateH    = 50
	processW  = 150
	processH  = 80
	resourceW = 150
	resourceH = 80

	// internalVGap is the gap reserved above and below a lane of
	// intermediate states between two operator rows.
	internalVGap = 40

	// boundaryExtraV is the extra vertical clearance inside the system
	// limit when boundary states straddle its top or bottom edge.
	boundaryExtraV = 40

	// labelCharW approximates the rendered width of one label character.
	// State labels render above the shape; their horizontal overhang is
	// folded into the system-limit bounds so labels are never clipped.
	labelCharW = 7
)

// labelOverhangX returns how far a state label sticks out horizontally on
// each side of the state shape. Labels are centered over the shape.
func labelOverhangX(label string) float64 {
	w := float64(len(label)) * labelCharW
	if w <= stateMaxW {
		return 0
	}
	return (w - stateMaxW) / 2
}
