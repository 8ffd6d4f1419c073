// Package routing computes orthogonal polyline paths for diagram
// connections.
//
// The router consumes laid-out elements and raw connections from
// [github.com/fpbviz/fpbviz/pkg/layout] and produces, per connection, an
// ordered list of waypoints. Like the layout engine it is a pure
// function: same input, same paths, no shared state.
//
// Port model: every connection attaches to an element through a port on
// one of the element's four sides. Alternative flows touching the same
// element side share a single port, parallel flows likewise share one;
// regular flows and usages each get a dedicated port. Ports on one side
// are spread evenly across the side's span, ordered by where the
// opposite endpoints sit so paths do not cross near the element.
package routing

import (
	"fmt"
	"sort"

	"github.com/fpbviz/fpbviz/pkg/fpb"
	"github.com/fpbviz/fpbviz/pkg/layout"
)

// Point is one waypoint of a routed path.
type Point struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// RoutedConnection is a connection plus its computed path. Points always
// holds at least two entries, source port first. IsDirect marks the
// diagonal two-point paths of alternative flows; the renderer draws
// those as straight segments instead of orthogonal polylines.
type RoutedConnection struct {
	layout.DiagramConnection
	Points   []Point `json:"points" bson:"points"`
	IsDirect bool    `json:"isDirect" bson:"is_direct"`
}

// route is the router's working record for one connection.
type route struct {
	conn     layout.DiagramConnection
	src, tgt *layout.DiagramElement
	srcSide  string
	tgtSide  string
	srcPort  Point
	tgtPort  Point
}

// Compute routes every connection whose endpoints both exist.
// Connections referencing unknown element IDs are dropped silently, so a
// model mid-edit never breaks the render.
func Compute(elements []layout.DiagramElement, connections []layout.DiagramConnection) []RoutedConnection {
	byID := make(map[string]*layout.DiagramElement, len(elements))
	for i := range elements {
		byID[elements[i].ID] = &elements[i]
	}

	routes := make([]*route, 0, len(connections))
	for _, c := range connections {
		src, ok := byID[c.SourceID]
		if !ok {
			continue
		}
		tgt, ok := byID[c.TargetID]
		if !ok {
			continue
		}
		r := &route{conn: c, src: src, tgt: tgt}
		r.srcSide, r.tgtSide = inferSides(src, tgt)
		if c.SourceSide != "" {
			r.srcSide = c.SourceSide
		}
		if c.TargetSide != "" {
			r.tgtSide = c.TargetSide
		}
		routes = append(routes, r)
	}

	// Alignment pass: alternative flows fanning out of (or into) one
	// element must leave through one common side, or the shared port
	// below would be meaningless. Same for parallel flows.
	type alignKey struct {
		elemID   string
		isSource bool
		flowType string
	}
	aligned := make(map[alignKey][]*route)
	for _, r := range routes {
		ft := r.conn.FlowType
		if ft != string(fpb.FlowAlternative) && ft != string(fpb.FlowParallel) {
			continue
		}
		aligned[alignKey{r.conn.SourceID, true, ft}] = append(aligned[alignKey{r.conn.SourceID, true, ft}], r)
		aligned[alignKey{r.conn.TargetID, false, ft}] = append(aligned[alignKey{r.conn.TargetID, false, ft}], r)
	}
	for k, group := range aligned {
		if len(group) < 2 {
			continue
		}
		side := firstSide(group, k.isSource)
		for _, r := range group {
			if k.isSource {
				r.srcSide = side
			} else {
				r.tgtSide = side
			}
		}
	}

	// Port assignment. Endpoints on one (element, side) are bucketed
	// into port groups; alternative and parallel flows collapse into a
	// shared group each, everything else stays on its own port.
	type portKey struct {
		elemID string
		side   string
	}
	type endpoint struct {
		r        *route
		isSource bool
		group    string
	}
	ports := make(map[portKey][]endpoint)

	addEndpoint := func(r *route, isSource bool) {
		elemID, side := r.conn.TargetID, r.tgtSide
		if isSource {
			elemID, side = r.conn.SourceID, r.srcSide
		}
		role := "t"
		if isSource {
			role = "s"
		}
		var group string
		switch r.conn.FlowType {
		case string(fpb.FlowAlternative):
			group = "alt"
		case string(fpb.FlowParallel):
			group = "par"
		default:
			group = fmt.Sprintf("%s/%s", r.conn.ID, role)
		}
		k := portKey{elemID, side}
		ports[k] = append(ports[k], endpoint{r, isSource, group})
	}
	for _, r := range routes {
		addEndpoint(r, true)
		addEndpoint(r, false)
	}

	keys := make([]portKey, 0, len(ports))
	for k := range ports {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].elemID != keys[j].elemID {
			return keys[i].elemID < keys[j].elemID
		}
		return keys[i].side < keys[j].side
	})

	for _, k := range keys {
		eps := ports[k]

		groups := make(map[string][]endpoint)
		for _, ep := range eps {
			groups[ep.group] = append(groups[ep.group], ep)
		}

		// Groups are ordered by where their opposite endpoints sit
		// along the side's axis, so neighboring paths stay untangled.
		type groupPos struct {
			name string
			pos  float64
		}
		ordered := make([]groupPos, 0, len(groups))
		for name, members := range groups {
			sum := 0.0
			for _, ep := range members {
				other := ep.r.tgt
				if !ep.isSource {
					other = ep.r.src
				}
				if sideIsHorizontalSpan(k.side) {
					sum += other.CenterX()
				} else {
					sum += other.CenterY()
				}
			}
			ordered = append(ordered, groupPos{name, sum / float64(len(members))})
		}
		sort.Slice(ordered, func(i, j int) bool {
			if ordered[i].pos != ordered[j].pos {
				return ordered[i].pos < ordered[j].pos
			}
			return ordered[i].name < ordered[j].name
		})

		elem := eps[0].r.tgt
		if eps[0].isSource {
			elem = eps[0].r.src
		}
		n := len(ordered)
		for i, gp := range ordered {
			frac := float64(i+1) / float64(n+1)
			p := portPoint(elem, k.side, frac)
			for _, ep := range groups[gp.name] {
				if ep.isSource {
					ep.r.srcPort = p
				} else {
					ep.r.tgtPort = p
				}
			}
		}
	}

	// Waypoints.
	out := make([]RoutedConnection, 0, len(routes))
	for _, r := range routes {
		out = append(out, RoutedConnection{
			DiagramConnection: withSides(r.conn, r.srcSide, r.tgtSide),
			Points:            waypoints(r.conn, r.srcSide, r.tgtSide, r.srcPort, r.tgtPort),
			IsDirect:          r.conn.FlowType == string(fpb.FlowAlternative),
		})
	}
	return out
}

// firstSide returns the side inferred for the group's first connection
// in input order. The whole group follows that edge, however the rest
// would have fanned out on their own.
func firstSide(group []*route, isSource bool) string {
	if isSource {
		return group[0].srcSide
	}
	return group[0].tgtSide
}

// inferSides picks facing sides from the dominant axis between the two
// element centers. Equal offsets prefer the vertical axis, matching the
// diagram's top-to-bottom reading direction.
func inferSides(src, tgt *layout.DiagramElement) (srcSide, tgtSide string) {
	dx := tgt.CenterX() - src.CenterX()
	dy := tgt.CenterY() - src.CenterY()

	if abs(dy) >= abs(dx) {
		if dy >= 0 {
			return layout.SideBottom, layout.SideTop
		}
		return layout.SideTop, layout.SideBottom
	}
	if dx >= 0 {
		return layout.SideRight, layout.SideLeft
	}
	return layout.SideLeft, layout.SideRight
}

// waypoints builds the orthogonal polyline between two ports.
// Alternative flows draw as direct diagonals; everything else bends at
// right angles.
func waypoints(c layout.DiagramConnection, srcSide, tgtSide string, src, tgt Point) []Point {
	if c.FlowType == string(fpb.FlowAlternative) {
		return []Point{src, tgt}
	}

	srcVert := sideIsHorizontalSpan(srcSide)
	tgtVert := sideIsHorizontalSpan(tgtSide)

	switch {
	case srcVert && tgtVert:
		if src.X == tgt.X {
			return []Point{src, tgt}
		}
		midY := (src.Y + tgt.Y) / 2
		return []Point{src, {src.X, midY}, {tgt.X, midY}, tgt}
	case !srcVert && !tgtVert:
		if src.Y == tgt.Y {
			return []Point{src, tgt}
		}
		midX := (src.X + tgt.X) / 2
		return []Point{src, {midX, src.Y}, {midX, tgt.Y}, tgt}
	case srcVert:
		// Leave vertically, turn once toward the target.
		return []Point{src, {src.X, tgt.Y}, tgt}
	default:
		return []Point{src, {tgt.X, src.Y}, tgt}
	}
}

// sideIsHorizontalSpan reports whether ports on the side spread along
// the X axis (top and bottom edges).
func sideIsHorizontalSpan(side string) bool {
	return side == layout.SideTop || side == layout.SideBottom
}

// portPoint returns the point at the given fraction along one side.
func portPoint(e *layout.DiagramElement, side string, frac float64) Point {
	switch side {
	case layout.SideTop:
		return Point{e.X + e.Width*frac, e.Y}
	case layout.SideBottom:
		return Point{e.X + e.Width*frac, e.Y + e.Height}
	case layout.SideLeft:
		return Point{e.X, e.Y + e.Height*frac}
	default:
		return Point{e.X + e.Width, e.Y + e.Height*frac}
	}
}

func withSides(c layout.DiagramConnection, srcSide, tgtSide string) layout.DiagramConnection {
	c.SourceSide = srcSide
	c.TargetSide = tgtSide
	return c
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
