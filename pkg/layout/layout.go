// Package layout computes x,y positions for VDI 3682 process diagrams.
//
// The engine is a pure function from an immutable [fpb.ProcessModel] to
// [DiagramData]: no I/O, no shared state, no randomness. The same model
// and config always produce byte-identical geometry, so callers may cache
// results by content fingerprint and may invoke the engine concurrently.
//
// Layout strategy (top-to-bottom, per system):
//
//	Phase 0: build connectivity graph
//	Phase 1: sequence process operators into vertical ranks
//	Phase 2: classify states into 6 placement categories
//	Phase 3: assign states a rank affinity
//	Phase 4: compute coordinates (rows, operator lane, internal lanes)
//	Phase 5: compute the system limit, place boundary states on its edges
//	Phase 6: place technical resources and disconnected elements
//	Phase 7: emit connections with routing-side hints
//
// Malformed input degrades instead of failing: dangling references are
// ignored, cyclic operator precedence is forced through, and an empty
// model yields an empty result.
package layout

import (
	"sort"

	"github.com/fpbviz/fpbviz/pkg/fpb"
)

// DefaultSystemID identifies the implicit system used when the model
// declares no sub-systems.
const DefaultSystemID = "default"

const defaultSystemLabel = "System"

// Compute lays out a complete process model. When the model declares
// sub-systems, each is laid out independently and placed left to right;
// otherwise the whole model forms one implicit system.
func Compute(model *fpb.ProcessModel, cfg Config) DiagramData {
	type system struct {
		id    string // "" for the implicit default system
		label string
	}

	var systems []system
	seen := make(map[string]bool)

	for _, sl := range model.SystemLimits {
		if seen[sl.ID] {
			continue
		}
		seen[sl.ID] = true
		systems = append(systems, system{id: sl.ID, label: sl.Label})
	}

	addDiscovered := func(sid string) {
		if sid == "" || seen[sid] {
			return
		}
		seen[sid] = true
		systems = append(systems, system{id: sid, label: sid})
	}
	hasUnassigned := false
	for _, s := range model.States {
		addDiscovered(s.SystemID)
		hasUnassigned = hasUnassigned || s.SystemID == ""
	}
	for _, p := range model.ProcessOperators {
		addDiscovered(p.SystemID)
		hasUnassigned = hasUnassigned || p.SystemID == ""
	}
	for _, t := range model.TechnicalResources {
		addDiscovered(t.SystemID)
		hasUnassigned = hasUnassigned || t.SystemID == ""
	}
	if (hasUnassigned && !seen[""]) || len(systems) == 0 {
		systems = append(systems, system{id: "", label: defaultSystemLabel})
	}

	systemGap := cfg.HGap * 3

	var out DiagramData
	offsetX := 0.0

	for _, sys := range systems {
		in := filterSystem(model, sys.id)
		if len(in.states) == 0 && len(in.operators) == 0 && len(in.resources) == 0 {
			continue
		}

		elems, conns, sl := computeSystem(in, cfg, offsetX)

		if sl != nil {
			sl.ID = sys.id
			if sl.ID == "" {
				sl.ID = DefaultSystemID
			}
			sl.Label = sys.label
			out.SystemLimits = append(out.SystemLimits, *sl)
			offsetX = sl.X + sl.Width + systemGap
		} else if len(elems) > 0 {
			maxX := elems[0].X + elems[0].Width
			for _, e := range elems[1:] {
				if e.X+e.Width > maxX {
					maxX = e.X + e.Width
				}
			}
			offsetX = maxX + systemGap
		}

		out.Elements = append(out.Elements, elems...)
		out.Connections = append(out.Connections, conns...)
	}

	return out
}

// systemInput is one sub-system's slice of the model.
type systemInput struct {
	states    []fpb.State
	operators []fpb.ProcessOperator
	resources []fpb.TechnicalResource
	flows     []fpb.Flow
	usages    []fpb.Usage
}

func filterSystem(model *fpb.ProcessModel, sid string) systemInput {
	var in systemInput
	for _, s := range model.States {
		if s.SystemID == sid {
			in.states = append(in.states, s)
		}
	}
	for _, p := range model.ProcessOperators {
		if p.SystemID == sid {
			in.operators = append(in.operators, p)
		}
	}
	for _, t := range model.TechnicalResources {
		if t.SystemID == sid {
			in.resources = append(in.resources, t)
		}
	}
	for _, f := range model.Flows {
		if f.SystemID == sid {
			in.flows = append(in.flows, f)
		}
	}
	for _, u := range model.Usages {
		if u.SystemID == sid {
			in.usages = append(in.usages, u)
		}
	}
	return in
}

// gapKey identifies the vertical gap between two operator ranks.
type gapKey struct{ src, tgt int }

// computeSystem runs the phase pipeline for one system with a local X
// origin. The returned limit is nil when the system has nothing to
// enclose.
func computeSystem(in systemInput, cfg Config, offsetX float64) ([]DiagramElement, []DiagramConnection, *SystemLimitBounds) {
	// A system with neither states nor operators has no core content;
	// resources alone do not earn a limit or a placement.
	if len(in.states) == 0 && len(in.operators) == 0 {
		return nil, nil, nil
	}

	// Phase 0: connectivity.
	g := buildConnectivity(in.states, in.operators, in.flows, in.usages)

	// Operators untouched by any flow are laid out in the disconnected
	// row, except when the system has no flows at all: then the operator
	// block itself is the core content.
	var rowOperators, disconnectedOps []fpb.ProcessOperator
	if len(in.flows) == 0 {
		rowOperators = in.operators
	} else {
		for _, p := range in.operators {
			if g.flowRefs[p.ID] {
				rowOperators = append(rowOperators, p)
			} else {
				disconnectedOps = append(disconnectedOps, p)
			}
		}
	}

	// Phase 1: vertical ranks.
	order, rank := sequenceOperators(rowOperators, in.states, g)
	maxRank := len(order) - 1

	// Phases 2+3: categories and rank affinities.
	affinities := assignAffinities(in.states, g, rank, maxRank)

	var boundaryTop, boundaryBottom, internals, disconnectedStates []fpb.State
	boundaryLeft := make(map[int][]fpb.State)
	boundaryRight := make(map[int][]fpb.State)

	for _, s := range in.states {
		aff := affinities[s.ID]
		switch aff.category {
		case catBoundaryTop:
			boundaryTop = append(boundaryTop, s)
		case catBoundaryBottom:
			boundaryBottom = append(boundaryBottom, s)
		case catBoundaryLeft:
			boundaryLeft[aff.affiliated] = append(boundaryLeft[aff.affiliated], s)
		case catBoundaryRight:
			boundaryRight[aff.affiliated] = append(boundaryRight[aff.affiliated], s)
		case catInternal:
			internals = append(internals, s)
		default:
			disconnectedStates = append(disconnectedStates, s)
		}
	}

	// Split internals into forward (gap between rows) and backward
	// (feedback lane) groups.
	internalsByGap := make(map[gapKey][]fpb.State)
	var backward []fpb.State
	for _, s := range internals {
		srcRank, tgtRank := affinities[s.ID].spannedRanks()
		if srcRank < tgtRank {
			k := gapKey{srcRank, tgtRank}
			internalsByGap[k] = append(internalsByGap[k], s)
		} else {
			backward = append(backward, s)
		}
	}
	hasIntermediatesBelow := make(map[int]bool)
	for k := range internalsByGap {
		hasIntermediatesBelow[k.src] = true
	}

	// Phase 4: coordinates.
	var elements []DiagramElement

	startX := offsetX + cfg.Padding
	startY := cfg.Padding

	currentY := startY
	if len(boundaryTop) > 0 {
		currentY += stateH + cfg.VGap
	}

	rowY := make(map[int]float64, maxRank+1)
	for r := 0; r <= maxRank; r++ {
		sideCount := len(boundaryLeft[r])
		if n := len(boundaryRight[r]); n > sideCount {
			sideCount = n
		}
		sideHeight := 0.0
		if sideCount > 0 {
			sideHeight = float64(sideCount)*(stateH+cfg.HGap) - cfg.HGap
		}
		rowHeight := sideHeight
		if rowHeight < processH {
			rowHeight = processH
		}

		rowY[r] = currentY + (rowHeight-processH)/2
		currentY += rowHeight

		switch {
		case hasIntermediatesBelow[r]:
			currentY += internalVGap + stateH + internalVGap
		case r < maxRank:
			currentY += cfg.VGap
		}
	}

	// The operator lane sits right of the reserved margin for
	// boundary-left states and the feedback lane.
	leftSpace := 0.0
	if len(boundaryLeft) > 0 {
		leftSpace += stateMaxW + cfg.HGap
	}
	if len(backward) > 0 {
		leftSpace += stateMaxW + cfg.HGap
	}
	coreLeftX := startX + leftSpace
	laneCenterX := coreLeftX + processW/2

	operatorByID := make(map[string]fpb.ProcessOperator, len(rowOperators))
	for _, p := range rowOperators {
		operatorByID[p.ID] = p
	}
	operatorElems := make(map[string]DiagramElement, len(order))
	for _, id := range order {
		p := operatorByID[id]
		el := DiagramElement{
			ID: p.ID, Type: TypeProcessOperator, Label: p.Label,
			X: coreLeftX, Y: rowY[rank[id]],
			Width: processW, Height: processH,
			LineNumber: p.LineNumber,
		}
		elements = append(elements, el)
		operatorElems[p.ID] = el
	}

	// Forward internal states, centered in the gap below their source
	// row. Targets further than one row down are clamped to the next row
	// for vertical centering.
	gaps := make([]gapKey, 0, len(internalsByGap))
	for k := range internalsByGap {
		gaps = append(gaps, k)
	}
	sort.Slice(gaps, func(i, j int) bool {
		if gaps[i].src != gaps[j].src {
			return gaps[i].src < gaps[j].src
		}
		return gaps[i].tgt < gaps[j].tgt
	})
	for _, k := range gaps {
		group := internalsByGap[k]
		tgt := k.tgt
		if tgt > k.src+1 {
			tgt = k.src + 1
		}
		midY := (rowY[k.src]+processH+rowY[tgt])/2 - stateH/2
		xs := distributeCentered(len(group), stateMaxW, cfg.HGap, laneCenterX)
		for i, s := range group {
			elements = append(elements, stateElement(s, xs[i], midY))
		}
	}

	// Feedback states get their own lane left of the operator column,
	// spanning the rows their flows connect.
	backwardIDs := make(map[string]bool, len(backward))
	if len(backward) > 0 {
		feedbackX := coreLeftX - stateMaxW - cfg.HGap
		for _, s := range backward {
			backwardIDs[s.ID] = true
			aff := affinities[s.ID]
			srcRank, tgtRank := 0, 0
			if aff.hasSourceRank {
				srcRank = aff.sourceRank
			}
			if aff.hasTargetRank {
				tgtRank = aff.targetRank
			}
			minR, maxR := srcRank, tgtRank
			if minR > maxR {
				minR, maxR = maxR, minR
			}
			midY := (rowY[minR]+processH+rowY[maxR])/2 - stateH/2
			elements = append(elements, stateElement(s, feedbackX, midY))
		}
	}

	// Phase 5: system limit around operators and internal states,
	// including the horizontal overhang of internal state labels.
	internalIDs := make(map[string]bool, len(internals))
	for _, s := range internals {
		internalIDs[s.ID] = true
	}

	var limit *SystemLimitBounds
	haveCore := false
	var minX, minY, maxX, maxY float64
	for _, e := range elements {
		if e.Type != TypeProcessOperator && !internalIDs[e.ID] {
			continue
		}
		left, right := e.X, e.X+e.Width
		if e.Type == TypeState {
			over := labelOverhangX(e.Label)
			left -= over
			right += over
		}
		if !haveCore {
			minX, minY, maxX, maxY = left, e.Y, right, e.Y+e.Height
			haveCore = true
			continue
		}
		minX = minF(minX, left)
		minY = minF(minY, e.Y)
		maxX = maxF(maxX, right)
		maxY = maxF(maxY, e.Y+e.Height)
	}

	if haveCore || len(boundaryTop) > 0 || len(boundaryBottom) > 0 {
		if !haveCore {
			minX, minY = coreLeftX, startY
			maxX, maxY = coreLeftX+processW, startY+processH
		}

		if len(boundaryLeft) > 0 {
			minX -= stateMaxW/2 + cfg.HGap
		}
		if len(boundaryRight) > 0 {
			maxX += stateMaxW/2 + cfg.HGap
		}

		topW := stackWidth(len(boundaryTop), cfg.HGap)
		botW := stackWidth(len(boundaryBottom), cfg.HGap)
		if bw := maxF(topW, botW); bw > maxX-minX {
			extra := (bw - (maxX - minX)) / 2
			minX -= extra
			maxX += extra
		}

		if len(boundaryTop) > 0 {
			minY -= boundaryExtraV
		}
		if len(boundaryBottom) > 0 {
			maxY += boundaryExtraV
		}

		slp := cfg.SystemLimitPadding
		limit = &SystemLimitBounds{
			X: minX - slp, Y: minY - slp,
			Width:  maxX - minX + slp*2,
			Height: maxY - minY + slp*2,
		}
	}

	// Boundary states straddle the limit's edges: top/bottom centered on
	// the horizontal middle, left/right centered on their row.
	if limit != nil {
		centerX := limit.X + limit.Width/2

		if len(boundaryTop) > 0 {
			y := limit.Y - stateH/2
			xs := distributeCentered(len(boundaryTop), stateMaxW, cfg.HGap, centerX)
			for i, s := range boundaryTop {
				elements = append(elements, stateElement(s, xs[i], y))
			}
		}
		if len(boundaryBottom) > 0 {
			y := limit.Y + limit.Height - stateH/2
			xs := distributeCentered(len(boundaryBottom), stateMaxW, cfg.HGap, centerX)
			for i, s := range boundaryBottom {
				elements = append(elements, stateElement(s, xs[i], y))
			}
		}

		leftX := limit.X - stateMaxW/2
		for _, r := range sortedRanks(boundaryLeft) {
			rowCenterY := rowY[r] + processH/2
			ys := distributeCentered(len(boundaryLeft[r]), stateH, cfg.HGap, rowCenterY)
			for i, s := range boundaryLeft[r] {
				elements = append(elements, stateElement(s, leftX, ys[i]))
			}
		}

		rightX := limit.X + limit.Width - stateMaxW/2
		for _, r := range sortedRanks(boundaryRight) {
			rowCenterY := rowY[r] + processH/2
			ys := distributeCentered(len(boundaryRight[r]), stateH, cfg.HGap, rowCenterY)
			for i, s := range boundaryRight[r] {
				elements = append(elements, stateElement(s, rightX, ys[i]))
			}
		}
	}

	// Phase 6: technical resources right of the limit, aligned with the
	// operator they serve; unattached resources stack below each other.
	resourceX := coreLeftX + processW + cfg.ResourceOffsetX*2
	if limit != nil {
		resourceX = limit.X + limit.Width + cfg.ResourceOffsetX
	}
	for i, tr := range in.resources {
		var y float64
		if po, ok := operatorElems[g.resourceOperator[tr.ID]]; ok {
			y = po.Y + (po.Height-resourceH)/2
		} else {
			base, ok := rowY[0]
			if !ok {
				base = startY
			}
			y = base + float64(i)*(resourceH+cfg.HGap)
		}
		elements = append(elements, DiagramElement{
			ID: tr.ID, Type: TypeTechnicalResource, Label: tr.Label,
			X: resourceX, Y: y,
			Width: resourceW, Height: resourceH,
			LineNumber: tr.LineNumber,
		})
	}

	// Disconnected elements go in a simple row below everything else.
	if len(disconnectedStates) > 0 || len(disconnectedOps) > 0 {
		bottom := startY
		for _, e := range elements {
			bottom = maxF(bottom, e.Y+e.Height)
		}
		y := bottom + cfg.VGap
		x := startX
		for _, s := range disconnectedStates {
			elements = append(elements, stateElement(s, x, y))
			x += stateMaxW + cfg.HGap
		}
		for _, p := range disconnectedOps {
			elements = append(elements, DiagramElement{
				ID: p.ID, Type: TypeProcessOperator, Label: p.Label,
				X: x, Y: y,
				Width: processW, Height: processH,
				LineNumber: p.LineNumber,
			})
			x += processW + cfg.HGap
		}
	}

	// Phase 7: connections with routing-side hints.
	boundaryTopIDs := idSet(boundaryTop)
	boundaryBottomIDs := idSet(boundaryBottom)

	connections := make([]DiagramConnection, 0, len(in.flows)+len(in.usages))
	for _, f := range in.flows {
		conn := DiagramConnection{
			ID:       f.ID,
			SourceID: f.SourceRef,
			TargetID: f.TargetRef,
			FlowType: string(flowTypeOrDefault(f.Type)),
		}

		// Boundary-top states always leave through their bottom edge,
		// boundary-bottom states are always entered from the top.
		if boundaryTopIDs[f.SourceRef] {
			conn.SourceSide = SideBottom
		}
		if boundaryBottomIDs[f.TargetRef] {
			conn.TargetSide = SideTop
		}

		// Feedback flows hug the left lane.
		if backwardIDs[f.TargetRef] {
			conn.SourceSide = SideLeft
			conn.TargetSide = SideBottom
		} else if backwardIDs[f.SourceRef] {
			conn.SourceSide = SideTop
			conn.TargetSide = SideLeft
		}

		connections = append(connections, conn)
	}
	for _, u := range in.usages {
		connections = append(connections, DiagramConnection{
			ID:       u.ID,
			SourceID: u.ProcessOperatorRef,
			TargetID: u.TechnicalResourceRef,
			IsUsage:  true,
		})
	}

	return elements, connections, limit
}

// distributeCentered returns the leading coordinates of count items of
// itemSize separated by gap, centered around center.
func distributeCentered(count int, itemSize, gap, center float64) []float64 {
	if count == 0 {
		return nil
	}
	total := float64(count)*itemSize + float64(count-1)*gap
	start := center - total/2
	out := make([]float64, count)
	for i := range out {
		out[i] = start + float64(i)*(itemSize+gap)
	}
	return out
}

func stateElement(s fpb.State, x, y float64) DiagramElement {
	return DiagramElement{
		ID: s.ID, Type: TypeState, Label: s.Label,
		X: x, Y: y,
		Width: stateMaxW, Height: stateH,
		StateType:  string(s.Type),
		LineNumber: s.LineNumber,
	}
}

func stackWidth(count int, gap float64) float64 {
	if count == 0 {
		return 0
	}
	return float64(count)*(stateMaxW+gap) - gap
}

func sortedRanks(m map[int][]fpb.State) []int {
	ranks := make([]int, 0, len(m))
	for r := range m {
		ranks = append(ranks, r)
	}
	sort.Ints(ranks)
	return ranks
}

func idSet(states []fpb.State) map[string]bool {
	m := make(map[string]bool, len(states))
	for _, s := range states {
		m[s.ID] = true
	}
	return m
}

func flowTypeOrDefault(t fpb.FlowType) fpb.FlowType {
	if t == "" {
		return fpb.FlowRegular
	}
	return t
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
