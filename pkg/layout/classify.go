package layout

import "github.com/fpbviz/fpbviz/pkg/fpb"

// category is a state's placement class relative to the system limit.
type category string

const (
	catBoundaryTop    category = "boundary-top"
	catBoundaryBottom category = "boundary-bottom"
	catBoundaryLeft   category = "boundary-left"
	catBoundaryRight  category = "boundary-right"
	catInternal       category = "internal"
	catDisconnected   category = "disconnected"
)

// affinity records a state's category plus the operator ranks it attaches
// to. For boundary-left/right states affiliated is the rank of the row
// the state is centered on; internal states carry the rank pair spanned
// by their flows.
type affinity struct {
	category   category
	affiliated int

	sourceRank    int // max rank among operators feeding the state
	targetRank    int // min rank among operators the state feeds
	hasSourceRank bool
	hasTargetRank bool
}

// productBoundarySide decides the boundary side for a product state in a
// multi-row layout. Products feeding the first row go top, products from
// the last row go bottom; everything in between moves to the left (input)
// or right (output) edge.
func productBoundarySide(isInput bool, rank map[string]int, connected []string, maxRank int) category {
	if isInput {
		if len(connected) > 0 && maxRank > 0 {
			minRank := rank[connected[0]]
			for _, id := range connected[1:] {
				if rank[id] < minRank {
					minRank = rank[id]
				}
			}
			if minRank > 0 {
				return catBoundaryLeft
			}
		}
		return catBoundaryTop
	}
	if len(connected) > 0 && maxRank > 0 {
		maxSrcRank := rank[connected[0]]
		for _, id := range connected[1:] {
			if rank[id] > maxSrcRank {
				maxSrcRank = rank[id]
			}
		}
		if maxSrcRank < maxRank {
			return catBoundaryRight
		}
	}
	return catBoundaryBottom
}

// classifyState assigns one of the six categories. Priority order:
// explicit directional annotation, generic boundary annotation with
// inferred side, automatic inference from source/sink topology, then
// disconnected for states with no edges at all.
func classifyState(s fpb.State, g *connectivity, rank map[string]int, maxRank int) category {
	if !g.flowRefs[s.ID] {
		return catDisconnected
	}

	srcOps := g.stateSources[s.ID]
	tgtOps := g.stateTargets[s.ID]
	isPureSource := len(tgtOps) > 0 && len(srcOps) == 0
	isPureSink := len(srcOps) > 0 && len(tgtOps) == 0
	isIntermediate := len(srcOps) > 0 && len(tgtOps) > 0

	switch s.Placement {
	case fpb.PlacementBoundaryTop:
		return catBoundaryTop
	case fpb.PlacementBoundaryBottom:
		return catBoundaryBottom
	case fpb.PlacementBoundaryLeft:
		return catBoundaryLeft
	case fpb.PlacementBoundaryRight:
		return catBoundaryRight
	case fpb.PlacementInternal:
		return catInternal
	case fpb.PlacementBoundary:
		if isPureSource {
			if s.Type == fpb.StateProduct {
				return productBoundarySide(true, rank, tgtOps, maxRank)
			}
			return catBoundaryLeft
		}
		if isPureSink {
			if s.Type == fpb.StateProduct {
				return productBoundarySide(false, rank, srcOps, maxRank)
			}
			return catBoundaryRight
		}
		if s.Type == fpb.StateProduct {
			return catBoundaryTop
		}
		return catBoundaryLeft
	}

	if isIntermediate {
		return catInternal
	}
	if isPureSource {
		if s.Type == fpb.StateProduct {
			return productBoundarySide(true, rank, tgtOps, maxRank)
		}
		return catBoundaryLeft
	}
	if isPureSink {
		if s.Type == fpb.StateProduct {
			return productBoundarySide(false, rank, srcOps, maxRank)
		}
		return catBoundaryRight
	}
	return catBoundaryTop
}

// assignAffinities classifies every state and records the operator ranks
// it attaches to.
func assignAffinities(states []fpb.State, g *connectivity, rank map[string]int, maxRank int) map[string]affinity {
	out := make(map[string]affinity, len(states))

	for _, s := range states {
		aff := affinity{category: classifyState(s, g, rank, maxRank)}
		srcOps := g.stateSources[s.ID]
		tgtOps := g.stateTargets[s.ID]

		switch aff.category {
		case catBoundaryLeft:
			if len(tgtOps) > 0 {
				aff.affiliated = rank[tgtOps[0]]
				for _, id := range tgtOps[1:] {
					if rank[id] < aff.affiliated {
						aff.affiliated = rank[id]
					}
				}
			}
		case catBoundaryRight:
			if len(srcOps) > 0 {
				aff.affiliated = rank[srcOps[0]]
				for _, id := range srcOps[1:] {
					if rank[id] > aff.affiliated {
						aff.affiliated = rank[id]
					}
				}
			}
		case catInternal:
			if len(srcOps) > 0 {
				aff.hasSourceRank = true
				aff.sourceRank = rank[srcOps[0]]
				for _, id := range srcOps[1:] {
					if rank[id] > aff.sourceRank {
						aff.sourceRank = rank[id]
					}
				}
			}
			if len(tgtOps) > 0 {
				aff.hasTargetRank = true
				aff.targetRank = rank[tgtOps[0]]
				for _, id := range tgtOps[1:] {
					if rank[id] < aff.targetRank {
						aff.targetRank = rank[id]
					}
				}
			}
			switch {
			case aff.hasSourceRank:
				aff.affiliated = aff.sourceRank
			case aff.hasTargetRank:
				aff.affiliated = aff.targetRank
			}
		}

		out[s.ID] = aff
	}

	return out
}

// spannedRanks returns the rank pair an internal state spans, defaulting
// the missing end. Forward states (src < tgt) sit in the gap between the
// two rows; anything else is a feedback state.
func (a affinity) spannedRanks() (srcRank, tgtRank int) {
	srcRank = a.affiliated
	if a.hasSourceRank {
		srcRank = a.sourceRank
	}
	tgtRank = srcRank + 1
	if a.hasTargetRank {
		tgtRank = a.targetRank
	}
	return srcRank, tgtRank
}
