package layout

import "github.com/fpbviz/fpbviz/pkg/fpb"

// connectivity holds the adjacency relations derived from one system's
// flat edge list. All maps are keyed by element ID; slices preserve the
// input flow order, which keeps downstream passes deterministic.
type connectivity struct {
	// stateSources maps a state to the operators feeding it (PO → state).
	stateSources map[string][]string
	// stateTargets maps a state to the operators it feeds (state → PO).
	stateTargets map[string][]string

	operatorInputs  map[string][]string // PO -> input state IDs
	operatorOutputs map[string][]string // PO -> output state IDs

	// resourceOperator maps a technical resource to the operator using it.
	// With multiple usages per resource the last one wins.
	resourceOperator map[string]string

	// flowRefs is the set of IDs referenced by any flow endpoint.
	flowRefs map[string]bool

	// altFlowOnlySinks is the set of states that receive only
	// alternative-type flows from operators and no regular ones. Recorded
	// for parity with the source model; the classifier does not consult it.
	altFlowOnlySinks map[string]bool
}

// buildConnectivity derives adjacency from flows and usages. Flow
// endpoints that name neither a known state/operator pair are ignored;
// malformed references never raise.
func buildConnectivity(states []fpb.State, operators []fpb.ProcessOperator, flows []fpb.Flow, usages []fpb.Usage) *connectivity {
	stateIDs := make(map[string]bool, len(states))
	for _, s := range states {
		stateIDs[s.ID] = true
	}
	operatorIDs := make(map[string]bool, len(operators))
	for _, p := range operators {
		operatorIDs[p.ID] = true
	}

	g := &connectivity{
		stateSources:     make(map[string][]string),
		stateTargets:     make(map[string][]string),
		operatorInputs:   make(map[string][]string),
		operatorOutputs:  make(map[string][]string),
		resourceOperator: make(map[string]string),
		flowRefs:         make(map[string]bool),
		altFlowOnlySinks: make(map[string]bool),
	}

	hasRegularFromPO := make(map[string]bool)
	hasAltFromPO := make(map[string]bool)

	for _, f := range flows {
		g.flowRefs[f.SourceRef] = true
		g.flowRefs[f.TargetRef] = true

		switch {
		case stateIDs[f.SourceRef] && operatorIDs[f.TargetRef]:
			g.stateTargets[f.SourceRef] = append(g.stateTargets[f.SourceRef], f.TargetRef)
			g.operatorInputs[f.TargetRef] = append(g.operatorInputs[f.TargetRef], f.SourceRef)
		case operatorIDs[f.SourceRef] && stateIDs[f.TargetRef]:
			g.stateSources[f.TargetRef] = append(g.stateSources[f.TargetRef], f.SourceRef)
			g.operatorOutputs[f.SourceRef] = append(g.operatorOutputs[f.SourceRef], f.TargetRef)

			if f.Type == fpb.FlowAlternative {
				hasAltFromPO[f.TargetRef] = true
			} else {
				hasRegularFromPO[f.TargetRef] = true
			}
		}
	}

	for id := range hasAltFromPO {
		if !hasRegularFromPO[id] {
			g.altFlowOnlySinks[id] = true
		}
	}

	for _, u := range usages {
		g.resourceOperator[u.TechnicalResourceRef] = u.ProcessOperatorRef
	}

	return g
}
