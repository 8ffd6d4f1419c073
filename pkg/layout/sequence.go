package layout

import (
	"slices"

	"github.com/fpbviz/fpbviz/pkg/fpb"
)

// sequenceOperators topologically orders process operators into vertical
// ranks. Precedence between two operators exists when an intermediate
// state is output of one and input of the other.
//
// Each operator receives its own rank equal to its position in the
// emitted order, so operators that share a topological level still land
// on distinct rows, in ascending ID order. Cycles never stall the sort:
// when no operator has zero remaining in-degree, the candidate with the
// lowest remaining in-degree (ties by ID) is forced through. The loop
// terminates after exactly len(operators) emissions.
func sequenceOperators(operators []fpb.ProcessOperator, states []fpb.State, g *connectivity) (order []string, rank map[string]int) {
	operatorIDs := make(map[string]bool, len(operators))
	for _, p := range operators {
		operatorIDs[p.ID] = true
	}

	successors := make(map[string]map[string]bool, len(operators))
	inDegree := make(map[string]int, len(operators))
	for _, p := range operators {
		successors[p.ID] = make(map[string]bool)
		inDegree[p.ID] = 0
	}

	for _, s := range states {
		srcOps := g.stateSources[s.ID]
		tgtOps := g.stateTargets[s.ID]
		if len(srcOps) == 0 || len(tgtOps) == 0 {
			continue
		}
		for _, src := range srcOps {
			for _, tgt := range tgtOps {
				if src == tgt || !operatorIDs[src] || !operatorIDs[tgt] {
					continue
				}
				if !successors[src][tgt] {
					successors[src][tgt] = true
					inDegree[tgt]++
				}
			}
		}
	}

	order = make([]string, 0, len(operators))
	rank = make(map[string]int, len(operators))
	remaining := make(map[string]bool, len(operators))
	for _, p := range operators {
		remaining[p.ID] = true
	}

	for len(remaining) > 0 {
		var ready []string
		for id := range remaining {
			if inDegree[id] == 0 {
				ready = append(ready, id)
			}
		}
		slices.Sort(ready)

		if len(ready) == 0 {
			// Cycle: force the candidate with the lowest remaining
			// in-degree, ties broken by ID.
			var pick string
			for id := range remaining {
				if pick == "" || inDegree[id] < inDegree[pick] ||
					(inDegree[id] == inDegree[pick] && id < pick) {
					pick = id
				}
			}
			ready = []string{pick}
		}

		for _, id := range ready {
			rank[id] = len(order)
			order = append(order, id)
			delete(remaining, id)
			for succ := range successors[id] {
				if remaining[succ] {
					inDegree[succ]--
				}
			}
		}
	}

	return order, rank
}
