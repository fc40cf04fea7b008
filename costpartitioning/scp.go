// Package costpartitioning implements the cost-partitioning engines of
// spec.md §4.9 (component L): saturated cost partitioning (SCP), zero-one
// cost partitioning, post-hoc optimization and optimal LP-based cost
// partitioning (both via gonum's LP solver), order generators, and the
// Diversifier. Grounded on pdb.Projection's backward-Dijkstra goal
// distances as the "per-abstraction heuristic" SCP consumes, and on this
// module's functional-options convention for engine configuration.
package costpartitioning

import (
	"math"
	"math/rand"
	"sort"

	"github.com/katalvlaran/cegarh/pdb"
	"github.com/katalvlaran/cegarh/task"
)

// Inf/NegInf mirror pdb.Inf/pdb.NegInf for cost-partitioning arithmetic.
const (
	Inf    int64 = math.MaxInt64
	NegInf int64 = math.MinInt64
)

// PerStateHeuristic is one abstraction's lookup table, indexed by its own
// abstract-state/pattern rank (pdb.Projection.GoalDistance's domain).
type PerStateHeuristic struct {
	Ranker func(state []int) int
	Values []int64 // Values[rank] == Inf means unsolvable from that rank
}

// Eval returns the heuristic value for a concrete state under this table.
func (h PerStateHeuristic) Eval(state []int) int64 {
	return h.Values[h.Ranker(state)]
}

// CostPartitioningHeuristic is one emitted order's result: one
// PerStateHeuristic per projection in the order. Every projection gets a
// table, including one whose values are all zero.
type CostPartitioningHeuristic struct {
	Tables []PerStateHeuristic
}

// Eval sums every table's contribution for state, returning Inf if any
// table does.
func (cp CostPartitioningHeuristic) Eval(state []int) int64 {
	var total int64
	for _, t := range cp.Tables {
		v := t.Eval(state)
		if v == Inf {
			return Inf
		}
		total += v
	}
	return total
}

// clampSub computes remaining - sat with spec.md §4.9's saturating rules:
// "saturating at 0; INF stays INF; -INF lifts remaining to INF".
func clampSub(remaining, sat int64) int64 {
	if remaining == Inf {
		return Inf
	}
	if sat == NegInf {
		return Inf
	}
	if sat == Inf {
		return 0
	}
	r := remaining - sat
	if r < 0 {
		r = 0
	}
	return r
}

// SaturatedCostPartitioning runs the algorithm of spec.md §4.9 over
// projections in the given order, threading remaining per-operator cost
// through each. Returns one CostPartitioningHeuristic.
func SaturatedCostPartitioning(t task.PlanningTask, projections []*pdb.Projection, order []int, useGeneralCosts bool) CostPartitioningHeuristic {
	remaining := make([]int64, t.NumOperators())
	for o := range remaining {
		remaining[o] = int64(t.OperatorCost(o))
	}

	cp := CostPartitioningHeuristic{Tables: make([]PerStateHeuristic, 0, len(order))}
	for _, i := range order {
		p := projections[i]
		h := make([]int64, p.NumStates())
		for r := 0; r < p.NumStates(); r++ {
			h[r] = p.GoalDistance(r)
		}
		sat := p.SaturatedCosts(useGeneralCosts)
		for o, s := range sat {
			remaining[o] = clampSub(remaining[o], s)
		}
		cp.Tables = append(cp.Tables, PerStateHeuristic{Ranker: p.Rank, Values: h})
	}
	return cp
}

// ZeroOneCostPartitioning implements spec.md §4.9's zero-one variant: each
// operator's entire cost goes to the first projection in order that
// induces a non-loop transition on it; every later projection in the order sees
// that operator at cost 0. Unlike SCP's continuous remaining-cost
// threading (fractional saturation), an operator's cost is never split
// across two projections.
func ZeroOneCostPartitioning(t task.PlanningTask, projections []*pdb.Projection, order []int) CostPartitioningHeuristic {
	claimed := make([]bool, t.NumOperators())
	cp := CostPartitioningHeuristic{Tables: make([]PerStateHeuristic, 0, len(order))}

	for _, i := range order {
		p := projections[i]
		costs := make([]int64, t.NumOperators())
		for o := range costs {
			if !claimed[o] {
				costs[o] = int64(t.OperatorCost(o))
			}
		}
		h := p.GoalDistancesWithCosts(costs)

		for _, e := range p.Edges() {
			claimed[e.Op] = true
		}
		cp.Tables = append(cp.Tables, PerStateHeuristic{Ranker: p.Rank, Values: h})
	}
	return cp
}

// OrderRandom returns a uniformly shuffled permutation of
// [0,numProjections).
func OrderRandom(numProjections int, rng *rand.Rand) []int {
	order := make([]int, numProjections)
	for i := range order {
		order[i] = i
	}
	rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	return order
}

// OrderGreedy sorts projections by h(initialState)/usedCost descending
// (stolen-cost-ratio metric), computed once up front (spec.md §4.9).
func OrderGreedy(t task.PlanningTask, projections []*pdb.Projection, initialState []int, useGeneralCosts bool) []int {
	type scored struct {
		idx   int
		ratio float64
	}
	scores := make([]scored, len(projections))
	for i, p := range projections {
		h := float64(p.Heuristic(initialState))
		used := usedCost(t, p, useGeneralCosts)
		ratio := h
		if used > 0 {
			ratio = h / used
		}
		scores[i] = scored{idx: i, ratio: ratio}
	}
	sort.Slice(scores, func(i, j int) bool { return scores[i].ratio > scores[j].ratio })
	order := make([]int, len(projections))
	for i, s := range scores {
		order[i] = s.idx
	}
	return order
}

func usedCost(t task.PlanningTask, p *pdb.Projection, useGeneralCosts bool) float64 {
	sat := p.SaturatedCosts(useGeneralCosts)
	var total float64
	for o, s := range sat {
		if s != pdb.NegInf && s > 0 {
			total += float64(s)
		}
		_ = o
	}
	return total
}

// OrderDynamicGreedy recomputes the greedy ratio after every pick against
// the remaining (post-saturation) cost vector, per spec.md §4.9.
func OrderDynamicGreedy(t task.PlanningTask, projections []*pdb.Projection, initialState []int, useGeneralCosts bool) []int {
	remaining := make([]int64, t.NumOperators())
	for o := range remaining {
		remaining[o] = int64(t.OperatorCost(o))
	}
	picked := make([]bool, len(projections))
	order := make([]int, 0, len(projections))

	for len(order) < len(projections) {
		best, bestRatio := -1, math.Inf(-1)
		for i, p := range projections {
			if picked[i] {
				continue
			}
			h := float64(p.Heuristic(initialState))
			sat := p.SaturatedCosts(useGeneralCosts)
			used := 0.0
			for o, s := range sat {
				if s != pdb.NegInf && s > 0 && remaining[o] > 0 {
					used += math.Min(float64(s), float64(remaining[o]))
				}
			}
			ratio := h
			if used > 0 {
				ratio = h / used
			}
			if ratio > bestRatio {
				best, bestRatio = i, ratio
			}
		}
		picked[best] = true
		order = append(order, best)
		sat := projections[best].SaturatedCosts(useGeneralCosts)
		for o, s := range sat {
			remaining[o] = clampSub(remaining[o], s)
		}
	}
	return order
}
