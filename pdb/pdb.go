// Package pdb implements Projection (pattern database), spec.md §4.8,
// component J: a subordinate abstraction family keyed by a variable
// pattern P ⊆ V, with goal distances computed by backward Dijkstra and
// saturated per-operator costs derived from those distances. Grounded on
// the same dijkstra heap idiom as package spt, here over dense mixed-radix
// integer ranks instead of abstract-state ids from a RefinementHierarchy.
package pdb

import (
	"container/heap"
	"errors"
	"math"

	"github.com/katalvlaran/cegarh/task"
)

// Inf/NegInf are the saturated-cost sentinels of spec.md §4.8/§4.9:
// "0 on looping operators and −∞ on operators with no non-loop
// transition"; Inf marks goal-distance unreachability.
const (
	Inf    = math.MaxInt64
	NegInf = math.MinInt64
)

// ErrEmptyPattern is returned by New when pattern is empty.
var ErrEmptyPattern = errors.New("pdb: pattern must be non-empty")

// Projection is a pattern database over pattern (sorted, unique variable
// indices). Its abstract states are dense ranks in mixed-radix order over
// the pattern's variable domains.
type Projection struct {
	t           task.PlanningTask
	pattern     []int
	domainSizes []int
	multipliers []int
	numStates   int
	patternIdx  map[int]int // original var -> position in pattern

	outgoing [][]edge
	loops    [][]int // operator ids self-looping at each rank
	goalDist []int64
}

type edge struct {
	op     int
	target int
}

// New builds the projection over pattern: enumerates every abstract
// state, applies every operator applicable in it (progression) to build
// the forward transition graph, then runs backward Dijkstra from the
// abstract goal states. Returns task.ErrOverflow if the pattern's state
// space exceeds the 32-bit range. Complexity: O(|pattern-state-space| * |O|).
func New(t task.PlanningTask, pattern []int) (*Projection, error) {
	if len(pattern) == 0 {
		return nil, ErrEmptyPattern
	}
	p := &Projection{t: t, pattern: append([]int(nil), pattern...), patternIdx: map[int]int{}}
	for i, v := range p.pattern {
		p.patternIdx[v] = i
	}
	p.domainSizes = make([]int, len(p.pattern))
	p.multipliers = make([]int, len(p.pattern))
	mult := 1
	for i, v := range p.pattern {
		p.domainSizes[i] = t.DomainSize(v)
		p.multipliers[i] = mult
		if p.domainSizes[i] > 0 && mult > math.MaxInt32/p.domainSizes[i] {
			return nil, task.ErrOverflow
		}
		mult *= p.domainSizes[i]
	}
	p.numStates = mult

	p.buildTransitions()
	p.backwardDijkstra()
	return p, nil
}

// Rank projects a full concrete state (indexed by the original task's
// variables) onto this pattern's dense rank.
func (p *Projection) Rank(state []int) int {
	r := 0
	for i, v := range p.pattern {
		r += state[v] * p.multipliers[i]
	}
	return r
}

func (p *Projection) decode(rank int) []int {
	vals := make([]int, len(p.pattern))
	for i := len(p.pattern) - 1; i >= 0; i-- {
		vals[i] = rank / p.multipliers[i]
		rank -= vals[i] * p.multipliers[i]
	}
	return vals
}

func (p *Projection) encode(vals []int) int {
	r := 0
	for i, x := range vals {
		r += x * p.multipliers[i]
	}
	return r
}

// NumStates returns the size of this pattern's abstract state space.
func (p *Projection) NumStates() int { return p.numStates }

// Edge is a non-loop forward transition src -(op)-> Target, exposed for
// cost-partitioning engines (costpartitioning.OptimalCostPartitioning's
// distance-propagation LP constraints) that need this projection's raw
// transition graph rather than just its precomputed goal distances.
type Edge struct {
	Src    int
	Op     int
	Target int
}

// Edges returns every non-loop transition in this projection's graph.
func (p *Projection) Edges() []Edge {
	var out []Edge
	for src, edges := range p.outgoing {
		for _, e := range edges {
			out = append(out, Edge{Src: src, Op: e.op, Target: e.target})
		}
	}
	return out
}

// GoalRanks returns every rank consistent with the task's goal facts (the
// anchors a backward shortest-path computation, or its LP dual, fixes at
// distance 0).
func (p *Projection) GoalRanks() []int { return p.goalRanks() }

// buildTransitions enumerates every rank and applies every operator whose
// pattern preconditions hold there, building outgoing[]/loops[].
func (p *Projection) buildTransitions() {
	p.outgoing = make([][]edge, p.numStates)
	p.loops = make([][]int, p.numStates)

	for r := 0; r < p.numStates; r++ {
		vals := p.decode(r)
		for o := 0; o < p.t.NumOperators(); o++ {
			if !p.preconditionHolds(o, vals) {
				continue
			}
			next := p.applyEffects(o, vals)
			r2 := p.encode(next)
			if r2 == r {
				p.loops[r] = append(p.loops[r], o)
			} else {
				p.outgoing[r] = append(p.outgoing[r], edge{op: o, target: r2})
			}
		}
	}
}

func (p *Projection) preconditionHolds(o int, vals []int) bool {
	for _, f := range p.t.Preconditions(o) {
		if idx, ok := p.patternIdx[f.Var]; ok && vals[idx] != f.Value {
			return false
		}
	}
	return true
}

func (p *Projection) applyEffects(o int, vals []int) []int {
	out := append([]int(nil), vals...)
	for _, f := range p.t.Effects(o) {
		if idx, ok := p.patternIdx[f.Var]; ok {
			out[idx] = f.Value
		}
	}
	return out
}

// goalRanks returns every rank consistent with the goal facts that
// constrain a pattern variable; variables outside the pattern are
// unconstrained (every value of that position is accepted).
func (p *Projection) goalRanks() []int {
	constrained := map[int]int{}
	for _, f := range p.t.Goal() {
		if idx, ok := p.patternIdx[f.Var]; ok {
			constrained[idx] = f.Value
		}
	}
	var out []int
	for r := 0; r < p.numStates; r++ {
		vals := p.decode(r)
		ok := true
		for idx, val := range constrained {
			if vals[idx] != val {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, r)
		}
	}
	return out
}

// backwardDijkstra computes, for every rank, the minimum cost to reach a
// goal rank, by Dijkstra over the reverse of the outgoing graph.
func (p *Projection) backwardDijkstra() {
	costs := make([]int64, p.t.NumOperators())
	for o := range costs {
		costs[o] = int64(p.t.OperatorCost(o))
	}
	p.goalDist = p.GoalDistancesWithCosts(costs)
}

// GoalDistancesWithCosts reruns backward Dijkstra over this projection's
// fixed transition graph under a caller-supplied per-operator cost vector,
// leaving the graph itself (and this Projection's own goalDist/
// SaturatedCosts) untouched. Used by cost-partitioning engines that need a
// projection's distances under a reduced remaining-cost vector without
// rebuilding the projection (e.g. zero-one cost partitioning, spec.md
// §4.9).
func (p *Projection) GoalDistancesWithCosts(costs []int64) []int64 {
	incoming := make([][]edge, p.numStates)
	for r, edges := range p.outgoing {
		for _, e := range edges {
			incoming[e.target] = append(incoming[e.target], edge{op: e.op, target: r})
		}
	}

	dist := make([]int64, p.numStates)
	for i := range dist {
		dist[i] = Inf
	}

	pq := make(rankPQ, 0, p.numStates)
	heap.Init(&pq)
	for _, g := range p.goalRanks() {
		dist[g] = 0
		heap.Push(&pq, &rankItem{rank: g, dist: 0})
	}

	visited := make([]bool, p.numStates)
	for pq.Len() > 0 {
		item := heap.Pop(&pq).(*rankItem)
		u, d := item.rank, item.dist
		if visited[u] {
			continue
		}
		visited[u] = true
		for _, e := range incoming[u] {
			nd := d + costs[e.op]
			if nd < dist[e.target] {
				dist[e.target] = nd
				heap.Push(&pq, &rankItem{rank: e.target, dist: nd})
			}
		}
	}
	return dist
}

// GoalDistance returns the backward-Dijkstra distance of rank, or Inf.
func (p *Projection) GoalDistance(rank int) int64 { return p.goalDist[rank] }

// Heuristic evaluates h(s) for a concrete state via Rank+GoalDistance.
func (p *Projection) Heuristic(state []int) int64 { return p.goalDist[p.Rank(state)] }

// SaturatedCosts returns, per operator, max_{src->target} (d[src] -
// d[target]) over every non-loop edge carrying that operator, floored at
// 0 (unless useGeneralCosts), 0 for operators that only ever loop, and
// NegInf for operators that induce no transition (loop or otherwise) at
// all in this projection.
func (p *Projection) SaturatedCosts(useGeneralCosts bool) []int64 {
	sat := make([]int64, p.t.NumOperators())
	seen := make([]bool, p.t.NumOperators())
	for i := range sat {
		sat[i] = NegInf
	}
	for _, loops := range p.loops {
		for _, o := range loops {
			if !seen[o] || sat[o] < 0 {
				sat[o] = 0
			}
			seen[o] = true
		}
	}
	for src, edges := range p.outgoing {
		if p.goalDist[src] == Inf {
			continue
		}
		for _, e := range edges {
			if p.goalDist[e.target] == Inf {
				continue
			}
			d := p.goalDist[src] - p.goalDist[e.target]
			if !seen[e.op] || d > sat[e.op] {
				sat[e.op] = d
				seen[e.op] = true
			}
		}
	}
	if !useGeneralCosts {
		for i := range sat {
			if sat[i] != NegInf && sat[i] < 0 {
				sat[i] = 0
			}
		}
	}
	return sat
}

// rankItem/rankPQ mirror spt's nodeItem/nodePQ, reindexed to pattern ranks.
type rankItem struct {
	rank int
	dist int64
}

type rankPQ []*rankItem

func (pq rankPQ) Len() int            { return len(pq) }
func (pq rankPQ) Less(i, j int) bool  { return pq[i].dist < pq[j].dist }
func (pq rankPQ) Swap(i, j int)       { pq[i], pq[j] = pq[j], pq[i] }
func (pq *rankPQ) Push(x interface{}) { *pq = append(*pq, x.(*rankItem)) }
func (pq *rankPQ) Pop() interface{} {
	old := *pq
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	*pq = old[:n-1]
	return it
}
