package costpartitioning

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/katalvlaran/cegarh/pdb"
	"github.com/katalvlaran/cegarh/task"
)

// lpClamp caps a saturated cost at a large finite bound for LP purposes:
// gonum's Simplex operates over finite floats, so the Inf/NegInf sentinels
// of pdb.SaturatedCosts (spec.md §4.8/§4.9) need a stand-in. NegInf (an
// operator the projection never transitions on) becomes 0 usage; Inf
// becomes a bound far larger than any real cost vector this task could
// produce, so it can never bind a non-trivial weight.
const lpClamp = 1e15

func clampForLP(sat int64) float64 {
	switch sat {
	case pdb.NegInf:
		return 0
	case pdb.Inf:
		return lpClamp
	default:
		return float64(sat)
	}
}

// PostHocOptimization implements spec.md §4.9's post-hoc optimization
// (PhO) cost partitioning: for a fixed state s, solve
//
//	maximize   sum_i w_i * h_i(s)
//	subject to sum_i w_i * sat_i[o] <= cost[o]   for every operator o
//	           w_i >= 0
//
// via gonum's primal simplex (which minimizes, over equality constraints),
// by negating the objective and adding one slack variable per operator
// constraint. Returns the optimal objective value, i.e. h(s) under the
// best weighting of these unaltered (non-saturated) per-projection
// heuristics — PhO does not itself produce per-state tables the way SCP
// does, since the optimal weights are state-dependent; callers needing a
// reusable heuristic should prefer OptimalCostPartitioning or SCP.
func PostHocOptimization(t task.PlanningTask, projections []*pdb.Projection, state []int) (float64, error) {
	k := len(projections)
	m := t.NumOperators()

	h := make([]float64, k)
	satCols := make([][]float64, k)
	for i, p := range projections {
		h[i] = float64(p.Heuristic(state))
		sat := p.SaturatedCosts(true)
		col := make([]float64, m)
		for o := range col {
			col[o] = clampForLP(sat[o])
		}
		satCols[i] = col
	}

	// Variables: [w_0..w_{k-1}, slack_0..slack_{m-1}], A*x = cost, x >= 0.
	n := k + m
	aData := make([]float64, m*n)
	b := make([]float64, m)
	for o := 0; o < m; o++ {
		for i := 0; i < k; i++ {
			aData[o*n+i] = satCols[i][o]
		}
		aData[o*n+k+o] = 1
		b[o] = float64(t.OperatorCost(o))
	}
	A := mat.NewDense(m, n, aData)

	c := make([]float64, n)
	for i := 0; i < k; i++ {
		c[i] = -h[i] // minimize -sum(w_i*h_i) == maximize sum(w_i*h_i)
	}

	optF, _, err := lp.Simplex(c, A, b, 1e-10, nil)
	if err != nil {
		return 0, err
	}
	return -optF, nil
}

// OptimalCostPartitioning solves spec.md §4.9's optimal LP-based cost
// partitioning, the distinct LP of Pommerening et al.: rather than fixing
// each projection's per-operator cost share via saturation up front
// (SCP/PhO), every projection i gets its own non-negative cost-share
// variable c_i[o] for every operator, bounded jointly by sum_i c_i[o] <= cost[o],
// and a free distance variable d_i[r] for every non-goal rank r of
// projection i, constrained by the shortest-path dual inequality
// d_i[src] <= c_i[op] + d_i[target] for every edge src-(op)->target in
// projection i's transition graph, with every goal rank's distance fixed
// at 0. Maximizing sum_i d_i[rank_i(state)] over this joint LP yields the
// largest jointly-feasible cost partitioning — at least as good as both
// SCP and PhO for the evaluated state, at the cost of one LP solve per
// state with O(sum_i |ranks_i| + sum_i |edges_i|) variables/constraints.
//
// Free distance variables are split into their positive/negative parts
// (d = d+ - d-, both >= 0) since gonum's Simplex requires x >= 0.
//
// A rank with no forward path to any goal rank has no constraint chain
// bounding its distance variable above, so the LP is genuinely unbounded
// for that state — gonum's Simplex reports this as an error rather than a
// finite value. Callers must treat an unbounded-objective error here the
// same as pdb.Inf / task.DeadEnd, not as a computation failure.
func OptimalCostPartitioning(t task.PlanningTask, projections []*pdb.Projection, state []int) (float64, error) {
	k := len(projections)
	m := t.NumOperators()

	goalSet := make([]map[int]bool, k)
	freeRanks := make([][]int, k)
	rankPos := make([]map[int]int, k)
	for i, p := range projections {
		gs := map[int]bool{}
		for _, g := range p.GoalRanks() {
			gs[g] = true
		}
		goalSet[i] = gs
		rp := map[int]int{}
		for r := 0; r < p.NumStates(); r++ {
			if !gs[r] {
				rp[r] = len(freeRanks[i])
				freeRanks[i] = append(freeRanks[i], r)
			}
		}
		rankPos[i] = rp
	}

	// Variable layout: c[i][o] (k*m), then for each i the interleaved
	// dPlus/dMinus pairs over freeRanks[i].
	cBase := 0
	dBase := make([]int, k)
	off := k * m
	for i := range projections {
		dBase[i] = off
		off += 2 * len(freeRanks[i])
	}
	numPrimal := off
	cIdx := func(i, o int) int { return cBase + i*m + o }
	dPlusIdx := func(i, r int) int { return dBase[i] + 2*rankPos[i][r] }
	dMinusIdx := func(i, r int) int { return dBase[i] + 2*rankPos[i][r] + 1 }

	type ineq struct {
		coeffs map[int]float64
		rhs    float64
	}
	var rows []ineq

	// Budget constraints: sum_i c[i][o] <= cost[o].
	for o := 0; o < m; o++ {
		row := ineq{coeffs: map[int]float64{}, rhs: float64(t.OperatorCost(o))}
		for i := range projections {
			row.coeffs[cIdx(i, o)] = 1
		}
		rows = append(rows, row)
	}

	// Edge constraints: d_i[src] - d_i[target] - c[i][op] <= 0.
	for i, p := range projections {
		gs := goalSet[i]
		for _, e := range p.Edges() {
			row := ineq{coeffs: map[int]float64{}, rhs: 0}
			if !gs[e.Src] {
				row.coeffs[dPlusIdx(i, e.Src)] += 1
				row.coeffs[dMinusIdx(i, e.Src)] -= 1
			}
			if !gs[e.Target] {
				row.coeffs[dPlusIdx(i, e.Target)] -= 1
				row.coeffs[dMinusIdx(i, e.Target)] += 1
			}
			row.coeffs[cIdx(i, e.Op)] -= 1
			rows = append(rows, row)
		}
	}

	numSlack := len(rows)
	n := numPrimal + numSlack
	aData := make([]float64, len(rows)*n)
	b := make([]float64, len(rows))
	for ri, row := range rows {
		for idx, coeff := range row.coeffs {
			aData[ri*n+idx] = coeff
		}
		aData[ri*n+numPrimal+ri] = 1 // this row's slack
		b[ri] = row.rhs
	}
	A := mat.NewDense(len(rows), n, aData)

	c := make([]float64, n)
	for i, p := range projections {
		r := p.Rank(state)
		if !goalSet[i][r] {
			c[dPlusIdx(i, r)] = -1
			c[dMinusIdx(i, r)] = 1
		}
	}

	optF, _, err := lp.Simplex(c, A, b, 1e-10, nil)
	if err != nil {
		return 0, err
	}
	return -optF, nil
}

// Diversifier implements spec.md §4.9's order-diversification filter:
// accept an order's CostPartitioningHeuristic only if it improves on the
// max of all previously accepted orders for at least one sampled state.
type Diversifier struct {
	samples  [][]int
	accepted []CostPartitioningHeuristic
}

// NewDiversifier samples numSamples states via sampler (any function
// producing a reachable concrete state, e.g. a random walk from the
// initial state) and starts with no accepted orders.
func NewDiversifier(numSamples int, sampler func(rng *rand.Rand) []int, rng *rand.Rand) *Diversifier {
	d := &Diversifier{samples: make([][]int, numSamples)}
	for i := range d.samples {
		d.samples[i] = sampler(rng)
	}
	return d
}

// Consider accepts cp if it strictly improves the current max-over-orders
// heuristic value on at least one sample, returning whether it was kept.
func (d *Diversifier) Consider(cp CostPartitioningHeuristic) bool {
	improves := len(d.accepted) == 0
	if !improves {
		for _, s := range d.samples {
			var best int64
			for _, a := range d.accepted {
				if v := a.Eval(s); v > best {
					best = v
				}
			}
			if cp.Eval(s) > best {
				improves = true
				break
			}
		}
	}
	if improves {
		d.accepted = append(d.accepted, cp)
	}
	return improves
}

// Accepted returns every order kept so far.
func (d *Diversifier) Accepted() []CostPartitioningHeuristic { return d.accepted }

// MaxEval evaluates the max-over-orders heuristic (spec.md §4.10) over
// every accepted order.
func (d *Diversifier) MaxEval(state []int) int64 {
	var best int64 = 0
	for _, a := range d.accepted {
		v := a.Eval(state)
		if v == Inf {
			return Inf
		}
		if v > best {
			best = v
		}
	}
	return best
}
