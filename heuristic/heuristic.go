// Package heuristic implements HeuristicEvaluator (spec.md §4.10, component
// M): the task.Heuristic a search driver calls, combining every accepted
// cost-partitioning order's per-abstraction tables with an
// UnsolvabilityHeuristic that short-circuits to task.DeadEnd the moment any
// abstraction proves a concrete state unreachable. Grounded on
// abstraction.Abstraction.Resolve for the abstraction function (concrete
// state -> abstract state id) and on bits-and-blooms/bitset for the
// per-abstraction unsolvable-state membership test, the same "dense bitmap
// over small integer ids" idiom the examples use for visited/candidate
// sets.
package heuristic

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/katalvlaran/cegarh/abstraction"
	"github.com/katalvlaran/cegarh/costpartitioning"
	"github.com/katalvlaran/cegarh/spt"
	"github.com/katalvlaran/cegarh/task"
)

// AbstractionFunction maps a concrete state (indexed by the original
// task's variables) to one abstraction's current abstract state id, via
// ConvertAncestorState followed by Abstraction.Resolve.
type AbstractionFunction struct {
	Abstraction *abstraction.Abstraction
	Convert     func(state []int) []int // nil means identity
}

func (f AbstractionFunction) resolve(state []int) (int, error) {
	v := state
	if f.Convert != nil {
		v = f.Convert(state)
	}
	return f.Abstraction.Resolve(v)
}

// UnsolvabilityHeuristic flags, per abstraction, every abstract state
// from which ShortestPaths found no path to any current goal state — a
// concrete state mapping onto one of those is a proven dead end
// (spec.md §4.10).
type UnsolvabilityHeuristic struct {
	funcs       []AbstractionFunction
	unsolvable  []*bitset.BitSet
}

// NewUnsolvabilityHeuristic snapshots, for each (AbstractionFunction,
// ShortestPaths) pair, the current set of unreachable abstract states.
// Callers re-snapshot after further CEGAR refinement if they want the
// bitmap to stay current; it is not wired to live split notifications.
func NewUnsolvabilityHeuristic(funcs []AbstractionFunction, paths []*spt.ShortestPaths) *UnsolvabilityHeuristic {
	u := &UnsolvabilityHeuristic{funcs: funcs, unsolvable: make([]*bitset.BitSet, len(funcs))}
	for i, f := range funcs {
		n := f.Abstraction.NumStates()
		bs := bitset.New(uint(n))
		sp := paths[i]
		for s := 0; s < n; s++ {
			if !sp.Reachable(s) {
				bs.Set(uint(s))
			}
		}
		u.unsolvable[i] = bs
	}
	return u
}

// IsDeadEnd reports whether state resolves to a known-unsolvable abstract
// state under any abstraction.
func (u *UnsolvabilityHeuristic) IsDeadEnd(state []int) bool {
	for i, f := range u.funcs {
		id, err := f.resolve(state)
		if err != nil {
			continue
		}
		if u.unsolvable[i].Test(uint(id)) {
			return true
		}
	}
	return false
}

// Evaluator is the task.Heuristic combining every accepted cost
// partitioning's tables (max over orders, each order's own tables summed)
// with the UnsolvabilityHeuristic dead-end short-circuit (spec.md §4.10).
type Evaluator struct {
	orders []costpartitioning.CostPartitioningHeuristic
	dead   *UnsolvabilityHeuristic
}

// NewEvaluator builds an Evaluator over the given accepted orders (as
// produced by a Diversifier, or a single order if diversification is
// disabled) and an optional UnsolvabilityHeuristic (nil disables the
// dead-end check).
func NewEvaluator(orders []costpartitioning.CostPartitioningHeuristic, dead *UnsolvabilityHeuristic) *Evaluator {
	return &Evaluator{orders: orders, dead: dead}
}

// ComputeHeuristic implements task.Heuristic: h(s) = max over accepted
// orders of that order's summed per-abstraction contribution, or
// task.DeadEnd if any abstraction proves s unsolvable.
func (e *Evaluator) ComputeHeuristic(state []int) int {
	if e.dead != nil && e.dead.IsDeadEnd(state) {
		return task.DeadEnd
	}
	var best int64
	found := false
	for _, order := range e.orders {
		v := order.Eval(state)
		if v == costpartitioning.Inf {
			return task.DeadEnd
		}
		if !found || v > best {
			best = v
			found = true
		}
	}
	if !found {
		return task.DeadEnd
	}
	if best < 0 {
		best = 0
	}
	return int(best)
}
