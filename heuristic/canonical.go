package heuristic

import (
	"github.com/katalvlaran/cegarh/costpartitioning"
	"github.com/katalvlaran/cegarh/task"
)

// IndependenceGroup is a set of per-abstraction table indices (into the
// same ordering the CanonicalEvaluator's CostPartitioningHeuristic uses).
// Tables in different groups are taken to be pairwise independent — their
// saturated cost shares never compete for the same operator — so summing
// the per-group maxima rather than taking one global max across everything
// stays admissible. Computing the independence relation itself (operator-usage
// disjointness across abstractions) belongs to the collection builder,
// not this evaluator; CanonicalEvaluator takes the partition as given.
type IndependenceGroup struct {
	TableIndices []int
}

// CanonicalEvaluator wraps a single CostPartitioningHeuristic's tables,
// reducing them by summing each IndependenceGroup's own max-over-tables
// rather than one flat sum (supplemented feature, SPEC_FULL.md §6: the
// original's "canonical heuristic" composition mode). Unlike Evaluator
// (which maxes over several whole orders), CanonicalEvaluator operates
// within one order's table set.
type CanonicalEvaluator struct {
	tables []costpartitioning.PerStateHeuristic
	groups []IndependenceGroup
	dead   *UnsolvabilityHeuristic
}

// NewCanonicalEvaluator builds a CanonicalEvaluator over cp's tables,
// partitioned into groups. Every table index in [0,len(cp.Tables)) must
// appear in exactly one group; callers that want a table to contribute
// alone pass it as a singleton group.
func NewCanonicalEvaluator(cp costpartitioning.CostPartitioningHeuristic, groups []IndependenceGroup, dead *UnsolvabilityHeuristic) *CanonicalEvaluator {
	return &CanonicalEvaluator{tables: cp.Tables, groups: groups, dead: dead}
}

// ComputeHeuristic implements task.Heuristic: sum over independence groups
// of that group's max-over-member-tables value, or task.DeadEnd if any
// group evaluates to Inf or the UnsolvabilityHeuristic flags state first.
func (c *CanonicalEvaluator) ComputeHeuristic(state []int) int {
	if c.dead != nil && c.dead.IsDeadEnd(state) {
		return task.DeadEnd
	}
	var total int64
	for _, g := range c.groups {
		var groupMax int64
		for _, idx := range g.TableIndices {
			v := c.tables[idx].Eval(state)
			if v == costpartitioning.Inf {
				return task.DeadEnd
			}
			if v > groupMax {
				groupMax = v
			}
		}
		total += groupMax
	}
	return int(total)
}
