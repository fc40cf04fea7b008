package heuristic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/cegarh/abstraction"
	"github.com/katalvlaran/cegarh/costpartitioning"
	"github.com/katalvlaran/cegarh/pdb"
	"github.com/katalvlaran/cegarh/spt"
	"github.com/katalvlaran/cegarh/task"
)

// lockTask: var0 key in {0,1}, var1 door in {0,1}; op0 requires key=1,
// opens door; goal door=1. With key stuck at 0 the goal is unreachable.
type lockTask struct{ keyStuck bool }

func (lockTask) NumVariables() int         { return 2 }
func (lockTask) DomainSize(v int) int      { return 2 }
func (lockTask) NumOperators() int         { return 1 }
func (lockTask) OperatorCost(o int) int32  { return 1 }
func (lockTask) OperatorName(o int) string { return "open" }
func (lockTask) Preconditions(o int) []task.Fact {
	return []task.Fact{{Var: 0, Value: 1}, {Var: 1, Value: 0}}
}
func (lockTask) Effects(o int) []task.Fact { return []task.Fact{{Var: 1, Value: 1}} }
func (t lockTask) InitialState() []int {
	if t.keyStuck {
		return []int{0, 0}
	}
	return []int{1, 0}
}
func (lockTask) Goal() []task.Fact         { return []task.Fact{{Var: 1, Value: 1}} }
func (lockTask) HasZeroCostOperator() bool { return false }

func buildLockAbstraction(t *testing.T, keyStuck bool) (*abstraction.Abstraction, *spt.ShortestPaths) {
	t.Helper()
	tk := lockTask{keyStuck: keyStuck}
	ab, err := abstraction.NewTrivial(tk, task.Store, "lock")
	require.NoError(t, err)
	// Split off the door's goal value, then the key value op0 needs, so the
	// key-stuck initial state lands in an abstract state with no goal path.
	_, _, err = ab.Refine(ab.State(0), 1, []int{1})
	require.NoError(t, err)
	_, _, err = ab.Refine(ab.State(0), 0, []int{1})
	require.NoError(t, err)
	sp, err := spt.New(ab)
	require.NoError(t, err)
	return ab, sp
}

func TestUnsolvabilityHeuristic_FlagsKeyStuckDeadEnd(t *testing.T) {
	ab, sp := buildLockAbstraction(t, true)
	fn := AbstractionFunction{Abstraction: ab}
	u := NewUnsolvabilityHeuristic([]AbstractionFunction{fn}, []*spt.ShortestPaths{sp})
	assert.True(t, u.IsDeadEnd([]int{0, 0}))
}

func TestUnsolvabilityHeuristic_ReachableStateNotDeadEnd(t *testing.T) {
	ab, sp := buildLockAbstraction(t, false)
	fn := AbstractionFunction{Abstraction: ab}
	u := NewUnsolvabilityHeuristic([]AbstractionFunction{fn}, []*spt.ShortestPaths{sp})
	assert.False(t, u.IsDeadEnd([]int{1, 0}))
}

func TestEvaluator_MaxesOverAcceptedOrders(t *testing.T) {
	p0, err := pdb.New(lockTask{}, []int{1})
	require.NoError(t, err)
	cpLow := costpartitioning.CostPartitioningHeuristic{Tables: []costpartitioning.PerStateHeuristic{
		{Ranker: p0.Rank, Values: []int64{0, 0}},
	}}
	cpHigh := costpartitioning.CostPartitioningHeuristic{Tables: []costpartitioning.PerStateHeuristic{
		{Ranker: p0.Rank, Values: []int64{1, 0}},
	}}
	ev := NewEvaluator([]costpartitioning.CostPartitioningHeuristic{cpLow, cpHigh}, nil)
	assert.Equal(t, 1, ev.ComputeHeuristic([]int{1, 0}))
}

func TestEvaluator_DeadEndShortCircuits(t *testing.T) {
	ab, sp := buildLockAbstraction(t, true)
	fn := AbstractionFunction{Abstraction: ab}
	u := NewUnsolvabilityHeuristic([]AbstractionFunction{fn}, []*spt.ShortestPaths{sp})
	ev := NewEvaluator(nil, u)
	assert.Equal(t, task.DeadEnd, ev.ComputeHeuristic([]int{0, 0}))
}

func TestCanonicalEvaluator_SumsGroupMaxima(t *testing.T) {
	p0, err := pdb.New(lockTask{}, []int{0})
	require.NoError(t, err)
	p1, err := pdb.New(lockTask{}, []int{1})
	require.NoError(t, err)
	cp := costpartitioning.CostPartitioningHeuristic{Tables: []costpartitioning.PerStateHeuristic{
		{Ranker: p0.Rank, Values: []int64{3, 0}},
		{Ranker: p1.Rank, Values: []int64{2, 0}},
	}}
	groups := []IndependenceGroup{{TableIndices: []int{0}}, {TableIndices: []int{1}}}
	ce := NewCanonicalEvaluator(cp, groups, nil)
	assert.Equal(t, 5, ce.ComputeHeuristic([]int{0, 0}))
}
