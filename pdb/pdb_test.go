package pdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/cegarh/task"
)

// chainTask: var0 in {0,1,2,3}, three operators each costing 2 stepping
// var0 forward by one. Goal: var0=3. Mirrors spt's chainTask.
type chainTask struct{}

func (chainTask) NumVariables() int         { return 1 }
func (chainTask) DomainSize(v int) int      { return 4 }
func (chainTask) NumOperators() int         { return 3 }
func (chainTask) OperatorCost(o int) int32  { return 2 }
func (chainTask) OperatorName(o int) string { return "step" }
func (chainTask) Preconditions(o int) []task.Fact {
	return []task.Fact{{Var: 0, Value: o}}
}
func (chainTask) Effects(o int) []task.Fact {
	return []task.Fact{{Var: 0, Value: o + 1}}
}
func (chainTask) InitialState() []int       { return []int{0} }
func (chainTask) Goal() []task.Fact         { return []task.Fact{{Var: 0, Value: 3}} }
func (chainTask) HasZeroCostOperator() bool { return false }

func TestProjection_ChainGoalDistances(t *testing.T) {
	p, err := New(chainTask{}, []int{0})
	require.NoError(t, err)
	assert.Equal(t, 4, p.NumStates())

	assert.Equal(t, int64(0), p.Heuristic([]int{3}))
	assert.Equal(t, int64(2), p.Heuristic([]int{2}))
	assert.Equal(t, int64(4), p.Heuristic([]int{1}))
	assert.Equal(t, int64(6), p.Heuristic([]int{0}))
}

func TestProjection_SaturatedCostsMatchStepUsage(t *testing.T) {
	p, err := New(chainTask{}, []int{0})
	require.NoError(t, err)
	sat := p.SaturatedCosts(false)
	require.Len(t, sat, 3)
	// Each operator o moves exactly one step (val o -> o+1), a 2-cost drop
	// in goal distance, so its own saturated cost equals 2.
	for o := 0; o < 3; o++ {
		assert.Equal(t, int64(2), sat[o])
	}
}

// irrelevantOpTask adds a fourth operator that never applies (precondition
// on a value never reached), exercising the NegInf "no transition at all"
// branch of SaturatedCosts.
type irrelevantOpTask struct{ chainTask }

func (irrelevantOpTask) NumOperators() int { return 4 }
func (irrelevantOpTask) Preconditions(o int) []task.Fact {
	if o == 3 {
		return []task.Fact{{Var: 0, Value: 99}}
	}
	return chainTask{}.Preconditions(o)
}
func (irrelevantOpTask) Effects(o int) []task.Fact {
	if o == 3 {
		return []task.Fact{{Var: 0, Value: 0}}
	}
	return chainTask{}.Effects(o)
}
func (irrelevantOpTask) OperatorCost(o int) int32 { return 2 }

func TestProjection_UnreachableOperatorGetsNegInf(t *testing.T) {
	p, err := New(irrelevantOpTask{}, []int{0})
	require.NoError(t, err)
	sat := p.SaturatedCosts(true)
	assert.Equal(t, int64(NegInf), sat[3])
}
