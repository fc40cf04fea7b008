package subtasks

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/cegarh/logging"
	"github.com/katalvlaran/cegarh/task"
)

// twoGoalTask: var0/var1 each in {0,1}, two independent flip operators,
// goal var0=1 and var1=1 — mirrors costpartitioning's fixture.
type twoGoalTask struct{}

func (twoGoalTask) NumVariables() int         { return 2 }
func (twoGoalTask) DomainSize(v int) int      { return 2 }
func (twoGoalTask) NumOperators() int         { return 2 }
func (twoGoalTask) OperatorCost(o int) int32  { return 1 }
func (twoGoalTask) OperatorName(o int) string { return "flip" }
func (twoGoalTask) Preconditions(o int) []task.Fact {
	if o == 0 {
		return []task.Fact{{Var: 0, Value: 0}}
	}
	return []task.Fact{{Var: 1, Value: 0}}
}
func (twoGoalTask) Effects(o int) []task.Fact {
	if o == 0 {
		return []task.Fact{{Var: 0, Value: 1}}
	}
	return []task.Fact{{Var: 1, Value: 1}}
}
func (twoGoalTask) InitialState() []int { return []int{0, 0} }
func (twoGoalTask) Goal() []task.Fact {
	return []task.Fact{{Var: 0, Value: 1}, {Var: 1, Value: 1}}
}
func (twoGoalTask) HasZeroCostOperator() bool { return false }

func TestGoalFactsGenerator_OneSubtaskPerGoalAtom(t *testing.T) {
	subs := GoalFactsGenerator{}.Subtasks(twoGoalTask{})
	require.Len(t, subs, 2)
	assert.Equal(t, []task.Fact{{Var: 0, Value: 1}}, subs[0].Goal())
	assert.Equal(t, []task.Fact{{Var: 1, Value: 1}}, subs[1].Goal())
	assert.False(t, subs[0].IsLandmark())
}

func TestLandmarkGenerator_MarksLandmarkSubtasks(t *testing.T) {
	gen := LandmarkGenerator{Landmarks: []task.Fact{{Var: 0, Value: 1}}}
	subs := gen.Subtasks(twoGoalTask{})
	require.Len(t, subs, 1)
	assert.True(t, subs[0].IsLandmark())
	assert.Equal(t, []task.Fact{{Var: 0, Value: 1}}, subs[0].Goal())
}

func TestBuild_CollectsOneAbstractionPerGoalFact(t *testing.T) {
	cfg := task.NewConfig()
	log := logging.New(io.Discard, logging.Warn)
	col, solvable, err := Build(twoGoalTask{}, GoalFactsGenerator{}, cfg, log)
	require.NoError(t, err)
	assert.True(t, solvable)
	assert.Equal(t, 2, col.Len())
	for i := 0; i < col.Len(); i++ {
		assert.True(t, col.ShortestPaths(i).Reachable(col.Abstraction(i).InitID()))
	}
}
