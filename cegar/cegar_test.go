package cegar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/cegarh/task"
)

// doorSubtask: var0 (key) in {0,1,2}, var1 (door) in {0,1}. One operator
// opens the door when key=1. Initial state has key=1 already, so the
// concrete plan (open) exists; CEGAR must refine enough to discover it.
type doorSubtask struct{}

func (doorSubtask) NumVariables() int { return 2 }
func (doorSubtask) DomainSize(v int) int {
	if v == 0 {
		return 3
	}
	return 2
}
func (doorSubtask) NumOperators() int         { return 1 }
func (doorSubtask) OperatorCost(o int) int32  { return 1 }
func (doorSubtask) OperatorName(o int) string { return "open" }
func (doorSubtask) Preconditions(o int) []task.Fact {
	return []task.Fact{{Var: 0, Value: 1}}
}
func (doorSubtask) Effects(o int) []task.Fact {
	return []task.Fact{{Var: 1, Value: 1}}
}
func (doorSubtask) InitialState() []int             { return []int{1, 0} }
func (doorSubtask) Goal() []task.Fact               { return []task.Fact{{Var: 1, Value: 1}} }
func (doorSubtask) HasZeroCostOperator() bool       { return false }
func (doorSubtask) IsLandmark() bool                { return false }
func (doorSubtask) ConvertAncestorState(v []int) []int { return v }

func TestCEGAR_RefineReachesConcreteSolution(t *testing.T) {
	cfg := task.NewConfig(
		task.WithMaxStates(100),
		task.WithMaxTransitions(10_000),
		task.WithMaxTime(5*time.Second),
		task.WithMaxStateExpansions(1000),
	)
	c := New(cfg, nil)
	res, err := c.Refine(doorSubtask{})
	require.NoError(t, err)
	assert.Equal(t, ConcreteSolution, res.Outcome)
}

// unsolvableDoorSubtask never has key=1 in its initial state and no
// operator ever changes var0, so the door can never open.
type unsolvableDoorSubtask struct{ doorSubtask }

func (unsolvableDoorSubtask) InitialState() []int { return []int{0, 0} }

func TestCEGAR_RefineReportsUnsolvable(t *testing.T) {
	cfg := task.NewConfig(task.WithMaxStates(100), task.WithMaxStateExpansions(1000))
	c := New(cfg, nil)
	res, err := c.Refine(unsolvableDoorSubtask{})
	require.NoError(t, err)
	assert.Equal(t, Unsolvable, res.Outcome)
}
