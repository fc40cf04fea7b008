package flawsearch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/cegarh/abstraction"
	"github.com/katalvlaran/cegarh/spt"
	"github.com/katalvlaran/cegarh/task"
)

// lockTask: var0 (a "key", domain {0,1,2}) and var1 (a "door", domain
// {0,1}). op0 requires key=1, opens the door (door=1). Goal: door=1.
// The tests first split off the goal fact door=1 (as CEGAR does before
// its first search); that abstraction still cannot tell key=0 from key=1,
// so the first FlawSearch run over it must report an applicability flaw.
type lockTask struct{}

func (lockTask) NumVariables() int { return 2 }
func (lockTask) DomainSize(v int) int {
	if v == 0 {
		return 3
	}
	return 2
}
func (lockTask) NumOperators() int         { return 1 }
func (lockTask) OperatorCost(o int) int32  { return 1 }
func (lockTask) OperatorName(o int) string { return "open" }
func (lockTask) Preconditions(o int) []task.Fact {
	return []task.Fact{{Var: 0, Value: 1}}
}
func (lockTask) Effects(o int) []task.Fact {
	return []task.Fact{{Var: 1, Value: 1}}
}
func (lockTask) InitialState() []int       { return []int{0, 0} }
func (lockTask) Goal() []task.Fact         { return []task.Fact{{Var: 1, Value: 1}} }
func (lockTask) HasZeroCostOperator() bool { return false }

func TestFlawSearch_GoalSplitAbstractionFindsApplicabilityFlaw(t *testing.T) {
	ab, err := abstraction.NewTrivial(lockTask{}, task.Store, "lock")
	require.NoError(t, err)
	_, _, err = ab.Refine(ab.State(0), 1, []int{1})
	require.NoError(t, err)
	sp, err := spt.New(ab)
	require.NoError(t, err)

	fs := New(ab, sp, lockTask{}, Options{Pick: task.PickFirst, MaxStateExpansions: 1000})
	flaw, status := fs.Run(lockTask{}.InitialState())
	require.Equal(t, InProgress, status)
	require.NotNil(t, flaw)
	assert.Equal(t, Applicability, flaw.Kind)
	assert.Equal(t, 0, flaw.Op)
}

func TestSplitSelector_ApplicabilityFlawProposesKeySplit(t *testing.T) {
	ab, err := abstraction.NewTrivial(lockTask{}, task.Store, "lock")
	require.NoError(t, err)
	_, _, err = ab.Refine(ab.State(0), 1, []int{1})
	require.NoError(t, err)
	sp, err := spt.New(ab)
	require.NoError(t, err)

	fs := New(ab, sp, lockTask{}, Options{Pick: task.PickFirst, MaxStateExpansions: 1000})
	flaw, status := fs.Run(lockTask{}.InitialState())
	require.Equal(t, InProgress, status)
	require.NotNil(t, flaw)

	ss := NewSplitSelector(ab, lockTask{}, nil, nil, nil)
	split, ok := ss.Select(flaw, task.ScoreMinUnwanted, task.ScoreRandom)
	require.True(t, ok)
	assert.Equal(t, 0, split.Var)
	assert.Equal(t, []int{1}, split.Wanted)
}

func TestFlawSearch_FailsAfterKeySplitWhenKeyIsZero(t *testing.T) {
	ab, err := abstraction.NewTrivial(lockTask{}, task.Store, "lock")
	require.NoError(t, err)

	// Split var0 so {1} is isolated from {0,2}, matching the flaw's fix.
	v := ab.State(0)
	_, _, err = ab.Refine(v, 0, []int{1})
	require.NoError(t, err)

	sp, err := spt.New(ab)
	require.NoError(t, err)
	fs := New(ab, sp, lockTask{}, Options{Pick: task.PickFirst, MaxStateExpansions: 1000})
	_, status := fs.Run(lockTask{}.InitialState())
	assert.Equal(t, Failed, status, "key is still 0, door never opens: goal unreachable from this witness")
}
