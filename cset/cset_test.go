package cset

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFull_HasFullDomainEverywhere(t *testing.T) {
	c := NewFull([]int{2, 3})
	assert.True(t, c.HasFullDomain(0))
	assert.True(t, c.HasFullDomain(1))
	assert.Equal(t, 2, c.Count(0))
	assert.Equal(t, 3, c.Count(1))
	assert.True(t, c.Test(1, 2))
	assert.False(t, c.Test(1, 3))
}

func TestSplitDomain_PartitionsAndPreservesContainment(t *testing.T) {
	// P3: split preserves containment.
	c := NewFull([]int{3})
	left, right, err := c.SplitDomain(0, []int{1})
	require.NoError(t, err)

	assert.True(t, c.Includes(left))
	assert.True(t, c.Includes(right))
	assert.ElementsMatch(t, []int{0, 2}, left.Values(0))
	assert.ElementsMatch(t, []int{1}, right.Values(0))

	// union of left/right values equals the parent's values on the split var.
	union := append(append([]int{}, left.Values(0)...), right.Values(0)...)
	assert.ElementsMatch(t, c.Values(0), union)
}

func TestSplitDomain_RejectsEmptyWanted(t *testing.T) {
	c := NewFull([]int{2})
	_, _, err := c.SplitDomain(0, nil)
	assert.True(t, errors.Is(err, ErrEmptyWanted))
}

func TestSplitDomain_RejectsNonProperSubset(t *testing.T) {
	c := NewFull([]int{2})
	_, _, err := c.SplitDomain(0, []int{0, 1})
	assert.True(t, errors.Is(err, ErrWantedNotProperSubset))

	_, _, err = c.SplitDomain(0, []int{5})
	assert.True(t, errors.Is(err, ErrWantedNotProperSubset))
}

func TestIncludesFacts(t *testing.T) {
	c := NewFull([]int{2, 2})
	left, _, err := c.SplitDomain(0, []int{0})
	require.NoError(t, err)
	assert.True(t, left.IncludesFacts([]Fact{{Var: 0, Value: 1}}))
	assert.False(t, left.IncludesFacts([]Fact{{Var: 0, Value: 0}}))
}

func TestIntersectsDomain(t *testing.T) {
	c := NewFull([]int{3})
	left, right, err := c.SplitDomain(0, []int{1})
	require.NoError(t, err)
	assert.False(t, left.IntersectsDomain(right, 0))
	assert.True(t, left.IntersectsDomain(c, 0))
}
