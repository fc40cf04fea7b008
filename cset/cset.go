// Package cset implements CartesianSet (spec.md §3, §4.2): a box
// ×_v A_v over the task's variables, with every A_v non-empty, backed by one
// bits-and-blooms bitset per variable — spec.md §3 calls this out verbatim
// ("Bitset-backed set of partial assignments per variable").
package cset

import (
	"errors"
	"fmt"

	"github.com/bits-and-blooms/bitset"
)

// Sentinel errors. Callers branch with errors.Is.
var (
	// ErrEmptyWanted indicates SplitDomain was asked to split off the
	// empty set, violating the split_domain precondition of spec.md §3.
	ErrEmptyWanted = errors.New("cset: wanted set is empty")

	// ErrWantedNotProperSubset indicates wanted was not a proper subset of
	// the current A_v (wanted == A_v, or wanted contains a value outside
	// A_v), also a split_domain precondition violation.
	ErrWantedNotProperSubset = errors.New("cset: wanted is not a proper subset of the current domain")

	// ErrVarOutOfRange indicates a variable index outside [0, NumVars).
	ErrVarOutOfRange = errors.New("cset: variable index out of range")
)

// CartesianSet is an immutable-by-convention box ×_v A_v. Callers obtain new
// instances via NewFull or SplitDomain rather than mutating in place; this
// matches how Abstraction.refine (spec.md §4.4) always constructs two fresh
// children rather than mutating the parent.
//
// Complexity of the read methods below: Test and NumVars are O(1); the
// per-variable reads (Count, HasFullDomain, IntersectsDomain, Values) walk
// A_v's bitset, at most O(domain_size(v)); Includes walks every variable.
type CartesianSet struct {
	domainSizes []int           // dom(v) sizes, shared by reference across a family of CartesianSets
	domains     []*bitset.BitSet // domains[v] = A_v as a bitset over [0, domainSizes[v])
}

// NewFull returns the CartesianSet with A_v = dom(v) for every v, the shape
// of the trivial abstraction's single state (spec.md §4.7, P2).
// Complexity: O(Σ dom(v)).
func NewFull(domainSizes []int) *CartesianSet {
	domains := make([]*bitset.BitSet, len(domainSizes))
	for v, size := range domainSizes {
		b := bitset.New(uint(size))
		for x := 0; x < size; x++ {
			b.Set(uint(x))
		}
		domains[v] = b
	}
	return &CartesianSet{domainSizes: domainSizes, domains: domains}
}

// NumVars returns the number of task variables this set spans.
func (c *CartesianSet) NumVars() int { return len(c.domainSizes) }

func (c *CartesianSet) checkVar(v int) error {
	if v < 0 || v >= len(c.domains) {
		return fmt.Errorf("%w: %d", ErrVarOutOfRange, v)
	}
	return nil
}

// Test reports whether value x is in A_v. Panics semantics are avoided in
// favor of returning false on an out-of-range variable, matching this
// module's "never panic outside option constructors" rule; callers needing
// to distinguish "out of range" from "excluded" use TestErr.
func (c *CartesianSet) Test(v, x int) bool {
	ok, _ := c.TestErr(v, x)
	return ok
}

// TestErr is Test with explicit error reporting for an out-of-range v.
func (c *CartesianSet) TestErr(v, x int) (bool, error) {
	if err := c.checkVar(v); err != nil {
		return false, err
	}
	if x < 0 || x >= c.domainSizes[v] {
		return false, nil
	}
	return c.domains[v].Test(uint(x)), nil
}

// HasFullDomain reports whether A_v == dom(v).
func (c *CartesianSet) HasFullDomain(v int) bool {
	if err := c.checkVar(v); err != nil {
		return false
	}
	return int(c.domains[v].Count()) == c.domainSizes[v]
}

// Count returns |A_v|.
func (c *CartesianSet) Count(v int) int {
	if err := c.checkVar(v); err != nil {
		return 0
	}
	return int(c.domains[v].Count())
}

// IntersectsDomain reports A_v ∩ B_v != ∅ for the given variable between c
// and other.
func (c *CartesianSet) IntersectsDomain(other *CartesianSet, v int) bool {
	if c.checkVar(v) != nil || other.checkVar(v) != nil {
		return false
	}
	return c.domains[v].IntersectionCardinality(other.domains[v]) > 0
}

// Includes reports ∀v: other.A_v ⊆ c.A_v — "c includes other" per spec.md
// §3's definition, i.e. other is a subset/refinement of c.
func (c *CartesianSet) Includes(other *CartesianSet) bool {
	if c.NumVars() != other.NumVars() {
		return false
	}
	for v := 0; v < c.NumVars(); v++ {
		// other.A_v ⊆ c.A_v  <=>  other.A_v \ c.A_v == ∅
		diff := other.domains[v].Difference(c.domains[v])
		if diff.Count() > 0 {
			return false
		}
	}
	return true
}

// IncludesFacts reports AbstractState.includes(facts) of spec.md §4.2:
// ∀(v,x)∈facts: c.Test(v,x).
func (c *CartesianSet) IncludesFacts(facts []Fact) bool {
	for _, f := range facts {
		if !c.Test(f.Var, f.Value) {
			return false
		}
	}
	return true
}

// Fact is a local alias to avoid an import cycle with package task; it has
// the identical shape as task.Fact and conversions are the caller's
// responsibility (a one-line copy at the abstraction-package boundary).
type Fact struct {
	Var   int
	Value int
}

// SplitDomain partitions A_v into (A_v \ wanted, wanted), both guaranteed
// non-empty by the precondition check below, and returns two new
// CartesianSets identical to c except at variable v. Matches spec.md §3's
// split_domain contract: wanted must be a non-empty proper subset of A_v.
// Complexity: O(Σ dom(v)) to clone the per-variable bitset slice headers
// (the bitsets themselves are shared by pointer except at v, where fresh
// bitsets are built) — O(dom(v)) additional work at the split variable.
func (c *CartesianSet) SplitDomain(v int, wanted []int) (*CartesianSet, *CartesianSet, error) {
	if err := c.checkVar(v); err != nil {
		return nil, nil, err
	}
	if len(wanted) == 0 {
		return nil, nil, ErrEmptyWanted
	}

	wantedBits := bitset.New(uint(c.domainSizes[v]))
	for _, x := range wanted {
		if x < 0 || x >= c.domainSizes[v] || !c.domains[v].Test(uint(x)) {
			return nil, nil, fmt.Errorf("%w: value %d not in current domain", ErrWantedNotProperSubset, x)
		}
		wantedBits.Set(uint(x))
	}
	if int(wantedBits.Count()) >= int(c.domains[v].Count()) {
		// wanted == A_v: not a proper subset.
		return nil, nil, ErrWantedNotProperSubset
	}

	remainderBits := c.domains[v].Difference(wantedBits)
	// remainderBits non-empty is guaranteed by the count check above.

	left := c.cloneReplacingVar(v, remainderBits)
	right := c.cloneReplacingVar(v, wantedBits)
	return left, right, nil
}

// cloneReplacingVar builds a new CartesianSet sharing every per-variable
// bitset by pointer except at v, which gets the supplied fresh bitset.
// Shared pointers are safe because CartesianSet is never mutated in place
// after construction.
func (c *CartesianSet) cloneReplacingVar(v int, newDomain *bitset.BitSet) *CartesianSet {
	domains := make([]*bitset.BitSet, len(c.domains))
	copy(domains, c.domains)
	domains[v] = newDomain
	return &CartesianSet{domainSizes: c.domainSizes, domains: domains}
}

// Values returns the sorted list of values currently in A_v, used by
// FlawSearch/SplitSelector when enumerating witnesses (spec.md §4.6).
func (c *CartesianSet) Values(v int) []int {
	if c.checkVar(v) != nil {
		return nil
	}
	out := make([]int, 0, c.domains[v].Count())
	for x, ok := c.domains[v].NextSet(0); ok; x, ok = c.domains[v].NextSet(x + 1) {
		out = append(out, int(x))
	}
	return out
}
