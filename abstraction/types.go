// Package abstraction implements spec.md §3/§4.3/§4.4: AbstractState, the
// two interchangeable transition oracles (explicit TransitionSystem and
// on-demand MatchTree), and Abstraction itself, the aggregate that owns a
// RefinementHierarchy plus one transition oracle and exposes the split
// (refine) operation.
package abstraction

import (
	"errors"

	"github.com/katalvlaran/cegarh/cset"
	"github.com/katalvlaran/cegarh/refine"
	"github.com/katalvlaran/cegarh/task"
)

// Sentinel errors.
var (
	// ErrUnknownState indicates a state id outside [0, NumStates()).
	ErrUnknownState = errors.New("abstraction: unknown state id")
	// ErrNotInitialized indicates an Abstraction method was called before
	// NewTrivial.
	ErrNotInitialized = errors.New("abstraction: not initialized")
)

// AbstractState is the (state_id, node_id, cset) tuple of spec.md §3. Ids
// are dense small integers; state_id 0 is always the initial abstract
// state's id (spec.md §4.4 postcondition).
type AbstractState struct {
	StateID int
	NodeID  refine.NodeID
	CSet    *cset.CartesianSet
}

// Transition is (op_id, target_state_id), spec.md §3.
type Transition struct {
	Op     int
	Target int
}

// TransitionOracle is the capability both TransitionSystem and MatchTree
// implement (spec.md §4.3); Abstraction holds exactly one, chosen at
// construction per task.Config.TransitionRepresentation.
type TransitionOracle interface {
	// Outgoing enumerates (op, target) pairs leaving state s.
	Outgoing(s int) []Transition
	// Incoming enumerates (op, source) pairs entering state s; Target in
	// the returned Transition names the *source* state here, matching
	// spec.md's "incoming(state) -> iter<Transition>" (op, source).
	Incoming(s int) []Transition
	// HasTransition reports whether (src, op, dest) is a live transition.
	HasTransition(src, op, dest int) bool
	// LoopingOperators returns the set of operator ids that self-loop at
	// one or more of the given states (the union over states).
	LoopingOperators(states []int) map[int]struct{}
	// OnSplit is invoked by Abstraction.refine after a split so the oracle
	// can rewire (explicit TransitionSystem) or do nothing (MatchTree).
	OnSplit(old, left, right int, splitVar int, ab *Abstraction) error
}
