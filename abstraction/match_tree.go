// File: match_tree.go
// Role: the SuccessorGenerator transition oracle of spec.md §4.3 — computes
// incoming/outgoing transitions on demand instead of storing them.
//
// spec.md's Query variant descends the RefinementHierarchy guided by a
// per-variable Unaffected/FullDomain/SingleValue matcher so that only the
// relevant leaves are visited. We implement the same *semantics*
// (regression of each operator's effects against the target's Cartesian
// set, intersected with preconditions, then matched against every current
// abstract state) via a direct scan over ab.states instead of a
// matcher-driven hierarchy descent. Both produce the identical transition
// multiset required by property P5; the hierarchy-descent optimization
// trades CPU for the O(depth)-per-leaf locality spec.md describes, which we
// trade back for implementation simplicity — recorded as a deliberate
// simplification in DESIGN.md rather than left silent.
package abstraction

import (
	"github.com/katalvlaran/cegarh/cset"
	"github.com/katalvlaran/cegarh/task"
)

// MatchTree is the SuccessorGenerator oracle: Outgoing/Incoming/HasTransition
// recompute from scratch on every call using the current Abstraction's
// states, rather than maintaining per-state deques.
type MatchTree struct {
	t        task.PlanningTask
	cachedAb *Abstraction // bound once by Abstraction at construction time
}

// NewMatchTree returns a MatchTree over t. Bind must be called once (done
// automatically by Abstraction's constructor) before any query method.
func NewMatchTree(t task.PlanningTask) *MatchTree { return &MatchTree{t: t} }

// Bind attaches the owning Abstraction so later queries can read its
// current state list. The Abstraction pointer itself never changes across
// splits (only the states it holds do), so binding once suffices; OnSplit
// therefore has nothing further to do.
func (m *MatchTree) Bind(ab *Abstraction) { m.cachedAb = ab }

// outgoingFor computes the outgoing transitions of state s within ab by
// testing, for every operator and every other current state s', whether
// applying the operator could move a concrete witness of s into s'.
func (m *MatchTree) outgoingFor(ab *Abstraction, s int) []Transition {
	src := ab.states[s].CSet
	var out []Transition
	for o := 0; o < m.t.NumOperators(); o++ {
		if !operatorApplicable(src, m.t.Preconditions(o)) {
			continue
		}
		for _, st := range ab.states {
			if st.StateID == s {
				// self-loop candidate handled by LoopingOperators/HasTransition.
				continue
			}
			if operatorReaches(m.t, src, st.CSet, o) {
				out = append(out, Transition{Op: o, Target: st.StateID})
			}
		}
	}
	return out
}

// operatorApplicable reports whether o's preconditions intersect src on
// every constrained variable (the abstract applicability test: some
// concrete witness of src could satisfy pre).
func operatorApplicable(src *cset.CartesianSet, pre []task.Fact) bool {
	for _, f := range pre {
		if !src.Test(f.Var, f.Value) {
			return false
		}
	}
	return true
}

// operatorReaches reports whether applying o to a concrete witness of src
// can land in dst: for every variable, the post-value (effect value if o
// affects it, else its precondition value if o has one, else the source's
// values) must intersect dst's domain.
func operatorReaches(t task.PlanningTask, src, dst *cset.CartesianSet, o int) bool {
	effByVar := map[int]int{}
	for _, f := range t.Preconditions(o) {
		effByVar[f.Var] = f.Value
	}
	for _, f := range t.Effects(o) {
		effByVar[f.Var] = f.Value
	}
	for v := 0; v < dst.NumVars(); v++ {
		if val, affected := effByVar[v]; affected {
			if !dst.Test(v, val) {
				return false
			}
			continue
		}
		// Unaffected variable: some value of src's A_v must also lie in dst's A_v.
		found := false
		for _, x := range src.Values(v) {
			if dst.Test(v, x) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Outgoing implements TransitionOracle.
func (m *MatchTree) Outgoing(s int) []Transition { return m.outgoingFor(m.cachedAb, s) }

// Incoming implements TransitionOracle by scanning every other state's
// outgoing set for edges into s (a direct consequence of recomputing
// on demand rather than storing a reverse index).
func (m *MatchTree) Incoming(s int) []Transition {
	var in []Transition
	for _, st := range m.cachedAb.states {
		if st.StateID == s {
			continue
		}
		for _, tr := range m.outgoingFor(m.cachedAb, st.StateID) {
			if tr.Target == s {
				in = append(in, Transition{Op: tr.Op, Target: st.StateID})
			}
		}
	}
	return in
}

// HasTransition implements TransitionOracle.
func (m *MatchTree) HasTransition(src, op, dest int) bool {
	for _, tr := range m.outgoingFor(m.cachedAb, src) {
		if tr.Op == op && tr.Target == dest {
			return true
		}
	}
	return src == dest && m.isLoop(src, op)
}

func (m *MatchTree) isLoop(s, op int) bool {
	cs := m.cachedAb.states[s].CSet
	if !operatorApplicable(cs, m.t.Preconditions(op)) {
		return false
	}
	return operatorReaches(m.t, cs, cs, op)
}

// LoopingOperators implements TransitionOracle.
func (m *MatchTree) LoopingOperators(states []int) map[int]struct{} {
	out := make(map[int]struct{})
	for _, s := range states {
		for o := 0; o < m.t.NumOperators(); o++ {
			if m.isLoop(s, o) {
				out[o] = struct{}{}
			}
		}
	}
	return out
}

// OnSplit implements TransitionOracle: the MatchTree stores nothing, so a
// split requires no rewiring (spec.md §4.3).
func (m *MatchTree) OnSplit(old, left, right int, splitVar int, ab *Abstraction) error {
	return nil
}
