// File: abstraction.go
// Role: Abstraction, the aggregate of spec.md §3/§4.4 — owns the list of
// AbstractStates, the RefinementHierarchy, a goal set, and one
// TransitionOracle, and exposes the split operation (Refine).
package abstraction

import (
	"fmt"

	"github.com/katalvlaran/cegarh/cset"
	"github.com/katalvlaran/cegarh/refine"
	"github.com/katalvlaran/cegarh/task"
)

// Abstraction is the Cartesian abstraction built and refined by CEGAR.
type Abstraction struct {
	t             task.PlanningTask
	name          string
	states        []AbstractState
	hierarchy     *refine.Hierarchy
	initID        int
	initialValues []int
	goalFacts     []task.Fact
	goal          map[int]struct{}
	oracle        TransitionOracle
}

// NewTrivial builds the trivial abstraction of spec.md §4.7/P2: a single
// state with every operator stored as a self-loop, the state's Cartesian
// set spanning the full domain of every variable.
func NewTrivial(t task.PlanningTask, repr task.TransitionRepresentation, name string) (*Abstraction, error) {
	domainSizes := make([]int, t.NumVariables())
	for v := 0; v < t.NumVariables(); v++ {
		domainSizes[v] = t.DomainSize(v)
	}
	full := cset.NewFull(domainSizes)

	h := refine.New()
	root := h.AddRoot(0)

	goalFacts := make([]task.Fact, 0, len(t.Goal()))
	for _, f := range t.Goal() {
		goalFacts = append(goalFacts, task.Fact{Var: f.Var, Value: f.Value})
	}

	ab := &Abstraction{
		t:             t,
		name:          name,
		states:        []AbstractState{{StateID: 0, NodeID: root, CSet: full}},
		hierarchy:     h,
		initID:        0,
		initialValues: append([]int(nil), t.InitialState()...),
		goalFacts:     goalFacts,
		goal:          map[int]struct{}{},
	}

	switch repr {
	case task.SuccessorGenerator:
		mt := NewMatchTree(t)
		mt.Bind(ab)
		ab.oracle = mt
	default: // Store, StoreThenSG (treated as Store; see DESIGN.md)
		ab.oracle = NewTrivialTransitionSystem(t)
	}

	if full.IncludesFacts(toCsetFacts(goalFacts)) {
		ab.goal[0] = struct{}{}
	}
	return ab, nil
}

func toCsetFacts(facts []task.Fact) []cset.Fact {
	out := make([]cset.Fact, len(facts))
	for i, f := range facts {
		out[i] = cset.Fact{Var: f.Var, Value: f.Value}
	}
	return out
}

// Name returns the subtask description this abstraction was built for
// (supplemented ambient field, SPEC_FULL.md §5).
func (ab *Abstraction) Name() string { return ab.name }

// NumStates returns the current number of abstract states.
func (ab *Abstraction) NumStates() int { return len(ab.states) }

// State returns the AbstractState for id.
func (ab *Abstraction) State(id int) AbstractState { return ab.states[id] }

// States returns every current AbstractState, indexed by StateID.
func (ab *Abstraction) States() []AbstractState { return ab.states }

// InitID returns the initial abstract state's id, always 0 (spec.md §3).
func (ab *Abstraction) InitID() int { return ab.initID }

// GoalStates returns the current goal state ids.
func (ab *Abstraction) GoalStates() []int {
	out := make([]int, 0, len(ab.goal))
	for s := range ab.goal {
		out = append(out, s)
	}
	return out
}

// IsGoal reports whether s is a current goal state.
func (ab *Abstraction) IsGoal(s int) bool {
	_, ok := ab.goal[s]
	return ok
}

// MarkAllGoal flags every current abstract state as a goal state, used by
// the landmark pre-refinement step (spec.md §4.7) where the subtask's
// purpose is cost accounting rather than goal reachability.
func (ab *Abstraction) MarkAllGoal() {
	for _, st := range ab.states {
		ab.goal[st.StateID] = struct{}{}
	}
}

// Oracle returns the transition oracle (explicit TransitionSystem or
// on-demand MatchTree) backing this abstraction.
func (ab *Abstraction) Oracle() TransitionOracle { return ab.oracle }

// Task returns the PlanningTask this abstraction was built over.
func (ab *Abstraction) Task() task.PlanningTask { return ab.t }

// Resolve maps a concrete state (indexed by this abstraction's task
// variables) to its current abstract state id via the refinement
// hierarchy, O(depth).
func (ab *Abstraction) Resolve(values []int) (int, error) {
	return ab.hierarchy.Resolve(values)
}

// Refine splits abstract state v on variable varID, carving out the
// non-empty proper subset wanted, per the numbered policy decisions of spec.md
// §4.4. Returns the resulting (v1_id, v2_id).
func (ab *Abstraction) Refine(v AbstractState, varID int, wanted []int) (v1ID, v2ID int, err error) {
	complementCset, wantedCset, err := v.CSet.SplitDomain(varID, wanted)
	if err != nil {
		return 0, 0, fmt.Errorf("abstraction: refine state %d on var %d: %w", v.StateID, varID, err)
	}
	complementValues := complementCset.Values(varID)

	// Policy #2: prefer the smaller wanted side as the hierarchy's right
	// (chain-optimized) child.
	var w []int
	var smallCset, largeCset *cset.CartesianSet
	if len(wanted) <= len(complementValues) {
		w, smallCset, largeCset = append([]int(nil), wanted...), wantedCset, complementCset
	} else {
		w, smallCset, largeCset = complementValues, complementCset, wantedCset
	}

	v1ID = v.StateID
	v2ID = len(ab.states)
	v1Cset, v2Cset := largeCset, smallCset

	// Policy #3: keep the initial state's id at 0.
	if v.StateID == ab.initID {
		initVal := ab.initialValues[varID]
		if v2Cset.Test(varID, initVal) {
			v1Cset, v2Cset = v2Cset, v1Cset
		}
	}

	var leftStateID, rightStateID int
	if v1Cset == smallCset {
		rightStateID, leftStateID = v1ID, v2ID
	} else {
		rightStateID, leftStateID = v2ID, v1ID
	}

	finalLeftNode, rightNode, err := ab.hierarchy.Split(v.NodeID, varID, w, leftStateID, rightStateID)
	if err != nil {
		return 0, 0, fmt.Errorf("abstraction: hierarchy split: %w", err)
	}

	var v1Node, v2Node refine.NodeID
	if leftStateID == v1ID {
		v1Node, v2Node = finalLeftNode, rightNode
	} else {
		v1Node, v2Node = rightNode, finalLeftNode
	}

	ab.states[v1ID] = AbstractState{StateID: v1ID, NodeID: v1Node, CSet: v1Cset}
	ab.states = append(ab.states, AbstractState{StateID: v2ID, NodeID: v2Node, CSet: v2Cset})

	// Policy #6: goal-set update.
	delete(ab.goal, v.StateID)
	gf := toCsetFacts(ab.goalFacts)
	if v1Cset.IncludesFacts(gf) {
		ab.goal[v1ID] = struct{}{}
	}
	if v2Cset.IncludesFacts(gf) {
		ab.goal[v2ID] = struct{}{}
	}

	// Policy #7: rewire the transition oracle (no-op for MatchTree).
	if err := ab.oracle.OnSplit(v.StateID, v1ID, v2ID, varID, ab); err != nil {
		return 0, 0, fmt.Errorf("abstraction: oracle rewire: %w", err)
	}

	return v1ID, v2ID, nil
}
