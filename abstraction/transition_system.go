// File: transition_system.go
// Role: the explicit TransitionSystem of spec.md §4.3 — three parallel
// deques (incoming/outgoing/loops) indexed by state_id, rewired on every
// split. Grounded on this module's adjacency-list convention
// (core.Graph's map-of-slices adjacency), adapted to abstract-state ids
// instead of string vertex ids and to spec.md's rewire rules instead of
// AddEdge/RemoveEdge.
package abstraction

import "github.com/katalvlaran/cegarh/task"

// TransitionSystem is the Store transition-representation oracle.
type TransitionSystem struct {
	t        task.PlanningTask
	incoming [][]Transition // incoming[s] = (op, source) pairs entering s
	outgoing [][]Transition // outgoing[s] = (op, target) pairs leaving s
	loops    [][]int        // loops[s] = operator ids self-looping at s

	numNonLoops int
	numLoops    int
}

// NewTrivialTransitionSystem builds the single-state trivial abstraction's
// transition system: one state (id 0) with every operator as a self-loop
// (spec.md §4.7, property P2).
func NewTrivialTransitionSystem(t task.PlanningTask) *TransitionSystem {
	ts := &TransitionSystem{
		t:        t,
		incoming: [][]Transition{{}},
		outgoing: [][]Transition{{}},
		loops:    [][]int{make([]int, t.NumOperators())},
	}
	for o := 0; o < t.NumOperators(); o++ {
		ts.loops[0][o] = o
	}
	ts.numLoops = t.NumOperators()
	return ts
}

// Outgoing implements TransitionOracle.
func (ts *TransitionSystem) Outgoing(s int) []Transition { return ts.outgoing[s] }

// Incoming implements TransitionOracle.
func (ts *TransitionSystem) Incoming(s int) []Transition { return ts.incoming[s] }

// HasTransition implements TransitionOracle.
func (ts *TransitionSystem) HasTransition(src, op, dest int) bool {
	for _, tr := range ts.outgoing[src] {
		if tr.Op == op && tr.Target == dest {
			return true
		}
	}
	for _, o := range ts.loops[src] {
		if o == op && src == dest {
			return true
		}
	}
	return false
}

// LoopingOperators implements TransitionOracle.
func (ts *TransitionSystem) LoopingOperators(states []int) map[int]struct{} {
	out := make(map[int]struct{})
	for _, s := range states {
		for _, o := range ts.loops[s] {
			out[o] = struct{}{}
		}
	}
	return out
}

// NumNonLoops and NumLoops expose the incrementally maintained counters
// spec.md §4.3 calls for.
func (ts *TransitionSystem) NumNonLoops() int { return ts.numNonLoops }
func (ts *TransitionSystem) NumLoops() int    { return ts.numLoops }

// growTo extends the three deques with empty slots up to (and including)
// state id n-1.
func (ts *TransitionSystem) growTo(n int) {
	for len(ts.incoming) < n {
		ts.incoming = append(ts.incoming, nil)
		ts.outgoing = append(ts.outgoing, nil)
		ts.loops = append(ts.loops, nil)
	}
}

// valueAt returns (value, true) for the effective post-op value of var
// under operator o: the effect value if o affects var, else the
// precondition value if o constrains var, else (0, false) meaning o is
// fully unaffected by var.
func valueAt(t task.PlanningTask, o, v int) (int, bool) {
	for _, f := range t.Effects(o) {
		if f.Var == v {
			return f.Value, true
		}
	}
	for _, f := range t.Preconditions(o) {
		if f.Var == v {
			return f.Value, true
		}
	}
	return 0, false
}

// preAt returns the precondition value of o at v, if any.
func preAt(t task.PlanningTask, o, v int) (int, bool) {
	for _, f := range t.Preconditions(o) {
		if f.Var == v {
			return f.Value, true
		}
	}
	return 0, false
}

// effAt returns the effect value of o at v, if any.
func effAt(t task.PlanningTask, o, v int) (int, bool) {
	for _, f := range t.Effects(o) {
		if f.Var == v {
			return f.Value, true
		}
	}
	return 0, false
}

// OnSplit implements TransitionOracle: rewires incoming/outgoing/loop
// edges of the split state per the tables in spec.md §4.3.
func (ts *TransitionSystem) OnSplit(old, v1, v2 int, splitVar int, ab *Abstraction) error {
	ts.growTo(v2 + 1)

	oldIncoming := ts.incoming[old]
	oldOutgoing := ts.outgoing[old]
	oldLoops := ts.loops[old]

	ts.numNonLoops -= len(oldIncoming) + len(oldOutgoing)
	ts.numLoops -= len(oldLoops)

	v1cset := ab.states[v1].CSet
	v2cset := ab.states[v2].CSet

	// --- Incoming side ---------------------------------------------------
	// Collect distinct sources among the old incoming edges.
	sourceOps := map[int][]int{} // source -> ops that reach `old` from source
	for _, tr := range oldIncoming {
		sourceOps[tr.Target] = append(sourceOps[tr.Target], tr.Op)
		// remove u->old from u's outgoing list
		ts.outgoing[tr.Target] = removeTransition(ts.outgoing[tr.Target], tr.Op, old)
	}
	ts.incoming[old] = nil
	ts.incoming[v1] = nil
	ts.incoming[v2] = nil

	for u, ops := range sourceOps {
		for _, o := range ops {
			_, preDefined := preAt(ts.t, o, splitVar)
			_, effDefined := effAt(ts.t, o, splitVar)
			if !preDefined && !effDefined {
				if ab.states[u].CSet.IntersectsDomain(v1cset, splitVar) {
					ts.addEdge(u, o, v1)
				}
				if ab.states[u].CSet.IntersectsDomain(v2cset, splitVar) {
					ts.addEdge(u, o, v2)
				}
			} else {
				val, _ := valueAt(ts.t, o, splitVar)
				if v1cset.Test(splitVar, val) {
					ts.addEdge(u, o, v1)
				} else {
					ts.addEdge(u, o, v2)
				}
			}
		}
	}

	// --- Outgoing side -----------------------------------------------------
	targetOps := map[int][]int{} // target -> ops leaving `old` to target
	for _, tr := range oldOutgoing {
		targetOps[tr.Target] = append(targetOps[tr.Target], tr.Op)
		ts.incoming[tr.Target] = removeTransition(ts.incoming[tr.Target], tr.Op, old)
	}
	ts.outgoing[old] = nil

	for w, ops := range targetOps {
		for _, o := range ops {
			preVal, preDefined := preAt(ts.t, o, splitVar)
			_, effDefined := effAt(ts.t, o, splitVar)
			switch {
			case preDefined:
				if v1cset.Test(splitVar, preVal) {
					ts.addEdge(v1, o, w)
				} else {
					ts.addEdge(v2, o, w)
				}
			case effDefined:
				// No precondition on var: either child can fire o.
				ts.addEdge(v1, o, w)
				ts.addEdge(v2, o, w)
			default:
				if v1cset.IntersectsDomain(ab.states[w].CSet, splitVar) {
					ts.addEdge(v1, o, w)
				}
				if v2cset.IntersectsDomain(ab.states[w].CSet, splitVar) {
					ts.addEdge(v2, o, w)
				}
			}
		}
	}

	// --- Loops ---------------------------------------------------------
	ts.loops[old] = nil
	for _, o := range oldLoops {
		preVal, preDefined := preAt(ts.t, o, splitVar)
		effVal, effDefined := effAt(ts.t, o, splitVar)

		postVal, postDefined := effVal, effDefined
		if !postDefined && preDefined {
			postVal, postDefined = preVal, true
		}

		switch {
		case !preDefined && !postDefined:
			ts.addLoop(v1, o)
			ts.addLoop(v2, o)
		case !preDefined && postDefined:
			if v1cset.Test(splitVar, postVal) {
				ts.addLoop(v1, o)
				ts.addEdge(v2, o, v1)
			} else {
				ts.addEdge(v1, o, v2)
				ts.addLoop(v2, o)
			}
		case preDefined && postDefined:
			preInV1 := v1cset.Test(splitVar, preVal)
			postInV1 := v1cset.Test(splitVar, postVal)
			switch {
			case preInV1 && postInV1:
				ts.addLoop(v1, o)
			case preInV1 && !postInV1:
				ts.addEdge(v1, o, v2)
			case !preInV1 && postInV1:
				ts.addEdge(v2, o, v1)
			default:
				ts.addLoop(v2, o)
			}
		}
	}

	return nil
}

func (ts *TransitionSystem) addEdge(src, op, dest int) {
	ts.outgoing[src] = append(ts.outgoing[src], Transition{Op: op, Target: dest})
	ts.incoming[dest] = append(ts.incoming[dest], Transition{Op: op, Target: src})
	ts.numNonLoops++
}

func (ts *TransitionSystem) addLoop(s, op int) {
	ts.loops[s] = append(ts.loops[s], op)
	ts.numLoops++
}

func removeTransition(list []Transition, op, target int) []Transition {
	out := list[:0]
	for _, tr := range list {
		if tr.Op == op && tr.Target == target {
			continue
		}
		out = append(out, tr)
	}
	return out
}
