// Package task defines the external interfaces the cegarh core consumes and
// produces: PlanningTask (§6), SubtaskGenerator, and Heuristic. These are the
// contracts a PDDL/SAS front end and a search driver implement and call
// respectively; the core never parses a task description or runs a search
// itself (spec.md §1 Non-goals).
package task

// Fact is a (variable, value) pair, the atomic unit of a partial state.
type Fact struct {
	Var   int
	Value int
}

// PlanningTask is the immutable fixed-domain classical-planning task the
// core builds abstractions for. Implementations must return preconditions
// and effects sorted by Var ascending with unique Vars, matching spec.md §3.
type PlanningTask interface {
	// NumVariables returns |V|.
	NumVariables() int
	// DomainSize returns |dom(v)|.
	DomainSize(v int) int
	// NumOperators returns |O|.
	NumOperators() int
	// OperatorCost returns the non-negative 32-bit cost of operator o.
	OperatorCost(o int) int32
	// OperatorName returns a human-readable label, used only for DOT dumps
	// and log lines.
	OperatorName(o int) string
	// Preconditions returns pre(o), sorted by Var ascending, unique Vars.
	Preconditions(o int) []Fact
	// Effects returns eff(o), sorted by Var ascending, unique Vars. No
	// conditional effects (spec.md Non-goals).
	Effects(o int) []Fact
	// InitialState returns s0, indexed by variable.
	InitialState() []int
	// Goal returns G, sorted by Var ascending, unique Vars.
	Goal() []Fact
	// HasZeroCostOperator reports whether any operator has cost 0; this
	// flag drives the ShortestPaths cost-lift policy of spec.md §4.5.
	HasZeroCostOperator() bool
}

// SubtaskGenerator produces derived tasks for CEGAR to build abstractions
// over: goal-facts subtasks (one per goal atom) and landmark subtasks (goal
// reduced to a single fact, operator costs held by the landmark
// decomposition). Each derived task is a PlanningTask in its own right.
type SubtaskGenerator interface {
	// Subtasks returns the ordered list of derived tasks to build
	// abstractions for.
	Subtasks(parent PlanningTask) []Subtask
}

// Subtask pairs a derived PlanningTask with the ability to translate a
// concrete state of the ancestor (original) task into a state the derived
// task's variables/goal can be evaluated against.
type Subtask interface {
	PlanningTask
	// IsLandmark reports whether this subtask was produced by the landmark
	// decomposition (drives CEGAR's pre-refinement choice in spec.md §4.7).
	IsLandmark() bool
	// ConvertAncestorState maps a concrete state of the original task
	// (indexed by the original task's variables) into a state indexed by
	// this subtask's variables. For goal-facts/landmark subtasks over the
	// same variable set this is typically the identity map.
	ConvertAncestorState(values []int) []int
}

// DeadEnd is the heuristic sentinel returned for states proven unreachable
// or unsolvable; it stands in for spec.md's "INF" at the Heuristic boundary.
const DeadEnd = -1

// Heuristic is the h(s) contract the cost-partitioning collection
// implements and that a search algorithm calls. Returns a non-negative
// estimate, or DeadEnd.
type Heuristic interface {
	// ComputeHeuristic returns h(s) for the given concrete state, indexed
	// by the original task's variables, or DeadEnd.
	ComputeHeuristic(state []int) int
}
