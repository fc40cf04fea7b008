// Package cegar implements the CEGAR refinement loop (spec.md §4.7,
// component I): builds the trivial abstraction over one subtask,
// pre-refines landmark subtasks, then alternates FlawSearch/SplitSelector
// with Abstraction.Refine and ShortestPaths.OnSplit until a concrete
// solution is found, the subtask is proven unsolvable, or a resource
// budget runs out.
package cegar

import (
	"fmt"
	"math/rand"

	"github.com/katalvlaran/cegarh/abstraction"
	"github.com/katalvlaran/cegarh/flawsearch"
	"github.com/katalvlaran/cegarh/logging"
	"github.com/katalvlaran/cegarh/planutil"
	"github.com/katalvlaran/cegarh/spt"
	"github.com/katalvlaran/cegarh/task"
)

// Outcome is CEGAR's terminal verdict for one subtask.
type Outcome int

const (
	// ConcreteSolution means FlawSearch reached the concrete goal.
	ConcreteSolution Outcome = iota
	// Unsolvable means the abstraction's goal states became unreachable
	// from the initial state.
	Unsolvable
	// BudgetExhausted means states/transitions/time/memory ran out first.
	BudgetExhausted
)

// Result bundles everything a caller needs after CEGAR.Refine returns.
type Result struct {
	Abstraction *abstraction.Abstraction
	ShortestPaths *spt.ShortestPaths
	Outcome     Outcome
}

// CEGAR owns exactly one Abstraction/ShortestPaths/FlawSearch for the
// duration of one Refine call (spec.md §5's ownership rule), surrendering
// the Abstraction on return.
type CEGAR struct {
	cfg    task.Config
	budget *planutil.Budget
	mem    *planutil.MemoryPadding
	log    logging.Logger
	rng    *rand.Rand
}

// New returns a CEGAR bound to cfg's resource limits.
func New(cfg task.Config, log logging.Logger) *CEGAR {
	if log == nil {
		log = logging.Nop
	}
	return &CEGAR{
		cfg:    cfg,
		budget: planutil.NewBudget(cfg.MaxTime, cfg.MaxStates, cfg.MaxTransitions),
		mem:    planutil.NewMemoryPadding(cfg.MemoryPaddingMB),
		log:    log,
		rng:    rand.New(rand.NewSource(cfg.RandomSeed)),
	}
}

// Refine builds and refines an abstraction over st until one of the three
// Outcomes is reached.
func (c *CEGAR) Refine(st task.Subtask) (Result, error) {
	repr := c.cfg.TransitionRepresentation
	ab, err := abstraction.NewTrivial(st, repr, fmt.Sprintf("subtask(goal=%v, landmark=%v)", st.Goal(), st.IsLandmark()))
	if err != nil {
		return Result{}, err
	}

	if st.IsLandmark() {
		c.separateFactsUnreachableBeforeGoal(ab, st)
	} else {
		c.splitOffGoalFacts(ab, st)
	}

	sp, err := spt.New(ab)
	if err != nil {
		return Result{}, err
	}

	c.budget.AddStates(ab.NumStates())
	storedTransitions := 0
	for {
		if ts, ok := ab.Oracle().(*abstraction.TransitionSystem); ok {
			c.budget.AddTransitions(ts.NumNonLoops() - storedTransitions)
			storedTransitions = ts.NumNonLoops()
		}
		if c.budget.Expired() || c.budget.Exhausted() || !c.mem.Reserved() {
			return Result{Abstraction: ab, ShortestPaths: sp, Outcome: BudgetExhausted}, nil
		}

		if !sp.Reachable(ab.InitID()) {
			return Result{Abstraction: ab, ShortestPaths: sp, Outcome: Unsolvable}, nil
		}

		fs := flawsearch.New(ab, sp, st, flawsearch.Options{
			Pick:                      c.cfg.PickFlawedAbstractState,
			MaxStateExpansions:        c.cfg.MaxStateExpansions,
			MaxConcreteStatesPerState: c.cfg.MaxConcreteStatesPerAbstractState,
			Deadline:                  c.budget.Deadline(),
			RNG:                       c.rng,
		})
		flaw, status := fs.Run(st.InitialState())
		if status == flawsearch.Solved {
			return Result{Abstraction: ab, ShortestPaths: sp, Outcome: ConcreteSolution}, nil
		}
		if flaw == nil {
			return Result{Abstraction: ab, ShortestPaths: sp, Outcome: Unsolvable}, nil
		}

		ss := flawsearch.NewSplitSelector(ab, st, nil, nil, c.rng)
		split, ok := ss.Select(flaw, c.cfg.PickSplit, c.cfg.TiebreakSplit)
		if !ok {
			return Result{Abstraction: ab, ShortestPaths: sp, Outcome: Unsolvable}, nil
		}

		v := ab.State(split.AbstractState)
		v1, v2, err := ab.Refine(v, split.Var, split.Wanted)
		if err != nil {
			return Result{}, err
		}
		sp.OnSplit(v.StateID, v1, v2)
		c.budget.AddStates(1)
		c.log.Logf(logging.Debug, "cegar: split state %d on var %d (|wanted|=%d) -> %d,%d", v.StateID, split.Var, len(split.Wanted), v1, v2)
	}
}

// splitOffGoalFacts isolates each of st's goal facts as a singleton value
// at the initial abstract state, per spec.md §4.7's non-landmark branch.
func (c *CEGAR) splitOffGoalFacts(ab *abstraction.Abstraction, st task.Subtask) {
	for _, g := range st.Goal() {
		v := ab.State(ab.InitID())
		if v.CSet.Count(g.Var) <= 1 {
			continue
		}
		if _, _, err := ab.Refine(v, g.Var, []int{g.Value}); err != nil {
			c.log.Logf(logging.Warn, "cegar: goal-fact split var=%d val=%d: %v", g.Var, g.Value, err)
		}
	}
}

// separateFactsUnreachableBeforeGoal implements spec.md §4.7's landmark
// pre-refinement: compute the relaxed-reachable fact set ignoring any
// operator whose effect is the landmark's goal fact, isolate the
// unreachable values of every variable at the initial state, mark every
// state a goal, then (budget permitting) split off the goal fact itself.
func (c *CEGAR) separateFactsUnreachableBeforeGoal(ab *abstraction.Abstraction, st task.Subtask) {
	goal := st.Goal()
	if len(goal) != 1 {
		return // landmark subtasks are single-fact goals by construction
	}
	g := goal[0]

	reachable := relaxedReachableIgnoring(st, g)

	for v := 0; v < st.NumVariables(); v++ {
		var unreached []int
		state := ab.State(ab.InitID())
		for _, x := range state.CSet.Values(v) {
			if !reachable[v][x] {
				unreached = append(unreached, x)
			}
		}
		if len(unreached) == 0 {
			continue
		}
		if len(unreached) == state.CSet.Count(v) {
			continue // splitting off everything would leave nothing: skip
		}
		if _, _, err := ab.Refine(state, v, unreached); err != nil {
			c.log.Logf(logging.Warn, "cegar: landmark pre-refinement var=%d: %v", v, err)
		}
	}

	ab.MarkAllGoal()

	if !c.budget.Exhausted() {
		c.splitOffGoalFacts(ab, st)
	}
}

// relaxedReachableIgnoring computes the delete-relaxation forward fixpoint
// of facts reachable from st's initial state, skipping every operator
// whose effect contains goalFact (the "without actions that achieve g"
// clause of RPB(g)).
func relaxedReachableIgnoring(st task.Subtask, goalFact task.Fact) [][]bool {
	n := st.NumVariables()
	reached := make([][]bool, n)
	for v := 0; v < n; v++ {
		reached[v] = make([]bool, st.DomainSize(v))
	}
	init := st.InitialState()
	for v, x := range init {
		reached[v][x] = true
	}

	changed := true
	for changed {
		changed = false
		for o := 0; o < st.NumOperators(); o++ {
			eff := st.Effects(o)
			if achievesGoal(eff, goalFact) {
				continue
			}
			if !preSatisfied(st.Preconditions(o), reached) {
				continue
			}
			for _, f := range eff {
				if !reached[f.Var][f.Value] {
					reached[f.Var][f.Value] = true
					changed = true
				}
			}
		}
	}
	return reached
}

func achievesGoal(eff []task.Fact, g task.Fact) bool {
	for _, f := range eff {
		if f.Var == g.Var && f.Value == g.Value {
			return true
		}
	}
	return false
}

// preSatisfied reports whether every precondition fact is already
// reached, the delete-relaxation applicability test.
func preSatisfied(pre []task.Fact, reached [][]bool) bool {
	for _, f := range pre {
		if !reached[f.Var][f.Value] {
			return false
		}
	}
	return true
}
