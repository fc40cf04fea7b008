// Package subtasks implements the SubtaskGenerator variants of spec.md
// §4.7/§6 (component K) — goal-facts subtasks (one abstraction per goal
// atom) and landmark subtasks (goal reduced to a single fact, driving
// CEGAR's landmark pre-refinement) — plus AbstractionCollection, the
// ordered set of abstractions a CostPartitioning engine runs over.
package subtasks

import (
	"github.com/katalvlaran/cegarh/abstraction"
	"github.com/katalvlaran/cegarh/cegar"
	"github.com/katalvlaran/cegarh/logging"
	"github.com/katalvlaran/cegarh/spt"
	"github.com/katalvlaran/cegarh/task"
)

// factSubtask is a PlanningTask identical to its parent except for a
// single-fact goal; it satisfies task.Subtask via embedding plus the two
// extra methods below.
type factSubtask struct {
	task.PlanningTask
	goal     []task.Fact
	landmark bool
}

func (f factSubtask) Goal() []task.Fact { return f.goal }
func (f factSubtask) IsLandmark() bool  { return f.landmark }

// ConvertAncestorState is the identity map: goal-facts/landmark subtasks
// share the parent's full variable set (spec.md §6).
func (f factSubtask) ConvertAncestorState(values []int) []int { return values }

// GoalFactsGenerator produces one subtask per goal atom of the parent
// task, each retaining every variable/operator but only that single goal
// fact (spec.md §2 component K).
type GoalFactsGenerator struct{}

// Subtasks implements task.SubtaskGenerator.
func (GoalFactsGenerator) Subtasks(parent task.PlanningTask) []task.Subtask {
	goal := parent.Goal()
	out := make([]task.Subtask, 0, len(goal))
	for _, g := range goal {
		out = append(out, factSubtask{PlanningTask: parent, goal: []task.Fact{g}})
	}
	return out
}

// LandmarkGenerator produces one landmark subtask per supplied landmark
// fact. Landmarks themselves (facts true in every plan) are computed
// upstream by a landmark-graph algorithm outside this module's scope
// (spec.md §1 Non-goals: "no landmark-graph computation"); callers supply
// the fact list they already have.
type LandmarkGenerator struct {
	Landmarks []task.Fact
}

// Subtasks implements task.SubtaskGenerator.
func (g LandmarkGenerator) Subtasks(parent task.PlanningTask) []task.Subtask {
	out := make([]task.Subtask, 0, len(g.Landmarks))
	for _, l := range g.Landmarks {
		out = append(out, factSubtask{PlanningTask: parent, goal: []task.Fact{l}, landmark: true})
	}
	return out
}

// AbstractionCollection is the ordered set of (Abstraction, ShortestPaths)
// pairs a CostPartitioning engine consumes (spec.md §3's
// AbstractionCollection).
type AbstractionCollection struct {
	abstractions []*abstraction.Abstraction
	paths        []*spt.ShortestPaths
}

// NewAbstractionCollection returns an empty collection.
func NewAbstractionCollection() *AbstractionCollection {
	return &AbstractionCollection{}
}

// Add appends one (Abstraction, ShortestPaths) pair.
func (c *AbstractionCollection) Add(ab *abstraction.Abstraction, sp *spt.ShortestPaths) {
	c.abstractions = append(c.abstractions, ab)
	c.paths = append(c.paths, sp)
}

// Len returns the number of abstractions held.
func (c *AbstractionCollection) Len() int { return len(c.abstractions) }

// Abstraction returns the i-th abstraction.
func (c *AbstractionCollection) Abstraction(i int) *abstraction.Abstraction { return c.abstractions[i] }

// ShortestPaths returns the i-th abstraction's shortest-path table.
func (c *AbstractionCollection) ShortestPaths(i int) *spt.ShortestPaths { return c.paths[i] }

// Build runs CEGAR.Refine over every subtask gen produces for parent,
// collecting the results into an AbstractionCollection. An Unsolvable
// outcome for any subtask makes the whole parent task unsolvable, per
// spec.md §4.7 (reported via the returned bool); the remaining subtasks
// are still built and added.
func Build(parent task.PlanningTask, gen task.SubtaskGenerator, cfg task.Config, log logging.Logger) (*AbstractionCollection, bool, error) {
	col := NewAbstractionCollection()
	solvable := true
	for _, st := range gen.Subtasks(parent) {
		c := cegar.New(cfg, log)
		res, err := c.Refine(st)
		if err != nil {
			return nil, false, err
		}
		col.Add(res.Abstraction, res.ShortestPaths)
		if res.Outcome == cegar.Unsolvable {
			solvable = false
		}
	}
	return col, solvable, nil
}
