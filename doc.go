// Package cegarh implements a Cartesian-abstraction CEGAR heuristic
// planning framework: refine per-subtask abstractions by counterexample
// flaws, compute saturated-cost-partitioned admissible heuristics over
// pattern databases, and combine them via max-over-orders (or a canonical,
// independence-grouped sum) into a single task.Heuristic a search driver
// can call.
//
// Packages, bottom-up:
//
//	cset             Cartesian sets (bitset-backed per-variable domain subsets)
//	refine           RefinementHierarchy, the DAG resolving concrete states
//	                 to abstract state ids across splits
//	abstraction      Abstraction, Refine, and the two transition oracles
//	                 (explicit TransitionSystem, on-demand MatchTree)
//	spt              ShortestPaths, incrementally maintained under splits
//	flawsearch       FlawSearch and SplitSelector
//	cegar            the CEGAR refinement driver and landmark pre-refinement
//	pdb              pattern-database Projection (goal distances, saturated
//	                 per-operator costs)
//	subtasks         SubtaskGenerator implementations and AbstractionCollection
//	costpartitioning SCP, zero-one, post-hoc optimization, optimal LP, order
//	                 generators, and the Diversifier
//	heuristic        HeuristicEvaluator and CanonicalEvaluator, the task.Heuristic
//	                 a search driver calls
//	task             the external contracts (PlanningTask, SubtaskGenerator,
//	                 Heuristic) and the functional-options Config
//	planutil         the shared Budget and MemoryPadding cutoffs
//	logging          the leveled Logger threaded through cegar/subtasks
//
// This module builds and maintains heuristics; it does not parse a task
// description or run a search itself — both are the caller's
// responsibility (spec.md §1 Non-goals).
package cegarh
