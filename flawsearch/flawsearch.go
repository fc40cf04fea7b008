// Package flawsearch implements FlawSearch and SplitSelector (spec.md
// §4.6, component H): a concrete best-first forward search restricted to
// f-optimal abstract transitions, and the candidate-split scoring that
// follows a recorded flaw. Grounded on dijkstra's runner/priority-queue
// idiom (container/heap, lazy decrease-key) generalized to a search over
// concrete states rather than over a stored graph.
package flawsearch

import (
	"container/heap"
	"errors"
	"math/rand"
	"time"

	"github.com/katalvlaran/cegarh/abstraction"
	"github.com/katalvlaran/cegarh/spt"
	"github.com/katalvlaran/cegarh/task"
)

// Status is the small state machine spec.md §9 calls for in place of
// exception-driven control flow.
type Status int

const (
	InProgress Status = iota
	Solved
	Failed
	Timeout
)

func (s Status) String() string {
	switch s {
	case Solved:
		return "solved"
	case Failed:
		return "failed"
	case Timeout:
		return "timeout"
	default:
		return "in_progress"
	}
}

// FlawKind distinguishes the two flaw shapes of spec.md §4.6.
type FlawKind int

const (
	Applicability FlawKind = iota
	Deviation
)

// Flaw is a point on an f-optimal abstract plan that is not realisable
// concretely.
type Flaw struct {
	Kind          FlawKind
	AbstractState int
	Op            int
	Target        int // f-optimal target abstract state; meaningful for Deviation
	Witnesses     [][]int
}

// ErrNoInitialState names the nil/empty initial-state case. Run does not
// return it: it reports such a state as Failed.
var ErrNoInitialState = errors.New("flawsearch: empty initial state")

// Options configures one FlawSearch run.
type Options struct {
	Pick                       task.PickFlawedAbstractState
	MaxStateExpansions         int
	MaxConcreteStatesPerState int
	Deadline                   time.Time
	RNG                        *rand.Rand
}

// FlawSearch runs the best-first forward search of spec.md §4.6 over one
// Abstraction/ShortestPaths pair.
type FlawSearch struct {
	ab   *abstraction.Abstraction
	sp   *spt.ShortestPaths
	t    task.PlanningTask
	opts Options

	witnesses map[int][][]int // abstract state id -> stored concrete witnesses
	flaws     map[int]*Flaw   // abstract state id -> recorded flaw (first one wins)
	expansions int
}

// New returns a FlawSearch ready to run once over ab/sp.
func New(ab *abstraction.Abstraction, sp *spt.ShortestPaths, t task.PlanningTask, opts Options) *FlawSearch {
	if opts.RNG == nil {
		opts.RNG = rand.New(rand.NewSource(0))
	}
	if opts.MaxConcreteStatesPerState <= 0 {
		opts.MaxConcreteStatesPerState = 100
	}
	return &FlawSearch{
		ab:        ab,
		sp:        sp,
		t:         t,
		opts:      opts,
		witnesses: map[int][][]int{},
		flaws:     map[int]*Flaw{},
	}
}

// frontierItem is a concrete-state search node, prioritized by f, the
// ShortestPaths goal distance of the abstract state it maps to, lowest
// first. Along an f-optimal path this distance decreases by each edge's
// lifted cost, so the queue pops states closer to the abstract goal first.
type frontierItem struct {
	concrete []int
	abs      int
	f        int64
}

type frontierPQ []*frontierItem

func (pq frontierPQ) Len() int            { return len(pq) }
func (pq frontierPQ) Less(i, j int) bool  { return pq[i].f < pq[j].f }
func (pq frontierPQ) Swap(i, j int)       { pq[i], pq[j] = pq[j], pq[i] }
func (pq *frontierPQ) Push(x interface{}) { *pq = append(*pq, x.(*frontierItem)) }
func (pq *frontierPQ) Pop() interface{} {
	old := *pq
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	*pq = old[:n-1]
	return it
}

func (fs *FlawSearch) storeWitness(abs int, c []int) {
	if len(fs.witnesses[abs]) >= fs.opts.MaxConcreteStatesPerState {
		return
	}
	fs.witnesses[abs] = append(fs.witnesses[abs], append([]int(nil), c...))
}

func (fs *FlawSearch) recordFlaw(f *Flaw) {
	if _, exists := fs.flaws[f.AbstractState]; !exists {
		fs.flaws[f.AbstractState] = f
	}
}

func satisfies(state []int, facts []task.Fact) bool {
	for _, f := range facts {
		if state[f.Var] != f.Value {
			return false
		}
	}
	return true
}

func succ(state []int, effects []task.Fact) []int {
	out := append([]int(nil), state...)
	for _, f := range effects {
		out[f.Var] = f.Value
	}
	return out
}

// Run runs the flaw search once from the given initial state, returning
// the selected flaw (nil if Solved) and the terminal status. Pick ==
// FirstOnShortestPath bypasses the search entirely and walks the abstract
// shortest-path tree directly (spec.md §4.6).
func (fs *FlawSearch) Run(initial []int) (*Flaw, Status) {
	if len(initial) == 0 {
		return nil, Failed
	}
	if fs.opts.Pick == task.PickFirstOnShortestPath {
		return fs.runShortestPathWalk(initial)
	}
	return fs.runSearch(initial)
}

func (fs *FlawSearch) expired() bool {
	return !fs.opts.Deadline.IsZero() && time.Now().After(fs.opts.Deadline)
}

// runShortestPathWalk follows a single f-optimal abstract path (breaking
// ties by lowest operator id) and reports the first inapplicable or
// deviating step, without a search queue.
func (fs *FlawSearch) runShortestPathWalk(initial []int) (*Flaw, Status) {
	c := initial
	a, err := fs.ab.Resolve(c)
	if err != nil {
		return nil, Failed
	}
	for {
		if satisfies(c, fs.t.Goal()) {
			return nil, Solved
		}
		edge, ok := fs.bestFOptimalEdge(a)
		if !ok {
			return nil, Failed
		}
		pre := fs.t.Preconditions(edge.Op)
		fs.storeWitness(a, c)
		if !satisfies(c, pre) {
			flaw := &Flaw{Kind: Applicability, AbstractState: a, Op: edge.Op, Witnesses: fs.witnesses[a]}
			return flaw, InProgress
		}
		c2 := succ(c, fs.t.Effects(edge.Op))
		if !fs.targetIncludes(edge.Target, c2) {
			flaw := &Flaw{Kind: Deviation, AbstractState: a, Op: edge.Op, Target: edge.Target, Witnesses: fs.witnesses[a]}
			return flaw, InProgress
		}
		c, a = c2, edge.Target
	}
}

func (fs *FlawSearch) targetIncludes(target int, c []int) bool {
	st := fs.ab.State(target)
	for v := 0; v < st.CSet.NumVars(); v++ {
		if !st.CSet.Test(v, c[v]) {
			return false
		}
	}
	return true
}

// bestFOptimalEdge returns one outgoing edge (o, a') of a such that
// d[a] == sp.LiftedCost(o) + d[a'] (both sides in sp's lifted units, spec.md
// §4.5/§4.6), preferring the lowest operator id for determinism.
func (fs *FlawSearch) bestFOptimalEdge(a int) (abstraction.Transition, bool) {
	da := fs.sp.Distance(a)
	var best abstraction.Transition
	found := false
	for _, tr := range fs.ab.Oracle().Outgoing(a) {
		cost := fs.sp.LiftedCost(tr.Op)
		if da == cost+fs.sp.Distance(tr.Target) {
			if !found || tr.Op < best.Op {
				best, found = tr, true
			}
		}
	}
	return best, found
}

// runSearch performs the best-first forward search over f-optimal
// transitions, stopping per the configured PickFlawedAbstractState
// strategy.
func (fs *FlawSearch) runSearch(initial []int) (*Flaw, Status) {
	a0, err := fs.ab.Resolve(initial)
	if err != nil {
		return nil, Failed
	}
	fs.storeWitness(a0, initial)

	pq := make(frontierPQ, 0, 16)
	heap.Init(&pq)
	heap.Push(&pq, &frontierItem{concrete: initial, abs: a0, f: fs.sp.Distance(a0)})
	seen := map[string]bool{}

	for pq.Len() > 0 {
		if fs.expired() {
			return fs.finalize(Timeout)
		}
		if fs.opts.MaxStateExpansions > 0 && fs.expansions >= fs.opts.MaxStateExpansions {
			return fs.finalize(Timeout)
		}
		item := heap.Pop(&pq).(*frontierItem)
		key := stateKey(item.concrete)
		if seen[key] {
			continue
		}
		seen[key] = true
		fs.expansions++

		if satisfies(item.concrete, fs.t.Goal()) {
			if fs.opts.Pick != task.PickMaxH {
				return nil, Solved
			}
			continue
		}

		for _, tr := range fs.ab.Oracle().Outgoing(item.abs) {
			cost := fs.sp.LiftedCost(tr.Op)
			if item.f != cost+fs.sp.Distance(tr.Target) {
				continue
			}
			if !satisfies(item.concrete, fs.t.Preconditions(tr.Op)) {
				fs.storeWitness(item.abs, item.concrete)
				fs.recordFlaw(&Flaw{Kind: Applicability, AbstractState: item.abs, Op: tr.Op, Witnesses: fs.witnesses[item.abs]})
				if fs.opts.Pick == task.PickFirst {
					return fs.finalize(InProgress)
				}
				continue
			}
			c2 := succ(item.concrete, fs.t.Effects(tr.Op))
			if !fs.targetIncludes(tr.Target, c2) {
				fs.storeWitness(item.abs, item.concrete)
				fs.recordFlaw(&Flaw{Kind: Deviation, AbstractState: item.abs, Op: tr.Op, Target: tr.Target, Witnesses: fs.witnesses[item.abs]})
				if fs.opts.Pick == task.PickFirst {
					return fs.finalize(InProgress)
				}
				continue
			}
			heap.Push(&pq, &frontierItem{concrete: c2, abs: tr.Target, f: fs.sp.Distance(tr.Target)})
		}
	}
	return fs.finalize(InProgress)
}

func stateKey(s []int) string {
	b := make([]byte, 0, len(s)*4)
	for _, v := range s {
		b = append(b, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
	}
	return string(b)
}

// finalize applies the batch-selection strategies (Random/MinH/MaxH/
// BatchMinH) over the flaws recorded this run and returns one. BatchMinH
// selects exactly like MinH: one flaw per run, no batch is kept.
func (fs *FlawSearch) finalize(status Status) (*Flaw, Status) {
	if len(fs.flaws) == 0 {
		return nil, Failed
	}
	var candidates []*Flaw
	for _, f := range fs.flaws {
		candidates = append(candidates, f)
	}

	switch fs.opts.Pick {
	case task.PickRandom:
		return candidates[fs.opts.RNG.Intn(len(candidates))], status
	case task.PickMinH, task.PickMaxH, task.PickBatchMinH:
		best := candidates[0]
		bestH := fs.sp.Distance(best.AbstractState)
		for _, c := range candidates[1:] {
			h := fs.sp.Distance(c.AbstractState)
			if (fs.opts.Pick != task.PickMaxH && h < bestH) || (fs.opts.Pick == task.PickMaxH && h > bestH) {
				best, bestH = c, h
			}
		}
		return best, status
	default:
		return candidates[0], status
	}
}
