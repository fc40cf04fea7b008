// File: split_selector.go
// Role: SplitSelector (spec.md §4.6 second half) — turns a recorded Flaw
// plus its stored concrete witnesses into candidate Splits, scores them
// with the configured first-pick/tiebreak functions (including the
// MAX_COVER merge pass), and emits one.
package flawsearch

import (
	"math/rand"
	"sort"

	"github.com/katalvlaran/cegarh/abstraction"
	"github.com/katalvlaran/cegarh/cset"
	"github.com/katalvlaran/cegarh/task"
)

// Split is the chosen (abstract_state_id, var, wanted) to hand to
// Abstraction.Refine.
type Split struct {
	AbstractState int
	Var           int
	Wanted        []int
	Count         int // number of witnesses this split would separate
}

// splitKey identifies a candidate by (var, wanted values sorted) so that
// duplicates across witnesses can be summed per spec.md §4.6 ("Duplicates
// ... sum their count").
type splitKey struct {
	v      int
	wanted string
}

// SplitSelector builds and scores split candidates for one flaw.
type SplitSelector struct {
	ab         *abstraction.Abstraction
	t          task.PlanningTask
	hAdd       func(v, x int) int // optional h^add oracle for MIN_HADD/MAX_HADD
	causalRank func(v int) int    // optional causal-graph rank for MIN_CG/MAX_CG
	rng        *rand.Rand
}

// NewSplitSelector returns a SplitSelector. hAdd/causalRank may be nil if
// the configured scoring function never needs them.
func NewSplitSelector(ab *abstraction.Abstraction, t task.PlanningTask, hAdd func(v, x int) int, causalRank func(v int) int, rng *rand.Rand) *SplitSelector {
	if rng == nil {
		rng = rand.New(rand.NewSource(0))
	}
	return &SplitSelector{ab: ab, t: t, hAdd: hAdd, causalRank: causalRank, rng: rng}
}

// candidate is one (var, unwanted singleton, wanted set) before merging.
type candidate struct {
	v        int
	unwanted int
	wanted   []int
	count    int
}

// candidates builds every candidate split implied by flaw, per spec.md
// §4.6's two generation cases.
func (ss *SplitSelector) candidates(flaw *Flaw) []candidate {
	dedup := map[splitKey]*candidate{}
	add := func(v int, unwanted int, wanted []int) {
		sorted := append([]int(nil), wanted...)
		sort.Ints(sorted)
		k := splitKey{v: v, wanted: intsKey(sorted)}
		if c, ok := dedup[k]; ok {
			c.count++
			return
		}
		dedup[k] = &candidate{v: v, unwanted: unwanted, wanted: sorted, count: 1}
	}

	switch flaw.Kind {
	case Applicability:
		pre := ss.t.Preconditions(flaw.Op)
		for _, w := range flaw.Witnesses {
			for _, f := range pre {
				if w[f.Var] != f.Value {
					add(f.Var, w[f.Var], []int{f.Value})
				}
			}
		}
	case Deviation:
		target := ss.ab.State(flaw.Target).CSet
		current := ss.ab.State(flaw.AbstractState).CSet
		affected := map[int]bool{}
		for _, f := range ss.t.Preconditions(flaw.Op) {
			affected[f.Var] = true
		}
		for _, f := range ss.t.Effects(flaw.Op) {
			affected[f.Var] = true
		}
		for v := 0; v < current.NumVars(); v++ {
			if affected[v] {
				continue
			}
			for _, w := range flaw.Witnesses {
				if !target.Test(v, w[v]) {
					wanted := intersectValues(current, target, v)
					if len(wanted) > 0 {
						add(v, w[v], wanted)
					}
				}
			}
		}
	}

	out := make([]candidate, 0, len(dedup))
	for _, c := range dedup {
		out = append(out, *c)
	}
	return out
}

func intsKey(xs []int) string {
	b := make([]byte, 0, len(xs)*4)
	for _, x := range xs {
		b = append(b, byte(x), byte(x>>8), byte(x>>16), byte(x>>24))
	}
	return string(b)
}

// intersectValues returns current's values at v intersected with target's,
// the non-empty-by-construction "wanted" set for a deviation split.
func intersectValues(current, target *cset.CartesianSet, v int) []int {
	var out []int
	for _, x := range current.Values(v) {
		if target.Test(v, x) {
			out = append(out, x)
		}
	}
	return out
}

// score evaluates fn over one candidate, lower-is-better for every MIN_*
// function and higher-is-better for every MAX_*/RANDOM function; the
// caller always picks the candidate with the numerically smallest score
// returned here, so MAX_* functions negate their natural value.
func (ss *SplitSelector) score(fn task.SplitScore, c candidate, originalDomSize int, currentCount int) float64 {
	switch fn {
	case task.ScoreRandom:
		return ss.rng.Float64()
	case task.ScoreMinUnwanted:
		return float64(currentCount - len(c.wanted))
	case task.ScoreMaxUnwanted:
		return -float64(currentCount - len(c.wanted))
	case task.ScoreMinRefined:
		return -float64(currentCount) / float64(originalDomSize)
	case task.ScoreMaxRefined:
		return float64(currentCount) / float64(originalDomSize)
	case task.ScoreMinHAdd:
		return ss.hAddOver(c, false)
	case task.ScoreMaxHAdd:
		return -ss.hAddOver(c, true)
	case task.ScoreMinCG:
		return float64(ss.rankOf(c.v))
	case task.ScoreMaxCG:
		return -float64(ss.rankOf(c.v))
	default:
		return 0
	}
}

func (ss *SplitSelector) hAddOver(c candidate, wantMax bool) float64 {
	if ss.hAdd == nil {
		return 0
	}
	best := ss.hAdd(c.v, c.wanted[0])
	for _, x := range c.wanted[1:] {
		h := ss.hAdd(c.v, x)
		if (wantMax && h > best) || (!wantMax && h < best) {
			best = h
		}
	}
	return float64(best)
}

func (ss *SplitSelector) rankOf(v int) int {
	if ss.causalRank == nil {
		return v
	}
	return ss.causalRank(v)
}

// mergeMaxCover implements the MAX_COVER scoring function: per variable,
// sort candidates by count descending, then merge pairs that agree on a
// singleton unwanted value, summing counts (no pair is merged by swapping
// its wanted and unwanted sides); returns, per variable, the single best
// (possibly merged) candidate and its combined count.
func mergeMaxCover(cands []candidate) map[int]candidate {
	byVar := map[int][]candidate{}
	for _, c := range cands {
		byVar[c.v] = append(byVar[c.v], c)
	}
	best := map[int]candidate{}
	for v, list := range byVar {
		sort.Slice(list, func(i, j int) bool { return list[i].count > list[j].count })
		merged := append([]candidate(nil), list...)
		for i := 0; i < len(merged); i++ {
			for j := i + 1; j < len(merged); j++ {
				if merged[i].unwanted == merged[j].unwanted {
					merged[i].wanted = unionInts(merged[i].wanted, merged[j].wanted)
					merged[i].count += merged[j].count
					merged = append(merged[:j], merged[j+1:]...)
					j--
				}
			}
		}
		bestForVar := merged[0]
		for _, m := range merged[1:] {
			if m.count > bestForVar.count {
				bestForVar = m
			}
		}
		best[v] = bestForVar
	}
	return best
}

func unionInts(a, b []int) []int {
	seen := map[int]bool{}
	for _, x := range a {
		seen[x] = true
	}
	out := append([]int(nil), a...)
	for _, x := range b {
		if !seen[x] {
			out = append(out, x)
			seen[x] = true
		}
	}
	sort.Ints(out)
	return out
}

// Select runs candidate generation, the configured pick/tiebreak scoring
// (or the MAX_COVER merge pass if either is ScoreMaxCover), and returns
// the chosen Split.
func (ss *SplitSelector) Select(flaw *Flaw, pick, tiebreak task.SplitScore) (Split, bool) {
	cands := ss.candidates(flaw)
	if len(cands) == 0 {
		return Split{}, false
	}

	if pick == task.ScoreMaxCover || tiebreak == task.ScoreMaxCover {
		byVar := mergeMaxCover(cands)
		var bestVar int
		bestCount := -1
		first := true
		for v, c := range byVar {
			if first || c.count > bestCount {
				bestVar, bestCount, first = v, c.count, false
			}
		}
		c := byVar[bestVar]
		return Split{AbstractState: flaw.AbstractState, Var: c.v, Wanted: c.wanted, Count: c.count}, true
	}

	currentCSet := ss.ab.State(flaw.AbstractState).CSet
	scoreOf := func(fn task.SplitScore, c candidate) float64 {
		return ss.score(fn, c, ss.t.DomainSize(c.v), currentCSet.Count(c.v))
	}

	best := cands[0]
	bestScore := scoreOf(pick, best)
	for _, c := range cands[1:] {
		s := scoreOf(pick, c)
		if s < bestScore || (s == bestScore && scoreOf(tiebreak, c) < scoreOf(tiebreak, best)) {
			best, bestScore = c, s
		}
	}
	return Split{AbstractState: flaw.AbstractState, Var: best.v, Wanted: best.wanted, Count: best.count}, true
}
