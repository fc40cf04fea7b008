// File: config.go
// Role: the recognised configuration keys of spec.md §6, resolved through
// the functional-options pattern this module uses throughout
// (builder.BuilderOption, dijkstra.Option).
package task

import "time"

// TransitionRepresentation selects how an Abstraction stores its transition
// oracle (spec.md §4.3).
type TransitionRepresentation int

const (
	// Store keeps an explicit TransitionSystem (incoming/outgoing/loop
	// deques per state), rewired on every split.
	Store TransitionRepresentation = iota
	// SuccessorGenerator recomputes transitions on demand via a MatchTree;
	// no per-state storage.
	SuccessorGenerator
	// StoreThenSG builds the same explicit TransitionSystem as Store; no
	// switch to on-demand MatchTree computation takes place.
	StoreThenSG
)

// PickFlawedAbstractState selects which flaw FlawSearch resolves first
// (spec.md §4.6).
type PickFlawedAbstractState int

const (
	// PickFirst stops at the first flaw encountered during the search.
	PickFirst PickFlawedAbstractState = iota
	// PickFirstOnShortestPath walks an abstract shortest path directly,
	// without searching, and reports the first inapplicable/deviating step.
	PickFirstOnShortestPath
	// PickRandom draws uniformly among all flawed abstract states; the
	// split is then chosen over all of that state's stored witnesses, not
	// one drawn witness.
	PickRandom
	// PickMinH keeps only flawed states whose current h-value is minimal.
	PickMinH
	// PickMaxH keeps only flawed states whose current h-value is maximal;
	// reaching a goal does not terminate the search under this strategy.
	PickMaxH
	// PickBatchMinH selects exactly like PickMinH: one flaw per search;
	// the other flawed states at the minimum h-value are not refined as a
	// batch before the next search.
	PickBatchMinH
)

// SplitScore selects the scoring function SplitSelector uses to pick
// (first pick) or break ties between (tiebreak) candidate splits (spec.md
// §4.6).
type SplitScore int

const (
	// ScoreRandom picks uniformly among candidates.
	ScoreRandom SplitScore = iota
	// ScoreMinUnwanted prefers the smallest |current A_v| - |wanted|.
	ScoreMinUnwanted
	// ScoreMaxUnwanted prefers the largest |current A_v| - |wanted|.
	ScoreMaxUnwanted
	// ScoreMinRefined prefers the smallest -|current A_v|/|original dom(v)|.
	ScoreMinRefined
	// ScoreMaxRefined prefers the largest -|current A_v|/|original dom(v)|.
	ScoreMaxRefined
	// ScoreMinHAdd prefers the smallest h^add(v,x) over x in wanted.
	ScoreMinHAdd
	// ScoreMaxHAdd prefers the largest h^add(v,x) over x in wanted.
	ScoreMaxHAdd
	// ScoreMinCG prefers variables earlier in causal-graph order.
	ScoreMinCG
	// ScoreMaxCG prefers variables later in causal-graph order.
	ScoreMaxCG
	// ScoreMaxCover merges compatible same-value splits per variable and
	// prefers the variable with the highest combined witness count.
	ScoreMaxCover
)

// Config collects every recognised option from spec.md §6's table. Build
// one with NewConfig(opts...); zero-value Config is never used directly.
type Config struct {
	MaxStates                        int
	MaxTransitions                   int
	MaxTime                          time.Duration
	TransitionRepresentation         TransitionRepresentation
	PickFlawedAbstractState          PickFlawedAbstractState
	PickSplit                        SplitScore
	TiebreakSplit                    SplitScore
	MaxConcreteStatesPerAbstractState int
	MaxStateExpansions                int
	UseGeneralCosts                   bool
	UseMax                            bool
	MemoryPaddingMB                   int
	RandomSeed                        int64
	Diversify                         bool
}

// Option mutates a Config during resolution. Option constructors validate
// eagerly and panic on malformed literals, matching
// dijkstra.WithMaxDistance's contract.
type Option func(*Config)

// NewConfig returns a Config initialized to the documented defaults, then
// applies opts in order (later options override earlier ones).
//
// Defaults: MaxStates=10_000, MaxTransitions=1_000_000, MaxTime=10m,
// Store representation, PickFirst, ScoreMinUnwanted/ScoreRandom tiebreak,
// MaxConcreteStatesPerAbstractState=100, MaxStateExpansions=1_000_000,
// UseGeneralCosts=false, UseMax=false, MemoryPaddingMB=0 (disabled),
// RandomSeed=0, Diversify=false.
func NewConfig(opts ...Option) Config {
	cfg := Config{
		MaxStates:                        10_000,
		MaxTransitions:                   1_000_000,
		MaxTime:                          10 * time.Minute,
		TransitionRepresentation:         Store,
		PickFlawedAbstractState:          PickFirst,
		PickSplit:                        ScoreMinUnwanted,
		TiebreakSplit:                    ScoreRandom,
		MaxConcreteStatesPerAbstractState: 100,
		MaxStateExpansions:                1_000_000,
		UseGeneralCosts:                   false,
		UseMax:                            false,
		MemoryPaddingMB:                   0,
		RandomSeed:                        0,
		Diversify:                         false,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithMaxStates caps the abstract-state count. Each CEGAR run (cegar.New)
// keeps its own Budget, so the cap applies per abstraction, not summed over
// a collection. n must be > 0.
func WithMaxStates(n int) Option {
	if n <= 0 {
		panic(ErrInvalidConfig.Error())
	}
	return func(c *Config) { c.MaxStates = n }
}

// WithMaxTransitions caps stored non-loop transitions (meaningful only for
// the Store/StoreThenSG representations). n must be > 0.
func WithMaxTransitions(n int) Option {
	if n <= 0 {
		panic(ErrInvalidConfig.Error())
	}
	return func(c *Config) { c.MaxTransitions = n }
}

// WithMaxTime caps wall-clock time. Each CEGAR run (cegar.New) starts its
// own Budget clock, so the cap applies per run, not across all runs of a
// collection. d must be > 0.
func WithMaxTime(d time.Duration) Option {
	if d <= 0 {
		panic(ErrInvalidConfig.Error())
	}
	return func(c *Config) { c.MaxTime = d }
}

// WithTransitionRepresentation selects the transition oracle storage mode.
func WithTransitionRepresentation(r TransitionRepresentation) Option {
	return func(c *Config) { c.TransitionRepresentation = r }
}

// WithPickFlawedAbstractState selects the flaw-selection strategy.
func WithPickFlawedAbstractState(p PickFlawedAbstractState) Option {
	return func(c *Config) { c.PickFlawedAbstractState = p }
}

// WithPickSplit selects the first-pick split-scoring function.
func WithPickSplit(s SplitScore) Option {
	return func(c *Config) { c.PickSplit = s }
}

// WithTiebreakSplit selects the tiebreak split-scoring function.
func WithTiebreakSplit(s SplitScore) Option {
	return func(c *Config) { c.TiebreakSplit = s }
}

// WithMaxConcreteStatesPerAbstractState caps stored concrete witnesses per
// abstract state. n must be > 0.
func WithMaxConcreteStatesPerAbstractState(n int) Option {
	if n <= 0 {
		panic(ErrInvalidConfig.Error())
	}
	return func(c *Config) { c.MaxConcreteStatesPerAbstractState = n }
}

// WithMaxStateExpansions caps expansions per flaw search. n must be > 0.
func WithMaxStateExpansions(n int) Option {
	if n <= 0 {
		panic(ErrInvalidConfig.Error())
	}
	return func(c *Config) { c.MaxStateExpansions = n }
}

// WithUseGeneralCosts allows negative (-∞) saturated costs in
// pdb.Projection.SaturatedCosts rather than flooring them at 0.
func WithUseGeneralCosts() Option {
	return func(c *Config) { c.UseGeneralCosts = true }
}

// WithUseMax takes the max rather than the sum when composing
// cost-partitionings built from a single order.
func WithUseMax() Option {
	return func(c *Config) { c.UseMax = true }
}

// WithMemoryPadding reserves mb megabytes for graceful out-of-memory
// shutdown. mb must be >= 0; 0 disables the guard.
func WithMemoryPadding(mb int) Option {
	if mb < 0 {
		panic(ErrInvalidConfig.Error())
	}
	return func(c *Config) { c.MemoryPaddingMB = mb }
}

// WithRandomSeed sets the RNG seed threaded through every stochastic choice
// (FlawSearch ties, SplitSelector ties, order generators).
func WithRandomSeed(seed int64) Option {
	return func(c *Config) { c.RandomSeed = seed }
}

// WithDiversify enables the Diversifier so that only orders improving on
// sampled states are retained.
func WithDiversify() Option {
	return func(c *Config) { c.Diversify = true }
}
