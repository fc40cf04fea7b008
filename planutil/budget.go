// Package planutil hosts the resource-cutoff primitives shared by cegar and
// costpartitioning: a wall-clock/state/transition Budget and a cooperative
// MemoryPadding guard. Both are plain structs threaded explicitly through
// constructors (no package-global clocks or flags), mirroring how this
// module threads *rand.Rand explicitly rather than relying on a seeded
// global (see builder.WithSeed).
package planutil

import "time"

// Budget tracks the three independent cutoffs spec.md §5 requires CEGAR and
// the cost-partitioning collection builder to poll cooperatively: a
// wall-clock deadline, a cap on abstract states, and a cap on stored
// transitions. A single Budget may be shared across every CEGAR run in a
// collection (the spec's "global one across the collection"); each
// abstraction additionally tracks its own per-abstraction Budget.
type Budget struct {
	deadline        time.Time
	maxStates       int
	maxTransitions  int
	states          int
	transitions     int
	unlimitedStates bool
}

// NewBudget returns a Budget with the given wall-clock duration and caps.
// maxStates <= 0 or maxTransitions <= 0 disables the corresponding cap.
// Complexity: O(1).
func NewBudget(maxWall time.Duration, maxStates, maxTransitions int) *Budget {
	b := &Budget{maxStates: maxStates, maxTransitions: maxTransitions}
	if maxWall > 0 {
		b.deadline = time.Now().Add(maxWall)
	}
	b.unlimitedStates = maxStates <= 0
	return b
}

// Expired reports whether the wall-clock deadline has passed. A zero
// deadline (maxWall <= 0 at construction) never expires.
func (b *Budget) Expired() bool {
	return !b.deadline.IsZero() && time.Now().After(b.deadline)
}

// Deadline returns the wall-clock cutoff (zero Time if unbounded), for
// callers (flawsearch.Options.Deadline) that need to poll it directly
// rather than through Expired.
func (b *Budget) Deadline() time.Time { return b.deadline }

// AddStates records n newly created abstract states against the cap.
func (b *Budget) AddStates(n int) { b.states += n }

// AddTransitions records n newly stored transitions against the cap.
func (b *Budget) AddTransitions(n int) { b.transitions += n }

// StatesExhausted reports whether the state cap has been reached.
func (b *Budget) StatesExhausted() bool {
	return !b.unlimitedStates && b.states >= b.maxStates
}

// TransitionsExhausted reports whether the transition cap has been reached.
func (b *Budget) TransitionsExhausted() bool {
	return b.maxTransitions > 0 && b.transitions >= b.maxTransitions
}

// Exhausted reports whether any of the three cutoffs has fired.
// cegar.CEGAR.Refine's loop polls this once per iteration; flawsearch
// polls only the wall-clock deadline, through Options.Deadline.
func (b *Budget) Exhausted() bool {
	return b.Expired() || b.StatesExhausted() || b.TransitionsExhausted()
}

// MemoryPadding models the reserved-block trick of spec.md §5: a fixed
// block is allocated up front and released the moment an allocation would
// otherwise exhaust memory. We cannot intercept the Go allocator's OOM path
// from a library package, so MemoryPadding exposes the same cooperative
// contract (Reserve/Release/Reserved) for a caller-supplied allocator hook,
// and long-running loops poll Reserved() exactly as spec.md describes.
type MemoryPadding struct {
	block     []byte
	configured bool
}

// NewMemoryPadding reserves a block of mb megabytes. mb <= 0 means no
// padding is configured and Reserved() always reports true (no gate).
func NewMemoryPadding(mb int) *MemoryPadding {
	mp := &MemoryPadding{}
	if mb <= 0 {
		return mp
	}
	mp.block = make([]byte, mb*1024*1024)
	mp.configured = true
	return mp
}

// Release frees the reserved block. Call this from an allocation-failure
// handler (or, as here, explicitly from a caller that wants to simulate
// graceful degradation under test) to signal "stop gracefully" to every
// loop polling Reserved().
func (mp *MemoryPadding) Release() {
	mp.block = nil
}

// Reserved reports whether the padding block is still held. Callers with
// no padding configured (NewMemoryPadding(0)) always see true, since there
// is no gate to trip.
func (mp *MemoryPadding) Reserved() bool {
	if !mp.configured {
		return true
	}
	return mp.block != nil
}
