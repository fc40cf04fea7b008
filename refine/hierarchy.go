// Package refine implements the RefinementHierarchy of spec.md §3/§4.1: a
// DAG of past splits that resolves a concrete state to the id of its
// current abstract state in O(depth). Storage is an arena of dense NodeIDs
// over a contiguous slice, following this module's "cyclic/pointer-rich
// graphs become index arenas" convention (core.Graph's map-of-maps
// adjacency plays the analogous role for the teacher's mutable graph; here
// the DAG never removes nodes, so a plain growable slice suffices).
package refine

import "errors"

// NodeID indexes into Hierarchy.nodes. Dense, small, stable once assigned.
type NodeID int32

const noNode NodeID = -1

// Sentinel errors.
var (
	// ErrEmptyWanted mirrors cset.ErrEmptyWanted for Split's W argument.
	ErrEmptyWanted = errors.New("refine: wanted-values slice is empty")
	// ErrNoRoot indicates Resolve/Split was called before AddRoot.
	ErrNoRoot = errors.New("refine: hierarchy has no root")
	// ErrNotALeaf indicates Split targeted a node that is not currently a leaf.
	ErrNotALeaf = errors.New("refine: target node is not a leaf")
)

// node is either a leaf (stateID valid) or an inner split node
// (splitVar/splitValue/right/left valid). Both shapes share one slice so
// ids stay dense; memory overhead is the same handful of machine words the
// teacher's Edge/Vertex structs spend on fields unused by some shapes.
type node struct {
	leaf       bool
	stateID    int    // valid iff leaf
	splitVar   int    // valid iff !leaf
	splitValue int    // valid iff !leaf
	right      NodeID // descend here iff values[splitVar] == splitValue
	left       NodeID // descend here otherwise
}

// Hierarchy is the RefinementHierarchy. The zero value is not usable; call
// New.
type Hierarchy struct {
	nodes []node
	root  NodeID
}

// New returns an empty Hierarchy; call AddRoot before Resolve/Split.
func New() *Hierarchy {
	return &Hierarchy{root: noNode}
}

// AddRoot creates the root leaf for stateID (the initial abstract state,
// state_id 0 by the caller's convention) and returns its NodeID.
// Complexity: O(1).
func (h *Hierarchy) AddRoot(stateID int) NodeID {
	id := h.newLeaf(stateID)
	h.root = id
	return id
}

// Resolve descends from the root testing values[splitVar] == splitValue at
// each inner node, returning the state_id of the unique leaf containing the
// concrete assignment. Complexity: O(depth).
func (h *Hierarchy) Resolve(values []int) (int, error) {
	if h.root == noNode {
		return 0, ErrNoRoot
	}
	cur := h.root
	for !h.nodes[cur].leaf {
		n := h.nodes[cur]
		if values[n.splitVar] == n.splitValue {
			cur = n.right
		} else {
			cur = n.left
		}
	}
	return h.nodes[cur].stateID, nil
}

// Split converts the leaf at leafNode into a chain of |W| inner split
// nodes (spec.md §4.1): the first tests splitVar == W[0] (reusing
// leafNode's slot), each subsequent W[k] gets a fresh "helper" inner node
// chained off the previous one's left child, all sharing one right leaf
// (rightStateID). The final left child is a fresh leaf (leftStateID).
//
// Returns (finalLeftNode, rightNode). Invariant I1: this call adds exactly
// len(W) inner nodes and net +1 leaf (the original leaf is consumed, two
// new leaves are created).
func (h *Hierarchy) Split(leafNode NodeID, splitVar int, wanted []int, leftStateID, rightStateID int) (NodeID, NodeID, error) {
	if len(wanted) == 0 {
		return noNode, noNode, ErrEmptyWanted
	}
	if int(leafNode) < 0 || int(leafNode) >= len(h.nodes) || !h.nodes[leafNode].leaf {
		return noNode, noNode, ErrNotALeaf
	}

	rightNode := h.newLeaf(rightStateID)

	cur := leafNode
	var finalLeft NodeID
	for i, w := range wanted {
		if i == len(wanted)-1 {
			finalLeft = h.newLeaf(leftStateID)
			h.nodes[cur] = node{leaf: false, splitVar: splitVar, splitValue: w, right: rightNode, left: finalLeft}
		} else {
			nextHelper := h.newInnerPlaceholder()
			h.nodes[cur] = node{leaf: false, splitVar: splitVar, splitValue: w, right: rightNode, left: nextHelper}
			cur = nextHelper
		}
	}
	return finalLeft, rightNode, nil
}

func (h *Hierarchy) newLeaf(stateID int) NodeID {
	id := NodeID(len(h.nodes))
	h.nodes = append(h.nodes, node{leaf: true, stateID: stateID})
	return id
}

// newInnerPlaceholder reserves a node slot that Split immediately overwrites
// on its next loop iteration; kept as its own helper so the intent ("this
// slot will become a helper inner node") is documented at the call site.
func (h *Hierarchy) newInnerPlaceholder() NodeID {
	id := NodeID(len(h.nodes))
	h.nodes = append(h.nodes, node{})
	return id
}

// Root returns the hierarchy's root NodeID, or noNode if AddRoot was never
// called.
func (h *Hierarchy) Root() NodeID { return h.root }

// IsLeaf reports whether id currently names a leaf node.
func (h *Hierarchy) IsLeaf(id NodeID) bool { return h.nodes[id].leaf }

// LeafState returns the state_id stored at leaf id. Behavior is undefined
// if id is not a leaf (callers must check IsLeaf first, as MatchTree does).
func (h *Hierarchy) LeafState(id NodeID) int { return h.nodes[id].stateID }

// InnerInfo returns the split variable, split value, and (right, left)
// children of inner node id. Behavior is undefined if id is a leaf.
func (h *Hierarchy) InnerInfo(id NodeID) (splitVar, splitValue int, right, left NodeID) {
	n := h.nodes[id]
	return n.splitVar, n.splitValue, n.right, n.left
}

// NumLeaves returns the number of current leaves (== number of abstract
// states), used by property tests asserting invariant I1.
func (h *Hierarchy) NumLeaves() int {
	count := 0
	for _, n := range h.nodes {
		if n.leaf {
			count++
		}
	}
	return count
}

// NumInnerNodes returns the number of inner (split) nodes, used by
// invariant I1 ("number of inner nodes equals ∑|W_i| over all splits").
func (h *Hierarchy) NumInnerNodes() int {
	return len(h.nodes) - h.NumLeaves()
}
