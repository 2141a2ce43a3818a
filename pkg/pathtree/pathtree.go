// Package pathtree implements the path-condition tree described in §3/§4.4:
// a binary tree of branch decisions, shared across re-simulation runs within
// one exploration session, that records which side of each branch has
// already been negated and let's the driver pick an unnegated candidate to
// flip next. Grounded directly on original_source/vp/src/symex/clover/trace.cpp's
// Trace::addBranch/Trace::findNewPath, translated from that file's explicit
// child-pointer/cursor walk into an idiomatic Go tree.
package pathtree

import (
	"math/rand/v2"
	"sync"

	"symex/pkg/concolic"
)

// Branch is one decision point: the predicate that was evaluated, whether
// the *other* direction has already been explored (wasNegated), and the
// guest program counter at the time of the branch (diagnostic only).
type Branch struct {
	Expr       concolic.Value
	WasNegated bool
	PC         uint64
}

// Node is one tree position. A Node with Branch == nil is a placeholder:
// a position reached by the cursor but not yet associated with a branch
// decision (mirrors trace.cpp's lazily-populated Node).
type Node struct {
	mu sync.Mutex

	Branch *Branch

	trueChild  *Node
	falseChild *Node
}

// New returns the tree root: an empty placeholder, matching Trace's root
// node before any branch has been recorded.
func New() *Node {
	return &Node{}
}

// AddBranch installs branch at n if n is a placeholder, and otherwise
// leaves the installed branch as it is without comparing it to expr (a
// re-simulation run re-walking an already-known prefix of the tree). It
// returns the child node the cursor should move into for cond (true/false),
// creating that child as a fresh placeholder if needed, and whether this
// call installed a new branch (as opposed to revisiting one).
//
// This mirrors addBranch(condition, branch) in trace.cpp: the first run to
// reach a tree position installs the branch; every later run reaching the
// same position just follows the existing pointer.
func (n *Node) AddBranch(expr concolic.Value, pc uint64, cond bool) (next *Node, installed bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.Branch == nil {
		n.Branch = &Branch{Expr: expr, PC: pc}
		installed = true
	}

	if cond {
		if n.trueChild == nil {
			n.trueChild = &Node{}
		}
		next = n.trueChild
	} else {
		if n.falseChild == nil {
			n.falseChild = &Node{}
		}
		next = n.falseChild
	}
	return next, installed
}

// candidate pairs a node with the path of (true/false) decisions taken to
// reach it from the root, required to reconstruct the constraint set a
// negation query must be checked against (§4.4 newQuery).
type candidate struct {
	node *Node
	path []bool
}

// RandomUnnegated walks the whole tree collecting every Branch with
// WasNegated == false, then returns one chosen uniformly at random together
// with the path of decisions leading to it, or ok == false if every branch
// in the tree has already been negated (exploration of this subtree is
// exhausted). Matches trace.cpp's randomUnnegated, which has no additional
// "are both children populated" filter — a branch stays a candidate purely
// on WasNegated, exactly as here.
func RandomUnnegated(root *Node) (node *Node, path []bool, ok bool) {
	var candidates []candidate
	var walk func(n *Node, path []bool)
	walk = func(n *Node, path []bool) {
		if n == nil || n.Branch == nil {
			return
		}
		if !n.Branch.WasNegated {
			cp := append([]bool(nil), path...)
			candidates = append(candidates, candidate{node: n, path: cp})
		}
		walk(n.trueChild, append(append([]bool(nil), path...), true))
		walk(n.falseChild, append(append([]bool(nil), path...), false))
	}
	walk(root, nil)

	if len(candidates) == 0 {
		return nil, nil, false
	}
	pick := candidates[rand.IntN(len(candidates))]
	return pick.node, pick.path, true
}

// PathConstraints walks path from root and returns, for every node visited
// before the final one, the branch predicate as it was actually taken
// (negated if the path step went the opposite way of the branch's own
// recorded direction is not tracked here — callers combine this with the
// negated final predicate themselves, per §4.4 newQuery).
func PathConstraints(root *Node, path []bool) []concolic.Value {
	var out []concolic.Value
	n := root
	for _, step := range path {
		if n == nil || n.Branch == nil {
			break
		}
		if step {
			out = append(out, n.Branch.Expr.EqTrue())
			n = n.trueChild
		} else {
			out = append(out, n.Branch.Expr.EqFalse())
			n = n.falseChild
		}
	}
	return out
}

// TakenTrue reports whether the direction originally observed at n was
// "true". Valid only for nodes with Branch != nil and WasNegated == false —
// RandomUnnegated guarantees exactly one of trueChild/falseChild is
// populated for such nodes, since a branch only grows a second child after
// it has been negated and WasNegated flips to true.
func (n *Node) TakenTrue() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.trueChild != nil
}

// NegatedPredicate returns the query expression for flipping node's branch:
// the logical negation of whichever direction node.Branch was originally
// observed to take. AddBranch records only the predicate and the PC, not
// the originally-observed direction, so callers determine the direction
// from which child pointer led here — see trace.NewQuery, which owns
// that bookkeeping.
func (b *Branch) NegatedPredicate(tookTrue bool) concolic.Value {
	if tookTrue {
		return b.Expr.EqFalse()
	}
	return b.Expr.EqTrue()
}

// Close tears down the tree iteratively (breadth-first) rather than via
// recursive destructors, matching ~Trace()'s explicit queue-based walk in
// trace.cpp — written defensively against very deep or wide trees.
func (n *Node) Close() {
	if n == nil {
		return
	}
	queue := []*Node{n}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == nil {
			continue
		}
		if cur.trueChild != nil {
			queue = append(queue, cur.trueChild)
		}
		if cur.falseChild != nil {
			queue = append(queue, cur.falseChild)
		}
		cur.trueChild = nil
		cur.falseChild = nil
		cur.Branch = nil
	}
}
