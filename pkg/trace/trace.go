// Package trace implements the per-run trace recorder described in §3/§4.4:
// it walks the shared pathtree one branch at a time as the guest program
// executes, records the accumulated path constraint, and — on the first
// time a branch position is reached — surfaces an assume-style notification
// the way original_source/vp/src/symex/clover/trace.cpp's Trace::addBranch/
// Trace::assume do via a thrown AssumeNotification.
package trace

import (
	"errors"

	"symex/pkg/concolic"
	"symex/pkg/pathtree"
	"symex/pkg/solver"
)

// ErrAssumeNotification is returned by Add/Assume the first time a given
// tree position is installed — i.e. this run is the one that discovered
// this branch exists. It goes to the guest program that called Add/Assume,
// not to execctx or explore.Driver: internal/demo.Program ignores it after
// Add, and internal/demo.AssumeProgram ends the run with Outcome.Stopped
// after Assume rather than reporting an error.
var ErrAssumeNotification = errors.New("trace: branch observed for the first time")

// Trace is one simulation run's view into the shared tree: a cursor
// position plus the constraint set accumulated so far along this run's
// path.
type Trace struct {
	root   *pathtree.Node
	cursor *pathtree.Node

	constraints solver.ConstraintSet

	// path records the true/false decision at each branch visited this
	// run, needed to build a NewQuery negating the tail of the path.
	path []bool
	// nodes records the node visited at each corresponding path step
	// (nodes[i] is the node whose branch produced path[i]).
	nodes []*pathtree.Node
}

// New creates a trace cursored at root.
func New(root *pathtree.Node) *Trace {
	return &Trace{root: root, cursor: root}
}

// Reset rewinds the trace to the root with an empty constraint set and
// empty path, ready for a fresh simulation run (§4.7 explore loop: trace
// reset happens once per iteration).
func (t *Trace) Reset() {
	t.cursor = t.root
	t.constraints = solver.ConstraintSet{}
	t.path = nil
	t.nodes = nil
}

// Add records a branch predicate at the current cursor position, advances
// the cursor into the taken direction's child, and appends cond's
// predicate to the accumulated constraint set. It returns
// ErrAssumeNotification if this call installed a new tree node (this run
// is exploring virgin territory), nil otherwise.
func (t *Trace) Add(condition concolic.Value, pc uint64, cond bool) error {
	if cond {
		t.constraints.Add(condition.EqTrue().Expr())
	} else {
		t.constraints.Add(condition.EqFalse().Expr())
	}
	return t.pushBranch(condition, pc, cond)
}

// Assume records a hard constraint the guest program asserted must hold
// (e.g. a CSR write encoding an explicit path condition): it enforces
// condition as true for this run, and — mirroring Trace::assume in
// trace.cpp, which stores the negated predicate (bv.eqFalse()) and calls
// addBranch(br, false) — pushes condition into the tree as a branch taken
// in the false direction. Recording the raw condition at direction false
// carries the same meaning as the C++ pre-negated-predicate encoding:
// Add's own EqTrue/EqFalse convention already folds the negation into the
// direction bit, so storing bv.eqFalse() explicitly here would negate it
// twice. With the branch pinned to the false direction, negating it later
// (NewQuery) asks the solver for an assignment where condition holds,
// which is the run that proceeds with the assumption satisfied.
// Like Add, it returns ErrAssumeNotification the first time this tree
// position is installed: the constraint must be enforced starting with
// the very first run that observes it, so that run is aborted and
// restarted under the new assignment rather than left to finish with a
// stale one.
func (t *Trace) Assume(condition concolic.Value, pc uint64) error {
	t.constraints.Add(condition.EqTrue().Expr())
	return t.pushBranch(condition, pc, false)
}

// pushBranch installs branch at the cursor (if not already installed) and
// advances the cursor into the cond-direction child, recording the step
// for NewQuery's later path reconstruction.
func (t *Trace) pushBranch(branch concolic.Value, pc uint64, cond bool) error {
	next, installed := t.cursor.AddBranch(branch, pc, cond)

	t.nodes = append(t.nodes, t.cursor)
	t.path = append(t.path, cond)
	t.cursor = next

	if installed {
		return ErrAssumeNotification
	}
	return nil
}

// Constraints returns the constraint set accumulated so far this run.
func (t *Trace) Constraints() solver.ConstraintSet {
	return t.constraints.Clone()
}

// GetQuery returns a Query asking whether expr holds given everything
// observed on this run's path so far (§4.4 Trace::getQuery).
func (t *Trace) GetQuery(expr concolic.Expr) solver.Query {
	return solver.Query{Constraints: t.constraints.Clone(), Expr: expr}
}

// NewQuery builds the query that negates the branch at the path position
// identified by (node, path) from pathtree.RandomUnnegated: the
// constraints along the prefix of path leading up to node, conjoined with
// the negation of node's own predicate. As its side effect — matching
// trace.cpp's newQuery, which marks the branch WasNegated the moment the
// query is constructed, not when it's later found sat — this call marks
// node's branch WasNegated = true.
func NewQuery(node *pathtree.Node, path []bool) solver.Query {
	var cs solver.ConstraintSet
	for _, pred := range pathtree.PathConstraints(node, path) {
		cs.Add(pred.Expr())
	}

	negated := node.Branch.Expr.EqFalse()
	if !node.TakenTrue() {
		negated = node.Branch.Expr.EqTrue()
	}
	node.Branch.WasNegated = true

	return solver.Query{Constraints: cs, Expr: negated.Expr()}
}
