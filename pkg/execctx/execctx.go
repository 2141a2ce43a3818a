// Package execctx implements the execution context described in §4.5: it
// owns the current and previous symbolic-input stores, the shared path
// tree, and the trace for the run in progress, and drives Advance — the
// between-runs step that picks an unnegated branch, asks the solver for a
// satisfying assignment, and installs the resulting store for the next
// run. Grounded on original_source/vp/src/symex/symbolic_explore.cpp's
// setupNewValues()/explore_paths() loop and clover/trace.cpp's
// Trace::findNewPath, reshaped into an object a Go driver can call
// iteratively instead of throwing exceptions across a SystemC callback.
package execctx

import (
	"errors"
	"math/big"

	"symex/pkg/concolic"
	"symex/pkg/pathtree"
	"symex/pkg/solver"
	"symex/pkg/store"
	"symex/pkg/trace"
)

// ErrExhausted is returned by Advance when every branch reachable in the
// shared tree has already been negated — the session has explored every
// path findable from the trees built so far (symbolic_explore.cpp's
// explore_paths loop exit condition).
var ErrExhausted = errors.New("execctx: no unnegated branch remains")

// Context is the per-session state shared across every simulation run.
type Context struct {
	root   *pathtree.Node
	solver *solver.Solver

	trace *trace.Trace

	prevStore store.Store
	curStore  store.Store
}

// New creates a Context with a fresh path tree and trace, ready for the
// first simulation run.
func New(sv *solver.Solver) *Context {
	root := pathtree.New()
	return &Context{
		root:   root,
		solver: sv,
		trace:  trace.New(root),
	}
}

// Trace returns the trace the current run should record branches into.
func (c *Context) Trace() *trace.Trace { return c.trace }

// Solver returns the solver backing this context, so a driver sharing a
// Context with a kernel.Kernel can still surface solve statistics in its
// final report.
func (c *Context) Solver() *solver.Solver { return c.solver }

// BVC creates a fresh named (or anonymous, if name is nil) symbolic input,
// seeded from the current store's recorded concrete value for that name if
// present, or from initial otherwise — matching §4.5's requirement that a
// BVC call after InstallStore reflects the installed assignment.
func (c *Context) BVC(name *string, initial []byte) concolic.Value {
	concrete := initial
	if name != nil {
		if v, ok := c.curStore.Get(*name); ok {
			concrete = v
		}
	}
	return c.solver.BVC(name, concrete)
}

// GetSymbolicBytes creates a fresh named symbolic value of n bytes the way
// a symbolic memory region does on first touch, seeded from the installed
// store if that name was already assigned, otherwise from seed.
func (c *Context) GetSymbolicBytes(name string, n int, seed []byte) concolic.Value {
	concrete := seed
	if v, ok := c.curStore.Get(name); ok {
		concrete = v
	}
	return c.solver.GetSymbolicBytes(name, n, concrete)
}

// Const wraps a literal as a concolic.Value, for building comparisons
// against constants appearing directly in guest code.
func (c *Context) Const(value *big.Int, width uint) concolic.Value {
	return c.solver.Const(value, width)
}

// InstallStore replaces the current store (moving the previous current
// store to "previous") — called once per run, before simulation begins,
// with the assignment produced by the prior call to Advance (or an empty
// store for the very first run).
func (c *Context) InstallStore(s store.Store) {
	c.prevStore = c.curStore
	c.curStore = s
}

// PrevStore returns the store installed for the run before the current one
// (§4.5 getPrevStore). explore.Driver dumps error test cases from CurStore,
// not from PrevStore.
func (c *Context) PrevStore() store.Store { return c.prevStore }

// CurStore returns the store installed for the run in progress.
func (c *Context) CurStore() store.Store { return c.curStore }

// Advance picks a uniformly random unnegated branch from the shared tree,
// asks the solver for an assignment satisfying the negation, and returns
// the resulting store. If the chosen branch's negation is unsatisfiable or
// the solver reports unknown, it marks that branch negated (done inside
// trace.NewQuery) and retries with another random candidate, exactly as
// findNewPath's while-loop does in trace.cpp. It returns ErrExhausted once
// no unnegated branch remains.
func (c *Context) Advance() (store.Store, error) {
	for {
		node, path, ok := pathtree.RandomUnnegated(c.root)
		if !ok {
			return store.Store{}, ErrExhausted
		}

		q := trace.NewQuery(node, path)
		assignment, sat, err := c.solver.GetAssignment(q)
		if err != nil {
			return store.Store{}, err
		}
		if !sat {
			continue
		}

		return assignmentToStore(assignment), nil
	}
}

func assignmentToStore(a *solver.Assignment) store.Store {
	s := store.New()
	for _, name := range a.Names() {
		v, _ := a.Value(name)
		s.Set(name, v)
	}
	return *s
}
