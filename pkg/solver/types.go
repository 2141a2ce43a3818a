// Package solver is the solver adapter (§4.2): it wraps an SMT backend
// (github.com/mitchellh/go-z3 when built with the "z3" tag) behind the
// concolic.Builder interface, and additionally exposes BVC/getSymbolicBytes/
// getAssignment/fromString and a constraint manager, following the cache +
// strategy-fallback shape of the teacher's pkg/fuzzer/symbolic/constraint_solver.go.
package solver

import (
	"math/big"
	"time"

	"symex/pkg/concolic"
)

// ConstraintSet is the accumulated conjunction of predicates along the
// current run's path (trace state (i) in spec §3).
type ConstraintSet struct {
	exprs []concolic.Expr
}

// Add appends a predicate to the set.
func (cs *ConstraintSet) Add(e concolic.Expr) {
	cs.exprs = append(cs.exprs, e)
}

// Exprs returns the predicates in insertion order.
func (cs *ConstraintSet) Exprs() []concolic.Expr {
	out := make([]concolic.Expr, len(cs.exprs))
	copy(out, cs.exprs)
	return out
}

// Clone returns an independent copy of cs.
func (cs *ConstraintSet) Clone() ConstraintSet {
	var out ConstraintSet
	out.exprs = append(out.exprs, cs.exprs...)
	return out
}

// Len reports the number of predicates currently held.
func (cs *ConstraintSet) Len() int { return len(cs.exprs) }

// Query is a request to check whether expr holds given a constraint set —
// returned by Trace.getQuery/newQuery (§4.4) and consumed by GetAssignment.
type Query struct {
	Constraints ConstraintSet
	Expr        concolic.Expr
}

// Assignment is a solver-produced mapping from symbolic-input name to
// concrete bytes (§3 Assignment, §6).
type Assignment struct {
	order  []string
	values map[string][]byte
}

// NewAssignment returns an empty assignment.
func NewAssignment() *Assignment {
	return &Assignment{values: make(map[string][]byte)}
}

// Set binds name to value, in first-encounter order.
func (a *Assignment) Set(name string, value []byte) {
	if _, ok := a.values[name]; !ok {
		a.order = append(a.order, name)
	}
	a.values[name] = value
}

// Names returns bound names in the order they were set.
func (a *Assignment) Names() []string {
	out := make([]string, len(a.order))
	copy(out, a.order)
	return out
}

// Value returns the bytes bound to name.
func (a *Assignment) Value(name string) ([]byte, bool) {
	v, ok := a.values[name]
	return v, ok
}

// Stats mirrors the teacher's Z3Stats — solve counters surfaced in the
// driver's final report (§4.7 Report).
type Stats struct {
	TotalSolves      int
	SuccessfulSolves int
	UnsatSolves      int
	FailedSolves     int
	TotalSolveTime   time.Duration
}

func bytesToUintLSB(b []byte) *big.Int {
	// Byte 0 is the low 8 bits of the value (§4.6 alignment/endianness).
	v := new(big.Int)
	for i := len(b) - 1; i >= 0; i-- {
		v.Lsh(v, 8)
		v.Or(v, big.NewInt(int64(b[i])))
	}
	return v
}

func uintToBytesLSB(v *big.Int, n int) []byte {
	out := make([]byte, n)
	tmp := new(big.Int).Set(v)
	mask := big.NewInt(0xff)
	for i := 0; i < n; i++ {
		b := new(big.Int).And(tmp, mask)
		out[i] = byte(b.Uint64())
		tmp.Rsh(tmp, 8)
	}
	return out
}
