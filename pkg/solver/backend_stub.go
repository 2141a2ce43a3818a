// +build !z3

package solver

import (
	"errors"
	"math/big"

	"symex/pkg/concolic"
)

// errNoZ3 mirrors the teacher's z3_solver_stub.go: it is the error Eval,
// Solve and FromString return when built without cgo/Z3. The expression
// builders return nil without an error, and Simplify returns e unchanged.
var errNoZ3 = errors.New("z3 solver not available - rebuild with '-tags z3' to enable")

// stubBackend lets the rest of the module (pathtree, trace, execctx, explore)
// compile and link without cgo; every operation that actually needs the
// solver reports errNoZ3.
type stubBackend struct{}

// NewZ3Backend returns a Backend that reports errNoZ3 for every solver
// operation, so non-cgo builds still link.
func NewZ3Backend(timeoutMS int) Backend { return stubBackend{} }

func (stubBackend) Declare(name string, width uint) concolic.Expr { return nil }

func (stubBackend) ConstExpr(value *big.Int, width uint) concolic.Expr { return nil }

func (stubBackend) Extract(e concolic.Expr, offset, length uint) concolic.Expr { return nil }

func (stubBackend) Concat(hi, lo concolic.Expr, hiWidth, loWidth uint) concolic.Expr { return nil }

func (stubBackend) ZExt(e concolic.Expr, width, newWidth uint) concolic.Expr { return nil }

func (stubBackend) SExt(e concolic.Expr, width, newWidth uint) concolic.Expr { return nil }

func (stubBackend) BinOp(op concolic.BinOp, a, b concolic.Expr, width uint) concolic.Expr {
	return nil
}

func (stubBackend) Not(e concolic.Expr, width uint) concolic.Expr { return nil }

func (stubBackend) Eq(a, b concolic.Expr, width uint) concolic.Expr { return nil }

func (stubBackend) Cmp(op concolic.CmpOp, a, b concolic.Expr, width uint) concolic.Expr { return nil }

func (stubBackend) Eval(e concolic.Expr, width uint) (*big.Int, error) {
	return nil, errNoZ3
}

func (stubBackend) Solve(asserts []concolic.Expr) (SolveResult, error) {
	return SolveResult{}, errNoZ3
}

func (stubBackend) FromString(env map[string]concolic.Expr, text string) (concolic.Expr, error) {
	return nil, errNoZ3
}

func (stubBackend) Simplify(constraints []concolic.Expr, e concolic.Expr) concolic.Expr {
	return e
}

func (stubBackend) Close() {}
