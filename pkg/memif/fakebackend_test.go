package memif_test

import (
	"fmt"
	"math/big"

	"symex/pkg/concolic"
	"symex/pkg/solver"
)

// noopBackend is a Backend that never actually builds a usable expression —
// memif's tests only exercise concrete-shadow bookkeeping through
// solver.Solver.BVC/GetSymbolicBytes, never Solve/FromString.
type noopBackend struct{ anon int }

func (b *noopBackend) Declare(name string, width uint) concolic.Expr {
	if name == "" {
		b.anon++
		name = fmt.Sprintf("anon%d", b.anon)
	}
	return name
}

func (b *noopBackend) ConstExpr(value *big.Int, width uint) concolic.Expr { return value.String() }
func (b *noopBackend) Extract(e concolic.Expr, offset, length uint) concolic.Expr { return e }
func (b *noopBackend) Concat(hi, lo concolic.Expr, hiWidth, loWidth uint) concolic.Expr {
	return hi
}
func (b *noopBackend) ZExt(e concolic.Expr, width, newWidth uint) concolic.Expr { return e }
func (b *noopBackend) SExt(e concolic.Expr, width, newWidth uint) concolic.Expr { return e }
func (b *noopBackend) BinOp(op concolic.BinOp, a, c concolic.Expr, width uint) concolic.Expr {
	return a
}
func (b *noopBackend) Not(e concolic.Expr, width uint) concolic.Expr          { return e }
func (b *noopBackend) Eq(a, c concolic.Expr, width uint) concolic.Expr        { return a }
func (b *noopBackend) Cmp(op concolic.CmpOp, a, c concolic.Expr, width uint) concolic.Expr {
	return a
}
func (b *noopBackend) Eval(e concolic.Expr, width uint) (*big.Int, error) { return big.NewInt(0), nil }
func (b *noopBackend) Simplify(constraints []concolic.Expr, e concolic.Expr) concolic.Expr {
	return e
}
func (b *noopBackend) Close() {}

func (b *noopBackend) FromString(env map[string]concolic.Expr, text string) (concolic.Expr, error) {
	return nil, fmt.Errorf("noopBackend: FromString not used")
}

func (b *noopBackend) Solve(asserts []concolic.Expr) (solver.SolveResult, error) {
	return solver.SolveResult{}, fmt.Errorf("noopBackend: Solve not used")
}
