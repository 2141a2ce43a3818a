package explore_test

import (
	"fmt"
	"math/big"

	"symex/pkg/concolic"
	"symex/pkg/solver"
)

// fakeBackend is never asked to solve anything in these tests (the fake
// kernel records no branches, so the path tree stays empty and Advance
// reports execctx.ErrExhausted immediately) — it exists purely so
// solver.New has a Backend to wrap.
type fakeBackend struct{}

func (fakeBackend) Declare(name string, width uint) concolic.Expr      { return name }
func (fakeBackend) ConstExpr(value *big.Int, width uint) concolic.Expr { return value.String() }
func (fakeBackend) Extract(e concolic.Expr, offset, length uint) concolic.Expr { return e }
func (fakeBackend) Concat(hi, lo concolic.Expr, hiWidth, loWidth uint) concolic.Expr {
	return hi
}
func (fakeBackend) ZExt(e concolic.Expr, width, newWidth uint) concolic.Expr { return e }
func (fakeBackend) SExt(e concolic.Expr, width, newWidth uint) concolic.Expr { return e }
func (fakeBackend) BinOp(op concolic.BinOp, a, b concolic.Expr, width uint) concolic.Expr {
	return a
}
func (fakeBackend) Not(e concolic.Expr, width uint) concolic.Expr   { return e }
func (fakeBackend) Eq(a, b concolic.Expr, width uint) concolic.Expr { return a }
func (fakeBackend) Cmp(op concolic.CmpOp, a, b concolic.Expr, width uint) concolic.Expr {
	return a
}
func (fakeBackend) Eval(e concolic.Expr, width uint) (*big.Int, error) { return big.NewInt(0), nil }
func (fakeBackend) Simplify(constraints []concolic.Expr, e concolic.Expr) concolic.Expr {
	return e
}
func (fakeBackend) Close() {}

func (fakeBackend) FromString(env map[string]concolic.Expr, text string) (concolic.Expr, error) {
	return nil, fmt.Errorf("fakeBackend: FromString not used")
}

func (fakeBackend) Solve(asserts []concolic.Expr) (solver.SolveResult, error) {
	return solver.SolveResult{}, fmt.Errorf("fakeBackend: Solve not used")
}
