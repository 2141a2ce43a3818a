package concolic_test

import (
	"fmt"
	"math/big"

	"symex/pkg/concolic"
)

// fakeBuilder is a minimal Builder that renders expressions as strings —
// enough to exercise concolic.Value's concrete-shadow bookkeeping and the
// shape of the calls made into Builder, without a real SMT backend.
type fakeBuilder struct{}

func (fakeBuilder) Extract(e concolic.Expr, offset, length uint) concolic.Expr {
	return fmt.Sprintf("extract(%v,%d,%d)", e, offset, length)
}

func (fakeBuilder) Concat(hi, lo concolic.Expr, hiWidth, loWidth uint) concolic.Expr {
	return fmt.Sprintf("concat(%v,%v)", hi, lo)
}

func (fakeBuilder) ZExt(e concolic.Expr, width, newWidth uint) concolic.Expr {
	return fmt.Sprintf("zext(%v,%d)", e, newWidth)
}

func (fakeBuilder) SExt(e concolic.Expr, width, newWidth uint) concolic.Expr {
	return fmt.Sprintf("sext(%v,%d)", e, newWidth)
}

func (fakeBuilder) BinOp(op concolic.BinOp, a, b concolic.Expr, width uint) concolic.Expr {
	return fmt.Sprintf("binop(%d,%v,%v)", op, a, b)
}

func (fakeBuilder) Not(e concolic.Expr, width uint) concolic.Expr {
	return fmt.Sprintf("not(%v)", e)
}

func (fakeBuilder) Eq(a, b concolic.Expr, width uint) concolic.Expr {
	return fmt.Sprintf("eq(%v,%v)", a, b)
}

func (fakeBuilder) Cmp(op concolic.CmpOp, a, b concolic.Expr, width uint) concolic.Expr {
	return fmt.Sprintf("cmp(%d,%v,%v)", op, a, b)
}

func (fakeBuilder) ConstExpr(value *big.Int, width uint) concolic.Expr {
	return fmt.Sprintf("const(%s,%d)", value.String(), width)
}

func (fakeBuilder) Eval(e concolic.Expr, width uint) (*big.Int, error) {
	return big.NewInt(0), nil
}

func mkValue(width uint, concrete uint64) concolic.Value {
	b := fakeBuilder{}
	sym := b.ConstExpr(new(big.Int).SetUint64(concrete), width)
	return concolic.New(b, width, sym, new(big.Int).SetUint64(concrete))
}
