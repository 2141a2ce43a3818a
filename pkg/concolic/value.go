// Package concolic implements the concolic (concrete + symbolic) bit-vector
// value: a pair of a symbolic expression and its concrete shadow, plus the
// extract/concat/zext/sext/predicate operations §4.1 of the design requires.
//
// The package never imports a concrete solver implementation. Expression
// construction is delegated to a Builder, implemented by package solver,
// the same way the teacher keeps pkg/fuzzer/symbolic's types independent of
// the z3 bindings in z3_solver.go.
package concolic

import "math/big"

// Expr is an opaque symbolic expression handle. Only a Builder may produce
// or interpret one; concolic.Value treats it as a token.
type Expr interface{}

// Builder constructs symbolic expressions and evaluates them concretely.
// Implemented by package solver against github.com/mitchellh/go-z3.
type Builder interface {
	// Extract returns the len-bit sub-expression starting at bit offset
	// (low-indexed), e.g. Extract(e, 0, 8) is the low byte of e.
	Extract(e Expr, offset, length uint) Expr
	// Concat returns hi:lo, hi forming the high-order bits.
	Concat(hi, lo Expr, hiWidth, loWidth uint) Expr
	// ZExt/SExt widen e (currently width bits) to newWidth bits.
	ZExt(e Expr, width, newWidth uint) Expr
	SExt(e Expr, width, newWidth uint) Expr

	// Binary/unary builders used by the ISS glue to construct branch
	// predicates and memory-address arithmetic.
	BinOp(op BinOp, a, b Expr, width uint) Expr
	Not(e Expr, width uint) Expr
	Eq(a, b Expr, width uint) Expr
	Cmp(op CmpOp, a, b Expr, width uint) Expr

	// ConstExpr returns a literal expression of the given width and value.
	ConstExpr(value *big.Int, width uint) Expr

	// Eval returns the concrete evaluation of e as an unsigned integer
	// truncated to width bits, using the solver's model when no shadow is
	// available via the installed assignment.
	Eval(e Expr, width uint) (*big.Int, error)
}

// BinOp enumerates the arithmetic/logical builders required beyond the
// spec's minimal set (§4.1 note: memory interface & ISS glue need them to
// build branch predicates and addresses).
type BinOp int

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpAnd
	OpOr
	OpXor
	OpShl
	OpLShr
	OpAShr
)

// CmpOp enumerates the ordered comparisons.
type CmpOp int

const (
	CmpUlt CmpOp = iota
	CmpUle
	CmpUgt
	CmpUge
	CmpSlt
	CmpSle
	CmpSgt
	CmpSge
)

// Value is a concolic bit-vector: a symbolic expression paired with its
// concrete shadow. Width is an invariant attribute (spec §3).
type Value struct {
	width    uint
	sym      Expr
	concrete *big.Int
	b        Builder
}

// New wraps a symbolic expression and its concrete shadow into a Value.
// Only Builder implementations should call this directly; everyone else
// goes through the Builder-returning constructors on the solver.
func New(b Builder, width uint, sym Expr, concrete *big.Int) Value {
	return Value{width: width, sym: sym, concrete: maskTo(concrete, width), b: b}
}

func maskTo(v *big.Int, width uint) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	mask := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), width), big.NewInt(1))
	return new(big.Int).And(v, mask)
}

// Width returns the bit width of v.
func (v Value) Width() uint { return v.width }

// Expr returns the underlying symbolic expression.
func (v Value) Expr() Expr { return v.sym }

// Concrete returns the concrete shadow as an unsigned big.Int, masked to
// Width() bits.
func (v Value) Concrete() *big.Int { return new(big.Int).Set(v.concrete) }

// Valid reports whether v carries a builder (i.e. was not the zero Value).
func (v Value) Valid() bool { return v.b != nil }

// Extract returns the length-bit sub-value starting at bit offset.
func (v Value) Extract(offset, length uint) Value {
	sym := v.b.Extract(v.sym, offset, length)
	shifted := new(big.Int).Rsh(v.concrete, offset)
	return New(v.b, length, sym, shifted)
}

// Concat returns v:other, v forming the high-order bits.
func (v Value) Concat(other Value) Value {
	sym := v.b.Concat(v.sym, other.sym, v.width, other.width)
	c := new(big.Int).Lsh(v.concrete, other.width)
	c.Or(c, other.concrete)
	return New(v.b, v.width+other.width, sym, c)
}

// ZExt zero-extends v to newWidth bits.
func (v Value) ZExt(newWidth uint) Value {
	sym := v.b.ZExt(v.sym, v.width, newWidth)
	return New(v.b, newWidth, sym, new(big.Int).Set(v.concrete))
}

// SExt sign-extends v to newWidth bits.
func (v Value) SExt(newWidth uint) Value {
	sym := v.b.SExt(v.sym, v.width, newWidth)
	c := new(big.Int).Set(v.concrete)
	signBit := new(big.Int).Rsh(c, v.width-1)
	if signBit.Sign() != 0 {
		ext := new(big.Int).Lsh(big.NewInt(1), newWidth)
		ext.Sub(ext, new(big.Int).Lsh(big.NewInt(1), v.width))
		c.Or(c, ext)
	}
	return New(v.b, newWidth, sym, c)
}

// eqConst builds a width-1 predicate comparing v to a constant 0/1 value.
func (v Value) eqConst(bit uint64) Value {
	one := v.b.ConstExpr(new(big.Int).SetUint64(bit), v.width)
	sym := v.b.Eq(v.sym, one, v.width)
	c := int64(0)
	if v.concrete.Uint64() == bit {
		c = 1
	}
	return New(v.b, 1, sym, big.NewInt(c))
}

// EqTrue returns the width-1 predicate "v == 1".
func (v Value) EqTrue() Value { return v.eqConst(1) }

// EqFalse returns the width-1 predicate "v == 0".
func (v Value) EqFalse() Value { return v.eqConst(0) }

func (v Value) binOp(op BinOp, other Value) Value {
	sym := v.b.BinOp(op, v.sym, other.sym, v.width)
	c := applyBinOpConcrete(op, v.concrete, other.concrete, v.width)
	return New(v.b, v.width, sym, c)
}

func applyBinOpConcrete(op BinOp, a, b *big.Int, width uint) *big.Int {
	r := new(big.Int)
	switch op {
	case OpAdd:
		r.Add(a, b)
	case OpSub:
		r.Sub(a, b)
	case OpMul:
		r.Mul(a, b)
	case OpAnd:
		r.And(a, b)
	case OpOr:
		r.Or(a, b)
	case OpXor:
		r.Xor(a, b)
	case OpShl:
		r.Lsh(a, uint(b.Uint64()))
	case OpLShr:
		r.Rsh(a, uint(b.Uint64()))
	case OpAShr:
		signed := toSigned(a, width)
		r.Rsh(signed, uint(b.Uint64()))
	}
	return maskTo(r, width)
}

func toSigned(v *big.Int, width uint) *big.Int {
	signBit := new(big.Int).Rsh(v, width-1)
	if signBit.Sign() == 0 {
		return new(big.Int).Set(v)
	}
	full := new(big.Int).Lsh(big.NewInt(1), width)
	return new(big.Int).Sub(v, full)
}

// Add, Sub, Mul, And, Or, Xor implement the arithmetic/logical operations
// on same-width values.
func (v Value) Add(other Value) Value { return v.binOp(OpAdd, other) }
func (v Value) Sub(other Value) Value { return v.binOp(OpSub, other) }
func (v Value) Mul(other Value) Value { return v.binOp(OpMul, other) }
func (v Value) And(other Value) Value { return v.binOp(OpAnd, other) }
func (v Value) Or(other Value) Value  { return v.binOp(OpOr, other) }
func (v Value) Xor(other Value) Value { return v.binOp(OpXor, other) }
func (v Value) Shl(other Value) Value { return v.binOp(OpShl, other) }
func (v Value) LShr(other Value) Value { return v.binOp(OpLShr, other) }
func (v Value) AShr(other Value) Value { return v.binOp(OpAShr, other) }

// Not returns the bitwise complement of v.
func (v Value) Not() Value {
	sym := v.b.Not(v.sym, v.width)
	return New(v.b, v.width, sym, maskTo(new(big.Int).Not(v.concrete), v.width))
}

func (v Value) cmp(op CmpOp, other Value) Value {
	sym := v.b.Cmp(op, v.sym, other.sym, v.width)
	var result bool
	switch op {
	case CmpUlt:
		result = v.concrete.Cmp(other.concrete) < 0
	case CmpUle:
		result = v.concrete.Cmp(other.concrete) <= 0
	case CmpUgt:
		result = v.concrete.Cmp(other.concrete) > 0
	case CmpUge:
		result = v.concrete.Cmp(other.concrete) >= 0
	case CmpSlt, CmpSle, CmpSgt, CmpSge:
		a, b := toSigned(v.concrete, v.width), toSigned(other.concrete, v.width)
		switch op {
		case CmpSlt:
			result = a.Cmp(b) < 0
		case CmpSle:
			result = a.Cmp(b) <= 0
		case CmpSgt:
			result = a.Cmp(b) > 0
		case CmpSge:
			result = a.Cmp(b) >= 0
		}
	}
	c := int64(0)
	if result {
		c = 1
	}
	return New(v.b, 1, sym, big.NewInt(c))
}

// Ult, Ule, Ugt, Uge, Slt, Sle, Sgt, Sge return width-1 ordered-comparison
// predicates.
func (v Value) Ult(other Value) Value { return v.cmp(CmpUlt, other) }
func (v Value) Ule(other Value) Value { return v.cmp(CmpUle, other) }
func (v Value) Ugt(other Value) Value { return v.cmp(CmpUgt, other) }
func (v Value) Uge(other Value) Value { return v.cmp(CmpUge, other) }
func (v Value) Slt(other Value) Value { return v.cmp(CmpSlt, other) }
func (v Value) Sle(other Value) Value { return v.cmp(CmpSle, other) }
func (v Value) Sgt(other Value) Value { return v.cmp(CmpSgt, other) }
func (v Value) Sge(other Value) Value { return v.cmp(CmpSge, other) }

// Eq, Ne return width-1 equality predicates.
func (v Value) Eq(other Value) Value {
	sym := v.b.Eq(v.sym, other.sym, v.width)
	c := int64(0)
	if v.concrete.Cmp(other.concrete) == 0 {
		c = 1
	}
	return New(v.b, 1, sym, big.NewInt(c))
}

func (v Value) Ne(other Value) Value {
	eq := v.Eq(other)
	return eq.Not().Extract(0, 1)
}
