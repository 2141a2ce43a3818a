package solver_test

import (
	"fmt"
	"math/big"

	"symex/pkg/concolic"
	"symex/pkg/solver"
)

// feExpr is a tiny introspectable expression tree standing in for a real
// SMT backend's AST — enough for fakeBackend.Solve to brute-force small
// bit-widths without linking github.com/mitchellh/go-z3 into tests.
type feExpr struct {
	kind   string
	name   string
	width  uint
	value  *big.Int
	a, b   *feExpr
	offset uint
	length uint
	op     int
}

func (e *feExpr) String() string { return fmt.Sprintf("<%s %s>", e.kind, e.name) }

func (e *feExpr) vars(seen map[string]uint) {
	if e == nil {
		return
	}
	if e.kind == "var" {
		seen[e.name] = e.width
		return
	}
	e.a.vars(seen)
	e.b.vars(seen)
}

func (e *feExpr) eval(env map[string]*big.Int) *big.Int {
	mask := func(v *big.Int, w uint) *big.Int {
		m := new(big.Int).Lsh(big.NewInt(1), w)
		m.Sub(m, big.NewInt(1))
		return new(big.Int).And(v, m)
	}
	switch e.kind {
	case "var":
		return env[e.name]
	case "const":
		return mask(e.value, e.width)
	case "extract":
		v := e.a.eval(env)
		v = new(big.Int).Rsh(v, e.offset)
		return mask(v, e.length)
	case "concat":
		hi, lo := e.a.eval(env), e.b.eval(env)
		v := new(big.Int).Lsh(hi, e.b.width)
		v.Or(v, lo)
		return mask(v, e.width)
	case "zext":
		return mask(e.a.eval(env), e.width)
	case "sext":
		v := e.a.eval(env)
		signBit := e.a.width - 1
		if v.Bit(int(signBit)) == 1 {
			ext := new(big.Int).Lsh(big.NewInt(1), e.width)
			ext.Sub(ext, new(big.Int).Lsh(big.NewInt(1), e.a.width))
			v = new(big.Int).Or(v, ext)
		}
		return mask(v, e.width)
	case "not":
		v := e.a.eval(env)
		full := new(big.Int).Lsh(big.NewInt(1), e.width)
		full.Sub(full, big.NewInt(1))
		return new(big.Int).Xor(v, full)
	case "eq":
		if e.a.eval(env).Cmp(e.b.eval(env)) == 0 {
			return big.NewInt(1)
		}
		return big.NewInt(0)
	case "cmp":
		x, y := e.a.eval(env), e.b.eval(env)
		var result bool
		switch e.op {
		case 0: // Ult
			result = x.Cmp(y) < 0
		case 1: // Ule
			result = x.Cmp(y) <= 0
		case 2: // Ugt
			result = x.Cmp(y) > 0
		case 3: // Uge
			result = x.Cmp(y) >= 0
		}
		if result {
			return big.NewInt(1)
		}
		return big.NewInt(0)
	case "binop":
		x, y := e.a.eval(env), e.b.eval(env)
		var v *big.Int
		switch e.op {
		case 0: // Add
			v = new(big.Int).Add(x, y)
		case 1: // Sub
			v = new(big.Int).Sub(x, y)
		case 2: // And
			v = new(big.Int).And(x, y)
		}
		return mask(v, e.width)
	default:
		panic("fakeBackend: unhandled kind " + e.kind)
	}
}

// fakeBackend is a from-scratch, brute-force-solving Backend used only in
// tests: enough expression shapes to exercise solver.Solver's BVC/
// GetAssignment/FromString plumbing without a real SMT engine.
type fakeBackend struct{ anon int }

func asFE(e concolic.Expr) *feExpr { return e.(*feExpr) }

func (b *fakeBackend) Declare(name string, width uint) concolic.Expr {
	if name == "" {
		b.anon++
		name = fmt.Sprintf("anon%d", b.anon)
	}
	return &feExpr{kind: "var", name: name, width: width}
}

func (b *fakeBackend) ConstExpr(value *big.Int, width uint) concolic.Expr {
	return &feExpr{kind: "const", value: value, width: width}
}

func (b *fakeBackend) Extract(e concolic.Expr, offset, length uint) concolic.Expr {
	return &feExpr{kind: "extract", a: asFE(e), offset: offset, length: length, width: length}
}

func (b *fakeBackend) Concat(hi, lo concolic.Expr, hiWidth, loWidth uint) concolic.Expr {
	return &feExpr{kind: "concat", a: asFE(hi), b: asFE(lo), width: hiWidth + loWidth}
}

func (b *fakeBackend) ZExt(e concolic.Expr, width, newWidth uint) concolic.Expr {
	return &feExpr{kind: "zext", a: asFE(e), width: newWidth}
}

func (b *fakeBackend) SExt(e concolic.Expr, width, newWidth uint) concolic.Expr {
	return &feExpr{kind: "sext", a: asFE(e), width: newWidth}
}

func (b *fakeBackend) BinOp(op concolic.BinOp, a, c concolic.Expr, width uint) concolic.Expr {
	code := 0
	switch op {
	case concolic.OpAdd:
		code = 0
	case concolic.OpSub:
		code = 1
	case concolic.OpAnd:
		code = 2
	}
	return &feExpr{kind: "binop", a: asFE(a), b: asFE(c), op: code, width: width}
}

func (b *fakeBackend) Not(e concolic.Expr, width uint) concolic.Expr {
	return &feExpr{kind: "not", a: asFE(e), width: width}
}

func (b *fakeBackend) Eq(a, c concolic.Expr, width uint) concolic.Expr {
	return &feExpr{kind: "eq", a: asFE(a), b: asFE(c), width: 1}
}

func (b *fakeBackend) Cmp(op concolic.CmpOp, a, c concolic.Expr, width uint) concolic.Expr {
	code := 0
	switch op {
	case concolic.CmpUlt:
		code = 0
	case concolic.CmpUle:
		code = 1
	case concolic.CmpUgt:
		code = 2
	case concolic.CmpUge:
		code = 3
	}
	return &feExpr{kind: "cmp", a: asFE(a), b: asFE(c), op: code, width: 1}
}

func (b *fakeBackend) Eval(e concolic.Expr, width uint) (*big.Int, error) {
	return asFE(e).eval(map[string]*big.Int{}), nil
}

func (b *fakeBackend) Simplify(constraints []concolic.Expr, e concolic.Expr) concolic.Expr { return e }

func (b *fakeBackend) Close() {}

func (b *fakeBackend) FromString(env map[string]concolic.Expr, text string) (concolic.Expr, error) {
	var name, op, litStr string
	if _, err := fmt.Sscanf(text, "%s %s %s", &name, &op, &litStr); err != nil {
		return nil, err
	}
	varExpr, ok := env[name]
	if !ok {
		return nil, fmt.Errorf("unknown name %q", name)
	}
	lit := new(big.Int)
	lit.SetString(litStr, 0)
	litExpr := &feExpr{kind: "const", value: lit, width: asFE(varExpr).width}
	switch op {
	case "==":
		return b.Eq(varExpr, litExpr, 1), nil
	case "<":
		return b.Cmp(concolic.CmpUlt, varExpr, litExpr, 1), nil
	case "<=":
		return b.Cmp(concolic.CmpUle, varExpr, litExpr, 1), nil
	case ">":
		return b.Cmp(concolic.CmpUgt, varExpr, litExpr, 1), nil
	case ">=":
		return b.Cmp(concolic.CmpUge, varExpr, litExpr, 1), nil
	default:
		return nil, fmt.Errorf("unsupported operator %q", op)
	}
}

// Solve brute-forces every declared variable referenced in asserts across
// its full domain (assumed small — test widths stay at or below 8 bits).
func (b *fakeBackend) Solve(asserts []concolic.Expr) (solver.SolveResult, error) {
	seen := map[string]uint{}
	for _, a := range asserts {
		asFE(a).vars(seen)
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}

	env := map[string]*big.Int{}
	var search func(i int) bool
	search = func(i int) bool {
		if i == len(names) {
			for _, a := range asserts {
				if asFE(a).eval(env).Sign() == 0 {
					return false
				}
			}
			return true
		}
		name := names[i]
		width := seen[name]
		domain := uint64(1) << width
		for v := uint64(0); v < domain; v++ {
			env[name] = new(big.Int).SetUint64(v)
			if search(i + 1) {
				return true
			}
		}
		delete(env, name)
		return false
	}

	if !search(0) {
		return solver.SolveResult{Sat: false}, nil
	}
	return solver.SolveResult{Sat: true, Model: &fakeModel{env: env}}, nil
}

type fakeModel struct{ env map[string]*big.Int }

func (m *fakeModel) Close() {}

func (m *fakeModel) EvalBytes(e concolic.Expr, widthBits uint) ([]byte, error) {
	fe := asFE(e)
	v, ok := m.env[fe.name]
	if !ok {
		v = big.NewInt(0)
	}
	n := int((widthBits + 7) / 8)
	out := make([]byte, n)
	tmp := new(big.Int).Set(v)
	mask := big.NewInt(0xff)
	for i := 0; i < n; i++ {
		out[i] = byte(new(big.Int).And(tmp, mask).Uint64())
		tmp.Rsh(tmp, 8)
	}
	return out, nil
}
