package execctx_test

import (
	"fmt"
	"math/big"

	"symex/pkg/concolic"
	"symex/pkg/solver"
)

// feExpr/fakeBackend mirror pkg/solver's test-only brute-force backend: a
// small introspectable AST so Solve can enumerate small bit-widths without
// linking a real SMT engine into these tests.
type feExpr struct {
	kind  string
	name  string
	width uint
	value *big.Int
	a, b  *feExpr
	op    int
}

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
		if v, ok := env[e.name]; ok {
			return v
		}
		return big.NewInt(0)
	case "const":
		return mask(e.value, e.width)
	case "eq":
		if e.a.eval(env).Cmp(e.b.eval(env)) == 0 {
			return big.NewInt(1)
		}
		return big.NewInt(0)
	case "cmp":
		x, y := e.a.eval(env), e.b.eval(env)
		var result bool
		switch e.op {
		case 0:
			result = x.Cmp(y) < 0
		case 1:
			result = x.Cmp(y) <= 0
		case 2:
			result = x.Cmp(y) > 0
		case 3:
			result = x.Cmp(y) >= 0
		}
		if result {
			return big.NewInt(1)
		}
		return big.NewInt(0)
	default:
		panic("fakeBackend: unhandled kind " + e.kind)
	}
}

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

func (b *fakeBackend) Extract(e concolic.Expr, offset, length uint) concolic.Expr { return e }
func (b *fakeBackend) Concat(hi, lo concolic.Expr, hiWidth, loWidth uint) concolic.Expr {
	return hi
}
func (b *fakeBackend) ZExt(e concolic.Expr, width, newWidth uint) concolic.Expr { return e }
func (b *fakeBackend) SExt(e concolic.Expr, width, newWidth uint) concolic.Expr { return e }
func (b *fakeBackend) BinOp(op concolic.BinOp, a, c concolic.Expr, width uint) concolic.Expr {
	return a
}
func (b *fakeBackend) Not(e concolic.Expr, width uint) concolic.Expr { return e }

func (b *fakeBackend) Eq(a, c concolic.Expr, width uint) concolic.Expr {
	return &feExpr{kind: "eq", a: asFE(a), b: asFE(c)}
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
	return &feExpr{kind: "cmp", a: asFE(a), b: asFE(c), op: code}
}

func (b *fakeBackend) Eval(e concolic.Expr, width uint) (*big.Int, error) {
	return asFE(e).eval(map[string]*big.Int{}), nil
}

func (b *fakeBackend) Simplify(constraints []concolic.Expr, e concolic.Expr) concolic.Expr { return e }
func (b *fakeBackend) Close()                                                             {}

func (b *fakeBackend) FromString(env map[string]concolic.Expr, text string) (concolic.Expr, error) {
	return nil, fmt.Errorf("fakeBackend: FromString not used in execctx tests")
}

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
