// Package demo is a tiny reference guest program exercising the full
// exploration pipeline end to end: one symbolic input byte, two nested
// branches, and a symbolic memory round trip. It stands in for the
// concrete RISC-V core original_source/vp/src/core/rv32-symex provides —
// a real guest ISA simulator is out of scope (§1 Non-goals) — so cmd/symex
// has something runnable to drive, and exercises the same scenario as
// spec §8's nested-branch property test: three distinct reachable paths
// (x>=10), (x<10 && x==0), (x<10 && x!=0).
package demo

import (
	"math/big"

	"symex/pkg/concolic"
	"symex/pkg/execctx"
	"symex/pkg/kernel"
	"symex/pkg/memif"
	"symex/pkg/solver"
)

// bus is a flat byte-addressable memory backing memif.Bus, enough for the
// demo program's single symbolic-memory round trip. It remembers the
// concolic.Value attached to a write alongside the concrete shadow, the way
// a real extension-aware TLM bus carries the SymbolicExtension through to a
// later read of the same cell (§4.6's transaction-channel contract).
type bus struct {
	data     map[uint64][]byte
	symbolic map[uint64]concolic.Value
}

func newBus() *bus {
	return &bus{data: map[uint64][]byte{}, symbolic: map[uint64]concolic.Value{}}
}

func (b *bus) Transact(tx *memif.Transaction) error {
	if tx.IsWrite {
		cp := make([]byte, len(tx.Data))
		copy(cp, tx.Data)
		b.data[tx.Addr] = cp
		if tx.Symbolic.Valid() {
			b.symbolic[tx.Addr] = tx.Symbolic
		} else {
			delete(b.symbolic, tx.Addr)
		}
		return nil
	}
	data, ok := b.data[tx.Addr]
	if !ok {
		data = make([]byte, tx.NumBytes)
	}
	tx.Data = data
	if sym, ok := b.symbolic[tx.Addr]; ok && int(sym.Width()) == tx.NumBytes*8 {
		tx.Symbolic = sym
	}
	return nil
}

// Program is the Guest: read one symbolic input byte, branch on it twice,
// then round-trip a symbolic value through memory before exiting.
type Program struct {
	execCtx *execctx.Context
	mem     *memif.Interface
}

// New creates a Program sharing execCtx with the driver, so BVC/trace
// calls made here are visible to execctx.Context.Advance between runs.
func New(execCtx *execctx.Context, sv *solver.Solver) *Program {
	b := newBus()
	return &Program{
		execCtx: execCtx,
		mem:     memif.New(b, memif.IdentityMMU{}, nil, sv),
	}
}

func (p *Program) Reset() error { return nil }

func (p *Program) Step() (kernel.Outcome, bool, error) {
	name := "input"
	x := p.execCtx.BVC(&name, []byte{0})
	ten := p.execCtx.Const(big.NewInt(10), 8)

	tr := p.execCtx.Trace()

	lt10 := x.Ult(ten)
	tookLt10 := x.Concrete().Uint64() < 10
	_ = tr.Add(lt10, 0x1000, tookLt10)

	if !tookLt10 {
		return kernel.Outcome{ExitCode: 0}, true, nil
	}

	if err := p.mem.SymbolicStore(0x8000, x); err != nil {
		return kernel.Outcome{}, false, err
	}
	roundTripped, err := p.mem.SymbolicLoad(0x8000, 1)
	if err != nil {
		return kernel.Outcome{}, false, err
	}

	zero := p.execCtx.Const(big.NewInt(0), 8)
	eqZero := roundTripped.Eq(zero)
	tookEqZero := roundTripped.Concrete().Uint64() == 0
	_ = tr.Add(eqZero, 0x1004, tookEqZero)

	if tookEqZero {
		return kernel.Outcome{ExitCode: 1}, true, nil
	}
	return kernel.Outcome{ExitCode: 2}, true, nil
}
