// Package memif implements the symbolic memory interface of §3/§4.6:
// instruction fetch and concrete data access take the DMI fast path,
// symbolic data access concretizes its address and is excluded from DMI by
// construction. Grounded on
// original_source/vp/src/core/rv32-symex/mem.h's InstrMemoryProxy and
// CombinedMemoryInterface, translated from that file's templated
// concrete_load_data<T>/symbolic_load_data methods into width-parameterised
// Go methods operating on concolic.Value.
package memif

import (
	"fmt"
	"math/big"

	"symex/pkg/concolic"
	"symex/pkg/solver"
)

// AccessKind distinguishes instruction fetch from data load/store for MMU
// translation (different protection checks apply to each, per mem.h's v2p).
type AccessKind int

const (
	AccessFetch AccessKind = iota
	AccessLoad
	AccessStore
)

// MMU performs virtual-to-physical address translation. A flat (identity)
// implementation is sufficient when paging is disabled, matching mem.h's
// early-out when the MMU is not enabled.
type MMU interface {
	Translate(vaddr uint64, kind AccessKind) (uint64, error)
}

// IdentityMMU is a no-translation MMU: physical == virtual.
type IdentityMMU struct{}

func (IdentityMMU) Translate(vaddr uint64, kind AccessKind) (uint64, error) { return vaddr, nil }

// Transaction is the unit of work sent to Bus, carrying an optional
// symbolic payload alongside the concrete bytes — the Go analogue of
// symbolic_extension.h's SymbolicExtension TLM extension. Ownership of the
// symbolic payload needs no special handling here: Go's garbage collector
// retires it the moment nothing holds a reference, unlike the
// shared_ptr<ConcolicValue> the original carries explicitly.
type Transaction struct {
	Addr     uint64
	NumBytes int
	IsWrite  bool
	Data     []byte
	Symbolic concolic.Value // zero Value (Valid() == false) for purely concrete transactions
}

// Bus delivers a Transaction to physical memory/peripherals.
type Bus interface {
	Transact(tx *Transaction) error
}

// DMIRange is one direct-memory-interface window: a contiguous physical
// range backed directly by a Go byte slice, letting concrete accesses skip
// the Bus entirely (mem.h's DMI fast path).
type DMIRange struct {
	Start   uint64
	Backing []byte
}

func (r DMIRange) contains(addr uint64, n int) bool {
	end := r.Start + uint64(len(r.Backing))
	return addr >= r.Start && addr+uint64(n) <= end
}

// Interface is the guest-facing memory interface: instruction fetch and
// concrete data access prefer DMI; symbolic data access always goes
// through solver-backed value construction with the address concretized,
// and structurally never consults dmi (the exclusion mem.h enforces with an
// explicit comment is enforced here simply by dmiLookup never being called
// from the symbolic path).
type Interface struct {
	bus    Bus
	mmu    MMU
	dmi    []DMIRange
	solver *solver.Solver
}

// New creates an Interface. mmu may be IdentityMMU{} when paging is not
// modelled.
func New(bus Bus, mmu MMU, dmi []DMIRange, sv *solver.Solver) *Interface {
	return &Interface{bus: bus, mmu: mmu, dmi: dmi, solver: sv}
}

func (m *Interface) dmiLookup(paddr uint64, n int) ([]byte, bool) {
	for _, r := range m.dmi {
		if r.contains(paddr, n) {
			off := paddr - r.Start
			return r.Backing[off : off+uint64(n)], true
		}
	}
	return nil, false
}

func (m *Interface) doTransaction(paddr uint64, n int, isWrite bool, data []byte) ([]byte, error) {
	if backing, ok := m.dmiLookup(paddr, n); ok {
		if isWrite {
			copy(backing, data)
			return nil, nil
		}
		out := make([]byte, n)
		copy(out, backing)
		return out, nil
	}

	tx := &Transaction{Addr: paddr, NumBytes: n, IsWrite: isWrite, Data: data}
	if err := m.bus.Transact(tx); err != nil {
		return nil, err
	}
	return tx.Data, nil
}

// FetchInstruction loads a 32-bit instruction word, always concretely, via
// the DMI fast path when available (InstrMemoryProxy in mem.h never
// supports symbolic instruction streams).
func (m *Interface) FetchInstruction(vaddr uint64) (uint32, error) {
	paddr, err := m.mmu.Translate(vaddr, AccessFetch)
	if err != nil {
		return 0, err
	}
	data, err := m.doTransaction(paddr, 4, false, nil)
	if err != nil {
		return 0, err
	}
	return bytesToUint32LSB(data), nil
}

func (m *Interface) concreteLoad(vaddr uint64, n int) ([]byte, error) {
	paddr, err := m.mmu.Translate(vaddr, AccessLoad)
	if err != nil {
		return nil, err
	}
	return m.doTransaction(paddr, n, false, nil)
}

func (m *Interface) concreteStore(vaddr uint64, data []byte) error {
	paddr, err := m.mmu.Translate(vaddr, AccessStore)
	if err != nil {
		return err
	}
	_, err = m.doTransaction(paddr, len(data), true, data)
	return err
}

// LoadWord/LoadHalf/LoadByte load sign-extended-to-32-bit concrete values
// (mem.h's load_word/load_half/load_byte: sext(32)).
func (m *Interface) LoadWord(vaddr uint64) (int32, error) {
	data, err := m.concreteLoad(vaddr, 4)
	if err != nil {
		return 0, err
	}
	return int32(bytesToUint32LSB(data)), nil
}

func (m *Interface) LoadHalf(vaddr uint64) (int32, error) {
	data, err := m.concreteLoad(vaddr, 2)
	if err != nil {
		return 0, err
	}
	return sext32(uint32(bytesToUint16LSB(data)), 16), nil
}

func (m *Interface) LoadByte(vaddr uint64) (int32, error) {
	data, err := m.concreteLoad(vaddr, 1)
	if err != nil {
		return 0, err
	}
	return sext32(uint32(data[0]), 8), nil
}

// LoadUHalf/LoadUByte load zero-extended-to-32-bit concrete values (mem.h's
// load_uhalf/load_ubyte: zext(32)).
func (m *Interface) LoadUHalf(vaddr uint64) (uint32, error) {
	data, err := m.concreteLoad(vaddr, 2)
	if err != nil {
		return 0, err
	}
	return uint32(bytesToUint16LSB(data)), nil
}

func (m *Interface) LoadUByte(vaddr uint64) (uint32, error) {
	data, err := m.concreteLoad(vaddr, 1)
	if err != nil {
		return 0, err
	}
	return uint32(data[0]), nil
}

// StoreDouble/StoreWord/StoreHalf/StoreByte write concrete values of the
// corresponding width.
func (m *Interface) StoreDouble(vaddr uint64, value uint64) error {
	return m.concreteStore(vaddr, uint64ToBytesLSB(value, 8))
}

func (m *Interface) StoreWord(vaddr uint64, value uint32) error {
	return m.concreteStore(vaddr, uint32ToBytesLSB(value, 4))
}

func (m *Interface) StoreHalf(vaddr uint64, value uint16) error {
	return m.concreteStore(vaddr, uint32ToBytesLSB(uint32(value), 2))
}

func (m *Interface) StoreByte(vaddr uint64, value uint8) error {
	return m.concreteStore(vaddr, []byte{value})
}

// SymbolicLoad loads numBytes from vaddr as a single concolic value. The
// address itself is first concretized (mem.h: "the address must be
// concrete for a symbolic access — there is no support for symbolic
// addresses"), and DMI is never consulted. Per the transaction channel's
// contract (mem.h's CombinedMemoryInterface::read_dbg/symbolic_load_data):
// a read may come back carrying an extension-supplied symbolic value (a
// prior SymbolicStore reaching the same backing cell through the bus), in
// which case that value is returned as-is; otherwise a fresh symbolic
// variable is declared and seeded from the concrete bytes the bus
// returned.
func (m *Interface) SymbolicLoad(vaddr uint64, numBytes int) (concolic.Value, error) {
	paddr, err := m.mmu.Translate(vaddr, AccessLoad)
	if err != nil {
		return concolic.Value{}, err
	}
	tx := &Transaction{Addr: paddr, NumBytes: numBytes, IsWrite: false}
	if err := m.bus.Transact(tx); err != nil {
		return concolic.Value{}, err
	}
	if tx.Symbolic.Valid() {
		return tx.Symbolic, nil
	}
	name := fmt.Sprintf("mem_%x_%d", paddr, numBytes)
	return m.solver.GetSymbolicBytes(name, numBytes, tx.Data), nil
}

// SymbolicStore writes a concolic value to vaddr: the concrete shadow is
// written through the normal (non-DMI) transaction path so later concrete
// reads observe it, and the symbolic expression itself is carried on the
// Transaction for any bus participant that cares to track it (mem.h's
// concolic_to_bytes followed by a plain store, plus the SymbolicExtension
// attached to the transaction).
func (m *Interface) SymbolicStore(vaddr uint64, value concolic.Value) error {
	paddr, err := m.mmu.Translate(vaddr, AccessStore)
	if err != nil {
		return err
	}
	n := int(value.Width()+7) / 8
	data := bigToBytesLSB(value.Concrete(), n)

	tx := &Transaction{Addr: paddr, NumBytes: n, IsWrite: true, Data: data, Symbolic: value}
	return m.bus.Transact(tx)
}

func bytesToUint16LSB(b []byte) uint16 {
	return uint16(b[0]) | uint16(b[1])<<8
}

func bytesToUint32LSB(b []byte) uint32 {
	var v uint32
	for i := 3; i >= 0; i-- {
		v <<= 8
		v |= uint32(b[i])
	}
	return v
}

func uint32ToBytesLSB(v uint32, n int) []byte {
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		out[i] = byte(v)
		v >>= 8
	}
	return out
}

func uint64ToBytesLSB(v uint64, n int) []byte {
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		out[i] = byte(v)
		v >>= 8
	}
	return out
}

func bigToBytesLSB(v *big.Int, n int) []byte {
	out := make([]byte, n)
	tmp := new(big.Int).Set(v)
	mask := big.NewInt(0xff)
	for i := 0; i < n; i++ {
		out[i] = byte(new(big.Int).And(tmp, mask).Uint64())
		tmp.Rsh(tmp, 8)
	}
	return out
}

func sext32(v uint32, width uint) int32 {
	signBit := uint32(1) << (width - 1)
	if v&signBit != 0 {
		v |= ^uint32(0) << width
	}
	return int32(v)
}
