package solver

import (
	"fmt"
	"math/big"
	"sync"
	"time"

	"symex/pkg/concolic"
)

// Solver is the public adapter described in §4.2: BVC/getSymbolicBytes
// create fresh symbolic inputs, getAssignment turns a Query into a concrete
// Assignment (or reports unsat/unknown), and fromString parses a small
// textual relational constraint grammar.
//
// Solver itself holds no notion of "the current run's store" — per §4.5
// that responsibility belongs to execctx.Context, which supplies
// the concrete seed bytes on every call. This keeps Solver safe to reuse
// across runs within one exploration session.
type Solver struct {
	mu      sync.Mutex
	backend Backend

	declOrder []string
	declWidth map[string]uint
	declExpr  map[string]concolic.Expr

	stats Stats
}

// New wraps backend in a Solver.
func New(backend Backend) *Solver {
	return &Solver{
		backend:   backend,
		declWidth: make(map[string]uint),
		declExpr:  make(map[string]concolic.Expr),
	}
}

// Stats returns a snapshot of the solve counters (§4.7 Report).
func (s *Solver) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Close releases the underlying backend.
func (s *Solver) Close() { s.backend.Close() }

// Const wraps a literal as a concolic.Value without registering it as a
// named symbolic input — used to build comparison operands for literals
// appearing directly in guest code (e.g. "x < 10").
func (s *Solver) Const(value *big.Int, width uint) concolic.Value {
	return constToValue(s.backend, value, width)
}

// BVC creates one fresh symbolic bit-vector of width len(concrete)*8, seeded with
// concrete's bytes as its shadow value. A nil name yields an anonymous
// input (never surfaced in a test case); a non-nil name registers it as a
// named input recoverable by GetAssignment (§3 Symbolic input store,
// §6 test-case format).
func (s *Solver) BVC(name *string, concrete []byte) concolic.Value {
	width := uint(len(concrete)) * 8

	s.mu.Lock()
	defer s.mu.Unlock()

	declName := ""
	if name != nil {
		declName = *name
	}
	expr := s.backend.Declare(declName, width)
	if name != nil {
		s.register(*name, width, expr)
	}

	return concolic.New(s.backend, width, expr, bytesToUintLSB(concrete))
}

// GetSymbolicBytes creates a single fresh named symbolic value of n bytes,
// seeded from seed (padded/truncated to n bytes), mirroring mem.h's
// bytes_to_concolic helper used when a memory region is marked symbolic.
func (s *Solver) GetSymbolicBytes(name string, n int, seed []byte) concolic.Value {
	concrete := make([]byte, n)
	copy(concrete, seed)
	return s.BVC(&name, concrete)
}

func (s *Solver) register(name string, width uint, expr concolic.Expr) {
	if _, ok := s.declWidth[name]; !ok {
		s.declOrder = append(s.declOrder, name)
	}
	s.declWidth[name] = width
	s.declExpr[name] = expr
}

// GetAssignment solves q.Constraints ∧ q.Expr and, if satisfiable, returns
// the concrete bytes for every named input declared so far (§4.4
// Trace.getStore / §6 Assignment).
func (s *Solver) GetAssignment(q Query) (*Assignment, bool, error) {
	s.mu.Lock()
	asserts := append(q.Constraints.Exprs(), q.Expr)
	names := append([]string(nil), s.declOrder...)
	widths := make(map[string]uint, len(names))
	exprs := make(map[string]concolic.Expr, len(names))
	for _, n := range names {
		widths[n] = s.declWidth[n]
		exprs[n] = s.declExpr[n]
	}
	s.mu.Unlock()

	start := time.Now()
	result, err := s.backend.Solve(asserts)
	elapsed := time.Since(start)

	s.mu.Lock()
	s.stats.TotalSolves++
	s.stats.TotalSolveTime += elapsed
	if err != nil {
		s.stats.FailedSolves++
	} else if result.Unknown {
		s.stats.FailedSolves++
	} else if !result.Sat {
		s.stats.UnsatSolves++
	} else {
		s.stats.SuccessfulSolves++
	}
	s.mu.Unlock()

	if err != nil {
		return nil, false, err
	}
	if result.Unknown {
		return nil, false, nil
	}
	if !result.Sat {
		return nil, false, nil
	}
	defer result.Model.Close()

	assignment := NewAssignment()
	for _, n := range names {
		bytes, err := result.Model.EvalBytes(exprs[n], widths[n])
		if err != nil {
			return nil, false, fmt.Errorf("solver: evaluating %q: %w", n, err)
		}
		assignment.Set(n, bytes)
	}
	return assignment, true, nil
}

// FromString parses a textual relational constraint (e.g. "x < 0x10")
// against the names declared so far via BVC/GetSymbolicBytes (§4.2
// fromString).
func (s *Solver) FromString(text string) (concolic.Expr, error) {
	s.mu.Lock()
	env := make(map[string]concolic.Expr, len(s.declExpr))
	for k, v := range s.declExpr {
		env[k] = v
	}
	s.mu.Unlock()

	return s.backend.FromString(env, text)
}
