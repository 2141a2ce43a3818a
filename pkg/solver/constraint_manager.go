package solver

import (
	"fmt"
	"sync"

	"symex/pkg/concolic"
)

// ConstraintManager caches Backend.Simplify results keyed on the
// constraint-set length and the expression's own representation, the same
// cache + hit/miss-stats shape as constraint_solver.go's ConstraintSolver.
// Unbounded growth is capped by evicting the oldest entry once maxEntries
// is reached, mirroring that file's simple eviction policy.
type ConstraintManager struct {
	backend Backend

	mu         sync.RWMutex
	cache      map[string]concolic.Expr
	order      []string
	maxEntries int

	hits   int
	misses int
}

// NewConstraintManager wraps backend with a simplification cache bounded to
// maxEntries entries (0 selects a reasonable default).
func NewConstraintManager(backend Backend, maxEntries int) *ConstraintManager {
	if maxEntries <= 0 {
		maxEntries = 4096
	}
	return &ConstraintManager{
		backend:    backend,
		cache:      make(map[string]concolic.Expr),
		maxEntries: maxEntries,
	}
}

// Simplify returns backend.Simplify(constraints, e), serving from cache when
// the same (constraint-set shape, expression) pair was simplified before.
func (m *ConstraintManager) Simplify(constraints []concolic.Expr, e concolic.Expr) concolic.Expr {
	key := m.cacheKey(constraints, e)

	m.mu.RLock()
	if cached, ok := m.cache[key]; ok {
		m.mu.RUnlock()
		m.mu.Lock()
		m.hits++
		m.mu.Unlock()
		return cached
	}
	m.mu.RUnlock()

	simplified := m.backend.Simplify(constraints, e)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.misses++
	m.store(key, simplified)
	return simplified
}

func (m *ConstraintManager) store(key string, e concolic.Expr) {
	if _, exists := m.cache[key]; !exists {
		if len(m.order) >= m.maxEntries {
			oldest := m.order[0]
			m.order = m.order[1:]
			delete(m.cache, oldest)
		}
		m.order = append(m.order, key)
	}
	m.cache[key] = e
}

func (m *ConstraintManager) cacheKey(constraints []concolic.Expr, e concolic.Expr) string {
	return fmt.Sprintf("%d:%v", len(constraints), e)
}

// CacheStats reports (hits, misses) since creation. The driver's final
// report does not include them; it carries only solver.Stats timing.
func (m *ConstraintManager) CacheStats() (hits, misses int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hits, m.misses
}
