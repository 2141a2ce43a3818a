// Package store implements the symbolic input store: an ordered mapping
// from input-array name to a concrete byte sequence. It doubles as the
// serialisable test-case format (see package testcase).
package store

// Store is the current assignment used to seed concolic values, ordered by
// first encounter so re-serialisation is stable (see testcase.WriteFile).
type Store struct {
	order  []string
	values map[string][]byte
}

// New returns an empty store.
func New() *Store {
	return &Store{values: make(map[string][]byte)}
}

// Set installs the bytes for name, appending name to the iteration order
// the first time it is seen. A later Set on the same name does not move it.
func (s *Store) Set(name string, value []byte) {
	if s.values == nil {
		s.values = make(map[string][]byte)
	}
	if _, ok := s.values[name]; !ok {
		s.order = append(s.order, name)
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	s.values[name] = cp
}

// Get returns the bytes bound to name, and whether name is present.
func (s *Store) Get(name string) ([]byte, bool) {
	if s == nil || s.values == nil {
		return nil, false
	}
	v, ok := s.values[name]
	return v, ok
}

// Names returns all bound names in first-encounter order.
func (s *Store) Names() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Len reports the number of bound names.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// Empty reports whether the store binds no names at all — the execution
// did not depend on any symbolic value (mirrors clover::ConcreteStore's
// empty() check in dump_input()).
func (s *Store) Empty() bool {
	return s.Len() == 0
}

// Clone returns a deep copy of s.
func (s *Store) Clone() *Store {
	c := New()
	if s == nil {
		return c
	}
	for _, name := range s.order {
		c.Set(name, s.values[name])
	}
	return c
}
