// Package testcase implements the on-disk test-case format described in
// §6: one line per named symbolic input, "name<TAB>hex(bytes)", distinct
// from original_source/vp/src/symex/symbolic_format.{h,cpp}'s bencode-based
// wire format (out of scope per §1 Non-goals — this package is the
// driver's own persisted record of an assignment, not the guest-facing
// input loader).
package testcase

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"symex/pkg/store"
)

// Write serialises s to w as one "name\thex\n" line per bound name, in the
// store's first-encounter order, so re-reading and re-writing a test case
// is byte-for-byte stable.
func Write(w io.Writer, s *store.Store) error {
	bw := bufio.NewWriter(w)
	for _, name := range s.Names() {
		value, _ := s.Get(name)
		if _, err := fmt.Fprintf(bw, "%s\t%s\n", name, hex.EncodeToString(value)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteFile writes s to a newly created file at path.
func WriteFile(path string, s *store.Store) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return Write(f, s)
}

// Read parses the line-oriented format back into a Store.
func Read(r io.Reader) (*store.Store, error) {
	s := store.New()
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		parts := strings.SplitN(line, "\t", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("testcase: line %d: expected \"name\\thex\", got %q", lineNo, line)
		}
		value, err := hex.DecodeString(parts[1])
		if err != nil {
			return nil, fmt.Errorf("testcase: line %d: invalid hex: %w", lineNo, err)
		}
		s.Set(parts[0], value)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return s, nil
}

// ReadFile parses the test case stored at path.
func ReadFile(path string) (*store.Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}
