package memory

import (
	"context"
	"sync"

	"finreport/internal/core"
	ports "finreport/internal/sheets"
)

var _ ports.TransactionSource = (*Store)(nil)

// Store is an in-memory cell matrix, header row first. It is used for
// fixtures and as the source behind tests of the upper layers.
type Store struct {
	mu     sync.Mutex
	values [][]string
	loads  int
}

func New(values [][]string) *Store {
	s := &Store{}
	s.Replace(values)
	return s
}

// Replace swaps the stored matrix.
func (s *Store) Replace(values [][]string) {
	cp := make([][]string, len(values))
	for i, row := range values {
		cp[i] = append([]string(nil), row...)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = cp
}

// Load maps the stored matrix to a table.
func (s *Store) Load(ctx context.Context) (*core.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	return ports.ParseRows(s.values)
}

// Loads returns how many times Load was called.
func (s *Store) Loads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loads
}

func (s *Store) Name() string { return "memory" }
