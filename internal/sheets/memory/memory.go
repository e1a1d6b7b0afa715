package memory

import (
	"context"
	"fmt"
	"sync"

	"it10bb/internal/sheets"
)

// Store keeps exported breakdowns in process. It backs the memory export
// backend and tests.
type Store struct {
	mu   sync.Mutex
	rows [][]any
	refs []string
}

var _ sheets.BreakdownWriter = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// AppendBreakdown stores the rows and returns a synthetic range reference.
func (s *Store) AppendBreakdown(_ context.Context, b sheets.Breakdown) (string, error) {
	if err := b.Validate(); err != nil {
		return "", err
	}
	rows := b.Rows()

	s.mu.Lock()
	defer s.mu.Unlock()
	start := len(s.rows) + 1
	s.rows = append(s.rows, rows...)
	s.refs = append(s.refs, b.Reference)
	return fmt.Sprintf("mem:%d-%d", start, len(s.rows)), nil
}

// Rows returns a copy of every row written so far.
func (s *Store) Rows() [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]any, len(s.rows))
	for i, r := range s.rows {
		out[i] = append([]any(nil), r...)
	}
	return out
}

// References lists breakdown references in write order.
func (s *Store) References() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.refs...)
}
