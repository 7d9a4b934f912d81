package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"saldo/internal/sheets"
)

// Store keeps activity rows in process. It backs the worker when no
// spreadsheet is configured.
type Store struct {
	mu   sync.Mutex
	rows []sheets.ActivityRow
}

var _ sheets.ActivityWriter = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// AppendActivity stores the row and returns a synthetic row reference.
func (s *Store) AppendActivity(_ context.Context, row sheets.ActivityRow) (string, error) {
	if row.TransactionID == "" {
		return "", errors.New("activity row without transaction id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, row)
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

// Rows returns a copy of every appended row.
func (s *Store) Rows() []sheets.ActivityRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sheets.ActivityRow(nil), s.rows...)
}
