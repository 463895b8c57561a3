package memory

import (
	"context"
	"sync"

	"keuangan/internal/core"
)

// Store keeps both documents in process memory. Values are copied on the way
// in and out so callers never share backing arrays with the store.
type Store struct {
	mu       sync.Mutex
	items    []core.Transaction
	settings core.Settings
}

func New() *Store {
	return &Store{items: []core.Transaction{}, settings: core.DefaultSettings()}
}

// NewWithSeed starts the store with txs and s.
func NewWithSeed(txs []core.Transaction, s core.Settings) *Store {
	st := New()
	st.items = clone(txs)
	st.settings = s
	return st
}

func (s *Store) LoadTransactions(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.items), nil
}

func (s *Store) SaveTransactions(_ context.Context, txs []core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = clone(txs)
	return nil
}

func (s *Store) LoadSettings(_ context.Context) (core.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings, nil
}

func (s *Store) SaveSettings(_ context.Context, settings core.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
	return nil
}

func clone(in []core.Transaction) []core.Transaction {
	out := make([]core.Transaction, len(in))
	copy(out, in)
	return out
}
