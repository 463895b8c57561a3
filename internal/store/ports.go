package store

import (
	"context"

	"keuangan/internal/core"
)

// Ports for persistence adapters. Every backend stores two documents: the
// full transaction list and the settings record.
type (
	TransactionStore interface {
		// LoadTransactions returns the stored list, or an empty list when
		// nothing has been stored yet. An error wrapping ErrDegraded comes
		// with a usable fallback list that must not be saved back.
		LoadTransactions(ctx context.Context) ([]core.Transaction, error)
		// SaveTransactions replaces the stored list.
		SaveTransactions(ctx context.Context, txs []core.Transaction) error
	}

	SettingsStore interface {
		// LoadSettings returns the stored settings merged over the defaults,
		// with the same ErrDegraded contract as LoadTransactions.
		LoadSettings(ctx context.Context) (core.Settings, error)
		SaveSettings(ctx context.Context, s core.Settings) error
	}

	Store interface {
		TransactionStore
		SettingsStore
	}

	// Documents is a raw named-blob backend. Get returns ErrNoDocument when
	// name has never been written.
	Documents interface {
		Get(ctx context.Context, name string) ([]byte, error)
		Put(ctx context.Context, name string, body []byte) error
	}
)

// Document names, shared by every backend.
const (
	TransactionsDoc = "transactions.json"
	SettingsDoc     = "settings.json"
)
