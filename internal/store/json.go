package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"keuangan/internal/core"
)

var ErrNoDocument = errors.New("document not found")

// ErrDegraded comes back together with a fallback value served in place of
// a document that could not be read or decoded. The fallback may be shown
// but must never be saved over the stored document.
var ErrDegraded = errors.New("document unavailable, serving fallback")

// JSONStore implements Store over a Documents backend, encoding both
// documents as indented JSON.
type JSONStore struct {
	docs         Documents
	seedMissing  bool
	tolerateRead bool
	logger       *slog.Logger
}

type Option func(*JSONStore)

// SeedMissing writes the fallback value the first time a document is found
// missing.
func SeedMissing() Option {
	return func(s *JSONStore) { s.seedMissing = true }
}

// TolerateReadErrors logs read and decode failures and serves the fallback
// value along with an error wrapping ErrDegraded.
func TolerateReadErrors(logger *slog.Logger) Option {
	return func(s *JSONStore) {
		s.tolerateRead = true
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewJSONStore(docs Documents, opts ...Option) *JSONStore {
	s := &JSONStore{docs: docs, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *JSONStore) LoadTransactions(ctx context.Context) ([]core.Transaction, error) {
	txs := []core.Transaction{}
	err := s.load(ctx, TransactionsDoc, &txs, []core.Transaction{})
	if err != nil && !errors.Is(err, ErrDegraded) {
		return nil, err
	}
	if txs == nil {
		txs = []core.Transaction{}
	}
	return txs, err
}

func (s *JSONStore) SaveTransactions(ctx context.Context, txs []core.Transaction) error {
	if txs == nil {
		txs = []core.Transaction{}
	}
	return s.save(ctx, TransactionsDoc, txs)
}

func (s *JSONStore) LoadSettings(ctx context.Context) (core.Settings, error) {
	// Decoding over the defaults keeps fields missing from older documents.
	settings := core.DefaultSettings()
	err := s.load(ctx, SettingsDoc, &settings, core.DefaultSettings())
	if err != nil && !errors.Is(err, ErrDegraded) {
		return core.Settings{}, err
	}
	return settings, err
}

func (s *JSONStore) SaveSettings(ctx context.Context, settings core.Settings) error {
	return s.save(ctx, SettingsDoc, settings)
}

func (s *JSONStore) load(ctx context.Context, name string, dst any, fallback any) error {
	body, err := s.docs.Get(ctx, name)
	switch {
	case errors.Is(err, ErrNoDocument):
		if s.seedMissing {
			if err := s.save(ctx, name, fallback); err != nil {
				return err
			}
		}
		return nil
	case err != nil:
		if s.tolerateRead {
			s.logger.WarnContext(ctx, "Document read failed, using fallback", "document", name, "error", err)
			return fmt.Errorf("read %s: %v: %w", name, err, ErrDegraded)
		}
		return fmt.Errorf("read %s: %w", name, err)
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, dst); err != nil {
		if s.tolerateRead {
			s.logger.WarnContext(ctx, "Document decode failed, using fallback", "document", name, "error", err)
			resetTo(dst, fallback)
			return fmt.Errorf("decode %s: %v: %w", name, err, ErrDegraded)
		}
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

func (s *JSONStore) save(ctx context.Context, name string, v any) error {
	body, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := s.docs.Put(ctx, name, body); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// resetTo restores dst after a partial decode.
func resetTo(dst, fallback any) {
	switch d := dst.(type) {
	case *[]core.Transaction:
		*d = fallback.([]core.Transaction)
	case *core.Settings:
		*d = fallback.(core.Settings)
	}
}
