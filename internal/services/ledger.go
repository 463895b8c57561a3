package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"keuangan/internal/amqp"
	"keuangan/internal/core"
	"keuangan/internal/log"
	"keuangan/internal/store"
)

// ErrValidation matches every *ValidationError.
var ErrValidation = errors.New("invalid transaction")

// ValidationError lists the rejected form fields and why.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "invalid transaction: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// TransactionInput carries raw form values for a create or update.
type TransactionInput struct {
	Date     string
	Type     string
	Category string
	Note     string
	Amount   string
}

// Publisher announces ledger changes. *amqp.Client satisfies it.
type Publisher interface {
	PublishLedgerChanged(ctx context.Context, kind amqp.ChangeKind, month, txID string) error
}

// Ledger owns every read-modify-write of the stored documents. Writes are
// serialised so two concurrent requests cannot drop each other's changes.
type Ledger struct {
	mu        sync.Mutex
	store     store.Store
	publisher Publisher
	logger    *log.Logger
	newID     func() string
}

type Option func(*Ledger)

func WithPublisher(p Publisher) Option {
	return func(l *Ledger) { l.publisher = p }
}

func WithLogger(logger *log.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

// WithIDGenerator replaces the uuid generator, for tests.
func WithIDGenerator(fn func() string) Option {
	return func(l *Ledger) { l.newID = fn }
}

func NewLedger(st store.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:  st,
		logger: log.Wrap(nil, log.ComponentLedger),
		newID:  func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// List returns every stored transaction. A degraded load still yields the
// fallback so pages keep rendering.
func (l *Ledger) List(ctx context.Context) ([]core.Transaction, error) {
	txs, err := l.store.LoadTransactions(ctx)
	if errors.Is(err, store.ErrDegraded) {
		l.logger.WarnContext(ctx, "Showing fallback transactions", "error", err)
		return txs, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	return txs, nil
}

// loadForWrite is List without the fallback. Writing a fallback back would
// replace every stored record.
func (l *Ledger) loadForWrite(ctx context.Context) ([]core.Transaction, error) {
	txs, err := l.store.LoadTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	return txs, nil
}

func (l *Ledger) Get(ctx context.Context, id string) (core.Transaction, error) {
	txs, err := l.List(ctx)
	if err != nil {
		return core.Transaction{}, err
	}
	if i := indexOf(txs, id); i >= 0 {
		return txs[i], nil
	}
	return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
}

// Create validates in and appends it under a fresh id.
func (l *Ledger) Create(ctx context.Context, in TransactionInput) (core.Transaction, error) {
	tx, err := buildTransaction(in)
	if err != nil {
		return core.Transaction{}, err
	}
	tx.ID = l.newID()

	l.mu.Lock()
	defer l.mu.Unlock()

	txs, err := l.loadForWrite(ctx)
	if err != nil {
		return core.Transaction{}, err
	}
	if err := l.save(ctx, append(txs, tx), log.OpCreate, tx); err != nil {
		return core.Transaction{}, err
	}
	l.publish(ctx, amqp.TransactionCreated, tx)
	return tx, nil
}

// Update replaces the fields of transaction id, keeping its id.
func (l *Ledger) Update(ctx context.Context, id string, in TransactionInput) (core.Transaction, error) {
	tx, err := buildTransaction(in)
	if err != nil {
		return core.Transaction{}, err
	}
	tx.ID = id

	l.mu.Lock()
	defer l.mu.Unlock()

	txs, err := l.loadForWrite(ctx)
	if err != nil {
		return core.Transaction{}, err
	}
	i := indexOf(txs, id)
	if i < 0 {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
	}
	previous := txs[i]
	txs[i] = tx
	if err := l.save(ctx, txs, log.OpUpdate, tx); err != nil {
		return core.Transaction{}, err
	}

	l.publish(ctx, amqp.TransactionUpdated, tx)
	if prevMonth := core.MonthOf(previous.Date.Time); !previous.Date.IsZero() && prevMonth != core.MonthOf(tx.Date.Time) {
		l.publish(ctx, amqp.TransactionUpdated, previous)
	}
	return tx, nil
}

// Delete removes transaction id. Deleting an unknown id is not an error;
// the returned flag reports whether anything was removed.
func (l *Ledger) Delete(ctx context.Context, id string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	txs, err := l.loadForWrite(ctx)
	if err != nil {
		return false, err
	}
	i := indexOf(txs, id)
	if i < 0 {
		return false, nil
	}
	removed := txs[i]
	next := append(txs[:i:i], txs[i+1:]...)
	if err := l.save(ctx, next, log.OpDelete, removed); err != nil {
		return false, err
	}
	l.publish(ctx, amqp.TransactionDeleted, removed)
	return true, nil
}

func (l *Ledger) Settings(ctx context.Context) (core.Settings, error) {
	s, err := l.store.LoadSettings(ctx)
	if errors.Is(err, store.ErrDegraded) {
		l.logger.WarnContext(ctx, "Showing fallback settings", "error", err)
		return s, nil
	}
	if err != nil {
		return core.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	return s, nil
}

func (l *Ledger) UpdateSettings(ctx context.Context, u core.SettingsUpdate) (core.Settings, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	current, err := l.store.LoadSettings(ctx)
	if err != nil {
		return core.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	next := core.MergeSettings(current, u)
	if err := l.store.SaveSettings(ctx, next); err != nil {
		l.logger.Failure(ctx, "Failed to save settings", err, log.OpUpdateSettings, log.ErrorTypeStorage, nil)
		return core.Settings{}, fmt.Errorf("save settings: %w", err)
	}
	l.logger.InfoContext(ctx, "Settings updated", "currency", next.Currency)

	if l.publisher != nil {
		if err := l.publisher.PublishLedgerChanged(ctx, amqp.SettingsUpdated, "", ""); err != nil {
			l.logger.WarnContext(ctx, "Failed to publish ledger change", "error", err)
		}
	}
	return next, nil
}

// Dashboard computes the current-month view as of now.
func (l *Ledger) Dashboard(ctx context.Context, now time.Time) (core.Dashboard, error) {
	txs, s, err := l.snapshot(ctx)
	if err != nil {
		return core.Dashboard{}, err
	}
	return core.BuildDashboard(txs, s, now), nil
}

func (l *Ledger) Report(ctx context.Context, ym core.YearMonth) (core.Report, error) {
	txs, s, err := l.snapshot(ctx)
	if err != nil {
		return core.Report{}, err
	}
	return core.BuildReport(txs, s, ym), nil
}

// snapshot loads both documents concurrently.
func (l *Ledger) snapshot(ctx context.Context) ([]core.Transaction, core.Settings, error) {
	var (
		txs []core.Transaction
		s   core.Settings
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		txs, err = l.List(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		s, err = l.Settings(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, core.Settings{}, err
	}
	return txs, s, nil
}

func (l *Ledger) save(ctx context.Context, txs []core.Transaction, op string, tx core.Transaction) error {
	fields := log.NewFields().WithTransaction(tx.ID, string(tx.Type), tx.Category, tx.Amount).WithMonth(core.MonthOf(tx.Date.Time).String())
	if err := l.store.SaveTransactions(ctx, txs); err != nil {
		l.logger.Failure(ctx, "Failed to save transactions", err, op, log.ErrorTypeStorage, fields)
		return fmt.Errorf("save transactions: %w", err)
	}
	l.logger.Event(ctx, slog.LevelInfo, "Transaction saved", fields.WithOperation(op))
	return nil
}

// publish never fails the write; the stored documents are the source of truth.
func (l *Ledger) publish(ctx context.Context, kind amqp.ChangeKind, tx core.Transaction) {
	if l.publisher == nil {
		return
	}
	// Undated records map to no month; the worker then refreshes the current one.
	var month string
	if !tx.Date.IsZero() {
		month = core.MonthOf(tx.Date.Time).String()
	}
	if err := l.publisher.PublishLedgerChanged(ctx, kind, month, tx.ID); err != nil {
		l.logger.WarnContext(ctx, "Failed to publish ledger change", "kind", kind, "month", month, "error", err)
	}
}

func buildTransaction(in TransactionInput) (core.Transaction, error) {
	problems := map[string]string{}

	date, err := core.ParseDate(in.Date)
	if err != nil {
		problems["date"] = "tanggal tidak valid"
	}

	typ := core.TxType(strings.ToLower(strings.TrimSpace(in.Type)))
	if !typ.IsValid() {
		problems["type"] = "jenis harus income atau expense"
	}

	amount, err := core.ParseAmount(in.Amount)
	switch {
	case errors.Is(err, core.ErrNegativeAmount):
		problems["amount"] = "jumlah tidak boleh negatif"
	case err != nil:
		problems["amount"] = "jumlah harus berupa angka"
	}

	if len(problems) > 0 {
		return core.Transaction{}, &ValidationError{Fields: problems}
	}

	category := strings.TrimSpace(in.Category)
	if category == "" {
		category = core.DefaultCategory
	}
	return core.Transaction{
		Date:     date,
		Type:     typ,
		Category: category,
		Note:     strings.TrimSpace(in.Note),
		Amount:   amount,
	}, nil
}

func indexOf(txs []core.Transaction, id string) int {
	for i, tx := range txs {
		if tx.ID == id {
			return i
		}
	}
	return -1
}
